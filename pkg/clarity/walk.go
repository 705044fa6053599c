package clarity

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Klingon-tech/walletsim/pkg/types"
)

// ErrTruncated is returned when a serialized value ends early.
var ErrTruncated = errors.New("clarity: truncated value")

// Skip returns the length in bytes of the first serialized value in b.
func Skip(b []byte) (int, error) {
	return skip(b, 0)
}

// Validate checks that b holds exactly one well-formed value.
func Validate(b []byte) error {
	n, err := Skip(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("clarity: %d trailing bytes", len(b)-n)
	}
	return nil
}

// DecodeHex parses and validates a hex-encoded value, with or without 0x.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("clarity: invalid hex: %w", err)
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	return b, nil
}

func skip(b []byte, depth int) (int, error) {
	if depth > MaxDepth {
		return 0, fmt.Errorf("clarity: nesting deeper than %d", MaxDepth)
	}
	if len(b) < 1 {
		return 0, ErrTruncated
	}
	switch b[0] {
	case TypeInt, TypeUInt:
		return need(b, 17)
	case TypeTrue, TypeFalse, TypeNone:
		return 1, nil
	case TypeBuffer, TypeStringASCII, TypeStringUTF8:
		n, err := u32(b, 1)
		if err != nil {
			return 0, err
		}
		return need(b, 5+int(n))
	case TypeStandardPrincipal:
		return need(b, 22)
	case TypeContractPrincipal:
		if len(b) < 23 {
			return 0, ErrTruncated
		}
		return need(b, 23+int(b[22]))
	case TypeResponseOk, TypeResponseErr, TypeSome:
		n, err := skip(b[1:], depth+1)
		return 1 + n, err
	case TypeList:
		count, err := u32(b, 1)
		if err != nil {
			return 0, err
		}
		off := 5
		for i := uint32(0); i < count; i++ {
			n, err := skip(b[off:], depth+1)
			if err != nil {
				return 0, err
			}
			off += n
		}
		return off, nil
	case TypeTuple:
		count, err := u32(b, 1)
		if err != nil {
			return 0, err
		}
		off := 5
		for i := uint32(0); i < count; i++ {
			if off >= len(b) {
				return 0, ErrTruncated
			}
			off += 1 + int(b[off])
			if off > len(b) {
				return 0, ErrTruncated
			}
			n, err := skip(b[off:], depth+1)
			if err != nil {
				return 0, err
			}
			off += n
		}
		return off, nil
	default:
		return 0, fmt.Errorf("clarity: unknown type prefix 0x%02x", b[0])
	}
}

func need(b []byte, n int) (int, error) {
	if len(b) < n {
		return 0, ErrTruncated
	}
	return n, nil
}

func u32(b []byte, off int) (uint32, error) {
	if len(b) < off+4 {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint32(b[off:]), nil
}

// Field is one named member of a serialized tuple. Value is the
// serialized member value.
type Field struct {
	Name  string
	Value []byte
}

// TupleFields splits a serialized tuple into its fields in wire order.
// Values alias b.
func TupleFields(b []byte) ([]Field, error) {
	if len(b) < 1 || b[0] != TypeTuple {
		return nil, fmt.Errorf("clarity: not a tuple")
	}
	count, err := u32(b, 1)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, min(count, 256))
	off := 5
	for i := uint32(0); i < count; i++ {
		if off >= len(b) {
			return nil, ErrTruncated
		}
		l := int(b[off])
		if off+1+l > len(b) {
			return nil, ErrTruncated
		}
		name := string(b[off+1 : off+1+l])
		off += 1 + l
		n, err := skip(b[off:], 1)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Value: b[off : off+n]})
		off += n
	}
	return fields, nil
}

// TupleKeys returns the field names of a serialized tuple in wire order.
func TupleKeys(b []byte) ([]string, error) {
	fields, err := TupleFields(b)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Name
	}
	return keys, nil
}

// Repr renders a serialized value in Clarity literal syntax,
// e.g. "(ok (tuple (a u1)))".
func Repr(b []byte) (string, error) {
	var sb strings.Builder
	n, err := repr(&sb, b, 0)
	if err != nil {
		return "", err
	}
	if n != len(b) {
		return "", fmt.Errorf("clarity: %d trailing bytes", len(b)-n)
	}
	return sb.String(), nil
}

func repr(sb *strings.Builder, b []byte, depth int) (int, error) {
	n, err := skip(b, depth)
	if err != nil {
		return 0, err
	}
	switch b[0] {
	case TypeUInt:
		sb.WriteString("u" + new(big.Int).SetBytes(b[1:17]).String())
	case TypeInt:
		v := new(big.Int).SetBytes(b[1:17])
		if b[1]&0x80 != 0 {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 128))
		}
		sb.WriteString(v.String())
	case TypeTrue:
		sb.WriteString("true")
	case TypeFalse:
		sb.WriteString("false")
	case TypeNone:
		sb.WriteString("none")
	case TypeBuffer:
		sb.WriteString("0x" + hex.EncodeToString(b[5:n]))
	case TypeStringASCII:
		sb.WriteString(strconv.Quote(string(b[5:n])))
	case TypeStringUTF8:
		if !utf8.Valid(b[5:n]) {
			return 0, fmt.Errorf("clarity: invalid utf8 string")
		}
		sb.WriteString("u" + strconv.Quote(string(b[5:n])))
	case TypeStandardPrincipal, TypeContractPrincipal:
		var a types.Address
		a.Version = b[1]
		copy(a.Hash160[:], b[2:22])
		sb.WriteString("'" + a.String())
		if b[0] == TypeContractPrincipal {
			sb.WriteString("." + string(b[23:n]))
		}
	case TypeResponseOk, TypeResponseErr, TypeSome:
		sb.WriteString("(" + map[byte]string{TypeResponseOk: "ok", TypeResponseErr: "err", TypeSome: "some"}[b[0]] + " ")
		if _, err := repr(sb, b[1:], depth+1); err != nil {
			return 0, err
		}
		sb.WriteString(")")
	case TypeList:
		sb.WriteString("(list")
		count := binary.BigEndian.Uint32(b[1:])
		off := 5
		for i := uint32(0); i < count; i++ {
			sb.WriteString(" ")
			m, err := repr(sb, b[off:], depth+1)
			if err != nil {
				return 0, err
			}
			off += m
		}
		sb.WriteString(")")
	case TypeTuple:
		sb.WriteString("(tuple")
		count := binary.BigEndian.Uint32(b[1:])
		off := 5
		for i := uint32(0); i < count; i++ {
			l := int(b[off])
			sb.WriteString(" (" + string(b[off+1:off+1+l]) + " ")
			off += 1 + l
			m, err := repr(sb, b[off:], depth+1)
			if err != nil {
				return 0, err
			}
			off += m
			sb.WriteString(")")
		}
		sb.WriteString(")")
	}
	return n, nil
}
