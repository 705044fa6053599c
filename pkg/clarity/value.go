// Package clarity encodes and walks serialized Clarity values.
package clarity

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/Klingon-tech/walletsim/pkg/types"
)

// Type prefixes of serialized Clarity values.
const (
	TypeInt               byte = 0x00
	TypeUInt              byte = 0x01
	TypeBuffer            byte = 0x02
	TypeTrue              byte = 0x03
	TypeFalse             byte = 0x04
	TypeStandardPrincipal byte = 0x05
	TypeContractPrincipal byte = 0x06
	TypeResponseOk        byte = 0x07
	TypeResponseErr       byte = 0x08
	TypeNone              byte = 0x09
	TypeSome              byte = 0x0a
	TypeList              byte = 0x0b
	TypeTuple             byte = 0x0c
	TypeStringASCII       byte = 0x0d
	TypeStringUTF8        byte = 0x0e
)

// MaxDepth bounds value nesting when walking untrusted input.
const MaxDepth = 64

// UInt encodes a 128-bit unsigned integer from a uint64.
func UInt(v uint64) []byte {
	out := make([]byte, 17)
	out[0] = TypeUInt
	binary.BigEndian.PutUint64(out[9:], v)
	return out
}

// UIntBig encodes a 128-bit unsigned integer.
func UIntBig(v *big.Int) ([]byte, error) {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return nil, fmt.Errorf("uint out of range: %s", v)
	}
	out := make([]byte, 17)
	out[0] = TypeUInt
	v.FillBytes(out[1:])
	return out, nil
}

// Int encodes a 128-bit signed integer from an int64.
func Int(v int64) []byte {
	out := make([]byte, 17)
	out[0] = TypeInt
	if v < 0 {
		for i := 1; i < 9; i++ {
			out[i] = 0xff
		}
	}
	binary.BigEndian.PutUint64(out[9:], uint64(v))
	return out
}

// Bool encodes true or false.
func Bool(v bool) []byte {
	if v {
		return []byte{TypeTrue}
	}
	return []byte{TypeFalse}
}

// None encodes the none optional.
func None() []byte {
	return []byte{TypeNone}
}

// Some wraps an encoded value in an optional.
func Some(inner []byte) []byte {
	return append([]byte{TypeSome}, inner...)
}

// Buffer encodes a byte buffer.
func Buffer(b []byte) []byte {
	return lengthPrefixed(TypeBuffer, b)
}

// StringASCII encodes an ASCII string.
func StringASCII(s string) ([]byte, error) {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7e || (s[i] < 0x20 && s[i] != '\t' && s[i] != '\n' && s[i] != '\r') {
			return nil, fmt.Errorf("non-ascii character at offset %d", i)
		}
	}
	return lengthPrefixed(TypeStringASCII, []byte(s)), nil
}

// StringUTF8 encodes a UTF-8 string.
func StringUTF8(s string) []byte {
	return lengthPrefixed(TypeStringUTF8, []byte(s))
}

// StandardPrincipal encodes an address.
func StandardPrincipal(a types.Address) []byte {
	out := make([]byte, 0, 22)
	out = append(out, TypeStandardPrincipal, a.Version)
	return append(out, a.Hash160[:]...)
}

// ContractPrincipal encodes a contract identifier.
func ContractPrincipal(c types.ContractID) []byte {
	out := make([]byte, 0, 23+len(c.Name))
	out = append(out, TypeContractPrincipal, c.Address.Version)
	out = append(out, c.Address.Hash160[:]...)
	out = append(out, byte(len(c.Name)))
	return append(out, c.Name...)
}

// Principal encodes either "<address>" or "<address>.<contract>".
func Principal(s string) ([]byte, error) {
	if strings.Contains(s, ".") {
		c, err := types.ParseContractID(s)
		if err != nil {
			return nil, err
		}
		return ContractPrincipal(c), nil
	}
	a, err := types.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	return StandardPrincipal(a), nil
}

// List encodes a list of already encoded values.
func List(items ...[]byte) []byte {
	out := make([]byte, 5)
	out[0] = TypeList
	binary.BigEndian.PutUint32(out[1:], uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// Tuple encodes named fields. Keys are written in lexicographic order,
// which is the canonical order nodes expect.
func Tuple(fields map[string][]byte) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if len(k) == 0 || len(k) > 128 {
			return nil, fmt.Errorf("invalid tuple key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]byte, 5)
	out[0] = TypeTuple
	binary.BigEndian.PutUint32(out[1:], uint32(len(keys)))
	for _, k := range keys {
		out = append(out, byte(len(k)))
		out = append(out, k...)
		out = append(out, fields[k]...)
	}
	return out, nil
}

func lengthPrefixed(prefix byte, b []byte) []byte {
	out := make([]byte, 5, 5+len(b))
	out[0] = prefix
	binary.BigEndian.PutUint32(out[1:], uint32(len(b)))
	return append(out, b...)
}
