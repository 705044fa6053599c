package provider

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/Klingon-tech/walletsim/pkg/clarity"
	"github.com/Klingon-tech/walletsim/pkg/crypto"
)

// MessagePrefix is prepended to signed plain-text messages.
const MessagePrefix = "\x17Stacks Signed Message:\n"

// StructuredPrefix is prepended to structured data hashes.
const StructuredPrefix = "SIP018"

// domainFields are the fields a structured data domain must carry and
// their Clarity types. Other fields are allowed.
var domainFields = []struct {
	name string
	typ  byte
}{
	{"name", clarity.TypeStringASCII},
	{"version", clarity.TypeStringASCII},
	{"chain-id", clarity.TypeUInt},
}

// HashMessage returns sha256(prefix || varint(len) || message).
func HashMessage(message string) [32]byte {
	buf := make([]byte, 0, len(MessagePrefix)+9+len(message))
	buf = append(buf, MessagePrefix...)
	buf = appendVarint(buf, uint64(len(message)))
	buf = append(buf, message...)
	return crypto.Sha256(buf)
}

// appendVarint appends a Bitcoin CompactSize integer.
func appendVarint(buf []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(buf, byte(n))
	case n <= 0xffff:
		return binary.LittleEndian.AppendUint16(append(buf, 0xfd), uint16(n))
	case n <= 0xffffffff:
		return binary.LittleEndian.AppendUint32(append(buf, 0xfe), uint32(n))
	default:
		return binary.LittleEndian.AppendUint64(append(buf, 0xff), n)
	}
}

// HashStructured returns sha256("SIP018" || sha256(domain) || sha256(message))
// over serialized Clarity values.
func HashStructured(domain, message []byte) [32]byte {
	dh := crypto.Sha256(domain)
	mh := crypto.Sha256(message)
	buf := make([]byte, 0, len(StructuredPrefix)+64)
	buf = append(buf, StructuredPrefix...)
	buf = append(buf, dh[:]...)
	buf = append(buf, mh[:]...)
	return crypto.Sha256(buf)
}

// ValidateDomain checks that domain is a tuple carrying at least an
// ASCII name, an ASCII version and a uint chain-id.
func ValidateDomain(domain []byte) error {
	fields, err := clarity.TupleFields(domain)
	if err != nil {
		return fmt.Errorf("domain: %w", err)
	}
	for _, want := range domainFields {
		i := slices.IndexFunc(fields, func(f clarity.Field) bool { return f.Name == want.name })
		if i < 0 {
			return fmt.Errorf("domain is missing %s", want.name)
		}
		if v := fields[i].Value; v[0] != want.typ {
			return fmt.Errorf("domain %s has clarity type 0x%02x, want 0x%02x", want.name, v[0], want.typ)
		}
	}
	return nil
}
