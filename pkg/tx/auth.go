package tx

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
)

// AuthType selects standard or sponsored authorization.
type AuthType byte

const (
	AuthStandard  AuthType = 0x04
	AuthSponsored AuthType = 0x05
)

// HashMode describes how the signer hash was derived.
type HashMode byte

const (
	HashModeP2PKH  HashMode = 0x00
	HashModeP2SH   HashMode = 0x01
	HashModeP2WPKH HashMode = 0x02
	HashModeP2WSH  HashMode = 0x03
	// Non-sequential multisig modes.
	HashModeP2SHNonSequential  HashMode = 0x05
	HashModeP2WSHNonSequential HashMode = 0x07
)

// IsSingleSig reports whether the mode carries one key and one signature.
func (m HashMode) IsSingleSig() bool {
	return m == HashModeP2PKH || m == HashModeP2WPKH
}

func (m HashMode) valid() bool {
	switch m {
	case HashModeP2PKH, HashModeP2SH, HashModeP2WPKH, HashModeP2WSH,
		HashModeP2SHNonSequential, HashModeP2WSHNonSequential:
		return true
	}
	return false
}

// KeyEncoding records whether the signing public key is compressed.
type KeyEncoding byte

const (
	KeyEncodingCompressed   KeyEncoding = 0x00
	KeyEncodingUncompressed KeyEncoding = 0x01
)

// Multisig auth field types.
const (
	FieldPublicKeyCompressed   byte = 0x00
	FieldPublicKeyUncompressed byte = 0x01
	FieldSignatureCompressed   byte = 0x02
	FieldSignatureUncompressed byte = 0x03
)

// ErrTruncated is returned when a serialized transaction ends early.
var ErrTruncated = errors.New("tx: truncated")

// AuthField is one public key or signature of a multisig condition.
type AuthField struct {
	Type byte
	Data []byte
}

// SpendingCondition is the signer part of an authorization.
type SpendingCondition struct {
	HashMode HashMode
	Signer   [crypto.Hash160Size]byte
	Nonce    uint64
	Fee      uint64

	// Single-sig.
	KeyEncoding KeyEncoding
	Signature   [crypto.RecoverableSignatureSize]byte

	// Multisig.
	Fields             []AuthField
	SignaturesRequired uint16
}

// NewSingleSigCondition builds a P2PKH condition for pubKey.
func NewSingleSigCondition(pubKey []byte, nonce, fee uint64) SpendingCondition {
	enc := KeyEncodingCompressed
	if len(pubKey) == 65 {
		enc = KeyEncodingUncompressed
	}
	return SpendingCondition{
		HashMode:    HashModeP2PKH,
		Signer:      crypto.Hash160FromPubKey(pubKey),
		Nonce:       nonce,
		Fee:         fee,
		KeyEncoding: enc,
	}
}

// cleared returns a copy with nonce, fee and signature material zeroed,
// as required for the initial sighash.
func (c SpendingCondition) cleared() SpendingCondition {
	c.Nonce = 0
	c.Fee = 0
	if c.HashMode.IsSingleSig() {
		c.Signature = [crypto.RecoverableSignatureSize]byte{}
	} else {
		c.Fields = nil
	}
	return c
}

func (c SpendingCondition) appendTo(buf []byte) []byte {
	buf = append(buf, byte(c.HashMode))
	buf = append(buf, c.Signer[:]...)
	buf = binary.BigEndian.AppendUint64(buf, c.Nonce)
	buf = binary.BigEndian.AppendUint64(buf, c.Fee)
	if c.HashMode.IsSingleSig() {
		buf = append(buf, byte(c.KeyEncoding))
		return append(buf, c.Signature[:]...)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Fields)))
	for _, f := range c.Fields {
		buf = append(buf, f.Type)
		buf = append(buf, f.Data...)
	}
	return binary.BigEndian.AppendUint16(buf, c.SignaturesRequired)
}

func parseSpendingCondition(b []byte) (SpendingCondition, int, error) {
	var c SpendingCondition
	if len(b) < 37 {
		return c, 0, ErrTruncated
	}
	c.HashMode = HashMode(b[0])
	if !c.HashMode.valid() {
		return c, 0, fmt.Errorf("tx: unknown hash mode 0x%02x", b[0])
	}
	copy(c.Signer[:], b[1:21])
	c.Nonce = binary.BigEndian.Uint64(b[21:29])
	c.Fee = binary.BigEndian.Uint64(b[29:37])
	off := 37
	if c.HashMode.IsSingleSig() {
		if len(b) < off+1+crypto.RecoverableSignatureSize {
			return c, 0, ErrTruncated
		}
		c.KeyEncoding = KeyEncoding(b[off])
		if c.KeyEncoding != KeyEncodingCompressed && c.KeyEncoding != KeyEncodingUncompressed {
			return c, 0, fmt.Errorf("tx: unknown key encoding 0x%02x", b[off])
		}
		copy(c.Signature[:], b[off+1:])
		return c, off + 1 + crypto.RecoverableSignatureSize, nil
	}
	if len(b) < off+4 {
		return c, 0, ErrTruncated
	}
	count := binary.BigEndian.Uint32(b[off:])
	off += 4
	for i := uint32(0); i < count; i++ {
		if len(b) < off+1 {
			return c, 0, ErrTruncated
		}
		var size int
		switch b[off] {
		case FieldPublicKeyCompressed, FieldPublicKeyUncompressed:
			size = 33
		case FieldSignatureCompressed, FieldSignatureUncompressed:
			size = crypto.RecoverableSignatureSize
		default:
			return c, 0, fmt.Errorf("tx: unknown auth field type 0x%02x", b[off])
		}
		if len(b) < off+1+size {
			return c, 0, ErrTruncated
		}
		c.Fields = append(c.Fields, AuthField{Type: b[off], Data: append([]byte(nil), b[off+1:off+1+size]...)})
		off += 1 + size
	}
	if len(b) < off+2 {
		return c, 0, ErrTruncated
	}
	c.SignaturesRequired = binary.BigEndian.Uint16(b[off:])
	return c, off + 2, nil
}

// Authorization is the origin condition and, when sponsored, the sponsor.
type Authorization struct {
	Type    AuthType
	Origin  SpendingCondition
	Sponsor *SpendingCondition
}

func (a Authorization) appendTo(buf []byte) []byte {
	buf = append(buf, byte(a.Type))
	buf = a.Origin.appendTo(buf)
	if a.Type == AuthSponsored && a.Sponsor != nil {
		buf = a.Sponsor.appendTo(buf)
	}
	return buf
}

// initialSighashForm clears the origin and replaces any sponsor with the
// placeholder condition nodes use when computing the initial sighash.
func (a Authorization) initialSighashForm() Authorization {
	out := Authorization{Type: a.Type, Origin: a.Origin.cleared()}
	if a.Type == AuthSponsored {
		placeholder := NewSingleSigCondition(make([]byte, 33), 0, 0)
		out.Sponsor = &placeholder
	}
	return out
}

// Header is the version, chain id and authorization prefix of a
// serialized transaction.
type Header struct {
	Version TransactionVersion
	ChainID uint32
	Auth    Authorization
	// Len is the number of bytes the header occupies.
	Len int
}

// ParseHeader decodes the leading header of a serialized transaction.
// The remaining bytes (anchor mode onward) are left to the caller.
func ParseHeader(raw []byte) (Header, error) {
	var h Header
	if len(raw) < 6 {
		return h, ErrTruncated
	}
	h.Version = TransactionVersion(raw[0])
	h.ChainID = binary.BigEndian.Uint32(raw[1:5])
	h.Auth.Type = AuthType(raw[5])
	if h.Auth.Type != AuthStandard && h.Auth.Type != AuthSponsored {
		return h, fmt.Errorf("tx: unknown auth type 0x%02x", raw[5])
	}
	off := 6
	origin, n, err := parseSpendingCondition(raw[off:])
	if err != nil {
		return h, fmt.Errorf("origin: %w", err)
	}
	h.Auth.Origin = origin
	off += n
	if h.Auth.Type == AuthSponsored {
		sponsor, n, err := parseSpendingCondition(raw[off:])
		if err != nil {
			return h, fmt.Errorf("sponsor: %w", err)
		}
		h.Auth.Sponsor = &sponsor
		off += n
	}
	h.Len = off
	return h, nil
}

func (h Header) appendTo(buf []byte) []byte {
	buf = append(buf, byte(h.Version))
	buf = binary.BigEndian.AppendUint32(buf, h.ChainID)
	return h.Auth.appendTo(buf)
}
