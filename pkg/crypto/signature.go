package crypto

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// RecoverableSignatureSize is the length of a VRS or RSV signature.
const RecoverableSignatureSize = 65

// compressedSuffix marks a hex private key whose public key is compressed.
const compressedSuffix = "01"

// Signer produces recoverable secp256k1 signatures.
type Signer interface {
	// SignVRS signs a 32-byte hash and returns recid || r || s.
	SignVRS(hash []byte) ([]byte, error)
	// PublicKey returns the serialized public key.
	PublicKey() []byte
}

// PrivateKey wraps a secp256k1 private key together with the encoding of
// its public key.
type PrivateKey struct {
	key        *secp256k1.PrivateKey
	compressed bool
}

// GenerateKey creates a new random key with a compressed public key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key, compressed: true}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte, compressed bool) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b), compressed: compressed}, nil
}

// PrivateKeyFromHex parses a 64 or 66 character hex key with an optional
// 0x prefix. The 66 character form must end in the 01 compression suffix.
func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	var compressed bool
	switch len(s) {
	case 64:
	case 66:
		if !strings.EqualFold(s[64:], compressedSuffix) {
			return nil, fmt.Errorf("invalid private key suffix %q, want %q", s[64:], compressedSuffix)
		}
		compressed = true
		s = s[:64]
	default:
		return nil, fmt.Errorf("invalid private key length %d, want 64 or 66 hex characters", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	return PrivateKeyFromBytes(b, compressed)
}

// Compressed reports whether the public key is serialized in 33-byte form.
func (pk *PrivateKey) Compressed() bool {
	return pk.compressed
}

// PublicKey returns the 33-byte compressed or 65-byte uncompressed key.
func (pk *PrivateKey) PublicKey() []byte {
	if pk.compressed {
		return pk.key.PubKey().SerializeCompressed()
	}
	return pk.key.PubKey().SerializeUncompressed()
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Hex returns the key in the wallet format: 64 hex characters, plus the
// 01 suffix when compressed.
func (pk *PrivateKey) Hex() string {
	s := hex.EncodeToString(pk.key.Serialize())
	if pk.compressed {
		s += compressedSuffix
	}
	return s
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// SignVRS signs a 32-byte hash and returns the recovery id followed by r
// and s, the layout used in Stacks spending conditions.
func (pk *PrivateKey) SignVRS(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	compact := ecdsa.SignCompact(pk.key, hash, pk.compressed)
	recID := compact[0] - 27
	if pk.compressed {
		recID -= 4
	}
	sig := make([]byte, RecoverableSignatureSize)
	sig[0] = recID
	copy(sig[1:], compact[1:])
	return sig, nil
}

// SignRSV signs a 32-byte hash and returns r || s || recid, the layout used
// for message signatures.
func (pk *PrivateKey) SignRSV(hash []byte) ([]byte, error) {
	vrs, err := pk.SignVRS(hash)
	if err != nil {
		return nil, err
	}
	return VRSToRSV(vrs), nil
}

// VRSToRSV moves the recovery id from the front to the back.
func VRSToRSV(vrs []byte) []byte {
	out := make([]byte, len(vrs))
	copy(out, vrs[1:])
	out[len(out)-1] = vrs[0]
	return out
}

// RecoverPublicKey recovers the signer of a VRS signature over hash.
func RecoverPublicKey(hash, vrs []byte, compressed bool) ([]byte, error) {
	if len(vrs) != RecoverableSignatureSize {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", RecoverableSignatureSize, len(vrs))
	}
	if vrs[0] > 3 {
		return nil, fmt.Errorf("invalid recovery id %d", vrs[0])
	}
	compact := make([]byte, RecoverableSignatureSize)
	compact[0] = 27 + vrs[0]
	if compressed {
		compact[0] += 4
	}
	copy(compact[1:], vrs[1:])
	pub, wasCompressed, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, fmt.Errorf("recover public key: %w", err)
	}
	if wasCompressed {
		return pub.SerializeCompressed(), nil
	}
	return pub.SerializeUncompressed(), nil
}

// VerifyVRS checks that a VRS signature over hash recovers to publicKey.
// Returns false on any error.
func VerifyVRS(hash, vrs, publicKey []byte) bool {
	recovered, err := RecoverPublicKey(hash, vrs, len(publicKey) == 33)
	if err != nil {
		return false
	}
	return bytes.Equal(recovered, publicKey)
}
