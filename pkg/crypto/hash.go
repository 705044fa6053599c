// Package crypto provides the hashing and signing primitives used by Stacks
// transactions and messages.
package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 is ripemd160(sha256(x)) by protocol
)

// Hash160Size is the length of a hash160 digest in bytes.
const Hash160Size = 20

// Sha256 computes a SHA-256 hash of the input data.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// DoubleSha256 computes Sha256(Sha256(data)).
// Used for c32check checksums.
func DoubleSha256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Sha512_256 computes a SHA-512/256 hash. Stacks uses it for transaction
// ids and signature hashes.
func Sha512_256(data []byte) [32]byte {
	return sha512.Sum512_256(data)
}

// Hash160 computes RIPEMD160(SHA256(data)).
func Hash160(data []byte) [Hash160Size]byte {
	s := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(s[:])
	var out [Hash160Size]byte
	copy(out[:], r.Sum(nil))
	return out
}

// Hash160FromPubKey derives the signer hash of a serialized public key,
// compressed or not.
func Hash160FromPubKey(pubKey []byte) [Hash160Size]byte {
	return Hash160(pubKey)
}
