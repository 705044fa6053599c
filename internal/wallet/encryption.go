package wallet

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the Argon2id salt length.
const SaltSize = 32

// Sealed secret layout, little endian:
//
//	magic "WSK1" | salt (32) | memory u32 | iterations u32 | parallelism u8 | nonce (24) | ciphertext
//
// Everything before the nonce is the header and is authenticated as
// associated data, so tampered KDF parameters fail to open.
const (
	secretMagic = "WSK1"
	headerSize  = len(secretMagic) + SaltSize + 4 + 4 + 1
)

// ErrWrongPassword is returned by Decrypt when authentication fails.
var ErrWrongPassword = errors.New("wrong password or corrupted key file")

// EncryptionParams are the Argon2id cost parameters stored with each
// sealed secret.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams are the costs used for new key files.
func DefaultParams() EncryptionParams {
	return EncryptionParams{Memory: 64 * 1024, Iterations: 3, Parallelism: 4}
}

func (p EncryptionParams) validate() error {
	if p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("invalid argon2 params: iterations and parallelism must be non-zero")
	}
	return nil
}

// cipher derives the sealing key for password and salt.
func (p EncryptionParams) cipher(password, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, chacha20poly1305.KeySize)
	defer zero(key)
	return chacha20poly1305.NewX(key)
}

func zero(b []byte) {
	clear(b)
}

// Encrypt seals a key file secret under password with Argon2id and
// XChaCha20-Poly1305.
func Encrypt(secret, password []byte, params EncryptionParams) ([]byte, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	out := make([]byte, headerSize+chacha20poly1305.NonceSizeX, headerSize+chacha20poly1305.NonceSizeX+len(secret)+chacha20poly1305.Overhead)
	copy(out, secretMagic)
	salt := out[len(secretMagic) : len(secretMagic)+SaltSize]
	nonce := out[headerSize:]
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	kdf := out[len(secretMagic)+SaltSize:]
	binary.LittleEndian.PutUint32(kdf, params.Memory)
	binary.LittleEndian.PutUint32(kdf[4:], params.Iterations)
	kdf[8] = params.Parallelism

	aead, err := params.cipher(password, salt)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead.Seal(out, nonce, secret, bytes.Clone(out[:headerSize])), nil
}

// Decrypt opens a secret sealed by Encrypt, reading the KDF parameters
// from its header.
func Decrypt(sealed, password []byte) ([]byte, error) {
	if need := headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead; len(sealed) < need {
		return nil, fmt.Errorf("encrypted data too short: %d bytes, need at least %d", len(sealed), need)
	}
	if !bytes.HasPrefix(sealed, []byte(secretMagic)) {
		return nil, fmt.Errorf("unrecognized encrypted secret format")
	}
	salt := sealed[len(secretMagic) : len(secretMagic)+SaltSize]
	kdf := sealed[len(secretMagic)+SaltSize : headerSize]
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(kdf),
		Iterations:  binary.LittleEndian.Uint32(kdf[4:]),
		Parallelism: kdf[8],
	}
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("key file header: %w", err)
	}

	aead, err := params.cipher(password, salt)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := sealed[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	plain, err := aead.Open(nil, nonce, sealed[headerSize+chacha20poly1305.NonceSizeX:], sealed[:headerSize])
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plain, nil
}
