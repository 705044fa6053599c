package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
	"github.com/Klingon-tech/walletsim/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

const hardened = bip32.FirstHardenedChild

// Path is a BIP-32 derivation path below the master key.
type Path []uint32

// AccountPath is where Stacks wallets keep account i:
// m/44'/5757'/0'/0/i.
func AccountPath(i uint32) Path {
	return Path{hardened + 44, hardened + 5757, hardened, 0, i}
}

func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range p {
		b.WriteByte('/')
		if idx >= hardened {
			b.WriteString(strconv.FormatUint(uint64(idx-hardened), 10))
			b.WriteByte('\'')
		} else {
			b.WriteString(strconv.FormatUint(uint64(idx), 10))
		}
	}
	return b.String()
}

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey builds the master key of a BIP-39 seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// Derive walks p from k.
func (k *HDKey) Derive(p Path) (*HDKey, error) {
	cur := k.key
	for depth, idx := range p {
		next, err := cur.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive %s at depth %d: %w", p, depth+1, err)
		}
		cur = next
	}
	return &HDKey{key: cur}, nil
}

// Account derives the key of wallet account i.
func (k *HDKey) Account(i uint32) (*HDKey, error) {
	return k.Derive(AccountPath(i))
}

// PrivateKeyBytes returns the 32-byte secret, or nil for a public key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// go-bip32 may hand back 33 bytes with a zero pad or fewer than 32
	// when the scalar has leading zeros.
	raw := k.key.Key
	if len(raw) > 32 {
		raw = raw[len(raw)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(raw):], raw)
	return out
}

// PublicKeyBytes returns the compressed public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Signer returns the compressed-key signer Stacks wallets use for
// derived accounts.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("public-only key cannot sign")
	}
	return crypto.PrivateKeyFromBytes(priv, true)
}

// Address is the single-sig address of the key for an address version.
func (k *HDKey) Address(version byte) types.Address {
	return types.AddressFromPubKey(version, k.PublicKeyBytes())
}

func (k *HDKey) IsPrivate() bool { return k.key.IsPrivate }
func (k *HDKey) Depth() uint8    { return k.key.Depth }
