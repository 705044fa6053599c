package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
)

// Builder constructs standard single-sig transactions incrementally.
// Errors are collected and returned from Build.
type Builder struct {
	tx   *Transaction
	errs []error
}

// NewBuilder creates a builder bound to a chain.
func NewBuilder(chain Chain) *Builder {
	return &Builder{
		tx: &Transaction{
			Version:           chain.Version,
			ChainID:           chain.ChainID,
			Auth:              Authorization{Type: AuthStandard},
			AnchorMode:        AnchorAny,
			PostConditionMode: PostConditionModeDeny,
		},
	}
}

// SetOrigin sets the signer from a 33 or 65 byte public key.
func (b *Builder) SetOrigin(pubKey []byte) *Builder {
	if len(pubKey) != 33 && len(pubKey) != 65 {
		b.errs = append(b.errs, fmt.Errorf("origin public key must be 33 or 65 bytes, got %d", len(pubKey)))
		return b
	}
	c := NewSingleSigCondition(pubKey, b.tx.Auth.Origin.Nonce, b.tx.Auth.Origin.Fee)
	b.tx.Auth.Origin = c
	return b
}

// SetNonce sets the origin nonce.
func (b *Builder) SetNonce(nonce uint64) *Builder {
	b.tx.Auth.Origin.Nonce = nonce
	return b
}

// SetFee sets the origin fee in micro-STX.
func (b *Builder) SetFee(fee uint64) *Builder {
	b.tx.Auth.Origin.Fee = fee
	return b
}

// SetAnchorMode overrides the default AnchorAny.
func (b *Builder) SetAnchorMode(m AnchorMode) *Builder {
	b.tx.AnchorMode = m
	return b
}

// SetPostConditionMode overrides the default deny mode.
func (b *Builder) SetPostConditionMode(m PostConditionMode) *Builder {
	b.tx.PostConditionMode = m
	return b
}

// AddPostCondition appends one serialized post condition.
func (b *Builder) AddPostCondition(pc []byte) *Builder {
	if err := ValidatePostCondition(pc); err != nil {
		b.errs = append(b.errs, fmt.Errorf("post condition %d: %w", len(b.tx.PostConditions), err))
		return b
	}
	b.tx.PostConditions = append(b.tx.PostConditions, pc)
	return b
}

// SetPayload sets the transaction body.
func (b *Builder) SetPayload(p Payload) *Builder {
	b.tx.Payload = p
	return b
}

// Build returns the unsigned transaction.
func (b *Builder) Build() (*Transaction, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if b.tx.Auth.Origin.Signer == ([crypto.Hash160Size]byte{}) {
		return nil, fmt.Errorf("origin not set")
	}
	if err := b.tx.Validate(); err != nil {
		return nil, err
	}
	return b.tx, nil
}

// Sign builds the transaction and signs its origin with key.
func (b *Builder) Sign(key *crypto.PrivateKey) (*Transaction, error) {
	t, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := t.SignOrigin(key); err != nil {
		return nil, err
	}
	return t, nil
}
