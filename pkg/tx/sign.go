package tx

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
)

// Signing errors.
var (
	ErrMultisigOrigin = errors.New("multisig origin signing is not supported")
	ErrSignerMismatch = errors.New("origin signer does not match key")
)

// InitialSigHash is sha512/256 of the transaction with its authorization
// cleared.
func (tx *Transaction) InitialSigHash() [32]byte {
	cleared := *tx
	cleared.Auth = tx.Auth.initialSighashForm()
	return crypto.Sha512_256(cleared.Serialize())
}

// presignHash binds a sighash to the auth type, fee and nonce of the
// condition about to sign.
func presignHash(sighash [32]byte, authType AuthType, fee, nonce uint64) [32]byte {
	buf := make([]byte, 0, 32+1+8+8)
	buf = append(buf, sighash[:]...)
	buf = append(buf, byte(authType))
	buf = binary.BigEndian.AppendUint64(buf, fee)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	return crypto.Sha512_256(buf)
}

// signCondition fills the signature of a single-sig origin condition.
func signCondition(c *SpendingCondition, sighash [32]byte, key *crypto.PrivateKey) error {
	if !c.HashMode.IsSingleSig() {
		return ErrMultisigOrigin
	}
	pub := key.PublicKey()
	if c.Signer != crypto.Hash160FromPubKey(pub) {
		return ErrSignerMismatch
	}
	// Origins always sign as standard, sponsored or not.
	h := presignHash(sighash, AuthStandard, c.Fee, c.Nonce)
	sig, err := key.SignVRS(h[:])
	if err != nil {
		return fmt.Errorf("sign origin: %w", err)
	}
	copy(c.Signature[:], sig)
	return nil
}

// SignOrigin signs the origin spending condition in place.
func (tx *Transaction) SignOrigin(key *crypto.PrivateKey) error {
	return signCondition(&tx.Auth.Origin, tx.InitialSigHash(), key)
}

// SignRawOrigin signs the origin of an already serialized transaction.
// Only the header is decoded; the body is carried over byte for byte, so
// any payload type can be signed.
func SignRawOrigin(raw []byte, key *crypto.PrivateKey) ([]byte, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}
	body := raw[h.Len:]

	cleared := Header{Version: h.Version, ChainID: h.ChainID, Auth: h.Auth.initialSighashForm()}
	sighash := crypto.Sha512_256(append(cleared.appendTo(nil), body...))

	if err := signCondition(&h.Auth.Origin, sighash, key); err != nil {
		return nil, err
	}
	out := h.appendTo(make([]byte, 0, len(raw)))
	return append(out, body...), nil
}

// VerifyOrigin checks the origin signature of a single-sig transaction
// against pubKey.
func (tx *Transaction) VerifyOrigin(pubKey []byte) bool {
	c := tx.Auth.Origin
	if !c.HashMode.IsSingleSig() || c.Signer != crypto.Hash160FromPubKey(pubKey) {
		return false
	}
	h := presignHash(tx.InitialSigHash(), AuthStandard, c.Fee, c.Nonce)
	return crypto.VerifyVRS(h[:], c.Signature[:], pubKey)
}

// VerifyRawOrigin is VerifyOrigin for a serialized transaction.
func VerifyRawOrigin(raw, pubKey []byte) bool {
	h, err := ParseHeader(raw)
	if err != nil {
		return false
	}
	c := h.Auth.Origin
	if !c.HashMode.IsSingleSig() || c.Signer != crypto.Hash160FromPubKey(pubKey) {
		return false
	}
	cleared := Header{Version: h.Version, ChainID: h.ChainID, Auth: h.Auth.initialSighashForm()}
	sighash := crypto.Sha512_256(append(cleared.appendTo(nil), raw[h.Len:]...))
	p := presignHash(sighash, AuthStandard, c.Fee, c.Nonce)
	return crypto.VerifyVRS(p[:], c.Signature[:], pubKey)
}
