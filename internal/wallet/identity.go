package wallet

import (
	"encoding/hex"
	"strings"

	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/internal/network"
	"github.com/Klingon-tech/walletsim/pkg/crypto"
	"github.com/Klingon-tech/walletsim/pkg/types"
)

// Identity is the one keypair a simulated wallet signs with.
type Identity struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"-"`

	addr types.Address
	key  *crypto.PrivateKey
}

// DeriveIdentity builds an identity from a 64 or 66 character hex key,
// with or without a 0x prefix. A 66 character key carries the 01 suffix
// and yields a compressed public key; a 64 character key yields an
// uncompressed one.
func DeriveIdentity(privateKeyHex string, net network.Resolved) (*Identity, error) {
	normalized := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"), "0X"))
	if len(normalized) != 64 && len(normalized) != 66 {
		return nil, errs.Configf("Invalid private key length %d: expected 64 or 66 hex characters", len(normalized))
	}
	key, err := crypto.PrivateKeyFromHex(normalized)
	if err != nil {
		return nil, &errs.ConfigurationError{Msg: "invalid private key", Err: err}
	}
	return newIdentity(key, normalized, net), nil
}

// DeriveIdentityFromMnemonic derives account index from a mnemonic.
// Account 0 is always derived first and later accounts are generated in
// order until index is reached.
func DeriveIdentityFromMnemonic(mnemonic string, index uint32, net network.Resolved) (*Identity, error) {
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, &errs.ConfigurationError{Msg: "invalid mnemonic", Err: err}
	}
	accounts, err := DeriveAccounts(seed, index, net.AddressVersion())
	if err != nil {
		return nil, &errs.ConfigurationError{Msg: "derive account", Err: err}
	}
	acct := accounts[index]
	return newIdentity(acct.Key, acct.Key.Hex(), net), nil
}

func newIdentity(key *crypto.PrivateKey, privHex string, net network.Resolved) *Identity {
	pub := key.PublicKey()
	addr := types.AddressFromPubKey(net.AddressVersion(), pub)
	return &Identity{
		Address:    addr.String(),
		PublicKey:  hex.EncodeToString(pub),
		PrivateKey: privHex,
		addr:       addr,
		key:        key,
	}
}

// Key returns the signing key.
func (id *Identity) Key() *crypto.PrivateKey {
	return id.key
}

// StacksAddress returns the parsed address.
func (id *Identity) StacksAddress() types.Address {
	return id.addr
}

// PublicKeyBytes returns the serialized public key.
func (id *Identity) PublicKeyBytes() []byte {
	return id.key.PublicKey()
}
