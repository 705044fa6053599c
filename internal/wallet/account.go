package wallet

import (
	"fmt"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
	"github.com/Klingon-tech/walletsim/pkg/types"
)

// MaxAccountIndex bounds mnemonic account generation.
const MaxAccountIndex = 1 << 16

// Account is one key derived from a mnemonic.
type Account struct {
	Index   uint32
	Path    string
	Address types.Address
	Key     *crypto.PrivateKey
}

// DeriveAccounts generates accounts 0 through last from a seed, the way
// reference wallets add accounts one at a time.
func DeriveAccounts(seed []byte, last uint32, addressVersion byte) ([]Account, error) {
	if last > MaxAccountIndex {
		return nil, fmt.Errorf("account index %d exceeds %d", last, MaxAccountIndex)
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, last+1)
	for i := uint32(0); i <= last; i++ {
		child, err := master.Account(i)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		key, err := child.Signer()
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", i, err)
		}
		accounts = append(accounts, Account{
			Index:   i,
			Path:    AccountPath(i).String(),
			Address: child.Address(addressVersion),
			Key:     key,
		})
	}
	return accounts, nil
}
