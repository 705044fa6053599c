package node

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/walletsim/config"
	klog "github.com/Klingon-tech/walletsim/internal/log"
	"github.com/Klingon-tech/walletsim/internal/wallet"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// loadKeyFile decrypts the configured key file.
func loadKeyFile(cfg *config.Config, password PasswordFunc) (wallet.Secret, error) {
	if password == nil {
		return wallet.Secret{}, errors.New("key file requires a password source")
	}
	ks, err := wallet.NewKeystore(expandHome(cfg.KeystoreDir()))
	if err != nil {
		return wallet.Secret{}, err
	}
	pw, err := password(cfg.Wallet.Keystore)
	if err != nil {
		return wallet.Secret{}, fmt.Errorf("read password: %w", err)
	}
	defer clear(pw)
	secret, err := ks.Load(cfg.Wallet.Keystore, pw)
	if err != nil {
		return wallet.Secret{}, fmt.Errorf("load key file %s: %w", cfg.Wallet.Keystore, err)
	}
	return secret, nil
}

// recordAddress notes the derived address in the key file. Failure only
// loses the cached display value.
func recordAddress(cfg *config.Config, address string) {
	ks, err := wallet.NewKeystore(expandHome(cfg.KeystoreDir()))
	if err == nil {
		err = ks.RecordAddress(cfg.Wallet.Keystore, cfg.Network, address)
	}
	if err != nil {
		klog.Wallet.Warn().Err(err).Str("keystore", cfg.Wallet.Keystore).Msg("Could not record address in key file")
	}
}
