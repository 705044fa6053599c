package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by the daemon and CLI.
const (
	EnvPrivateKey   = "WALLETSIM_PRIVATE_KEY"
	EnvMnemonic     = "WALLETSIM_MNEMONIC"
	EnvAccountIndex = "WALLETSIM_ACCOUNT_INDEX"
	EnvNetwork      = "WALLETSIM_NETWORK"
)

// LoadEnvFiles loads .env files into the process environment. Variables
// already set are not overridden. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv copies WALLETSIM_* variables into cfg.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvNetwork); ok && v != "" {
		cfg.Network = v
	}
	if v, ok := lookup(EnvPrivateKey); ok && v != "" {
		cfg.Wallet.PrivateKey = v
	}
	if v, ok := lookup(EnvMnemonic); ok && v != "" {
		cfg.Wallet.Mnemonic = v
	}
	if v, ok := lookup(EnvAccountIndex); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAccountIndex, err)
		}
		cfg.Wallet.Account = uint32(n)
	}
	return nil
}
