// Package config handles walletsim configuration.
//
// Two layers exist:
//   - Options: the library-facing knobs a test harness sets directly.
//   - Config: the daemon's settings, loaded from defaults, a .conf file,
//     the environment and command-line flags, then turned into Options.
//
// Both end in Resolve, which produces an immutable Resolved snapshot.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds daemon runtime configuration.
type Config struct {
	// Core
	Network string `conf:"network"`
	DataDir string `conf:"datadir"`

	Wallet  WalletConfig
	Fee     FeeConfig
	Confirm ConfirmConfig

	RequestTimeout time.Duration `conf:"request.timeout"`

	RPC     RPCConfig
	Journal JournalConfig
	Log     LogConfig
}

// WalletConfig selects the key. Exactly one source is used, in order:
// private key, mnemonic, keystore file.
type WalletConfig struct {
	PrivateKey string `conf:"wallet.privatekey"`
	Mnemonic   string `conf:"wallet.mnemonic"`
	Account    uint32 `conf:"wallet.account"`
	Keystore   string `conf:"wallet.keystore"` // key file name under KeystoreDir
}

// FeeConfig holds fee policy settings.
type FeeConfig struct {
	Multiplier float64 `conf:"fee.multiplier"`
	Max        uint64  `conf:"fee.max"`
	Fixed      *uint64 `conf:"fee.fixed"`
}

// ConfirmConfig holds confirmation polling settings.
type ConfirmConfig struct {
	Timeout  time.Duration `conf:"confirm.timeout"`
	Interval time.Duration `conf:"confirm.interval"`
}

// RPCConfig holds bridge/control server settings.
type RPCConfig struct {
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // "*" = all
}

// JournalConfig controls the persistent broadcast journal.
type JournalConfig struct {
	Enabled bool `conf:"journal.enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.walletsim
//	macOS:   ~/Library/Application Support/Walletsim
//	Windows: %APPDATA%\Walletsim
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".walletsim"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Walletsim")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Walletsim")
		}
		return filepath.Join(home, "AppData", "Roaming", "Walletsim")
	default:
		return filepath.Join(home, ".walletsim")
	}
}

// NetworkDataDir returns the per-network data directory. Custom URLs share
// the "custom" directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, networkDirName(c.Network))
}

// JournalDir returns the badger journal directory.
func (c *Config) JournalDir() string {
	return filepath.Join(c.NetworkDataDir(), "journal")
}

// KeystoreDir returns the key file directory. Key files are network
// independent.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "walletsim.conf")
}

// EnvFile returns the .env file path inside the data directory.
func (c *Config) EnvFile() string {
	return filepath.Join(c.DataDir, ".env")
}

func networkDirName(network string) string {
	switch network {
	case "mainnet", "testnet", "devnet":
		return network
	default:
		return "custom"
	}
}
