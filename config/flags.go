package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version is reported by --version.
const Version = "0.1.0"

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Wallet
	Mnemonic bool // prompt for a mnemonic instead of reading it from config
	Account  string
	Keystore string

	// Fees and timing
	FeeMultiplier  string
	MaxFee         string
	FixedFee       string
	ConfirmTimeout string
	PollInterval   string
	RequestTimeout string

	// RPC
	RPCAddr    string
	RPCPort    int
	RPCAllowed string
	RPCCORS    string

	// Journal
	Journal bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetJournal bool
	SetLogJSON bool
}

// ErrHelp is returned by ParseFlags when -h or --help was given.
var ErrHelp = flag.ErrHelp

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("walletsimd", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.Network, "network", "", "Network: mainnet, testnet, devnet or an http(s) API URL")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.BoolVar(&f.Mnemonic, "prompt-mnemonic", false, "Prompt for a mnemonic on startup")
	fs.StringVar(&f.Account, "account", "", "Mnemonic account index")
	fs.StringVar(&f.Keystore, "keystore", "", "Key file name under <datadir>/keystore")

	fs.StringVar(&f.FeeMultiplier, "fee-multiplier", "", "Multiplier applied to estimated fees")
	fs.StringVar(&f.MaxFee, "fee-max", "", "Maximum fee in micro-STX")
	fs.StringVar(&f.FixedFee, "fee-fixed", "", "Fixed fee in micro-STX (skips estimation)")
	fs.StringVar(&f.ConfirmTimeout, "confirm-timeout", "", "Confirmation timeout (ms or duration)")
	fs.StringVar(&f.PollInterval, "confirm-interval", "", "Confirmation poll interval (ms or duration)")
	fs.StringVar(&f.RequestTimeout, "request-timeout", "", "Ledger API request timeout (ms or duration)")

	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "Bridge listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "Bridge listen port")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "Allowed client IPs (comma-separated)")
	fs.StringVar(&f.RPCCORS, "rpc-cors", "", "Allowed CORS origins (comma-separated)")

	fs.BoolVar(&f.Journal, "journal", false, "Persist the broadcast journal under <datadir>")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = printUsage

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.SetJournal = isFlagSet(fs, "journal")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()

	// A positional argument stops flag parsing; anything flag-like after it
	// was silently ignored.
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}
	return f, nil
}

// ApplyFlags applies command-line flags to cfg.
func ApplyFlags(cfg *Config, f *Flags) error {
	if f.Network != "" {
		cfg.Network = f.Network
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.Account != "" {
		if err := setConfigValue(cfg, "wallet.account", f.Account); err != nil {
			return fmt.Errorf("--account: %w", err)
		}
	}
	if f.Keystore != "" {
		cfg.Wallet.Keystore = f.Keystore
	}

	for _, kv := range []struct{ flag, key, value string }{
		{"fee-multiplier", "fee.multiplier", f.FeeMultiplier},
		{"fee-max", "fee.max", f.MaxFee},
		{"fee-fixed", "fee.fixed", f.FixedFee},
		{"confirm-timeout", "confirm.timeout", f.ConfirmTimeout},
		{"confirm-interval", "confirm.interval", f.PollInterval},
		{"request-timeout", "request.timeout", f.RequestTimeout},
	} {
		if kv.value == "" {
			continue
		}
		if err := setConfigValue(cfg, kv.key, kv.value); err != nil {
			return fmt.Errorf("--%s: %w", kv.flag, err)
		}
	}

	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}
	if f.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = parseStringList(f.RPCAllowed)
	}
	if f.RPCCORS != "" {
		cfg.RPC.CORSOrigins = parseStringList(f.RPCCORS)
	}

	if f.SetJournal {
		cfg.Journal.Enabled = f.Journal
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
	return nil
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `walletsimd - simulated Stacks wallet for dApp end-to-end tests

Usage:
  walletsimd [options]
  walletsimd --help

Core Options:
  --network           mainnet, testnet (default), devnet or an http(s) API URL
  --datadir           Data directory (default: ~/.walletsim)
  --config, -c        Config file path (default: <datadir>/walletsim.conf)

Wallet Options:
  --keystore          Key file name under <datadir>/keystore (prompts for password)
  --prompt-mnemonic   Prompt for a mnemonic on startup
  --account           Mnemonic account index (default: 0)

  Keys can also come from WALLETSIM_PRIVATE_KEY, WALLETSIM_MNEMONIC and
  WALLETSIM_ACCOUNT_INDEX, read from the environment, ./.env or
  <datadir>/.env.

Fee Options:
  --fee-multiplier    Multiplier for estimated fees (default: 1.0)
  --fee-max           Maximum fee in micro-STX (default: 500000)
  --fee-fixed         Fixed fee in micro-STX, skips estimation

Timing Options (milliseconds or durations such as 2s):
  --confirm-timeout   Confirmation timeout (default: 120000)
  --confirm-interval  Confirmation poll interval (default: 2000)
  --request-timeout   Ledger API request timeout (default: 30000)

Bridge Options:
  --rpc-addr          Listen address (default: 127.0.0.1)
  --rpc-port          Listen port (mainnet: 7545, testnet: 7645, devnet: 7745)
  --rpc-allowed       Allowed client IPs (comma-separated)
  --rpc-cors          Allowed CORS origins (comma-separated)

Journal Options:
  --journal           Persist the broadcast journal with badger

Logging Options:
  --log-level         debug, info, warn, error (default: info)
  --log-file          Log file path (default: stderr only)
  --log-json          Output logs as JSON

Examples:
  # Testnet wallet from a key in .env
  walletsimd --network=testnet

  # Local devnet (clarinet) with the first mnemonic account
  WALLETSIM_MNEMONIC="..." walletsimd --network=devnet

  # Key file, allowing a dApp dev server to use the HTTP bridge
  walletsimd --keystore=qa --rpc-cors=http://localhost:5173
`
	fmt.Fprint(os.Stderr, usage)
}

// Load builds the daemon configuration with this precedence:
//  1. Default values
//  2. Config file (created with defaults on first start)
//  3. .env files and WALLETSIM_* environment variables
//  4. Command-line flags
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help {
		printUsage()
		return nil, flags, ErrHelp
	}
	if flags.Version {
		return nil, flags, nil
	}

	// Network decides per-network defaults, so resolve it first.
	network := flags.Network
	if network == "" {
		network = os.Getenv(EnvNetwork)
	}
	cfg := Default(network)
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	if err := LoadEnvFiles(".env", cfg.EnvFile()); err != nil {
		return nil, nil, err
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, nil, err
	}

	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, nil, err
	}
	if flags.RPCPort == 0 {
		if _, ok := fileValues["rpc.port"]; !ok {
			cfg.RPC.Port = defaultRPCPort(cfg.Network)
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory layout and a default config
// file if missing. It is idempotent.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.KeystoreDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := WriteDefaultConfig(path, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}

// ParseAccount parses a mnemonic account index.
func ParseAccount(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid account index %q", s)
	}
	return uint32(n), nil
}
