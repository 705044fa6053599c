package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile reads a .conf file: "key = value" per line, # for comments.
// A missing file yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		values[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return values, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// ApplyFileConfig applies file values to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets one config value by key. Unknown keys are ignored.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "network":
		cfg.Network = value
	case "datadir":
		cfg.DataDir = value

	case "wallet.privatekey":
		cfg.Wallet.PrivateKey = value
	case "wallet.mnemonic":
		cfg.Wallet.Mnemonic = value
	case "wallet.account":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Wallet.Account = uint32(n)
	case "wallet.keystore":
		cfg.Wallet.Keystore = value

	case "fee.multiplier":
		m, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Fee.Multiplier = m
	case "fee.max":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Fee.Max = n
	case "fee.fixed":
		if value == "" {
			cfg.Fee.Fixed = nil
			return nil
		}
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Fee.Fixed = &n

	case "confirm.timeout":
		d, err := parseMillis(value)
		if err != nil {
			return err
		}
		cfg.Confirm.Timeout = d
	case "confirm.interval":
		d, err := parseMillis(value)
		if err != nil {
			return err
		}
		cfg.Confirm.Interval = d
	case "request.timeout":
		d, err := parseMillis(value)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d

	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = port
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)

	case "journal.enabled", "journal":
		cfg.Journal.Enabled = parseBool(value)

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	}
	return nil
}

// parseMillis accepts a bare integer in milliseconds or a Go duration.
func parseMillis(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %d", n)
		}
		return time.Duration(n) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a commented default configuration file.
// Secrets are never written; they belong in the environment or a key file.
func WriteDefaultConfig(path, network string) error {
	content := `# walletsim daemon configuration

# Network: mainnet, testnet, devnet, or an http(s):// API URL
network = ` + network + `

# Data directory (default: ~/.walletsim)
# datadir = ~/.walletsim

# ============================================================================
# Wallet
# ============================================================================

# Prefer WALLETSIM_PRIVATE_KEY / WALLETSIM_MNEMONIC in the environment or
# <datadir>/.env over putting secrets here.
# wallet.privatekey =
# wallet.mnemonic =
# wallet.account = 0

# Encrypted key file name under <datadir>/keystore
# wallet.keystore = default

# ============================================================================
# Fees (micro-STX)
# ============================================================================

fee.multiplier = 1.0
fee.max = 500000
# fee.fixed = 1000

# ============================================================================
# Timing (milliseconds or Go durations such as 2s)
# ============================================================================

confirm.timeout = 120000
confirm.interval = 2000
request.timeout = 30000

# ============================================================================
# Bridge / control server
# ============================================================================

rpc.addr = 127.0.0.1
rpc.port = ` + strconv.Itoa(defaultRPCPort(network)) + `
rpc.allowed = 127.0.0.1
# CORS allowed origins ("*" for all); the dApp origin must be listed for
# the HTTP bridge to work.
# rpc.cors = http://localhost:5173

# ============================================================================
# Journal
# ============================================================================

journal.enabled = false

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
