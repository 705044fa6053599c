package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/internal/network"
)

const (
	testKey      = "753b7cc01a1a2e86221266a154af739463fce51219d97e4f856cd7200c3bd2a601"
	testAddress  = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"
	testMnemonic = "twice kind fence tip hidden tilt action fragile skin nothing glory cousin green tomorrow spring wrist shed math olympic multiply hip blue scout claw"
)

func TestResolve_Defaults(t *testing.T) {
	r, err := Resolve(Options{PrivateKey: testKey, Network: "testnet"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if r.Identity.Address != testAddress {
		t.Errorf("Address = %s, want %s", r.Identity.Address, testAddress)
	}
	if r.Network.APIBaseURL != network.TestnetURL {
		t.Errorf("APIBaseURL = %s", r.Network.APIBaseURL)
	}
	if r.Fees.Multiplier != 1.0 || r.Fees.MaxFee != 500000 || r.Fees.Fixed != nil {
		t.Errorf("Fees = %+v", r.Fees)
	}
	if r.Confirmation.Timeout != 120*time.Second || r.Confirmation.Interval != 2*time.Second {
		t.Errorf("Confirmation = %+v", r.Confirmation)
	}
	if r.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %s", r.RequestTimeout)
	}
}

func TestResolve_Overrides(t *testing.T) {
	fixed := uint64(2500)
	r, err := Resolve(Options{
		PrivateKey:     testKey,
		Network:        "devnet",
		FeeMultiplier:  1.5,
		MaxFee:         9000,
		FixedFee:       &fixed,
		ConfirmTimeout: 10 * time.Second,
		PollInterval:   500 * time.Millisecond,
		RequestTimeout: -1,
	})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	fixed = 1
	if r.Fees.Fixed == nil || *r.Fees.Fixed != 2500 {
		t.Errorf("Fixed = %v, want a copy of 2500", r.Fees.Fixed)
	}
	if r.Fees.Multiplier != 1.5 || r.Fees.MaxFee != 9000 {
		t.Errorf("Fees = %+v", r.Fees)
	}
	if r.RequestTimeout != 0 {
		t.Errorf("RequestTimeout = %s, want disabled", r.RequestTimeout)
	}
	if r.Confirmation.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %s", r.Confirmation.Interval)
	}
}

func TestResolve_Mnemonic(t *testing.T) {
	r, err := Resolve(Options{Mnemonic: testMnemonic, AccountIndex: 1, Network: "testnet"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if r.Identity.Address != "ST2ST2H80NP5C9SPR4ENJ1Z9CDM9PKAJVPYWPQZ50" {
		t.Errorf("Address = %s", r.Identity.Address)
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no network", Options{PrivateKey: testKey}},
		{"bad network", Options{PrivateKey: testKey, Network: "regtest"}},
		{"no key", Options{Network: "testnet"}},
		{"bad key", Options{PrivateKey: "abcd", Network: "testnet"}},
		{"negative multiplier", Options{PrivateKey: testKey, Network: "testnet", FeeMultiplier: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.opts)
			var ce *errs.ConfigurationError
			if !errors.As(err, &ce) {
				t.Errorf("Resolve() error = %v, want ConfigurationError", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walletsim.conf")
	content := `# comment
network = devnet
fee.multiplier = 1.25
fee.fixed = "1000"
confirm.timeout = 5s
confirm.interval = 250
rpc.cors = http://localhost:5173, http://localhost:3000
journal.enabled = yes
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	cfg := Default("testnet")
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig() error: %v", err)
	}

	if cfg.Network != "devnet" {
		t.Errorf("Network = %s", cfg.Network)
	}
	if cfg.Fee.Multiplier != 1.25 || cfg.Fee.Fixed == nil || *cfg.Fee.Fixed != 1000 {
		t.Errorf("Fee = %+v", cfg.Fee)
	}
	if cfg.Confirm.Timeout != 5*time.Second || cfg.Confirm.Interval != 250*time.Millisecond {
		t.Errorf("Confirm = %+v", cfg.Confirm)
	}
	if len(cfg.RPC.CORSOrigins) != 2 || cfg.RPC.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.RPC.CORSOrigins)
	}
	if !cfg.Journal.Enabled {
		t.Error("Journal.Enabled = false")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil || len(values) != 0 {
		t.Errorf("LoadFile() = %v, %v", values, err)
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("network devnet\n"), 0600)
	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should reject a line without =")
	}
}

func TestApplyFileConfig_BadValue(t *testing.T) {
	cfg := Default("testnet")
	for _, kv := range [][2]string{
		{"fee.max", "lots"},
		{"confirm.timeout", "-5"},
		{"wallet.account", "-1"},
		{"rpc.port", "x"},
	} {
		if err := ApplyFileConfig(cfg, map[string]string{kv[0]: kv[1]}); err == nil {
			t.Errorf("ApplyFileConfig(%s=%s) should fail", kv[0], kv[1])
		}
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvNetwork:      "mainnet",
		EnvPrivateKey:   testKey,
		EnvAccountIndex: "3",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default("testnet")
	if err := ApplyEnv(cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}
	if cfg.Network != "mainnet" || cfg.Wallet.PrivateKey != testKey || cfg.Wallet.Account != 3 {
		t.Errorf("cfg = %+v", cfg.Wallet)
	}

	env[EnvAccountIndex] = "x"
	if err := ApplyEnv(cfg, lookup); err == nil {
		t.Error("ApplyEnv() should reject a bad account index")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	const key = "WALLETSIM_TEST_ONLY_VAR"
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte(key+"=from-file\n"), 0600)

	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })

	if err := LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env"), path); err != nil {
		t.Fatalf("LoadEnvFiles() error: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q", key, got)
	}

	// Existing variables win over the file.
	t.Setenv(key, "from-env")
	LoadEnvFiles(path)
	if got := os.Getenv(key); got != "from-env" {
		t.Errorf("%s = %q after reload", key, got)
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"--network=devnet", "--fee-fixed=700", "--journal", "--rpc-port=9000", "--log-json=false"})
	if err != nil {
		t.Fatalf("ParseFlags() error: %v", err)
	}
	cfg := Default("devnet")
	cfg.Log.JSON = true
	if err := ApplyFlags(cfg, f); err != nil {
		t.Fatalf("ApplyFlags() error: %v", err)
	}
	if cfg.Fee.Fixed == nil || *cfg.Fee.Fixed != 700 {
		t.Errorf("Fixed = %v", cfg.Fee.Fixed)
	}
	if !cfg.Journal.Enabled || cfg.RPC.Port != 9000 || cfg.Log.JSON {
		t.Errorf("cfg = journal %v, port %d, json %v", cfg.Journal.Enabled, cfg.RPC.Port, cfg.Log.JSON)
	}
}

func TestParseFlags_StrayFlag(t *testing.T) {
	if _, err := ParseFlags([]string{"--journal", "extra", "--network=devnet"}); err == nil {
		t.Error("ParseFlags() should reject flags after a positional argument")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"custom url", func(c *Config) { c.Network = "http://localhost:20443" }, false},
		{"bad network", func(c *Config) { c.Network = "regtest" }, true},
		{"bad port", func(c *Config) { c.RPC.Port = 70000 }, true},
		{"bad allowed ip", func(c *Config) { c.RPC.AllowedIPs = []string{"localhost"} }, true},
		{"cidr allowed", func(c *Config) { c.RPC.AllowedIPs = []string{"10.0.0.0/8"} }, false},
		{"interval over timeout", func(c *Config) { c.Confirm.Interval = 5 * time.Minute }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("testnet")
			tt.mutate(cfg)
			if err := Validate(cfg); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPrivateKey, testKey)
	t.Setenv(EnvNetwork, "")

	cfg, _, err := Load([]string{"--datadir=" + dir, "--network=testnet", "--fee-multiplier=2"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Wallet.PrivateKey != testKey {
		t.Error("private key not read from environment")
	}
	if cfg.Fee.Multiplier != 2 {
		t.Errorf("Multiplier = %v", cfg.Fee.Multiplier)
	}
	if cfg.RPC.Port != DefaultRPCPortTestnet {
		t.Errorf("RPC.Port = %d", cfg.RPC.Port)
	}
	if _, err := os.Stat(cfg.ConfigFile()); err != nil {
		t.Errorf("default config not written: %v", err)
	}

	r, err := Resolve(cfg.Options())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if r.Identity.Address != testAddress {
		t.Errorf("Address = %s", r.Identity.Address)
	}
}
