package network

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/pkg/tx"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		url     string
		tag     Tag
		version tx.TransactionVersion
	}{
		{"mainnet", Mainnet, MainnetURL, TagMainnet, tx.VersionMainnet},
		{"testnet", Testnet, TestnetURL, TagTestnet, tx.VersionTestnet},
		{"devnet", Devnet, DevnetURL, TagTestnet, tx.VersionTestnet},
		{"https://stacks.example.com/", Custom, "https://stacks.example.com", TagMainnet, tx.VersionMainnet},
		{"http://127.0.0.1:3999", Custom, "http://127.0.0.1:3999", TagMainnet, tx.VersionMainnet},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got.Name != tt.name || got.APIBaseURL != tt.url || got.Tag != tt.tag {
				t.Errorf("Resolve(%q) = %+v", tt.in, got)
			}
			if got.Chain().Version != tt.version {
				t.Errorf("Chain().Version = 0x%02x, want 0x%02x", got.Chain().Version, tt.version)
			}
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	for _, in := range []string{"moonnet", "", "ftp://host", "http://"} {
		_, err := Resolve(in)
		var ce *errs.ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("Resolve(%q) error = %v, want ConfigurationError", in, err)
		}
	}
}

func TestAddressVersion(t *testing.T) {
	m, _ := Resolve("mainnet")
	d, _ := Resolve("devnet")
	if m.AddressVersion() != 22 || d.AddressVersion() != 26 {
		t.Errorf("versions = %d/%d, want 22/26", m.AddressVersion(), d.AddressVersion())
	}
}
