package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/Klingon-tech/walletsim/pkg/types"
)

// testMnemonic is the well-known local devnet deployer phrase.
const testMnemonic = "twice kind fence tip hidden tilt action fragile skin nothing glory cousin green tomorrow spring wrist shed math olympic multiply hip blue scout claw"

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	return seed
}

func TestNewMasterKey(t *testing.T) {
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	if !master.IsPrivate() {
		t.Error("master key should be private")
	}
	if master.Depth() != 0 {
		t.Errorf("master key depth = %d, want 0", master.Depth())
	}
	if len(master.PrivateKeyBytes()) != 32 {
		t.Errorf("private key length = %d, want 32", len(master.PrivateKeyBytes()))
	}
	if len(master.PublicKeyBytes()) != 33 {
		t.Errorf("public key length = %d, want 33", len(master.PublicKeyBytes()))
	}
}

func TestNewMasterKey_InvalidSeedLength(t *testing.T) {
	tests := []struct {
		name string
		seed []byte
	}{
		{"empty", []byte{}},
		{"too short", make([]byte, 32)},
		{"too long", make([]byte, 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMasterKey(tt.seed); err == nil {
				t.Error("expected error for invalid seed length")
			}
		})
	}
}

func TestHDKey_Account_KnownVectors(t *testing.T) {
	master, err := NewMasterKey(testSeed(t))
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}

	tests := []struct {
		index   uint32
		key     string
		address string
	}{
		{0, "753b7cc01a1a2e86221266a154af739463fce51219d97e4f856cd7200c3bd2a6", "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"},
		{1, "6a7c24ee77649c0cc314864596a6bd1addf3efb93bd63bcdb99be08437420847", "ST2ST2H80NP5C9SPR4ENJ1Z9CDM9PKAJVPYWPQZ50"},
		{2, "6703304161a59dc3369c650ae97cca299df8bebb5638f12d4ff69778cba6ce3a", "ST2Y2SFNVZBT8SSZ00XXKH930MCN0RFREB2GQG7CJ"},
	}

	for _, tt := range tests {
		child, err := master.Account(tt.index)
		if err != nil {
			t.Fatalf("Account(%d) error: %v", tt.index, err)
		}
		if got := hex.EncodeToString(child.PrivateKeyBytes()); got != tt.key {
			t.Errorf("account %d key = %s, want %s", tt.index, got, tt.key)
		}
		if got := child.Address(types.AddressVersionTestnetSingleSig).String(); got != tt.address {
			t.Errorf("account %d address = %s, want %s", tt.index, got, tt.address)
		}
		if child.Depth() != 5 {
			t.Errorf("depth = %d, want 5", child.Depth())
		}
	}
}

func TestHDKey_Signer(t *testing.T) {
	master, _ := NewMasterKey(testSeed(t))
	child, _ := master.Account(0)
	signer, err := child.Signer()
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	if !signer.Compressed() {
		t.Error("derived signers use compressed keys")
	}
	if !bytes.Equal(signer.PublicKey(), child.PublicKeyBytes()) {
		t.Error("signer public key should match HD public key")
	}
}

func TestAccountPath_String(t *testing.T) {
	tests := []struct {
		index uint32
		want  string
	}{
		{0, "m/44'/5757'/0'/0/0"},
		{7, "m/44'/5757'/0'/0/7"},
	}
	for _, tt := range tests {
		if got := AccountPath(tt.index).String(); got != tt.want {
			t.Errorf("AccountPath(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}
	if got := (Path{}).String(); got != "m" {
		t.Errorf("empty path = %s, want m", got)
	}
}

func TestHDKey_DeriveMatchesAccount(t *testing.T) {
	master, _ := NewMasterKey(testSeed(t))
	a, err := master.Account(3)
	if err != nil {
		t.Fatalf("Account() error: %v", err)
	}
	b, err := master.Derive(AccountPath(3))
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	if !bytes.Equal(a.PrivateKeyBytes(), b.PrivateKeyBytes()) {
		t.Error("Derive(AccountPath(3)) differs from Account(3)")
	}
	same, _ := master.Derive(nil)
	if same.Depth() != 0 {
		t.Errorf("Derive(nil) depth = %d, want 0", same.Depth())
	}
}
