// Package types defines Stacks addresses and contract identifiers.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
)

// AddressHashSize is the length of the hash160 inside an address.
const AddressHashSize = crypto.Hash160Size

// Address version bytes.
const (
	AddressVersionMainnetSingleSig byte = 22 // SP
	AddressVersionMainnetMultiSig  byte = 20 // SM
	AddressVersionTestnetSingleSig byte = 26 // ST
	AddressVersionTestnetMultiSig  byte = 21 // SN
)

// Address is a versioned hash160 of a public key or redeem script.
type Address struct {
	Version byte
	Hash160 [AddressHashSize]byte
}

// AddressFromPubKey builds a single-sig address for the given public key.
func AddressFromPubKey(version byte, pubKey []byte) Address {
	return Address{Version: version, Hash160: crypto.Hash160FromPubKey(pubKey)}
}

// IsZero returns true if the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the c32check address, e.g. "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7".
func (a Address) String() string {
	s, err := C32CheckEncode(a.Version, a.Hash160[:])
	if err != nil {
		// Version out of range; only reachable through a hand-built Address.
		return fmt.Sprintf("S?%d:%s", a.Version, hex.EncodeToString(a.Hash160[:]))
	}
	return "S" + s
}

// Hex returns the raw hash160 in hex.
func (a Address) Hex() string {
	return hex.EncodeToString(a.Hash160[:])
}

// MarshalJSON encodes the address as a c32check string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a c32check string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a c32check Stacks address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	if s[0] != 'S' && s[0] != 's' {
		return Address{}, fmt.Errorf("invalid address %q: must start with S", s)
	}
	version, data, err := C32CheckDecode(s[1:], AddressHashSize)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	var a Address
	a.Version = version
	copy(a.Hash160[:], data)
	return a, nil
}

// ContractID names a deployed contract: "<address>.<name>".
type ContractID struct {
	Address Address
	Name    string
}

// MaxContractNameLength bounds the contract name.
const MaxContractNameLength = 128

// String returns "<address>.<name>".
func (c ContractID) String() string {
	return c.Address.String() + "." + c.Name
}

// ParseContractID parses "<address>.<name>".
func ParseContractID(s string) (ContractID, error) {
	addr, name, ok := strings.Cut(s, ".")
	if !ok {
		return ContractID{}, fmt.Errorf("invalid contract id %q: missing '.'", s)
	}
	return NewContractID(addr, name)
}

// NewContractID validates an address and contract name pair.
func NewContractID(address, name string) (ContractID, error) {
	a, err := ParseAddress(address)
	if err != nil {
		return ContractID{}, err
	}
	if err := ValidateContractName(name); err != nil {
		return ContractID{}, err
	}
	return ContractID{Address: a, Name: name}, nil
}

// ValidateContractName checks a contract name against the Clarity
// identifier rules: a letter followed by letters, digits, '-' or '_'.
func ValidateContractName(name string) error {
	if name == "" {
		return fmt.Errorf("empty contract name")
	}
	if len(name) > MaxContractNameLength {
		return fmt.Errorf("contract name is %d characters, max %d", len(name), MaxContractNameLength)
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_'):
		default:
			return fmt.Errorf("invalid contract name %q", name)
		}
	}
	return nil
}
