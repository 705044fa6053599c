// Package network resolves logical network names to API endpoints and
// chain parameters.
package network

import (
	"net/url"
	"strings"

	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/pkg/tx"
)

// Tag is the canonical chain a network belongs to.
type Tag string

const (
	TagMainnet Tag = "mainnet"
	TagTestnet Tag = "testnet"
)

// Well-known network names.
const (
	Mainnet = "mainnet"
	Testnet = "testnet"
	Devnet  = "devnet"
	Custom  = "custom"
)

// Default API base URLs.
const (
	MainnetURL = "https://api.hiro.so"
	TestnetURL = "https://api.testnet.hiro.so"
	DevnetURL  = "http://localhost:3999"
)

// Resolved is an immutable network description.
type Resolved struct {
	Name       string `json:"name"`
	APIBaseURL string `json:"apiBaseUrl"`
	Tag        Tag    `json:"chainTag"`
}

// Chain returns the transaction constants for the network.
func (r Resolved) Chain() tx.Chain {
	if r.Tag == TagTestnet {
		return tx.Testnet
	}
	return tx.Mainnet
}

// AddressVersion returns the single-sig address version byte.
func (r Resolved) AddressVersion() byte {
	return r.Chain().AddressVersion
}

// Resolve maps "mainnet", "testnet", "devnet" or an http(s) URL to a
// network. Custom URLs are treated as mainnet-tagged.
func Resolve(option string) (Resolved, error) {
	switch strings.ToLower(strings.TrimSpace(option)) {
	case Mainnet:
		return Resolved{Name: Mainnet, APIBaseURL: MainnetURL, Tag: TagMainnet}, nil
	case Testnet:
		return Resolved{Name: Testnet, APIBaseURL: TestnetURL, Tag: TagTestnet}, nil
	case Devnet:
		return Resolved{Name: Devnet, APIBaseURL: DevnetURL, Tag: TagTestnet}, nil
	}

	if strings.HasPrefix(option, "http://") || strings.HasPrefix(option, "https://") {
		u, err := url.Parse(option)
		if err != nil || u.Host == "" {
			return Resolved{}, &errs.ConfigurationError{Msg: "invalid network URL " + option, Err: err}
		}
		return Resolved{Name: Custom, APIBaseURL: strings.TrimRight(option, "/"), Tag: TagMainnet}, nil
	}
	return Resolved{}, errs.Configf("unknown network %q: want mainnet, testnet, devnet or an http(s) URL", option)
}
