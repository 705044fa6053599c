package config

import (
	"math"
	"time"

	"github.com/Klingon-tech/walletsim/internal/confirmation"
	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/internal/fees"
	"github.com/Klingon-tech/walletsim/internal/network"
	"github.com/Klingon-tech/walletsim/internal/wallet"
)

// Options are the knobs a harness sets for one wallet session. Zero values
// take the documented defaults. Network has no default.
type Options struct {
	// PrivateKey is 64 or 66 hex chars. It wins over Mnemonic.
	PrivateKey string
	// Mnemonic is a BIP-39 phrase; AccountIndex selects the account.
	Mnemonic     string
	AccountIndex uint32

	// Network is mainnet, testnet, devnet or an http(s) API URL.
	Network string

	FeeMultiplier float64
	MaxFee        uint64
	// FixedFee skips estimation when set.
	FixedFee *uint64

	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	// RequestTimeout bounds each ledger API call. Negative disables it.
	RequestTimeout time.Duration
}

// Resolved is the immutable configuration of one session.
type Resolved struct {
	Identity       *wallet.Identity
	Network        network.Resolved
	Fees           fees.Config
	Confirmation   confirmation.Config
	RequestTimeout time.Duration
}

// Resolve derives the identity, resolves the network and merges defaults.
// All failures are *errs.ConfigurationError.
func Resolve(o Options) (*Resolved, error) {
	if o.Network == "" {
		return nil, errs.Configf("network is required")
	}
	net, err := network.Resolve(o.Network)
	if err != nil {
		return nil, err
	}

	var id *wallet.Identity
	switch {
	case o.PrivateKey != "":
		id, err = wallet.DeriveIdentity(o.PrivateKey, net)
	case o.Mnemonic != "":
		id, err = wallet.DeriveIdentityFromMnemonic(o.Mnemonic, o.AccountIndex, net)
	default:
		return nil, errs.Configf("no private key available, provide a private key or mnemonic")
	}
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Identity: id,
		Network:  net,
		Fees: fees.Config{
			Multiplier: o.FeeMultiplier,
			MaxFee:     o.MaxFee,
			Fixed:      o.FixedFee,
		},
		Confirmation: confirmation.Config{
			Timeout:  o.ConfirmTimeout,
			Interval: o.PollInterval,
		},
		RequestTimeout: o.RequestTimeout,
	}
	if r.Fees.Multiplier == 0 {
		r.Fees.Multiplier = DefaultFeeMultiplier
	}
	if r.Fees.Multiplier < 0 || math.IsNaN(r.Fees.Multiplier) || math.IsInf(r.Fees.Multiplier, 0) {
		return nil, errs.Configf("fee multiplier must be a positive number, got %v", o.FeeMultiplier)
	}
	if r.Fees.MaxFee == 0 {
		r.Fees.MaxFee = DefaultMaxFee
	}
	if r.Fees.Fixed != nil {
		v := *r.Fees.Fixed
		r.Fees.Fixed = &v
	}
	if r.Confirmation.Timeout <= 0 {
		r.Confirmation.Timeout = DefaultConfirmTimeout
	}
	if r.Confirmation.Interval <= 0 {
		r.Confirmation.Interval = DefaultPollInterval
	}
	switch {
	case r.RequestTimeout == 0:
		r.RequestTimeout = DefaultRequestTimeout
	case r.RequestTimeout < 0:
		r.RequestTimeout = 0
	}
	return r, nil
}

// Options converts the daemon config into session options.
func (c *Config) Options() Options {
	return Options{
		PrivateKey:     c.Wallet.PrivateKey,
		Mnemonic:       c.Wallet.Mnemonic,
		AccountIndex:   c.Wallet.Account,
		Network:        c.Network,
		FeeMultiplier:  c.Fee.Multiplier,
		MaxFee:         c.Fee.Max,
		FixedFee:       c.Fee.Fixed,
		ConfirmTimeout: c.Confirm.Timeout,
		PollInterval:   c.Confirm.Interval,
		RequestTimeout: c.RequestTimeout,
	}
}

// ApplySecret fills the wallet fields from a decrypted key file.
func (o *Options) ApplySecret(s wallet.Secret) {
	switch s.Kind {
	case wallet.SecretPrivateKey:
		o.PrivateKey = s.Value
		o.Mnemonic = ""
	case wallet.SecretMnemonic:
		o.PrivateKey = ""
		o.Mnemonic = s.Value
		o.AccountIndex = s.Account
	}
}
