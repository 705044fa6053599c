package config

import "time"

// Documented defaults.
const (
	DefaultFeeMultiplier  = 1.0
	DefaultMaxFee         = uint64(500_000)
	DefaultConfirmTimeout = 120_000 * time.Millisecond
	DefaultPollInterval   = 2_000 * time.Millisecond
	DefaultRequestTimeout = 30_000 * time.Millisecond
)

// Default bridge ports per network.
const (
	DefaultRPCPortMainnet = 7545
	DefaultRPCPortTestnet = 7645
	DefaultRPCPortDevnet  = 7745
)

// Default returns the default daemon configuration for network.
func Default(network string) *Config {
	if network == "" {
		network = "testnet"
	}
	return &Config{
		Network: network,
		DataDir: DefaultDataDir(),
		Fee: FeeConfig{
			Multiplier: DefaultFeeMultiplier,
			Max:        DefaultMaxFee,
		},
		Confirm: ConfirmConfig{
			Timeout:  DefaultConfirmTimeout,
			Interval: DefaultPollInterval,
		},
		RequestTimeout: DefaultRequestTimeout,
		RPC: RPCConfig{
			Addr:       "127.0.0.1",
			Port:       defaultRPCPort(network),
			AllowedIPs: []string{"127.0.0.1"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultRPCPort(network string) int {
	switch network {
	case "mainnet":
		return DefaultRPCPortMainnet
	case "testnet":
		return DefaultRPCPortTestnet
	default:
		return DefaultRPCPortDevnet
	}
}
