package config

import (
	"fmt"
	"math"
	"net"
	"strings"
)

// Validate checks daemon config for obvious operator mistakes. Key
// material is checked later by Resolve.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch {
	case cfg.Network == "mainnet", cfg.Network == "testnet", cfg.Network == "devnet":
	case strings.HasPrefix(cfg.Network, "http://"), strings.HasPrefix(cfg.Network, "https://"):
	default:
		return fmt.Errorf("network must be mainnet, testnet, devnet or an http(s) URL, got %q", cfg.Network)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	for i, ip := range cfg.RPC.AllowedIPs {
		if net.ParseIP(ip) == nil {
			if _, _, err := net.ParseCIDR(ip); err != nil {
				return fmt.Errorf("rpc.allowed[%d] %q is not an IP or CIDR", i, ip)
			}
		}
	}
	if m := cfg.Fee.Multiplier; m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return fmt.Errorf("fee.multiplier must be a positive number")
	}
	if cfg.Confirm.Interval > 0 && cfg.Confirm.Timeout > 0 && cfg.Confirm.Interval > cfg.Confirm.Timeout {
		return fmt.Errorf("confirm.interval must not exceed confirm.timeout")
	}
	return nil
}
