// derive_key.go prints the public key and Stacks addresses for a hex-encoded private key file.
// Usage: go run scripts/derive_key.go <keyfile>
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/walletsim/internal/network"
	"github.com/Klingon-tech/walletsim/internal/wallet"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile>")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	keyHex := strings.TrimSpace(string(data))
	for _, name := range []string{"mainnet", "testnet"} {
		net, err := network.Resolve(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		id, err := wallet.DeriveIdentity(keyHex, net)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if name == "mainnet" {
			fmt.Printf("pubkey=%s\n", id.PublicKey)
		}
		fmt.Printf("%s=%s\n", name, id.Address)
	}
}
