// Walletsim daemon: a simulated Stacks wallet serving dApp end-to-end tests.
//
// Usage:
//
//	walletsimd [--network=testnet --keystore=qa] Run the wallet bridge
//	walletsimd --help                            Show help
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Klingon-tech/walletsim/config"
	"github.com/Klingon-tech/walletsim/internal/node"
	"golang.org/x/term"
)

func main() {
	cfg, flags, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flags.Version {
		fmt.Printf("walletsimd %s\n", config.Version)
		return
	}

	if flags.Mnemonic {
		phrase, err := readSecret("Mnemonic: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read mnemonic: %v\n", err)
			os.Exit(1)
		}
		cfg.Wallet.PrivateKey = ""
		cfg.Wallet.Mnemonic = strings.TrimSpace(string(phrase))
	}

	n, err := node.New(cfg, node.WithPassword(func(name string) ([]byte, error) {
		return readSecret(fmt.Sprintf("Password for key file %q: ", name))
	}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := n.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		n.Stop()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	n.Stop()
}

func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return secret, nil
}
