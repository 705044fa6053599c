// Package wallet derives the simulated wallet's signing identity from a
// raw key or a BIP-39 mnemonic, and stores secrets in encrypted key files.
package wallet

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a derived seed in bytes.
const SeedSize = 64

// entropyBits maps the phrase lengths Stacks wallets produce to entropy
// sizes.
var entropyBits = map[int]int{12: 128, 24: 256}

// GenerateMnemonic creates a new BIP-39 phrase of 12 or 24 words.
func GenerateMnemonic(words int) (string, error) {
	bits, ok := entropyBits[words]
	if !ok {
		return "", fmt.Errorf("unsupported mnemonic length %d, want 12 or 24 words", words)
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// ParseMnemonic normalizes whitespace and case and checks the phrase
// against the BIP-39 word list and checksum.
func ParseMnemonic(phrase string) (string, error) {
	words := strings.Fields(strings.ToLower(phrase))
	if _, ok := entropyBits[len(words)]; !ok {
		return "", fmt.Errorf("mnemonic has %d words, want 12 or 24", len(words))
	}
	for i, w := range words {
		if _, ok := bip39.GetWordIndex(w); !ok {
			return "", fmt.Errorf("mnemonic word %d is not in the BIP-39 list", i+1)
		}
	}
	normalized := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(normalized) {
		return "", fmt.Errorf("mnemonic checksum mismatch")
	}
	return normalized, nil
}

// SeedFromMnemonic derives the BIP-39 seed. Stacks wallets use an empty
// passphrase.
func SeedFromMnemonic(phrase, passphrase string) ([]byte, error) {
	normalized, err := ParseMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	return bip39.NewSeed(normalized, passphrase), nil
}
