package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SecretKind says what a key file holds.
type SecretKind string

const (
	SecretPrivateKey SecretKind = "private-key"
	SecretMnemonic   SecretKind = "mnemonic"
)

// Secret is the decrypted content of a key file.
type Secret struct {
	Kind  SecretKind
	Value string
	// Account is the mnemonic account index; ignored for raw keys.
	Account uint32
}

// keyFile is the on-disk JSON format for an encrypted wallet secret.
type keyFile struct {
	Version         int        `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	Kind            SecretKind `json:"kind"`
	Account         uint32     `json:"account"`
	EncryptedSecret []byte     `json:"encrypted_secret"`
	// Addresses records the address last derived per network, for display
	// without the password.
	Addresses map[string]string `json:"addresses,omitempty"`
}

// KeyFileInfo is the public metadata of a key file.
type KeyFileInfo struct {
	Name      string
	Kind      SecretKind
	Account   uint32
	CreatedAt time.Time
	Addresses map[string]string
}

// Keystore manages encrypted key files in a directory.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore that reads/writes to the given directory.
// The directory is created if it doesn't exist.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

// Path returns the file path for a key file by name.
func (ks *Keystore) Path(name string) string {
	return filepath.Join(ks.path, name+".key")
}

// Create encrypts a secret into a new key file.
func (ks *Keystore) Create(name string, secret Secret, password []byte, params EncryptionParams) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid key file name %q", name)
	}
	switch secret.Kind {
	case SecretPrivateKey, SecretMnemonic:
	default:
		return fmt.Errorf("unknown secret kind %q", secret.Kind)
	}
	path := ks.Path(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key file %q already exists", name)
	}

	encrypted, err := Encrypt([]byte(secret.Value), password, params)
	if err != nil {
		return fmt.Errorf("encrypt secret: %w", err)
	}

	kf := keyFile{
		Version:         1,
		CreatedAt:       time.Now().UTC(),
		Kind:            secret.Kind,
		Account:         secret.Account,
		EncryptedSecret: encrypted,
	}
	return ks.writeFile(path, &kf)
}

// Load decrypts a key file.
func (ks *Keystore) Load(name string, password []byte) (Secret, error) {
	kf, err := ks.readFile(ks.Path(name))
	if err != nil {
		return Secret{}, err
	}
	plain, err := Decrypt(kf.EncryptedSecret, password)
	if err != nil {
		return Secret{}, fmt.Errorf("decrypt key file: %w", err)
	}
	defer zero(plain)
	return Secret{Kind: kf.Kind, Value: string(plain), Account: kf.Account}, nil
}

// Info returns the metadata of a key file without decrypting it.
func (ks *Keystore) Info(name string) (KeyFileInfo, error) {
	kf, err := ks.readFile(ks.Path(name))
	if err != nil {
		return KeyFileInfo{}, err
	}
	return KeyFileInfo{
		Name:      name,
		Kind:      kf.Kind,
		Account:   kf.Account,
		CreatedAt: kf.CreatedAt,
		Addresses: kf.Addresses,
	}, nil
}

// RecordAddress stores the address derived for a network.
func (ks *Keystore) RecordAddress(name, network, address string) error {
	path := ks.Path(name)
	kf, err := ks.readFile(path)
	if err != nil {
		return err
	}
	if kf.Addresses[network] == address {
		return nil
	}
	if kf.Addresses == nil {
		kf.Addresses = make(map[string]string)
	}
	kf.Addresses[network] = address
	return ks.writeFile(path, kf)
}

// List returns the names of all key files in the keystore.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ext := filepath.Ext(name); ext == ".key" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}

// Delete removes a key file.
func (ks *Keystore) Delete(name string) error {
	path := ks.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("key file %q not found", name)
	}
	return os.Remove(path)
}

func (ks *Keystore) writeFile(path string, kf *keyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

func (ks *Keystore) readFile(path string) (*keyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	if kf.Version != 1 {
		return nil, fmt.Errorf("unsupported key file version: %d", kf.Version)
	}
	return &kf, nil
}
