// Package storage provides the key-value stores behind the broadcast
// journal.
package storage

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// Writer is the write half of a DB, handed to Batch callbacks.
type Writer interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// DB is a byte-keyed store.
type DB interface {
	Writer
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// ForEach visits keys with the given prefix in ascending byte order.
	// The callback receives copies. A non-nil error from fn stops
	// iteration and is returned.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	// Batch applies every write made through w atomically, or none of
	// them if fn returns an error.
	Batch(fn func(w Writer) error) error
	Close() error
}
