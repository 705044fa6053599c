package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	klog "github.com/Klingon-tech/walletsim/internal/log"
)

// BadgerDB is a DB on disk, used when the journal is persisted.
type BadgerDB struct {
	db *badger.DB
}

// NewBadger opens (or creates) the journal database in dir.
func NewBadger(dir string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{klog.Storage}).
		WithMemTableSize(8 << 20).
		WithNumVersionsToKeep(1).
		WithSyncWrites(true)

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("journal at %s is locked by another process (is another walletsimd running?): %w", dir, err)
		}
		return nil, fmt.Errorf("open journal at %s: %w", dir, err)
	}
	klog.Storage.Debug().Str("dir", dir).Msg("journal database opened")
	return &BadgerDB{db: db}, nil
}

func (b *BadgerDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("journal read: %w", err)
	}
	return out, nil
}

func (b *BadgerDB) Has(key []byte) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("journal read: %w", err)
	}
	return true, nil
}

func (b *BadgerDB) Put(key, value []byte) error {
	return b.Batch(func(w Writer) error { return w.Put(key, value) })
}

func (b *BadgerDB) Delete(key []byte) error {
	return b.Batch(func(w Writer) error { return w.Delete(key) })
}

// Batch runs fn inside one read-write transaction.
func (b *BadgerDB) Batch(fn func(w Writer) error) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return fn(txnWriter{txn})
	})
	if err != nil {
		return fmt.Errorf("journal write: %w", err)
	}
	return nil
}

func (b *BadgerDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 16})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerDB) Close() error {
	return b.db.Close()
}

type txnWriter struct{ txn *badger.Txn }

func (w txnWriter) Put(key, value []byte) error { return w.txn.Set(key, value) }
func (w txnWriter) Delete(key []byte) error     { return w.txn.Delete(key) }

// badgerLogger routes badger's internal logging to the storage logger.
// Badger is chatty at info level, so info lines are demoted to debug.
type badgerLogger struct{ l zerolog.Logger }

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Error().Msgf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warn().Msgf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Infof(f string, v ...interface{})    { b.l.Debug().Msgf(strings.TrimSpace(f), v...) }
func (b badgerLogger) Debugf(f string, v ...interface{})   { b.l.Trace().Msgf(strings.TrimSpace(f), v...) }
