package storage

import (
	"bytes"
	"slices"
	"strings"
	"sync"
)

// MemoryDB is a DB held in a map. The journal uses it unless
// persistence is turned on, and tests use it everywhere.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty MemoryDB.
func NewMemory() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.data[string(key)]; ok {
		return bytes.Clone(v), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryDB) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemoryDB) Put(key, value []byte) error {
	return m.Batch(func(w Writer) error { return w.Put(key, value) })
}

func (m *MemoryDB) Delete(key []byte) error {
	return m.Batch(func(w Writer) error { return w.Delete(key) })
}

// Batch stages the writes made by fn and applies them under one lock.
func (m *MemoryDB) Batch(fn func(w Writer) error) error {
	var staged memBatch
	if err := fn(&staged); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range staged {
		if op.del {
			delete(m.data, op.key)
		} else {
			m.data[op.key] = op.value
		}
	}
	return nil
}

// ForEach works on a snapshot taken before the first callback, so fn
// may write to the database.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	type kv struct {
		key   string
		value []byte
	}
	m.mu.RLock()
	var snap []kv
	for k, v := range m.data {
		if strings.HasPrefix(k, string(prefix)) {
			snap = append(snap, kv{k, bytes.Clone(v)})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(snap, func(a, b kv) int { return strings.Compare(a.key, b.key) })
	for _, e := range snap {
		if err := fn([]byte(e.key), e.value); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many keys are stored.
func (m *MemoryDB) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryDB) Close() error { return nil }

type memOp struct {
	key   string
	value []byte
	del   bool
}

type memBatch []memOp

func (b *memBatch) Put(key, value []byte) error {
	*b = append(*b, memOp{key: string(key), value: bytes.Clone(value)})
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	*b = append(*b, memOp{key: string(key), del: true})
	return nil
}
