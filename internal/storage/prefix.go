package storage

// PrefixDB is a view of a shared DB restricted to one key namespace.
// The journal keeps one namespace per network.
type PrefixDB struct {
	inner DB
	ns    []byte
}

// NewPrefixDB returns the namespace ns of inner.
func NewPrefixDB(inner DB, ns []byte) *PrefixDB {
	return &PrefixDB{inner: inner, ns: append([]byte(nil), ns...)}
}

func (p *PrefixDB) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(p.ns)+len(k)), p.ns...), k...)
}

func (p *PrefixDB) Get(key []byte) ([]byte, error) { return p.inner.Get(p.key(key)) }
func (p *PrefixDB) Has(key []byte) (bool, error)   { return p.inner.Has(p.key(key)) }
func (p *PrefixDB) Put(key, value []byte) error    { return p.inner.Put(p.key(key), value) }
func (p *PrefixDB) Delete(key []byte) error        { return p.inner.Delete(p.key(key)) }

// ForEach strips the namespace from keys before calling fn.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.ns)
	return p.inner.ForEach(p.key(prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

func (p *PrefixDB) Batch(fn func(w Writer) error) error {
	return p.inner.Batch(func(w Writer) error {
		return fn(nsWriter{w: w, p: p})
	})
}

// DeleteAll removes the whole namespace in one batch.
func (p *PrefixDB) DeleteAll() error {
	var keys [][]byte
	if err := p.inner.ForEach(p.ns, func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return err
	}
	return p.inner.Batch(func(w Writer) error {
		for _, k := range keys {
			if err := w.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close leaves the shared DB open.
func (p *PrefixDB) Close() error { return nil }

type nsWriter struct {
	w Writer
	p *PrefixDB
}

func (n nsWriter) Put(key, value []byte) error { return n.w.Put(n.p.key(key), value) }
func (n nsWriter) Delete(key []byte) error     { return n.w.Delete(n.p.key(key)) }
