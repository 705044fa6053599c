// Package journal records successful broadcasts in a storage.DB.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	klog "github.com/Klingon-tech/walletsim/internal/log"
	"github.com/Klingon-tech/walletsim/internal/storage"
)

// Entry kinds.
const (
	KindTransfer     = "transfer"
	KindContractCall = "contract-call"
)

// Key layout inside a network namespace:
//
//	e/<seq u64 BE> -> Entry JSON
//	t/<txid>       -> seq u64 BE
var (
	prefixEntry = []byte("e/")
	prefixTxID  = []byte("t/")
)

// ErrNotFound is returned by Get for an unknown txid.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one broadcast transaction.
type Entry struct {
	TxID       string    `json:"txid"`
	Kind       string    `json:"kind"`
	Nonce      uint64    `json:"nonce"`
	Fee        uint64    `json:"fee"`
	FeeSource  string    `json:"feeSource"`
	Contract   string    `json:"contract,omitempty"`
	Function   string    `json:"function,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	Amount     uint64    `json:"amount,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Journal is an append-only log of broadcasts for one network.
type Journal struct {
	mu   sync.Mutex
	db   *storage.PrefixDB
	next uint64
	now  func() time.Time
}

// Open returns the journal for network stored in db.
func Open(db storage.DB, network string) (*Journal, error) {
	j := &Journal{
		db:  storage.NewPrefixDB(db, []byte(network+"/")),
		now: func() time.Time { return time.Now().UTC() },
	}
	err := j.db.ForEach(prefixEntry, func(key, _ []byte) error {
		if seq, ok := parseSeq(key); ok && seq >= j.next {
			j.next = seq + 1
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return j, nil
}

// Record appends e. RecordedAt is set when zero.
func (j *Journal) Record(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.RecordedAt.IsZero() {
		e.RecordedAt = j.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	seq := binary.BigEndian.AppendUint64(nil, j.next)
	err = j.db.Batch(func(w storage.Writer) error {
		if err := w.Put(entryKey(j.next), data); err != nil {
			return err
		}
		return w.Put(txKey(e.TxID), seq)
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", e.TxID, err)
	}
	klog.Storage.Debug().Str("txid", e.TxID).Uint64("seq", j.next).Msg("journal entry recorded")
	j.next++
	return nil
}

// List returns entries in broadcast order.
func (j *Journal) List() ([]Entry, error) {
	var out []Entry
	err := j.db.ForEach(prefixEntry, func(_, value []byte) error {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode entry: %w", err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// Get returns the entry for txid.
func (j *Journal) Get(txid string) (Entry, error) {
	seq, err := j.db.Get(txKey(txid))
	if errors.Is(err, storage.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	if len(seq) != 8 {
		return Entry{}, fmt.Errorf("corrupt txid index for %s", txid)
	}
	data, err := j.db.Get(entryKey(binary.BigEndian.Uint64(seq)))
	if err != nil {
		return Entry{}, fmt.Errorf("get entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	return e, nil
}

// Len returns the number of recorded entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	j.db.ForEach(prefixEntry, func(_, _ []byte) error {
		n++
		return nil
	})
	return n
}

// Clear removes every entry for the network.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.db.DeleteAll(); err != nil {
		return err
	}
	j.next = 0
	return nil
}

func entryKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, prefixEntry...), seq)
}

func txKey(txid string) []byte {
	return append(append([]byte{}, prefixTxID...), txid...)
}

func parseSeq(key []byte) (uint64, bool) {
	if len(key) != len(prefixEntry)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(prefixEntry):]), true
}
