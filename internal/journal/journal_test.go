package journal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/walletsim/internal/storage"
)

func txid(i int) string {
	return fmt.Sprintf("%064x", i)
}

func TestRecordAndList(t *testing.T) {
	j, err := Open(storage.NewMemory(), "testnet")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	for i := 0; i < 12; i++ {
		if err := j.Record(Entry{TxID: txid(i), Kind: KindTransfer, Nonce: uint64(i), Fee: 180, FeeSource: "estimated"}); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	entries, err := j.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("List() len = %d, want 12", len(entries))
	}
	for i, e := range entries {
		if e.Nonce != uint64(i) {
			t.Errorf("entry %d nonce = %d", i, e.Nonce)
		}
		if e.RecordedAt.IsZero() {
			t.Errorf("entry %d has no timestamp", i)
		}
	}
	if j.Len() != 12 {
		t.Errorf("Len() = %d", j.Len())
	}
}

func TestGet(t *testing.T) {
	j, _ := Open(storage.NewMemory(), "devnet")
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	want := Entry{TxID: txid(7), Kind: KindContractCall, Contract: "ST000000000000000000002AMW42H.pox", Function: "stack-stx", RecordedAt: ts}
	j.Record(want)

	got, err := j.Get(txid(7))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Function != "stack-stx" || !got.RecordedAt.Equal(ts) {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := j.Get(txid(8)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}
}

func TestNetworksIsolated(t *testing.T) {
	db := storage.NewMemory()
	a, _ := Open(db, "testnet")
	b, _ := Open(db, "mainnet")

	a.Record(Entry{TxID: txid(1)})
	if b.Len() != 0 {
		t.Errorf("mainnet Len() = %d, want 0", b.Len())
	}
	if _, err := b.Get(txid(1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("mainnet Get() = %v", err)
	}
}

func TestReopenContinuesSequence(t *testing.T) {
	db := storage.NewMemory()
	j1, _ := Open(db, "testnet")
	j1.Record(Entry{TxID: txid(1), Nonce: 1})
	j1.Record(Entry{TxID: txid(2), Nonce: 2})

	j2, err := Open(db, "testnet")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	j2.Record(Entry{TxID: txid(3), Nonce: 3})

	entries, _ := j2.List()
	if len(entries) != 3 || entries[2].TxID != txid(3) {
		t.Fatalf("List() = %+v", entries)
	}
}

func TestClear(t *testing.T) {
	j, _ := Open(storage.NewMemory(), "testnet")
	j.Record(Entry{TxID: txid(1)})
	if err := j.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if j.Len() != 0 {
		t.Errorf("Len() after Clear = %d", j.Len())
	}
	j.Record(Entry{TxID: txid(2)})
	entries, _ := j.List()
	if len(entries) != 1 || !strings.HasSuffix(entries[0].TxID, "2") {
		t.Errorf("List() = %+v", entries)
	}
}

func TestBadgerBacked(t *testing.T) {
	db, err := storage.NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()

	j, err := Open(db, "testnet")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		j.Record(Entry{TxID: txid(i), Nonce: uint64(i)})
	}
	entries, err := j.List()
	if err != nil || len(entries) != 3 {
		t.Fatalf("List() = %d entries, %v", len(entries), err)
	}
}
