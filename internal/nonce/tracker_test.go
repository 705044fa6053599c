package nonce

import (
	"context"
	"errors"
	"testing"
)

type countingSource struct {
	nonce uint64
	err   error
	calls int
}

func (s *countingSource) AccountNonce(ctx context.Context, address string) (uint64, error) {
	s.calls++
	return s.nonce, s.err
}

func TestTracker_FetchOnce(t *testing.T) {
	src := &countingSource{nonce: 5}
	tr := NewTracker("testnet", "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM", src)

	for i := 0; i < 3; i++ {
		n, err := tr.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if n != 5 {
			t.Errorf("Next() = %d, want 5", n)
		}
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestTracker_Increment(t *testing.T) {
	src := &countingSource{nonce: 5}
	tr := NewTracker("testnet", "addr", src)

	if _, err := tr.Next(context.Background()); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	tr.Increment()
	tr.Increment()
	n, _ := tr.Next(context.Background())
	if n != 7 {
		t.Errorf("Next() = %d, want 7", n)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestTracker_IncrementBeforeFetch(t *testing.T) {
	src := &countingSource{nonce: 3}
	tr := NewTracker("testnet", "addr", src)

	tr.Increment()
	if _, ok := tr.Peek(); ok {
		t.Fatal("Increment() before fetch should not cache")
	}
	n, _ := tr.Next(context.Background())
	if n != 3 {
		t.Errorf("Next() = %d, want 3", n)
	}
}

func TestTracker_Reset(t *testing.T) {
	src := &countingSource{nonce: 1}
	tr := NewTracker("testnet", "addr", src)

	tr.Next(context.Background())
	tr.Increment()
	tr.Reset()
	src.nonce = 9

	n, err := tr.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if n != 9 {
		t.Errorf("Next() = %d, want 9", n)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2", src.calls)
	}
}

func TestTracker_FetchError(t *testing.T) {
	boom := errors.New("boom")
	src := &countingSource{err: boom}
	tr := NewTracker("testnet", "addr", src)

	if _, err := tr.Next(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Next() error = %v, want %v", err, boom)
	}
	if _, ok := tr.Peek(); ok {
		t.Error("failed fetch should not cache")
	}

	src.err = nil
	src.nonce = 4
	if n, _ := tr.Next(context.Background()); n != 4 {
		t.Errorf("Next() = %d, want 4", n)
	}
}

func TestSourceFunc(t *testing.T) {
	var got string
	tr := NewTracker("devnet", "ST000000000000000000002AMW42H", SourceFunc(func(ctx context.Context, address string) (uint64, error) {
		got = address
		return 11, nil
	}))
	n, err := tr.Next(context.Background())
	if err != nil || n != 11 {
		t.Fatalf("Next() = %d, %v", n, err)
	}
	if got != tr.Address() {
		t.Errorf("address = %s", got)
	}
}
