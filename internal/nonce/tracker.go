// Package nonce tracks the next transaction nonce of one account.
package nonce

import (
	"context"
	"fmt"
	"sync"

	klog "github.com/Klingon-tech/walletsim/internal/log"
)

// Source fetches the live chain nonce of address.
type Source interface {
	AccountNonce(ctx context.Context, address string) (uint64, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, address string) (uint64, error)

// AccountNonce calls f.
func (f SourceFunc) AccountNonce(ctx context.Context, address string) (uint64, error) {
	return f(ctx, address)
}

// Tracker caches the pending nonce of one (network, address) pair.
// The cached value only moves forward through Increment.
type Tracker struct {
	network string
	address string
	src     Source

	mu     sync.Mutex
	next   uint64
	cached bool
}

// NewTracker creates a tracker for address on network.
func NewTracker(network, address string, src Source) *Tracker {
	return &Tracker{network: network, address: address, src: src}
}

// Next returns the nonce to use for the next transaction. The first call
// fetches it from the chain; later calls return the cached value.
func (t *Tracker) Next(ctx context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cached {
		return t.next, nil
	}
	n, err := t.src.AccountNonce(ctx, t.address)
	if err != nil {
		return 0, fmt.Errorf("fetch nonce for %s: %w", t.address, err)
	}
	t.next = n
	t.cached = true
	klog.Nonce.Debug().Str("network", t.network).Str("address", t.address).Uint64("nonce", n).Msg("fetched nonce")
	return n, nil
}

// Increment advances the cached nonce after a successful broadcast.
// It does nothing if no nonce has been fetched yet.
func (t *Tracker) Increment() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cached {
		return
	}
	t.next++
}

// Reset drops the cached nonce so the next call re-fetches it.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cached = false
	t.next = 0
	klog.Nonce.Debug().Str("network", t.network).Str("address", t.address).Msg("nonce reset")
}

// Peek returns the cached nonce, if any.
func (t *Tracker) Peek() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next, t.cached
}

// Address returns the tracked address.
func (t *Tracker) Address() string {
	return t.address
}
