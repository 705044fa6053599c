// Package confirmation waits for a broadcast transaction to reach a
// terminal status.
package confirmation

import (
	"context"
	"strings"
	"time"

	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/internal/errs"
	klog "github.com/Klingon-tech/walletsim/internal/log"
)

// Defaults used when Config fields are zero.
const (
	DefaultTimeout  = 120 * time.Second
	DefaultInterval = 2 * time.Second
)

// Config bounds a wait.
type Config struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	return c
}

// Result is the terminal state of a transaction.
type Result struct {
	TxID        string  `json:"txid"`
	Status      string  `json:"status"`
	BlockHeight *uint64 `json:"blockHeight,omitempty"`
}

// StatusAPI fetches transaction status.
type StatusAPI interface {
	TransactionStatus(ctx context.Context, txid string) (apiclient.TxStatus, error)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poller polls transaction status at a fixed interval.
type Poller struct {
	api   StatusAPI
	clock Clock
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// NewPoller creates a Poller.
func NewPoller(api StatusAPI, opts ...Option) *Poller {
	p := &Poller{api: api, clock: realClock{}}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NormalizeTxID returns txid lowercased with a 0x prefix.
func NormalizeTxID(txid string) string {
	s := strings.ToLower(strings.TrimSpace(txid))
	return "0x" + strings.TrimPrefix(s, "0x")
}

// Wait polls until txid leaves the pending state. Fetch errors are logged
// and polling continues. It returns *errs.ConfirmationError when cfg.Timeout
// elapses or ctx is cancelled first.
func (p *Poller) Wait(ctx context.Context, txid string, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	id := NormalizeTxID(txid)
	start := p.clock.Now()
	log := klog.Confirm.With().Str("txid", id).Logger()

	for attempt := 1; ; attempt++ {
		if p.clock.Now().Sub(start) >= cfg.Timeout {
			log.Warn().Dur("timeout", cfg.Timeout).Int("attempts", attempt-1).Msg("confirmation timed out")
			return Result{}, &errs.ConfirmationError{TxID: id, Timeout: cfg.Timeout}
		}

		st, err := p.api.TransactionStatus(ctx, id)
		switch {
		case err != nil:
			log.Debug().Err(err).Int("attempt", attempt).Msg("status fetch failed")
		case st.Status != "" && st.Status != apiclient.StatusPending:
			log.Info().Str("status", st.Status).Int("attempts", attempt).Msg("transaction final")
			return Result{TxID: id, Status: st.Status, BlockHeight: st.BlockHeight}, nil
		default:
			log.Debug().Int("attempt", attempt).Msg("transaction pending")
		}

		if err := p.clock.Sleep(ctx, cfg.Interval); err != nil {
			return Result{}, &errs.ConfirmationError{TxID: id, Timeout: cfg.Timeout, Err: err}
		}
	}
}
