package confirmation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/internal/errs"
)

const testTxID = "7d4c4f3b9e0a1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f708192a3b4c5d6e7f809"

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type scriptedAPI struct {
	replies []apiclient.TxStatus
	errs    []error
	calls   int
	ids     []string
}

func (s *scriptedAPI) TransactionStatus(ctx context.Context, txid string) (apiclient.TxStatus, error) {
	i := s.calls
	s.calls++
	s.ids = append(s.ids, txid)
	if i < len(s.errs) && s.errs[i] != nil {
		return apiclient.TxStatus{}, s.errs[i]
	}
	if i >= len(s.replies) {
		return apiclient.TxStatus{Status: apiclient.StatusPending}, nil
	}
	return s.replies[i], nil
}

func status(s string) apiclient.TxStatus { return apiclient.TxStatus{Status: s} }

func TestWait_PendingThenSuccess(t *testing.T) {
	height := uint64(42)
	api := &scriptedAPI{replies: []apiclient.TxStatus{
		status("pending"),
		status("pending"),
		{Status: "success", BlockHeight: &height},
	}}
	clock := &fakeClock{now: time.Unix(0, 0)}
	p := NewPoller(api, WithClock(clock))

	res, err := p.Wait(context.Background(), testTxID, Config{Timeout: time.Minute, Interval: 2 * time.Second})
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if res.Status != "success" || res.BlockHeight == nil || *res.BlockHeight != 42 {
		t.Errorf("Wait() = %+v", res)
	}
	if res.TxID != "0x"+testTxID {
		t.Errorf("TxID = %s", res.TxID)
	}
	if len(clock.sleeps) != 2 {
		t.Fatalf("sleeps = %v, want 2", clock.sleeps)
	}
	for _, d := range clock.sleeps {
		if d != 2*time.Second {
			t.Errorf("sleep = %s, want 2s", d)
		}
	}
	for _, id := range api.ids {
		if id != "0x"+testTxID {
			t.Errorf("queried %s", id)
		}
	}
}

func TestWait_AbortIsTerminal(t *testing.T) {
	api := &scriptedAPI{replies: []apiclient.TxStatus{status("abort_by_post_condition")}}
	clock := &fakeClock{}
	res, err := NewPoller(api, WithClock(clock)).Wait(context.Background(), "0x"+testTxID, Config{})
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if res.Status != "abort_by_post_condition" {
		t.Errorf("Status = %s", res.Status)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("sleeps = %d, want 0", len(clock.sleeps))
	}
}

func TestWait_Timeout(t *testing.T) {
	api := &scriptedAPI{}
	clock := &fakeClock{}
	p := NewPoller(api, WithClock(clock))

	_, err := p.Wait(context.Background(), testTxID, Config{Timeout: 5 * time.Second, Interval: 2 * time.Second})
	var ce *errs.ConfirmationError
	if !errors.As(err, &ce) {
		t.Fatalf("Wait() error = %v, want ConfirmationError", err)
	}
	if ce.TxID != "0x"+testTxID || ce.Timeout != 5*time.Second {
		t.Errorf("ConfirmationError = %+v", ce)
	}
	if api.calls != 3 {
		t.Errorf("calls = %d, want 3", api.calls)
	}
}

func TestWait_SwallowsFetchErrors(t *testing.T) {
	api := &scriptedAPI{
		errs:    []error{errors.New("502"), errors.New("timeout")},
		replies: []apiclient.TxStatus{{}, {}, status("success")},
	}
	clock := &fakeClock{}
	res, err := NewPoller(api, WithClock(clock)).Wait(context.Background(), testTxID, Config{Interval: time.Second})
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if res.Status != "success" || api.calls != 3 {
		t.Errorf("Status = %s after %d calls", res.Status, api.calls)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPoller(&scriptedAPI{}, WithClock(&fakeClock{})).Wait(ctx, testTxID, Config{})
	var ce *errs.ConfirmationError
	if !errors.As(err, &ce) {
		t.Fatalf("Wait() error = %v, want ConfirmationError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cause = %v, want context.Canceled", err)
	}
}

func TestWait_RealClock(t *testing.T) {
	api := &scriptedAPI{replies: []apiclient.TxStatus{status("pending"), status("success")}}
	res, err := NewPoller(api).Wait(context.Background(), testTxID, Config{Timeout: time.Second, Interval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if res.Status != "success" {
		t.Errorf("Status = %s", res.Status)
	}
}

func TestNormalizeTxID(t *testing.T) {
	tests := map[string]string{
		"ABCD":   "0xabcd",
		"0xabcd": "0xabcd",
		"0XABCD": "0xabcd",
		" abcd ": "0xabcd",
	}
	for in, want := range tests {
		if got := NormalizeTxID(in); got != want {
			t.Errorf("NormalizeTxID(%q) = %s, want %s", in, got, want)
		}
	}
}
