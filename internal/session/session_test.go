package session

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/walletsim/config"
	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/internal/journal"
	"github.com/Klingon-tech/walletsim/internal/ledgertest"
	"github.com/Klingon-tech/walletsim/internal/storage"
	"github.com/Klingon-tech/walletsim/pkg/clarity"
)

const (
	testKey       = "753b7cc01a1a2e86221266a154af739463fce51219d97e4f856cd7200c3bd2a601"
	testAddress   = "SP1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRCBGD7R"
	testRecipient = "ST2ST2H80NP5C9SPR4ENJ1Z9CDM9PKAJVPYWPQZ50"
)

// fakeClock advances on every Sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps++
	c.now = c.now.Add(d)
	return ctx.Err()
}

// newTestSession points a session at a fake ledger. A custom URL network
// is mainnet-tagged, so the wallet address is the SP form.
func newTestSession(t *testing.T, opts config.Options, sopts ...Option) (*Session, *ledgertest.Server) {
	t.Helper()
	ledger := ledgertest.New(t)
	opts.PrivateKey = testKey
	opts.Network = ledger.URL
	s, err := New(opts, sopts...)
	require.NoError(t, err)
	return s, ledger
}

func TestNew_ConfigurationError(t *testing.T) {
	_, err := New(config.Options{PrivateKey: testKey})
	var ce *errs.ConfigurationError
	require.True(t, errors.As(err, &ce), "want ConfigurationError, got %v", err)
}

func TestWallet(t *testing.T) {
	s, ledger := newTestSession(t, config.Options{})
	w := s.Wallet()
	assert.Equal(t, testAddress, w.Address)
	assert.Equal(t, "custom", w.Network)
	assert.Equal(t, ledger.URL, w.APIBaseURL)
	assert.False(t, w.RejectNext)
	assert.Empty(t, w.LastTxID)

	s.RejectNext()
	assert.True(t, s.Wallet().RejectNext)
}

func TestBalanceAndNonce(t *testing.T) {
	s, ledger := newTestSession(t, config.Options{})
	ledger.SetBalance("0x0000000000000000000000000000c350")
	ledger.SetNonce(4)

	bal, err := s.Balance(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), bal.Int64())

	n, err := s.Nonce(context.Background(), testRecipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)

	_, cached := s.Handler().CachedNonce()
	assert.False(t, cached, "Nonce must not prime the wallet nonce")
}

func TestTransferThenWait(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s, ledger := newTestSession(t, config.Options{PollInterval: time.Second}, WithClock(clock))

	out := s.HandleRequest(context.Background(), `{"method":"stx_transferStx","params":{"recipient":"`+testRecipient+`","amount":"100"}}`)
	require.Contains(t, out, `"txid"`)
	txid, ok := s.LastTxID()
	require.True(t, ok)
	assert.Equal(t, txid, s.Wallet().LastTxID)

	ledger.SetStatuses(txid, "pending", "pending", "success")
	res, err := s.WaitForTx(context.Background(), txid)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "0x"+txid, res.TxID)
	require.NotNil(t, res.BlockHeight)
	assert.Equal(t, uint64(42), *res.BlockHeight)
	assert.Equal(t, 2, clock.sleeps)
}

func TestWaitForTx_Timeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s, ledger := newTestSession(t, config.Options{
		ConfirmTimeout: 5 * time.Second,
		PollInterval:   2 * time.Second,
	}, WithClock(clock))
	const txid = "ab00000000000000000000000000000000000000000000000000000000000001"
	ledger.SetStatuses(txid, "pending")

	_, err := s.WaitForTx(context.Background(), txid)
	var ce *errs.ConfirmationError
	require.True(t, errors.As(err, &ce), "want ConfirmationError, got %v", err)
	assert.Equal(t, "0x"+txid, ce.TxID)
	assert.Equal(t, 5*time.Second, ce.Timeout)
	assert.Equal(t, 3, ledger.StatusCalls())
}

func TestResetNonce(t *testing.T) {
	s, ledger := newTestSession(t, config.Options{})
	s.HandleRequest(context.Background(), `{"method":"stx_transferStx","params":{"recipient":"`+testRecipient+`","amount":"1"}}`)
	_, cached := s.Handler().CachedNonce()
	require.True(t, cached)
	s.ResetNonce()
	_, cached = s.Handler().CachedNonce()
	assert.False(t, cached)
	assert.Len(t, ledger.Broadcasts(), 1)
}

func TestCallReadOnly(t *testing.T) {
	s, ledger := newTestSession(t, config.Options{})
	ok := append([]byte{clarity.TypeResponseOk}, clarity.UInt(7)...)
	ledger.SetReadOnly(testAddress+".counter", "get-count", apiclient.ReadOnlyResult{
		Okay:   true,
		Result: "0x" + hex.EncodeToString(ok),
	})

	arg := hex.EncodeToString(clarity.UInt(1))
	tests := []struct {
		name string
		call ReadOnlyCall
	}{
		{"contract id", ReadOnlyCall{Contract: testAddress + ".counter", FunctionName: "get-count", FunctionArgs: []string{arg}}},
		{"split", ReadOnlyCall{ContractAddress: testAddress, ContractName: "counter", FunctionName: "get-count", Timeout: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.CallReadOnly(context.Background(), tt.call)
			require.NoError(t, err)
			assert.Equal(t, "(ok u7)", res.Repr)
			assert.Equal(t, "0x"+hex.EncodeToString(ok), res.Result)
		})
	}

	calls := ledger.ReadOnlyCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, testAddress, calls[0].Sender, "sender defaults to the wallet")
	assert.Equal(t, []string{"0x" + arg}, calls[0].Arguments)
	assert.Equal(t, "/v2/contracts/call-read/"+testAddress+"/counter/get-count", calls[0].Path)
}

func TestCallReadOnly_Sender(t *testing.T) {
	s, ledger := newTestSession(t, config.Options{})
	ledger.SetReadOnly(testAddress+".c", "f", apiclient.ReadOnlyResult{Okay: true, Result: hex.EncodeToString(clarity.Bool(true))})
	res, err := s.CallReadOnly(context.Background(), ReadOnlyCall{Contract: testAddress + ".c", FunctionName: "f", SenderAddress: testRecipient})
	require.NoError(t, err)
	assert.Equal(t, "true", res.Repr)
	assert.Equal(t, testRecipient, ledger.ReadOnlyCalls()[0].Sender)
}

func TestCallReadOnly_Errors(t *testing.T) {
	s, ledger := newTestSession(t, config.Options{})

	_, err := s.CallReadOnly(context.Background(), ReadOnlyCall{Contract: testAddress + ".missing", FunctionName: "f"})
	var re *ReadOnlyError
	require.True(t, errors.As(err, &re), "want ReadOnlyError, got %v", err)
	assert.Contains(t, re.Cause, "NoSuchContract")

	for name, call := range map[string]ReadOnlyCall{
		"no contract": {FunctionName: "f"},
		"no function": {Contract: testAddress + ".c"},
		"bad arg":     {Contract: testAddress + ".c", FunctionName: "f", FunctionArgs: []string{"zz"}},
		"bad id":      {Contract: "nope.c", FunctionName: "f"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.CallReadOnly(context.Background(), call)
			assert.Error(t, err)
		})
	}
	assert.Len(t, ledger.ReadOnlyCalls(), 1)
}

func TestJournal(t *testing.T) {
	s, _ := newTestSession(t, config.Options{})
	entries, err := s.Journal()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)

	j, err := journal.Open(storage.NewMemory(), "custom")
	require.NoError(t, err)
	s, _ = newTestSession(t, config.Options{}, WithJournal(j))
	s.HandleRequest(context.Background(), `{"method":"stx_transferStx","params":{"recipient":"`+testRecipient+`","amount":"5"}}`)
	entries, err = s.Journal()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(5), entries[0].Amount)
}
