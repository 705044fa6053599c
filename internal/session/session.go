// Package session bundles one simulated wallet with the helpers an
// end-to-end test needs around it: confirmation waits, balance and nonce
// lookups and read-only contract calls.
package session

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/Klingon-tech/walletsim/config"
	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/internal/confirmation"
	"github.com/Klingon-tech/walletsim/internal/journal"
	klog "github.com/Klingon-tech/walletsim/internal/log"
	"github.com/Klingon-tech/walletsim/internal/provider"
	"github.com/Klingon-tech/walletsim/pkg/clarity"
	"github.com/Klingon-tech/walletsim/pkg/types"
)

// Session is one wallet and its ledger client.
type Session struct {
	cfg     *config.Resolved
	api     *apiclient.Client
	handler *provider.Handler
	poller  *confirmation.Poller
	journal *journal.Journal
}

type settings struct {
	httpClient *http.Client
	clock      confirmation.Clock
	journal    *journal.Journal
}

// Option configures a Session.
type Option func(*settings)

// WithHTTPClient sets the HTTP client used for ledger calls.
func WithHTTPClient(h *http.Client) Option {
	return func(s *settings) { s.httpClient = h }
}

// WithClock replaces the clock the confirmation poller sleeps on.
func WithClock(c confirmation.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithJournal records broadcasts in j.
func WithJournal(j *journal.Journal) Option {
	return func(s *settings) { s.journal = j }
}

// New resolves opts and creates a session.
func New(opts config.Options, sopts ...Option) (*Session, error) {
	cfg, err := config.Resolve(opts)
	if err != nil {
		return nil, err
	}
	return NewResolved(cfg, sopts...)
}

// NewResolved creates a session from an already resolved configuration.
func NewResolved(cfg *config.Resolved, sopts ...Option) (*Session, error) {
	var st settings
	for _, o := range sopts {
		o(&st)
	}

	apiOpts := []apiclient.Option{apiclient.WithTimeout(cfg.RequestTimeout)}
	if st.httpClient != nil {
		apiOpts = append(apiOpts, apiclient.WithHTTPClient(st.httpClient))
	}
	api := apiclient.New(cfg.Network.APIBaseURL, apiOpts...)

	hopts := []provider.Option{provider.WithLedger(api)}
	if st.journal != nil {
		hopts = append(hopts, provider.WithJournal(st.journal))
	}
	h, err := provider.New(cfg, hopts...)
	if err != nil {
		return nil, err
	}

	var popts []confirmation.Option
	if st.clock != nil {
		popts = append(popts, confirmation.WithClock(st.clock))
	}

	klog.Wallet.Info().
		Str("address", cfg.Identity.Address).
		Str("network", cfg.Network.Name).
		Str("api", cfg.Network.APIBaseURL).
		Msg("wallet session ready")

	return &Session{
		cfg:     cfg,
		api:     api,
		handler: h,
		poller:  confirmation.NewPoller(api, popts...),
		journal: st.journal,
	}, nil
}

// Handler returns the wallet dispatcher.
func (s *Session) Handler() *provider.Handler { return s.handler }

// Config returns the resolved configuration.
func (s *Session) Config() *config.Resolved { return s.cfg }

// WalletInfo describes the session wallet.
type WalletInfo struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	Network    string `json:"network"`
	APIBaseURL string `json:"apiBaseUrl"`
	RejectNext bool   `json:"rejectNext"`
	LastTxID   string `json:"lastTxId,omitempty"`
}

// Wallet returns the wallet identity and its current flags.
func (s *Session) Wallet() WalletInfo {
	last, _ := s.handler.LastTxID()
	return WalletInfo{
		Address:    s.cfg.Identity.Address,
		PublicKey:  s.cfg.Identity.PublicKey,
		Network:    s.cfg.Network.Name,
		APIBaseURL: s.cfg.Network.APIBaseURL,
		RejectNext: s.handler.RejectPending(),
		LastTxID:   last,
	}
}

// RejectNext makes the next wallet action fail with code 4001.
func (s *Session) RejectNext() { s.handler.RejectNext() }

// ResetNonce drops the cached nonce.
func (s *Session) ResetNonce() { s.handler.ResetNonce() }

// LastTxID returns the last broadcast txid.
func (s *Session) LastTxID() (string, bool) { return s.handler.LastTxID() }

// HandleRequest forwards a bridge envelope to the wallet.
func (s *Session) HandleRequest(ctx context.Context, requestJSON string) string {
	return s.handler.HandleRequest(ctx, requestJSON)
}

// Install registers the wallet on a browser page.
func (s *Session) Install(ctx context.Context, page provider.Page) error {
	return s.handler.Install(ctx, page)
}

// WaitForTx polls txid until it leaves the pending state or the
// configured timeout elapses.
func (s *Session) WaitForTx(ctx context.Context, txid string) (confirmation.Result, error) {
	return s.poller.Wait(ctx, txid, s.cfg.Confirmation)
}

// Balance returns the spendable micro-STX balance of address, or of the
// wallet when address is empty.
func (s *Session) Balance(ctx context.Context, address string) (*big.Int, error) {
	info, err := s.api.AccountInfo(ctx, s.addressOrSelf(address))
	if err != nil {
		return nil, err
	}
	return info.Balance, nil
}

// Nonce returns the chain nonce of address, or of the wallet when address
// is empty. It does not touch the wallet's cached nonce.
func (s *Session) Nonce(ctx context.Context, address string) (uint64, error) {
	info, err := s.api.AccountInfo(ctx, s.addressOrSelf(address))
	if err != nil {
		return 0, err
	}
	return info.Nonce, nil
}

func (s *Session) addressOrSelf(address string) string {
	if address == "" {
		return s.cfg.Identity.Address
	}
	return address
}

// Journal returns the recorded broadcasts, oldest first. It is empty
// when no journal is attached.
func (s *Session) Journal() ([]journal.Entry, error) {
	if s.journal == nil {
		return []journal.Entry{}, nil
	}
	entries, err := s.journal.List()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	return entries, nil
}

// ReadOnlyCall describes a read-only contract function call. The
// contract is either Contract ("ADDR.name") or ContractAddress and
// ContractName.
type ReadOnlyCall struct {
	Contract        string   `json:"contract,omitempty"`
	ContractAddress string   `json:"contractAddress,omitempty"`
	ContractName    string   `json:"contractName,omitempty"`
	FunctionName    string   `json:"functionName"`
	FunctionArgs    []string `json:"functionArgs,omitempty"`
	// SenderAddress defaults to the wallet address.
	SenderAddress string `json:"senderAddress,omitempty"`
	// Timeout bounds the call in addition to the request timeout.
	Timeout time.Duration `json:"-"`
}

// ReadOnlyResult is a successful read-only call.
type ReadOnlyResult struct {
	// Result is the 0x-prefixed serialized Clarity value.
	Result string `json:"result"`
	// Repr is the value in Clarity literal syntax.
	Repr string `json:"repr"`
}

// ReadOnlyError is returned when the node reports okay=false.
type ReadOnlyError struct {
	Contract string
	Function string
	Cause    string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("read-only call %s::%s failed: %s", e.Contract, e.Function, e.Cause)
}

func (c ReadOnlyCall) contractID() (types.ContractID, error) {
	id := c.Contract
	if id == "" {
		id = c.ContractAddress + "." + c.ContractName
	}
	if id == "." {
		return types.ContractID{}, fmt.Errorf("contract is required, as contract or contractAddress and contractName")
	}
	return types.ParseContractID(id)
}

// CallReadOnly calls a read-only function and decodes its result.
func (s *Session) CallReadOnly(ctx context.Context, call ReadOnlyCall) (ReadOnlyResult, error) {
	contract, err := call.contractID()
	if err != nil {
		return ReadOnlyResult{}, err
	}
	if call.FunctionName == "" {
		return ReadOnlyResult{}, fmt.Errorf("functionName is required")
	}
	for i, a := range call.FunctionArgs {
		if _, err := clarity.DecodeHex(a); err != nil {
			return ReadOnlyResult{}, fmt.Errorf("functionArgs[%d]: %w", i, err)
		}
	}
	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	res, err := s.api.CallReadOnly(ctx, contract, call.FunctionName, s.addressOrSelf(call.SenderAddress), call.FunctionArgs)
	if err != nil {
		return ReadOnlyResult{}, err
	}
	if !res.Okay {
		return ReadOnlyResult{}, &ReadOnlyError{Contract: contract.String(), Function: call.FunctionName, Cause: res.Cause}
	}
	value, err := clarity.DecodeHex(res.Result)
	if err != nil {
		return ReadOnlyResult{}, fmt.Errorf("decode result: %w", err)
	}
	repr, err := clarity.Repr(value)
	if err != nil {
		return ReadOnlyResult{}, fmt.Errorf("render result: %w", err)
	}
	return ReadOnlyResult{Result: "0x" + fmt.Sprintf("%x", value), Repr: repr}, nil
}
