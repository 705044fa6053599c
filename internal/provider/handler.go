// Package provider implements the simulated wallet: the request
// dispatcher behind the bridge and the script that injects a provider
// object into a page.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/walletsim/config"
	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/internal/broadcaster"
	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/internal/fees"
	"github.com/Klingon-tech/walletsim/internal/journal"
	klog "github.com/Klingon-tech/walletsim/internal/log"
	"github.com/Klingon-tech/walletsim/internal/network"
	"github.com/Klingon-tech/walletsim/internal/nonce"
	"github.com/Klingon-tech/walletsim/internal/wallet"
)

// Ledger is the subset of the API client the wallet needs.
type Ledger interface {
	fees.FeeAPI
	broadcaster.Poster
	AccountInfo(ctx context.Context, address string) (apiclient.AccountInfo, error)
}

// Handler is one simulated wallet. Requests are serialized: a request
// holds the handler for its whole duration, including network calls.
type Handler struct {
	mu sync.Mutex // serializes requests

	cfg      *config.Resolved
	identity *wallet.Identity
	ledger   Ledger
	fees     *fees.Estimator
	nonces   *nonce.Tracker
	bcast    *broadcaster.Broadcaster
	journal  *journal.Journal
	methods  methodTable
	logger   zerolog.Logger

	state      sync.Mutex // guards rejectNext and lastTxID
	rejectNext bool
	lastTxID   string
}

// Option configures a Handler.
type Option func(*Handler)

// WithLedger replaces the API client built from the network URL.
func WithLedger(l Ledger) Option {
	return func(h *Handler) { h.ledger = l }
}

// WithJournal records every successful broadcast in j.
func WithJournal(j *journal.Journal) Option {
	return func(h *Handler) { h.journal = j }
}

// New creates a wallet for a resolved configuration.
func New(cfg *config.Resolved, opts ...Option) (*Handler, error) {
	if cfg == nil || cfg.Identity == nil {
		return nil, errs.Configf("resolved configuration with an identity is required")
	}
	h := &Handler{
		cfg:      cfg,
		identity: cfg.Identity,
		logger:   klog.Provider.With().Str("address", cfg.Identity.Address).Str("network", cfg.Network.Name).Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.ledger == nil {
		h.ledger = apiclient.New(cfg.Network.APIBaseURL, apiclient.WithTimeout(cfg.RequestTimeout))
	}

	est, err := fees.NewEstimator(h.ledger, cfg.Fees)
	if err != nil {
		return nil, err
	}
	h.fees = est
	h.nonces = nonce.NewTracker(cfg.Network.Name, cfg.Identity.Address, nonce.SourceFunc(h.accountNonce))
	h.bcast = broadcaster.New(h.ledger)

	methods, err := h.newMethodTable()
	if err != nil {
		return nil, err
	}
	h.methods = methods
	return h, nil
}

func (h *Handler) accountNonce(ctx context.Context, address string) (uint64, error) {
	info, err := h.ledger.AccountInfo(ctx, address)
	if err != nil {
		return 0, err
	}
	return info.Nonce, nil
}

// HandleRequest parses a request envelope, dispatches it and returns the
// response envelope. It never fails: every error becomes an envelope.
func (h *Handler) HandleRequest(ctx context.Context, requestJSON string) string {
	resp := h.handle(ctx, requestJSON)
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(Response{ID: resp.ID, Error: &Error{Code: CodeInternalError, Message: "encode response: " + err.Error()}})
	}
	return string(out)
}

func (h *Handler) handle(ctx context.Context, requestJSON string) (resp Response) {
	var req Request
	if err := json.Unmarshal([]byte(requestJSON), &req); err != nil {
		return Response{Error: &Error{Code: CodeInternalError, Message: "invalid request: " + err.Error()}}
	}
	resp.ID = req.ID

	reqID := uuid.NewString()
	logger := h.logger.With().Str("request", reqID).Str("method", req.Method).Logger()
	logger.Debug().RawJSON("params", rawOrNull(req.Params)).Msg("wallet request")

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("wallet request panicked")
			resp.Result = nil
			resp.Error = &Error{Code: CodeInternalError, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	result, err := h.Dispatch(ctx, req.Method, req.Params)
	if err != nil {
		rpcErr := toEnvelopeError(err)
		if rpcErr.Code == errs.CodeUserRejected {
			logger.Info().Msg("wallet request rejected")
		} else {
			logger.Error().Err(err).Msg("wallet request failed")
		}
		resp.Error = rpcErr
		return resp
	}
	resp.Result = result
	return resp
}

// Dispatch runs one wallet method. Every method outside the read-only
// set is an action, unknown names included, and the first action after
// RejectNext consumes the flag.
func (h *Handler) Dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	m, ok := h.methods[method]

	h.mu.Lock()
	defer h.mu.Unlock()

	if !m.readOnly && h.consumeRejection() {
		return nil, &errs.UserRejectionError{}
	}
	if !ok {
		return nil, &Error{Code: CodeMethodNotFound, Message: "unsupported wallet method: " + method}
	}
	return m.fn(ctx, params)
}

func toEnvelopeError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var rej *errs.UserRejectionError
	if errors.As(err, &rej) {
		return &Error{Code: rej.Code(), Message: rej.Error()}
	}
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

func rawOrNull(b json.RawMessage) json.RawMessage {
	if len(b) == 0 || !json.Valid(b) {
		return json.RawMessage("null")
	}
	return b
}

func (h *Handler) consumeRejection() bool {
	h.state.Lock()
	defer h.state.Unlock()
	if !h.rejectNext {
		return false
	}
	h.rejectNext = false
	return true
}

// RejectNext makes the next action request fail with code 4001.
func (h *Handler) RejectNext() {
	h.state.Lock()
	h.rejectNext = true
	h.state.Unlock()
	h.logger.Info().Msg("next wallet action will be rejected")
}

// RejectPending reports whether the rejection flag is armed.
func (h *Handler) RejectPending() bool {
	h.state.Lock()
	defer h.state.Unlock()
	return h.rejectNext
}

// LastTxID returns the id of the last successful broadcast.
func (h *Handler) LastTxID() (string, bool) {
	h.state.Lock()
	defer h.state.Unlock()
	return h.lastTxID, h.lastTxID != ""
}

func (h *Handler) setLastTxID(txid string) {
	h.state.Lock()
	h.lastTxID = txid
	h.state.Unlock()
}

// ResetNonce drops the cached nonce; the next action refetches it.
func (h *Handler) ResetNonce() {
	h.nonces.Reset()
}

// CachedNonce returns the next nonce the wallet will use, if cached.
func (h *Handler) CachedNonce() (uint64, bool) {
	return h.nonces.Peek()
}

// Identity returns the wallet identity.
func (h *Handler) Identity() *wallet.Identity {
	return h.identity
}

// Network returns the wallet network.
func (h *Handler) Network() network.Resolved {
	return h.cfg.Network
}

// Config returns the resolved configuration.
func (h *Handler) Config() *config.Resolved {
	return h.cfg
}

// Journal returns the broadcast journal, or nil.
func (h *Handler) Journal() *journal.Journal {
	return h.journal
}
