package rpc

import (
	"encoding/json"

	"github.com/Klingon-tech/walletsim/internal/journal"
	"github.com/Klingon-tech/walletsim/internal/session"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Server-defined codes.
	CodeNotConfirmed   = -32001
	CodeReadOnlyFailed = -32002
	CodeLedgerError    = -32003
)

// Control methods.
const (
	MethodGetWallet    = "session_getWallet"
	MethodRejectNext   = "session_rejectNext"
	MethodResetNonce   = "session_resetNonce"
	MethodLastTxID     = "session_lastTxId"
	MethodWaitForTx    = "session_waitForTx"
	MethodGetBalance   = "session_getBalance"
	MethodGetNonce     = "session_getNonce"
	MethodCallReadOnly = "session_callReadOnly"
	MethodGetJournal   = "session_getJournal"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// TxIDParam is used by session_waitForTx.
type TxIDParam struct {
	TxID string `json:"txid"`
}

// AddressParam is used by session_getBalance and session_getNonce. An
// empty address means the wallet.
type AddressParam struct {
	Address string `json:"address,omitempty"`
}

// ReadOnlyParam is used by session_callReadOnly.
type ReadOnlyParam struct {
	session.ReadOnlyCall
	TimeoutMs int64 `json:"timeoutMs,omitempty"`
}

// ── Result types ────────────────────────────────────────────────────────

// FlagResult acknowledges a state change.
type FlagResult struct {
	RejectNext bool `json:"rejectNext,omitempty"`
	NonceReset bool `json:"nonceReset,omitempty"`
}

// LastTxResult is returned by session_lastTxId.
type LastTxResult struct {
	TxID  string `json:"txid,omitempty"`
	Found bool   `json:"found"`
}

// BalanceResult is returned by session_getBalance. Balance is a decimal
// micro-STX string.
type BalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// NonceResult is returned by session_getNonce.
type NonceResult struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

// JournalResult is returned by session_getJournal.
type JournalResult struct {
	Entries []journal.Entry `json:"entries"`
}

// LedgerErrorData is attached to CodeLedgerError errors.
type LedgerErrorData struct {
	StatusCode int    `json:"statusCode,omitempty"`
	URL        string `json:"url,omitempty"`
}
