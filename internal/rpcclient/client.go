// Package rpcclient provides a JSON-RPC 2.0 client for walletsimd.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Klingon-tech/walletsim/internal/confirmation"
	"github.com/Klingon-tech/walletsim/internal/rpc"
	"github.com/Klingon-tech/walletsim/internal/session"
)

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
// session_waitForTx holds the request open until confirmation, so
// callers waiting on transactions need a timeout above the daemon's
// confirmation timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	data, err := c.post(ctx, c.endpoint+"/", "application/json", body)
	if err != nil {
		return err
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}

// Wallet returns the session summary.
func (c *Client) Wallet(ctx context.Context) (session.WalletInfo, error) {
	var w session.WalletInfo
	err := c.Call(ctx, rpc.MethodGetWallet, nil, &w)
	return w, err
}

// RejectNext makes the next signing request fail with a user rejection.
func (c *Client) RejectNext(ctx context.Context) error {
	return c.Call(ctx, rpc.MethodRejectNext, nil, nil)
}

// ResetNonce drops the cached nonce.
func (c *Client) ResetNonce(ctx context.Context) error {
	return c.Call(ctx, rpc.MethodResetNonce, nil, nil)
}

// LastTxID returns the id of the last broadcast transaction.
func (c *Client) LastTxID(ctx context.Context) (string, bool, error) {
	var res rpc.LastTxResult
	if err := c.Call(ctx, rpc.MethodLastTxID, nil, &res); err != nil {
		return "", false, err
	}
	return res.TxID, res.Found, nil
}

// WaitForTx blocks until txid leaves the pending state on the ledger.
func (c *Client) WaitForTx(ctx context.Context, txid string) (confirmation.Result, error) {
	var res confirmation.Result
	err := c.Call(ctx, rpc.MethodWaitForTx, rpc.TxIDParam{TxID: txid}, &res)
	return res, err
}

// Balance returns the STX balance of address, or the wallet's when empty.
func (c *Client) Balance(ctx context.Context, address string) (rpc.BalanceResult, error) {
	var res rpc.BalanceResult
	err := c.Call(ctx, rpc.MethodGetBalance, rpc.AddressParam{Address: address}, &res)
	return res, err
}

// Nonce returns the ledger nonce of address, or the wallet's when empty.
func (c *Client) Nonce(ctx context.Context, address string) (rpc.NonceResult, error) {
	var res rpc.NonceResult
	err := c.Call(ctx, rpc.MethodGetNonce, rpc.AddressParam{Address: address}, &res)
	return res, err
}

// CallReadOnly evaluates a read-only contract function.
func (c *Client) CallReadOnly(ctx context.Context, call rpc.ReadOnlyParam) (session.ReadOnlyResult, error) {
	var res session.ReadOnlyResult
	err := c.Call(ctx, rpc.MethodCallReadOnly, call, &res)
	return res, err
}

// Journal lists broadcast transactions.
func (c *Client) Journal(ctx context.Context) (rpc.JournalResult, error) {
	var res rpc.JournalResult
	err := c.Call(ctx, rpc.MethodGetJournal, nil, &res)
	return res, err
}

// Bridge posts a wallet request envelope and returns the reply envelope.
func (c *Client) Bridge(ctx context.Context, envelope string) (string, error) {
	data, err := c.post(ctx, c.endpoint+rpc.BridgePath, "text/plain", []byte(envelope))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ProviderScript fetches the injection script served by the daemon.
func (c *Client) ProviderScript(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+rpc.ScriptPath, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}
	return string(data), nil
}
