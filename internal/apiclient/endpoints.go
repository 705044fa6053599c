package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"

	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/pkg/types"
)

// AccountInfo is the spendable balance and next nonce of an address.
type AccountInfo struct {
	Balance *big.Int
	Nonce   uint64
}

type accountResponse struct {
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// AccountInfo fetches GET /v2/accounts/{address}?proof=0.
func (c *Client) AccountInfo(ctx context.Context, address string) (AccountInfo, error) {
	var resp accountResponse
	if err := c.getJSON(ctx, "/v2/accounts/"+url.PathEscape(address)+"?proof=0", &resp); err != nil {
		return AccountInfo{}, err
	}
	bal, ok := new(big.Int).SetString(resp.Balance, 0)
	if !ok {
		return AccountInfo{}, fmt.Errorf("invalid balance %q", resp.Balance)
	}
	return AccountInfo{Balance: bal, Nonce: resp.Nonce}, nil
}

// TxStatus is the indexer's view of a transaction.
type TxStatus struct {
	TxID        string  `json:"tx_id"`
	Status      string  `json:"tx_status"`
	TxType      string  `json:"tx_type,omitempty"`
	BlockHeight *uint64 `json:"block_height,omitempty"`
}

// Transaction status values.
const (
	StatusPending              = "pending"
	StatusSuccess              = "success"
	StatusAbortByResponse      = "abort_by_response"
	StatusAbortByPostCondition = "abort_by_post_condition"
	StatusDroppedReplaceByFee  = "dropped_replace_by_fee"
	StatusDroppedStaleGarbage  = "dropped_stale_garbage_collect"
	StatusDroppedTooExpensive  = "dropped_too_expensive"
	StatusDroppedReplaceAcross = "dropped_replace_across_fork"
	StatusDroppedProblematic   = "dropped_problematic"
)

// TransactionStatus fetches GET /extended/v1/tx/{txid}.
func (c *Client) TransactionStatus(ctx context.Context, txid string) (TxStatus, error) {
	var resp TxStatus
	if err := c.getJSON(ctx, "/extended/v1/tx/"+url.PathEscape(txid), &resp); err != nil {
		return TxStatus{}, err
	}
	return resp, nil
}

// TransferFeeRate fetches GET /v2/fees/transfer. Nodes reply with either a
// bare number or {"fee_rate": n}.
func (c *Client) TransferFeeRate(ctx context.Context) (uint64, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/v2/fees/transfer", &raw); err != nil {
		return 0, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var obj struct {
			FeeRate json.Number `json:"fee_rate"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.FeeRate == "" {
			return 0, fmt.Errorf("unrecognized transfer fee response: %s", raw)
		}
		n = obj.FeeRate
	}
	return parseFee(n)
}

// FeeEstimation is one tier of a fee estimate.
type FeeEstimation struct {
	FeeRate float64 `json:"fee_rate"`
	Fee     uint64  `json:"fee"`
}

type feeEstimateRequest struct {
	TransactionPayload string `json:"transaction_payload"`
	EstimatedLen       int    `json:"estimated_len,omitempty"`
}

type feeEstimateResponse struct {
	Estimations []FeeEstimation `json:"estimations"`
}

// TransactionFeeEstimate posts a payload to /v2/fees/transaction and
// returns the ordered tiers (low, middle, high).
func (c *Client) TransactionFeeEstimate(ctx context.Context, payloadHex string, estimatedLen int) ([]FeeEstimation, error) {
	req := feeEstimateRequest{
		TransactionPayload: strings.TrimPrefix(payloadHex, "0x"),
		EstimatedLen:       estimatedLen,
	}
	var resp feeEstimateResponse
	if err := c.postJSON(ctx, "/v2/fees/transaction", req, &resp); err != nil {
		return nil, err
	}
	return resp.Estimations, nil
}

// BroadcastResponse is the raw reply to a transaction submission.
type BroadcastResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// PostTransaction submits raw transaction bytes to /v2/transactions.
// Node rejections come back as JSON with a non-2xx status and are returned
// as a response, not an error, so the caller can report the reason.
func (c *Client) PostTransaction(ctx context.Context, raw []byte) (BroadcastResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v2/transactions", "application/octet-stream", raw)
	if err != nil {
		return BroadcastResponse{}, err
	}
	if !json.Valid(resp.body) {
		if resp.ok() {
			// Some nodes answer with the bare txid as text.
			quoted, _ := json.Marshal(strings.TrimSpace(string(resp.body)))
			return BroadcastResponse{StatusCode: resp.status, Body: quoted}, nil
		}
		return BroadcastResponse{}, resp.networkError()
	}
	return BroadcastResponse{StatusCode: resp.status, Body: resp.body}, nil
}

// ReadOnlyResult is the reply of a read-only function call.
type ReadOnlyResult struct {
	Okay bool `json:"okay"`
	// Result is the hex-encoded Clarity value when Okay.
	Result string `json:"result,omitempty"`
	Cause  string `json:"cause,omitempty"`
}

type readOnlyRequest struct {
	Sender    string   `json:"sender"`
	Arguments []string `json:"arguments"`
}

// CallReadOnly posts to /v2/contracts/call-read/{address}/{name}/{function}.
// args are hex-encoded Clarity values.
func (c *Client) CallReadOnly(ctx context.Context, contract types.ContractID, function, sender string, args []string) (ReadOnlyResult, error) {
	path := fmt.Sprintf("/v2/contracts/call-read/%s/%s/%s",
		contract.Address.String(), url.PathEscape(contract.Name), url.PathEscape(function))
	hexArgs := make([]string, len(args))
	for i, a := range args {
		hexArgs[i] = "0x" + strings.TrimPrefix(a, "0x")
	}
	var resp ReadOnlyResult
	if err := c.postJSON(ctx, path, readOnlyRequest{Sender: sender, Arguments: hexArgs}, &resp); err != nil {
		return ReadOnlyResult{}, err
	}
	return resp, nil
}

// parseFee accepts integral or fractional numbers and rounds up.
func parseFee(n json.Number) (uint64, error) {
	r, ok := new(big.Rat).SetString(n.String())
	if !ok || r.Sign() < 0 {
		return 0, fmt.Errorf("invalid fee %q", n)
	}
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return 0, fmt.Errorf("fee %s overflows uint64", n)
	}
	return q.Uint64(), nil
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var ne *errs.NetworkError
	return errors.As(err, &ne) && ne.StatusCode == http.StatusNotFound
}
