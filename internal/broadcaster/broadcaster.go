// Package broadcaster submits signed transactions and normalizes the
// node's reply.
package broadcaster

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/internal/errs"
	klog "github.com/Klingon-tech/walletsim/internal/log"
)

// Poster is the subset of the ledger client used to submit transactions.
type Poster interface {
	PostTransaction(ctx context.Context, raw []byte) (apiclient.BroadcastResponse, error)
}

// Signed is a serializable signed transaction.
type Signed interface {
	Serialize() []byte
	TxID() string
}

// Result is a successful broadcast.
type Result struct {
	TxID string `json:"txid"`
}

// Broadcaster submits transactions. It never retries.
type Broadcaster struct {
	api Poster
}

// New creates a Broadcaster.
func New(api Poster) *Broadcaster {
	return &Broadcaster{api: api}
}

// Broadcast submits t once. Node rejections and unrecognized replies
// return *errs.BroadcastError; transport failures return *errs.NetworkError.
func (b *Broadcaster) Broadcast(ctx context.Context, t Signed) (Result, error) {
	resp, err := b.api.PostTransaction(ctx, t.Serialize())
	if err != nil {
		return Result{}, err
	}
	txid, ok := Normalize(resp.Body)
	if !ok || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		klog.Broadcast.Warn().Int("status", resp.StatusCode).RawJSON("response", resp.Body).Msg("broadcast rejected")
		return Result{}, &errs.BroadcastError{Reason: string(resp.Body)}
	}
	if local := t.TxID(); local != txid {
		klog.Broadcast.Warn().Str("node", txid).Str("local", local).Msg("node txid differs from local txid")
	}
	return Result{TxID: txid}, nil
}

// Normalize extracts the txid from a broadcast reply: either a bare JSON
// string or an object with a "txid" field and no "error" field. The id is
// returned lowercase without a 0x prefix.
func Normalize(body json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return parseTxID(s)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", false
	}
	if _, rejected := obj["error"]; rejected {
		return "", false
	}
	raw, ok := obj["txid"]
	if !ok {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return parseTxID(s)
}

func parseTxID(s string) (string, bool) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if len(s) != 64 {
		return "", false
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", false
	}
	return s, true
}
