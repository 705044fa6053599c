// Package ledgertest runs an in-memory Stacks ledger API for tests.
package ledgertest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Klingon-tech/walletsim/internal/apiclient"
	"github.com/Klingon-tech/walletsim/pkg/tx"
)

// EstimateRequest is a recorded POST /v2/fees/transaction body.
type EstimateRequest struct {
	TransactionPayload string `json:"transaction_payload"`
	EstimatedLen       int    `json:"estimated_len"`
}

// ReadOnlyRequest is a recorded read-only call.
type ReadOnlyRequest struct {
	Path      string
	Sender    string   `json:"sender"`
	Arguments []string `json:"arguments"`
}

// Server is a fake ledger. The zero configuration reports nonce 0, a
// transfer fee of 180 and three fee tiers, accepts every broadcast and
// reports every transaction as successful.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	nonce        uint64
	balance      string
	transferFee  string
	estimations  []apiclient.FeeEstimation
	reject       string
	statuses     map[string][]string
	readOnly     map[string]apiclient.ReadOnlyResult
	broadcasts   [][]byte
	estimates    []EstimateRequest
	readOnlyReqs []ReadOnlyRequest
	accountCalls int
	statusCalls  int
}

// New starts a server closed at the end of the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		balance:     "0x00000000000000000000000005f5e100",
		transferFee: "180",
		estimations: []apiclient.FeeEstimation{
			{FeeRate: 1, Fee: 1000},
			{FeeRate: 2, Fee: 2500},
			{FeeRate: 3, Fee: 4000},
		},
		statuses: make(map[string][]string),
		readOnly: make(map[string]apiclient.ReadOnlyResult),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/accounts/{address}", s.handleAccount)
	mux.HandleFunc("GET /v2/fees/transfer", s.handleTransferFee)
	mux.HandleFunc("POST /v2/fees/transaction", s.handleEstimate)
	mux.HandleFunc("POST /v2/transactions", s.handleBroadcast)
	mux.HandleFunc("GET /extended/v1/tx/{txid}", s.handleStatus)
	mux.HandleFunc("POST /v2/contracts/call-read/{address}/{name}/{function}", s.handleReadOnly)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Client returns an API client for the server.
func (s *Server) Client(opts ...apiclient.Option) *apiclient.Client {
	return apiclient.New(s.URL, opts...)
}

// SetNonce sets the account nonce reported for every address.
func (s *Server) SetNonce(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce = n
}

// SetBalance sets the account balance, hex or decimal.
func (s *Server) SetBalance(b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = b
}

// SetTransferFee sets the raw JSON body of GET /v2/fees/transfer.
func (s *Server) SetTransferFee(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transferFee = raw
}

// SetEstimations sets the fee tiers.
func (s *Server) SetEstimations(e ...apiclient.FeeEstimation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimations = e
}

// RejectBroadcasts makes broadcasts fail with reason. Empty accepts them.
func (s *Server) RejectBroadcasts(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = reason
}

// SetStatuses queues the statuses reported for txid. The last one repeats.
func (s *Server) SetStatuses(txid string, statuses ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[normalize(txid)] = statuses
}

// SetReadOnly sets the reply for contract ("ADDR.name") and function.
func (s *Server) SetReadOnly(contract, function string, res apiclient.ReadOnlyResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly[contract+"/"+function] = res
}

// Broadcasts returns the raw transactions received.
func (s *Server) Broadcasts() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.broadcasts...)
}

// Estimates returns the fee estimate requests received.
func (s *Server) Estimates() []EstimateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EstimateRequest(nil), s.estimates...)
}

// ReadOnlyCalls returns the read-only requests received.
func (s *Server) ReadOnlyCalls() []ReadOnlyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReadOnlyRequest(nil), s.readOnlyReqs...)
}

// AccountCalls returns how many account lookups were served.
func (s *Server) AccountCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountCalls
}

// StatusCalls returns how many status lookups were served.
func (s *Server) StatusCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountCalls++
	writeJSON(w, http.StatusOK, map[string]any{"balance": s.balance, "locked": "0x0", "nonce": s.nonce})
}

func (s *Server) handleTransferFee(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, s.transferFee)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimates = append(s.estimates, req)
	writeJSON(w, http.StatusOK, map[string]any{
		"estimated_cost_scalar": 1,
		"estimations":           s.estimations,
	})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject != "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "transaction rejected",
			"reason": s.reject,
			"txid":   tx.TxIDFromBytes(raw),
		})
		return
	}
	s.broadcasts = append(s.broadcasts, raw)
	writeJSON(w, http.StatusOK, tx.TxIDFromBytes(raw))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	txid := normalize(r.PathValue("txid"))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	status := "success"
	if q, ok := s.statuses[txid]; ok {
		if len(q) == 0 {
			http.Error(w, `{"error":"could not find transaction"}`, http.StatusNotFound)
			return
		}
		status = q[0]
		if len(q) > 1 {
			s.statuses[txid] = q[1:]
		}
	}
	resp := map[string]any{"tx_id": "0x" + txid, "tx_status": status, "tx_type": "token_transfer"}
	if status != "pending" {
		resp["block_height"] = 42
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReadOnly(w http.ResponseWriter, r *http.Request) {
	req := ReadOnlyRequest{Path: r.URL.Path}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	key := fmt.Sprintf("%s.%s/%s", r.PathValue("address"), r.PathValue("name"), r.PathValue("function"))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnlyReqs = append(s.readOnlyReqs, req)
	res, ok := s.readOnly[key]
	if !ok {
		res = apiclient.ReadOnlyResult{Okay: false, Cause: "Unchecked(NoSuchContract(\"" + key + "\"))"}
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func normalize(txid string) string {
	return strings.ToLower(strings.TrimPrefix(txid, "0x"))
}
