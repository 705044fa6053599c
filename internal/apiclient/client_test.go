package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/pkg/types"
)

const testAddr = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", WithTimeout(2*time.Second))
}

func TestAccountInfo(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/accounts/"+testAddr, r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("proof"))
		w.Write([]byte(`{"balance":"0x000000000000000000000000000003e8","locked":"0x0","nonce":7}`))
	})

	info, err := c.AccountInfo(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), info.Balance.Int64())
	assert.Equal(t, uint64(7), info.Nonce)
}

func TestAccountInfo_DecimalBalance(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"balance":"250","nonce":0}`))
	})
	info, err := c.AccountInfo(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(250), info.Balance.Int64())
}

func TestAccountInfo_HTTPError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.AccountInfo(context.Background(), testAddr)
	var ne *errs.NetworkError
	require.True(t, errors.As(err, &ne), "want NetworkError, got %v", err)
	assert.Equal(t, http.StatusInternalServerError, ne.StatusCode)
	assert.Contains(t, ne.Body, "boom")
}

func TestTransactionStatus(t *testing.T) {
	txid := "0x7d4c4f3b9e0a1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f708192a3b4c5d6e7f809"
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extended/v1/tx/"+txid, r.URL.Path)
		w.Write([]byte(`{"tx_id":"` + txid + `","tx_status":"success","tx_type":"token_transfer","block_height":12}`))
	})
	st, err := c.TransactionStatus(context.Background(), txid)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st.Status)
	require.NotNil(t, st.BlockHeight)
	assert.Equal(t, uint64(12), *st.BlockHeight)
}

func TestTransactionStatus_NotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"could not find transaction by ID"}`))
	})
	_, err := c.TransactionStatus(context.Background(), "0x01")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestTransferFeeRate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want uint64
	}{
		{"bare number", `1`, 1},
		{"object", `{"fee_rate":3}`, 3},
		{"fractional rounds up", `2.2`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/fees/transfer", r.URL.Path)
				w.Write([]byte(tt.body))
			})
			got, err := c.TransferFeeRate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransferFeeRate_Garbage(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other":1}`))
	})
	_, err := c.TransferFeeRate(context.Background())
	require.Error(t, err)
}

func TestTransactionFeeEstimate(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/fees/transaction", r.URL.Path)
		var req feeEstimateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0203", req.TransactionPayload, "payload is sent as bare hex")
		assert.Equal(t, 180, req.EstimatedLen)
		w.Write([]byte(`{"estimations":[{"fee_rate":1.5,"fee":1000},{"fee_rate":2,"fee":2000},{"fee_rate":3,"fee":3000}]}`))
	})

	tiers, err := c.TransactionFeeEstimate(context.Background(), "0203", 180)
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.Equal(t, uint64(2000), tiers[1].Fee)

	_, err = c.TransactionFeeEstimate(context.Background(), "0x0203", 180)
	require.NoError(t, err, "a 0x prefix on the input is stripped")
}

func TestPostTransaction(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/transactions", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{0x00, 0x01}, body)
		w.Write([]byte(`"0xdeadbeef"`))
	})
	resp, err := c.PostTransaction(context.Background(), []byte{0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"0xdeadbeef"`, string(resp.Body))
}

func TestPostTransaction_PlainText(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("deadbeef\n"))
	})
	resp, err := c.PostTransaction(context.Background(), []byte{0x00})
	require.NoError(t, err)
	assert.JSONEq(t, `"deadbeef"`, string(resp.Body))
}

func TestPostTransaction_Rejection(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"transaction rejected","reason":"BadNonce","txid":"abcd"}`))
	})
	resp, err := c.PostTransaction(context.Background(), []byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "BadNonce")
}

func TestPostTransaction_ServerErrorText(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	_, err := c.PostTransaction(context.Background(), []byte{0x00})
	var ne *errs.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusBadGateway, ne.StatusCode)
}

func TestCallReadOnly(t *testing.T) {
	contract, err := types.ParseContractID(testAddr + ".counter")
	require.NoError(t, err)

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/contracts/call-read/"+testAddr+"/counter/get-count", r.URL.Path)
		var req readOnlyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testAddr, req.Sender)
		assert.Equal(t, []string{"0x0100000000000000000000000000000001"}, req.Arguments)
		w.Write([]byte(`{"okay":true,"result":"0x0100000000000000000000000000000005"}`))
	})

	res, err := c.CallReadOnly(context.Background(), contract, "get-count", testAddr,
		[]string{"0100000000000000000000000000000001"})
	require.NoError(t, err)
	assert.True(t, res.Okay)
	assert.Equal(t, "0x0100000000000000000000000000000005", res.Result)
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	c := New(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.AccountInfo(context.Background(), testAddr)
	var ne *errs.NetworkError
	require.True(t, errors.As(err, &ne), "want NetworkError, got %v", err)
	assert.Zero(t, ne.StatusCode)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWithCallTimeout(t *testing.T) {
	c := New("http://example.invalid", WithTimeout(time.Second))
	d := c.WithCallTimeout(0)
	assert.Equal(t, time.Second, c.timeout)
	assert.Zero(t, d.timeout)
	assert.Equal(t, "http://example.invalid", d.BaseURL())
}
