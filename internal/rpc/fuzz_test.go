package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Klingon-tech/walletsim/config"
	"github.com/Klingon-tech/walletsim/internal/ledgertest"
	klog "github.com/Klingon-tech/walletsim/internal/log"
	"github.com/Klingon-tech/walletsim/internal/session"
)

// fuzzHandler builds an unstarted server and returns its handler.
func fuzzHandler(f *testing.F) http.Handler {
	f.Helper()
	klog.Init("error", false, "")
	ledger := ledgertest.New(f)
	sess, err := session.New(config.Options{
		PrivateKey:     testKey,
		Network:        ledger.URL,
		ConfirmTimeout: 50 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	})
	if err != nil {
		f.Fatalf("new session: %v", err)
	}
	return New("127.0.0.1:0", sess).Handler()
}

func post(h http.Handler, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// FuzzControlRequest checks that any body sent to the control endpoint
// gets a well-formed JSON-RPC reply.
func FuzzControlRequest(f *testing.F) {
	f.Add([]byte(`{"jsonrpc":"2.0","method":"session_getWallet","id":1}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"session_lastTxId","id":"x"}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"session_getNonce","params":[1,2,3],"id":999}`))
	f.Add([]byte(`{"jsonrpc":"2.0","method":"session_callReadOnly","params":{"contract":1}}`))
	f.Add([]byte(`{"jsonrpc":"1.0","method":"session_rejectNext"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`[`))

	h := fuzzHandler(f)
	f.Fuzz(func(t *testing.T, body []byte) {
		rec := post(h, "/", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp Response
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("reply is not JSON: %v", err)
		}
		if resp.JSONRPC != "2.0" {
			t.Fatalf("jsonrpc = %q", resp.JSONRPC)
		}
	})
}

// FuzzBridgeEnvelope checks that every envelope gets back exactly one
// of result or error.
func FuzzBridgeEnvelope(f *testing.F) {
	f.Add([]byte(`{"id":1,"method":"getAddresses"}`))
	f.Add([]byte(`{"id":"a","method":"stx_signMessage","params":{"message":"hi"}}`))
	f.Add([]byte(`{"method":"stx_transferStx","params":{"recipient":"nope","amount":"x"}}`))
	f.Add([]byte(`{"method":"stx_callContract","params":{"contract":"SP000000000000000000002Q6VF78.pox"}}`))
	f.Add([]byte(`{"method":"stx_signStructuredMessage","params":{"domain":"0c","message":"01"}}`))
	f.Add([]byte(`{"method":""}`))
	f.Add([]byte(`"just a string"`))

	h := fuzzHandler(f)
	f.Fuzz(func(t *testing.T, body []byte) {
		rec := post(h, "/bridge", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var env map[string]json.RawMessage
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("reply is not a JSON object: %v", err)
		}
		_, hasResult := env["result"]
		_, hasError := env["error"]
		if hasResult == hasError {
			t.Fatalf("reply %s must carry exactly one of result or error", rec.Body.Bytes())
		}
	})
}
