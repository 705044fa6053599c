package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Klingon-tech/walletsim/internal/errs"
	"github.com/Klingon-tech/walletsim/internal/session"
)

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, req *Request) (interface{}, *Error) {
	switch req.Method {
	case MethodGetWallet:
		return s.session.Wallet(), nil
	case MethodRejectNext:
		s.session.RejectNext()
		return FlagResult{RejectNext: true}, nil
	case MethodResetNonce:
		s.session.ResetNonce()
		return FlagResult{NonceReset: true}, nil
	case MethodLastTxID:
		txid, ok := s.session.LastTxID()
		return LastTxResult{TxID: txid, Found: ok}, nil
	case MethodWaitForTx:
		return s.handleWaitForTx(ctx, req)
	case MethodGetBalance:
		return s.handleGetBalance(ctx, req)
	case MethodGetNonce:
		return s.handleGetNonce(ctx, req)
	case MethodCallReadOnly:
		return s.handleCallReadOnly(ctx, req)
	case MethodGetJournal:
		return s.handleGetJournal()
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

func (s *Server) handleWaitForTx(ctx context.Context, req *Request) (interface{}, *Error) {
	var p TxIDParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.TxID) == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "txid is required"}
	}
	res, err := s.session.WaitForTx(ctx, p.TxID)
	if err != nil {
		return nil, sessionError(err)
	}
	return res, nil
}

func (s *Server) handleGetBalance(ctx context.Context, req *Request) (interface{}, *Error) {
	var p AddressParam
	if err := parseOptionalParams(req, &p); err != nil {
		return nil, err
	}
	addr := s.addressOrWallet(p.Address)
	bal, err := s.session.Balance(ctx, addr)
	if err != nil {
		return nil, sessionError(err)
	}
	return BalanceResult{Address: addr, Balance: bal.String()}, nil
}

func (s *Server) handleGetNonce(ctx context.Context, req *Request) (interface{}, *Error) {
	var p AddressParam
	if err := parseOptionalParams(req, &p); err != nil {
		return nil, err
	}
	addr := s.addressOrWallet(p.Address)
	n, err := s.session.Nonce(ctx, addr)
	if err != nil {
		return nil, sessionError(err)
	}
	return NonceResult{Address: addr, Nonce: n}, nil
}

func (s *Server) addressOrWallet(addr string) string {
	if addr == "" {
		return s.session.Wallet().Address
	}
	return addr
}

func (s *Server) handleCallReadOnly(ctx context.Context, req *Request) (interface{}, *Error) {
	var p ReadOnlyParam
	if err := parseParams(req, &p); err != nil {
		return nil, err
	}
	call := p.ReadOnlyCall
	if p.TimeoutMs > 0 {
		call.Timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}
	res, err := s.session.CallReadOnly(ctx, call)
	if err != nil {
		return nil, sessionError(err)
	}
	return res, nil
}

func (s *Server) handleGetJournal() (interface{}, *Error) {
	entries, err := s.session.Journal()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return JournalResult{Entries: entries}, nil
}

// sessionError maps session failures to JSON-RPC errors.
func sessionError(err error) *Error {
	var (
		confirmErr  *errs.ConfirmationError
		readOnlyErr *session.ReadOnlyError
		netErr      *errs.NetworkError
	)
	switch {
	case errors.As(err, &confirmErr):
		return &Error{Code: CodeNotConfirmed, Message: err.Error(), Data: map[string]string{"txid": confirmErr.TxID}}
	case errors.As(err, &readOnlyErr):
		return &Error{Code: CodeReadOnlyFailed, Message: err.Error(), Data: map[string]string{"cause": readOnlyErr.Cause}}
	case errors.As(err, &netErr):
		return &Error{Code: CodeLedgerError, Message: err.Error(), Data: LedgerErrorData{StatusCode: netErr.StatusCode, URL: netErr.URL}}
	default:
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
}
