package provider

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/walletsim/internal/fees"
	"github.com/Klingon-tech/walletsim/internal/journal"
	"github.com/Klingon-tech/walletsim/pkg/clarity"
	"github.com/Klingon-tech/walletsim/pkg/tx"
	"github.com/Klingon-tech/walletsim/pkg/types"
)

func (h *Handler) getAddresses(context.Context, json.RawMessage) (any, error) {
	pub := h.identity.PublicKey
	return AddressesResult{Addresses: []AddressInfo{
		{Address: PlaceholderBTCPayment, PublicKey: pub, Purpose: "payment", AddressType: "p2wpkh", Symbol: "BTC"},
		{Address: PlaceholderBTCOrdinals, PublicKey: pub, Purpose: "ordinals", AddressType: "p2tr", Symbol: "BTC"},
		{Address: h.identity.Address, PublicKey: pub, Purpose: "stacks", AddressType: "stacks", Symbol: "STX"},
	}}, nil
}

func (h *Handler) builder(nonce, fee uint64) *tx.Builder {
	return tx.NewBuilder(h.cfg.Network.Chain()).
		SetOrigin(h.identity.PublicKeyBytes()).
		SetNonce(nonce).
		SetFee(fee)
}

func (h *Handler) transferStx(ctx context.Context, params json.RawMessage) (any, error) {
	var p TransferParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Recipient == "" {
		return nil, errors.New("recipient is required")
	}
	if p.Amount == nil {
		return nil, errors.New("amount is required")
	}
	payload, err := tx.NewTokenTransfer(p.Recipient, uint64(*p.Amount), p.Memo)
	if err != nil {
		return nil, err
	}

	fee, err := h.fees.Transfer(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.nonces.Next(ctx)
	if err != nil {
		return nil, err
	}
	signed, err := h.builder(n, fee.Fee).SetPayload(payload).Sign(h.identity.Key())
	if err != nil {
		return nil, fmt.Errorf("sign transfer: %w", err)
	}
	res, err := h.bcast.Broadcast(ctx, signed)
	if err != nil {
		return nil, err
	}

	h.committed(res.TxID, fee, journal.Entry{
		Kind:      journal.KindTransfer,
		Nonce:     n,
		Recipient: p.Recipient,
		Amount:    uint64(*p.Amount),
	})
	return TxResult{TxID: res.TxID}, nil
}

func (h *Handler) callContract(ctx context.Context, params json.RawMessage) (any, error) {
	var p CallContractParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	p.normalize()
	if p.ContractAddress == "" || p.ContractName == "" {
		return nil, errors.New("contract is required, as contract or contractAddress and contractName")
	}
	if p.FunctionName == "" {
		return nil, errors.New("functionName is required")
	}
	contract, err := types.ParseContractID(p.ContractID())
	if err != nil {
		return nil, err
	}
	args := make([][]byte, len(p.FunctionArgs))
	for i, a := range p.FunctionArgs {
		if args[i], err = clarity.DecodeHex(a); err != nil {
			return nil, fmt.Errorf("functionArgs[%d]: %w", i, err)
		}
	}
	postConditions := make([][]byte, len(p.PostConditions))
	for i, pc := range p.PostConditions {
		if postConditions[i], err = decodeHex(pc); err != nil {
			return nil, fmt.Errorf("postConditions[%d]: %w", i, err)
		}
	}
	mode, err := tx.ParsePostConditionMode(string(p.PostConditionMode))
	if err != nil {
		return nil, err
	}
	payload, err := tx.NewContractCall(contract, p.FunctionName, args)
	if err != nil {
		return nil, err
	}

	build := func(nonce, fee uint64) *tx.Builder {
		b := h.builder(nonce, fee).SetPostConditionMode(mode).SetPayload(payload)
		for _, pc := range postConditions {
			b.AddPostCondition(pc)
		}
		return b
	}

	n, err := h.nonces.Next(ctx)
	if err != nil {
		return nil, err
	}
	draft, err := build(n, 0).Build()
	if err != nil {
		return nil, fmt.Errorf("build contract call: %w", err)
	}
	fee, err := h.fees.ContractCall(ctx, tx.PayloadHex(payload), tx.EstimatedLength(draft))
	if err != nil {
		return nil, err
	}
	signed, err := build(n, fee.Fee).Sign(h.identity.Key())
	if err != nil {
		return nil, fmt.Errorf("sign contract call: %w", err)
	}
	res, err := h.bcast.Broadcast(ctx, signed)
	if err != nil {
		return nil, err
	}

	h.committed(res.TxID, fee, journal.Entry{
		Kind:     journal.KindContractCall,
		Nonce:    n,
		Contract: contract.String(),
		Function: p.FunctionName,
	})
	return TxResult{TxID: res.TxID}, nil
}

// committed advances wallet state after a successful broadcast.
func (h *Handler) committed(txid string, fee fees.Estimated, e journal.Entry) {
	h.nonces.Increment()
	h.setLastTxID(txid)
	h.logger.Info().
		Str("txid", txid).
		Str("kind", e.Kind).
		Uint64("nonce", e.Nonce).
		Uint64("fee", fee.Fee).
		Str("fee_source", string(fee.Source)).
		Msg("transaction broadcast")

	if h.journal == nil {
		return
	}
	e.TxID = txid
	e.Fee = fee.Fee
	e.FeeSource = string(fee.Source)
	if err := h.journal.Record(e); err != nil {
		h.logger.Error().Err(err).Str("txid", txid).Msg("failed to journal broadcast")
	}
}

func (h *Handler) signMessage(_ context.Context, params json.RawMessage) (any, error) {
	var p SignMessageParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	hash := HashMessage(p.Message)
	return h.sign(hash)
}

func (h *Handler) signStructuredMessage(_ context.Context, params json.RawMessage) (any, error) {
	var p SignStructuredParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	domain, err := clarity.DecodeHex(p.Domain)
	if err != nil {
		return nil, fmt.Errorf("domain: %w", err)
	}
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	message, err := clarity.DecodeHex(p.Message)
	if err != nil {
		return nil, fmt.Errorf("message: %w", err)
	}
	return h.sign(HashStructured(domain, message))
}

func (h *Handler) sign(hash [32]byte) (SignatureResult, error) {
	sig, err := h.identity.Key().SignRSV(hash[:])
	if err != nil {
		return SignatureResult{}, err
	}
	return SignatureResult{Signature: hex.EncodeToString(sig), PublicKey: h.identity.PublicKey}, nil
}

func (h *Handler) signTransaction(_ context.Context, params json.RawMessage) (any, error) {
	var p SignTransactionParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	in := p.Transaction
	if in == "" {
		in = p.TxHex
	}
	if in == "" {
		return nil, errors.New("transaction is required")
	}
	raw, err := decodeHex(in)
	if err != nil {
		return nil, fmt.Errorf("transaction: %w", err)
	}
	signed, err := tx.SignRawOrigin(raw, h.identity.Key())
	if err != nil {
		return nil, err
	}
	return SignTransactionResult{Transaction: hex.EncodeToString(signed)}, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	return hex.DecodeString(s)
}
