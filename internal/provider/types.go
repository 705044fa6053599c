package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Envelope error codes.
const (
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Wallet methods.
const (
	MethodGetAddresses          = "getAddresses"
	MethodStxGetAddresses       = "stx_getAddresses"
	MethodWalletConnect         = "wallet_connect"
	MethodTransferStx           = "stx_transferStx"
	MethodCallContract          = "stx_callContract"
	MethodSignMessage           = "stx_signMessage"
	MethodSignMessageAlias      = "signMessage"
	MethodSignStructuredMessage = "stx_signStructuredMessage"
	MethodSignTransaction       = "stx_signTransaction"
)

// Request is the envelope a page sends across the bridge.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the envelope sent back. Exactly one of Result and Error is
// set.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is an envelope error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
}

// AddressInfo is one entry of an address enumeration.
type AddressInfo struct {
	Address     string `json:"address"`
	PublicKey   string `json:"publicKey"`
	Purpose     string `json:"purpose"`
	AddressType string `json:"addressType"`
	Symbol      string `json:"symbol"`
}

// AddressesResult is the reply to getAddresses and its aliases.
type AddressesResult struct {
	Addresses []AddressInfo `json:"addresses"`
}

// Placeholder BTC addresses reported next to the Stacks address.
const (
	PlaceholderBTCPayment  = "bc1q-placeholder-btc-payment"
	PlaceholderBTCOrdinals = "bc1p-placeholder-btc-ordinals"
)

// Amount is a micro-STX amount sent as a decimal string or a JSON number.
type Amount uint64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s", data)
	}
	*a = Amount(v)
	return nil
}

// TransferParams are the parameters of stx_transferStx.
type TransferParams struct {
	Recipient string  `json:"recipient"`
	Amount    *Amount `json:"amount"`
	Memo      string  `json:"memo,omitempty"`
	// Network is accepted for compatibility; the session network is used.
	Network string `json:"network,omitempty"`
}

// PostConditionMode accepts "allow", "deny" or the numeric wire values
// 1 and 2.
type PostConditionMode string

func (m *PostConditionMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = PostConditionMode(strings.ToLower(s))
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid postConditionMode %s", data)
	}
	switch n {
	case 1:
		*m = "allow"
	case 2:
		*m = "deny"
	default:
		return fmt.Errorf("invalid postConditionMode %d", n)
	}
	return nil
}

// CallContractParams are the parameters of stx_callContract. Contract
// may be given as "ADDR.name" or split into ContractAddress and
// ContractName.
type CallContractParams struct {
	Contract          string            `json:"contract,omitempty"`
	ContractAddress   string            `json:"contractAddress,omitempty"`
	ContractName      string            `json:"contractName,omitempty"`
	FunctionName      string            `json:"functionName"`
	FunctionArgs      []string          `json:"functionArgs,omitempty"`
	PostConditions    []string          `json:"postConditions,omitempty"`
	PostConditionMode PostConditionMode `json:"postConditionMode,omitempty"`
	Network           string            `json:"network,omitempty"`
}

// normalize fills ContractAddress and ContractName from Contract. Only
// the first dot separates the address.
func (p *CallContractParams) normalize() {
	if p.Contract == "" || p.ContractAddress != "" {
		return
	}
	addr, name, _ := strings.Cut(p.Contract, ".")
	p.ContractAddress = addr
	if p.ContractName == "" {
		p.ContractName = name
	}
}

// ContractID returns "ADDR.name".
func (p *CallContractParams) ContractID() string {
	return p.ContractAddress + "." + p.ContractName
}

// TxResult is the reply to broadcasting methods.
type TxResult struct {
	TxID string `json:"txid"`
}

// SignMessageParams are the parameters of stx_signMessage.
type SignMessageParams struct {
	Message string `json:"message"`
}

// SignStructuredParams carry hex Clarity values, 0x optional.
type SignStructuredParams struct {
	Domain  string `json:"domain"`
	Message string `json:"message"`
}

// SignatureResult is a 65-byte RSV signature in hex and the signer's key.
type SignatureResult struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// SignTransactionParams carry a serialized transaction in hex.
type SignTransactionParams struct {
	Transaction string `json:"transaction"`
	// TxHex is the older name of Transaction.
	TxHex string `json:"txHex,omitempty"`
}

// SignTransactionResult is the signed transaction in hex.
type SignTransactionResult struct {
	Transaction string `json:"transaction"`
}
