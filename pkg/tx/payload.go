package tx

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/Klingon-tech/walletsim/pkg/clarity"
	"github.com/Klingon-tech/walletsim/pkg/types"
)

// PayloadType is the leading byte of a payload.
type PayloadType byte

const (
	PayloadTokenTransfer PayloadType = 0x00
	PayloadSmartContract PayloadType = 0x01
	PayloadContractCall  PayloadType = 0x02
)

// MemoSize is the fixed length of a token transfer memo.
const MemoSize = 34

// MaxFunctionNameLength bounds a contract function name.
const MaxFunctionNameLength = 128

// Payload is the body of a transaction.
type Payload interface {
	Type() PayloadType
	Serialize() []byte
}

// PayloadHex returns the serialized payload in hex, the form fee
// estimation endpoints expect.
func PayloadHex(p Payload) string {
	return hex.EncodeToString(p.Serialize())
}

// TokenTransfer moves STX from the origin to Recipient.
type TokenTransfer struct {
	// Recipient is a serialized principal value.
	Recipient []byte
	Amount    uint64
	Memo      [MemoSize]byte
}

// NewTokenTransfer validates the recipient principal and memo.
func NewTokenTransfer(recipient string, amount uint64, memo string) (*TokenTransfer, error) {
	cv, err := clarity.Principal(recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	m, err := EncodeMemo(memo)
	if err != nil {
		return nil, err
	}
	return &TokenTransfer{Recipient: cv, Amount: amount, Memo: m}, nil
}

// EncodeMemo right-pads memo bytes with zeros to MemoSize.
func EncodeMemo(memo string) ([MemoSize]byte, error) {
	var out [MemoSize]byte
	if len(memo) > MemoSize {
		return out, fmt.Errorf("memo is %d bytes, max %d", len(memo), MemoSize)
	}
	copy(out[:], memo)
	return out, nil
}

func (p *TokenTransfer) Type() PayloadType { return PayloadTokenTransfer }

func (p *TokenTransfer) Serialize() []byte {
	buf := make([]byte, 0, 1+len(p.Recipient)+8+MemoSize)
	buf = append(buf, byte(PayloadTokenTransfer))
	buf = append(buf, p.Recipient...)
	buf = binary.BigEndian.AppendUint64(buf, p.Amount)
	return append(buf, p.Memo[:]...)
}

// ContractCall invokes a public function.
type ContractCall struct {
	Contract     types.ContractID
	FunctionName string
	// Args holds each serialized Clarity argument.
	Args [][]byte
}

// NewContractCall validates names and arguments.
func NewContractCall(contract types.ContractID, function string, args [][]byte) (*ContractCall, error) {
	if err := types.ValidateContractName(contract.Name); err != nil {
		return nil, err
	}
	if function == "" || len(function) > MaxFunctionNameLength {
		return nil, fmt.Errorf("invalid function name %q", function)
	}
	for i, a := range args {
		if err := clarity.Validate(a); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return &ContractCall{Contract: contract, FunctionName: function, Args: args}, nil
}

func (p *ContractCall) Type() PayloadType { return PayloadContractCall }

func (p *ContractCall) Serialize() []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(PayloadContractCall), p.Contract.Address.Version)
	buf = append(buf, p.Contract.Address.Hash160[:]...)
	buf = append(buf, byte(len(p.Contract.Name)))
	buf = append(buf, p.Contract.Name...)
	buf = append(buf, byte(len(p.FunctionName)))
	buf = append(buf, p.FunctionName...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Args)))
	for _, a := range p.Args {
		buf = append(buf, a...)
	}
	return buf
}
