// Package tx defines the Stacks transaction wire format, building and
// signing.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
)

// TransactionVersion distinguishes mainnet from testnet transactions.
type TransactionVersion byte

const (
	VersionMainnet TransactionVersion = 0x00
	VersionTestnet TransactionVersion = 0x80
)

// Chain ids.
const (
	ChainIDMainnet uint32 = 0x00000001
	ChainIDTestnet uint32 = 0x80000000
)

// AnchorMode controls which blocks may include the transaction.
type AnchorMode byte

const (
	AnchorOnChainOnly  AnchorMode = 0x01
	AnchorOffChainOnly AnchorMode = 0x02
	AnchorAny          AnchorMode = 0x03
)

// PostConditionMode controls whether asset movements not covered by a
// post condition abort the transaction.
type PostConditionMode byte

const (
	PostConditionModeAllow PostConditionMode = 0x01
	PostConditionModeDeny  PostConditionMode = 0x02
)

// ParsePostConditionMode accepts "allow" or "deny". Empty means deny.
func ParsePostConditionMode(s string) (PostConditionMode, error) {
	switch s {
	case "", "deny":
		return PostConditionModeDeny, nil
	case "allow":
		return PostConditionModeAllow, nil
	default:
		return 0, fmt.Errorf("invalid post condition mode %q", s)
	}
}

func (m PostConditionMode) String() string {
	switch m {
	case PostConditionModeAllow:
		return "allow"
	case PostConditionModeDeny:
		return "deny"
	default:
		return fmt.Sprintf("mode(0x%02x)", byte(m))
	}
}

// Chain holds the per-network constants a transaction is bound to.
type Chain struct {
	Version        TransactionVersion
	ChainID        uint32
	AddressVersion byte
}

var (
	Mainnet = Chain{Version: VersionMainnet, ChainID: ChainIDMainnet, AddressVersion: 22}
	Testnet = Chain{Version: VersionTestnet, ChainID: ChainIDTestnet, AddressVersion: 26}
)

// Transaction is a Stacks transaction.
type Transaction struct {
	Version           TransactionVersion
	ChainID           uint32
	Auth              Authorization
	AnchorMode        AnchorMode
	PostConditionMode PostConditionMode
	// PostConditions holds each serialized post condition.
	PostConditions [][]byte
	Payload        Payload
}

// Serialize returns the wire encoding of the transaction.
func (tx *Transaction) Serialize() []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, byte(tx.Version))
	buf = binary.BigEndian.AppendUint32(buf, tx.ChainID)
	buf = tx.Auth.appendTo(buf)
	buf = append(buf, byte(tx.AnchorMode), byte(tx.PostConditionMode))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tx.PostConditions)))
	for _, pc := range tx.PostConditions {
		buf = append(buf, pc...)
	}
	if tx.Payload != nil {
		buf = append(buf, tx.Payload.Serialize()...)
	}
	return buf
}

// Hex returns the serialized transaction in hex without a 0x prefix.
func (tx *Transaction) Hex() string {
	return hex.EncodeToString(tx.Serialize())
}

// TxID computes the transaction id, sha512/256 of the serialization.
func (tx *Transaction) TxID() string {
	return TxIDFromBytes(tx.Serialize())
}

// TxIDFromBytes computes the id of an already serialized transaction.
func TxIDFromBytes(raw []byte) string {
	h := crypto.Sha512_256(raw)
	return hex.EncodeToString(h[:])
}

// Nonce returns the origin nonce.
func (tx *Transaction) Nonce() uint64 {
	return tx.Auth.Origin.Nonce
}

// Fee returns the origin fee.
func (tx *Transaction) Fee() uint64 {
	return tx.Auth.Origin.Fee
}
