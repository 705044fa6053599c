package tx

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/walletsim/pkg/clarity"
)

// Validation errors.
var (
	ErrNoPayload             = errors.New("transaction has no payload")
	ErrBadAuthType           = errors.New("unknown authorization type")
	ErrMissingSponsor        = errors.New("sponsored transaction has no sponsor")
	ErrBadAnchorMode         = errors.New("invalid anchor mode")
	ErrBadPostConditionMode  = errors.New("invalid post condition mode")
	ErrBadPostCondition      = errors.New("invalid post condition")
	ErrTooManyPostConditions = errors.New("too many post conditions")
)

// MaxPostConditions bounds the post conditions a wallet will attach.
const MaxPostConditions = 256

// Post condition types.
const (
	PostConditionSTX         byte = 0x00
	PostConditionFungible    byte = 0x01
	PostConditionNonFungible byte = 0x02
)

// Post condition principal kinds.
const (
	principalOrigin   byte = 0x01
	principalStandard byte = 0x02
	principalContract byte = 0x03
)

// Validate checks transaction structure. Signatures are not verified.
func (tx *Transaction) Validate() error {
	if tx.Payload == nil {
		return ErrNoPayload
	}
	switch tx.Auth.Type {
	case AuthStandard:
	case AuthSponsored:
		if tx.Auth.Sponsor == nil {
			return ErrMissingSponsor
		}
	default:
		return fmt.Errorf("%w: 0x%02x", ErrBadAuthType, byte(tx.Auth.Type))
	}
	if tx.AnchorMode < AnchorOnChainOnly || tx.AnchorMode > AnchorAny {
		return fmt.Errorf("%w: 0x%02x", ErrBadAnchorMode, byte(tx.AnchorMode))
	}
	if tx.PostConditionMode != PostConditionModeAllow && tx.PostConditionMode != PostConditionModeDeny {
		return fmt.Errorf("%w: 0x%02x", ErrBadPostConditionMode, byte(tx.PostConditionMode))
	}
	if len(tx.PostConditions) > MaxPostConditions {
		return fmt.Errorf("%w: %d, max %d", ErrTooManyPostConditions, len(tx.PostConditions), MaxPostConditions)
	}
	for i, pc := range tx.PostConditions {
		if err := ValidatePostCondition(pc); err != nil {
			return fmt.Errorf("post condition %d: %w", i, err)
		}
	}
	return nil
}

// ValidatePostCondition checks that pc is exactly one serialized post
// condition.
func ValidatePostCondition(pc []byte) error {
	n, err := skipPostCondition(pc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPostCondition, err)
	}
	if n != len(pc) {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadPostCondition, len(pc)-n)
	}
	return nil
}

func skipPostCondition(b []byte) (int, error) {
	if len(b) < 2 {
		return 0, ErrTruncated
	}
	kind := b[0]
	if kind > PostConditionNonFungible {
		return 0, fmt.Errorf("unknown type 0x%02x", kind)
	}
	off := 1
	switch b[off] {
	case principalOrigin:
		off++
	case principalStandard:
		off += 1 + 21
	case principalContract:
		off += 1 + 21
		n, err := skipLengthPrefixed(b, off)
		if err != nil {
			return 0, err
		}
		off = n
	default:
		return 0, fmt.Errorf("unknown principal 0x%02x", b[off])
	}
	if off > len(b) {
		return 0, ErrTruncated
	}
	if kind != PostConditionSTX {
		// Asset info: address, contract name, asset name.
		off += 21
		var err error
		if off, err = skipLengthPrefixed(b, off); err != nil {
			return 0, err
		}
		if off, err = skipLengthPrefixed(b, off); err != nil {
			return 0, err
		}
	}
	if kind == PostConditionNonFungible {
		if off > len(b) {
			return 0, ErrTruncated
		}
		n, err := clarity.Skip(b[off:])
		if err != nil {
			return 0, err
		}
		off += n
	}
	off++ // condition code
	if kind != PostConditionNonFungible {
		off += 8
	}
	if off > len(b) {
		return 0, ErrTruncated
	}
	return off, nil
}

// skipLengthPrefixed skips a u8 length-prefixed string at off and
// returns the offset after it.
func skipLengthPrefixed(b []byte, off int) (int, error) {
	if off >= len(b) {
		return 0, ErrTruncated
	}
	end := off + 1 + int(b[off])
	if end > len(b) {
		return 0, ErrTruncated
	}
	return end, nil
}

// STXPostCondition encodes an STX post condition on the origin.
// code is the fungible condition code (0x01 eq, 0x02 gt, 0x03 ge,
// 0x04 lt, 0x05 le).
func STXPostCondition(code byte, amount uint64) []byte {
	buf := []byte{PostConditionSTX, principalOrigin, code}
	return binary.BigEndian.AppendUint64(buf, amount)
}
