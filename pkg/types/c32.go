package types

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/Klingon-tech/walletsim/pkg/crypto"
)

// C32 alphabet (Crockford base32 without I, L, O, U).
const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// c32ChecksumSize is the number of sha256d bytes appended by c32check.
const c32ChecksumSize = 4

// c32AlphabetRev maps c32 characters to their 5-bit values. -1 = invalid.
var c32AlphabetRev [128]int8

func init() {
	for i := range c32AlphabetRev {
		c32AlphabetRev[i] = -1
	}
	for i, c := range c32Alphabet {
		c32AlphabetRev[c] = int8(i)
	}
}

var big32 = big.NewInt(32)

// C32Encode encodes bytes as c32. Every leading zero byte becomes a
// leading '0' character.
func C32Encode(data []byte) string {
	n := new(big.Int).SetBytes(data)
	var out []byte
	mod := new(big.Int)
	for n.Sign() > 0 {
		n.DivMod(n, big32, mod)
		out = append(out, c32Alphabet[mod.Int64()])
	}
	for _, b := range data {
		if b != 0 {
			break
		}
		out = append(out, '0')
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// C32Decode decodes a c32 string. Input is case-insensitive and the
// commonly confused letters O, I and L are read as 0, 1 and 1.
func C32Decode(s string) ([]byte, error) {
	s = c32Normalize(s)
	n := new(big.Int)
	zeros := 0
	leading := true
	for _, c := range s {
		if c > 127 || c32AlphabetRev[c] < 0 {
			return nil, fmt.Errorf("c32: invalid character %q", c)
		}
		v := c32AlphabetRev[c]
		if leading && v == 0 {
			zeros++
			continue
		}
		leading = false
		n.Mul(n, big32)
		n.Add(n, big.NewInt(int64(v)))
	}
	out := make([]byte, zeros, zeros+len(s))
	return append(out, n.Bytes()...), nil
}

func c32Normalize(s string) string {
	s = strings.ToUpper(s)
	return strings.NewReplacer("O", "0", "L", "1", "I", "1").Replace(s)
}

func c32Checksum(version byte, data []byte) []byte {
	buf := make([]byte, 0, 1+len(data))
	buf = append(buf, version)
	buf = append(buf, data...)
	sum := crypto.DoubleSha256(buf)
	return sum[:c32ChecksumSize]
}

// C32CheckEncode encodes a version and payload as version character
// followed by c32(data || checksum).
func C32CheckEncode(version byte, data []byte) (string, error) {
	if version >= 32 {
		return "", fmt.Errorf("c32check: invalid version %d", version)
	}
	payload := make([]byte, 0, len(data)+c32ChecksumSize)
	payload = append(payload, data...)
	payload = append(payload, c32Checksum(version, data)...)
	return string(c32Alphabet[version]) + C32Encode(payload), nil
}

// C32CheckDecode reverses C32CheckEncode. size is the expected payload
// length; the decoded bytes are left-padded to it.
func C32CheckDecode(s string, size int) (byte, []byte, error) {
	if len(s) < 2 {
		return 0, nil, fmt.Errorf("c32check: too short")
	}
	s = c32Normalize(s)
	v := c32AlphabetRev[s[0]&0x7f]
	if s[0] > 127 || v < 0 {
		return 0, nil, fmt.Errorf("c32check: invalid version character %q", s[0])
	}
	decoded, err := C32Decode(s[1:])
	if err != nil {
		return 0, nil, fmt.Errorf("c32check: %w", err)
	}
	want := size + c32ChecksumSize
	if len(decoded) > want {
		return 0, nil, fmt.Errorf("c32check: payload is %d bytes, want %d", len(decoded)-c32ChecksumSize, size)
	}
	if len(decoded) < want {
		padded := make([]byte, want)
		copy(padded[want-len(decoded):], decoded)
		decoded = padded
	}
	data, checksum := decoded[:size], decoded[size:]
	if !bytes.Equal(checksum, c32Checksum(byte(v), data)) {
		return 0, nil, fmt.Errorf("c32check: invalid checksum")
	}
	return byte(v), data, nil
}
