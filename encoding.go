// Package snowflake - encoding.go converts IDs to and from compact alphabets.
//
// # Supported Encodings
//
//   - Base32: z-base-32, avoids visually similar characters
//   - Base58: Bitcoin-style, no 0, O, I or l
//   - Base62: URL-safe alphanumeric
//   - Hex: lowercase on output, either case on input
//   - Base64: URL-safe, unpadded, over the 8-byte big-endian form
//
// Decode tables are built once at init and read-only afterwards, so every
// function here is safe for concurrent use.

package snowflake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
)

// Maximum encoded lengths for a non-negative int64.
// Longer inputs are rejected before decoding.
const (
	MaxBase32Len = 13
	MaxBase58Len = 11
	MaxBase62Len = 11
	MaxHexLen    = 16
)

// Encoding errors returned when parsing invalid encoded strings.
var (
	ErrInvalidBase32   = errors.New("invalid base32 encoding")
	ErrInvalidBase36   = errors.New("invalid base36 encoding")
	ErrInvalidBase58   = errors.New("invalid base58 encoding")
	ErrInvalidBase62   = errors.New("invalid base62 encoding")
	ErrInvalidBase64   = errors.New("invalid base64 encoding")
	ErrInvalidHex      = errors.New("invalid hexadecimal encoding")
	ErrStringTooLong   = errors.New("encoded string exceeds maximum length")
	ErrIntegerOverflow = errors.New("decoded value would overflow int64")
)

const invalidDigit = 0xFF

// alphabet is a positional numeral system over a fixed character set.
type alphabet struct {
	chars  string
	base   int64
	maxLen int
	err    error
	table  [256]byte
}

func newAlphabet(chars string, maxLen int, err error) *alphabet {
	a := &alphabet{
		chars:  chars,
		base:   int64(len(chars)),
		maxLen: maxLen,
		err:    err,
	}
	for i := range a.table {
		a.table[i] = invalidDigit
	}
	for i := 0; i < len(chars); i++ {
		a.table[chars[i]] = byte(i)
	}
	return a
}

// foldUpper also accepts the upper-case form of every lower-case letter.
func (a *alphabet) foldUpper() *alphabet {
	for i := 0; i < len(a.chars); i++ {
		if c := a.chars[i]; c >= 'a' && c <= 'z' {
			a.table[c-'a'+'A'] = byte(i)
		}
	}
	return a
}

var (
	base32Alphabet = newAlphabet("ybndrfg8ejkmcpqxot1uwisza345h769", MaxBase32Len, ErrInvalidBase32)
	base58Alphabet = newAlphabet("123456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ", MaxBase58Len, ErrInvalidBase58)
	base62Alphabet = newAlphabet("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ", MaxBase62Len, ErrInvalidBase62)
	hexAlphabet    = newAlphabet("0123456789abcdef", MaxHexLen, ErrInvalidHex).foldUpper()
)

// encode renders v, which callers have checked is non-negative.
func (a *alphabet) encode(v int64) string {
	if v == 0 {
		return a.chars[:1]
	}

	var buf [64]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = a.chars[v%a.base]
		v /= a.base
	}
	return string(buf[i:])
}

func (a *alphabet) decode(s string) (int64, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("%w: empty string", a.err)
	}
	if len(s) > a.maxLen {
		return 0, ErrStringTooLong
	}

	var v int64
	for i := 0; i < len(s); i++ {
		d := a.table[s[i]]
		if d == invalidDigit {
			return 0, fmt.Errorf("%w: unexpected character %q at position %d", a.err, s[i], i)
		}
		if v > (math.MaxInt64-int64(d))/a.base {
			return 0, ErrIntegerOverflow
		}
		v = v*a.base + int64(d)
	}
	return v, nil
}

func encodeBase64(v int64) string {
	return base64.RawURLEncoding.EncodeToString(marshalBinary(v))
}

func decodeBase64(s string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: decoded %d bytes, want 8", ErrInvalidBase64, len(b))
	}
	return unmarshalBinary(b)
}
