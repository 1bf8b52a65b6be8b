package snowflake

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// The helpers in this file implement the transport encodings shared by every
// int64-backed ID type. Decoding always rejects negative values: an ID built
// by a valid layout never has bit 63 set.

// ErrUnknownEncoding is returned by Encode and Decode for an unsupported encoding name.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Encodings lists the names accepted by Encode and Decode.
var Encodings = []string{"decimal", "base32", "base36", "base58", "base62", "base64", "hex"}

// parseDecimal parses the canonical decimal form of an ID: plain digits with
// no sign and no leading zeros. Malformed input and negative values fail with
// different sentinels so callers can tell them apart.
func parseDecimal(s string) (int64, error) {
	digits := strings.TrimPrefix(s, "-")
	switch {
	case strings.HasPrefix(s, "+"):
		return 0, fmt.Errorf("%w: failed to parse %q: explicit sign", ErrInvalidID, s)
	case len(digits) > 1 && digits[0] == '0', s == "-0":
		return 0, fmt.Errorf("%w: failed to parse %q: leading zero", ErrInvalidID, s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		reason := err
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			reason = numErr.Err
		}
		return 0, fmt.Errorf("%w: failed to parse %q: %v", ErrInvalidID, s, reason)
	}
	return checkNonNegative(v)
}

func checkNonNegative(v int64) (int64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrNegativeID, v)
	}
	return v, nil
}

// marshalJSON renders v as a JSON string. Numbers above 2^53 lose precision
// in JavaScript, so IDs never travel as JSON numbers.
func marshalJSON(v int64) []byte {
	b := make([]byte, 0, 21)
	b = append(b, '"')
	b = strconv.AppendInt(b, v, 10)
	return append(b, '"')
}

// unmarshalJSON accepts a JSON string or integer. ok is false for null, in
// which case the destination must be left untouched.
func unmarshalJSON(data []byte) (v int64, ok bool, err error) {
	if string(data) == "null" {
		return 0, false, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, false, fmt.Errorf("%w: %v", ErrInvalidID, err)
		}
		v, err = parseDecimal(s)
		return v, err == nil, err
	}
	v, err = parseDecimal(string(data))
	return v, err == nil, err
}

// marshalBinary renders v as 8 big-endian bytes.
func marshalBinary(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func unmarshalBinary(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: binary form must be 8 bytes, got %d", ErrInvalidID, len(data))
	}
	return checkNonNegative(int64(binary.BigEndian.Uint64(data)))
}

// scanValue converts a database/sql source value. NULL scans to zero.
func scanValue(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int64:
		return checkNonNegative(v)
	case []byte:
		return parseDecimal(string(v))
	case string:
		return parseDecimal(v)
	default:
		return 0, fmt.Errorf("%w: cannot scan %T", ErrInvalidID, value)
	}
}

// encodeAs renders v in the named encoding. Negative values have no
// encoded form.
func encodeAs(v int64, encoding string) (string, error) {
	if v < 0 {
		if !slices.Contains(Encodings, encoding) && encoding != "" {
			return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
		}
		return "", fmt.Errorf("%w: got %d", ErrNegativeID, v)
	}
	switch encoding {
	case "decimal", "":
		return strconv.FormatInt(v, 10), nil
	case "base32":
		return base32Alphabet.encode(v), nil
	case "base36":
		return strconv.FormatInt(v, 36), nil
	case "base58":
		return base58Alphabet.encode(v), nil
	case "base62":
		return base62Alphabet.encode(v), nil
	case "base64":
		return encodeBase64(v), nil
	case "hex":
		return hexAlphabet.encode(v), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

// decodeAs parses s from the named encoding.
func decodeAs(s, encoding string) (int64, error) {
	switch encoding {
	case "decimal", "":
		return parseDecimal(s)
	case "base32":
		return base32Alphabet.decode(s)
	case "base36":
		v, err := strconv.ParseInt(s, 36, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidBase36, err)
		}
		return checkNonNegative(v)
	case "base58":
		return base58Alphabet.decode(s)
	case "base62":
		return base62Alphabet.decode(s)
	case "base64":
		return decodeBase64(s)
	case "hex":
		return hexAlphabet.decode(s)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}
