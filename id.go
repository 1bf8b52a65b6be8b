// Package snowflake - id.go provides ID, the default 41+10+12 identifier type.
//
// ID plugs into Generator and AsyncGenerator through the Snowflake
// constraint and carries the transport encodings: decimal strings for text
// and JSON, raw big-endian int64 for binary, BIGINT for SQL.

package snowflake

import (
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"time"
)

// ID is a Snowflake ID packed with LayoutDefault.
//
// # Interface Implementations
//
//   - json.Marshaler/Unmarshaler: JavaScript-safe JSON encoding (string)
//   - encoding.TextMarshaler/Unmarshaler: For XML, YAML, TOML
//   - encoding.BinaryMarshaler/Unmarshaler: 8-byte big-endian
//   - sql.Scanner/driver.Valuer: BIGINT columns
//   - fmt.Stringer: decimal digits
//
// Every decoder rejects negative values with ErrNegativeID.
//
// Example:
//
//	id, _ := snowflake.GenerateID()
//	fmt.Println(id)                     // 1234567890123456789
//	fmt.Println(id.MachineID())         // 0
//	fmt.Println(id.Time(snowflake.Epoch))
type ID int64

var _ = LayoutOf[ID]

// Layout returns LayoutDefault.
func (ID) Layout() BitLayout { return LayoutDefault }

// FromComponentParts packs pre-masked fields into an ID.
func (ID) FromComponentParts(timestampOffset, machineID, sequence uint64) ID {
	return ID(LayoutDefault.Compose(timestampOffset, machineID, sequence))
}

// Raw returns the bit pattern of the ID.
func (id ID) Raw() uint64 { return uint64(id) }

// NewID converts a non-negative int64 into an ID.
func NewID(v int64) (ID, error) {
	v, err := checkNonNegative(v)
	return ID(v), err
}

// ParseInt64 is an alias of NewID.
func ParseInt64(v int64) (ID, error) { return NewID(v) }

// ParseString parses the decimal form of an ID.
//
// Non-numeric input fails with ErrInvalidID ("failed to parse"); a negative
// number fails with ErrNegativeID ("cannot be negative").
//
// Example:
//
//	id, err := snowflake.ParseString("1234567890123456789")
func ParseString(s string) (ID, error) {
	v, err := parseDecimal(s)
	return ID(v), err
}

// Int64 returns the ID as an int64.
func (id ID) Int64() int64 { return int64(id) }

// String returns the decimal digits of the ID.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// TimestampOffset returns milliseconds since the generator's epoch.
func (id ID) TimestampOffset() uint64 { return LayoutDefault.TimestampOffset(id.Raw()) }

// MachineID returns the machine ID field (0-1023).
func (id ID) MachineID() uint64 { return LayoutDefault.MachineID(id.Raw()) }

// Sequence returns the sequence field (0-4095).
func (id ID) Sequence() uint64 { return LayoutDefault.Sequence(id.Raw()) }

// TimestampWithEpoch returns the Unix millisecond timestamp of the ID.
func (id ID) TimestampWithEpoch(epoch int64) int64 { return TimestampWithEpoch(id, epoch) }

// Time returns the generation time of the ID given its generator's epoch.
//
// Example:
//
//	created := id.Time(snowflake.Epoch)
//	age := time.Since(created)
func (id ID) Time(epoch int64) time.Time {
	return time.UnixMilli(id.TimestampWithEpoch(epoch))
}

// Components returns all three fields in one call.
func (id ID) Components() (timestampOffset, machineID, sequence uint64) {
	return id.TimestampOffset(), id.MachineID(), id.Sequence()
}

// IsValid reports whether the ID has no bits set outside LayoutDefault,
// which for this layout means it is non-negative.
func (id ID) IsValid() bool { return LayoutDefault.IsValid(id.Raw()) }

// Compare returns -1, 0 or +1 depending on whether id is less than, equal to
// or greater than other. IDs from one generator compare in issuance order.
func (id ID) Compare(other ID) int {
	switch {
	case id < other:
		return -1
	case id > other:
		return 1
	default:
		return 0
	}
}

// Before reports whether id sorts before other.
func (id ID) Before(other ID) bool { return id < other }

// After reports whether id sorts after other.
func (id ID) After(other ID) bool { return id > other }

// Shard maps the ID to one of numShards partitions by modulo.
// numShards <= 0 always yields 0.
//
// Example:
//
//	table := fmt.Sprintf("users_shard_%d", id.Shard(16))
func (id ID) Shard(numShards int64) int64 {
	if numShards <= 0 {
		return 0
	}
	return int64(id) % numShards
}

// Encode renders the ID in one of Encodings.
//
// Example:
//
//	s, _ := id.Encode("base62") // "7n42dgm5tflk"
func (id ID) Encode(encoding string) (string, error) { return encodeAs(int64(id), encoding) }

// Base32 returns the z-base-32 form. The remaining shortcuts share its
// behaviour: an ID with bit 63 set has no encoded form and renders as "".
func (id ID) Base32() string {
	s, _ := encodeAs(int64(id), "base32")
	return s
}

// Base58 returns the Bitcoin-style base58 form.
func (id ID) Base58() string {
	s, _ := encodeAs(int64(id), "base58")
	return s
}

// Base62 returns the URL-safe base62 form.
func (id ID) Base62() string {
	s, _ := encodeAs(int64(id), "base62")
	return s
}

// Hex returns the lowercase hexadecimal form.
func (id ID) Hex() string {
	s, _ := encodeAs(int64(id), "hex")
	return s
}

// Decode parses s from one of Encodings.
func Decode(s, encoding string) (ID, error) {
	v, err := decodeAs(s, encoding)
	return ID(v), err
}

// ParseBase32 parses a z-base-32 string.
func ParseBase32(s string) (ID, error) { return Decode(s, "base32") }

// ParseBase58 parses a base58 string.
func ParseBase58(s string) (ID, error) { return Decode(s, "base58") }

// ParseBase62 parses a base62 string.
func ParseBase62(s string) (ID, error) { return Decode(s, "base62") }

// ParseHex parses a hexadecimal string in either case.
func ParseHex(s string) (ID, error) { return Decode(s, "hex") }

// MarshalJSON encodes the ID as a JSON string, e.g. "1234567890123456789".
//
// JavaScript numbers only hold integers up to 2^53 exactly, and Snowflake IDs
// routinely exceed that.
func (id ID) MarshalJSON() ([]byte, error) {
	return marshalJSON(int64(id)), nil
}

// UnmarshalJSON accepts a decimal string or a JSON integer. null leaves the
// ID unchanged.
//
// Example:
//
//	var id snowflake.ID
//	json.Unmarshal([]byte(`"1234567890123456789"`), &id) // preferred
//	json.Unmarshal([]byte(`1234567890123456789`), &id)   // also accepted
func (id *ID) UnmarshalJSON(data []byte) error {
	v, ok, err := unmarshalJSON(data)
	if ok {
		*id = ID(v)
	}
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	v, err := parseDecimal(string(text))
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	return marshalBinary(int64(id)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	v, err := unmarshalBinary(data)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// Scan implements sql.Scanner for BIGINT and text columns. NULL scans to 0.
//
// Example:
//
//	var id snowflake.ID
//	err := db.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&id)
func (id *ID) Scan(value any) error {
	v, err := scanValue(value)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

// Value implements driver.Valuer. IDs are stored as int64.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// IDWithFormat marshals an ID to JSON in a chosen encoding.
//
// Example:
//
//	type Response struct {
//	    UserID snowflake.IDWithFormat `json:"user_id"`
//	}
//	resp := Response{UserID: snowflake.IDWithFormat{ID: id, Format: "base62"}}
//	// JSON: {"user_id": "7n42dgm5tflk"}
type IDWithFormat struct {
	ID     ID
	Format string
}

// MarshalJSON marshals the ID using the configured format.
func (idf IDWithFormat) MarshalJSON() ([]byte, error) {
	s, err := idf.ID.Encode(idf.Format)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}
