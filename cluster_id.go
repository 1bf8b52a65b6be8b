package snowflake

import (
	"database/sql/driver"
	"strconv"
	"time"
)

// ClusterID is a Snowflake ID packed with LayoutSuperior (40+14+9): up to
// 16,384 machines at 512 IDs per millisecond each, for about 35 years.
//
// ClusterIDs and IDs share transport encodings but must never be compared
// with each other.
//
// Example:
//
//	gen, err := snowflake.New[snowflake.ClusterID](12000)
type ClusterID int64

var _ = LayoutOf[ClusterID]

// Layout returns LayoutSuperior.
func (ClusterID) Layout() BitLayout { return LayoutSuperior }

// FromComponentParts packs pre-masked fields into a ClusterID.
func (ClusterID) FromComponentParts(timestampOffset, machineID, sequence uint64) ClusterID {
	return ClusterID(LayoutSuperior.Compose(timestampOffset, machineID, sequence))
}

// Raw returns the bit pattern of the ID.
func (id ClusterID) Raw() uint64 { return uint64(id) }

// ParseClusterID parses the decimal form of a ClusterID.
func ParseClusterID(s string) (ClusterID, error) {
	v, err := parseDecimal(s)
	return ClusterID(v), err
}

// Int64 returns the ID as an int64.
func (id ClusterID) Int64() int64 { return int64(id) }

// String returns the decimal digits of the ID.
func (id ClusterID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// MachineID returns the machine ID field (0-16383).
func (id ClusterID) MachineID() uint64 { return MachineID(id) }

// Sequence returns the sequence field (0-511).
func (id ClusterID) Sequence() uint64 { return Sequence(id) }

// Time returns the generation time of the ID given its generator's epoch.
func (id ClusterID) Time(epoch int64) time.Time {
	return time.UnixMilli(TimestampWithEpoch(id, epoch))
}

// Encode renders the ID in one of Encodings.
func (id ClusterID) Encode(encoding string) (string, error) { return encodeAs(int64(id), encoding) }

// MarshalJSON encodes the ID as a JSON string.
func (id ClusterID) MarshalJSON() ([]byte, error) { return marshalJSON(int64(id)), nil }

// UnmarshalJSON accepts a decimal string or a JSON integer. null leaves the
// ID unchanged.
func (id *ClusterID) UnmarshalJSON(data []byte) error {
	v, ok, err := unmarshalJSON(data)
	if ok {
		*id = ClusterID(v)
	}
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (id ClusterID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ClusterID) UnmarshalText(text []byte) error {
	v, err := parseDecimal(string(text))
	if err != nil {
		return err
	}
	*id = ClusterID(v)
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ClusterID) MarshalBinary() ([]byte, error) { return marshalBinary(int64(id)), nil }

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ClusterID) UnmarshalBinary(data []byte) error {
	v, err := unmarshalBinary(data)
	if err != nil {
		return err
	}
	*id = ClusterID(v)
	return nil
}

// Scan implements sql.Scanner.
func (id *ClusterID) Scan(value any) error {
	v, err := scanValue(value)
	if err != nil {
		return err
	}
	*id = ClusterID(v)
	return nil
}

// Value implements driver.Valuer.
func (id ClusterID) Value() (driver.Value, error) { return int64(id), nil }
