package snowflake

import (
	"testing"
)

// FuzzEncodingRoundTrip checks that every non-negative int64 survives every
// encoding unchanged.
func FuzzEncodingRoundTrip(f *testing.F) {
	seeds := []int64{
		0,
		1,
		31,
		32,
		57,
		58,
		1<<41 - 1,
		1 << 41,
		1 << 62,
		9223372036854775807,
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, original int64) {
		if original < 0 {
			return
		}
		for _, enc := range Encodings {
			encoded, err := encodeAs(original, enc)
			if err != nil {
				t.Fatalf("encodeAs(%d, %s) error = %v", original, enc, err)
			}
			if encoded == "" {
				t.Fatalf("encodeAs(%d, %s) produced an empty string", original, enc)
			}
			decoded, err := decodeAs(encoded, enc)
			if err != nil {
				t.Fatalf("decodeAs(%q, %s) error = %v", encoded, enc, err)
			}
			if decoded != original {
				t.Errorf("%s round trip: original=%d decoded=%d (encoded: %s)", enc, original, decoded, encoded)
			}
		}
	})
}

// FuzzDecodeArbitrary feeds arbitrary strings to every decoder. Decoding may
// fail but must never panic or yield a negative value.
func FuzzDecodeArbitrary(f *testing.F) {
	for _, seed := range []string{"", "0", "y", "zzzzzzzzzzzzz", "ffffffffffffffff", "-1", "AAAAAAAAAAA", "\xff"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		for _, enc := range Encodings {
			v, err := decodeAs(s, enc)
			if err == nil && v < 0 {
				t.Errorf("decodeAs(%q, %s) = %d without an error", s, enc, v)
			}
		}
	})
}
