package main

import (
	"fmt"
	"strings"

	"github.com/sxyafiq/snowflake/v2"
)

var formatAliases = map[string]string{
	"dec": "decimal",
	"b32": "base32",
	"b36": "base36",
	"b58": "base58",
	"b62": "base62",
	"b64": "base64",
	"x":   "hex",
}

// normalizeFormat resolves aliases and checks that format is a known encoding.
func normalizeFormat(format string) (string, error) {
	f := strings.ToLower(format)
	if full, ok := formatAliases[f]; ok {
		f = full
	}
	for _, enc := range snowflake.Encodings {
		if enc == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %s)", snowflake.ErrUnknownEncoding, format, strings.Join(snowflake.Encodings, ", "))
}

// guessOrder is tried by parseIDFlexible when no format is given.
var guessOrder = []string{"decimal", "base62", "base58", "hex", "base32"}

// parseIDFlexible parses s in format, or when format is empty, in the first
// encoding of guessOrder that accepts it.
func parseIDFlexible(s, format string) (snowflake.ID, error) {
	if format != "" {
		enc, err := normalizeFormat(format)
		if err != nil {
			return 0, err
		}
		return snowflake.Decode(s, enc)
	}

	for _, enc := range guessOrder {
		if id, err := snowflake.Decode(s, enc); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q is not valid in any of %s", snowflake.ErrInvalidID, s, strings.Join(guessOrder, ", "))
}
