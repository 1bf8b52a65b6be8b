package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sxyafiq/snowflake/v2"
)

var errInvalid = errors.New("id failed validation")

func newParseCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "parse <id>",
		Aliases: []string{"p"},
		Short:   "Parse and inspect an ID",
		Long: `Parse and inspect a Snowflake ID.

Without --format the ID is tried as decimal, base62, base58, hex and base32,
in that order. Times are computed against --epoch.`,
		Example: `  snowflake parse 1234567890123456789
  snowflake parse 1tckI1NfUnH --format base62`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			id, err := parseIDFlexible(args[0], format)
			if err != nil {
				return err
			}
			printDetails(cmd.OutOrStdout(), id, s.Epoch)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (default: guess)")
	return cmd
}

func printDetails(w io.Writer, id snowflake.ID, epoch int64) {
	ts, machine, seq := id.Components()
	t := id.Time(epoch).UTC()

	fmt.Fprintf(w, "Snowflake ID: %s\n", id)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Components:\n")
	fmt.Fprintf(w, "  Timestamp:   %s (%d ms since epoch)\n", t.Format(time.RFC3339Nano), ts)
	fmt.Fprintf(w, "  Machine ID:  %d\n", machine)
	fmt.Fprintf(w, "  Sequence:    %d\n", seq)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Encodings:\n")
	for _, enc := range snowflake.Encodings {
		s, _ := id.Encode(enc)
		fmt.Fprintf(w, "  %-11s  %s\n", enc+":", s)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Age:           %v\n", time.Since(t).Round(time.Millisecond))
	fmt.Fprintf(w, "Valid:         %v\n", id.IsValid())
}

func newEncodeCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:     "encode <id> <format>",
		Aliases: []string{"enc", "e"},
		Short:   "Convert an ID between formats",
		Long: `Convert a Snowflake ID to a different encoding.

Formats:
  decimal, dec       Decimal string
  base32, b32        z-base-32
  base36, b36        Base36, lowercase
  base58, b58        Bitcoin-style Base58
  base62, b62        URL-safe Base62
  base64, b64        Unpadded URL-safe Base64 of the 8 big-endian bytes
  hex, x             Hexadecimal`,
		Example: `  snowflake encode 1234567890123456789 base62
  snowflake encode 1tckI1NfUnH decimal --from base62`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDFlexible(args[0], from)
			if err != nil {
				return err
			}
			enc, err := normalizeFormat(args[1])
			if err != nil {
				return err
			}
			s, err := id.Encode(enc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Input format (default: guess)")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "validate <id>",
		Aliases: []string{"val", "v"},
		Short:   "Validate an ID",
		Long: `Validate the structure of a Snowflake ID.

An ID is rejected if it cannot be parsed, if it is negative, or if its
timestamp lies further in the future than --max-clock-backward allows.`,
		Example: `  snowflake validate 1234567890123456789`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			id, err := parseIDFlexible(args[0], format)
			if err != nil {
				fmt.Fprintf(out, "INVALID: Unable to parse ID '%s'\n", args[0])
				return err
			}
			ts, machine, seq := id.Components()
			t := id.Time(s.Epoch)

			var problems []string
			if !id.IsValid() {
				problems = append(problems, "bits outside the layout are set")
			}
			if t.After(time.Now().Add(s.MaxClockBackward)) {
				problems = append(problems, fmt.Sprintf("timestamp %s is in the future", t.UTC().Format(time.RFC3339)))
			}

			if len(problems) > 0 {
				fmt.Fprintf(out, "INVALID: ID structure is invalid\n")
			} else {
				fmt.Fprintf(out, "VALID: ID structure is valid\n")
			}
			fmt.Fprintf(out, "\nComponents:\n")
			fmt.Fprintf(out, "  Timestamp:   %s (%d ms since epoch)\n", t.UTC().Format(time.RFC3339), ts)
			fmt.Fprintf(out, "  Machine ID:  %d (valid range: 0-%d)\n", machine, snowflake.LayoutDefault.MaxMachineID())
			fmt.Fprintf(out, "  Sequence:    %d (valid range: 0-%d)\n", seq, snowflake.LayoutDefault.MaxSequence())
			for _, p := range problems {
				fmt.Fprintf(out, "\n  Error: %s\n", p)
			}
			if len(problems) > 0 {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (default: guess)")
	return cmd
}
