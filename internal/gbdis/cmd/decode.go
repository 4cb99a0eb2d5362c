package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"gbdis/internal/sm83"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex bytes...]",
	Short: "Decode instruction bytes given on the command line",
	Long: `Decode a sequence of instruction bytes in order and print each
instruction with its control-flow effect. Bytes may be separated by spaces
and prefixed with $ or 0x. Piped input is read before the arguments.`,
	Example: `
# A jump
gbdis decode c3 50 01

# Relative jumps resolved at an address
gbdis decode --pc 0x150 18fe

# From a pipe
echo "cb 7c 20 fb" | gbdis decode
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := MaybePrependStdin(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		code, err := parseHexBytes(input)
		if err != nil {
			return err
		}
		if len(code) == 0 {
			return fmt.Errorf("no bytes to decode")
		}

		pc, _ := cmd.Flags().GetString("pc")
		base, err := ParseAddr(pc)
		if err != nil {
			return err
		}
		return runDecode(cmd.OutOrStdout(), code, base)
	},
}

// parseHexBytes accepts "c3 50 01", "$C3 $50 $01", "0xc3,0x50" or "c35001".
func parseHexBytes(s string) ([]byte, error) {
	s = strings.NewReplacer("0x", " ", "0X", " ", "$", " ", ",", " ").Replace(s)
	digits := strings.Join(strings.Fields(s), "")
	if len(digits)%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits in %q", digits)
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes: %w", err)
	}
	return b, nil
}

// runDecode decodes code sequentially as if it were loaded at base.
func runDecode(w io.Writer, code []byte, base sm83.Addr) error {
	for pos := sm83.Addr(0); int(pos) < len(code); {
		inst, err := sm83.DecodeInstruction(code, pos)
		if err != nil {
			return fmt.Errorf("offset %d: %w", pos, err)
		}
		pc := base + pos
		eff := inst.Effect(pc)
		slog.Debug("Decoded", "pc", formatAddr(pc), "opcode", inst.Opcode, "prefixed", inst.Prefixed)

		var flow string
		switch eff.Kind {
		case sm83.Sequential, sm83.Terminal:
			flow = eff.Kind.String()
		default:
			succ := make([]string, 0, 2)
			for _, s := range eff.Successors() {
				succ = append(succ, formatAddr(s))
			}
			flow = fmt.Sprintf("%s -> %s", eff.Kind, strings.Join(succ, " "))
		}
		fmt.Fprintf(w, "%04x  %-9s %-24s ; %s\n", uint32(pc), fmt.Sprintf("% x", inst.Bytes()), inst.Format(pc), flow)
		pos += sm83.Addr(inst.Length)
	}
	return nil
}

func init() {
	decodeCmd.Flags().String("pc", "0", "Address of the first byte, for resolving relative jumps")
	rootCmd.AddCommand(decodeCmd)
}
