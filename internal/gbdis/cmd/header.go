package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"gbdis/internal/cart"
	"gbdis/internal/gbdis/styles"
	"gbdis/internal/ui/colorize"
)

// HeaderInfo is the cartridge header as reported in JSON.
type HeaderInfo struct {
	Title          string `json:"title"`
	Model          string `json:"model"`
	SGB            bool   `json:"sgb"`
	Type           string `json:"type"`
	ROMSize        int    `json:"rom_size"`
	RAMSize        int    `json:"ram_size"`
	Licensee       string `json:"licensee"`
	Version        int    `json:"version"`
	LogoValid      bool   `json:"logo_valid"`
	HeaderChecksum bool   `json:"header_checksum_ok"`
	GlobalChecksum bool   `json:"global_checksum_ok"`
}

func newHeaderInfo(h *cart.Header) *HeaderInfo {
	return &HeaderInfo{
		Title:          h.Title,
		Model:          h.Model(),
		SGB:            h.SGB(),
		Type:           h.TypeName(),
		ROMSize:        h.ROMSize(),
		RAMSize:        h.RAMSize(),
		Licensee:       h.Licensee(),
		Version:        int(h.Version),
		LogoValid:      h.LogoValid,
		HeaderChecksum: h.HeaderChecksumOK(),
		GlobalChecksum: h.GlobalChecksumOK(),
	}
}

var headerCmd = &cobra.Command{
	Use:   "header <rom>",
	Short: "Show the cartridge header",
	Long: `Show the cartridge header: title, hardware support, memory bank
controller, ROM and RAM sizes, and whether the logo and checksums verify.`,
	Example: `
# Inspect a cartridge
gbdis header game.gbc
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		im, err := cart.Open(args[0])
		if err != nil {
			return err
		}
		if im.Header == nil {
			return fmt.Errorf("%s: %w", args[0], cart.ErrNoHeader)
		}

		md := headerMarkdown(im)
		tty := term.IsTerminal(os.Stdout.Fd())
		if !tty {
			_, err := io.WriteString(cmd.OutOrStdout(), md)
			return err
		}

		width, _, err := term.GetSize(os.Stdout.Fd())
		if err != nil || width <= 0 {
			width = 80
		}
		rendered, err := styles.Render(md, width-2, colorize.Enabled())
		if err != nil {
			return fmt.Errorf("render header: %w", err)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), rendered)
		return err
	},
}

func check(ok bool) string {
	if ok {
		return "ok"
	}
	return "**bad**"
}

// headerMarkdown renders the header of im as a markdown report.
func headerMarkdown(im *cart.Image) string {
	h := im.Header
	var b strings.Builder

	title := h.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "`%s`\n\n", im.Path)

	b.WriteString("| Field | Value |\n|---|---|\n")
	row := func(k, format string, args ...any) {
		fmt.Fprintf(&b, "| %s | %s |\n", k, fmt.Sprintf(format, args...))
	}
	row("Model", "%s", h.Model())
	row("SGB", "%v", h.SGB())
	row("Type", "%s", h.TypeName())
	row("ROM", "%d KiB (%d banks, %d in file)", h.ROMSize()>>10, h.ROMBanks(), im.Banks())
	row("RAM", "%d KiB", h.RAMSize()>>10)
	row("Licensee", "%s", h.Licensee())
	row("Version", "%d", h.Version)
	row("Entry", "`% x`", h.Entry[:])
	row("Logo", "%s", check(h.LogoValid))
	row("Header checksum", "$%02X, computed $%02X, %s", h.HeaderChecksum, h.ComputedHeaderChecksum(), check(h.HeaderChecksumOK()))
	row("Global checksum", "$%04X, computed $%04X, %s", h.GlobalChecksum, h.ComputedGlobalChecksum(), check(h.GlobalChecksumOK()))
	row("SHA-256", "`%s`", im.Digest())
	return b.String()
}

func init() {
	rootCmd.AddCommand(headerCmd)
}
