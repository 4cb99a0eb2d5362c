package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"gbdis/internal/analysis"
	"gbdis/internal/cart"
	gblog "gbdis/internal/gbdis/log"
	"gbdis/internal/sm83"
	"gbdis/internal/traverse"
	"gbdis/internal/ui/colorize"
)

// JSONOutput is the report printed by --json.
type JSONOutput struct {
	File         string            `json:"file"`
	Digest       string            `json:"digest"`
	Header       *HeaderInfo       `json:"header,omitempty"`
	Entries      []string          `json:"entries"`
	Summary      analysis.Summary  `json:"summary"`
	Instructions []JSONInstruction `json:"instructions"`
	Errors       []JSONError       `json:"errors,omitempty"`
}

// JSONInstruction is one decoded instruction of the report.
type JSONInstruction struct {
	Address     string   `json:"address"`
	Bytes       string   `json:"bytes"`
	Text        string   `json:"text"`
	Label       string   `json:"label,omitempty"`
	Successors  []string `json:"successors,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
}

// JSONError is one address whose decoding failed.
type JSONError struct {
	Address string `json:"address"`
	Error   string `json:"error"`
}

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("config", "", "JSON config file (see `gbdis schema`)")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the listing without TUI")
	rootCmd.Flags().BoolP("json", "j", false, "Output results as JSON")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
	addTraversalFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:   "gbdis <rom>",
	Short: "Game Boy disassembler",
	Long: `Gbdis disassembles Game Boy cartridge images by following control flow
from the entry point, so that data is never decoded as code. It provides an
interactive TUI for browsing the listing and its labels.`,
	Example: `
# Browse a cartridge interactively
gbdis game.gb

# Print the listing, also following the interrupt handlers
gbdis -n --vectors game.gb

# Machine readable report
gbdis --json game.gb.zip
  `,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}
		_, err := setupLogging(cmd)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup CPU profiling if requested
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		// Setup memory profiling if requested
		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return fmt.Errorf("cannot access file: %w", err)
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		// Also use no-tui mode when output is being piped
		if !term.IsTerminal(os.Stdout.Fd()) {
			noTUI = true
			cfg.NoColor = true
		}
		if cfg.NoColor {
			os.Setenv(colorize.NoColorEnv, "1")
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return runJSON(out, absPath, cfg)
		}
		if noTUI {
			return runNoTUI(out, absPath, cfg)
		}

		program := tea.NewProgram(
			NewModel(absPath, cfg),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

// analyze loads path and traverses it as configured. A traversal stopped by
// --stop-on-error returns its partial result alongside the error.
func analyze(path string, cfg Config) (*cart.Image, *traverse.Result, error) {
	im, err := cart.Open(path)
	if err != nil {
		return nil, nil, err
	}
	entry, err := cfg.EntryAddr()
	if err != nil {
		return im, nil, err
	}

	logger := slog.Default().With("file", pathpkg.Base(path))
	logger.Debug("Disassembling", "size", len(im.Data), "entry", fmt.Sprintf("$%04X", uint32(entry)))
	opts := append(cfg.Options(), traverse.WithLogger(logger))
	res, err := traverse.Disassemble(im.Data, entry, opts...)
	if err != nil {
		return im, res, fmt.Errorf("disassemble %s: %w", pathpkg.Base(path), err)
	}
	return im, res, nil
}

func runJSON(w io.Writer, filePath string, cfg Config) error {
	im, res, stopErr := analyze(filePath, cfg)
	if res == nil {
		return stopErr
	}

	output := JSONOutput{
		File:    filePath,
		Digest:  im.Digest(),
		Summary: analysis.Summarize(res, im.Data),
	}
	if im.Header != nil {
		output.Header = newHeaderInfo(im.Header)
	}
	for _, e := range res.Entries {
		output.Entries = append(output.Entries, formatAddr(e))
	}

	labels := analysis.LabelAnnotator{Result: res}.Labels()
	for _, line := range analysis.Annotated(res, im) {
		switch {
		case line.IsLabel():
			continue
		case line.Err != nil:
			output.Errors = append(output.Errors, JSONError{
				Address: formatAddr(line.Addr),
				Error:   line.Err.Error(),
			})
		default:
			inst := JSONInstruction{
				Address:     formatAddr(line.Addr),
				Bytes:       fmt.Sprintf("%x", line.Bytes),
				Text:        line.Inst.Format(line.Addr),
				Label:       labels[line.Addr],
				Annotations: line.Annotations,
			}
			for _, s := range res.Edges[line.Addr] {
				inst.Successors = append(inst.Successors, formatAddr(s))
			}
			output.Instructions = append(output.Instructions, inst)
		}
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))
	return stopErr
}

func runNoTUI(w io.Writer, filePath string, cfg Config) error {
	im, res, err := analyze(filePath, cfg)
	if res == nil {
		return err
	}

	fmt.Fprintf(w, "; %s\n", filePath)
	fmt.Fprintf(w, "; sha256 %s\n", im.Digest())
	if h := im.Header; h != nil {
		fmt.Fprintf(w, "; %q %s, %s, %d banks\n", h.Title, h.TypeName(), h.Model(), im.Banks())
	}
	fmt.Fprintln(w)

	for _, line := range analysis.Annotated(res, im) {
		text := line.String()
		if line.IsLabel() {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, colorize.ColorizeLine(text))
	}

	s := analysis.Summarize(res, im.Data)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "; %d instructions, %d errors, %d labels, %d/%d bytes of code (%.1f%%)\n",
		s.Instructions, s.Errors, s.Labels, s.CodeBytes, s.ImageBytes, 100*s.Coverage)
	if s.Truncated {
		fmt.Fprintf(w, "; stopped after %d instructions\n", cfg.Limit)
	}
	return err
}

func formatAddr(a sm83.Addr) string {
	return fmt.Sprintf("$%04X", uint32(a))
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	// Check if output is plain to bypass fang's markdown rendering
	plain := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" || arg == "--json" || arg == "-j" {
			plain = true
			break
		}
	}

	// Also bypass fang when output is being piped
	if !plain && !term.IsTerminal(os.Stdout.Fd()) {
		plain = true
	}

	var err error
	if plain {
		err = rootCmd.Execute()
	} else {
		err = fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		)
	}
	if cerr := gblog.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}

// MaybePrependStdin returns text piped on stdin followed by prompt, or
// prompt alone when stdin is a terminal.
func MaybePrependStdin(prompt string) (string, error) {
	if term.IsTerminal(os.Stdin.Fd()) {
		return prompt, nil
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return prompt, err
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		return prompt, nil
	}
	bts, err := io.ReadAll(os.Stdin)
	if err != nil {
		return prompt, err
	}
	return strings.TrimSpace(string(bts) + " " + prompt), nil
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
