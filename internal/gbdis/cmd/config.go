package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	gblog "gbdis/internal/gbdis/log"
	"gbdis/internal/sm83"
	"gbdis/internal/traverse"
)

// Config holds the traversal and output settings. It can be loaded from a
// JSON file with --config; flags given on the command line take precedence.
type Config struct {
	Entry       string `json:"entry,omitempty" jsonschema:"title=Entry,description=Entry address in hex such as 0x150 or $150 (default 0x100)"`
	Vectors     bool   `json:"vectors,omitempty" jsonschema:"title=Vectors,description=Also start from the restart and interrupt vectors"`
	StopOnError bool   `json:"stopOnError,omitempty" jsonschema:"title=Stop On Error,description=Abort at the first undecodable address"`
	Limit       int    `json:"limit,omitempty" jsonschema:"title=Limit,description=Maximum number of instructions to decode (0 means unlimited),minimum=0"`
	Debug       bool   `json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
	NoColor     bool   `json:"noColor,omitempty" jsonschema:"title=No Color,description=Disable syntax highlighting"`
}

// DefaultConfig starts at the cartridge entry point with everything else off.
func DefaultConfig() Config {
	return Config{Entry: fmt.Sprintf("0x%X", uint32(traverse.DefaultEntry))}
}

// LoadConfig reads a JSON config file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Limit < 0 {
		return cfg, fmt.Errorf("config %s: limit must not be negative", path)
	}
	return cfg, nil
}

// ParseAddr parses a hex address written as 0x150, $150 or 150. Only bus
// addresses up to $FFFF are accepted.
func ParseAddr(s string) (sm83.Addr, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "$")
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if sm83.Addr(v) > sm83.MaxAddr {
		return 0, fmt.Errorf("address %q is above $%04X", s, uint32(sm83.MaxAddr))
	}
	return sm83.Addr(v), nil
}

// EntryAddr returns the parsed entry address.
func (c Config) EntryAddr() (sm83.Addr, error) {
	if c.Entry == "" {
		return traverse.DefaultEntry, nil
	}
	return ParseAddr(c.Entry)
}

// Options translates the config into traversal options.
func (c Config) Options() []traverse.Option {
	var opts []traverse.Option
	if c.Vectors {
		opts = append(opts, traverse.WithVectors())
	}
	if c.StopOnError {
		opts = append(opts, traverse.WithStopOnError())
	}
	if c.Limit > 0 {
		opts = append(opts, traverse.WithLimit(c.Limit))
	}
	return opts
}

// configFromFlags loads --config when given and applies every flag the user
// set explicitly on top of it.
func configFromFlags(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("entry") {
		cfg.Entry, _ = flags.GetString("entry")
	}
	if flags.Changed("vectors") {
		cfg.Vectors, _ = flags.GetBool("vectors")
	}
	if flags.Changed("stop-on-error") {
		cfg.StopOnError, _ = flags.GetBool("stop-on-error")
	}
	if flags.Changed("limit") {
		cfg.Limit, _ = flags.GetInt("limit")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}

	if _, err := cfg.EntryAddr(); err != nil {
		return cfg, err
	}
	if cfg.Limit < 0 {
		return cfg, fmt.Errorf("--limit must not be negative")
	}
	return cfg, nil
}

// setupLogging resolves the config for cmd and starts logging, at debug
// level when either --debug or the config file asks for it.
func setupLogging(cmd *cobra.Command) (Config, error) {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		debug, _ := cmd.Flags().GetBool("debug")
		gblog.Setup(debug)
		return cfg, err
	}
	gblog.Setup(cfg.Debug)
	return cfg, nil
}

// addTraversalFlags registers the flags that feed configFromFlags.
func addTraversalFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("entry", "e", "", "Entry address in hex (default 0x100)")
	cmd.Flags().Bool("vectors", false, "Also start from the rst and interrupt vectors")
	cmd.Flags().Bool("stop-on-error", false, "Abort at the first undecodable address")
	cmd.Flags().Int("limit", 0, "Maximum number of instructions to decode")
	cmd.Flags().Bool("no-color", false, "Disable syntax highlighting")
}
