// Package colorize highlights disassembly listings for terminals.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// NoColorEnv disables all highlighting when set to any value.
const NoColorEnv = "GBDIS_NO_COLOR"

// prefixWidth covers the indented address and byte columns of a listing row.
const prefixWidth = 20

// Enabled reports whether highlighting is on.
func Enabled() bool {
	return os.Getenv(NoColorEnv) == ""
}

// getAssemblyLexer returns an appropriate assembly lexer with fallbacks.
// The nasm lexer understands $-prefixed hex and ; comments.
func getAssemblyLexer() chroma.Lexer {
	candidates := []string{"nasm", "gas", "GAS"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getDisasmStyle returns the disassembly style with fallbacks
func getDisasmStyle() *chroma.Style {
	candidates := []string{GBDark.Name, "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeLine colours a single listing row while preserving its columns.
// Rows look like
//
//	"    0101  c3 50 01  jp    loc_0150 ; comment"
//
// or, for labels, "loc_0150:".
func ColorizeLine(line string) string {
	if !Enabled() {
		return line
	}

	if !strings.HasPrefix(line, "    ") || len(line) < prefixWidth {
		return colorizeFullLine(line)
	}

	fields := strings.Fields(line[:prefixWidth])
	if len(fields) == 0 || !isHex(fields[0]) {
		return colorizeFullLine(line)
	}

	// Address in gray, raw bytes dimmer, the rest through chroma.
	addrEnd := strings.Index(line, fields[0]) + len(fields[0])
	addr := fmt.Sprintf("\033[38;2;110;110;110m%s\033[0m", line[:addrEnd])
	raw := fmt.Sprintf("\033[38;2;79;79;79m%s\033[0m", line[addrEnd:prefixWidth])
	return addr + raw + colorizeFullLine(line[prefixWidth:])
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return false
		}
	}
	return s != ""
}

// colorizeFullLine uses Chroma to colorize an assembly fragment
func colorizeFullLine(line string) string {
	lexer := getAssemblyLexer()
	if lexer == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), iterator); err != nil {
		return line
	}

	// Lexers may append a newline the row did not have.
	return strings.ReplaceAll(buf.String(), "\n", "")
}
