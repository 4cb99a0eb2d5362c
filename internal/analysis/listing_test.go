package analysis

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gbdis/internal/cart"
	"gbdis/internal/sm83"
	"gbdis/internal/traverse"
)

// program lays out a small routine from the entry point. Unused bytes hold
// the unused opcode $D3 so stray paths fail loudly.
func program(t *testing.T) []byte {
	t.Helper()
	img := make([]byte, 0x8000)
	for i := range img {
		img[i] = 0xD3
	}
	code := map[int][]byte{
		0x100: {0x00},             // nop
		0x101: {0xC3, 0x50, 0x01}, // jp $0150
		0x150: {0xCD, 0x60, 0x01}, // call $0160
		0x153: {0x20, 0xFB},       // jr nz, $0150
		0x155: {0xE0, 0x40},       // ldh [$FF40], a
		0x157: {0x21, 0x00, 0x02}, // ld hl, $0200
		0x160: {0xEA, 0x00, 0xC0}, // ld [$C000], a
		0x163: {0xC9},             // ret
		0x200: []byte("HELLO\x00"),
	}
	for addr, b := range code {
		copy(img[addr:], b)
	}
	return img
}

func run(t *testing.T, img []byte) *traverse.Result {
	t.Helper()
	res, err := traverse.Disassemble(img, traverse.DefaultEntry)
	if err != nil {
		t.Fatalf("Disassemble() error = %v", err)
	}
	return res
}

// render reduces rows to their text without column padding.
func render(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		var s string
		switch {
		case l.IsLabel():
			s = l.Label + ":"
		case l.Err != nil:
			s = fmt.Sprintf("%04x error", uint32(l.Addr))
		default:
			s = strings.TrimSpace(fmt.Sprintf("%04x %s %s", uint32(l.Addr), l.Mnemonic, strings.Join(l.Operands, ", ")))
		}
		if len(l.Annotations) > 0 {
			s += " ; " + strings.Join(l.Annotations, ", ")
		}
		out = append(out, s)
	}
	return out
}

func TestBuildListing(t *testing.T) {
	img := program(t)
	res := run(t, img)

	lines := BuildListing(res, img)
	want := []string{
		"0100 nop",
		"0101 jp $0150",
		"0150 call $0160",
		"0153 jr nz, $0150",
		"0155 ldh [$FF40], a",
		"0157 ld hl, $0200",
		"015a error",
		"0160 ld [$C000], a",
		"0163 ret",
	}
	if diff := cmp.Diff(want, render(lines)); diff != "" {
		t.Errorf("BuildListing() mismatch (-want +got):\n%s", diff)
	}

	failed := lines[6]
	if !errors.Is(failed.Err, sm83.ErrUnknownOpcode) {
		t.Errorf("row $015A error = %v, want ErrUnknownOpcode", failed.Err)
	}
	if len(failed.Bytes) != 1 || failed.Bytes[0] != 0xD3 {
		t.Errorf("row $015A bytes = % x, want d3", failed.Bytes)
	}
}

func TestAnnotatorChain(t *testing.T) {
	img := program(t)
	res := run(t, img)

	chain := NewAnnotatorChain(
		LabelAnnotator{Result: res},
		HardwareAnnotator{},
		StringAnnotator{Image: img},
	)
	got := render(chain.Annotate(BuildListing(res, img)))
	want := []string{
		"entry:",
		"0100 nop",
		"0101 jp loc_0150",
		"loc_0150: ; xref $0101 $0153",
		"0150 call sub_0160",
		"0153 jr nz, loc_0150",
		"0155 ldh [$FF40], a ; LCDC",
		`0157 ld hl, $0200 ; "HELLO"`,
		"015a error",
		"sub_0160: ; xref $0150",
		"0160 ld [$C000], a ; WRAM0",
		"0163 ret",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Annotate() mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelAnnotatorLeavesInputOperands(t *testing.T) {
	img := program(t)
	res := run(t, img)

	lines := BuildListing(res, img)
	LabelAnnotator{Result: res}.Annotate(lines)
	if got := strings.Join(lines[1].Operands, ", "); got != "$0150" {
		t.Errorf("input row rewritten to %q", got)
	}
}

func TestLabelsPreferVectorAndCallNames(t *testing.T) {
	img := make([]byte, 0x200)
	for i := range img {
		img[i] = 0xD3
	}
	copy(img[0x100:], []byte{0xC3, 0x10, 0x01}) // jp $0110
	copy(img[0x110:], []byte{0xFF})             // rst $38
	copy(img[0x38:], []byte{0xCD, 0x10, 0x01})  // call $0110
	copy(img[0x3B:], []byte{0xC9})              // ret
	copy(img[0x40:], []byte{0xD9})              // reti

	res, err := traverse.Disassemble(img, traverse.DefaultEntry, traverse.WithSeeds(traverse.InterruptVectors[0]))
	if err != nil {
		t.Fatal(err)
	}
	got := LabelAnnotator{Result: res}.Labels()
	want := map[sm83.Addr]string{
		0x100: "entry",
		0x40:  "int_vblank",
		0x38:  "rst_38",
		0x110: "sub_0110",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Labels() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatXrefs(t *testing.T) {
	tests := []struct {
		from []sm83.Addr
		want string
	}{
		{from: []sm83.Addr{0x200, 0x100}, want: "$0100 $0200"},
		{from: []sm83.Addr{5, 4, 3, 2, 1, 0}, want: "$0000 $0001 $0002 $0003 +2"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatXrefs(tt.from); got != tt.want {
				t.Errorf("formatXrefs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeaderAnnotator(t *testing.T) {
	img := program(t)
	copy(img[cart.TitleOffset:], "TESTGAME\x00\x00\x00\x00\x00\x00\x00\x00")
	img[cart.CGBFlagOffset] = 0
	im := cart.New("test.gb", img)
	if im.Header == nil {
		t.Fatal("no header parsed")
	}

	lines := []Line{
		{Addr: 0x100, Mnemonic: "nop"},
		{Addr: 0x104, Mnemonic: "adc"},
		{Addr: 0x150, Mnemonic: "nop"},
	}
	got := render(HeaderAnnotator{Header: im.Header}.Annotate(lines))
	want := []string{
		`0100 nop ; entry point of "TESTGAME"`,
		"0104 adc ; inside cartridge header",
		"0150 nop",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Annotate() mismatch (-want +got):\n%s", diff)
	}

	if out := (HeaderAnnotator{}).Annotate(lines); len(out) != len(lines) {
		t.Error("nil header changed the listing")
	}
}

func TestReadString(t *testing.T) {
	img := []byte("\x01ABC\x00GAME OVER\x00TAIL\nLAST")
	tests := []struct {
		name   string
		addr   sm83.Addr
		want   string
		wantOK bool
	}{
		{name: "too short", addr: 1},
		{name: "terminated", addr: 5, want: "GAME OVER", wantOK: true},
		{name: "control byte", addr: 15, want: "TAIL", wantOK: true},
		{name: "image end", addr: 20, want: "LAST", wantOK: true},
		{name: "unprintable", addr: 0},
		{name: "out of range", addr: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ReadString(img, tt.addr, MaxStringLength)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ReadString() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLineString(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want string
	}{
		{
			name: "label",
			line: Line{Addr: 0x150, Label: "loc_0150"},
			want: "loc_0150:",
		},
		{
			name: "instruction",
			line: Line{Addr: 0x101, Bytes: []byte{0xC3, 0x50, 0x01}, Mnemonic: "jp", Operands: []string{"loc_0150"}},
			want: "    0101  c3 50 01  jp    loc_0150",
		},
		{
			name: "annotated",
			line: Line{Addr: 0x155, Bytes: []byte{0xE0, 0x40}, Mnemonic: "ldh", Operands: []string{"[$FF40]", "a"}, Annotations: []string{"LCDC"}},
			want: "    0155  e0 40     ldh   [$FF40], a               ; LCDC",
		},
		{
			name: "failure",
			line: Line{Addr: 0x15A, Bytes: []byte{0xD3}, Err: errors.New("boom")},
			want: "    015a  d3        db    $D3                      ; boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.String(); got != tt.want {
				t.Errorf("String() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	img := program(t)
	res := run(t, img)

	got := Summarize(res, img)
	want := Summary{
		Instructions: 8,
		Errors:       1,
		Subroutines:  1,
		Labels:       3,
		CodeBytes:    1 + 3 + 3 + 2 + 2 + 3 + 3 + 1,
		ImageBytes:   len(img),
		Coverage:     18.0 / float64(len(img)),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}
