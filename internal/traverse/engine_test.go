package traverse

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"gbdis/internal/sm83"
)

// newImage returns a size-byte image filled with $D3, an undefined opcode,
// with the given code placed at each address.
func newImage(size int, code map[sm83.Addr][]byte) []byte {
	img := make([]byte, size)
	for i := range img {
		img[i] = 0xD3
	}
	for addr, b := range code {
		copy(img[addr:], b)
	}
	return img
}

func TestDisassembleUnconditionalJump(t *testing.T) {
	img := newImage(0x300, map[sm83.Addr][]byte{
		0x100: {0xC3, 0x00, 0x02}, // jp $0200
		0x200: {0x00, 0xC9},       // nop; ret
	})

	res, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatal(err)
	}
	want := []sm83.Addr{0x100, 0x200, 0x201}
	if diff := cmp.Diff(want, res.Addresses()); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sm83.Addr{0x200}, res.Edges[0x100]); diff != "" {
		t.Errorf("jp successors mismatch (-want +got):\n%s", diff)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestDisassembleConditionalJumpFollowsBothPaths(t *testing.T) {
	img := newImage(0x300, map[sm83.Addr][]byte{
		0x100: {0xCA, 0x00, 0x02}, // jp z, $0200
		0x103: {0xC9},             // ret
		0x200: {0xC9},             // ret
	})

	res, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]sm83.Addr{0x100, 0x103, 0x200}, res.Addresses()); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sm83.Addr{0x200, 0x103}, res.Edges[0x100]); diff != "" {
		t.Errorf("conditional successors mismatch (-want +got):\n%s", diff)
	}
}

func TestDisassembleBackwardBranchTerminates(t *testing.T) {
	img := newImage(0x200, map[sm83.Addr][]byte{
		0x100: {0x00},       // nop
		0x101: {0x18, 0xFD}, // jr $0100
	})

	res, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]sm83.Addr{0x100, 0x101}, res.Addresses()); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
}

func TestDisassembleRecordsErrorsAndContinues(t *testing.T) {
	img := newImage(0x300, map[sm83.Addr][]byte{
		0x100: {0xC2, 0x00, 0x02}, // jp nz, $0200
		0x103: {0x3E, 0x01, 0xC9}, // ld a, $01; ret
	})

	res, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatalf("collecting mode returned error: %v", err)
	}
	if diff := cmp.Diff([]sm83.Addr{0x100, 0x103, 0x105}, res.Addresses()); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(res.Errors[0x200], sm83.ErrUnknownOpcode) {
		t.Errorf("error at $0200 = %v, want unknown opcode", res.Errors[0x200])
	}
	if _, ok := res.Instructions[0x200]; ok {
		t.Error("failed address stored as an instruction")
	}
}

func TestDisassembleStopOnError(t *testing.T) {
	img := newImage(0x300, map[sm83.Addr][]byte{
		0x100: {0xC3, 0x00, 0x02}, // jp $0200
	})

	res, err := Disassemble(img, DefaultEntry, WithStopOnError())
	var addrErr *AddrError
	if !errors.As(err, &addrErr) || addrErr.Addr != 0x200 {
		t.Fatalf("got %v, want AddrError at $0200", err)
	}
	if !errors.Is(err, sm83.ErrUnknownOpcode) {
		t.Errorf("errors.Is(err, ErrUnknownOpcode) = false for %v", err)
	}
	if diff := cmp.Diff([]sm83.Addr{0x100}, res.Addresses()); diff != "" {
		t.Errorf("partial result mismatch (-want +got):\n%s", diff)
	}
}

func TestDisassembleRunsOffImageEnd(t *testing.T) {
	img := make([]byte, 0x104) // nop sled up to the end

	res, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(res.Instructions); got != 4 {
		t.Errorf("decoded %d instructions, want 4", got)
	}
	if !errors.Is(res.Errors[0x104], sm83.ErrTruncatedInstruction) {
		t.Errorf("error at $0104 = %v, want truncated instruction", res.Errors[0x104])
	}
}

func TestDisassembleJumpOutsideImage(t *testing.T) {
	img := newImage(0x200, map[sm83.Addr][]byte{
		0x100: {0xC3, 0x00, 0xC0}, // jp $C000
	})

	res, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(res.Errors[0xC000], sm83.ErrTruncatedInstruction) {
		t.Errorf("error at $C000 = %v, want truncated instruction", res.Errors[0xC000])
	}
}

func TestDisassembleStaysOnTheBus(t *testing.T) {
	img := newImage(0x14010, map[sm83.Addr][]byte{
		0xFFFF:  {0x00},       // nop, falls through to $10000
		0x14000: {0x18, 0x02}, // jr in bank 5, file offset only
	})

	tests := []struct {
		name  string
		entry sm83.Addr
		fail  sm83.Addr
		want  []sm83.Addr
	}{
		{name: "banked seed", entry: 0x14000, fail: 0x14000},
		{name: "fallthrough past $FFFF", entry: 0xFFFF, fail: 0x10000, want: []sm83.Addr{0xFFFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Disassemble(img, tt.entry)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, res.Addresses(), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("visited mismatch (-want +got):\n%s", diff)
			}
			if !errors.Is(res.Errors[tt.fail], ErrAddressRange) {
				t.Errorf("error at $%04X = %v, want ErrAddressRange", tt.fail, res.Errors[tt.fail])
			}
		})
	}

	_, err := Disassemble(img, 0x14000, WithStopOnError())
	var addrErr *AddrError
	if !errors.As(err, &addrErr) || addrErr.Addr != 0x14000 || !errors.Is(err, ErrAddressRange) {
		t.Errorf("got %v, want AddrError at $14000 wrapping ErrAddressRange", err)
	}
}

func TestWithLoggerTracesRun(t *testing.T) {
	img := newImage(0x300, map[sm83.Addr][]byte{
		0x100: {0xC3, 0x00, 0x02}, // jp $0200
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := Disassemble(img, DefaultEntry, WithLogger(logger)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"traversal started", `msg="decode failed" addr=$0200`, "traversal finished", "instructions=1", "errors=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleIsIdempotent(t *testing.T) {
	img := newImage(0x400, map[sm83.Addr][]byte{
		0x100: {0xCD, 0x00, 0x03}, // call $0300
		0x103: {0x20, 0xFB},       // jr nz, $0100
		0x105: {0x18, 0xFE},       // jr $0105
		0x300: {0xD8, 0x3C, 0xC9}, // ret c; inc a; ret
	})

	first, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Disassemble(img, DefaultEntry)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first.Instructions, second.Instructions); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
	want := []sm83.Addr{0x100, 0x103, 0x105, 0x300, 0x301, 0x302}
	if diff := cmp.Diff(want, first.Addresses()); diff != "" {
		t.Errorf("visited mismatch (-want +got):\n%s", diff)
	}
}

// Seeding order changes the pop order but never the visited map.
func TestVisitedMapIndependentOfQueueOrder(t *testing.T) {
	img := newImage(0x200, map[sm83.Addr][]byte{
		0x000: {0xC9}, // rst $00 handler
		0x040: {0xD9}, // vblank handler
		0x100: {0x00, 0xC3, 0x50, 0x01},
		0x150: {0xFB, 0x76, 0x18, 0xFC}, // ei; halt; jr $0150
	})
	seeds := []sm83.Addr{0x100, 0x040, 0x000}

	forward := NewEngine(img)
	forward.Seed(seeds...)
	a, err := forward.Run()
	if err != nil {
		t.Fatal(err)
	}

	backward := NewEngine(img)
	for i := len(seeds) - 1; i >= 0; i-- {
		backward.Seed(seeds[i])
	}
	b, err := backward.Run()
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(a.Instructions, b.Instructions); diff != "" {
		t.Errorf("visited maps differ (-forward +backward):\n%s", diff)
	}
}

func TestWithVectorsSeedsHandlers(t *testing.T) {
	code := map[sm83.Addr][]byte{0x100: {0x76, 0x18, 0xFD}} // halt; jr $0100
	for _, v := range append(append([]sm83.Addr{}, RestartVectors...), InterruptVectors...) {
		code[v] = []byte{0xD9} // reti
	}
	img := newImage(0x200, code)

	res, err := Disassemble(img, DefaultEntry, WithVectors())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(res.Instructions), 2+len(RestartVectors)+len(InterruptVectors); got != want {
		t.Errorf("decoded %d instructions, want %d", got, want)
	}
	if res.Entries[0] != DefaultEntry {
		t.Errorf("first entry = %#x, want the default entry", res.Entries[0])
	}
}

func TestWithLimitTruncates(t *testing.T) {
	img := make([]byte, 0x200)

	res, err := Disassemble(img, DefaultEntry, WithLimit(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Instructions) != 5 || !res.Truncated {
		t.Errorf("got %d instructions, truncated=%v; want 5, true", len(res.Instructions), res.Truncated)
	}
}

func TestStepDecodesOneAddressAtATime(t *testing.T) {
	img := newImage(0x200, map[sm83.Addr][]byte{
		0x100: {0x00, 0x00, 0xC9},
	})
	e := NewEngine(img)
	e.Seed(DefaultEntry, DefaultEntry)

	steps := 0
	for e.Step() {
		steps++
		if got := len(e.Result().Instructions); got != steps {
			t.Fatalf("after %d steps visited %d addresses", steps, got)
		}
	}
	if steps != 3 {
		t.Errorf("took %d steps, want 3", steps)
	}
	if e.Pending() != 0 || e.Err() != nil {
		t.Errorf("pending=%d err=%v after drain", e.Pending(), e.Err())
	}
}
