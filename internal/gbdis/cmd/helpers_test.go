package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"gbdis/internal/cart"
)

// writeROM writes a 32 KiB cartridge titled CMDTEST whose code runs from the
// entry point through a subroutine into an unused opcode at $015A.
func writeROM(t *testing.T, dir, name string) string {
	t.Helper()
	rom := make([]byte, 32<<10)
	for i := range rom {
		rom[i] = 0xD3
	}
	code := map[int][]byte{
		0x100: {0x00, 0xC3, 0x50, 0x01}, // nop; jp $0150
		0x150: {0xCD, 0x60, 0x01},       // call $0160
		0x153: {0x20, 0xFB},             // jr nz, $0150
		0x155: {0xE0, 0x40},             // ldh [$FF40], a
		0x157: {0x21, 0x00, 0x02},       // ld hl, $0200
		0x160: {0xEA, 0x00, 0xC0},       // ld [$C000], a
		0x163: {0xC9},                   // ret
		0x200: []byte("HELLO\x00"),
	}
	for addr, b := range code {
		copy(rom[addr:], b)
	}
	copy(rom[cart.TitleOffset:], "CMDTEST\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	for _, off := range []int{cart.NewLicenseeOffset, cart.NewLicenseeOffset + 1, cart.SGBFlagOffset,
		cart.TypeOffset, cart.ROMSizeOffset, cart.RAMSizeOffset, cart.DestinationOffset, cart.VersionOffset} {
		rom[off] = 0
	}
	rom[cart.OldLicenseeOffset] = 0x01
	rom[cart.HeaderChecksumOffset] = cart.HeaderChecksum(rom)
	sum := cart.GlobalChecksum(rom)
	rom[cart.GlobalChecksumOffset] = byte(sum >> 8)
	rom[cart.GlobalChecksumOffset+1] = byte(sum)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, rom, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
