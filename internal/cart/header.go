package cart

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Header field offsets.
const (
	EntryOffset          = 0x100
	LogoOffset           = 0x104
	TitleOffset          = 0x134
	CGBFlagOffset        = 0x143
	NewLicenseeOffset    = 0x144
	SGBFlagOffset        = 0x146
	TypeOffset           = 0x147
	ROMSizeOffset        = 0x148
	RAMSizeOffset        = 0x149
	DestinationOffset    = 0x14A
	OldLicenseeOffset    = 0x14B
	VersionOffset        = 0x14C
	HeaderChecksumOffset = 0x14D
	GlobalChecksumOffset = 0x14E
	HeaderEnd            = 0x150
)

// ErrNoHeader is returned for images too short to hold a cartridge header.
var ErrNoHeader = errors.New("image too short for a cartridge header")

// nintendoLogo is the bitmap the boot ROM compares before starting a cartridge.
var nintendoLogo = []byte{
	0xCE, 0xED, 0x66, 0x66, 0xCC, 0x0D, 0x00, 0x0B, 0x03, 0x73, 0x00, 0x83, 0x00, 0x0C, 0x00, 0x0D,
	0x00, 0x08, 0x11, 0x1F, 0x88, 0x89, 0x00, 0x0E, 0xDC, 0xCC, 0x6E, 0xE6, 0xDD, 0xDD, 0xD9, 0x99,
	0xBB, 0xBB, 0x67, 0x63, 0x6E, 0x0E, 0xEC, 0xCC, 0xDD, 0xDC, 0x99, 0x9F, 0xBB, 0xB9, 0x33, 0x3E,
}

var cartridgeTypes = map[byte]string{
	0x00: "ROM ONLY",
	0x01: "MBC1",
	0x02: "MBC1+RAM",
	0x03: "MBC1+RAM+BATTERY",
	0x05: "MBC2",
	0x06: "MBC2+BATTERY",
	0x08: "ROM+RAM",
	0x09: "ROM+RAM+BATTERY",
	0x0B: "MMM01",
	0x0C: "MMM01+RAM",
	0x0D: "MMM01+RAM+BATTERY",
	0x0F: "MBC3+TIMER+BATTERY",
	0x10: "MBC3+TIMER+RAM+BATTERY",
	0x11: "MBC3",
	0x12: "MBC3+RAM",
	0x13: "MBC3+RAM+BATTERY",
	0x19: "MBC5",
	0x1A: "MBC5+RAM",
	0x1B: "MBC5+RAM+BATTERY",
	0x1C: "MBC5+RUMBLE",
	0x1D: "MBC5+RUMBLE+RAM",
	0x1E: "MBC5+RUMBLE+RAM+BATTERY",
	0x20: "MBC6",
	0x22: "MBC7+SENSOR+RUMBLE+RAM+BATTERY",
	0xFC: "POCKET CAMERA",
	0xFD: "BANDAI TAMA5",
	0xFE: "HuC3",
	0xFF: "HuC1+RAM+BATTERY",
}

var ramSizes = map[byte]int{
	0x00: 0,
	0x02: 8 << 10,
	0x03: 32 << 10,
	0x04: 128 << 10,
	0x05: 64 << 10,
}

// Header is the cartridge header at $0100-$014F.
type Header struct {
	Entry          [4]byte
	LogoValid      bool
	Title          string
	CGBFlag        byte
	NewLicensee    string
	SGBFlag        byte
	Type           byte
	ROMSizeCode    byte
	RAMSizeCode    byte
	Destination    byte
	OldLicensee    byte
	Version        byte
	HeaderChecksum byte
	GlobalChecksum uint16

	computedHeader byte
	computedGlobal uint16
}

// ParseHeader reads the cartridge header of a full image. The global
// checksum is computed over all of data.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderEnd {
		return nil, fmt.Errorf("%w: %d bytes", ErrNoHeader, len(data))
	}
	h := &Header{
		LogoValid:      bytes.Equal(data[LogoOffset:LogoOffset+len(nintendoLogo)], nintendoLogo),
		CGBFlag:        data[CGBFlagOffset],
		NewLicensee:    strings.TrimRight(string(data[NewLicenseeOffset:NewLicenseeOffset+2]), "\x00"),
		SGBFlag:        data[SGBFlagOffset],
		Type:           data[TypeOffset],
		ROMSizeCode:    data[ROMSizeOffset],
		RAMSizeCode:    data[RAMSizeOffset],
		Destination:    data[DestinationOffset],
		OldLicensee:    data[OldLicenseeOffset],
		Version:        data[VersionOffset],
		HeaderChecksum: data[HeaderChecksumOffset],
		GlobalChecksum: binary.BigEndian.Uint16(data[GlobalChecksumOffset:]),
		computedHeader: HeaderChecksum(data),
		computedGlobal: GlobalChecksum(data),
	}
	copy(h.Entry[:], data[EntryOffset:])

	// CGB cartridges reuse the last title byte as the CGB flag.
	titleEnd := CGBFlagOffset + 1
	if h.CGBFlag&0x80 != 0 {
		titleEnd = CGBFlagOffset
	}
	title := data[TitleOffset:titleEnd]
	if i := bytes.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	h.Title = strings.TrimSpace(string(title))
	return h, nil
}

// HeaderChecksum computes the checksum the boot ROM verifies over
// $0134-$014C.
func HeaderChecksum(data []byte) byte {
	var x byte
	for _, b := range data[TitleOffset:HeaderChecksumOffset] {
		x = x - b - 1
	}
	return x
}

// GlobalChecksum sums every byte of the image except the checksum itself.
func GlobalChecksum(data []byte) uint16 {
	var sum uint16
	for i, b := range data {
		if i == GlobalChecksumOffset || i == GlobalChecksumOffset+1 {
			continue
		}
		sum += uint16(b)
	}
	return sum
}

// HeaderChecksumOK reports whether the stored header checksum matches.
func (h *Header) HeaderChecksumOK() bool {
	return h.HeaderChecksum == h.computedHeader
}

// GlobalChecksumOK reports whether the stored global checksum matches. Real
// hardware never checks it.
func (h *Header) GlobalChecksumOK() bool {
	return h.GlobalChecksum == h.computedGlobal
}

// ComputedHeaderChecksum returns the checksum computed from the image.
func (h *Header) ComputedHeaderChecksum() byte { return h.computedHeader }

// ComputedGlobalChecksum returns the checksum computed from the image.
func (h *Header) ComputedGlobalChecksum() uint16 { return h.computedGlobal }

// TypeName returns the memory bank controller description.
func (h *Header) TypeName() string {
	if name, ok := cartridgeTypes[h.Type]; ok {
		return name
	}
	return fmt.Sprintf("unknown ($%02X)", h.Type)
}

// ROMSize returns the declared ROM size in bytes, or 0 for unknown codes.
func (h *Header) ROMSize() int {
	if h.ROMSizeCode > 8 {
		return 0
	}
	return (32 << 10) << h.ROMSizeCode
}

// ROMBanks returns the number of 16 KiB banks.
func (h *Header) ROMBanks() int {
	return h.ROMSize() / BankSize
}

// RAMSize returns the declared external RAM size in bytes.
func (h *Header) RAMSize() int {
	return ramSizes[h.RAMSizeCode]
}

// Model describes the console support declared by the CGB flag.
func (h *Header) Model() string {
	switch h.CGBFlag {
	case 0x80:
		return "CGB compatible"
	case 0xC0:
		return "CGB only"
	}
	return "DMG"
}

// SGB reports whether the cartridge declares Super Game Boy functions.
func (h *Header) SGB() bool {
	return h.SGBFlag == 0x03
}

// Licensee returns the publisher code, preferring the new two-character code
// when the old one defers to it.
func (h *Header) Licensee() string {
	if h.OldLicensee == 0x33 {
		return h.NewLicensee
	}
	return fmt.Sprintf("$%02X", h.OldLicensee)
}
