package analysis

import "gbdis/internal/sm83"

const (
	// MinStringLength is the shortest run of printable bytes reported as text.
	MinStringLength = 4

	// MaxStringLength caps how far a text pointer is followed.
	MaxStringLength = 64

	// MaxXrefs is the number of referencing addresses listed on a label row.
	MaxXrefs = 4

	// HeaderStart and HeaderEnd bound the cartridge header after the entry
	// point: logo, title and flags.
	HeaderStart sm83.Addr = 0x104
	HeaderEnd   sm83.Addr = 0x150
)

// vectorNames labels the addresses hardware or rst instructions enter.
var vectorNames = map[sm83.Addr]string{
	0x00:  "rst_00",
	0x08:  "rst_08",
	0x10:  "rst_10",
	0x18:  "rst_18",
	0x20:  "rst_20",
	0x28:  "rst_28",
	0x30:  "rst_30",
	0x38:  "rst_38",
	0x40:  "int_vblank",
	0x48:  "int_stat",
	0x50:  "int_timer",
	0x58:  "int_serial",
	0x60:  "int_joypad",
	0x100: "entry",
}
