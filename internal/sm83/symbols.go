package sm83

// hardwareSymbols names memory-mapped registers and memory region bases.
var hardwareSymbols = map[uint16]string{
	0x0000: "ROM0",
	0x4000: "ROMX",
	0x8000: "VRAM",
	0xA000: "SRAM",
	0xC000: "WRAM0",
	0xD000: "WRAMX",
	0xE000: "ECHO",
	0xFE00: "OAM",
	0xFF80: "HRAM",

	0xFF00: "P1",
	0xFF01: "SB",
	0xFF02: "SC",
	0xFF04: "DIV",
	0xFF05: "TIMA",
	0xFF06: "TMA",
	0xFF07: "TAC",
	0xFF0F: "IF",

	0xFF10: "NR10",
	0xFF11: "NR11",
	0xFF12: "NR12",
	0xFF13: "NR13",
	0xFF14: "NR14",
	0xFF16: "NR21",
	0xFF17: "NR22",
	0xFF18: "NR23",
	0xFF19: "NR24",
	0xFF1A: "NR30",
	0xFF1B: "NR31",
	0xFF1C: "NR32",
	0xFF1D: "NR33",
	0xFF1E: "NR34",
	0xFF20: "NR41",
	0xFF21: "NR42",
	0xFF22: "NR43",
	0xFF23: "NR44",
	0xFF24: "NR50",
	0xFF25: "NR51",
	0xFF26: "NR52",
	0xFF30: "WAVE_RAM",

	0xFF40: "LCDC",
	0xFF41: "STAT",
	0xFF42: "SCY",
	0xFF43: "SCX",
	0xFF44: "LY",
	0xFF45: "LYC",
	0xFF46: "DMA",
	0xFF47: "BGP",
	0xFF48: "OBP0",
	0xFF49: "OBP1",
	0xFF4A: "WY",
	0xFF4B: "WX",
	0xFF4D: "KEY1",
	0xFF4F: "VBK",
	0xFF50: "BOOT",
	0xFF51: "HDMA1",
	0xFF52: "HDMA2",
	0xFF53: "HDMA3",
	0xFF54: "HDMA4",
	0xFF55: "HDMA5",
	0xFF56: "RP",
	0xFF68: "BCPS",
	0xFF69: "BCPD",
	0xFF6A: "OCPS",
	0xFF6B: "OCPD",
	0xFF70: "SVBK",
	0xFFFF: "IE",
}

// SymbolicAddress returns the conventional name of a hardware register or
// memory region base. Unnamed addresses yield an *UnknownAddressError.
func SymbolicAddress(addr uint16) (string, error) {
	if name, ok := hardwareSymbols[addr]; ok {
		return name, nil
	}
	return "", &UnknownAddressError{Addr: addr}
}
