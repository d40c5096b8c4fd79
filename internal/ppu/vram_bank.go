package ppu

// Read satisfies VRAMReader for the internal renderer, reading through the
// currently selected VRAM bank (the renderer runs at the mode-3 draw point).
func (p *PPU) Read(addr uint16) byte { return p.ReadBank(int(p.vramBank), addr) }

// ReadBank reads VRAM from an explicit bank (0 or 1), bypassing the
// currently-selected bank. Bank 1 of the tile-map region doubles as the BG
// attribute table on CGB; bank 1 of the tile-data region is a second tile
// store.
func (p *PPU) ReadBank(bank int, addr uint16) byte {
	if addr < 0x8000 || addr > 0x9FFF {
		return 0xFF
	}
	off := addr - 0x8000
	if bank == 1 {
		return p.vram1[off]
	}
	return p.vram[off]
}

// writeBank mirrors ReadBank for writes, used by CPU writes and by CGB
// HDMA/GDMA copies through the currently-selected bank.
func (p *PPU) writeBank(bank int, addr uint16, v byte) {
	if addr < 0x8000 || addr > 0x9FFF {
		return
	}
	off := addr - 0x8000
	if bank == 1 {
		p.vram1[off] = v
	} else {
		p.vram[off] = v
	}
}

// readVBK/writeVBK read and write FF4F, the CGB VRAM bank select. Only bit 0 is
// meaningful; reads return it with the unused bits set.
func (p *PPU) readVBK() byte {
	if p.vramBank == 1 {
		return 0xFF
	}
	return 0xFE
}

func (p *PPU) writeVBK(v byte) {
	if v&0x01 != 0 {
		p.vramBank = 1
	} else {
		p.vramBank = 0
	}
}
