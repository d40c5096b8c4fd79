package ppu

// BankedVRAMReader is implemented by VRAM sources that expose both CGB
// banks. Tests and the live PPU both implement it; tile-data reads use
// bank 0 or 1 per the attribute byte, while tile-map attribute reads always
// come from bank 1 at the same map offset as the tile index in bank 0.
type BankedVRAMReader interface {
	ReadBank(bank int, addr uint16) byte
}

const (
	cgbAttrPriority = 1 << 7
	cgbAttrYFlip    = 1 << 6
	cgbAttrXFlip    = 1 << 5
	cgbAttrBank     = 1 << 3
	cgbAttrPalette  = 0x07
)

// RenderBGScanlineCGB renders 160 BG pixels for ly along with their CGB
// palette index and BG-priority-over-sprite flag, reading tile attributes
// from VRAM bank 1 at attrBase (mirrors mapBase).
func RenderBGScanlineCGB(mem BankedVRAMReader, mapBase, attrBase uint16, tileData8000 bool, scx, scy, ly byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	bgY := uint16(ly) + uint16(scy)
	fineY := byte(bgY & 7)
	mapY := (bgY >> 3) & 31

	for x := 0; x < 160; x++ {
		bgX := (uint16(x) + uint16(scx)) & 0xFF
		tileX := (bgX >> 3) & 31
		mapOff := mapY*32 + tileX
		tileNum := mem.ReadBank(0, mapBase+mapOff)
		attr := mem.ReadBank(1, attrBase+mapOff)

		row := fineY
		if attr&cgbAttrYFlip != 0 {
			row = 7 - row
		}
		bank := 0
		if attr&cgbAttrBank != 0 {
			bank = 1
		}
		var base uint16
		if tileData8000 {
			base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
		} else {
			base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
		}
		lo := mem.ReadBank(bank, base)
		hi := mem.ReadBank(bank, base+1)
		col := byte(bgX & 7)
		if attr&cgbAttrXFlip != 0 {
			col = 7 - col
		}
		bit := 7 - col
		ci[x] = ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
		pal[x] = attr & cgbAttrPalette
		pri[x] = attr&cgbAttrPriority != 0
	}
	return
}

// RenderWindowScanlineCGB renders the window layer starting at wxStart,
// analogous to RenderBGScanlineCGB but indexed by the internal window line.
func RenderWindowScanlineCGB(mem BankedVRAMReader, mapBase, attrBase uint16, tileData8000 bool, wxStart int, winLine byte) (ci [160]byte, pal [160]byte, pri [160]bool) {
	if wxStart < 0 {
		wxStart = 0
	}
	mapY := (uint16(winLine) >> 3) & 31
	fineY := winLine & 7
	for x := wxStart; x < 160; x++ {
		wx := uint16(x - wxStart)
		tileX := (wx >> 3) & 31
		mapOff := mapY*32 + tileX
		tileNum := mem.ReadBank(0, mapBase+mapOff)
		attr := mem.ReadBank(1, attrBase+mapOff)

		row := fineY
		if attr&cgbAttrYFlip != 0 {
			row = 7 - row
		}
		bank := 0
		if attr&cgbAttrBank != 0 {
			bank = 1
		}
		var base uint16
		if tileData8000 {
			base = 0x8000 + uint16(tileNum)*16 + uint16(row)*2
		} else {
			base = 0x9000 + uint16(int8(tileNum))*16 + uint16(row)*2
		}
		lo := mem.ReadBank(bank, base)
		hi := mem.ReadBank(bank, base+1)
		col := byte(wx & 7)
		if attr&cgbAttrXFlip != 0 {
			col = 7 - col
		}
		bit := 7 - col
		ci[x] = ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
		pal[x] = attr & cgbAttrPalette
		pri[x] = attr&cgbAttrPriority != 0
	}
	return
}
