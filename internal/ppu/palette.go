package ppu

// dmgShades are the four fixed DMG grey shades (color index 0..3), white to
// black, expressed as 8-bit RGB.
var dmgShades = [4][3]byte{
	{0xE0, 0xF8, 0xD0},
	{0x88, 0xC0, 0x70},
	{0x34, 0x68, 0x56},
	{0x08, 0x18, 0x20},
}

// DMGColor converts a 2-bit color index through a DMG-style palette byte
// (BGP/OBP0/OBP1: each 2-bit field selects a shade) into RGB.
func DMGColor(paletteReg byte, ci byte) (r, g, b byte) {
	shade := (paletteReg >> (ci * 2)) & 0x03
	c := dmgShades[shade]
	return c[0], c[1], c[2]
}

// cgb15ToRGB converts a little-endian 15-bit BGR color (as stored in CGB
// palette RAM) to 8-bit RGB, scaling 5-bit channels up to 8 bits.
func cgb15ToRGB(lo, hi byte) (r, g, b byte) {
	v := uint16(lo) | uint16(hi)<<8
	r5 := byte(v & 0x1F)
	g5 := byte((v >> 5) & 0x1F)
	b5 := byte((v >> 10) & 0x1F)
	scale := func(c5 byte) byte { return (c5 << 3) | (c5 >> 2) }
	return scale(r5), scale(g5), scale(b5)
}

// cgbPaletteRAM models the BCPS/BCPD (0xFF68/0xFF69) or OCPS/OCPD
// (0xFF6A/0xFF6B) auto-incrementing palette memory: 8 palettes x 4 colors x
// 2 bytes each.
type cgbPaletteRAM struct {
	data  [64]byte
	index byte
	autoI bool
}

func (p *cgbPaletteRAM) writeSel(v byte) {
	p.index = v & 0x3F
	p.autoI = v&0x80 != 0
}

func (p *cgbPaletteRAM) readSel() byte {
	v := p.index
	if p.autoI {
		v |= 0x80
	}
	return v
}

func (p *cgbPaletteRAM) writeData(v byte) {
	p.data[p.index] = v
	if p.autoI {
		p.index = (p.index + 1) & 0x3F
	}
}

func (p *cgbPaletteRAM) readData() byte { return p.data[p.index] }

// color returns the RGB for palette pal (0..7), color index ci (0..3).
func (p *cgbPaletteRAM) color(pal, ci byte) (r, g, b byte) {
	off := (int(pal)*4 + int(ci)) * 2
	return cgb15ToRGB(p.data[off], p.data[off+1])
}
