package ppu

// InterruptRequester is a callback signature to request IF bits (0:VBlank, 1:STAT, etc.).
type InterruptRequester func(bit int)

// LineRegs snapshots the registers that mattered to a scanline's render,
// captured at the Transfer "draw point" rather than re-read later. WinLine
// is the internal window line counter value used for that scanline (only
// meaningful when the window was actually visible on it).
type LineRegs struct {
	SCX, SCY, WX, WY         byte
	LCDC, BGP, OBP0, OBP1    byte
	WinLine                  byte
	WinVisible               bool
}

// PPU models VRAM/OAM, LCDC/STAT regs, LY/LYC, DMA, CGB palettes, and the
// scanline rendering pipeline. It exposes CPU-facing Read/Write for VRAM/OAM
// and PPU IO registers and produces a 160x144 RGBA frame.
type PPU struct {
	vram  [0x2000]byte // bank 0, 0x8000-0x9FFF
	vram1 [0x2000]byte // bank 1 (CGB only: tile data / BG attribute map)
	oam   [0xA0]byte   // 0xFE00-0xFE9F

	vramBank byte

	lcdc byte // FF40
	stat byte // FF41
	scy  byte // FF42
	scx  byte // FF43
	ly   byte // FF44
	lyc  byte // FF45
	bgp  byte // FF47
	obp0 byte // FF48
	obp1 byte // FF49
	wy   byte // FF4A
	wx   byte // FF4B

	bgPalRAM  cgbPaletteRAM // FF68/FF69
	objPalRAM cgbPaletteRAM // FF6A/FF6B
	hdma      hdmaState     // FF51-FF55

	cgbMode bool

	compatPaletteID int // last compat palette applied via ApplyCompatPalette/SetCompatPaletteID

	dot int // dots within current line [0..455]

	winLineCounter byte
	lineRegs       [144]LineRegs

	frame    [160 * 144 * 4]byte
	finished [160 * 144 * 4]byte

	oamDMARemaining int
	extRead         ExternalReader

	req InterruptRequester
}

func New(req InterruptRequester) *PPU { return &PPU{req: req} }

// SetCGBMode switches between DMG grey-shade composition and CGB 15-bit
// palette-RAM composition.
func (p *PPU) SetCGBMode(v bool) { p.cgbMode = v }

// CPURead returns bytes for VRAM, OAM, and PPU IO registers. Returns 0xFF for others.
func (p *PPU) CPURead(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		return p.ReadBank(int(p.vramBank), addr)
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return 0x80 | (p.stat & 0x7F)
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF46:
		return 0xFF // OAM DMA source register is write-only
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	case addr == 0xFF4F:
		return p.readVBK()
	case addr == 0xFF51 || addr == 0xFF52 || addr == 0xFF53 || addr == 0xFF54:
		return 0xFF // HDMA source/dest registers are write-only
	case addr == 0xFF55:
		return p.readHDMA5()
	case addr == 0xFF68:
		return p.bgPalRAM.readSel()
	case addr == 0xFF69:
		return p.bgPalRAM.readData()
	case addr == 0xFF6A:
		return p.objPalRAM.readSel()
	case addr == 0xFF6B:
		return p.objPalRAM.readData()
	default:
		return 0xFF
	}
}

// CPUWrite handles writes to VRAM, OAM, and PPU IO regs. Others are ignored here.
func (p *PPU) CPUWrite(addr uint16, value byte) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		p.writeBank(int(p.vramBank), addr, value)
	case addr >= 0xFE00 && addr <= 0xFE9F:
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		prev := p.lcdc
		p.lcdc = value
		if (p.lcdc&0x80) == 0 && (prev&0x80) != 0 {
			p.ly = 0
			p.dot = 0
			p.setMode(0)
			p.updateLYC()
		} else if (p.lcdc&0x80) != 0 && (prev&0x80) == 0 {
			p.ly = 0
			p.dot = 0
			p.winLineCounter = 0
			p.setMode(2)
			p.updateLYC()
		}
	case addr == 0xFF41:
		p.stat = (p.stat & 0x07) | (value & 0x78)
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		// LY is read-only; writes are silently ignored.
	case addr == 0xFF45:
		p.lyc = value
		p.updateLYC()
	case addr == 0xFF46:
		p.TriggerOAMDMA(value)
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	case addr == 0xFF4F:
		p.writeVBK(value)
	case addr == 0xFF51:
		p.hdma.srcHi = value
	case addr == 0xFF52:
		p.hdma.srcLo = value &^ 0x0F
	case addr == 0xFF53:
		p.hdma.dstHi = value
	case addr == 0xFF54:
		p.hdma.dstLo = value &^ 0x0F
	case addr == 0xFF55:
		p.writeHDMA5(value)
	case addr == 0xFF68:
		p.bgPalRAM.writeSel(value)
	case addr == 0xFF69:
		p.bgPalRAM.writeData(value)
	case addr == 0xFF6A:
		p.objPalRAM.writeSel(value)
	case addr == 0xFF6B:
		p.objPalRAM.writeData(value)
	}
}

// Tick advances PPU state by the given number of dots (CPU cycles).
func (p *PPU) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	p.TickOAMDMA(cycles)
	for i := 0; i < cycles; i++ {
		if (p.lcdc & 0x80) == 0 { // LCD off
			continue
		}
		p.dot++
		var mode byte
		if p.ly >= 144 {
			mode = 1
		} else {
			switch {
			case p.dot < 80:
				mode = 2
			case p.dot < 80+172:
				mode = 3
			default:
				mode = 0
			}
		}
		p.setMode(mode)

		if p.dot >= 456 {
			p.dot = 0
			p.ly++
			if p.ly == 144 {
				p.finished = p.frame
				if p.req != nil {
					p.req(0)
				}
				if (p.stat & (1 << 4)) != 0 {
					if p.req != nil {
						p.req(1)
					}
				}
			} else if p.ly > 153 {
				p.ly = 0
				p.winLineCounter = 0
			}
			p.updateLYC()
			if p.ly >= 144 {
				p.setMode(1)
			} else {
				p.setMode(2)
			}
		}
	}
}

func (p *PPU) setMode(mode byte) {
	prev := p.stat & 0x03
	if prev == mode {
		return
	}
	p.stat = (p.stat &^ 0x03) | (mode & 0x03)
	switch mode {
	case 0: // HBlank
		p.StepHDMABlock()
		if (p.stat & (1 << 3)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 2: // OAM
		if (p.stat & (1 << 5)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	case 3: // Transfer: render the whole line at this single draw point.
		p.renderScanline()
	}
}

func (p *PPU) updateLYC() {
	if p.ly == p.lyc {
		p.stat |= 1 << 2
		if (p.stat & (1 << 6)) != 0 {
			if p.req != nil {
				p.req(1)
			}
		}
	} else {
		p.stat &^= 1 << 2
	}
}

// LineRegs returns the registers captured when line y was drawn.
func (p *PPU) LineRegs(y int) LineRegs {
	if y < 0 || y >= len(p.lineRegs) {
		return LineRegs{}
	}
	return p.lineRegs[y]
}

// FinishedFrame returns the most recently completed 160x144 RGBA frame.
func (p *PPU) FinishedFrame() []byte { return p.finished[:] }

// Expose palettes and scroll for renderer convenience (optional helpers)
func (p *PPU) BGP() byte  { return p.bgp }
func (p *PPU) OBP0() byte { return p.obp0 }
func (p *PPU) OBP1() byte { return p.obp1 }
func (p *PPU) LCDC() byte { return p.lcdc }
func (p *PPU) SCY() byte  { return p.scy }
func (p *PPU) SCX() byte  { return p.scx }
func (p *PPU) WY() byte   { return p.wy }
func (p *PPU) WX() byte   { return p.wx }
