package ppu

import (
	"bytes"
	"encoding/gob"
)

type ppuState struct {
	VRAM0, VRAM1                  [0x2000]byte
	OAM                           [0xA0]byte
	VRAMBank                      byte
	LCDC, STAT, SCY, SCX, LY, LYC byte
	BGP, OBP0, OBP1, WY, WX       byte
	BGPalRAM, ObjPalRAM           cgbPalRAMState
	HDMA                          hdmaStateSnapshot
	CGBMode                       bool
	Dot                           int
	WinLineCounter                byte
	OAMDMARemaining               int
}

type cgbPalRAMState struct {
	Index byte
	AutoI bool
	Data  [64]byte
}

func (pr *cgbPaletteRAM) snapshot() cgbPalRAMState {
	return cgbPalRAMState{Index: pr.index, AutoI: pr.autoI, Data: pr.data}
}

func (pr *cgbPaletteRAM) restore(s cgbPalRAMState) {
	pr.index = s.Index
	pr.autoI = s.AutoI
	pr.data = s.Data
}

// hdmaStateSnapshot mirrors hdmaState with exported fields, since gob only
// encodes exported struct fields even within the same package.
type hdmaStateSnapshot struct {
	SrcHi, SrcLo byte
	DstHi, DstLo byte
	Active       bool
	HBlankMode   bool
	BlocksLeft   byte
}

func (h *hdmaState) snapshot() hdmaStateSnapshot {
	return hdmaStateSnapshot{
		SrcHi: h.srcHi, SrcLo: h.srcLo, DstHi: h.dstHi, DstLo: h.dstLo,
		Active: h.active, HBlankMode: h.hblankMode, BlocksLeft: h.blocksLeft,
	}
}

func (h *hdmaState) restore(s hdmaStateSnapshot) {
	h.srcHi, h.srcLo, h.dstHi, h.dstLo = s.SrcHi, s.SrcLo, s.DstHi, s.DstLo
	h.active, h.hblankMode, h.blocksLeft = s.Active, s.HBlankMode, s.BlocksLeft
}

// SaveState serializes VRAM, OAM, palette RAM, and the register/timing state
// needed to resume scanline rendering deterministically.
func (p *PPU) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	s := ppuState{
		VRAM0: p.vram, VRAM1: p.vram1, OAM: p.oam, VRAMBank: p.vramBank,
		LCDC: p.lcdc, STAT: p.stat, SCY: p.scy, SCX: p.scx, LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1, WY: p.wy, WX: p.wx,
		BGPalRAM: p.bgPalRAM.snapshot(), ObjPalRAM: p.objPalRAM.snapshot(),
		HDMA: p.hdma.snapshot(), CGBMode: p.cgbMode, Dot: p.dot,
		WinLineCounter: p.winLineCounter, OAMDMARemaining: p.oamDMARemaining,
	}
	_ = enc.Encode(s)
	return buf.Bytes()
}

func (p *PPU) LoadState(data []byte) {
	var s ppuState
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return
	}
	p.vram, p.vram1, p.oam, p.vramBank = s.VRAM0, s.VRAM1, s.OAM, s.VRAMBank
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc = s.LCDC, s.STAT, s.SCY, s.SCX, s.LY, s.LYC
	p.bgp, p.obp0, p.obp1, p.wy, p.wx = s.BGP, s.OBP0, s.OBP1, s.WY, s.WX
	p.bgPalRAM.restore(s.BGPalRAM)
	p.objPalRAM.restore(s.ObjPalRAM)
	p.hdma.restore(s.HDMA)
	p.cgbMode = s.CGBMode
	p.dot = s.Dot
	p.winLineCounter = s.WinLineCounter
	p.oamDMARemaining = s.OAMDMARemaining
}
