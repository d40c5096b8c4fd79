package ppu

import "testing"

func TestVRAMAndOAMAccessNeverModeBlocked(t *testing.T) {
	p := New(func(bit int) {})
	p.CPUWrite(0xFF40, 0x80)
	p.Tick(80 + 172) // mode 0 (HBlank)
	p.CPUWrite(0x8000, 0x11)
	p.CPUWrite(0xFE00, 0x22)

	p.Tick(456 - 252) // new line, mode 2
	p.Tick(80)        // mode 3
	if got := p.CPURead(0x8000); got != 0x11 {
		t.Fatalf("VRAM read during mode3 got %02X want 11 (no blocking)", got)
	}
	if got := p.CPURead(0xFE00); got != 0x22 {
		t.Fatalf("OAM read during mode3 got %02X want 22 (no blocking)", got)
	}
	p.CPUWrite(0x8000, 0xAA)
	p.CPUWrite(0xFE00, 0xBB)
	if got := p.CPURead(0x8000); got != 0xAA {
		t.Fatalf("VRAM write during mode3 was dropped: got %02X want AA (no blocking)", got)
	}
	if got := p.CPURead(0xFE00); got != 0xBB {
		t.Fatalf("OAM write during mode3 was dropped: got %02X want BB (no blocking)", got)
	}
}

// OAM DMA's read/write blocking window is enforced by internal/bus (which
// consults OAMDMAActive), not by PPU.CPURead/CPUWrite directly; see
// internal/bus's DMA test for that behavior. This file only covers what the
// PPU itself owns: the transfer's content and its modeled timing budget.
func TestOAMDMACopiesBytesAndTracksTimingBudget(t *testing.T) {
	src := make([]byte, 0x10000)
	for i := 0; i < 0xA0; i++ {
		src[0xC000+i] = byte(i)
	}
	p := New(func(bit int) {})
	p.SetExternalReader(func(addr uint16) byte {
		if int(addr) < len(src) {
			return src[addr]
		}
		return 0xFF
	})

	p.TriggerOAMDMA(0xC0)
	if !p.OAMDMAActive() {
		t.Fatalf("expected OAM DMA active immediately after trigger")
	}
	for i := 0; i < 0xA0; i++ {
		if got := p.CPURead(0xFE00 + uint16(i)); got != byte(i) {
			t.Fatalf("OAM[%02X] got %02X want %02X", i, got, byte(i))
		}
	}
	p.Tick(80)
	if !p.OAMDMAActive() {
		t.Fatalf("DMA should still be in its 160-cycle timing window after 80 cycles")
	}
	p.Tick(80)
	if p.OAMDMAActive() {
		t.Fatalf("DMA timing window should be closed after 160 cycles")
	}
}

func TestWriteLYIsIgnored(t *testing.T) {
	p := New(func(bit int) {})
	p.CPUWrite(0xFF40, 0x80)
	p.Tick(252)
	lyBefore := p.CPURead(0xFF44)
	modeBefore := statMode(p)
	p.CPUWrite(0xFF44, 0x99)
	if ly := p.CPURead(0xFF44); ly != lyBefore {
		t.Fatalf("LY changed by write: got %d want unchanged %d", ly, lyBefore)
	}
	if mode := statMode(p); mode != modeBefore {
		t.Fatalf("mode changed by LY write: got %d want unchanged %d", mode, modeBefore)
	}
}
