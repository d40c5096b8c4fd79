package bus

import (
	"testing"

	"github.com/fmnoll/gbcore/internal/cart"
	"github.com/fmnoll/gbcore/internal/irq"
	"github.com/fmnoll/gbcore/internal/joypad"
)

func newTestBus(t *testing.T, rom []byte) *Bus {
	t.Helper()
	c, err := cart.NewCartridge(rom)
	if err != nil {
		t.Fatalf("NewCartridge: %v", err)
	}
	return NewWithCartridge(c, irq.New(), 48000)
}

func TestROMAndRAMAddressing(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	b := newTestBus(t, rom)

	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}

	b.Write(0xE000, 0x55) // echo RAM mirrors 0xC000-0xDDFF
	if got := b.Read(0xC000); got != 0x55 {
		t.Fatalf("echo write did not mirror to WRAM: got %02x", got)
	}

	b.Write(0xFF80, 0xAB)
	if got := b.Read(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02x, want AB", got)
	}

	if got := b.Read(0xA123); got != 0xFF {
		t.Fatalf("ext RAM on a ROM-only cart got %02x, want FF", got)
	}
}

func TestWRAMBankingInCGBMode(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))
	b.SetCGBMode(true)

	b.Write(0xFF70, 2) // select bank 2
	b.Write(0xD000, 0xAA)
	b.Write(0xFF70, 3) // select bank 3
	b.Write(0xD000, 0xBB)

	b.Write(0xFF70, 2)
	if got := b.Read(0xD000); got != 0xAA {
		t.Fatalf("bank 2 got %02x want AA", got)
	}
	b.Write(0xFF70, 3)
	if got := b.Read(0xD000); got != 0xBB {
		t.Fatalf("bank 3 got %02x want BB", got)
	}

	b.Write(0xFF70, 0) // SVBK=0 selects physical bank 1, same as 1
	b.Write(0xD000, 0xCC)
	b.Write(0xFF70, 1)
	if got := b.Read(0xD000); got != 0xCC {
		t.Fatalf("SVBK=0 should alias bank 1, got %02x want CC", got)
	}
}

func TestWRAMBankSwitchIgnoredOutsideCGBMode(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))
	b.Write(0xD000, 0x11)
	b.Write(0xFF70, 5) // no effect in DMG mode
	b.Write(0xD000, 0x22)
	if got := b.Read(0xD000); got != 0x22 {
		t.Fatalf("DMG mode should stay on one bank, got %02x want 22", got)
	}
}

func TestVRAMOAMAndInterruptRegisters(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))

	b.Write(0x8000, 0x11)
	if got := b.Read(0x8000); got != 0x11 {
		t.Fatalf("VRAM read got %02x, want 11", got)
	}

	b.Write(0xFE00, 0x22)
	if got := b.Read(0xFE00); got != 0x22 {
		t.Fatalf("OAM read got %02x, want 22", got)
	}

	b.Write(0xFF0F, 0x3F)
	if got := b.Read(0xFF0F); got != 0xE0|0x1F {
		t.Fatalf("IF read got %02x, want %02x", got, 0xE0|0x1F)
	}

	b.Write(0xFFFF, 0x1B)
	if got := b.Read(0xFFFF); got != 0x1B {
		t.Fatalf("IE read got %02x, want 1B", got)
	}
}

func TestOAMDMABlocksCPUAccessDuringTransfer(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))
	for i := 0; i < 0xA0; i++ {
		b.Write(0xC000+uint16(i), byte(i))
	}

	b.Write(0xFF46, 0xC0) // start DMA from 0xC000
	if got := b.Read(0xFE00); got != 0xFF {
		t.Fatalf("OAM read during DMA got %02x want FF", got)
	}
	b.Write(0xFE00, 0xEE) // ignored mid-DMA

	b.Tick(80)
	if got := b.Read(0xFE10); got != 0xFF {
		t.Fatalf("mid-DMA OAM read got %02x want FF", got)
	}

	b.Tick(80) // transfer window closes
	for i := 0; i < 0xA0; i++ {
		if got := b.Read(0xFE00 + uint16(i)); got != byte(i) {
			t.Fatalf("OAM[%02x] got %02x want %02x", i, got, byte(i))
		}
	}

	b.Write(0xFE00, 0x99)
	if got := b.Read(0xFE00); got != 0x99 {
		t.Fatalf("OAM write post-DMA failed: got %02x", got)
	}
}

func TestJoypadThroughBus(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))

	if got := b.Read(0xFF00) & 0x0F; got != 0x0F {
		t.Fatalf("default JOYP lower bits got %02x want 0x0F", got)
	}

	b.Write(0xFF00, 0x20) // select direction row
	b.SetButtons(joypad.Right | joypad.Up)
	if got := b.Read(0xFF00) & 0x0F; got != 0x0A {
		t.Fatalf("JOYP direction row got %02x want 0x0A", got)
	}

	b.Write(0xFF00, 0x10) // select button row
	b.SetButtons(joypad.A | joypad.Start)
	if got := b.Read(0xFF00) & 0x0F; got != 0x06 {
		t.Fatalf("JOYP button row got %02x want 0x06", got)
	}
}

func TestTimerRegistersThroughBus(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))

	b.Write(0xFF05, 0x77) // any write resets TIMA to 0
	if got := b.Read(0xFF05); got != 0x00 {
		t.Fatalf("TIMA got %02x want 00", got)
	}
	b.Write(0xFF06, 0x88)
	if got := b.Read(0xFF06); got != 0x88 {
		t.Fatalf("TMA got %02x want 88", got)
	}
	b.Write(0xFF07, 0xFD)
	if got := b.Read(0xFF07); got != 0xF8|(0xFD&0x07) {
		t.Fatalf("TAC got %02x want %02x", got, 0xF8|(0xFD&0x07))
	}
	b.Write(0xFF04, 0x12) // any write resets DIV to 0
	if got := b.Read(0xFF04); got != 0x00 {
		t.Fatalf("DIV got %02x want 00", got)
	}
}

func TestSerialTransferCompletesAfterTickingAndRaisesIRQ(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))
	var out []byte
	b.SetSerialWriter(writerFunc(func(p []byte) (int, error) {
		out = append(out, p...)
		return len(p), nil
	}))

	b.Write(0xFF01, 0x41) // 'A'
	b.Write(0xFF02, 0x81) // start, internal clock

	b.Tick(4096) // transferCycles
	if len(out) != 1 || out[0] != 0x41 {
		t.Fatalf("serial out got %v want [0x41]", out)
	}
	if got := b.Read(0xFF02); got&0x80 != 0 {
		t.Fatalf("serial control bit7 not cleared: %02x", got)
	}
	if b.Read(0xFF0F)&(1<<3) == 0 {
		t.Fatalf("serial IF bit not set after transfer")
	}
}

func TestKEY1SpeedSwitch(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))
	if b.SpeedSwitchArmed() {
		t.Fatalf("speed switch should start disarmed")
	}
	b.Write(0xFF4D, 0x01)
	if !b.SpeedSwitchArmed() {
		t.Fatalf("expected speed switch armed after writing bit0")
	}
	if got := b.Read(0xFF4D); got&0x01 == 0 {
		t.Fatalf("KEY1 should read back bit0 armed")
	}
	b.ToggleSpeed()
	if !b.IsDoubleSpeed() {
		t.Fatalf("expected double speed after ToggleSpeed")
	}
	if b.SpeedSwitchArmed() {
		t.Fatalf("ToggleSpeed should disarm the switch")
	}
	if got := b.Read(0xFF4D); got&0x80 == 0 {
		t.Fatalf("KEY1 should reflect current speed in bit7")
	}
}

func TestSaveLoadStateRoundTrips(t *testing.T) {
	b := newTestBus(t, make([]byte, 0x8000))
	b.Write(0xC000, 0x42)
	b.Write(0xFF80, 0x99)
	b.SetCGBMode(true)
	b.Write(0xFF70, 3)
	b.Write(0xD000, 0x77)

	data := b.SaveState()

	b2 := newTestBus(t, make([]byte, 0x8000))
	b2.LoadState(data)

	if got := b2.Read(0xC000); got != 0x42 {
		t.Fatalf("WRAM bank 0 did not round-trip: got %02x", got)
	}
	if got := b2.Read(0xFF80); got != 0x99 {
		t.Fatalf("HRAM did not round-trip: got %02x", got)
	}
	b2.SetCGBMode(true)
	b2.Write(0xFF70, 3)
	if got := b2.Read(0xD000); got != 0x77 {
		t.Fatalf("WRAM bank 3 did not round-trip: got %02x", got)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
