// Package bus wires the CPU-visible address space to the cartridge, work
// RAM, high RAM, and the timer/joypad/serial/PPU/APU peripheral packages. It
// owns no emulation behavior of its own beyond address decode and the CGB
// WRAM-bank/KEY1 speed-switch registers that don't belong to any one
// peripheral package.
package bus

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/fmnoll/gbcore/internal/apu"
	"github.com/fmnoll/gbcore/internal/cart"
	"github.com/fmnoll/gbcore/internal/irq"
	"github.com/fmnoll/gbcore/internal/joypad"
	"github.com/fmnoll/gbcore/internal/ppu"
	"github.com/fmnoll/gbcore/internal/serial"
	"github.com/fmnoll/gbcore/internal/timer"
)

// Bus is the address-space router. internal/cpu's Bus interface is
// satisfied by *Bus.
type Bus struct {
	cart cart.Cartridge
	irq  *irq.Controller

	ppu *ppu.PPU
	apu *apu.APU

	timer  *timer.Timer
	joypad *joypad.Joypad
	serial *serial.Serial

	wram     [8][0x1000]byte // bank 0 fixed at 0xC000, SVBK selects 1-7 at 0xD000
	wramBank byte            // 1-7; 0 reads back as bank 1 (CGB SVBK quirk)
	hram     [0x7F]byte

	cgbMode          bool
	doubleSpeed      bool
	speedSwitchArmed bool

	bootROM     []byte
	bootEnabled bool
}

// NewWithCartridge wires a cartridge implementation, a shared interrupt
// controller (also handed to internal/cpu), and the sample rate the APU
// should generate audio at.
func NewWithCartridge(c cart.Cartridge, irqc *irq.Controller, sampleRate int) *Bus {
	b := &Bus{cart: c, irq: irqc, wramBank: 1}
	b.ppu = ppu.New(func(bit int) { irqc.Request(1 << uint(bit)) })
	b.apu = apu.New(sampleRate)
	b.timer = timer.New(irqc)
	b.joypad = joypad.New(irqc)
	b.serial = serial.New(irqc)
	b.ppu.SetExternalReader(b.Read)
	return b
}

func (b *Bus) PPU() *ppu.PPU       { return b.ppu }
func (b *Bus) APU() *apu.APU       { return b.apu }
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// SetCGBMode toggles CGB-only behavior (VRAM/WRAM banking, double speed,
// palette RAM) on the bus and its PPU.
func (b *Bus) SetCGBMode(v bool) {
	b.cgbMode = v
	b.ppu.SetCGBMode(v)
}

// IsCGBMode reports whether CGB-only behavior is currently active.
func (b *Bus) IsCGBMode() bool { return b.cgbMode }

// SpeedSwitchArmed and ToggleSpeed implement internal/cpu's Bus interface
// for the STOP-triggered CGB speed switch (KEY1, 0xFF4D).
func (b *Bus) SpeedSwitchArmed() bool { return b.speedSwitchArmed }

func (b *Bus) ToggleSpeed() {
	b.doubleSpeed = !b.doubleSpeed
	b.speedSwitchArmed = false
}

func (b *Bus) IsDoubleSpeed() bool { return b.doubleSpeed }

// SetSerialWriter installs a sink that observes bytes sent over the serial
// port once each one-shot transfer completes.
func (b *Bus) SetSerialWriter(w io.Writer) {
	if w == nil {
		b.serial.SetSink(nil)
		return
	}
	b.serial.SetSink(func(v byte) { _, _ = w.Write([]byte{v}) })
}

// SetBootROM loads a boot ROM to be mapped at 0x0000-0x00FF until disabled
// via a nonzero write to 0xFF50.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, len(data))
		copy(b.bootROM, data)
		b.bootEnabled = true
	}
}

// SetButtons replaces the full pressed-button mask (see internal/joypad's
// button constants) and raises the joypad interrupt on any newly-pressed,
// currently-selected line.
func (b *Bus) SetButtons(mask byte) { b.joypad.SetButtons(mask) }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < uint16(len(b.bootROM)) {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xCFFF:
		return b.wram[0][addr-0xC000]
	case addr >= 0xD000 && addr <= 0xDFFF:
		return b.wram[b.wramBankIndex()][addr-0xD000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		return b.Read(addr - 0x2000) // echo RAM mirrors 0xC000-0xDDFF
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.ppu.OAMDMAActive() {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr == 0xFF00:
		return b.joypad.Read()
	case addr == 0xFF01:
		return b.serial.ReadSB()
	case addr == 0xFF02:
		return b.serial.ReadSC()
	case addr == 0xFF04:
		return b.timer.ReadDIV()
	case addr == 0xFF05:
		return b.timer.ReadTIMA()
	case addr == 0xFF06:
		return b.timer.ReadTMA()
	case addr == 0xFF07:
		return b.timer.ReadTAC()
	case addr == 0xFF0F:
		return 0xE0 | (b.irq.IF & 0x1F)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.apu.CPURead(addr)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF4D:
		v := byte(0x7E)
		if b.doubleSpeed {
			v |= 0x80
		}
		if b.speedSwitchArmed {
			v |= 0x01
		}
		return v
	case addr == 0xFF4F, addr == 0xFF51, addr == 0xFF52, addr == 0xFF53,
		addr == 0xFF54, addr == 0xFF55,
		addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF50:
		return 0xFF
	case addr == 0xFF70:
		return 0xF8 | (b.wramBank & 0x07)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.irq.IE
	default:
		return 0xFF
	}
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xCFFF:
		b.wram[0][addr-0xC000] = value
	case addr >= 0xD000 && addr <= 0xDFFF:
		b.wram[b.wramBankIndex()][addr-0xD000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		b.Write(addr-0x2000, value)
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.ppu.OAMDMAActive() {
			return
		}
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF00:
		b.joypad.Write(value)
	case addr == 0xFF01:
		b.serial.WriteSB(value)
	case addr == 0xFF02:
		b.serial.WriteSC(value)
	case addr == 0xFF04:
		b.timer.WriteDIV()
	case addr == 0xFF05:
		b.timer.WriteTIMA(value)
	case addr == 0xFF06:
		b.timer.WriteTMA(value)
	case addr == 0xFF07:
		b.timer.WriteTAC(value)
	case addr == 0xFF0F:
		b.irq.IF = value & 0x1F
	case addr >= 0xFF10 && addr <= 0xFF3F:
		b.apu.CPUWrite(addr, value)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF4D:
		b.speedSwitchArmed = value&0x01 != 0
	case addr == 0xFF4F, addr == 0xFF51, addr == 0xFF52, addr == 0xFF53,
		addr == 0xFF54, addr == 0xFF55,
		addr == 0xFF68, addr == 0xFF69, addr == 0xFF6A, addr == 0xFF6B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr == 0xFF70:
		if b.cgbMode {
			b.wramBank = value & 0x07
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		b.irq.IE = value
	}
}

// wramBankIndex maps the raw SVBK value to an actual bank slot: 0 and 1
// both select physical bank 1, matching real CGB hardware.
func (b *Bus) wramBankIndex() byte {
	n := b.wramBank & 0x07
	if n == 0 {
		n = 1
	}
	return n
}

// Tick advances the timer, serial, PPU, and APU by the given number of
// cycles. The caller (internal/core) is responsible for halving the cycle
// count in CGB double-speed mode, since only the CPU itself runs at the
// doubled rate.
func (b *Bus) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	b.timer.Tick(cycles)
	b.serial.Tick(cycles)
	b.ppu.Tick(cycles)
	b.apu.Tick(cycles)
}

// --- Save/Load state ---

type busState struct {
	WRAM             [8][0x1000]byte
	WRAMBank         byte
	HRAM             [0x7F]byte
	CGBMode          bool
	DoubleSpeed      bool
	SpeedSwitchArmed bool
	BootEnabled      bool
}

func (b *Bus) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	s := busState{
		WRAM: b.wram, WRAMBank: b.wramBank, HRAM: b.hram,
		CGBMode: b.cgbMode, DoubleSpeed: b.doubleSpeed,
		SpeedSwitchArmed: b.speedSwitchArmed, BootEnabled: b.bootEnabled,
	}
	_ = enc.Encode(s)

	if bb, ok := b.cart.(interface{ SaveState() []byte }); ok {
		_ = enc.Encode(bb.SaveState())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	_ = enc.Encode(b.ppu.SaveState())
	_ = enc.Encode(b.apu.SaveState())
	return buf.Bytes()
}

func (b *Bus) LoadState(data []byte) {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var s busState
	if err := dec.Decode(&s); err != nil {
		return
	}
	b.wram, b.wramBank, b.hram = s.WRAM, s.WRAMBank, s.HRAM
	b.cgbMode, b.doubleSpeed, b.speedSwitchArmed, b.bootEnabled =
		s.CGBMode, s.DoubleSpeed, s.SpeedSwitchArmed, s.BootEnabled

	var cs []byte
	if err := dec.Decode(&cs); err == nil {
		if bb, ok := b.cart.(interface{ LoadState([]byte) }); ok {
			bb.LoadState(cs)
		}
	}
	var ps []byte
	if err := dec.Decode(&ps); err == nil {
		b.ppu.LoadState(ps)
	}
	var as []byte
	if err := dec.Decode(&as); err == nil {
		b.apu.LoadState(as)
	}
}
