// Package core aggregates the CPU, bus, and peripheral packages into the
// single-threaded, synchronous emulation engine a host drives one
// instruction or one frame at a time. It owns no UI, audio backend, or
// persistence mechanism of its own — those are reached exclusively through
// Callbacks (see config.go), matching spec.md §5's "host holds only an
// opaque reference" concurrency model.
package core

import (
	"bytes"
	"encoding/gob"
	"io"
	"time"

	"github.com/fmnoll/gbcore/internal/bus"
	"github.com/fmnoll/gbcore/internal/cart"
	"github.com/fmnoll/gbcore/internal/cpu"
	"github.com/fmnoll/gbcore/internal/irq"
)

// RGB is one displayed pixel, alpha-free since the core always renders
// fully opaque frames.
type RGB struct{ R, G, B byte }

// Core is the complete emulation engine: CPU + bus (which in turn owns
// cart/ppu/apu/timer/joypad/serial). FromConfig is the only constructor;
// the zero value is not usable.
type Core struct {
	cfg Config

	cpu *cpu.CPU
	bus *bus.Bus
	irq *irq.Controller

	header *cart.Header

	frameCycles int // PPU-rate cycles accumulated since the last StepFrame return
}

// FromConfig parses the cartridge header, selects an MBC implementation,
// wires CPU/bus/peripherals together, and resets the CPU to its
// post-boot-ROM state (or leaves boot-ROM execution at 0x0000 if
// Config.BootROM is set). CGB mode is entered automatically when the
// header's CGB flag marks the cartridge CGB-capable or CGB-only.
func FromConfig(cfg Config) (*Core, error) {
	cfg = cfg.Defaults()

	h, err := cart.ParseHeader(cfg.ROMBytes)
	if err != nil {
		return nil, &FatalError{Code: ErrInvalidHeader, Err: err}
	}

	c, err := cart.NewCartridge(cfg.ROMBytes)
	if err != nil {
		return nil, &FatalError{Code: ErrUnsupportedCartridge, Err: err}
	}

	irqc := irq.New()
	b := bus.NewWithCartridge(c, irqc, cfg.SoundSampleRate)

	cgb := h.CGBFlag == 0x80 || h.CGBFlag == 0xC0
	b.SetCGBMode(cgb)

	if len(cfg.BootROM) > 0 {
		b.SetBootROM(cfg.BootROM)
	}

	cp := cpu.New(b, irqc)
	if len(cfg.BootROM) == 0 {
		cp.ResetNoBoot()
	}

	return &Core{cfg: cfg, cpu: cp, bus: b, irq: irqc, header: h}, nil
}

// ROMPath returns the path the ROM was loaded from, if any.
func (c *Core) ROMPath() string { return c.cfg.ROMPath }

// Header exposes the parsed cartridge header for hosts that want to
// display the title or pick a DMG compatibility palette.
func (c *Core) Header() *cart.Header { return c.header }

// SetSerialWriter installs an observer for bytes written out over the
// serial port, used by test-ROM runners that print results over the link
// cable stub.
func (c *Core) SetSerialWriter(w io.Writer) { c.bus.SetSerialWriter(w) }

// SetButtons replaces the full pressed-button mask for the next input poll.
func (c *Core) SetButtons(a, b, start, sel, up, down, left, right bool) {
	var mask byte
	set := func(pressed bool, bit byte) {
		if pressed {
			mask |= bit
		}
	}
	set(a, 0x10)
	set(b, 0x20)
	set(start, 0x80)
	set(sel, 0x40)
	set(up, 0x04)
	set(down, 0x08)
	set(left, 0x02)
	set(right, 0x01)
	c.bus.SetButtons(mask)
}

func (c *Core) nowMillis() uint64 {
	if c.cfg.Callbacks.NowMillis != nil {
		return c.cfg.Callbacks.NowMillis()
	}
	return uint64(time.Now().UnixMilli())
}

func (c *Core) saveBattery(ram []byte) {
	if c.cfg.Callbacks.Save != nil {
		c.cfg.Callbacks.Save(c.header.Title, c.cfg.ROMPath, ram)
	}
}

// StepInstruction executes exactly one CPU instruction (or one HALT tick),
// then steps the cartridge's battery debounce, the timer/serial/PPU/APU
// peripherals for however many cycles that took, and finally services a
// pending interrupt — spec.md §5's fixed ordering. At CGB double speed,
// the peripheral clocks advance at half the CPU's own rate.
func (c *Core) StepInstruction() (cycles int, err error) {
	pc := c.cpu.PC
	cyc, stopNoop, stepErr := c.cpu.Step()
	if stepErr != nil {
		return 0, &FatalError{Code: ErrUndefinedOpcode, PC: pc, Err: stepErr}
	}
	if stopNoop && c.cfg.Callbacks.Log != nil {
		c.cfg.Callbacks.Log("STOP executed with no speed switch armed; treated as NOP")
	}

	c.bus.Cart().Step(c.nowMillis(), c.saveBattery)

	peripheralCycles := cyc
	if c.bus.IsDoubleSpeed() {
		peripheralCycles = cyc / 2
	}
	c.bus.Tick(peripheralCycles)
	c.frameCycles += peripheralCycles

	cyc += c.cpu.ServiceInterrupts()
	return cyc, nil
}

// dotsPerFrame is 154 scanlines of 456 dots each, the PPU's own clock
// (unaffected by CGB double speed, which only doubles the CPU).
const dotsPerFrame = 154 * 456

// StepFrame runs StepInstruction until the PPU's own clock has advanced
// one full frame, or a fatal error occurs.
func (c *Core) StepFrame() (cycles int, err error) {
	for c.frameCycles < dotsPerFrame {
		n, stepErr := c.StepInstruction()
		cycles += n
		if stepErr != nil {
			return cycles, stepErr
		}
	}
	c.frameCycles -= dotsPerFrame
	return cycles, nil
}

// StepUntilAudioBufferFull runs StepInstruction until the APU's stereo
// pull buffer has at least Config.SoundBufferSize frames available.
func (c *Core) StepUntilAudioBufferFull() (cycles int, err error) {
	for !c.BufferFull() {
		n, stepErr := c.StepInstruction()
		cycles += n
		if stepErr != nil {
			return cycles, stepErr
		}
	}
	return cycles, nil
}

// FinishedFrame returns the last completed frame as a row-major RGB grid.
func (c *Core) FinishedFrame() [144][160]RGB {
	var out [144][160]RGB
	raw := c.bus.PPU().FinishedFrame()
	for y := 0; y < 144; y++ {
		for x := 0; x < 160; x++ {
			o := (y*160 + x) * 4
			out[y][x] = RGB{R: raw[o], G: raw[o+1], B: raw[o+2]}
		}
	}
	return out
}

// RGBAFrame returns the last completed frame as packed RGBA8888, alpha
// always 0xFF — suitable for a direct blit into an ebiten.Image or similar.
func (c *Core) RGBAFrame() []byte { return c.bus.PPU().FinishedFrame() }

// APUBuffer drains and returns all currently buffered interleaved stereo
// samples (L, R, L, R, ...).
func (c *Core) APUBuffer() []int16 {
	a := c.bus.APU()
	return a.PullStereo(a.StereoAvailable())
}

// BufferFull reports whether the APU's pull buffer holds at least
// Config.SoundBufferSize stereo frames.
func (c *Core) BufferFull() bool {
	return c.bus.APU().StereoAvailable() >= c.cfg.SoundBufferSize
}

// ClearBufferFull drains the APU's pull buffer without returning it, for
// hosts that only care about the full/not-full signal (e.g. skipping a
// render when audio is still catching up).
func (c *Core) ClearBufferFull() {
	a := c.bus.APU()
	a.PullStereo(a.StereoAvailable())
}

// --- Save/Load state ---

type coreState struct {
	PC, SP                uint16
	A, F, B, C, D, E, H, L byte
	Halted                 bool
	IE, IF                 byte
}

// SaveState serializes the CPU registers and HALT flag, IE/IF, and the
// bus (WRAM, HRAM, and the cartridge, PPU, and APU state; see
// SPEC_FULL.md §6). IME, a pending EI delay, the timer, serial and joypad
// state, and the frame-cycle accumulator are not included.
func (c *Core) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	s := coreState{
		PC: c.cpu.PC, SP: c.cpu.SP,
		A: c.cpu.A, F: c.cpu.F, B: c.cpu.B, C: c.cpu.C, D: c.cpu.D, E: c.cpu.E, H: c.cpu.H, L: c.cpu.L,
		Halted: c.cpu.Halted(), IE: c.irq.IE, IF: c.irq.IF,
	}
	_ = enc.Encode(s)
	_ = enc.Encode(c.bus.SaveState())
	return buf.Bytes()
}

func (c *Core) LoadState(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var s coreState
	if err := dec.Decode(&s); err != nil {
		return err
	}
	c.cpu.PC, c.cpu.SP = s.PC, s.SP
	c.cpu.A, c.cpu.F, c.cpu.B, c.cpu.C, c.cpu.D, c.cpu.E, c.cpu.H, c.cpu.L =
		s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L
	c.cpu.SetHalted(s.Halted)
	c.irq.IE, c.irq.IF = s.IE, s.IF

	var bs []byte
	if err := dec.Decode(&bs); err != nil {
		return err
	}
	c.bus.LoadState(bs)
	return nil
}
