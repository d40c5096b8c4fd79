package core

import (
	"os"
	"strings"

	"github.com/fmnoll/gbcore/internal/cart"
	"github.com/fmnoll/gbcore/internal/ppu"
)

// ROMTitle returns the cartridge's title with trailing NUL padding trimmed.
func (c *Core) ROMTitle() string {
	return strings.TrimRight(c.header.Title, "\x00")
}

// Framebuffer is an alias for RGBAFrame, named to match hosts that think in
// terms of a blittable pixel buffer rather than "the last completed frame".
func (c *Core) Framebuffer() []byte { return c.RGBAFrame() }

// StepFrameNoRender runs one frame's worth of emulation. The PPU always
// composes its scanlines as part of ticking, so there is no cheaper path
// to skip — the name exists for hosts that want to skip the render-side
// blit of a frame-skipped tick while still keeping the emulator in sync.
func (c *Core) StepFrameNoRender() (cycles int, err error) { return c.StepFrame() }

// IsCGBCompat reports whether this is a DMG-only cartridge currently being
// rendered in CGB-compatibility mode (color composition on, no native CGB
// support in the ROM itself).
func (c *Core) IsCGBCompat() bool {
	cgbCapable := c.header.CGBFlag == 0x80 || c.header.CGBFlag == 0xC0
	return !cgbCapable && c.bus.IsCGBMode()
}

// CurrentCompatPalette, CompatPaletteName, CycleCompatPalette, and
// SetCompatPalette let a host offer the player a choice of DMG-on-CGB
// tint, mirroring the real console's boot-ROM behavior for carts that
// never shipped CGB support.
func (c *Core) CurrentCompatPalette() int       { return c.bus.PPU().CompatPaletteID() }
func (c *Core) CompatPaletteName(id int) string { return ppu.CompatPaletteName(id) }
func (c *Core) CompatPaletteCount() int         { return ppu.CompatPaletteCount() }
func (c *Core) CycleCompatPalette(delta int)    { c.bus.PPU().CycleCompatPalette(delta) }
func (c *Core) SetCompatPalette(id int)         { c.bus.PPU().SetCompatPaletteID(id) }

// WantCGBColors and SetUseCGBBG track whether a DMG-only cartridge should
// be rendered in CGB-compatibility mode rather than plain grey-shade DMG.
func (c *Core) WantCGBColors() bool { return c.bus.IsCGBMode() }

// SetUseCGBBG switches between DMG grey-shade and CGB-compatibility color
// composition for a DMG-only cartridge. It does not reset the CPU; callers
// that want a clean restart should follow with ResetCGBPostBoot/ResetPostBoot.
func (c *Core) SetUseCGBBG(v bool) {
	if c.header.CGBFlag == 0x80 || c.header.CGBFlag == 0xC0 {
		return // native CGB carts always render in color
	}
	c.bus.SetCGBMode(v)
}

func (c *Core) UseCGBBG() bool { return c.bus.IsCGBMode() }

// ResetPostBoot restarts the CPU at its DMG post-boot-ROM state without
// touching cartridge RAM.
func (c *Core) ResetPostBoot() {
	c.bus.SetCGBMode(c.header.CGBFlag == 0x80 || c.header.CGBFlag == 0xC0)
	c.cpu.ResetNoBoot()
	c.frameCycles = 0
}

// ResetCGBPostBoot restarts the CPU at its CGB post-boot-ROM state, and,
// for a DMG-only cartridge, optionally applies the auto-detected compat
// palette (matching what the real CGB boot ROM does for unrecognized
// carts).
func (c *Core) ResetCGBPostBoot(applyCompatPalette bool) {
	c.bus.SetCGBMode(true)
	c.cpu.ResetCGBNoBoot()
	c.frameCycles = 0
	if applyCompatPalette {
		c.bus.PPU().ApplyCompatPalette(c.header)
	}
}

// ResetWithBoot restarts execution at 0x0000 so the configured boot ROM
// image runs again. It is a no-op if no boot ROM was configured.
func (c *Core) ResetWithBoot() {
	if len(c.cfg.BootROM) == 0 {
		return
	}
	c.cpu.PC, c.cpu.SP = 0x0000, 0xFFFE
	c.cpu.A, c.cpu.F, c.cpu.B, c.cpu.C = 0, 0, 0, 0
	c.cpu.D, c.cpu.E, c.cpu.H, c.cpu.L = 0, 0, 0, 0
	c.cpu.SetHalted(false)
	c.frameCycles = 0
}

// --- Audio pull convenience wrappers, named to match the host method set
// spec.md's external-interfaces section enumerates. ---

func (c *Core) APUBufferedStereo() int      { return c.bus.APU().StereoAvailable() }
func (c *Core) APUPullStereo(n int) []int16 { return c.bus.APU().PullStereo(n) }

// APUCapBufferedStereo drops buffered stereo frames down to maxFrames,
// used by hosts trimming audio latency after a pause or fast-forward.
func (c *Core) APUCapBufferedStereo(maxFrames int) {
	a := c.bus.APU()
	if over := a.StereoAvailable() - maxFrames; over > 0 {
		a.PullStereo(over)
	}
}

// APUClearAudioLatency drains all buffered audio, used when (un)muting or
// resuming from pause so playback doesn't resume from a stale buffer.
func (c *Core) APUClearAudioLatency() { c.ClearBufferFull() }

// --- Battery save persistence ---

// SaveBattery returns a copy of the cartridge's external RAM, and whether
// the cartridge is battery-backed at all.
func (c *Core) SaveBattery() ([]byte, bool) {
	bb, ok := c.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	ram := bb.SaveRAM()
	return ram, len(ram) > 0
}

// LoadBattery restores external RAM from a prior SaveBattery call,
// reporting whether the cartridge accepted it.
func (c *Core) LoadBattery(data []byte) bool {
	bb, ok := c.bus.Cart().(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}

// --- Save states to/from disk ---

func (c *Core) SaveStateToFile(path string) error {
	return os.WriteFile(path, c.SaveState(), 0644)
}

func (c *Core) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.LoadState(data)
}
