package core

import "time"

// Callbacks are the host's only way to observe or influence the core
// beyond Step*/SetButtons: a log sink, battery persistence, and a wall
// clock for the battery-flush debounce. Load and PlaySound are part of the
// table, but the core never calls them: audio is pulled through APUBuffer
// and battery RAM is restored through LoadBattery.
type Callbacks struct {
	Log       func(message string)
	Save      func(title, romPath string, data []byte)
	Load      func(title, romPath string, expectedSize int) ([]byte, error)
	NowMillis func() uint64
	PlaySound func(buffer []int16)
}

// Config configures a Core instance: the ROM to run, the audio pull
// buffer's size and sample rate, an optional boot ROM overlay, and the
// callback table.
type Config struct {
	ROMBytes        []byte
	ROMPath         string
	BootROM         []byte
	SoundBufferSize int
	SoundSampleRate int
	Callbacks       Callbacks
}

// Defaults fills zero-valued fields with sensible values, mirroring the
// teacher's ui.Config.Defaults() for window/audio settings.
func (c Config) Defaults() Config {
	if c.SoundSampleRate <= 0 {
		c.SoundSampleRate = 48000
	}
	if c.SoundBufferSize <= 0 {
		c.SoundBufferSize = 2048
	}
	if c.Callbacks.NowMillis == nil {
		c.Callbacks.NowMillis = func() uint64 { return uint64(time.Now().UnixMilli()) }
	}
	return c
}
