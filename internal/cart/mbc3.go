package cart

import (
	"bytes"
	"encoding/gob"
)

// rtcRegister indexes the five MBC3 RTC registers selectable at 0x08-0x0C.
const (
	rtcSeconds = 0x08
	rtcMinutes = 0x09
	rtcHours   = 0x0A
	rtcDayLow  = 0x0B
	rtcDayHigh = 0x0C
)

// MBC3 implements 7-bit ROM banking, 2-bit RAM banking or RTC register
// select, and the RTC latch protocol. Per the non-goal on wall-clock
// accuracy, the RTC registers never advance on their own; only the select
// and latch mechanism is modeled, and reads return the latched (stub
// zero) values.
type MBC3 struct {
	rom []byte
	ram []byte

	ramEnabled bool
	romBank    byte // 7 bits (1..127)
	bankOrRTC  byte // 0-3: RAM bank; 0x08-0x0C: RTC register select

	hasRTC    bool
	rtc       [5]byte // live registers (always stub zero; never advances)
	latched   [5]byte
	latchStep byte // tracks the 0-then-1 write sequence at 0x6000-0x7FFF

	battery batteryDebounce
}

func NewMBC3(rom []byte, ramSize int, hasRTC bool) *MBC3 {
	m := &MBC3{rom: rom, hasRTC: hasRTC}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	m.romBank = 1
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if int(addr) < len(m.rom) {
			return m.rom[addr]
		}
		return 0xFF
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		off := bank*0x4000 + int(addr-0x4000)
		if off >= 0 && off < len(m.rom) {
			return m.rom[off]
		}
		return 0xFF
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.hasRTC && m.bankOrRTC >= rtcSeconds && m.bankOrRTC <= rtcDayHigh {
			return m.latched[m.bankOrRTC-rtcSeconds]
		}
		if len(m.ram) == 0 {
			return 0xFF
		}
		rb := int(m.bankOrRTC & 0x03)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		if value <= 0x03 || (m.hasRTC && value >= rtcSeconds && value <= rtcDayHigh) {
			m.bankOrRTC = value
		}
	case addr < 0x8000:
		if !m.hasRTC {
			return
		}
		if value == 0x00 {
			m.latchStep = 1
		} else if value == 0x01 && m.latchStep == 1 {
			m.latched = m.rtc
			m.latchStep = 0
		} else {
			m.latchStep = 0
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.hasRTC && m.bankOrRTC >= rtcSeconds && m.bankOrRTC <= rtcDayHigh {
			// RTC writes are no-ops while unlatched per the error-handling
			// design (recoverable: write to the RTC while unlatched).
			return
		}
		if len(m.ram) == 0 {
			return
		}
		rb := int(m.bankOrRTC & 0x03)
		off := rb*0x2000 + int(addr-0xA000)
		if off >= 0 && off < len(m.ram) {
			m.ram[off] = value
			m.battery.markDirty()
		}
	}
}

func (m *MBC3) Step(nowMs uint64, save func(ram []byte)) {
	if len(m.ram) == 0 {
		return
	}
	m.battery.step(nowMs, func() { save(m.SaveRAM()) })
}

func (m *MBC3) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

type mbc3State struct {
	RAM                  []byte
	RamEnabled           bool
	RomBank, BankOrRTC   byte
	RTC, Latched         [5]byte
	LatchStep            byte
}

func (m *MBC3) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc3State{
		RAM: m.SaveRAM(), RamEnabled: m.ramEnabled, RomBank: m.romBank,
		BankOrRTC: m.bankOrRTC, RTC: m.rtc, Latched: m.latched, LatchStep: m.latchStep,
	})
	return buf.Bytes()
}

func (m *MBC3) LoadState(data []byte) {
	var s mbc3State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	m.LoadRAM(s.RAM)
	m.ramEnabled, m.romBank, m.bankOrRTC = s.RamEnabled, s.RomBank, s.BankOrRTC
	m.rtc, m.latched, m.latchStep = s.RTC, s.Latched, s.LatchStep
}
