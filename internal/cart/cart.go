package cart

import "fmt"

// Cartridge defines the minimal interface the Bus needs for ROM/RAM banking.
// Implementations can be ROM-only or MBC variants. Addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000–0x7FFF) and external RAM (0xA000–0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000–0x7FFF) and external RAM writes (0xA000–0xBFFF).
	Write(addr uint16, value byte)
	// Step passes the host's current timestamp in milliseconds to the
	// MBC's battery-save debounce; save is invoked at most once per pending
	// flush, with a fresh copy of the external RAM.
	Step(nowMs uint64, save func(ram []byte))
	// SaveState/LoadState serialize internal banking registers and external RAM for save states.
	SaveState() []byte
	LoadState(data []byte)
}

// BatteryBacked is an optional interface for cartridges with external RAM to be persisted.
// Implementations should return a copy of RAM bytes (may be empty if no RAM), and accept data to load.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// UnsupportedMBCError is fatal per the decode-error policy: an unrecognized
// cartridge header type is a condition the core cannot run past.
type UnsupportedMBCError struct {
	CartType byte
}

func (e *UnsupportedMBCError) Error() string {
	return fmt.Sprintf("unsupported cartridge type %#02x", e.CartType)
}

// NewCartridge picks an implementation based on the ROM header. An
// unrecognized CartType is a fatal decode error, not a silent fallback.
func NewCartridge(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, fmt.Errorf("parse cartridge header: %w", err)
	}
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom), nil
	case 0x01, 0x02, 0x03: // MBC1 variants (RAM, RAM+battery transparent here)
		return NewMBC1(rom, h.RAMSizeBytes), nil
	case 0x05, 0x06: // MBC2, MBC2+battery
		return NewMBC2(rom), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13: // MBC3 variants, with RTC on 0x0F/0x10
		hasRTC := h.CartType == 0x0F || h.CartType == 0x10
		return NewMBC3(rom, h.RAMSizeBytes, hasRTC), nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E: // MBC5 variants
		return NewMBC5(rom, h.RAMSizeBytes), nil
	default:
		return nil, &UnsupportedMBCError{CartType: h.CartType}
	}
}
