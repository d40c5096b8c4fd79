package cart

import "testing"

func TestMBC3_RAMBanking(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0x2000, true)
	m.Write(0x0000, 0x0A) // RAM enable
	m.Write(0x4000, 0x02) // select RAM bank 2 (out of range for 8KiB RAM, not clamped)
	m.Write(0xA000, 0x77)
	// Only one 8KiB bank exists; bank 2 addresses beyond it read 0xFF.
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("out-of-range RAM bank read got %02X want FF", got)
	}
	m.Write(0x4000, 0x00)
	m.Write(0xA000, 0x77)
	if got := m.Read(0xA000); got != 0x77 {
		t.Fatalf("RAM bank0 RW got %02X want 77", got)
	}
}

func TestMBC3_RTCLatchHonorsSelectButStaysStubZero(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0x2000, true)
	m.Write(0x0000, 0x0A) // RAM enable
	m.Write(0x4000, 0x08) // select RTC seconds register

	if got := m.Read(0xA000); got != 0 {
		t.Fatalf("unlatched RTC seconds read got %02X want 0", got)
	}

	// Writes to a selected RTC register are no-ops while unlatched.
	m.Write(0xA000, 0x2A)
	if got := m.Read(0xA000); got != 0 {
		t.Fatalf("RTC register should not be writable, got %02X", got)
	}

	// Latch sequence (write 0 then 1) must be honored even though the
	// underlying registers never advance.
	m.Write(0x6000, 0x00)
	m.Write(0x6000, 0x01)
	if got := m.Read(0xA000); got != 0 {
		t.Fatalf("latched RTC seconds got %02X want 0 (stub)", got)
	}
}

func TestMBC3_RTCSelectIgnoredWithoutRTC(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0x2000, false) // MBC3 variant without RTC (0x11-0x13)
	m.Write(0x0000, 0x0A)
	m.Write(0x4000, 0x08) // would select RTC seconds if hasRTC; ignored here, so bank stays 0
	m.Write(0xA000, 0x55)
	if got := m.Read(0xA000); got != 0x55 {
		t.Fatalf("value 0x08 should be rejected, leaving RAM bank 0 addressable, got %02X", got)
	}
}
