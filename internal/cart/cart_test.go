package cart

import "testing"

func TestNewCartridge_DispatchesByType(t *testing.T) {
	cases := []struct {
		cartType byte
		want     string
	}{
		{0x00, "*cart.ROMOnly"},
		{0x01, "*cart.MBC1"},
		{0x05, "*cart.MBC2"},
		{0x0F, "*cart.MBC3"},
		{0x19, "*cart.MBC5"},
	}
	for _, tc := range cases {
		rom := buildROM("TEST", tc.cartType, 0x01, 0x00, 64*1024)
		c, err := NewCartridge(rom)
		if err != nil {
			t.Fatalf("cart type %#02x: unexpected error %v", tc.cartType, err)
		}
		if got := typeName(c); got != tc.want {
			t.Fatalf("cart type %#02x: got %s want %s", tc.cartType, got, tc.want)
		}
	}
}

func TestNewCartridge_UnsupportedTypeIsFatal(t *testing.T) {
	rom := buildROM("TEST", 0xFF, 0x01, 0x00, 64*1024)
	_, err := NewCartridge(rom)
	if err == nil {
		t.Fatalf("expected error for unsupported cartridge type 0xFF")
	}
	if _, ok := err.(*UnsupportedMBCError); !ok {
		t.Fatalf("expected *UnsupportedMBCError, got %T", err)
	}
}

func typeName(c Cartridge) string {
	switch c.(type) {
	case *ROMOnly:
		return "*cart.ROMOnly"
	case *MBC1:
		return "*cart.MBC1"
	case *MBC2:
		return "*cart.MBC2"
	case *MBC3:
		return "*cart.MBC3"
	case *MBC5:
		return "*cart.MBC5"
	default:
		return "unknown"
	}
}
