package ppu

import (
	"strings"

	"github.com/fmnoll/gbcore/internal/cart"
)

// compatPaletteSet is a curated BG/OBJ color set used to tint a DMG-only
// title when it runs in CGB-compatibility mode (the console's own boot ROM
// behavior for carts lacking CGB support).
type compatPaletteSet struct {
	name string
	bg   [4][3]byte
	obj0 [4][3]byte
	obj1 [4][3]byte
}

var cgbCompatSetNames = []string{"Green", "Sepia", "Blue", "Red", "Pastel", "Monochrome"}

var cgbCompatSets = []compatPaletteSet{
	{ // Green
		name: "Green",
		bg:   [4][3]byte{{0xF8, 0xF8, 0xF0}, {0xA0, 0xC8, 0x90}, {0x50, 0x78, 0x48}, {0x10, 0x18, 0x10}},
		obj0: [4][3]byte{{0xF8, 0xF8, 0xF0}, {0xE0, 0xA0, 0xA0}, {0x98, 0x48, 0x48}, {0x18, 0x10, 0x10}},
		obj1: [4][3]byte{{0xF8, 0xF8, 0xF0}, {0xA0, 0xA0, 0xE0}, {0x48, 0x48, 0x98}, {0x10, 0x10, 0x18}},
	},
	{ // Sepia
		name: "Sepia",
		bg:   [4][3]byte{{0xF8, 0xE8, 0xC8}, {0xD0, 0xA8, 0x78}, {0x90, 0x68, 0x40}, {0x38, 0x28, 0x18}},
		obj0: [4][3]byte{{0xF8, 0xE8, 0xC8}, {0xC8, 0x98, 0x68}, {0x80, 0x50, 0x30}, {0x30, 0x20, 0x10}},
		obj1: [4][3]byte{{0xF8, 0xE8, 0xC8}, {0xB0, 0x88, 0x58}, {0x70, 0x48, 0x28}, {0x28, 0x18, 0x10}},
	},
	{ // Blue
		name: "Blue",
		bg:   [4][3]byte{{0xF0, 0xF8, 0xF8}, {0x90, 0xC0, 0xE0}, {0x48, 0x78, 0xA0}, {0x10, 0x20, 0x40}},
		obj0: [4][3]byte{{0xF0, 0xF8, 0xF8}, {0xE0, 0xC0, 0x90}, {0xA0, 0x78, 0x48}, {0x40, 0x20, 0x10}},
		obj1: [4][3]byte{{0xF0, 0xF8, 0xF8}, {0xC0, 0xE0, 0x90}, {0x78, 0xA0, 0x48}, {0x20, 0x40, 0x10}},
	},
	{ // Red
		name: "Red",
		bg:   [4][3]byte{{0xF8, 0xF0, 0xF0}, {0xE8, 0x90, 0x90}, {0xA0, 0x40, 0x40}, {0x38, 0x10, 0x10}},
		obj0: [4][3]byte{{0xF8, 0xF0, 0xF0}, {0x90, 0xC8, 0x90}, {0x40, 0x90, 0x40}, {0x10, 0x30, 0x10}},
		obj1: [4][3]byte{{0xF8, 0xF0, 0xF0}, {0x90, 0x90, 0xE8}, {0x40, 0x40, 0xA0}, {0x10, 0x10, 0x38}},
	},
	{ // Pastel
		name: "Pastel",
		bg:   [4][3]byte{{0xFF, 0xF8, 0xF8}, {0xE8, 0xC8, 0xE8}, {0xA8, 0x88, 0xC8}, {0x48, 0x38, 0x68}},
		obj0: [4][3]byte{{0xFF, 0xF8, 0xF8}, {0xF0, 0xD0, 0xA0}, {0xC0, 0x90, 0x60}, {0x58, 0x40, 0x28}},
		obj1: [4][3]byte{{0xFF, 0xF8, 0xF8}, {0xA0, 0xD0, 0xF0}, {0x60, 0x90, 0xC0}, {0x28, 0x40, 0x58}},
	},
	{ // Monochrome (default greyscale, matches dmgShades)
		name: "Monochrome",
		bg:   dmgShades,
		obj0: dmgShades,
		obj1: dmgShades,
	},
}

var compatTitleExact = map[string]int{
	"TETRIS":              2,
	"TETRIS DX":           2,
	"SUPER MARIO LAND":    3,
	"SUPER MARIO LAND 2":  3,
	"DR. MARIO":           4,
	"DONKEY KONG":         1,
	"THE LEGEND OF ZELDA": 0,
	"ZELDA":               0,
	"METROID II":          3,
	"KIRBY'S DREAM LAND":  4,
	"MEGA MAN":            2,
	"MEGAMAN":             2,
	"WARIO LAND":          1,
	"POKEMON YELLOW":      4,
	"POKEMON RED":         4,
	"POKEMON BLUE":        4,
	"POCKET MONSTERS":     4,
}

type containsRule struct {
	substr string
	id     int
}

var compatTitleContains = []containsRule{
	{"TETRIS", 2},
	{"MARIO", 3},
	{"ZELDA", 0},
	{"KIRBY", 4},
	{"DONKEY KONG", 1},
	{"METROID", 3},
	{"MEGA MAN", 2},
	{"MEGAMAN", 2},
	{"WARIO", 1},
	{"POKEMON", 4},
	{"POCKET MONSTERS", 4},
}

// autoCompatPaletteFromHeader picks a default compat palette id for a DMG
// cartridge booted on CGB hardware, using a small title table and falling
// back to a checksum-derived but stable choice for Nintendo-published titles.
func autoCompatPaletteFromHeader(h *cart.Header) (int, bool) {
	if h == nil {
		return 0, false
	}
	title := strings.TrimSpace(strings.TrimRight(h.Title, "\x00"))
	t := strings.ToUpper(title)
	if id, ok := compatTitleExact[t]; ok {
		return id, true
	}
	for _, r := range compatTitleContains {
		if strings.Contains(t, r.substr) {
			return r.id, true
		}
	}
	nintendo := false
	if h.OldLicensee == 0x33 {
		nintendo = strings.ToUpper(h.NewLicensee) == "01"
	} else {
		nintendo = h.OldLicensee == 0x01
	}
	if nintendo {
		return int(h.HeaderChecksum) % len(cgbCompatSets), true
	}
	return 0, true
}

// ApplyCompatPalette seeds the CGB palette RAM (BG palette 0, OBJ palettes
// 0 and 1) from a cartridge header's auto-detected compat set, for DMG-only carts
// running in CGB-compatibility mode.
func (p *PPU) ApplyCompatPalette(h *cart.Header) {
	id, _ := autoCompatPaletteFromHeader(h)
	p.SetCompatPaletteID(id)
}

// CompatPaletteCount is the number of curated compat palette sets.
func CompatPaletteCount() int { return len(cgbCompatSets) }

// CompatPaletteName returns the display name of a compat palette id,
// clamping out-of-range ids to the first entry.
func CompatPaletteName(id int) string {
	if id < 0 || id >= len(cgbCompatSetNames) {
		id = 0
	}
	return cgbCompatSetNames[id]
}

// CompatPaletteID reports the currently applied compat palette id.
func (p *PPU) CompatPaletteID() int { return p.compatPaletteID }

// SetCompatPaletteID seeds BG/OBJ0/OBJ1 palette RAM from the given compat
// set and records it so CompatPaletteID/CycleCompatPalette can track it.
func (p *PPU) SetCompatPaletteID(id int) {
	if id < 0 || id >= len(cgbCompatSets) {
		id = 0
	}
	p.compatPaletteID = id
	set := cgbCompatSets[id]
	seed := func(ram *cgbPaletteRAM, colors [4][3]byte) {
		for ci, c := range colors {
			r5, g5, b5 := c[0]>>3, c[1]>>3, c[2]>>3
			v := uint16(r5) | uint16(g5)<<5 | uint16(b5)<<10
			ram.data[ci*2] = byte(v)
			ram.data[ci*2+1] = byte(v >> 8)
		}
	}
	seed(&p.bgPalRAM, set.bg)
	seed(&p.objPalRAM, set.obj0)
	for ci, c := range set.obj1 {
		r5, g5, b5 := c[0]>>3, c[1]>>3, c[2]>>3
		v := uint16(r5) | uint16(g5)<<5 | uint16(b5)<<10
		p.objPalRAM.data[8+ci*2] = byte(v)
		p.objPalRAM.data[8+ci*2+1] = byte(v >> 8)
	}
}

// CycleCompatPalette advances the compat palette selection by delta
// (wrapping) and applies it.
func (p *PPU) CycleCompatPalette(delta int) {
	n := len(cgbCompatSets)
	id := ((p.compatPaletteID+delta)%n + n) % n
	p.SetCompatPaletteID(id)
}
