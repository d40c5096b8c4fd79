// Package joypad implements the JOYP (0xFF00) row-select latch: buttons
// read back active-low, and a press edge (0->1 on any selected line)
// raises the joypad interrupt.
package joypad

import "github.com/fmnoll/gbcore/internal/irq"

const (
	Right byte = 1 << 0
	Left  byte = 1 << 1
	Up    byte = 1 << 2
	Down  byte = 1 << 3
	A     byte = 1 << 4
	B     byte = 1 << 5
	Select byte = 1 << 6
	Start  byte = 1 << 7
)

type Joypad struct {
	selectDirection bool // bit4 cleared -> direction keys selected
	selectButton    bool // bit5 cleared -> action buttons selected
	state           byte // 1 = pressed, bit layout matches the constants above

	irq *irq.Controller
}

func New(irqc *irq.Controller) *Joypad {
	return &Joypad{irq: irqc}
}

// SetButtons replaces the full pressed-button mask and raises the joypad
// interrupt on any newly-pressed, currently-selected line.
func (j *Joypad) SetButtons(mask byte) {
	pressedEdge := mask &^ j.state
	j.state = mask
	if pressedEdge == 0 {
		return
	}
	if j.selectDirection && pressedEdge&(Right|Left|Up|Down) != 0 {
		j.irq.Request(irq.Joypad)
		return
	}
	if j.selectButton && pressedEdge&(A|B|Select|Start) != 0 {
		j.irq.Request(irq.Joypad)
	}
}

// Read returns the JOYP register value: bits 7-6 always 1, select bits
// reflect what was last written, and the low nibble is the active-low
// state of whichever row(s) are selected.
func (j *Joypad) Read() byte {
	v := byte(0xC0)
	if !j.selectDirection {
		v |= 0x10
	}
	if !j.selectButton {
		v |= 0x20
	}
	var lines byte
	if j.selectDirection {
		lines |= j.state & (Right | Left | Up | Down)
	}
	if j.selectButton {
		lines |= (j.state & (A | B | Select | Start)) >> 4
	}
	v |= ^lines & 0x0F
	return v
}

// Write stores the row-select bits from a JOYP write (bits 5-4; 0 selects
// that row).
func (j *Joypad) Write(v byte) {
	j.selectDirection = v&0x10 == 0
	j.selectButton = v&0x20 == 0
}
