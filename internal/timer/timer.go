// Package timer implements the DIV/TIMA/TMA/TAC timer block, including the
// falling-edge TIMA-increment rule and the delayed reload-on-overflow
// behavior real hardware exhibits.
package timer

import "github.com/fmnoll/gbcore/internal/irq"

// tacBit selects which bit of the internal 16-bit DIV counter feeds TIMA,
// indexed by TAC's low two bits: 00->4096Hz,01->262144Hz,10->65536Hz,11->16384Hz.
var tacBit = [4]uint{9, 3, 5, 7}

type Timer struct {
	div uint16 // internal 16-bit counter; DIV register is its top byte
	tima byte
	tma  byte
	tac  byte

	reloadDelay int // cycles remaining until a TIMA overflow reloads TMA

	irq *irq.Controller
}

func New(irqc *irq.Controller) *Timer {
	return &Timer{irq: irqc}
}

func (t *Timer) ReadDIV() byte  { return byte(t.div >> 8) }
func (t *Timer) ReadTIMA() byte { return t.tima }
func (t *Timer) ReadTMA() byte  { return t.tma }
func (t *Timer) ReadTAC() byte  { return t.tac | 0xF8 }

// WriteDIV resets the whole internal counter, per hardware: any write to
// DIV, regardless of value, zeroes it. If the selected timer input bit was
// high, the reset is a falling edge and increments TIMA, except while an
// overflow reload is pending.
func (t *Timer) WriteDIV() {
	before := t.timerInput()
	t.div = 0
	if before && !t.timerInput() && t.reloadDelay == 0 {
		t.incrementTIMA()
	}
}

// WriteTIMA ignores the written value: a write to TIMA always resets it to
// 0, per hardware.
func (t *Timer) WriteTIMA(byte) {
	if t.reloadDelay > 0 {
		// A write during the reload window cancels the pending reload.
		t.reloadDelay = 0
	}
	t.tima = 0
}

func (t *Timer) WriteTMA(v byte) { t.tma = v }
func (t *Timer) WriteTAC(v byte) {
	before := t.timerInput()
	t.tac = v & 0x07
	if before && !t.timerInput() && t.reloadDelay == 0 {
		t.incrementTIMA()
	}
}

func (t *Timer) timerInput() bool {
	if t.tac&0x04 == 0 {
		return false
	}
	return t.div&(1<<tacBit[t.tac&0x03]) != 0
}

// Tick advances the timer by the given number of T-cycles, one at a time,
// so the falling-edge detector and the 4-cycle reload delay stay exact.
func (t *Timer) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		t.tickOne()
	}
}

func (t *Timer) tickOne() {
	if t.reloadDelay > 0 {
		t.reloadDelay--
		if t.reloadDelay == 0 {
			t.tima = t.tma
			t.irq.Request(irq.Timer)
		}
	}

	before := t.timerInput()
	t.div++
	after := t.timerInput()
	if before && !after {
		t.incrementTIMA()
	}
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima == 0 {
		t.reloadDelay = 4
	}
}
