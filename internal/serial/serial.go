// Package serial implements the one-shot SB/SC serial transfer stub: no
// peer is emulated, but an internal-clock transfer still completes and
// raises the serial interrupt after the documented bit-clock delay, and an
// optional sink can observe transmitted bytes (used by test-ROM runners
// that print over the link cable).
package serial

import "github.com/fmnoll/gbcore/internal/irq"

// 8 bits at the DMG internal clock (8192 Hz) take roughly this many T-cycles.
const transferCycles = 4096

type Serial struct {
	sb       byte
	sc       byte
	inFlight int

	sink func(b byte)
	irq  *irq.Controller
}

func New(irqc *irq.Controller) *Serial {
	return &Serial{irq: irqc}
}

// SetSink installs an observer called with each byte once its transfer
// completes; nil disables observation.
func (s *Serial) SetSink(fn func(b byte)) { s.sink = fn }

func (s *Serial) ReadSB() byte { return s.sb }
func (s *Serial) ReadSC() byte { return s.sc | 0x7E }

func (s *Serial) WriteSB(v byte) { s.sb = v }

func (s *Serial) WriteSC(v byte) {
	s.sc = v & 0x81
	if s.sc&0x81 == 0x81 { // transfer start + internal clock
		s.inFlight = transferCycles
	}
}

func (s *Serial) Tick(cycles int) {
	if s.inFlight == 0 {
		return
	}
	s.inFlight -= cycles
	if s.inFlight <= 0 {
		s.inFlight = 0
		s.sc &^= 0x80
		if s.sink != nil {
			s.sink(s.sb)
		}
		s.sb = 0xFF // no peer: shifted-in bits read back as 1
		s.irq.Request(irq.Serial)
	}
}
