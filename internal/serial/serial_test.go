package serial

import (
	"testing"

	"github.com/fmnoll/gbcore/internal/irq"
)

func TestTransferCompletesAfterTransferCyclesAndRaisesIRQ(t *testing.T) {
	irqc := irq.New()
	s := New(irqc)
	var out byte
	var sunk bool
	s.SetSink(func(b byte) { out = b; sunk = true })

	s.WriteSB(0x41)
	s.WriteSC(0x81) // start, internal clock

	s.Tick(transferCycles - 1)
	if sunk {
		t.Fatalf("transfer completed too early")
	}
	if s.ReadSC()&0x80 == 0 {
		t.Fatalf("transfer-in-progress bit cleared prematurely")
	}

	s.Tick(1)
	if !sunk || out != 0x41 {
		t.Fatalf("sink got (%v, %#x) want (true, 0x41)", sunk, out)
	}
	if s.ReadSC()&0x80 != 0 {
		t.Fatalf("SC bit7 should clear once the transfer completes")
	}
	if irqc.IF&irq.Serial == 0 {
		t.Fatalf("serial interrupt not raised on completion")
	}
	if s.ReadSB() != 0xFF {
		t.Fatalf("SB should read back all-ones with no peer, got %#x", s.ReadSB())
	}
}

func TestWriteSCWithoutInternalClockDoesNotStartTransfer(t *testing.T) {
	s := New(irq.New())
	s.WriteSB(0x41)
	s.WriteSC(0x80) // start bit set, but external clock (bit0=0)
	s.Tick(transferCycles)
	if s.ReadSB() != 0x41 {
		t.Fatalf("SB should be unchanged without an internal-clock transfer")
	}
}

func TestTickWithNoTransferInFlightIsNoop(t *testing.T) {
	s := New(irq.New())
	s.Tick(1000000)
}
