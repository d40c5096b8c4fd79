package timer

import (
	"testing"

	"github.com/fmnoll/gbcore/internal/irq"
)

func TestDIVReadIsTopByteOfInternalCounter(t *testing.T) {
	tm := New(irq.New())
	tm.Tick(256)
	if got := tm.ReadDIV(); got != 1 {
		t.Fatalf("DIV got %d want 1", got)
	}
}

func TestWriteDIVResetsCounterAndCanIncrementTIMA(t *testing.T) {
	tm := New(irq.New())
	tm.WriteTAC(0x05) // enable, input bit3
	tm.tima = 0x10
	tm.div = 0x0008 // bit3=1 -> input true
	if !tm.timerInput() {
		t.Fatalf("expected timerInput true before DIV write")
	}
	tm.WriteDIV() // resets div to 0 -> input goes false -> falling edge
	if got := tm.tima; got != 0x11 {
		t.Fatalf("TIMA not incremented on DIV falling edge: got %02X want 11", got)
	}
}

func TestTACChangeCausesFallingEdge(t *testing.T) {
	tm := New(irq.New())
	tm.tima = 0x20
	tm.div = 0x0008 // bit3=1, bit5=0
	tm.WriteTAC(0x05) // enable + bit3 select
	if !tm.timerInput() {
		t.Fatalf("expected timerInput true before TAC change")
	}
	tm.WriteTAC(0x06) // enable + bit5 select, currently 0 -> falling edge
	if got := tm.tima; got != 0x21 {
		t.Fatalf("TIMA not incremented on TAC falling edge: got %02X want 21", got)
	}
}

func TestEdgesIgnoredDuringPendingReload(t *testing.T) {
	tm := New(irq.New())
	tm.WriteTAC(0x05)
	tm.WriteTMA(0x33)
	tm.tima = 0xFF
	tm.div = 0x000F
	tm.Tick(1) // overflow -> TIMA=0, pending reload

	tm.div = 0x0008
	if !tm.timerInput() {
		t.Fatalf("expected timer input true before DIV write")
	}
	tm.WriteDIV()
	if got := tm.tima; got != 0x00 {
		t.Fatalf("TIMA incremented during pending reload: got %02X want 00", got)
	}
	for i := 0; i < 4; i++ {
		tm.Tick(1)
	}
	if got := tm.tima; got != 0x33 {
		t.Fatalf("reload did not occur: got %02X want 33", got)
	}
}

func TestTIMAOverflowReloadTimingAndCancellation(t *testing.T) {
	irqc := irq.New()
	tm := New(irqc)
	tm.WriteTAC(0x05)
	tm.WriteTMA(0xAB)
	tm.tima = 0xFF
	tm.div = 0x000F
	tm.Tick(1)
	if got := tm.tima; got != 0x00 {
		t.Fatalf("after overflow, TIMA got %02X want 00", got)
	}
	for i := 0; i < 3; i++ {
		tm.Tick(1)
		if got := tm.tima; got != 0x00 {
			t.Fatalf("during delay cycle %d, TIMA got %02X want 00", i, got)
		}
		if irqc.IF&irq.Timer != 0 {
			t.Fatalf("timer IF bit set prematurely during delay")
		}
	}
	tm.Tick(1)
	if got := tm.tima; got != 0xAB {
		t.Fatalf("after delay, TIMA got %02X want AB", got)
	}
	if irqc.IF&irq.Timer == 0 {
		t.Fatalf("timer IF bit not set on reload")
	}

	irqc.Ack(irq.Timer)
	tm.WriteTAC(0x05)
	tm.WriteTMA(0x55)
	tm.tima = 0xFF
	tm.div = 0x000F
	tm.Tick(1)
	tm.WriteTIMA(0x77) // cancels the pending reload
	for i := 0; i < 8; i++ {
		tm.Tick(1)
	}
	if got := tm.tima; got != 0x00 {
		t.Fatalf("TIMA write during delay did not reset it to 0: got %02X want 00", got)
	}
	if irqc.IF&irq.Timer != 0 {
		t.Fatalf("timer IF bit set despite cancellation")
	}

	irqc.Ack(irq.Timer)
	tm.WriteTAC(0x05)
	tm.tima = 0xFF
	tm.WriteTMA(0x11)
	tm.div = 0x000F
	tm.Tick(1)
	tm.WriteTMA(0x22) // changed during pending delay, affects the reload
	for i := 0; i < 4; i++ {
		tm.Tick(1)
	}
	if got := tm.tima; got != 0x22 {
		t.Fatalf("TMA write during delay not reflected in reload: got %02X want 22", got)
	}
}

func TestReadTACAlwaysSetsUpperBits(t *testing.T) {
	tm := New(irq.New())
	tm.WriteTAC(0xFD)
	if got := tm.ReadTAC(); got != 0xF8|(0xFD&0x07) {
		t.Fatalf("TAC got %02x want %02x", got, 0xF8|(0xFD&0x07))
	}
}
