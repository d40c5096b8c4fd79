package irq

import "testing"

func TestRequestAndAck(t *testing.T) {
	c := New()
	c.Request(Timer)
	if c.IF&Timer == 0 {
		t.Fatalf("expected Timer bit set in IF")
	}
	c.Ack(Timer)
	if c.IF&Timer != 0 {
		t.Fatalf("expected Timer bit cleared after Ack")
	}
}

func TestPendingRequiresBothIEAndIF(t *testing.T) {
	c := New()
	c.Request(VBlank | Serial)
	c.IE = VBlank // only VBlank enabled
	if got := c.Pending(); got != VBlank {
		t.Fatalf("Pending got %#x want %#x", got, VBlank)
	}
}

func TestArmEIDelaysIMEByOneStep(t *testing.T) {
	c := New()
	c.ArmEI()
	if c.IME() {
		t.Fatalf("IME should not be set immediately after ArmEI")
	}
	c.TickEIDelay()
	if !c.IME() {
		t.Fatalf("IME should be set after one TickEIDelay call")
	}
}

func TestSetIMEClearsPendingEIDelay(t *testing.T) {
	c := New()
	c.ArmEI()
	c.SetIME(false)
	c.TickEIDelay()
	if c.IME() {
		t.Fatalf("SetIME should cancel a pending EI delay")
	}
}

func TestVectorTableOrder(t *testing.T) {
	want := [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}
	if Vector != want {
		t.Fatalf("Vector got %v want %v", Vector, want)
	}
}
