package joypad

import (
	"testing"

	"github.com/fmnoll/gbcore/internal/irq"
)

func TestReadDefaultsToNoRowSelectedAllOnes(t *testing.T) {
	j := New(irq.New())
	if got := j.Read(); got&0x0F != 0x0F {
		t.Fatalf("default lower bits got %02x want 0x0F", got&0x0F)
	}
}

func TestReadReflectsSelectedRowActiveLow(t *testing.T) {
	j := New(irq.New())
	j.Write(0x20) // bit5=1, bit4=0 -> direction row selected
	j.SetButtons(Right | Up)
	if got := j.Read() & 0x0F; got != 0x0A { // Right(bit0) and Up(bit2) cleared
		t.Fatalf("direction row got %02x want 0x0A", got)
	}

	j.Write(0x10) // bit5=0, bit4=1 -> button row selected
	j.SetButtons(A | Start)
	if got := j.Read() & 0x0F; got != 0x06 { // A(bit0) and Start(bit3) cleared
		t.Fatalf("button row got %02x want 0x06", got)
	}
}

func TestSetButtonsRaisesIRQOnPressEdgeOfSelectedRow(t *testing.T) {
	irqc := irq.New()
	j := New(irqc)
	j.Write(0x20) // direction selected
	j.SetButtons(Right)
	if irqc.IF&irq.Joypad == 0 {
		t.Fatalf("expected joypad interrupt on press edge of selected row")
	}
}

func TestSetButtonsDoesNotRaiseIRQForUnselectedRow(t *testing.T) {
	irqc := irq.New()
	j := New(irqc)
	j.Write(0x20) // direction selected, buttons NOT selected
	j.SetButtons(A)
	if irqc.IF&irq.Joypad != 0 {
		t.Fatalf("did not expect joypad interrupt for unselected row's press")
	}
}

func TestSetButtonsNoIRQWithoutNewPress(t *testing.T) {
	irqc := irq.New()
	j := New(irqc)
	j.Write(0x20)
	j.SetButtons(Right)
	irqc.Ack(irq.Joypad)
	j.SetButtons(Right) // same mask, no new edge
	if irqc.IF&irq.Joypad != 0 {
		t.Fatalf("did not expect joypad interrupt without a new press edge")
	}
}
