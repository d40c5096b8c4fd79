package core

// TraceState is a point-in-time snapshot of CPU-visible state, for hosts
// that print per-instruction traces (e.g. diffing against another
// emulator's log while chasing a test-ROM failure).
type TraceState struct {
	PC, SP                 uint16
	A, F, B, C, D, E, H, L byte
	IME                    bool
	IE, IF                 byte
}

// Trace captures the CPU/interrupt-controller state before the next
// StepInstruction call executes.
func (c *Core) Trace() TraceState {
	return TraceState{
		PC: c.cpu.PC, SP: c.cpu.SP,
		A: c.cpu.A, F: c.cpu.F, B: c.cpu.B, C: c.cpu.C, D: c.cpu.D, E: c.cpu.E, H: c.cpu.H, L: c.cpu.L,
		IME: c.irq.IME(), IE: c.irq.IE, IF: c.irq.IF,
	}
}
