// Package cpu implements the SM83 (Sharp LR35902) decode/execute core: the
// register file, ALU, unprefixed and CB-prefixed instruction pages, the
// HALT/STOP and EI-delay edge cases, and interrupt dispatch.
package cpu

import "github.com/fmnoll/gbcore/internal/irq"

// Bus is the address-space surface the CPU needs. internal/bus satisfies
// it; tests may supply a smaller fake.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
	SpeedSwitchArmed() bool
	ToggleSpeed()
}

// rp/rp2 16-bit pair tables used by the bit-pattern decode below.
const (
	rpBC = 0
	rpDE = 1
	rpHL = 2
	rpSP = 3 // rp table; rp2 table uses this slot for AF instead
)

// CPU holds the SM83 register file plus execution state. Interrupt enable
// state (IE/IF/IME) lives in the shared *irq.Controller so every subsystem
// that can raise an interrupt writes to the same place the CPU reads from.
type CPU struct {
	Registers

	halted bool

	bus Bus
	irq *irq.Controller
}

func New(bus Bus, irqc *irq.Controller) *CPU {
	return &CPU{bus: bus, irq: irqc}
}

// ResetNoBoot sets the post-boot-ROM register defaults (DMG), matching
// what the real boot ROM leaves behind when it hands off at 0x0100.
func (c *CPU) ResetNoBoot() {
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.halted = false
}

// ResetCGBNoBoot sets the post-boot-ROM register defaults a CGB leaves
// behind at 0x0100, used when entering CGB (or CGB-compatibility) mode
// without running an actual boot ROM image.
func (c *CPU) ResetCGBNoBoot() {
	c.A, c.F = 0x11, 0x80
	c.B, c.C = 0x00, 0x00
	c.D, c.E = 0xFF, 0x56
	c.H, c.L = 0x00, 0x0D
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.halted = false
}

func (c *CPU) Halted() bool { return c.halted }

// SetHalted restores the HALT flag, used when resuming from a saved state.
func (c *CPU) SetHalted(v bool) { c.halted = v }

func (c *CPU) fetch8() byte {
	v := c.bus.Read(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.SP--
	c.bus.Write(c.SP, byte(v>>8))
	c.SP--
	c.bus.Write(c.SP, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.SP)
	c.SP++
	hi := c.bus.Read(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

// operand8 reads r[z] for the 3-bit register selector, with index 6
// meaning (HL).
func (c *CPU) operand8(idx byte) byte {
	if idx == r8HLIndirect {
		return c.bus.Read(c.HL())
	}
	return c.get8(idx)
}

func (c *CPU) setOperand8(idx byte, v byte) {
	if idx == r8HLIndirect {
		c.bus.Write(c.HL(), v)
		return
	}
	c.set8(idx, v)
}

// Step decodes and executes exactly one instruction (or one HALT tick) and
// returns the T-cycles it consumed. stopNoop reports STOP executed with no
// speed-switch armed, which the host logs but otherwise treats as a NOP.
func (c *CPU) Step() (cycles int, stopNoop bool, err error) {
	c.irq.TickEIDelay()

	if c.halted {
		return 4, false, nil
	}

	pc := c.PC
	op := c.fetch8()

	if isUndefinedOpcode(op) {
		return 0, false, &DecodeError{PC: pc, Opcode: op}
	}

	if op == 0xCB {
		return c.stepCB()
	}

	if op == 0x10 { // STOP
		c.fetch8() // consume the mandatory second byte
		if c.bus.SpeedSwitchArmed() {
			c.bus.ToggleSpeed()
			return 131072, false, nil
		}
		return 4, true, nil
	}

	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 0:
		return c.stepX0(op, y, z, p, q)
	case 1:
		if y == r8HLIndirect && z == r8HLIndirect {
			c.halted = true
			return 4, false, nil
		}
		c.setOperand8(y, c.operand8(z))
		if y == r8HLIndirect || z == r8HLIndirect {
			return 8, false, nil
		}
		return 4, false, nil
	case 2:
		return c.stepALU(y, c.operand8(z), z == r8HLIndirect), false, nil
	case 3:
		return c.stepX3(op, y, z, p, q)
	}
	return 0, false, &DecodeError{PC: pc, Opcode: op}
}

func (c *CPU) stepX0(op, y, z, p, q byte) (int, bool, error) {
	switch z {
	case 0:
		switch {
		case y == 0: // NOP
			return 4, false, nil
		case y == 1: // LD (a16),SP
			addr := c.fetch16()
			c.bus.Write(addr, byte(c.SP))
			c.bus.Write(addr+1, byte(c.SP>>8))
			return 20, false, nil
		case y == 2: // STOP already handled above; unreachable
			return 4, false, nil
		case y == 3: // JR d
			d := int8(c.fetch8())
			c.PC = uint16(int32(c.PC) + int32(d))
			return 12, false, nil
		default: // JR cc,d
			d := int8(c.fetch8())
			if c.condition(y - 4) {
				c.PC = uint16(int32(c.PC) + int32(d))
				return 12, false, nil
			}
			return 8, false, nil
		}
	case 1:
		if q == 0 { // LD rp,nn
			c.setRP(p, c.fetch16())
			return 12, false, nil
		}
		res, h, cy := add16(c.HL(), c.getRP(p))
		c.SetHL(res)
		c.F &= FlagZ // Z preserved, N cleared
		if h {
			c.F |= FlagH
		}
		if cy {
			c.F |= FlagC
		}
		return 8, false, nil
	case 2:
		addr := c.indirectAddr(p)
		if q == 0 {
			c.bus.Write(addr, c.A)
		} else {
			c.A = c.bus.Read(addr)
		}
		return 8, false, nil
	case 3:
		if q == 0 {
			c.setRP(p, c.getRP(p)+1)
		} else {
			c.setRP(p, c.getRP(p)-1)
		}
		return 8, false, nil
	case 4:
		res, z8, h := inc8(c.operand8(y))
		c.setOperand8(y, res)
		c.setZNH(z8, false, h)
		if y == r8HLIndirect {
			return 12, false, nil
		}
		return 4, false, nil
	case 5:
		res, z8, h := dec8(c.operand8(y))
		c.setOperand8(y, res)
		c.setZNH(z8, true, h)
		if y == r8HLIndirect {
			return 12, false, nil
		}
		return 4, false, nil
	case 6:
		n := c.fetch8()
		c.setOperand8(y, n)
		if y == r8HLIndirect {
			return 12, false, nil
		}
		return 8, false, nil
	case 7:
		c.stepAccumulatorOp(y)
		return 4, false, nil
	}
	return 0, false, &DecodeError{PC: c.PC, Opcode: op}
}

// setZNH keeps carry as-is and sets Z/N/H; used by INC/DEC which never
// touch the carry flag.
func (c *CPU) setZNH(z, n, h bool) {
	f := c.F & FlagC
	if z {
		f |= FlagZ
	}
	if n {
		f |= FlagN
	}
	if h {
		f |= FlagH
	}
	c.F = f
}

func (c *CPU) stepAccumulatorOp(y byte) {
	switch y {
	case 0: // RLCA
		cy := c.A&0x80 != 0
		c.A = c.A<<1 | c.A>>7
		c.F = 0
		if cy {
			c.F |= FlagC
		}
	case 1: // RRCA
		cy := c.A&0x01 != 0
		c.A = c.A>>1 | c.A<<7
		c.F = 0
		if cy {
			c.F |= FlagC
		}
	case 2: // RLA
		cy := c.A&0x80 != 0
		oldC := c.Flag(FlagC)
		c.A <<= 1
		if oldC {
			c.A |= 1
		}
		c.F = 0
		if cy {
			c.F |= FlagC
		}
	case 3: // RRA
		cy := c.A&0x01 != 0
		oldC := c.Flag(FlagC)
		c.A >>= 1
		if oldC {
			c.A |= 0x80
		}
		c.F = 0
		if cy {
			c.F |= FlagC
		}
	case 4: // DAA
		res, z, _, cy := daa(c.A, c.Flag(FlagN), c.Flag(FlagH), c.Flag(FlagC))
		c.A = res
		n := c.Flag(FlagN)
		c.F = 0
		if z {
			c.F |= FlagZ
		}
		if n {
			c.F |= FlagN
		}
		if cy {
			c.F |= FlagC
		}
	case 5: // CPL
		c.A = ^c.A
		c.F |= FlagN | FlagH
	case 6: // SCF
		c.F = c.F&FlagZ | FlagC
	case 7: // CCF
		wasC := c.Flag(FlagC)
		c.F = c.F & FlagZ
		if !wasC {
			c.F |= FlagC
		}
	}
}

func (c *CPU) stepALU(op byte, operand byte, fromHL bool) int {
	var res byte
	var z, n, h, cy bool
	switch op {
	case 0:
		res, z, n, h, cy = add8(c.A, operand)
	case 1:
		res, z, n, h, cy = adc8(c.A, operand, c.Flag(FlagC))
	case 2:
		res, z, n, h, cy = sub8(c.A, operand)
	case 3:
		res, z, n, h, cy = sbc8(c.A, operand, c.Flag(FlagC))
	case 4:
		res, z, n, h, cy = and8(c.A, operand)
	case 5:
		res, z, n, h, cy = xor8(c.A, operand)
	case 6:
		res, z, n, h, cy = or8(c.A, operand)
	case 7:
		z, n, h, cy = cp8(c.A, operand)
		c.SetFlags(z, n, h, cy)
		if fromHL {
			return 8
		}
		return 4
	}
	c.A = res
	c.SetFlags(z, n, h, cy)
	if fromHL {
		return 8
	}
	return 4
}

func (c *CPU) stepX3(op, y, z, p, q byte) (int, bool, error) {
	switch z {
	case 0:
		switch {
		case y <= 3: // RET cc
			if c.condition(y) {
				c.PC = c.pop16()
				return 20, false, nil
			}
			return 8, false, nil
		case y == 4: // LDH (a8),A
			addr := 0xFF00 + uint16(c.fetch8())
			c.bus.Write(addr, c.A)
			return 12, false, nil
		case y == 5: // ADD SP,d
			d := int8(c.fetch8())
			res, h, cy := addSPSigned(c.SP, d)
			c.SP = res
			c.F = 0
			if h {
				c.F |= FlagH
			}
			if cy {
				c.F |= FlagC
			}
			return 16, false, nil
		case y == 6: // LDH A,(a8)
			addr := 0xFF00 + uint16(c.fetch8())
			c.A = c.bus.Read(addr)
			return 12, false, nil
		default: // LD HL,SP+d
			d := int8(c.fetch8())
			res, h, cy := addSPSigned(c.SP, d)
			c.SetHL(res)
			c.F = 0
			if h {
				c.F |= FlagH
			}
			if cy {
				c.F |= FlagC
			}
			return 12, false, nil
		}
	case 1:
		if q == 0 {
			c.SetAF2(p, c.pop16())
			return 12, false, nil
		}
		switch p {
		case 0: // RET
			c.PC = c.pop16()
			return 16, false, nil
		case 1: // RETI
			c.PC = c.pop16()
			c.irq.SetIME(true)
			return 16, false, nil
		case 2: // JP (HL)
			c.PC = c.HL()
			return 4, false, nil
		default: // LD SP,HL
			c.SP = c.HL()
			return 8, false, nil
		}
	case 2:
		switch {
		case y <= 3: // JP cc,nn
			addr := c.fetch16()
			if c.condition(y) {
				c.PC = addr
				return 16, false, nil
			}
			return 12, false, nil
		case y == 4: // LD (0xFF00+C),A
			c.bus.Write(0xFF00+uint16(c.C), c.A)
			return 8, false, nil
		case y == 5: // LD (a16),A
			c.bus.Write(c.fetch16(), c.A)
			return 16, false, nil
		case y == 6: // LD A,(0xFF00+C)
			c.A = c.bus.Read(0xFF00 + uint16(c.C))
			return 8, false, nil
		default: // LD A,(a16)
			c.A = c.bus.Read(c.fetch16())
			return 16, false, nil
		}
	case 3:
		switch y {
		case 0: // JP nn
			c.PC = c.fetch16()
			return 16, false, nil
		case 6: // DI
			c.irq.SetIME(false)
			return 4, false, nil
		case 7: // EI
			c.irq.ArmEI()
			return 4, false, nil
		}
	case 4:
		if y <= 3 { // CALL cc,nn
			addr := c.fetch16()
			if c.condition(y) {
				c.push16(c.PC)
				c.PC = addr
				return 24, false, nil
			}
			return 12, false, nil
		}
	case 5:
		if q == 0 { // PUSH rp2
			c.push16(c.AF2(p))
			return 16, false, nil
		}
		if p == 0 { // CALL nn
			addr := c.fetch16()
			c.push16(c.PC)
			c.PC = addr
			return 24, false, nil
		}
	case 6: // ALU A,n
		n := c.fetch8()
		c.stepALU(y, n, false)
		return 8, false, nil
	case 7: // RST y*8
		c.push16(c.PC)
		c.PC = uint16(y) * 8
		return 16, false, nil
	}
	return 0, false, &DecodeError{PC: c.PC, Opcode: op}
}

func (c *CPU) condition(y byte) bool {
	switch y {
	case 0:
		return !c.Flag(FlagZ)
	case 1:
		return c.Flag(FlagZ)
	case 2:
		return !c.Flag(FlagC)
	default:
		return c.Flag(FlagC)
	}
}

func (c *CPU) getRP(p byte) uint16 {
	switch p {
	case rpBC:
		return c.BC()
	case rpDE:
		return c.DE()
	case rpHL:
		return c.HL()
	default:
		return c.SP
	}
}

func (c *CPU) setRP(p byte, v uint16) {
	switch p {
	case rpBC:
		c.SetBC(v)
	case rpDE:
		c.SetDE(v)
	case rpHL:
		c.SetHL(v)
	default:
		c.SP = v
	}
}

// AF2/SetAF2 select the rp2 table used by PUSH/POP (slot 3 is AF, not SP).
func (c *CPU) AF2(p byte) uint16 {
	if p == 3 {
		return c.AF()
	}
	return c.getRP(p)
}

func (c *CPU) SetAF2(p byte, v uint16) {
	if p == 3 {
		c.SetAF(v)
		return
	}
	c.setRP(p, v)
}

// indirectAddr resolves the (BC)/(DE)/(HL+)/(HL-) address forms used by
// LD A,(rp) and LD (rp),A in the x=0 block, advancing HL for the last two.
func (c *CPU) indirectAddr(p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		hl := c.HL()
		c.SetHL(hl + 1)
		return hl
	default:
		hl := c.HL()
		c.SetHL(hl - 1)
		return hl
	}
}

// isUndefinedOpcode reports the eleven byte values with no SM83 meaning.
func isUndefinedOpcode(op byte) bool {
	switch op {
	case 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD:
		return true
	}
	return false
}

// ServiceInterrupts runs the interrupt dispatch step described by the
// hardware rule: if IME and a pending bit exists, service the
// lowest-indexed one (push PC, jump to its vector, clear IME, charge 20
// cycles). If IME is off but the CPU is halted and a bit is pending, HALT
// is cleared without dispatch. Must be called once after every Step, after
// the peripheral clocks for that step have been advanced (so a
// newly-raised interrupt is visible here).
func (c *CPU) ServiceInterrupts() (extraCycles int) {
	pending := c.irq.Pending()
	if pending == 0 {
		return 0
	}
	if c.irq.IME() {
		bit := lowestSetBit(pending)
		c.irq.Ack(byte(1) << uint(bit))
		c.irq.SetIME(false)
		c.halted = false
		c.push16(c.PC)
		c.PC = irq.Vector[bit]
		return 20
	}
	if c.halted {
		c.halted = false
	}
	return 0
}
