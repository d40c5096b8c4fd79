package apu

// chSquare models channels 1 and 2. Channel 2 simply never sets hasSweep,
// so its sweep fields stay zero and clockSweep is a no-op.
type chSquare struct {
	hasSweep bool

	enabled bool
	duty    byte // 0..3
	length  int  // 0..64
	lenEn   bool
	vol     byte // 0..15 initial volume
	envDir  int8 // +1/-1
	envPer  byte // 0..7 (0 means 8)
	curVol  byte
	envTmr  byte
	freq    uint16
	timer   int // frequency timer in CPU cycles
	phase   int // 0..7 index into duty pattern

	sweepPer    byte
	sweepNeg    bool
	sweepShift  byte
	sweepTmr    byte
	sweepEn     bool
	sweepShadow uint16
}

var dutyTable = [4][8]byte{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

// dacOn reports whether NR12/NR22's upper 5 bits keep the DAC powered.
func (c *chSquare) dacOn() bool { return c.vol != 0 || c.envDir > 0 }

func (c *chSquare) reloadTimer() {
	period := int(4 * (2048 - (c.freq & 0x7FF)))
	if period < 8 {
		period = 8
	}
	c.timer = period
}

// tickTimer advances the frequency timer by one cycle, rotating the duty
// phase on underflow.
func (c *chSquare) tickTimer() {
	if !c.enabled {
		return
	}
	c.timer--
	if c.timer <= 0 {
		c.reloadTimer()
		c.phase = (c.phase + 1) & 7
	}
}

func (c *chSquare) clockLength() {
	if c.lenEn && c.length > 0 {
		c.length--
		if c.length <= 0 {
			c.enabled = false
		}
	}
}

func (c *chSquare) clockEnvelope() {
	if !c.enabled || c.envPer == 0 {
		return
	}
	if c.envTmr > 0 {
		c.envTmr--
	}
	if c.envTmr == 0 {
		c.envTmr = c.envPer
		if c.envDir > 0 && c.curVol < 15 {
			c.curVol++
		} else if c.envDir < 0 && c.curVol > 0 {
			c.curVol--
		}
	}
}

// sweepCalc returns the next sweep frequency from the shadow register:
// shadow ± (shadow >> shift), or the shadow unchanged when shift is 0.
// clockSweep calls it twice to reproduce the hardware's double overflow check.
func (c *chSquare) sweepCalc() int {
	base := int(c.sweepShadow)
	if c.sweepShift == 0 {
		return base
	}
	delta := base >> c.sweepShift
	if c.sweepNeg {
		return base - delta
	}
	return base + delta
}

func (c *chSquare) clockSweep() {
	if !c.hasSweep || !c.enabled || !c.sweepEn || c.sweepPer == 0 {
		return
	}
	if c.sweepTmr > 0 {
		c.sweepTmr--
	}
	if c.sweepTmr == 0 {
		c.sweepTmr = c.sweepPer
		nf := c.sweepCalc()
		if nf > 2047 {
			c.enabled = false
			return
		}
		if c.sweepShift != 0 {
			c.sweepShadow = uint16(nf)
			c.freq = (c.freq &^ 0x07FF) | (uint16(nf) & 0x07FF)
			c.reloadTimer()
			if c.sweepCalc() > 2047 {
				c.enabled = false
			}
		}
	}
}

// trigger implements the channel-1/2 trigger event (NR14/NR24 bit 7).
func (c *chSquare) trigger() {
	c.enabled = c.dacOn()
	if c.length == 0 {
		c.length = 64
	}
	c.phase = 0
	c.reloadTimer()
	c.curVol = c.vol
	per := c.envPer
	if per == 0 {
		per = 8
	}
	c.envTmr = per
	if !c.hasSweep {
		return
	}
	c.sweepShadow = c.freq & 0x7FF
	c.sweepEn = c.sweepPer != 0 || c.sweepShift != 0
	st := c.sweepPer
	if st == 0 {
		st = 8
	}
	c.sweepTmr = st
	if c.sweepShift != 0 && c.sweepCalc() > 2047 {
		c.enabled = false
	}
}

// amplitude returns the channel's current DAC output in -1..+1.
func (c *chSquare) amplitude() float64 {
	if !c.enabled {
		return 0
	}
	on := dutyTable[c.duty][c.phase] != 0
	amp := float64(c.curVol) / 15.0
	if on {
		return amp
	}
	return -amp
}
