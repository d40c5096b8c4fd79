package apu

// frameSequencerPeriod is the CPU-cycle period of the 512 Hz frame sequencer.
const frameSequencerPeriod = cpuHz / 512

// tickSequencer advances the frame sequencer by one cycle and, on each of
// its 512 Hz steps, clocks length (256 Hz, steps 0/2/4/6), sweep (128 Hz,
// steps 2/6), and envelope (64 Hz, step 7) across all four channels.
func (a *APU) tickSequencer() {
	a.fsCounter--
	if a.fsCounter > 0 {
		return
	}
	a.fsCounter += frameSequencerPeriod
	a.fsStep = (a.fsStep + 1) & 7

	if a.fsStep%2 == 0 {
		a.ch1.clockLength()
		a.ch2.clockLength()
		a.ch3.clockLength()
		a.ch4.clockLength()
	}
	if a.fsStep == 2 || a.fsStep == 6 {
		a.ch1.clockSweep()
	}
	if a.fsStep == 7 {
		a.ch1.clockEnvelope()
		a.ch2.clockEnvelope()
		a.ch4.clockEnvelope()
	}
}
