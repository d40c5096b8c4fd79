// Command gbtrace is a headless instruction-level runner for test ROMs
// (blargg-style cpu_instrs/mem_timing/etc): it steps a core.Core instance,
// watches the serial port for a pass/fail marker, and can dump a recent
// instruction trace when a failure is detected.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fmnoll/gbcore/internal/core"
)

type ringBuf struct {
	buf   []byte
	idx   int
	fill  int
}

func newRingBuf(n int) *ringBuf { return &ringBuf{buf: make([]byte, n)} }

func (r *ringBuf) Write(p []byte) (int, error) {
	for _, ch := range p {
		r.buf[r.idx] = ch
		r.idx = (r.idx + 1) % len(r.buf)
		if r.fill < len(r.buf) {
			r.fill++
		}
	}
	return len(p), nil
}

func (r *ringBuf) String() string {
	start := (r.idx - r.fill + len(r.buf)) % len(r.buf)
	out := make([]byte, r.fill)
	for j := 0; j < r.fill; j++ {
		out[j] = r.buf[(start+j)%len(r.buf)]
	}
	return string(out)
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb/.gbc)")
	bootPath := flag.String("bootrom", "", "optional boot ROM to run from 0x0000")
	steps := flag.Int("steps", 5_000_000, "max instructions to run")
	trace := flag.Bool("trace", false, "print a line per instruction")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "detect 'Passed'/'Failed N tests' in serial output and exit 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout; 0 disables")
	traceOnFail := flag.Bool("traceOnFail", false, "on -auto failure, print the recent instruction trace")
	traceWindow := flag.Int("traceWindow", 200, "instructions retained for -traceOnFail")
	serialWindow := flag.Int("serialWindow", 8192, "serial bytes retained for diagnostics on failure")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	var boot []byte
	if *bootPath != "" {
		if b, err := os.ReadFile(*bootPath); err == nil {
			boot = b
		} else {
			log.Fatalf("read bootrom: %v", err)
		}
	}

	c, err := core.FromConfig(core.Config{ROMBytes: rom, ROMPath: *romPath, BootROM: boot})
	if err != nil {
		log.Fatalf("load ROM: %v", err)
	}

	var serBuf bytes.Buffer
	sw := serialWindowSize(*serialWindow)
	serRing := newRingBuf(sw)
	c.SetSerialWriter(multiWriter{os.Stdout, &serBuf, serRing})

	trRing := make([]core.TraceState, max1(*traceWindow, 1))
	trIdx, trFill := 0, 0

	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)
	stageRe := regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
	lastStage := ""

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}

	var cycles int
	for i := 0; i < *steps; i++ {
		var snap core.TraceState
		if *trace || *traceOnFail {
			snap = c.Trace()
		}
		cyc, err := c.StepInstruction()
		cycles += cyc
		if err != nil {
			fmt.Printf("\nFatal: %v\n", err)
			os.Exit(1)
		}
		if *trace {
			fmt.Printf("PC=%04X A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X\n",
				snap.PC, snap.A, snap.F, snap.B, snap.C, snap.D, snap.E, snap.H, snap.L, snap.SP, snap.IME, snap.IF, snap.IE)
		}
		if *traceOnFail {
			trRing[trIdx] = snap
			trIdx = (trIdx + 1) % len(trRing)
			if trFill < len(trRing) {
				trFill++
			}
		}

		if *auto {
			s := serBuf.String()
			if mm := stageRe.FindAllString(s, -1); len(mm) > 0 {
				lastStage = mm[len(mm)-1]
			}
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in serial output.\n")
				report(lastStage, i, cycles, start)
				os.Exit(0)
			}
			if m := failRe.FindStringSubmatch(s); m != nil {
				fmt.Printf("\nDetected %s in serial output.\n", m[0])
				if *traceOnFail && trFill > 0 {
					fmt.Printf("\n--- recent trace (last %d instructions) ---\n", trFill)
					startIdx := (trIdx - trFill + len(trRing)) % len(trRing)
					for j := 0; j < trFill; j++ {
						te := trRing[(startIdx+j)%len(trRing)]
						fmt.Printf("PC=%04X A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X IME=%t IF=%02X IE=%02X\n",
							te.PC, te.A, te.F, te.B, te.C, te.D, te.E, te.H, te.L, te.SP, te.IME, te.IF, te.IE)
					}
					fmt.Printf("--- end trace ---\n")
				}
				if serRing.fill > 0 {
					fmt.Printf("\n--- recent serial (last %d bytes) ---\n%s\n--- end serial ---\n", serRing.fill, serRing.String())
				}
				report(lastStage, i, cycles, start)
				os.Exit(1)
			}
		} else if *until != "" {
			if strings.Contains(strings.ToLower(serBuf.String()), strings.ToLower(*until)) {
				fmt.Printf("\nDetected %q in serial output.\n", *until)
				report("", i, cycles, start)
				return
			}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			report("", i, cycles, start)
			os.Exit(2)
		}
	}
	report("", *steps, cycles, start)
}

func report(lastStage string, steps, cycles int, start time.Time) {
	if lastStage != "" {
		fmt.Printf("Last stage seen: %s\n", lastStage)
	}
	fmt.Printf("\nDone: steps=%d cycles~=%d elapsed=%s\n", steps+1, cycles, time.Since(start).Truncate(time.Millisecond))
}

func serialWindowSize(n int) int {
	if n < 256 {
		return 256
	}
	return n
}

func max1(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type multiWriter []interface {
	Write([]byte) (int, error)
}

func (m multiWriter) Write(p []byte) (int, error) {
	for _, w := range m {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
