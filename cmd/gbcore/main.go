// Command gbcore is a reference host for internal/core: an ebiten window
// with keyboard joypad and oto-backed audio, plus a headless mode for
// scripted smoke tests.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmnoll/gbcore/internal/core"
	"github.com/fmnoll/gbcore/internal/ui"
)

type cliFlags struct {
	ROMPath string
	BootROM string
	Scale   int
	Title   string
	SaveRAM bool

	Headless bool
	Frames   int
	PNGOut   string
	Expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb/.gbc)")
	flag.StringVar(&f.BootROM, "bootrom", "", "optional boot ROM image")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbcore", "window title")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func runHeadless(c *core.Core, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames; i++ {
		if _, err := c.StepFrame(); err != nil {
			return err
		}
	}
	dur := time.Since(start)

	fb := c.Framebuffer()
	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, 160, 144, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}
	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		if got := fmt.Sprintf("%08x", crc); got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{Pix: make([]byte, len(pix)), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	copy(img.Pix, pix)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	f := parseFlags()
	rom := mustRead(f.ROMPath)
	if len(rom) == 0 {
		log.Fatal("no ROM given (-rom)")
	}
	boot := mustRead(f.BootROM)

	romPath := f.ROMPath
	if abs, err := filepath.Abs(romPath); err == nil {
		romPath = abs
	}

	cfg := core.Config{ROMBytes: rom, ROMPath: romPath, BootROM: boot}
	c, err := core.FromConfig(cfg)
	if err != nil {
		log.Fatalf("load ROM: %v", err)
	}
	log.Printf("ROM: %q", c.ROMTitle())

	var savPath string
	if f.SaveRAM {
		savPath = strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav"
		if data, err := os.ReadFile(savPath); err == nil {
			if c.LoadBattery(data) {
				log.Printf("loaded save RAM: %s (%d bytes)", savPath, len(data))
			}
		}
	}

	writeSave := func() {
		if !f.SaveRAM || savPath == "" {
			return
		}
		if data, ok := c.SaveBattery(); ok {
			if err := os.WriteFile(savPath, data, 0644); err == nil {
				log.Printf("wrote %s", savPath)
			}
		}
	}

	if f.Headless {
		if err := runHeadless(c, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		writeSave()
		return
	}

	uiCfg := ui.Config{Title: f.Title, Scale: f.Scale}
	app := ui.NewApp(uiCfg, c)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	writeSave()
}
