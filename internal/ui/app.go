// Package ui is a reference ebiten host shell for internal/core: a window,
// a keyboard-driven joypad, and an oto-backed (via ebiten/audio) speaker.
// It is an example collaborator, not part of the emulation core itself —
// every call here goes through *core.Core's public API.
package ui

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/fmnoll/gbcore/internal/core"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type App struct {
	cfg  Config
	core *core.Core
	tex  *ebiten.Image

	paused bool
	fast   bool
	turbo  int

	lastTime time.Time
	frameAcc float64

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioSrc    *apuStream
	audioMuted  bool

	showStats bool

	statePath string // quick-save slot, derived from ROM path

	toastMsg   string
	toastUntil time.Time
}

func NewApp(cfg Config, c *core.Core) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)

	a := &App{cfg: cfg, core: c, turbo: 1}
	a.lastTime = time.Now()
	a.audioCtx = audio.NewContext(48000)

	if c != nil && c.ROMPath() != "" {
		a.statePath = c.ROMPath() + ".savestate"
		if t := c.ROMTitle(); t != "" {
			ebiten.SetWindowTitle(cfg.Title + " - [" + t + "]")
		}
	}
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	if a.audioPlayer == nil {
		a.audioMuted = true
		a.core.APUClearAudioLatency()
		a.audioSrc = &apuStream{c: a.core, mono: !a.cfg.AudioStereo, muted: &a.audioMuted, lowLatency: a.cfg.AudioLowLatency}
		if p, err := a.audioCtx.NewPlayer(a.audioSrc); err == nil {
			a.audioPlayer = p
			a.applyPlayerBufferSize()
			a.audioPlayer.Play()
		}
	}

	var up, down, left, right, aBtn, bBtn, start, sel bool
	up = ebiten.IsKeyPressed(ebiten.KeyUp)
	down = ebiten.IsKeyPressed(ebiten.KeyDown)
	left = ebiten.IsKeyPressed(ebiten.KeyLeft)
	right = ebiten.IsKeyPressed(ebiten.KeyRight)
	aBtn = ebiten.IsKeyPressed(ebiten.KeyZ)
	bBtn = ebiten.IsKeyPressed(ebiten.KeyX)
	start = ebiten.IsKeyPressed(ebiten.KeyEnter)
	sel = ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	a.core.SetButtons(aBtn, bBtn, start, sel, up, down, left, right)

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	prevFast := a.fast
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyF6) && a.turbo > 1 {
		a.turbo--
		a.toast(fmt.Sprintf("Turbo: x%d", a.turbo))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF7) && a.turbo < 10 {
		a.turbo++
		a.toast(fmt.Sprintf("Turbo: x%d", a.turbo))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.core.ResetPostBoot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		a.core.ResetWithBoot()
	}
	if a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.core.StepFrame()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := a.core.SaveStateToFile(a.statePath); err == nil {
			a.toast("State saved")
		} else {
			a.toast("Save failed: " + err.Error())
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		if err := a.core.LoadStateFromFile(a.statePath); err == nil {
			a.toast("State loaded")
		} else {
			a.toast("Load failed: " + err.Error())
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		_ = a.saveScreenshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF8) {
		a.showStats = !a.showStats
	}
	if a.core.IsCGBCompat() {
		if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
			a.core.CycleCompatPalette(-1)
			a.toastPalette()
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
			a.core.CycleCompatPalette(+1)
			a.toastPalette()
		}
	}

	muted := a.paused
	if muted != a.audioMuted {
		a.audioMuted = muted
		a.lastTime = time.Now()
		a.frameAcc = 0
		a.core.APUClearAudioLatency()
	}
	if prevFast != a.fast {
		if a.fast {
			a.core.APUCapBufferedStereo(1920)
		} else {
			a.core.APUClearAudioLatency()
		}
		a.applyPlayerBufferSize()
	}

	if !a.paused {
		now := time.Now()
		dt := now.Sub(a.lastTime).Seconds()
		if dt < 0 {
			dt = 0
		}
		a.lastTime = now
		gbFps := 4194304.0 / 70224.0 // ~59.7275
		speed := 1.0
		if a.fast {
			speed = float64(max(2, a.turbo))
		}
		a.frameAcc += dt * gbFps * speed
		steps := 0
		for a.frameAcc >= 1.0 && steps < 10 { // cap to avoid spiral of death
			if _, err := a.core.StepFrame(); err != nil {
				a.toast(err.Error())
				a.paused = true
				break
			}
			a.frameAcc -= 1.0
			steps++
		}
		if buffered := a.core.APUBufferedStereo(); a.audioMuted && buffered > 1024 {
			a.audioMuted = false
		}
	}
	return nil
}

func (a *App) toastPalette() {
	id := a.core.CurrentCompatPalette()
	a.toast(fmt.Sprintf("Compat palette: %s", a.core.CompatPaletteName(id)))
}

func (a *App) applyPlayerBufferSize() {
	if a.audioPlayer == nil {
		return
	}
	bufMs := a.cfg.AudioBufferMs
	if a.cfg.AudioLowLatency || a.fast {
		bufMs = 20
	}
	a.audioPlayer.SetBufferSize(time.Duration(bufMs) * time.Millisecond)
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.core.Framebuffer())
	screen.DrawImage(a.tex, nil)

	if a.showStats {
		bf := a.core.APUBufferedStereo()
		ms := (bf * 1000) / 48000
		und, lp, lw := 0, 0, 0
		if a.audioSrc != nil {
			und, lp, lw = a.audioSrc.underruns, a.audioSrc.lastPulled, a.audioSrc.lastWant
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Buf: %d (~%dms)", bf, ms), 4, 4)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Under: %d  Read: %d/%d", und, lp, lw), 4, 18)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Turbo: x%d", a.turbo), 4, 32)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 6, 4)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return 160, 144 }

func (a *App) saveScreenshot() error {
	fb := a.core.Framebuffer()
	img := &image.RGBA{Pix: make([]byte, len(fb)), Stride: 4 * 160, Rect: image.Rect(0, 0, 160, 144)}
	copy(img.Pix, fb)
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// apuStream implements io.Reader by pulling PCM samples from the core's
// APU and converting them to 16-bit little-endian stereo frames.
type apuStream struct {
	c          *core.Core
	mono       bool
	muted      *bool
	lowLatency bool

	underruns  int
	lastWant   int
	lastPulled int
}

func (s *apuStream) Read(p []byte) (int, error) {
	if len(p) == 0 || s == nil || s.c == nil {
		return 0, nil
	}
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	if s.muted != nil && *s.muted {
		for i := range p {
			p[i] = 0
		}
		time.Sleep(5 * time.Millisecond)
		return len(p), nil
	}

	maxReq := len(p) / 4
	capFrames := 2048
	if s.lowLatency {
		capFrames = 1024
	}
	if maxReq > capFrames {
		maxReq = capFrames
	}

	waitDur := 15 * time.Millisecond
	if s.lowLatency {
		waitDur = 8 * time.Millisecond
	}
	deadline := time.Now().Add(waitDur)
	want := maxReq
	if buf := s.c.APUBufferedStereo(); buf > 0 {
		if buf < want {
			want = buf
		}
	} else {
		for time.Now().Before(deadline) {
			if b := s.c.APUBufferedStereo(); b > 0 {
				want = b
				if want > maxReq {
					want = maxReq
				}
				break
			}
			time.Sleep(1 * time.Millisecond)
		}
	}
	if want <= 0 {
		return s.silence(p, maxReq, 256)
	}

	pulled := 0
	i := 0
	for pulled < want {
		frames := s.c.APUPullStereo(want - pulled)
		if len(frames) == 0 {
			break
		}
		for j := 0; j+1 < len(frames) && i+3 < len(p); j += 2 {
			l, r := frames[j], frames[j+1]
			if s.mono {
				m := int16((int32(l) + int32(r)) / 2)
				binary.LittleEndian.PutUint16(p[i:], uint16(m))
				binary.LittleEndian.PutUint16(p[i+2:], uint16(m))
			} else {
				binary.LittleEndian.PutUint16(p[i:], uint16(l))
				binary.LittleEndian.PutUint16(p[i+2:], uint16(r))
			}
			i += 4
			pulled++
		}
	}
	if pulled == 0 {
		return s.silence(p, maxReq, 128)
	}
	s.lastWant, s.lastPulled = pulled, pulled
	return pulled * 4, nil
}

func (s *apuStream) silence(p []byte, maxReq, frames int) (int, error) {
	if frames > maxReq {
		frames = maxReq
	}
	for i := 0; i < frames*4 && i+3 < len(p); i += 4 {
		binary.LittleEndian.PutUint16(p[i:], 0)
		binary.LittleEndian.PutUint16(p[i+2:], 0)
	}
	s.underruns++
	s.lastWant, s.lastPulled = frames, frames
	return frames * 4, nil
}
