package ppu

// renderScanline renders the current line (p.ly) into the in-progress frame
// buffer. It is called once, at the Transfer draw point, matching the
// "whole line rendered at a single draw point" design.
func (p *PPU) renderScanline() {
	ly := p.ly
	if int(ly) >= 144 {
		return
	}

	bgWinEnable := p.lcdc&0x01 != 0
	windowEnable := p.lcdc&0x20 != 0
	tileData8000 := p.lcdc&0x10 != 0
	bgMapBase := uint16(0x9800)
	if p.lcdc&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	winMapBase := uint16(0x9800)
	if p.lcdc&0x40 != 0 {
		winMapBase = 0x9C00
	}
	tallSprites := p.lcdc&0x04 != 0
	objEnable := p.lcdc&0x02 != 0

	wxStart := int(p.wx) - 7
	winVisible := windowEnable && ly >= p.wy && wxStart < 160 && (bgWinEnable || p.cgbMode)

	lr := LineRegs{
		SCX: p.scx, SCY: p.scy, WX: p.wx, WY: p.wy,
		LCDC: p.lcdc, BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		WinVisible: winVisible,
	}
	if winVisible {
		lr.WinLine = p.winLineCounter
	}

	var ci [160]byte
	var pal [160]byte
	var pri [160]bool

	if p.cgbMode {
		// BG attributes live in VRAM bank 1 at the same map offset as the
		// tile index in bank 0.
		ci, pal, pri = RenderBGScanlineCGB(p, bgMapBase, bgMapBase, tileData8000, p.scx, p.scy, ly)
		if winVisible {
			wci, wpal, wpri := RenderWindowScanlineCGB(p, winMapBase, winMapBase, tileData8000, wxStart, lr.WinLine)
			for x := wxStart; x < 160; x++ {
				if x < 0 {
					continue
				}
				ci[x], pal[x], pri[x] = wci[x], wpal[x], wpri[x]
			}
		}
	} else {
		if bgWinEnable {
			ci = RenderBGScanlineUsingFetcher(p, bgMapBase, tileData8000, p.scx, p.scy, ly)
			if winVisible {
				wci := RenderWindowScanlineUsingFetcher(p, winMapBase, tileData8000, wxStart, lr.WinLine)
				for x := wxStart; x < 160; x++ {
					if x < 0 {
						continue
					}
					ci[x] = wci[x]
				}
			}
		}
	}

	if winVisible {
		p.winLineCounter++
	}
	p.lineRegs[ly] = lr

	// Resolve BG pixels to RGB.
	var rowRGB [160][3]byte
	for x := 0; x < 160; x++ {
		if p.cgbMode {
			r, g, b := p.bgPalRAM.color(pal[x], ci[x])
			rowRGB[x] = [3]byte{r, g, b}
		} else {
			r, g, b := DMGColor(p.bgp, ci[x])
			rowRGB[x] = [3]byte{r, g, b}
		}
	}

	if objEnable {
		sprites := scanOAM(&p.oam, ly, tallSprites)
		spriteBGGate := ci
		if p.cgbMode {
			if p.lcdc&0x01 == 0 {
				// BG display bit clear on CGB: sprites always win.
				spriteBGGate = [160]byte{}
			} else {
				// A BG tile's own priority attribute beats sprites
				// unconditionally, independent of the sprite's OAM bit.
				for x, hasPri := range pri {
					if hasPri {
						spriteBGGate[x] = 1
					}
				}
			}
		}
		sOut, winnerByX := ComposeSpriteLine(p, sprites, ly, spriteBGGate, p.cgbMode)
		for x := 0; x < 160; x++ {
			if sOut[x] == 0 {
				continue
			}
			s := winnerByX[x]
			if s == nil {
				continue
			}
			if p.cgbMode {
				r, g, b := p.objPalRAM.color(s.Attr&0x07, sOut[x])
				rowRGB[x] = [3]byte{r, g, b}
			} else {
				objp := p.obp0
				if s.Attr&attrDMGPal != 0 {
					objp = p.obp1
				}
				r, g, b := DMGColor(objp, sOut[x])
				rowRGB[x] = [3]byte{r, g, b}
			}
		}
	}

	base := int(ly) * 160 * 4
	for x := 0; x < 160; x++ {
		o := base + x*4
		p.frame[o+0] = rowRGB[x][0]
		p.frame[o+1] = rowRGB[x][1]
		p.frame[o+2] = rowRGB[x][2]
		p.frame[o+3] = 0xFF
	}
}
