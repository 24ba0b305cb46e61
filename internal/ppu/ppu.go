// Package ppu implements the Game Boy/Game Boy Color picture
// processing unit: a dot-accurate mode state machine (OAM scan, pixel
// transfer, HBlank, VBlank) driving a per-scanline pixel FIFO
// fetcher, against a 160x144 RGB framebuffer.
//
// Grounded on original_source/src/ppu.rs, translated from its dot-
// budget Rust state machine into Go idiom; register modeling follows
// the teacher's internal/ppu/lcd and internal/ppu/palette packages.
package ppu

import (
	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/ppu/lcd"
	"github.com/pellucid-systems/goboy/internal/ppu/palette"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	drawLines   = 144
	hscanDots   = 456
	vblankLines = 10
	totalLines  = drawLines + vblankLines
)

// Register addresses on the IO bus.
const (
	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44
	LYC  uint16 = 0xFF45
	DMA  uint16 = 0xFF46
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
	VBK  uint16 = 0xFF4F
	BCPS uint16 = 0xFF68
	BCPD uint16 = 0xFF69
	OCPS uint16 = 0xFF6A
	OCPD uint16 = 0xFF6B
)

// RGB is one displayed pixel.
type RGB = [3]uint8

// Frame is one rendered 160x144 RGB framebuffer.
type Frame [ScreenHeight][ScreenWidth]RGB

type ppuMode int

const (
	modeScan ppuMode = iota
	modeDraw
	modeHBlank
	modeVBlank
)

// PPU owns VRAM, OAM, the LCD registers and the pixel fetcher, and
// produces one completed Frame per VBlank.
type PPU struct {
	isCGB bool
	irq   *interrupts.Service

	fetcher *fetcher

	oam [160]uint8

	lcdc   *lcd.Controller
	stat   *lcd.Status
	ly     uint8
	lyc    uint8
	scy    uint8
	scx    uint8
	wy, wx uint8

	dmgPalette palette.DMGRegister
	obp0       palette.DMGRegister
	obp1       palette.DMGRegister

	bgPalette  *palette.CGBPalette
	objPalette *palette.CGBPalette

	vramBank uint8

	mode      ppuMode
	dotsLeft  int
	statLine  bool

	frame      Frame
	backBuffer Frame
	frameReady bool

	hdma *HDMA
}

// AttachHDMA wires h so its HBlank-triggered transfers run each time
// this PPU enters HBlank.
func (p *PPU) AttachHDMA(h *HDMA) {
	p.hdma = h
}

// New returns a PPU powered on in its post-boot-ROM state.
func New(irq *interrupts.Service, isCGB bool) *PPU {
	lcdc := lcd.NewController()
	p := &PPU{
		isCGB:      isCGB,
		irq:        irq,
		lcdc:       lcdc,
		stat:       lcd.NewStatus(),
		fetcher:    newFetcher(lcdc),
		bgPalette:  palette.NewCGBPallette(),
		objPalette: palette.NewCGBPallette(),
		mode:       modeScan,
		dotsLeft:   hscanDots,
	}
	p.fetcher.isCGB = isCGB
	return p
}

// Tick advances the PPU by dots master-clock ticks.
func (p *PPU) Tick(dots uint32) {
	if !p.lcdc.Enabled {
		return
	}
	for i := uint32(0); i < dots; i++ {
		p.tickOne()
		p.updateLCDState()
	}
}

func (p *PPU) tickOne() {
	switch p.mode {
	case modeScan:
		p.stepScan()
	case modeDraw:
		p.stepDraw()
	case modeHBlank:
		p.stepHBlank()
	case modeVBlank:
		p.stepVBlank()
	}
}

// eatDots consumes one dot of the current scanline's 456-dot budget,
// returning true once the line is complete (and advancing LY).
func (p *PPU) eatDots() bool {
	p.dotsLeft--
	if p.dotsLeft > 0 {
		return false
	}
	p.dotsLeft = hscanDots
	p.ly++
	if int(p.ly) >= totalLines {
		p.ly = 0
	}
	return true
}

func (p *PPU) stepScan() {
	// Two dots per OAM entry; scan all 40 once, on the first dot.
	elapsed := hscanDots - p.dotsLeft
	if elapsed == 0 {
		p.scanOAM()
	}
	p.dotsLeft--
	if elapsed+1 == 80 {
		p.mode = modeDraw
		p.fetcher.newLine(int(p.ly))
	}
}

func (p *PPU) scanOAM() {
	spriteHeight := 8
	if p.lcdc.SpriteSize == 16 {
		spriteHeight = 16
	}
	for i := 0; i < 40; i++ {
		base := i * 4
		y := p.oam[base]
		screenY := int(y) - 16
		if int(p.ly) < screenY || int(p.ly) >= screenY+spriteHeight {
			continue
		}
		p.fetcher.addObject(oamEntry{
			y:        y,
			x:        p.oam[base+1],
			tileID:   p.oam[base+2],
			attrs:    decodeOamAttrs(p.oam[base+3]),
			oamIndex: i,
		})
	}
}

func (p *PPU) stepDraw() {
	p.dotsLeft--
	if (hscanDots-p.dotsLeft)%2 != 0 {
		return
	}
	p.fetcher.tick2Dots()
	if p.fetcher.isDone() {
		p.mode = modeHBlank
		p.copyLineToFrame()
		if p.hdma != nil {
			p.hdma.OnHBlank()
		}
	}
}

func (p *PPU) copyLineToFrame() {
	if int(p.ly) >= ScreenHeight {
		return
	}
	for x := 0; x < ScreenWidth; x++ {
		p.backBuffer[p.ly][x] = p.pixelToColor(p.fetcher.screenLine[x])
	}
}

func (p *PPU) pixelToColor(px pixel) RGB {
	if p.isCGB {
		var pal *palette.CGBPalette
		if px.isObj {
			pal = p.objPalette
		} else {
			pal = p.bgPalette
		}
		return pal.GetColour(px.palette, px.colorID)
	}

	var reg palette.DMGRegister
	switch {
	case px.isObj && px.palette == 0:
		reg = p.obp0
	case px.isObj:
		reg = p.obp1
	default:
		reg = p.dmgPalette
	}
	return palette.Palettes[palette.Current].Colors[reg.Shade(px.colorID)]
}

func (p *PPU) stepHBlank() {
	if p.eatDots() {
		if int(p.ly) >= drawLines {
			p.mode = modeVBlank
			p.frame = p.backBuffer
			p.frameReady = true
		} else {
			p.mode = modeScan
		}
	}
}

func (p *PPU) stepVBlank() {
	if p.eatDots() {
		if int(p.ly) == 0 {
			p.mode = modeScan
		}
	}
}

// updateLCDState recomputes the coincidence flag, the PPU's reported
// STAT mode, and fires the LCD interrupt on a low-to-high transition
// of the combined STAT interrupt line; VBlank fires on mode entry.
func (p *PPU) updateLCDState() {
	p.stat.Coincidence = p.ly == p.lyc

	switch p.mode {
	case modeHBlank:
		p.stat.Mode = lcd.HBlank
	case modeVBlank:
		p.stat.Mode = lcd.VBlank
	case modeScan:
		p.stat.Mode = lcd.OAM
	case modeDraw:
		p.stat.Mode = lcd.VRAM
	}

	if p.mode == modeVBlank && p.stat.Mode == lcd.VBlank && p.dotsLeft == hscanDots-1 && p.ly == drawLines {
		p.irq.Request(interrupts.VBlankFlag)
	}

	line := p.stat.Line(p.stat.Coincidence)
	if line && !p.statLine {
		p.irq.Request(interrupts.LCDFlag)
	}
	p.statLine = line
}

// FrameReady reports whether a new completed Frame is available, and
// clears the flag.
func (p *PPU) FrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

// Frame returns the most recently completed Frame.
func (p *PPU) Frame() Frame {
	return p.frame
}

// ReadVRAM reads from the currently banked VRAM window (0x8000-0x9FFF).
func (p *PPU) ReadVRAM(addr uint16) uint8 {
	return p.fetcher.vram[p.vramBank][addr-0x8000]
}

// WriteVRAM writes to the currently banked VRAM window.
func (p *PPU) WriteVRAM(addr uint16, value uint8) {
	p.fetcher.vram[p.vramBank][addr-0x8000] = value
}

// ReadVRAMBank reads VRAM bank bank directly, bypassing VBK — used by
// HDMA/GDMA transfers that target a specific bank.
func (p *PPU) ReadVRAMBank(bank uint8, addr uint16) uint8 {
	return p.fetcher.vram[bank][addr-0x8000]
}

// WriteVRAMBank writes VRAM bank bank directly, bypassing VBK.
func (p *PPU) WriteVRAMBank(bank uint8, addr uint16, value uint8) {
	p.fetcher.vram[bank][addr-0x8000] = value
}

// ReadOAM reads from OAM (0xFE00-0xFE9F).
func (p *PPU) ReadOAM(addr uint16) uint8 {
	return p.oam[addr-0xFE00]
}

// WriteOAM writes to OAM.
func (p *PPU) WriteOAM(addr uint16, value uint8) {
	p.oam[addr-0xFE00] = value
}

// WriteOAMByte writes OAM by a flat 0-159 index, used by OAM DMA.
func (p *PPU) WriteOAMByte(index int, value uint8) {
	p.oam[index] = value
}

// Read dispatches a register read against LCDC/STAT/.../OCPD.
func (p *PPU) Read(addr uint16) uint8 {
	switch addr {
	case LCDC:
		return p.lcdc.Read()
	case STAT:
		return p.stat.Read()
	case SCY:
		return p.scy
	case SCX:
		return p.scx
	case LY:
		return p.ly
	case LYC:
		return p.lyc
	case BGP:
		return p.dmgPalette.ToByte()
	case OBP0:
		return p.obp0.ToByte()
	case OBP1:
		return p.obp1.ToByte()
	case WY:
		return p.wy
	case WX:
		return p.wx
	case VBK:
		return p.vramBank | 0xFE
	case BCPS:
		return p.bgPalette.GetIndex()
	case BCPD:
		return p.bgPalette.Read()
	case OCPS:
		return p.objPalette.GetIndex()
	case OCPD:
		return p.objPalette.Read()
	}
	return 0xFF
}

// Write dispatches a register write.
func (p *PPU) Write(addr uint16, value uint8) {
	switch addr {
	case LCDC:
		wasEnabled := p.lcdc.Enabled
		p.lcdc.Write(value)
		if wasEnabled && !p.lcdc.Enabled {
			p.ly = 0
			p.mode = modeScan
			p.dotsLeft = hscanDots
			p.stat.Mode = lcd.OAM
		}
	case STAT:
		p.stat.Write(value)
	case SCY:
		p.scy = value
		p.fetcher.scy = value
	case SCX:
		p.scx = value
		p.fetcher.scx = value
	case LYC:
		p.lyc = value
	case BGP:
		p.dmgPalette = palette.ByteToRegister(value)
	case OBP0:
		p.obp0 = palette.ByteToRegister(value)
	case OBP1:
		p.obp1 = palette.ByteToRegister(value)
	case WY:
		p.wy = value
		p.fetcher.wy = value
	case WX:
		p.wx = value
		p.fetcher.wx = value
	case VBK:
		if p.isCGB {
			p.vramBank = value & 0x01
		}
	case BCPS:
		p.bgPalette.SetIndex(value)
	case BCPD:
		p.bgPalette.Write(value)
	case OCPS:
		p.objPalette.SetIndex(value)
	case OCPD:
		p.objPalette.Write(value)
	}
}

// Save writes the full PPU state: registers, mode machine, OAM,
// VRAM and both CGB palette RAMs.
func (p *PPU) Save(s *savestate.State) {
	s.Write8(p.ly)
	s.Write8(p.lyc)
	s.Write8(p.scy)
	s.Write8(p.scx)
	s.Write8(p.wy)
	s.Write8(p.wx)
	s.Write8(p.dmgPalette.ToByte())
	s.Write8(p.obp0.ToByte())
	s.Write8(p.obp1.ToByte())
	s.Write8(p.lcdc.Read())
	s.Write8(p.stat.Read())
	s.Write8(p.vramBank)
	s.Write32(uint32(p.mode))
	s.Write32(uint32(p.dotsLeft))
	s.WriteBool(p.statLine)
	s.WriteRaw(p.oam[:])
	for bank := 0; bank < 2; bank++ {
		s.WriteRaw(p.fetcher.vram[bank][:])
	}
	p.bgPalette.Save(s)
	p.objPalette.Save(s)
}

// Load restores state written by Save.
func (p *PPU) Load(s *savestate.State) {
	p.ly = s.Read8()
	p.lyc = s.Read8()
	p.scy = s.Read8()
	p.scx = s.Read8()
	p.wy = s.Read8()
	p.wx = s.Read8()
	p.dmgPalette = palette.ByteToRegister(s.Read8())
	p.obp0 = palette.ByteToRegister(s.Read8())
	p.obp1 = palette.ByteToRegister(s.Read8())
	p.lcdc.Write(s.Read8())
	p.stat.Write(s.Read8())
	p.vramBank = s.Read8()
	p.mode = ppuMode(s.Read32())
	p.dotsLeft = int(s.Read32())
	p.statLine = s.ReadBool()
	s.ReadInto(p.oam[:])
	for bank := 0; bank < 2; bank++ {
		s.ReadInto(p.fetcher.vram[bank][:])
	}
	p.bgPalette.Load(s)
	p.objPalette.Load(s)

	p.stat.Coincidence = p.ly == p.lyc
	switch p.mode {
	case modeHBlank:
		p.stat.Mode = lcd.HBlank
	case modeVBlank:
		p.stat.Mode = lcd.VBlank
	case modeScan:
		p.stat.Mode = lcd.OAM
	case modeDraw:
		p.stat.Mode = lcd.VRAM
	}

	p.fetcher.scy = p.scy
	p.fetcher.scx = p.scx
	p.fetcher.wy = p.wy
	p.fetcher.wx = p.wx
}
