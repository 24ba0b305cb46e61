package ppu

import "github.com/pellucid-systems/goboy/internal/ppu/lcd"

// fetcherState is the 4-step tile-fetch state machine driving the
// background/window pixel FIFO.
type fetcherState int

const (
	stateGetTileID fetcherState = iota
	stateGetTileLow
	stateGetTileHigh
	statePushPixels
)

const maxObjPerLine = 10

// pixel is one FIFO entry: a 2-bit color index plus enough attribute
// bits to resolve BG/OBJ priority when it is finally drawn.
type pixel struct {
	colorID    uint8
	palette    uint8
	isObj      bool
	bgPriority bool
}

// oamAttrs is OAM byte 3 of a sprite entry decoded into its fields.
type oamAttrs struct {
	cgbPalette uint8
	bank       uint8
	dmgPalette uint8
	xFlip      bool
	yFlip      bool
	bgPriority bool
}

func decodeOamAttrs(b uint8) oamAttrs {
	return oamAttrs{
		cgbPalette: b & 0x07,
		bank:       (b >> 3) & 0x01,
		dmgPalette: (b >> 4) & 0x01,
		xFlip:      b&0x20 != 0,
		yFlip:      b&0x40 != 0,
		bgPriority: b&0x80 != 0,
	}
}

// oamEntry is a sprite scanned into the current line's object list.
type oamEntry struct {
	y, x, tileID uint8
	attrs        oamAttrs
	oamIndex     int
}

// bgMapAttr is the CGB VRAM-bank-1 per-tile attribute byte.
type bgMapAttr struct {
	palette  uint8
	bank     uint8
	xFlip    bool
	yFlip    bool
	priority bool
}

func decodeBgMapAttr(b uint8) bgMapAttr {
	return bgMapAttr{
		palette:  b & 0x07,
		bank:     (b >> 3) & 0x01,
		xFlip:    b&0x20 != 0,
		yFlip:    b&0x40 != 0,
		priority: b&0x80 != 0,
	}
}

// tileLine holds one fetched 8-pixel row of tile data, decoded enough
// to read off individual color IDs as the FIFO drains it.
type tileLine struct {
	low, high  uint8
	palette    uint8
	bgPriority bool
	xFlip      bool
}

func (t tileLine) colorID(x int) uint8 {
	bit := x
	if !t.xFlip {
		bit = 7 - x
	}
	lo := (t.low >> uint(bit)) & 1
	hi := (t.high >> uint(bit)) & 1
	return lo | hi<<1
}

// fetcher renders one scanline's worth of background, window and
// object pixels into screenLine, two dots at a time, through an
// 8-pixel background FIFO and a separately pre-rendered object line.
//
// Grounded on original_source/src/ppu/fetcher.rs's LineFetcher.
type fetcher struct {
	isCGB bool

	vram [2][0x2000]uint8

	lcdc *lcd.Controller
	scx, scy, wx, wy uint8

	objects []oamEntry

	screenLine [160]pixel
	objLine    [160]*pixel

	fifo []pixel

	state         fetcherState
	fetchX, drawX int
	line          int
	subtileScroll uint8

	winY       int
	inWindow   bool
	windowSeen bool

	tile     tileLine
	tileMapX int
}

func newFetcher(lcdc *lcd.Controller) *fetcher {
	return &fetcher{lcdc: lcdc}
}

// newLine resets per-scanline state. line is the value LY will hold
// while this line is drawn.
func (f *fetcher) newLine(line int) {
	f.objects = f.objects[:0]
	f.screenLine = [160]pixel{}
	f.objLine = [160]*pixel{}
	f.fifo = f.fifo[:0]
	f.state = stateGetTileID
	f.fetchX = 0
	f.drawX = 0
	f.line = line
	f.subtileScroll = f.scx % 8
	f.inWindow = false

	if line == 0 {
		f.winY = 0
		f.windowSeen = false
	} else if f.windowSeen {
		f.winY++
	}
	f.windowSeen = false
}

func (f *fetcher) isDone() bool {
	return f.drawX >= 160
}

// addObject records a sprite scanned by OAM search for this line, in
// OAM-index order; at most maxObjPerLine are kept.
func (f *fetcher) addObject(e oamEntry) {
	if len(f.objects) < maxObjPerLine {
		f.objects = append(f.objects, e)
	}
}

// tick2Dots runs one 2-dot step: render any freshly scanned objects,
// push up to two finished pixels to the line, and advance the 4-state
// tile fetch.
func (f *fetcher) tick2Dots() {
	if len(f.objects) > 0 {
		f.renderObjects()
		f.objects = f.objects[:0]
	}

	f.pushPixelsToLine()

	switch f.state {
	case stateGetTileID:
		f.fetchTile()
		f.state = stateGetTileLow
	case stateGetTileLow:
		f.state = stateGetTileHigh
	case stateGetTileHigh:
		f.state = statePushPixels
	case statePushPixels:
		if f.pushBgPixels() {
			f.fetchX += 8
			f.state = stateGetTileID
		}
	}
}

func (f *fetcher) bgTileMapBase() uint16 {
	if f.inWindow {
		return f.lcdc.WindowTileMapAddress
	}
	return f.lcdc.BackgroundTileMapAddress
}

func (f *fetcher) fetchTile() {
	var tx, ty int
	if f.inWindow {
		tx = f.fetchX / 8
		ty = f.winY / 8
	} else {
		tx = (int(f.scx)/8 + f.fetchX/8) & 0x1F
		ty = (int(f.scy) + f.line) / 8 & 0x1F
	}
	base := f.bgTileMapBase()
	mapAddr := base - 0x8000 + uint16(ty*32+tx)
	tileID := f.vram[0][mapAddr]

	attr := bgMapAttr{}
	if f.isCGB {
		attr = decodeBgMapAttr(f.vram[1][mapAddr])
	}

	row := (int(f.scy) + f.line) % 8
	if f.inWindow {
		row = f.winY % 8
	}
	if attr.yFlip {
		row = 7 - row
	}

	dataAddr := tileDataAddr(f.lcdc.UsingSignedTileData(), tileID, row, attr.bank)
	f.tile = tileLine{
		low:        f.vram[attr.bank][dataAddr],
		high:       f.vram[attr.bank][dataAddr+1],
		palette:    attr.palette,
		bgPriority: attr.priority,
		xFlip:      attr.xFlip,
	}
}

// tileDataAddr computes the VRAM offset (relative to 0x8000) of a
// tile row, honoring LCDC's signed/unsigned tile-ID addressing mode.
func tileDataAddr(signed bool, tileID uint8, row int, _bank uint8) uint16 {
	var base int
	if signed {
		base = 0x1000 + int(int8(tileID))*16
	} else {
		base = int(tileID) * 16
	}
	return uint16(base + row*2)
}

// pushBgPixels pushes 8 freshly fetched BG/window pixels into the
// FIFO, provided it isn't already holding a partial tile (>8
// pixels), matching the real fetcher's stall-on-full behavior.
func (f *fetcher) pushBgPixels() bool {
	if len(f.fifo) > 8 {
		return false
	}
	for x := 0; x < 8; x++ {
		id := f.tile.colorID(x)
		if !f.lcdc.BackgroundEnabled && !f.isCGB {
			id = 0
		}
		f.fifo = append(f.fifo, pixel{
			colorID:    id,
			palette:    f.tile.palette,
			bgPriority: f.tile.bgPriority,
		})
	}
	return true
}

// pushPixelsToLine discards the sub-tile scroll offset once per
// line, then pops up to two mixed BG/OBJ pixels into screenLine.
func (f *fetcher) pushPixelsToLine() {
	for i := 0; i < 2; i++ {
		if f.isDone() {
			return
		}
		if f.subtileScroll > 0 {
			if len(f.fifo) == 0 {
				return
			}
			f.fifo = f.fifo[1:]
			f.subtileScroll--
			continue
		}
		if f.popPixel() {
			return
		}
	}
}

// popPixel checks for a window trigger, then pops one BG pixel,
// mixes it with any pre-rendered object pixel, and writes it to
// screenLine. Returns true if the FIFO was empty and nothing could be
// popped this call.
func (f *fetcher) popPixel() bool {
	if f.lcdc.WindowEnabled && !f.inWindow &&
		int(f.wx) <= f.drawX+7 && int(f.wy) <= f.line {
		f.inWindow = true
		f.windowSeen = true
		f.fetchX = 0
		f.fifo = f.fifo[:0]
		f.state = stateGetTileID
		return false
	}

	if len(f.fifo) == 0 {
		return true
	}
	bg := f.fifo[0]
	f.fifo = f.fifo[1:]

	var obj *pixel
	if f.drawX < 160 {
		obj = f.objLine[f.drawX]
	}

	f.screenLine[f.drawX] = mixBgObjPixel(bg, obj, f.isCGB, f.lcdc.BackgroundEnabled)
	f.drawX++
	return false
}

// mixBgObjPixel applies the real hardware's BG/OBJ priority rules:
// OBJ color 0 is transparent, BG color 0 always loses to an opaque
// OBJ, and otherwise CGB's master bg/win-priority LCDC bit gates
// whether either the tile's or the object's own priority bit can give
// the BG pixel priority; DMG only ever consults the object's
// behind-BG bit.
func mixBgObjPixel(bg pixel, obj *pixel, isCGB, lcdcBgWinPriority bool) pixel {
	if obj == nil || obj.colorID == 0 {
		return bg
	}
	if bg.colorID == 0 {
		return *obj
	}
	if isCGB {
		if lcdcBgWinPriority && (bg.bgPriority || obj.bgPriority) {
			return bg
		}
		return *obj
	}
	if obj.bgPriority {
		return bg
	}
	return *obj
}

// renderObjects draws this line's scanned sprites into objLine,
// highest priority first: renderObject skips any column already
// claimed by an earlier sprite, so the first write wins and a
// lower-priority sprite can never overwrite a higher-priority one.
func (f *fetcher) renderObjects() {
	order := make([]oamEntry, len(f.objects))
	copy(order, f.objects)

	if !f.isCGB {
		for i := 1; i < len(order); i++ {
			j := i
			for j > 0 && betterDMGPriority(order[j], order[j-1]) {
				order[j], order[j-1] = order[j-1], order[j]
				j--
			}
		}
	}

	for i := 0; i < len(order); i++ {
		f.renderObject(order[i])
	}
}

// betterDMGPriority reports whether a should be drawn with higher
// priority than b: lower X wins, OAM index breaks ties.
func betterDMGPriority(a, b oamEntry) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	return a.oamIndex < b.oamIndex
}

func (f *fetcher) renderObject(obj oamEntry) {
	spriteHeight := 8
	if f.lcdc.SpriteSize == 16 {
		spriteHeight = 16
	}

	screenY := int(obj.y) - 16
	row := f.line - screenY
	if row < 0 || row >= spriteHeight {
		return
	}
	if obj.attrs.yFlip {
		row = spriteHeight - 1 - row
	}

	tileID := obj.tileID
	if spriteHeight == 16 {
		tileID &^= 0x01
		if row >= 8 {
			tileID |= 0x01
			row -= 8
		}
	}

	bank := obj.attrs.bank
	addr := uint16(tileID)*16 + uint16(row*2)
	low := f.vram[bank][addr]
	high := f.vram[bank][addr+1]

	palette := obj.attrs.dmgPalette
	if f.isCGB {
		palette = obj.attrs.cgbPalette
	}

	screenX := int(obj.x) - 8
	for col := 0; col < 8; col++ {
		x := screenX + col
		if x < 0 || x >= 160 {
			continue
		}
		bit := col
		if !obj.attrs.xFlip {
			bit = 7 - col
		}
		lo := (low >> uint(bit)) & 1
		hi := (high >> uint(bit)) & 1
		id := lo | hi<<1
		if id == 0 {
			continue
		}
		if f.objLine[x] != nil {
			continue
		}
		f.objLine[x] = &pixel{
			colorID:    id,
			palette:    palette,
			isObj:      true,
			bgPriority: obj.attrs.bgPriority,
		}
	}
}
