// Package lcd holds the LCDC/STAT register models shared by the PPU's
// mode state machine and its pixel fetcher.
package lcd

import "github.com/pellucid-systems/goboy/pkg/bits"

// ControlRegister is the address of the LCD control register (LCDC).
const ControlRegister uint16 = 0xFF40

// Controller is LCDC (0xFF40):
//
//	Bit 7 - LCD Enable
//	Bit 6 - Window Tile Map Select        (0=9800-9BFF, 1=9C00-9FFF)
//	Bit 5 - Window Display Enable
//	Bit 4 - BG & Window Tile Data Select  (0=8800-97FF signed, 1=8000-8FFF)
//	Bit 3 - BG Tile Map Select            (0=9800-9BFF, 1=9C00-9FFF)
//	Bit 2 - OBJ Size                      (0=8x8, 1=8x16)
//	Bit 1 - OBJ Display Enable
//	Bit 0 - BG/Window Display/Priority (CGB: master priority override)
type Controller struct {
	Enabled                  bool
	WindowTileMapAddress     uint16
	WindowEnabled            bool
	TileDataAddress          uint16
	BackgroundTileMapAddress uint16
	SpriteSize               uint8
	SpriteEnabled            bool
	BackgroundEnabled        bool
}

// NewController returns LCDC in its post-boot-ROM state.
func NewController() *Controller {
	return &Controller{
		WindowTileMapAddress:     0x9800,
		BackgroundTileMapAddress: 0x9800,
		TileDataAddress:          0x8000,
		SpriteSize:               8,
		BackgroundEnabled:        true,
		SpriteEnabled:            false,
		WindowEnabled:            false,
		Enabled:                  true,
	}
}

// Write updates LCDC from a byte written to 0xFF40.
func (c *Controller) Write(value uint8) {
	c.Enabled = bits.Test(value, 7)
	if bits.Test(value, 6) {
		c.WindowTileMapAddress = 0x9C00
	} else {
		c.WindowTileMapAddress = 0x9800
	}
	c.WindowEnabled = bits.Test(value, 5)
	if bits.Test(value, 4) {
		c.TileDataAddress = 0x8000
	} else {
		c.TileDataAddress = 0x8800
	}
	if bits.Test(value, 3) {
		c.BackgroundTileMapAddress = 0x9C00
	} else {
		c.BackgroundTileMapAddress = 0x9800
	}
	c.SpriteSize = 8 + uint8(bits.Val(value, 2))*8
	c.SpriteEnabled = bits.Test(value, 1)
	c.BackgroundEnabled = bits.Test(value, 0)
}

// Read reconstructs LCDC's byte value.
func (c *Controller) Read() uint8 {
	var value uint8
	if c.Enabled {
		value |= 1 << 7
	}
	if c.WindowTileMapAddress == 0x9C00 {
		value |= 1 << 6
	}
	if c.WindowEnabled {
		value |= 1 << 5
	}
	if c.TileDataAddress == 0x8000 {
		value |= 1 << 4
	}
	if c.BackgroundTileMapAddress == 0x9C00 {
		value |= 1 << 3
	}
	if c.SpriteSize == 16 {
		value |= 1 << 2
	}
	if c.SpriteEnabled {
		value |= 1 << 1
	}
	if c.BackgroundEnabled {
		value |= 1 << 0
	}
	return value
}

// UsingSignedTileData reports whether BG/window tile IDs are read in
// the signed addressing mode (tile data base 0x8800).
func (c *Controller) UsingSignedTileData() bool {
	return c.TileDataAddress == 0x8800
}
