package main

import (
	"image"
	"image/color"

	"github.com/pellucid-systems/goboy/internal/ppu"
)

// frameImage adapts a flattened RGB24 frame buffer to image.Image so
// it can be handed to loader.CopyFrame without an extra copy into a
// standard library image type.
type frameImage struct {
	pixels []byte
}

func (f *frameImage) ColorModel() color.Model {
	return color.RGBAModel
}

func (f *frameImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight)
}

func (f *frameImage) At(x, y int) color.Color {
	i := (y*ppu.ScreenWidth + x) * 3
	return color.RGBA{R: f.pixels[i], G: f.pixels[i+1], B: f.pixels[i+2], A: 0xFF}
}
