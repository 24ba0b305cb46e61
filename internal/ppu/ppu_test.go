package ppu_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/ppu"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

func newDMGPPU() *ppu.PPU {
	irq := interrupts.NewService()
	p := ppu.New(irq, false)
	p.Write(ppu.LCDC, 0x91) // LCD+BG enabled, OBJ off, BG tile map 0x9800, tile data at 0x8000
	return p
}

func runDots(p *ppu.PPU, dots int) {
	for i := 0; i < dots; i++ {
		p.Tick(1)
	}
}

func TestFullFrameEventuallySignalsReady(t *testing.T) {
	p := newDMGPPU()

	dotsPerFrame := 456 * 154
	ready := false
	for i := 0; i < dotsPerFrame+10; i++ {
		p.Tick(1)
		if p.FrameReady() {
			ready = true
			break
		}
	}
	require.True(t, ready, "PPU should complete a frame within one frame's worth of dots")
}

func TestVBlankInterruptFiresAtLine144(t *testing.T) {
	irq := interrupts.NewService()
	p := ppu.New(irq, false)
	p.Write(ppu.LCDC, 0x91)

	runDots(p, 456*144)
	require.Equal(t, uint8(0), irq.Flag&(1<<interrupts.VBlankFlag))

	runDots(p, 456)
	require.NotEqual(t, uint8(0), irq.Flag&(1<<interrupts.VBlankFlag))
}

func TestLYAdvancesOncePerScanline(t *testing.T) {
	p := newDMGPPU()
	require.Equal(t, uint8(0), p.Read(ppu.LY))

	runDots(p, 456)
	require.Equal(t, uint8(1), p.Read(ppu.LY))
}

func TestLYWrapsAt154Lines(t *testing.T) {
	p := newDMGPPU()
	runDots(p, 456*154)
	require.Equal(t, uint8(0), p.Read(ppu.LY))
}

func TestLYCCoincidenceSetsStatBit(t *testing.T) {
	p := newDMGPPU()
	p.Write(ppu.LYC, 5)

	runDots(p, 456*5)
	require.NotEqual(t, uint8(0), p.Read(ppu.STAT)&0x04)
}

func TestStatLYCInterruptFiresOnEdge(t *testing.T) {
	irq := interrupts.NewService()
	p := ppu.New(irq, false)
	p.Write(ppu.LCDC, 0x91)
	p.Write(ppu.LYC, 3)
	p.Write(ppu.STAT, 0x40) // enable LYC=LY STAT interrupt

	runDots(p, 456*3)
	require.NotEqual(t, uint8(0), irq.Flag&(1<<interrupts.LCDFlag))
}

func TestVRAMReadWriteRoundTrip(t *testing.T) {
	p := newDMGPPU()
	p.WriteVRAM(0x8010, 0xAB)
	require.Equal(t, uint8(0xAB), p.ReadVRAM(0x8010))
}

func TestOAMReadWriteRoundTrip(t *testing.T) {
	p := newDMGPPU()
	p.WriteOAM(0xFE04, 0x42)
	require.Equal(t, uint8(0x42), p.ReadOAM(0xFE04))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	irq := interrupts.NewService()
	p := ppu.New(irq, true)
	p.Write(ppu.LCDC, 0x91)
	p.WriteVRAM(0x8000, 0x3C)
	p.WriteOAM(0xFE00, 0x50)
	p.Write(ppu.BCPS, 0x80)
	p.Write(ppu.BCPD, 0x1F)

	runDots(p, 456*10+37)

	st := savestate.New()
	p.Save(st)

	r := ppu.New(interrupts.NewService(), true)
	r.Load(savestate.FromBytes(st.Bytes()))

	require.Equal(t, p.Read(ppu.LY), r.Read(ppu.LY))
	require.Equal(t, p.ReadVRAM(0x8000), r.ReadVRAM(0x8000))
	require.Equal(t, p.ReadOAM(0xFE00), r.ReadOAM(0xFE00))
	require.Equal(t, p.Read(ppu.BCPD), r.Read(ppu.BCPD))
}
