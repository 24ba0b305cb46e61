package mmu_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/cartridge"
	"github.com/pellucid-systems/goboy/internal/joypad"
	"github.com/pellucid-systems/goboy/internal/mmu"
	"github.com/pellucid-systems/goboy/internal/ppu"
	"github.com/pellucid-systems/goboy/internal/savestate"
	"github.com/pellucid-systems/goboy/pkg/log"
)

func blankROM(banks int, cgbFlag byte) []byte {
	rom := make([]byte, banks*16*1024)
	rom[0x143] = cgbFlag
	rom[0x147] = byte(cartridge.MBC1)
	code := byte(0)
	for (2 << code) < banks {
		code++
	}
	rom[0x148] = code
	rom[0x149] = 0
	return rom
}

func newDMGTestMMU(t *testing.T) *mmu.MMU {
	t.Helper()
	cart, err := cartridge.New(blankROM(4, 0x00))
	require.NoError(t, err)
	return mmu.New(cart, log.New())
}

func newCGBTestMMU(t *testing.T) *mmu.MMU {
	t.Helper()
	cart, err := cartridge.New(blankROM(4, 0xC0))
	require.NoError(t, err)
	return mmu.New(cart, log.New())
}

func TestWRAMBank0AndBank1AreIndependent(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(0xC010, 0x11)
	m.Write(0xD010, 0x22)
	require.Equal(t, uint8(0x11), m.Read(0xC010))
	require.Equal(t, uint8(0x22), m.Read(0xD010))
}

func TestEchoRAMMirrorsWRAM(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(0xC123, 0x42)
	require.Equal(t, uint8(0x42), m.Read(0xE123))

	m.Write(0xFD00, 0x99)
	require.Equal(t, uint8(0x99), m.Read(0xDD00))
}

func TestDMGWRAMBank1IsFixed(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(svbkAddrForTest, 5) // SVBK is a no-op outside CGB mode
	m.Write(0xD200, 0x77)
	require.Equal(t, uint8(0x77), m.Read(0xD200))
}

const svbkAddrForTest = 0xFF70

func TestCGBSVBKSwitchesWRAMBank(t *testing.T) {
	m := newCGBTestMMU(t)
	m.Write(0xD300, 0xAA) // bank 1 (default)
	m.Write(svbkAddrForTest, 3)
	m.Write(0xD300, 0xBB)
	m.Write(svbkAddrForTest, 1)
	require.Equal(t, uint8(0xAA), m.Read(0xD300))
	m.Write(svbkAddrForTest, 3)
	require.Equal(t, uint8(0xBB), m.Read(0xD300))
}

func TestCGBSVBKZeroBecomesOne(t *testing.T) {
	m := newCGBTestMMU(t)
	m.Write(svbkAddrForTest, 0)
	require.Equal(t, uint8(1|0xF8), m.Read(svbkAddrForTest))
}

func TestUnusableRangeReadsZero(t *testing.T) {
	m := newDMGTestMMU(t)
	require.Equal(t, uint8(0x00), m.Read(0xFEA0))
}

func TestHRAMReadWriteRoundTrip(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(0xFF81, 0x5A)
	require.Equal(t, uint8(0x5A), m.Read(0xFF81))
}

func TestInterruptFlagRegisterRoundTrip(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(0xFF0F, 0x1F)
	require.Equal(t, uint8(0xFF), m.Read(0xFF0F))
}

func TestInterruptEnableRegisterRoundTrip(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(0xFFFF, 0x1F)
	require.Equal(t, uint8(0x1F), m.Read(0xFFFF))
}

func TestPPURegisterRoutedThroughMMU(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(ppu.LCDC, 0x91)
	require.Equal(t, uint8(0x91), m.Read(ppu.LCDC))
}

func TestVRAMRoutedThroughMMU(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(0x8123, 0x7F)
	require.Equal(t, uint8(0x7F), m.Read(0x8123))
}

func TestOAMDMATransfersFromWRAMIntoOAM(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Write(0xC000, 0xAB)
	m.Write(ppu.DMA, 0xC0) // source = 0xC000

	m.Tick(200) // well past the one-mcycle startup delay + 160-byte transfer

	require.Equal(t, uint8(0xAB), m.PPU.ReadOAM(0xFE00))
}

func TestJoypadRegisterRoutedThroughMMU(t *testing.T) {
	m := newDMGTestMMU(t)
	m.Joypad.Press(joypad.ButtonA)
	m.Write(joypad.P1, 0x10) // select action buttons
	require.Equal(t, uint8(0), m.Read(joypad.P1)&0x01)
}

func TestKEY1SpeedSwitchRegister(t *testing.T) {
	m := newCGBTestMMU(t)
	m.ArmSpeedSwitch()
	require.True(t, m.SpeedSwitchArmed())
	require.Equal(t, uint8(0x7F), m.Read(0xFF4D))

	m.PerformSpeedSwitch()
	require.True(t, m.DoubleSpeed())
	require.False(t, m.SpeedSwitchArmed())
	require.Equal(t, uint8(0xFE), m.Read(0xFF4D))
}

func TestKEY1ReadsFFOnDMG(t *testing.T) {
	m := newDMGTestMMU(t)
	require.Equal(t, uint8(0xFF), m.Read(0xFF4D))
}

func TestHDMAOnlyWiredOnCGB(t *testing.T) {
	m := newCGBTestMMU(t)
	require.Equal(t, uint8(0xFF), m.Read(0xFF55))

	dmg := newDMGTestMMU(t)
	require.Equal(t, uint8(0xFF), dmg.Read(0xFF55))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := newCGBTestMMU(t)
	m.Write(0xC000, 0x11)
	m.Write(svbkAddrForTest, 3)
	m.Write(0xD000, 0x22)
	m.Write(0xFF80, 0x33)
	m.Write(ppu.LCDC, 0x91)
	m.ArmSpeedSwitch()

	st := savestate.New()
	m.Save(st)

	cart, err := cartridge.New(blankROM(4, 0xC0))
	require.NoError(t, err)
	r := mmu.New(cart, log.New())
	r.Load(savestate.FromBytes(st.Bytes()))

	require.Equal(t, uint8(0x11), r.Read(0xC000))
	require.Equal(t, uint8(0x22), r.Read(0xD000))
	require.Equal(t, uint8(0x33), r.Read(0xFF80))
	require.Equal(t, uint8(0x91), r.Read(ppu.LCDC))
	require.True(t, r.SpeedSwitchArmed())
}
