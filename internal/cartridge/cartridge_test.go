package cartridge_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/cartridge"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

func blankROM(banks int, cartType byte, ramCode byte) []byte {
	rom := make([]byte, banks*16*1024)
	rom[0x147] = cartType
	// rom size code: banks = 2 << code
	code := byte(0)
	for (2 << code) < banks {
		code++
	}
	rom[0x148] = code
	rom[0x149] = ramCode
	return rom
}

func TestMBC1NoRAMReadsFF(t *testing.T) {
	rom := blankROM(4, byte(cartridge.MBC1), 0)
	c, err := cartridge.New(rom)
	require.NoError(t, err)

	c.Write(0x1000, 0x0A) // enable ram (no-op, no ram present)
	require.Equal(t, uint8(0xFF), c.Read(0xA000))
}

func TestMBC1ROM1Addressing(t *testing.T) {
	rom := blankROM(8, byte(cartridge.MBC1), 0)
	// tag each bank with its index at offset 0 so we can
	// verify which bank got selected.
	for bank := 0; bank < 8; bank++ {
		rom[bank*16*1024] = byte(bank)
	}
	c, err := cartridge.New(rom)
	require.NoError(t, err)

	for _, lo := range []uint8{1, 2, 5, 7} {
		c.Write(0x2000, lo)
		want := (lo | 0<<5) % 8
		require.Equal(t, want, c.Read(0x4000), "rom_lo=%d", lo)
	}
}

func TestMBC1RomBankZeroBecomesOne(t *testing.T) {
	rom := blankROM(4, byte(cartridge.MBC1), 0)
	c, err := cartridge.New(rom)
	require.NoError(t, err)

	c.Write(0x2000, 0x00)
	rom[1*16*1024] = 0xAB
	require.Equal(t, uint8(0xAB), c.Read(0x4000))
}

func TestUnknownMBCErrors(t *testing.T) {
	rom := blankROM(2, 0x04, 0) // 0x04 is not a defined cartridge type byte
	_, err := cartridge.New(rom)
	require.ErrorIs(t, err, cartridge.ErrUnknownMBC)
}

func TestRomSizeMismatch(t *testing.T) {
	rom := blankROM(4, byte(cartridge.ROM), 0)
	rom[0x148] = 2 // claims 8 banks, but rom is only 4
	_, err := cartridge.New(rom)
	require.ErrorIs(t, err, cartridge.ErrRomSizeMismatch)
}

func TestMBC3RTCLatch(t *testing.T) {
	rom := blankROM(4, byte(cartridge.MBC3TIMERRAMBATT), 0x02)
	c, err := cartridge.New(rom)
	require.NoError(t, err)

	c.Write(0x0000, 0x0A) // ram enable
	c.Write(0x4000, 0x08) // select seconds register

	c.Tick(1 << 22) // 1 second of dots
	c.Tick(1 << 22)

	c.Write(0x6000, 0x00)
	c.Write(0x6000, 0x01) // latch

	require.Equal(t, uint8(2), c.Read(0xA000))
}

func TestCartridgeSaveLoadRoundTrip(t *testing.T) {
	rom := blankROM(4, byte(cartridge.MBC3TIMERRAMBATT), 0x02)
	c, err := cartridge.New(rom)
	require.NoError(t, err)

	c.Write(0x0000, 0x0A) // ram enable
	c.Write(0x2000, 0x03) // rom bank 3
	c.Write(0x4000, 0x01) // select ram bank 1
	c.Write(0xA000, 0x55)
	c.Tick(1 << 22)

	s := savestate.New()
	c.Save(s)

	restored, err := cartridge.New(rom)
	require.NoError(t, err)
	r := savestate.FromBytes(s.Bytes())
	restored.Load(r)

	require.Equal(t, c.Read(0x4000), restored.Read(0x4000))
	require.Equal(t, c.Read(0xA000), restored.Read(0xA000))
	require.Equal(t, uint8(0x55), restored.Read(0xA000))
}
