package cheats_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/cheats"
)

func TestLoadDetectsGameGenieByLength(t *testing.T) {
	e := cheats.NewEngine()
	require.NoError(t, e.Load("01A-1FA-AAA", "infinite lives"))
	e.Enable("infinite lives")

	// address 0xAA1F ^ 0xF000 == 0x5A1F; patched value replaces
	// whatever the cartridge returned at that address.
	patched := e.PatchROM(0x5A1F, 0x00)
	require.Equal(t, uint8(0x01), patched)

	// an unrelated address is untouched.
	require.Equal(t, uint8(0x42), e.PatchROM(0x0100, 0x42))
}

func TestLoadDetectsGameSharkByLength(t *testing.T) {
	e := cheats.NewEngine()
	require.NoError(t, e.Load("00FF0FC0", "max gold"))
	e.Enable("max gold")

	pokes := e.RAMPokes()
	require.Len(t, pokes, 1)
	require.Equal(t, uint8(0xFF), pokes[0].NewData)
}

func TestLoadRejectsBadLength(t *testing.T) {
	e := cheats.NewEngine()
	require.Error(t, e.Load("123", "bad"))
}

func TestDisableStopsPoking(t *testing.T) {
	e := cheats.NewEngine()
	require.NoError(t, e.Load("00FF0FC0", "toggle"))
	e.Enable("toggle")
	require.Len(t, e.RAMPokes(), 1)

	e.Disable("toggle")
	require.Empty(t, e.RAMPokes())
}

func TestRAMPokesExcludesCartridgeRAMRange(t *testing.T) {
	e := cheats.NewEngine()
	// address field A000-BFFF after reorder; construct a code whose
	// target lands in cartridge RAM and confirm it's filtered out.
	require.NoError(t, e.Load("00FF00A0", "cart ram poke"))
	e.Enable("cart ram poke")

	require.Empty(t, e.RAMPokes())
}
