package interrupts_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

func TestPendingPriorityOrder(t *testing.T) {
	s := interrupts.NewService()
	s.Enable = 0x1F
	s.Request(interrupts.TimerFlag)
	s.Request(interrupts.VBlankFlag)

	flag, vector, ok := s.Highest()
	require.True(t, ok)
	require.Equal(t, interrupts.VBlankFlag, flag)
	require.Equal(t, interrupts.VBlank, vector)
}

func TestIFUpperBitsReadAsOne(t *testing.T) {
	s := interrupts.NewService()
	require.Equal(t, uint8(0xE0), s.Read(interrupts.FlagRegister))
}

func TestNoneEnabledMeansNotPending(t *testing.T) {
	s := interrupts.NewService()
	s.Request(interrupts.VBlankFlag)
	_, _, ok := s.Highest()
	require.False(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := interrupts.NewService()
	s.Enable = 0x1F
	s.Request(interrupts.SerialFlag)

	st := savestate.New()
	s.Save(st)

	r := interrupts.NewService()
	r.Load(savestate.FromBytes(st.Bytes()))

	require.Equal(t, s.Flag, r.Flag)
	require.Equal(t, s.Enable, r.Enable)
}
