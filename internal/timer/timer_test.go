package timer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/savestate"
	"github.com/pellucid-systems/goboy/internal/timer"
)

func TestDIVIncrementsOnce16384Hz(t *testing.T) {
	c := timer.New(interrupts.NewService())
	require.Equal(t, uint8(0), c.Read(timer.DIV))
	c.Tick(256)
	require.Equal(t, uint8(1), c.Read(timer.DIV))
}

func TestWritingDIVResetsCounter(t *testing.T) {
	c := timer.New(interrupts.NewService())
	c.Tick(200)
	c.Write(timer.DIV, 0xFF)
	require.Equal(t, uint8(0), c.Read(timer.DIV))
}

func TestTIMAIncrementsAtSelectedRate(t *testing.T) {
	irq := interrupts.NewService()
	c := timer.New(irq)
	c.Write(timer.TAC, 0x05) // enabled, clock select 01 -> every 16 dots

	c.Tick(16)
	require.Equal(t, uint8(1), c.Read(timer.TIMA))
	c.Tick(16)
	require.Equal(t, uint8(2), c.Read(timer.TIMA))
}

func TestTIMAOverflowReloadsAndRequestsInterrupt(t *testing.T) {
	irq := interrupts.NewService()
	irq.Enable = 0xFF
	c := timer.New(irq)
	c.Write(timer.TAC, 0x05) // every 16 dots
	c.Write(timer.TMA, 0x10)
	c.Write(timer.TIMA, 0xFF)

	c.Tick(16) // overflow triggers, reload pending
	require.Equal(t, uint8(0), c.Read(timer.TIMA))
	_, _, ok := irq.Highest()
	require.False(t, ok, "interrupt fires 4 dots after overflow, not immediately")

	c.Tick(4)
	require.Equal(t, uint8(0x10), c.Read(timer.TIMA))
	flag, _, ok := irq.Highest()
	require.True(t, ok)
	require.Equal(t, interrupts.TimerFlag, flag)
}

func TestDisabledTimerDoesNotIncrementTIMA(t *testing.T) {
	c := timer.New(interrupts.NewService())
	c.Write(timer.TAC, 0x01) // clock select set, but enable bit clear
	c.Tick(1000)
	require.Equal(t, uint8(0), c.Read(timer.TIMA))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	irq := interrupts.NewService()
	c := timer.New(irq)
	c.Write(timer.TAC, 0x05)
	c.Tick(40)

	s := savestate.New()
	c.Save(s)

	r := timer.New(irq)
	r.Load(savestate.FromBytes(s.Bytes()))

	require.Equal(t, c.Read(timer.DIV), r.Read(timer.DIV))
	require.Equal(t, c.Read(timer.TIMA), r.Read(timer.TIMA))
	require.Equal(t, c.Read(timer.TAC), r.Read(timer.TAC))
}
