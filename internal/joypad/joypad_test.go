package joypad_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/joypad"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

func TestNoSelectionReadsAllOnes(t *testing.T) {
	s := joypad.New(interrupts.NewService())
	require.Equal(t, uint8(0x3F), s.Read())
}

func TestActionButtonsSelected(t *testing.T) {
	s := joypad.New(interrupts.NewService())
	s.Write(0x10) // select action line (bit5=0)
	s.Press(joypad.ButtonA)
	require.Equal(t, uint8(0x1E), s.Read()) // bit0 low, bits1-3 high, bit4 high
}

func TestDirectionButtonsSelected(t *testing.T) {
	s := joypad.New(interrupts.NewService())
	s.Write(0x20) // select direction line (bit4=0)
	s.Press(joypad.ButtonDown)
	require.Equal(t, uint8(0x27), s.Read())
}

func TestPressRequestsInterruptOnceWhileSelected(t *testing.T) {
	irq := interrupts.NewService()
	s := joypad.New(irq)
	s.Write(0x10) // action line selected

	s.Press(joypad.ButtonA)
	_, _, ok := irq.Highest()
	require.False(t, ok, "IE is all zero, Pending requires IE too, but IF should still be set")
	require.NotEqual(t, uint8(0), irq.Flag&(1<<interrupts.JoypadFlag))

	irq.Clear(interrupts.JoypadFlag)
	s.Press(joypad.ButtonA) // already pressed, no new interrupt
	require.Equal(t, uint8(0), irq.Flag&(1<<interrupts.JoypadFlag))
}

func TestPressWhileLineNotSelectedDoesNotInterrupt(t *testing.T) {
	irq := interrupts.NewService()
	s := joypad.New(irq)
	s.Write(0x20) // direction line selected, not action

	s.Press(joypad.ButtonA)
	require.Equal(t, uint8(0), irq.Flag&(1<<interrupts.JoypadFlag))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	irq := interrupts.NewService()
	s := joypad.New(irq)
	s.Write(0x10)
	s.Press(joypad.ButtonB)

	st := savestate.New()
	s.Save(st)

	r := joypad.New(irq)
	r.Load(savestate.FromBytes(st.Bytes()))
	require.Equal(t, s.Read(), r.Read())
}
