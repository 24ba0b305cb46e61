package serial_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/savestate"
	"github.com/pellucid-systems/goboy/internal/serial"
)

func TestUnplugShiftsInOnes(t *testing.T) {
	irq := interrupts.NewService()
	irq.Enable = 0xFF
	c := serial.New(irq)

	c.Write(serial.SB, 0x00)
	c.Write(serial.SC, 0x81) // start internal-clock transfer

	c.Tick(512 * 8)

	require.Equal(t, uint8(0xFF), c.Read(serial.SB))
	require.Equal(t, uint8(0), c.Read(serial.SC)&0x80, "transfer flag clears on completion")
	_, _, ok := irq.Highest()
	require.True(t, ok)
}

func TestNoTransferWithoutInternalClock(t *testing.T) {
	irq := interrupts.NewService()
	c := serial.New(irq)
	c.Write(serial.SB, 0x55)
	c.Write(serial.SC, 0x80) // active but external clock

	c.Tick(512 * 8)
	require.Equal(t, uint8(0x55), c.Read(serial.SB), "external-clock transfer waits for the remote side")
}

type loopbackDevice struct{ bit bool }

func (l *loopbackDevice) Receive(bit bool) { l.bit = bit }
func (l *loopbackDevice) Send() bool       { return l.bit }

func TestAttachedDeviceEchoesBits(t *testing.T) {
	irq := interrupts.NewService()
	c := serial.New(irq)
	c.Attach(&loopbackDevice{})

	c.Write(serial.SB, 0x80)
	c.Write(serial.SC, 0x81)
	c.Tick(512 * 8)

	require.Equal(t, uint8(0x80), c.Read(serial.SB), "the single set bit rotates all the way back to its original position after 8 shifts")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	irq := interrupts.NewService()
	c := serial.New(irq)
	c.Write(serial.SB, 0xAB)
	c.Write(serial.SC, 0x81)
	c.Tick(600)

	s := savestate.New()
	c.Save(s)

	r := serial.New(irq)
	r.Load(savestate.FromBytes(s.Bytes()))
	require.Equal(t, c.Read(serial.SB), r.Read(serial.SB))
	require.Equal(t, c.Read(serial.SC), r.Read(serial.SC))
}
