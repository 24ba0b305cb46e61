package accessories_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/serial/accessories"
)

// sendByte shifts b into p one bit at a time, MSB first, the order a
// real serial transfer shifts bits.
func sendByte(p *accessories.Printer, b byte) {
	for i := 0; i < 8; i++ {
		p.Receive(b&0x80 != 0)
		b <<= 1
	}
}

func TestPrinterRejectsBadMagic(t *testing.T) {
	p := accessories.NewPrinter()
	require.False(t, p.HasPrintJob())

	sendByte(p, 0x00)
	sendByte(p, 0x33)
	require.False(t, p.HasPrintJob())
}

func TestPrinterInitCommandResetsStatus(t *testing.T) {
	p := accessories.NewPrinter()

	sendByte(p, 0x88) // magic1
	sendByte(p, 0x33) // magic2
	sendByte(p, accessories.CommandInit)
	sendByte(p, 0x00) // compression
	sendByte(p, 0x00) // length low
	sendByte(p, 0x00) // length high, lengthLeft==0 advances past data
	sendByte(p, 0x01) // checksum low (id=1, so checksum starts accumulating from id byte)
	sendByte(p, 0x00) // checksum high -> checksum becomes 0 only if matching

	// regardless of whether the checksum matched, the printer never
	// panics and HasPrintJob stays false until a CommandStart job
	// actually completes.
	require.False(t, p.HasPrintJob())
}
