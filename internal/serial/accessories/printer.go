// Package accessories implements Game Boy link-cable peripherals
// that attach to internal/serial's Controller via its Device
// interface, starting with the Game Boy Printer.
//
// Grounded on the teacher's internal/serial/accessories/printer.go
// command state machine, adapted to this module's serial.Device
// interface (unchanged signature, so no protocol logic needed
// reshaping) and internal/ppu/palette's Palettes table instead of the
// teacher's ColourPalettes, with the command-trace fmt.Printf calls
// and an unused random-filename debug image dump dropped.
package accessories

import (
	"fmt"
	"image"
	"sync"

	"github.com/pellucid-systems/goboy/internal/ppu/palette"
)

// commandPosition steps through a GB Printer packet: two magic
// bytes, command ID, compression flag, a little-endian data length,
// the data itself, a little-endian checksum, a keep-alive byte and a
// final status handshake.
type commandPosition uint8

const (
	posMagic1 commandPosition = iota
	posMagic2
	posID
	posCompression
	posLengthLow
	posLengthHigh
	posData
	posChecksumLow
	posChecksumHigh
	posKeepAlive
	posStatus
)

// Command is a GB Printer command ID.
type Command = uint8

const (
	CommandInit   Command = 0x01
	CommandStart  Command = 0x02
	CommandData   Command = 0x04
	CommandStatus Command = 0x0F
)

// Printer emulates a Game Boy Printer attached to the link port: it
// decodes the packet protocol real GB Printer software speaks and
// renders CommandStart jobs to an image.Image a host can retrieve.
type Printer struct {
	byteToSend uint8

	byteBeingReceived uint8
	counter           uint8
	commandLength     uint16
	lengthLeft        uint16
	position          commandPosition
	id                Command
	compression       bool
	data              [0x280]byte
	checksum          uint16
	status            uint8
	keepAlive         bool
	imageData         [160 * 200]byte
	imageOffset       int
	packetSize        uint
	// jobMu guards hasJob/printJob, the only fields a host's goroutine
	// touches (via HasPrintJob/GetPrintJob) concurrently with Receive
	// running on the emulator's goroutine.
	jobMu    sync.Mutex
	hasJob   bool
	printJob image.Image
}

// NewPrinter returns a Printer ready to attach via
// (*serial.Controller).Attach.
func NewPrinter() *Printer {
	return &Printer{}
}

// Send returns the next bit the printer is driving onto the link
// line, satisfying serial.Device.
func (p *Printer) Send() bool {
	bit := p.byteToSend&0x80 != 0
	p.byteToSend <<= 1
	return bit
}

// Receive shifts bit into the byte the printer is currently
// assembling, satisfying serial.Device.
func (p *Printer) Receive(bit bool) {
	p.byteBeingReceived <<= 1
	if bit {
		p.byteBeingReceived |= 0x01
	}

	if p.counter++; p.counter == 8 {
		p.onReceive(p.byteBeingReceived)
		p.byteBeingReceived = 0
		p.counter = 0
	}
}

func (p *Printer) onReceive(b byte) {
	switch p.position {
	case posMagic1:
		if b != 0x88 {
			return
		}
		p.status = 0
		p.commandLength = 0
		p.checksum = 0
	case posMagic2:
		if b != 0x33 {
			if b != 0x88 {
				p.position = posMagic1
			}
			return
		}
		p.byteToSend = 0
	case posID:
		p.id = b
		p.packetSize++
	case posCompression:
		p.compression = b&0x01 != 0
	case posLengthLow:
		p.lengthLeft = uint16(b)
	case posLengthHigh:
		p.lengthLeft |= uint16(b&3) << 8
		if p.lengthLeft == 0 {
			p.position++
		}
	case posData:
		p.data[p.commandLength] = b
		p.commandLength++
		if p.lengthLeft > 0 {
			p.lengthLeft--
		}
	case posChecksumLow:
		p.checksum ^= uint16(b)
	case posChecksumHigh:
		p.checksum ^= uint16(b) << 8
		if p.checksum != 0 {
			p.status |= 1
			p.position = posMagic1
			return
		}
		p.byteToSend = 0x81
	case posKeepAlive:
		if p.id == CommandInit {
			p.byteToSend = 0
		} else {
			p.byteToSend = p.status
		}
		p.keepAlive = b&0x01 != 0
	case posStatus:
		if b == 0 {
			p.packetSize++
			if p.packetSize == 1 {
				p.byteToSend = 0x81
			} else if p.packetSize == 2 {
				p.runCommand(p.id)
				p.byteToSend = p.status
				p.packetSize = 0
				p.position = posMagic1
			}
		}
		return
	default:
		panic(fmt.Sprintf("accessories: printer: unreachable position %d", p.position))
	}

	if p.position >= posID && p.position < posChecksumLow {
		p.checksum += uint16(b)
	}
	if p.position != posData {
		p.position++
	}
	if p.position == posData && p.lengthLeft == 0 {
		p.position++
	}
}

func (p *Printer) runCommand(cmd Command) {
	switch cmd {
	case CommandInit:
		p.status = 0
		p.imageOffset = 0
	case CommandStart:
		if p.commandLength != 4 {
			return
		}
		p.status = 0x04

		pal := palette.Palettes[palette.Greyscale]
		palReg := p.data[2]

		img := image.NewRGBA(image.Rect(0, 0, 160, p.imageOffset/160))
		for i := 0; i < p.imageOffset; i++ {
			shade := (palReg >> (p.imageData[i] << 1)) & 0b11
			rgb := pal.Colors[shade]
			img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = rgb[0], rgb[1], rgb[2], 0xFF
		}

		p.jobMu.Lock()
		p.hasJob = true
		p.printJob = img
		p.jobMu.Unlock()
	case CommandData:
		if p.commandLength != 0x280 {
			return
		}
		p.status = 0x08

		for row := 0; row < 2; row++ {
			for col := 0; col < 20; col++ {
				for y := 0; y < 8; y++ {
					for x := 0; x < 8; x++ {
						bit1 := (p.data[(col*8+y)*2] >> 7) & 0x01
						bit2 := (p.data[(col*8+y)*2+1] >> 6) & 0x02
						p.imageData[p.imageOffset+(col*8)+(y*160)+x] = bit1 | bit2
						p.data[(col*8+y)*2] <<= 1
						p.data[(col*8+y)*2+1] <<= 1
					}
				}
			}
			p.imageOffset += 160 * 8
		}
	case CommandStatus:
		p.status |= 0
	}
}

// HasPrintJob reports whether a CommandStart job is waiting to be
// collected via GetPrintJob.
func (p *Printer) HasPrintJob() bool {
	p.jobMu.Lock()
	defer p.jobMu.Unlock()
	return p.hasJob
}

// GetPrintJob returns the most recently completed print job and
// clears the pending flag.
func (p *Printer) GetPrintJob() image.Image {
	p.jobMu.Lock()
	defer p.jobMu.Unlock()
	p.hasJob = false
	return p.printJob
}
