// Package serial emulates the Game Boy's SB/SC serial port: an
// 8-bit shift register clocked either internally (the Game Boy
// provides the clock) or externally (a linked device provides it).
// With no device attached, internally-clocked transfers still shift
// in 1 bits and complete after 8 clocks, matching real hardware with
// nothing plugged into the link port.
package serial

import (
	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

const (
	SB uint16 = 0xFF01
	SC uint16 = 0xFF02
)

// clockBit is the DIV bit whose falling edge clocks an
// internally-driven transfer (8192 Hz: every 512 dots).
const clockBit uint16 = 1 << 8

// Device is a link-cable peer. Send returns the bit the device is
// currently driving; Receive delivers the bit this controller just
// shifted out.
type Device interface {
	Receive(bool)
	Send() bool
}

// nullDevice behaves like an unplugged link cable: bits shifted in
// from the remote side always read 1.
type nullDevice struct{}

func (nullDevice) Receive(bool) {}
func (nullDevice) Send() bool   { return true }

// Controller owns SB/SC and drives the Serial interrupt when an
// 8-bit transfer completes.
type Controller struct {
	irq    *interrupts.Service
	device Device

	data    uint8
	control uint8

	div        uint16
	shifted    uint8
	lastSample bool
}

// New returns a Controller with no device attached (transfers behave
// as if the link cable is unplugged).
func New(irq *interrupts.Service) *Controller {
	return &Controller{irq: irq, device: nullDevice{}, control: 0x7E}
}

// Attach connects a link-cable peer; nil restores the null device.
func (c *Controller) Attach(d Device) {
	if d == nil {
		d = nullDevice{}
	}
	c.device = d
}

func (c *Controller) internalClock() bool { return c.control&0x01 != 0 }
func (c *Controller) active() bool        { return c.control&0x80 != 0 }

// Tick advances the serial clock by dots of master-clock time.
func (c *Controller) Tick(dots uint32) {
	for i := uint32(0); i < dots; i++ {
		c.tickOne()
	}
}

func (c *Controller) tickOne() {
	c.div++
	if !c.active() || !c.internalClock() {
		c.lastSample = c.div&clockBit != 0
		return
	}

	sample := c.div&clockBit != 0
	if c.lastSample && !sample {
		c.shiftOnce()
	}
	c.lastSample = sample
}

func (c *Controller) shiftOnce() {
	outBit := c.data&0x80 != 0
	c.device.Receive(outBit)
	inBit := c.device.Send()

	c.data = c.data<<1 | boolBit(inBit)
	c.shifted++

	if c.shifted == 8 {
		c.shifted = 0
		c.control &^= 0x80
		c.irq.Request(interrupts.SerialFlag)
	}
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Read returns the value of SB or SC.
func (c *Controller) Read(addr uint16) uint8 {
	switch addr {
	case SB:
		return c.data
	case SC:
		return c.control | 0x7E
	}
	return 0xFF
}

// Write sets SB or starts/configures a transfer via SC.
func (c *Controller) Write(addr uint16, val uint8) {
	switch addr {
	case SB:
		c.data = val
	case SC:
		c.control = val | 0x7E
		if c.active() {
			c.shifted = 0
		}
	}
}

// Save writes the controller's full state.
func (c *Controller) Save(s *savestate.State) {
	s.Write8(c.data)
	s.Write8(c.control)
	s.Write16(c.div)
	s.Write8(c.shifted)
	s.WriteBool(c.lastSample)
}

// Load restores state written by Save.
func (c *Controller) Load(s *savestate.State) {
	c.data = s.Read8()
	c.control = s.Read8()
	c.div = s.Read16()
	c.shifted = s.Read8()
	c.lastSample = s.ReadBool()
}
