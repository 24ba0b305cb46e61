// Package joypad emulates the Game Boy's P1/JOYP register: a 4-bit
// button matrix read back through two selectable lines (direction
// keys, action keys), with the Joypad interrupt requested on any
// newly-pressed button the game is currently selecting.
package joypad

import (
	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/savestate"
	"github.com/pellucid-systems/goboy/pkg/bits"
)

// Button is a physical button on the Game Boy.
type Button = uint8

const (
	ButtonA      Button = 0x01
	ButtonB      Button = 0x02
	ButtonSelect Button = 0x04
	ButtonStart  Button = 0x08
	ButtonRight  Button = 0x10
	ButtonLeft   Button = 0x20
	ButtonUp     Button = 0x40
	ButtonDown   Button = 0x80
)

// P1 is the joypad register address.
const P1 uint16 = 0xFF00

// State owns the P1 select lines and the 8-button matrix, and
// requests the Joypad interrupt through irq.
type State struct {
	irq *interrupts.Service

	register byte
	buttons  Button
}

// New returns a State with nothing pressed and both select lines
// high (no line selected).
func New(irq *interrupts.Service) *State {
	return &State{irq: irq, register: 0x3F}
}

// Read returns P1: the selected button line ANDed (active-low) into
// the low nibble.
func (s *State) Read() uint8 {
	if s.register&0x10 == 0 {
		return s.register & ^(s.buttons >> 4)
	}
	if s.register&0x20 == 0 {
		return s.register & ^(s.buttons & 0x0F)
	}
	return s.register | 0x0F
}

// Write sets the two select-line bits of P1.
func (s *State) Write(value byte) {
	s.register = (s.register & 0xCF) | (value & 0x30)
}

// Press sets key's bit and requests a Joypad interrupt if the button
// was not already pressed and the game is currently selecting its
// line.
func (s *State) Press(key Button) {
	wasSet := s.buttons&key != 0
	s.buttons |= key

	selected := false
	if key <= ButtonStart {
		selected = !bits.Test(s.register, 5)
	} else {
		selected = !bits.Test(s.register, 4)
	}

	if !wasSet && selected {
		s.irq.Request(interrupts.JoypadFlag)
	}
}

// Release clears key's bit.
func (s *State) Release(key Button) {
	s.buttons &^= key
}

// Inputs is a batch of button transitions applied together by
// ProcessInputs, matching how a host polls its input backend once per
// frame.
type Inputs struct {
	Pressed, Released []Button
}

// ProcessInputs applies a batch of presses and releases.
func (s *State) ProcessInputs(in Inputs) {
	for _, key := range in.Pressed {
		s.Press(key)
	}
	for _, key := range in.Released {
		s.Release(key)
	}
}

// Save writes the register and button matrix.
func (s *State) Save(st *savestate.State) {
	st.Write8(s.register)
	st.Write8(s.buttons)
}

// Load restores state written by Save.
func (s *State) Load(st *savestate.State) {
	s.register = st.Read8()
	s.buttons = st.Read8()
}
