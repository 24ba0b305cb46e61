// Package interrupts models the IF/IE register pair shared by every
// component that can raise an interrupt (PPU, APU's DIV-APU edge is
// silent, Timer, Serial, Joypad). The CPU owns IME and priority
// dispatch; this package only owns the two registers.
package interrupts

import (
	"fmt"

	"github.com/pellucid-systems/goboy/internal/savestate"
)

// Address is the vector a given interrupt dispatches to.
type Address = uint16

const (
	VBlank Address = 0x0040
	LCD    Address = 0x0048
	Timer  Address = 0x0050
	Serial Address = 0x0058
	Joypad Address = 0x0060
)

// Flag is a bit index into IF/IE, also the interrupt's priority order
// (lower index wins when more than one bit is pending).
type Flag = uint8

const (
	VBlankFlag Flag = 0
	LCDFlag    Flag = 1
	TimerFlag  Flag = 2
	SerialFlag Flag = 3
	JoypadFlag Flag = 4
)

// vectors indexed by Flag, used by the CPU's dispatch loop.
var vectors = [5]Address{VBlank, LCD, Timer, Serial, Joypad}

const (
	// FlagRegister is IF (0xFF0F). Bit i set means interrupt i is
	// requested; unused upper 3 bits always read as 1.
	FlagRegister uint16 = 0xFF0F
	// EnableRegister is IE (0xFFFF).
	EnableRegister uint16 = 0xFFFF
)

// Service holds the IF/IE register pair.
type Service struct {
	Flag   uint8 // IF, 0xFF0F
	Enable uint8 // IE, 0xFFFF
}

// NewService returns a fresh, all-zero Service.
func NewService() *Service {
	return &Service{}
}

// Request raises the given interrupt's IF bit.
func (s *Service) Request(flag Flag) {
	s.Flag |= 1 << flag
}

// Clear lowers the given interrupt's IF bit.
func (s *Service) Clear(flag Flag) {
	s.Flag &^= 1 << flag
}

// Pending returns IF & IE masked to the 5 real interrupt bits.
func (s *Service) Pending() uint8 {
	return s.Flag & s.Enable & 0x1F
}

// Highest returns the highest-priority pending interrupt's flag index
// and vector address, and whether any interrupt is pending at all.
func (s *Service) Highest() (flag Flag, vector Address, ok bool) {
	pending := s.Pending()
	if pending == 0 {
		return 0, 0, false
	}
	for i := Flag(0); i < 5; i++ {
		if pending&(1<<i) != 0 {
			return i, vectors[i], true
		}
	}
	panic("unreachable")
}

// Read returns the value of the register at the given address.
func (s *Service) Read(address uint16) uint8 {
	switch address {
	case FlagRegister:
		return s.Flag&0b00011111 | 0b11100000
	case EnableRegister:
		return s.Enable
	}
	panic(fmt.Sprintf("interrupts\tillegal read from address %04X", address))
}

// Write writes the given value to the register at the given address.
func (s *Service) Write(address uint16, value uint8) {
	switch address {
	case FlagRegister:
		s.Flag = value & 0x1F
	case EnableRegister:
		s.Enable = value
	default:
		panic(fmt.Sprintf("interrupts\tillegal write to address %04X", address))
	}
}

// Save writes IF and IE.
func (s *Service) Save(st *savestate.State) {
	st.Write8(s.Flag)
	st.Write8(s.Enable)
}

// Load restores state written by Save.
func (s *Service) Load(st *savestate.State) {
	s.Flag = st.Read8()
	s.Enable = st.Read8()
}
