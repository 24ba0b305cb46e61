package cartridge

import (
	"github.com/pellucid-systems/goboy/internal/counter"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

// frequency is the master clock rate in Hz; the RTC ticks once per
// real second of emulated dots.
const frequency = 1 << 22

// RTC is the MBC3 real-time clock: seconds, minutes, hours and a
// 9-bit day counter that saturates and latches an overflow flag.
type RTC struct {
	clock *counter.Counter

	seconds, minutes, hours uint8
	days                    uint16 // 9 bits
	halt                    bool
	overflow                bool

	latched    bool
	latchSec   uint8
	latchMin   uint8
	latchHour  uint8
	latchDaysL uint8
	latchCtrl  uint8

	latchSeq uint8 // tracks the 0-then-1 write sequence to 6000-7FFF
}

func newRTC() *RTC {
	return &RTC{clock: counter.New(frequency)}
}

// Tick advances the RTC by dots of master-clock time.
func (r *RTC) Tick(dots uint32) {
	if r.halt {
		return
	}
	for i := uint32(0); i < r.clock.Tick(dots); i++ {
		r.advance()
	}
}

func (r *RTC) advance() {
	r.seconds++
	if r.seconds < 60 {
		return
	}
	r.seconds = 0

	r.minutes++
	if r.minutes < 60 {
		return
	}
	r.minutes = 0

	r.hours++
	if r.hours < 24 {
		return
	}
	r.hours = 0

	r.days++
	if r.days < 512 {
		return
	}
	r.days = 0
	r.overflow = true
}

// LatchWrite feeds a byte written to 0x6000-0x7FFF; a 0-then-1
// sequence snapshots the live registers into the latched copy.
func (r *RTC) LatchWrite(val uint8) {
	if r.latchSeq == 0 && val == 0 {
		r.latchSeq = 1
		return
	}
	if r.latchSeq == 1 && val == 1 {
		r.snapshot()
	}
	r.latchSeq = 0
}

func (r *RTC) snapshot() {
	r.latchSec = r.seconds
	r.latchMin = r.minutes
	r.latchHour = r.hours
	r.latchDaysL = uint8(r.days)
	r.latchCtrl = r.ctrlByte()
	r.latched = true
}

func (r *RTC) ctrlByte() uint8 {
	var b uint8
	if r.days&0x100 != 0 {
		b |= 0x01
	}
	if r.halt {
		b |= 0x40
	}
	if r.overflow {
		b |= 0x80
	}
	return b
}

// Read returns the RTC register selected by reg (0x08-0x0C), from the
// latched snapshot if one is active.
func (r *RTC) Read(reg uint8) uint8 {
	if r.latched {
		switch reg {
		case 0x08:
			return r.latchSec
		case 0x09:
			return r.latchMin
		case 0x0A:
			return r.latchHour
		case 0x0B:
			return r.latchDaysL
		case 0x0C:
			return r.latchCtrl
		}
		return 0xFF
	}

	switch reg {
	case 0x08:
		return r.seconds
	case 0x09:
		return r.minutes
	case 0x0A:
		return r.hours
	case 0x0B:
		return uint8(r.days)
	case 0x0C:
		return r.ctrlByte()
	}
	return 0xFF
}

// Write sets the RTC register selected by reg directly.
func (r *RTC) Write(reg, val uint8) {
	switch reg {
	case 0x08:
		r.seconds = val & 0x3F
	case 0x09:
		r.minutes = val & 0x3F
	case 0x0A:
		r.hours = val & 0x1F
	case 0x0B:
		r.days = r.days&0x100 | uint16(val)
	case 0x0C:
		r.days = r.days&0xFF | uint16(val&0x01)<<8
		r.halt = val&0x40 != 0
		r.overflow = val&0x80 != 0
	}
}

// Save writes the live and latched register state plus the
// underlying seconds counter.
func (r *RTC) Save(s *savestate.State) {
	r.clock.Save(s)
	s.Write8(r.seconds)
	s.Write8(r.minutes)
	s.Write8(r.hours)
	s.Write16(r.days)
	s.WriteBool(r.halt)
	s.WriteBool(r.overflow)
	s.WriteBool(r.latched)
	s.Write8(r.latchSec)
	s.Write8(r.latchMin)
	s.Write8(r.latchHour)
	s.Write8(r.latchDaysL)
	s.Write8(r.latchCtrl)
	s.Write8(r.latchSeq)
}

// Load restores state written by Save.
func (r *RTC) Load(s *savestate.State) {
	if r.clock == nil {
		r.clock = counter.New(frequency)
	}
	r.clock.Load(s)
	r.seconds = s.Read8()
	r.minutes = s.Read8()
	r.hours = s.Read8()
	r.days = s.Read16()
	r.halt = s.ReadBool()
	r.overflow = s.ReadBool()
	r.latched = s.ReadBool()
	r.latchSec = s.Read8()
	r.latchMin = s.Read8()
	r.latchHour = s.Read8()
	r.latchDaysL = s.Read8()
	r.latchCtrl = s.Read8()
	r.latchSeq = s.Read8()
}
