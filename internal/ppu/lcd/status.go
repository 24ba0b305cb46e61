package lcd

// StatusRegister is the address of the status register (STAT).
const StatusRegister uint16 = 0xFF41

// Status is STAT (0xFF41):
//
//	Bit 6 - LYC=LY Coincidence Interrupt (1=Enable)
//	Bit 5 - Mode 2 OAM Interrupt         (1=Enable)
//	Bit 4 - Mode 1 V-Blank Interrupt     (1=Enable)
//	Bit 3 - Mode 0 H-Blank Interrupt     (1=Enable)
//	Bit 2 - Coincidence Flag  (0:LYC<>LY, 1:LYC=LY), read-only
//	Bit 1-0 - Mode Flag, read-only
type Status struct {
	CoincidenceInterrupt bool
	OAMInterrupt         bool
	VBlankInterrupt      bool
	HBlankInterrupt      bool
	Coincidence          bool
	Mode                 Mode
}

// NewStatus returns a zeroed Status in OAM-scan mode.
func NewStatus() *Status {
	return &Status{Mode: OAM}
}

// Write updates the three writable interrupt-enable bits; Coincidence
// and Mode are read-only, set by the PPU itself.
func (s *Status) Write(value uint8) {
	s.CoincidenceInterrupt = value&0x40 != 0
	s.OAMInterrupt = value&0x20 != 0
	s.VBlankInterrupt = value&0x10 != 0
	s.HBlankInterrupt = value&0x08 != 0
}

// Read reconstructs STAT's byte value; the unused bit 7 always reads 1.
func (s *Status) Read() uint8 {
	var value uint8 = 0x80
	if s.CoincidenceInterrupt {
		value |= 0x40
	}
	if s.OAMInterrupt {
		value |= 0x20
	}
	if s.VBlankInterrupt {
		value |= 0x10
	}
	if s.HBlankInterrupt {
		value |= 0x08
	}
	if s.Coincidence {
		value |= 0x04
	}
	value |= uint8(s.Mode) & 0x03
	return value
}

// Line reports whether any enabled STAT interrupt source is currently
// asserted — the OR of all four conditions that the real hardware
// combines into one interrupt line, which only fires on a low-to-high
// transition.
func (s *Status) Line(lycEqLY bool) bool {
	if s.CoincidenceInterrupt && lycEqLY {
		return true
	}
	switch s.Mode {
	case HBlank:
		return s.HBlankInterrupt
	case VBlank:
		return s.VBlankInterrupt
	case OAM:
		return s.OAMInterrupt
	}
	return false
}
