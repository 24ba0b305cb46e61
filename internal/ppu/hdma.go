package ppu

import "github.com/pellucid-systems/goboy/internal/savestate"

// HDMA is the CGB VRAM DMA controller (HDMA1-5, FF51-FF55): general-
// purpose transfers run to completion immediately on write; HBlank
// transfers move 16 bytes each time the PPU enters HBlank, driven by
// the owning PPU calling OnHBlank once per line.
type HDMA struct {
	bus Bus
	ppu *PPU

	source, destination uint16
	length              uint8

	hdmaActive   bool
	hdmaRemaining uint8
}

// NewHDMA returns an HDMA controller sourcing bytes from bus and
// writing into ppu's VRAM.
func NewHDMA(bus Bus, ppu *PPU) *HDMA {
	return &HDMA{bus: bus, ppu: ppu}
}

// Read dispatches HDMA1-5 register reads. HDMA1-4 are write-only on
// real hardware and read back 0xFF; only HDMA5 is meaningful.
func (h *HDMA) Read(addr uint16) uint8 {
	switch addr {
	case 0xFF55:
		if !h.hdmaActive {
			return 0xFF
		}
		return (h.hdmaRemaining - 1) & 0x7F
	}
	return 0xFF
}

// Write dispatches an HDMA1-5 register write.
func (h *HDMA) Write(addr uint16, value uint8) {
	switch addr {
	case 0xFF51: // HDMA1, source high
		h.source = h.source&0x00FF | uint16(value)<<8
	case 0xFF52: // HDMA2, source low
		h.source = h.source&0xFF00 | uint16(value&0xF0)
	case 0xFF53: // HDMA3, destination high
		h.destination = h.destination&0x00F0 | (uint16(value)<<8)&0x1F00
	case 0xFF54: // HDMA4, destination low
		h.destination = h.destination&0xFF00 | uint16(value&0xF0)
	case 0xFF55: // HDMA5, length/mode/start
		h.length = (value & 0x7F) + 1

		if value&0x80 != 0 {
			h.hdmaActive = true
			h.hdmaRemaining = h.length
			if !h.ppu.lcdc.Enabled || h.ppu.mode == modeHBlank {
				h.transferBlock()
			}
		} else if h.hdmaActive {
			h.hdmaActive = false
		} else {
			h.hdmaRemaining = h.length
			h.transferAll()
			h.hdmaRemaining = 0
		}
	}
}

// OnHBlank is called by the owning PPU once per HBlank entry; it
// moves one 16-byte block of an in-progress HBlank DMA.
func (h *HDMA) OnHBlank() {
	if !h.hdmaActive || h.hdmaRemaining == 0 {
		return
	}
	h.transferBlock()
	h.hdmaRemaining--
	if h.hdmaRemaining == 0 {
		h.hdmaActive = false
	}
}

// transferBlock copies one 16-byte chunk from source to destination.
func (h *HDMA) transferBlock() {
	dest := 0x8000 + h.destination&0x1FFF
	for i := 0; i < 16; i++ {
		h.ppu.WriteVRAMBank(h.ppu.vramBank, dest, h.bus.Read(h.source))
		h.source++
		dest++
		h.destination++
	}
}

// transferAll copies the entire requested length immediately, used
// for a general-purpose (non-HBlank) transfer.
func (h *HDMA) transferAll() {
	for i := uint8(0); i < h.length; i++ {
		h.transferBlock()
	}
}

// Save writes the controller's register and in-progress state.
func (h *HDMA) Save(s *savestate.State) {
	s.Write16(h.source)
	s.Write16(h.destination)
	s.Write8(h.length)
	s.WriteBool(h.hdmaActive)
	s.Write8(h.hdmaRemaining)
}

// Load restores state written by Save.
func (h *HDMA) Load(s *savestate.State) {
	h.source = s.Read16()
	h.destination = s.Read16()
	h.length = s.Read8()
	h.hdmaActive = s.ReadBool()
	h.hdmaRemaining = s.Read8()
}
