package ppu

import "github.com/pellucid-systems/goboy/internal/savestate"

// Bus is the general memory read access OAM DMA needs to source
// bytes from outside VRAM/OAM (ROM, WRAM, cartridge RAM).
type Bus interface {
	Read(addr uint16) uint8
}

// DMA is the OAM DMA controller (FF46): writing a byte starts a
// 160-byte transfer from value<<8 into OAM: after a 4-dot startup
// delay, one byte per m-cycle (4 dots), 160 m-cycles in all.
type DMA struct {
	bus Bus

	enabled    bool
	restarting bool

	timer  uint16
	source uint16
	value  uint8

	ppu *PPU
}

// NewDMA returns a DMA controller sourcing bytes from bus and
// writing into ppu's OAM.
func NewDMA(bus Bus, ppu *PPU) *DMA {
	return &DMA{bus: bus, ppu: ppu}
}

// Read returns the last value written to FF46.
func (d *DMA) Read() uint8 {
	return d.value
}

// Write starts a new transfer from value<<8.
func (d *DMA) Write(value uint8) {
	d.value = value
	d.source = uint16(value) << 8
	d.timer = 0

	d.restarting = d.enabled
	d.enabled = true
}

// Tick advances the transfer by one dot; a byte lands in OAM once
// every 4 dots after the 4-dot startup delay.
func (d *DMA) Tick() {
	if !d.enabled {
		return
	}

	d.timer++
	if d.timer <= 4 {
		return
	}

	d.restarting = false

	offset := (d.timer - 4) >> 2
	if offset >= 160 {
		d.enabled = false
		d.timer = 0
		return
	}
	src := d.source + offset
	if src >= 0xFE00 {
		src -= 0x2000
	}

	d.ppu.WriteOAMByte(int(offset), d.bus.Read(src))
}

// IsTransferring reports whether a transfer is currently in flight.
func (d *DMA) IsTransferring() bool {
	return d.timer > 4 || d.restarting
}

// Save writes the transfer's in-flight state.
func (d *DMA) Save(s *savestate.State) {
	s.WriteBool(d.enabled)
	s.WriteBool(d.restarting)
	s.Write16(d.timer)
	s.Write16(d.source)
	s.Write8(d.value)
}

// Load restores state written by Save.
func (d *DMA) Load(s *savestate.State) {
	d.enabled = s.ReadBool()
	d.restarting = s.ReadBool()
	d.timer = s.Read16()
	d.source = s.Read16()
	d.value = s.Read8()
}
