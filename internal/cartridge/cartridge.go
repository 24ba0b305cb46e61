package cartridge

import (
	"fmt"

	"github.com/cespare/xxhash"

	"github.com/pellucid-systems/goboy/internal/savestate"
)

const (
	romBankSize = 16 * 1024
	ramBankSize = 8 * 1024
)

// Cartridge owns the ROM image and external RAM and dispatches CPU
// reads/writes through whichever MBC the header selects. The MBC
// state is a tagged union (kind + a handful of plain registers)
// rather than an interface hierarchy, per spec.md §9.
type Cartridge struct {
	Header

	kind Kind
	rom  []byte
	ram  []byte

	ramEnabled bool

	// MBC1
	mbc1RomLo uint8 // 5 bits; 0000-1FFF range instead selects ram enable
	mbc1RomHi uint8 // 2 bits
	mbc1Mode  bool

	// MBC2: 512 nibbles of built-in RAM, addressed by bit 8 of the
	// control address deciding RAM-enable vs ROM-bank-select.
	mbc2Rom uint8
	mbc2Ram [512]uint8

	// MBC3
	mbc3Rom    uint8 // 7 bits
	mbc3RamRTC uint8 // 4 bits: 0x00-0x03 RAM bank, 0x08-0x0C RTC register
	rtc        *RTC

	// MBC5
	mbc5RomLo uint8
	mbc5RomHi uint8
	mbc5Ram   uint8
}

// New parses rom's header and constructs the Cartridge, failing with
// one of the Err* sentinels in errors.go if the header is malformed or
// names an unsupported MBC.
func New(rom []byte) (*Cartridge, error) {
	if len(rom) == 0 || len(rom)%romBankSize != 0 {
		return nil, fmt.Errorf("cartridge: %w: %d bytes", ErrInvalidRomSize, len(rom))
	}

	header, err := parseHeader(rom)
	if err != nil {
		return nil, err
	}
	if uint(len(rom)) != header.ROMSize {
		return nil, fmt.Errorf("cartridge: %w: header wants %d bytes, got %d", ErrRomSizeMismatch, header.ROMSize, len(rom))
	}

	mbcKind, err := kind(header.CartridgeType)
	if err != nil {
		return nil, err
	}

	c := &Cartridge{
		Header:    header,
		kind:      mbcKind,
		rom:       rom,
		mbc1RomLo: 1,
		mbc3Rom:   1,
		mbc5RomLo: 1,
	}

	switch mbcKind {
	case KindMBC2:
		// built-in nibble ram, not header-sized
	case KindMBC3:
		c.ram = make([]byte, header.RAMSize)
		c.rtc = newRTC()
	default:
		c.ram = make([]byte, header.RAMSize)
	}

	return c, nil
}

// Checksum returns an xxhash of the full ROM image.
func (c *Cartridge) Checksum() uint64 {
	return xxhash.Sum64(c.rom)
}

func (c *Cartridge) romBankCount() int {
	return len(c.rom) / romBankSize
}

// Tick advances the MBC3 RTC, if present, by dots of master-clock
// time. Other MBC kinds ignore it.
func (c *Cartridge) Tick(dots uint32) {
	if c.rtc != nil {
		c.rtc.Tick(dots)
	}
}

// Read services a CPU read in 0x0000-0x7FFF (ROM) or 0xA000-0xBFFF
// (external RAM / RTC register).
func (c *Cartridge) Read(addr uint16) uint8 {
	switch c.kind {
	case KindNone:
		return c.readNone(addr)
	case KindMBC1:
		return c.readMBC1(addr)
	case KindMBC2:
		return c.readMBC2(addr)
	case KindMBC3:
		return c.readMBC3(addr)
	case KindMBC5:
		return c.readMBC5(addr)
	}
	return 0xFF
}

// Write services a CPU write in 0x0000-0x7FFF (MBC control registers)
// or 0xA000-0xBFFF (external RAM / RTC register, gated by ramEnabled).
func (c *Cartridge) Write(addr uint16, val uint8) {
	switch c.kind {
	case KindNone:
		return
	case KindMBC1:
		c.writeMBC1(addr, val)
	case KindMBC2:
		c.writeMBC2(addr, val)
	case KindMBC3:
		c.writeMBC3(addr, val)
	case KindMBC5:
		c.writeMBC5(addr, val)
	}
}

func (c *Cartridge) romAt(bank int, offset uint16) uint8 {
	count := c.romBankCount()
	if count == 0 {
		return 0xFF
	}
	bank %= count
	i := bank*romBankSize + int(offset)
	if i < 0 || i >= len(c.rom) {
		return 0xFF
	}
	return c.rom[i]
}

func (c *Cartridge) readNone(addr uint16) uint8 {
	if addr < 0x8000 {
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
		return 0xFF
	}
	if addr >= 0xA000 && addr < 0xC000 && len(c.ram) > 0 {
		i := int(addr - 0xA000)
		if i < len(c.ram) {
			return c.ram[i]
		}
	}
	return 0xFF
}

// SaveRAM returns the battery-backed external RAM for the host to
// persist between sessions. MBC3 RTC registers are not included.
func (c *Cartridge) SaveRAM() []byte {
	if c.kind == KindMBC2 {
		return c.mbc2Ram[:]
	}
	return c.ram
}

// LoadRAM restores external RAM previously returned by SaveRAM.
func (c *Cartridge) LoadRAM(data []byte) {
	if c.kind == KindMBC2 {
		copy(c.mbc2Ram[:], data)
		return
	}
	copy(c.ram, data)
}

// Save writes MBC register state and external RAM. The ROM image
// itself is never part of a savestate; the host re-supplies it, and
// Load does not check that it is the same ROM.
func (c *Cartridge) Save(s *savestate.State) {
	s.Write8(uint8(c.kind))
	s.WriteBool(c.ramEnabled)
	s.Write8(c.mbc1RomLo)
	s.Write8(c.mbc1RomHi)
	s.WriteBool(c.mbc1Mode)
	s.Write8(c.mbc2Rom)
	s.WriteRaw(c.mbc2Ram[:])
	s.Write8(c.mbc3Rom)
	s.Write8(c.mbc3RamRTC)
	s.Write8(c.mbc5RomLo)
	s.Write8(c.mbc5RomHi)
	s.Write8(c.mbc5Ram)
	s.WriteBytes(c.ram)
	s.WriteBool(c.rtc != nil)
	if c.rtc != nil {
		c.rtc.Save(s)
	}
}

// Load restores state written by Save. The Cartridge must already be
// constructed from the matching ROM image via New.
func (c *Cartridge) Load(s *savestate.State) {
	c.kind = Kind(s.Read8())
	c.ramEnabled = s.ReadBool()
	c.mbc1RomLo = s.Read8()
	c.mbc1RomHi = s.Read8()
	c.mbc1Mode = s.ReadBool()
	c.mbc2Rom = s.Read8()
	s.ReadInto(c.mbc2Ram[:])
	c.mbc3Rom = s.Read8()
	c.mbc3RamRTC = s.Read8()
	c.mbc5RomLo = s.Read8()
	c.mbc5RomHi = s.Read8()
	c.mbc5Ram = s.Read8()
	copy(c.ram, s.ReadBytes())
	if s.ReadBool() {
		if c.rtc == nil {
			c.rtc = newRTC()
		}
		c.rtc.Load(s)
	}
}
