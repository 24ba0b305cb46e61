// Package cartridge owns the ROM image and external RAM, and
// translates 16-bit CPU addresses into banked ROM/RAM offsets via the
// appropriate Memory Bank Controller.
package cartridge

import "fmt"

// Flag is the CGB-support byte at 0x0143.
type Flag uint8

const (
	FlagOnlyDMG Flag = iota
	FlagSupportsCGB
	FlagOnlyCGB
)

// Type is the cartridge-type byte at 0x0147, identifying the MBC.
type Type uint8

const (
	ROM               Type = 0x00
	MBC1              Type = 0x01
	MBC1RAM           Type = 0x02
	MBC1RAMBATT       Type = 0x03
	MBC2              Type = 0x05
	MBC2BATT          Type = 0x06
	ROMRAM            Type = 0x08
	ROMRAMBATT        Type = 0x09
	MMM01             Type = 0x0B
	MMM01RAM          Type = 0x0C
	MMM01RAMBATT      Type = 0x0D
	MBC3TIMERBATT     Type = 0x0F
	MBC3TIMERRAMBATT  Type = 0x10
	MBC3              Type = 0x11
	MBC3RAM           Type = 0x12
	MBC3RAMBATT       Type = 0x13
	MBC5              Type = 0x19
	MBC5RAM           Type = 0x1A
	MBC5RAMBATT       Type = 0x1B
	MBC5RUMBLE        Type = 0x1C
	MBC5RUMBLERAM     Type = 0x1D
	MBC5RUMBLERAMBATT Type = 0x1E
	POCKETCAMERA      Type = 0x1F
	BANDAITAMA5       Type = 0xFD
	HUDSONHUC3        Type = 0xFE
	HUDSONHUC1        Type = 0xFF
)

// Kind is the MBC family actually emulated; several Type byte values
// map onto the same Kind (e.g. MBC3/MBC3RAM/MBC3RAMBATT all run the
// same bank-switching logic, batteries only matter to the host's save
// file policy).
type Kind uint8

const (
	KindNone Kind = iota
	KindMBC1
	KindMBC2
	KindMBC3
	KindMBC5
)

var ramSizeBanks = map[uint8]uint{
	0x00: 0,
	0x02: 1,
	0x03: 4,
	0x04: 16,
	0x05: 8,
}

// Header is the parsed 0x0100-0x014F cartridge header.
type Header struct {
	Title            string
	ManufacturerCode string
	CGBFlag          Flag
	NewLicenseeCode  string
	SGBFlag          bool
	CartridgeType    Type
	ROMBanks         uint
	ROMSize          uint
	RAMBanks         uint
	RAMSize          uint
	CountryCode      uint8
	OldLicenseeCode  uint8
	MaskROMVersion   uint8
	HeaderChecksum   uint8
	GlobalChecksum   uint16
}

// parseHeader parses the header out of a full ROM image (rom must be
// at least 0x150 bytes).
func parseHeader(rom []byte) (Header, error) {
	if len(rom) < 0x150 {
		return Header{}, fmt.Errorf("cartridge: %w: rom too short for header (%d bytes)", ErrInvalidRomSize, len(rom))
	}

	h := Header{}
	switch rom[0x143] {
	case 0x80:
		h.CGBFlag = FlagSupportsCGB
	case 0xC0:
		h.CGBFlag = FlagOnlyCGB
	default:
		h.CGBFlag = FlagOnlyDMG
	}

	if h.CGBFlag == FlagOnlyDMG {
		h.Title = trimTitle(rom[0x134:0x144])
	} else {
		h.Title = trimTitle(rom[0x134:0x143])
	}
	h.ManufacturerCode = string(rom[0x13F:0x143])
	h.NewLicenseeCode = string(rom[0x144:0x146])
	h.SGBFlag = rom[0x146] == 0x03
	h.CartridgeType = Type(rom[0x147])

	romSizeCode := rom[0x148]
	if romSizeCode > 8 {
		return Header{}, fmt.Errorf("cartridge: %w: code %#02x", ErrUnknownRomSize, romSizeCode)
	}
	h.ROMBanks = 2 << uint(romSizeCode)
	h.ROMSize = h.ROMBanks * 16 * 1024

	ramSizeCode := rom[0x149]
	banks, ok := ramSizeBanks[ramSizeCode]
	if !ok {
		return Header{}, fmt.Errorf("cartridge: %w: code %#02x", ErrUnknownRamSize, ramSizeCode)
	}
	h.RAMBanks = banks
	h.RAMSize = banks * 8 * 1024

	h.CountryCode = rom[0x14A]
	h.OldLicenseeCode = rom[0x14B]
	h.MaskROMVersion = rom[0x14C]
	h.HeaderChecksum = rom[0x14D]
	h.GlobalChecksum = uint16(rom[0x14E]) | uint16(rom[0x14F])<<8

	return h, nil
}

func trimTitle(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func (h *Header) GameboyColor() bool {
	return h.CGBFlag == FlagOnlyCGB || h.CGBFlag == FlagSupportsCGB
}

func (h *Header) String() string {
	return fmt.Sprintf("%s | type=%#02x | rom=%dKiB | ram=%dKiB", h.Title, h.CartridgeType, h.ROMSize/1024, h.RAMSize/1024)
}

// kind maps a header's CartridgeType byte to the MBC family we
// emulate, per the Non-goals in spec.md (MBC6/7, MMM01, HuC1/3 are
// out of scope).
func kind(t Type) (Kind, error) {
	switch t {
	case ROM, ROMRAM, ROMRAMBATT:
		return KindNone, nil
	case MBC1, MBC1RAM, MBC1RAMBATT:
		return KindMBC1, nil
	case MBC2, MBC2BATT:
		return KindMBC2, nil
	case MBC3TIMERBATT, MBC3TIMERRAMBATT, MBC3, MBC3RAM, MBC3RAMBATT:
		return KindMBC3, nil
	case MBC5, MBC5RAM, MBC5RAMBATT, MBC5RUMBLE, MBC5RUMBLERAM, MBC5RUMBLERAMBATT:
		return KindMBC5, nil
	case MMM01, MMM01RAM, MMM01RAMBATT, POCKETCAMERA, BANDAITAMA5, HUDSONHUC3, HUDSONHUC1:
		return 0, fmt.Errorf("cartridge: %w: mbc type %#02x", ErrNotImplemented, t)
	default:
		return 0, fmt.Errorf("cartridge: %w: type byte %#02x", ErrUnknownMBC, t)
	}
}
