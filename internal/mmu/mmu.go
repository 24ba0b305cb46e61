// Package mmu implements the Game Boy's memory management unit: the
// single address decoder every CPU read/write passes through,
// fanning out to the cartridge, PPU, APU, timer, serial port, joypad,
// working RAM, high RAM, and the interrupt/speed-switch registers it
// owns directly.
//
// Grounded on the teacher's internal/mmu/mmu.go address-range switch
// and internal/mmu/wram.go's flat-array WRAM banks, generalized to
// route through this module's component Read/Write methods instead of
// the teacher's types.RegisterHardware global registry.
package mmu

import (
	"github.com/pellucid-systems/goboy/internal/apu"
	"github.com/pellucid-systems/goboy/internal/cartridge"
	"github.com/pellucid-systems/goboy/internal/cheats"
	"github.com/pellucid-systems/goboy/internal/interrupts"
	"github.com/pellucid-systems/goboy/internal/joypad"
	"github.com/pellucid-systems/goboy/internal/ppu"
	"github.com/pellucid-systems/goboy/internal/savestate"
	"github.com/pellucid-systems/goboy/internal/serial"
	"github.com/pellucid-systems/goboy/internal/timer"
	"github.com/pellucid-systems/goboy/pkg/log"
)

// Registers this package owns directly rather than delegating to a
// component.
const (
	key0Addr uint16 = 0xFF4C
	key1Addr uint16 = 0xFF4D
	vbkAddr  uint16 = 0xFF4F
	bootAddr uint16 = 0xFF50
	svbkAddr uint16 = 0xFF70
)

// MMU owns the cartridge, PPU, APU, timer, serial, joypad, working
// and high RAM, and the interrupt/CGB-speed registers, dispatching
// every CPU memory access by address range.
type MMU struct {
	Cart *cartridge.Cartridge
	IRQ  *interrupts.Service

	PPU    *ppu.PPU
	APU    *apu.APU
	Timer  *timer.Controller
	Serial *serial.Controller
	Joypad *joypad.State

	dma  *ppu.DMA
	hdma *ppu.HDMA

	wram *wram
	hram [0x7F]uint8

	isCGB       bool
	key1        uint8
	doubleSpeed bool

	// Cheats is nil unless a host loads codes via
	// emulator.WithCheatCodes; Read consults it for every ROM access.
	Cheats *cheats.Engine

	log log.Logger
}

// ApplyCheats pokes every enabled GameShark RAM code into memory. A
// host calls this once per frame (or burst); it is a no-op if no
// cheats are loaded.
func (m *MMU) ApplyCheats() {
	if m.Cheats == nil {
		return
	}
	for _, c := range m.Cheats.RAMPokes() {
		m.Write(c.Address, c.NewData)
	}
}

// New returns an MMU wiring together a freshly-constructed PPU, APU,
// timer, serial port and joypad around cart. The cartridge's header
// decides DMG/CGB mode for the PPU, WRAM banking and speed-switch
// register.
func New(cart *cartridge.Cartridge, l log.Logger) *MMU {
	return NewWithModel(cart, l, cart.GameboyColor())
}

// NewWithModel is New with the DMG/CGB mode chosen explicitly rather
// than derived from the cartridge header, for a host that wants to
// force one mode or the other (internal/emulator's ForceCGB/ForceDMG
// options).
func NewWithModel(cart *cartridge.Cartridge, l log.Logger, isCGB bool) *MMU {
	if l == nil {
		l = log.New()
	}
	irq := interrupts.NewService()

	m := &MMU{
		Cart:   cart,
		IRQ:    irq,
		PPU:    ppu.New(irq, isCGB),
		APU:    apu.New(),
		Timer:  timer.New(irq),
		Serial: serial.New(irq),
		Joypad: joypad.New(irq),
		wram:   newWRAM(),
		isCGB:  isCGB,
		log:    l,
	}

	m.dma = ppu.NewDMA(m, m.PPU)
	if isCGB {
		m.hdma = ppu.NewHDMA(m, m.PPU)
		m.PPU.AttachHDMA(m.hdma)
	}

	return m
}

// IsGBC reports whether this MMU is running in Game Boy Color mode.
func (m *MMU) IsGBC() bool {
	return m.isCGB
}

// DoubleSpeed reports whether the CGB speed switch is currently
// engaged.
func (m *MMU) DoubleSpeed() bool {
	return m.doubleSpeed
}

// ArmSpeedSwitch sets KEY1 bit 0 on CGB, the same bit a game sets by
// writing KEY1; the CPU's STOP handler then performs the switch.
func (m *MMU) ArmSpeedSwitch() {
	if m.isCGB {
		m.key1 |= 0x01
	}
}

// SpeedSwitchArmed reports KEY1 bit 0.
func (m *MMU) SpeedSwitchArmed() bool {
	return m.key1&0x01 != 0
}

// PerformSpeedSwitch toggles the current speed and clears the armed
// bit, called by the CPU after actually executing the switch.
func (m *MMU) PerformSpeedSwitch() {
	m.doubleSpeed = !m.doubleSpeed
	m.key1 &^= 0x01
}

// Tick advances every ticked subsystem by mcycles CPU machine cycles.
// PPU, APU and the cartridge's RTC always see 4 dots per m-cycle
// regardless of CGB double speed, since they run off real elapsed
// time rather than the CPU's own clock; the timer and serial port,
// which are themselves clocked by the CPU's own speed, see 2 dots per
// m-cycle in double speed mode.
func (m *MMU) Tick(mcycles int) {
	ppuApuDots := uint32(mcycles) * 4
	cpuDots := ppuApuDots
	if m.doubleSpeed {
		cpuDots = uint32(mcycles) * 2
	}

	m.PPU.Tick(ppuApuDots)
	m.APU.Tick(ppuApuDots)
	m.Cart.Tick(ppuApuDots)
	m.Timer.Tick(cpuDots)
	m.Serial.Tick(cpuDots)

	for i := uint32(0); i < cpuDots; i++ {
		m.dma.Tick()
	}
}

// Read returns the byte at address, decoding the full 64 KiB address
// space.
func (m *MMU) Read(address uint16) uint8 {
	switch {
	case address <= 0x7FFF:
		value := m.Cart.Read(address)
		if m.Cheats != nil {
			value = m.Cheats.PatchROM(address, value)
		}
		return value
	case address <= 0x9FFF:
		return m.PPU.ReadVRAM(address)
	case address <= 0xBFFF:
		return m.Cart.Read(address)
	case address <= 0xDFFF:
		return m.wram.read(address)
	case address <= 0xFDFF:
		return m.wram.read((address & 0x1FFF) | 0xC000)
	case address <= 0xFE9F:
		return m.PPU.ReadOAM(address)
	case address <= 0xFEFF:
		return 0x00
	case address == interrupts.FlagRegister:
		return m.IRQ.Read(address)
	case address <= 0xFF7F:
		return m.readIO(address)
	case address <= 0xFFFE:
		return m.hram[address-0xFF80]
	default: // 0xFFFF
		return m.IRQ.Read(address)
	}
}

// Write writes value to address, decoding the full 64 KiB address
// space.
func (m *MMU) Write(address uint16, value uint8) {
	switch {
	case address <= 0x7FFF:
		m.Cart.Write(address, value)
	case address <= 0x9FFF:
		m.PPU.WriteVRAM(address, value)
	case address <= 0xBFFF:
		m.Cart.Write(address, value)
	case address <= 0xDFFF:
		m.wram.write(address, value)
	case address <= 0xFDFF:
		m.wram.write((address&0x1FFF)|0xC000, value)
	case address <= 0xFE9F:
		m.PPU.WriteOAM(address, value)
	case address <= 0xFEFF:
		// unusable; ignored
	case address == interrupts.FlagRegister:
		m.IRQ.Write(address, value)
	case address <= 0xFF7F:
		m.writeIO(address, value)
	case address <= 0xFFFE:
		m.hram[address-0xFF80] = value
	default: // 0xFFFF
		m.IRQ.Write(address, value)
	}
}

func (m *MMU) readIO(addr uint16) uint8 {
	switch {
	case addr == joypad.P1:
		return m.Joypad.Read()
	case addr == serial.SB, addr == serial.SC:
		return m.Serial.Read(addr)
	case addr >= timer.DIV && addr <= timer.TAC:
		return m.Timer.Read(addr)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return m.APU.Read(addr)
	case addr == ppu.DMA:
		return m.dma.Read()
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return m.PPU.Read(addr)
	case addr == key0Addr:
		return 0xFF
	case addr == key1Addr:
		if m.isCGB {
			b := m.key1 & 0x01
			if m.doubleSpeed {
				b |= 0x80
			}
			return b | 0x7E
		}
		return 0xFF
	case addr == vbkAddr:
		return m.PPU.Read(addr)
	case addr == bootAddr:
		return 0xFF
	case addr >= 0xFF51 && addr <= 0xFF55:
		if m.isCGB {
			return m.hdma.Read(addr)
		}
		return 0xFF
	case addr >= ppu.BCPS && addr <= ppu.OCPD:
		return m.PPU.Read(addr)
	case addr == svbkAddr:
		if m.isCGB {
			return m.wram.bank | 0xF8
		}
		return 0xFF
	}
	return 0xFF
}

func (m *MMU) writeIO(addr uint16, value uint8) {
	switch {
	case addr == joypad.P1:
		m.Joypad.Write(value)
	case addr == serial.SB, addr == serial.SC:
		m.Serial.Write(addr, value)
	case addr >= timer.DIV && addr <= timer.TAC:
		m.Timer.Write(addr, value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		m.APU.Write(addr, value)
	case addr == ppu.DMA:
		m.dma.Write(value)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		m.PPU.Write(addr, value)
	case addr == key0Addr:
		// read-only after boot; no boot ROM is modeled, so ignored
	case addr == key1Addr:
		if m.isCGB {
			m.key1 = (m.key1 & 0xFE) | (value & 0x01)
		}
	case addr == vbkAddr:
		m.PPU.Write(addr, value)
	case addr == bootAddr:
		// boot ROM disable; no boot ROM is modeled, so ignored
	case addr >= 0xFF51 && addr <= 0xFF55:
		if m.isCGB {
			m.hdma.Write(addr, value)
		}
	case addr >= ppu.BCPS && addr <= ppu.OCPD:
		m.PPU.Write(addr, value)
	case addr == svbkAddr:
		if m.isCGB {
			bank := value & 0x07
			if bank == 0 {
				bank = 1
			}
			m.wram.bank = bank
		}
	default:
		m.log.Debugf("mmu: unhandled IO write 0x%02X to 0x%04X", value, addr)
	}
}

// Save writes the MMU's own state: working/high RAM, the speed-switch
// register, and every owned component.
func (m *MMU) Save(s *savestate.State) {
	m.wram.Save(s)
	s.WriteRaw(m.hram[:])
	s.Write8(m.key1)
	s.WriteBool(m.doubleSpeed)

	m.Cart.Save(s)
	m.IRQ.Save(s)
	m.PPU.Save(s)
	m.APU.Save(s)
	m.Timer.Save(s)
	m.Serial.Save(s)
	m.Joypad.Save(s)
	m.dma.Save(s)
	if m.isCGB {
		m.hdma.Save(s)
	}
}

// Load restores state written by Save.
func (m *MMU) Load(s *savestate.State) {
	m.wram.Load(s)
	s.ReadInto(m.hram[:])
	m.key1 = s.Read8()
	m.doubleSpeed = s.ReadBool()

	m.Cart.Load(s)
	m.IRQ.Load(s)
	m.PPU.Load(s)
	m.APU.Load(s)
	m.Timer.Load(s)
	m.Serial.Load(s)
	m.Joypad.Load(s)
	m.dma.Load(s)
	if m.isCGB {
		m.hdma.Load(s)
	}
}
