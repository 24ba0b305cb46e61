// Package cpu implements the Sharp SM83 interpreter: register file,
// the primary and CB-prefixed opcode tables, interrupt dispatch with
// the IME/EI one-instruction delay, HALT/STOP and the HALT bug, and
// CGB double-speed switching.
package cpu

import (
	"github.com/pellucid-systems/goboy/internal/mmu"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

// ClockSpeed is the DMG/CGB single-speed master clock, in Hz.
const ClockSpeed = 4194304

type mode uint8

const (
	modeNormal mode = iota
	modeHalt
	modeStop
	modeHaltBug
	modeEnableIME
)

// CPU executes SM83 machine code against an MMU, one instruction (or
// halted/stopped m-cycle) at a time via Step.
type CPU struct {
	Registers
	PC uint16
	SP uint16

	ime  bool
	mode mode

	// hlTemp backs registerPointers[6]: the (HL) "register slot" used
	// by instructions that address memory through HL instead of a
	// named register.
	hlTemp          Register
	registerPointers [8]*Register

	mmu *mmu.MMU

	mcycles uint8
}

// New returns a CPU wired to m, with registers set to the standard
// post-boot-ROM state (no boot ROM is modeled; see internal/mmu).
func New(m *mmu.MMU) *CPU {
	c := &CPU{mmu: m}
	c.BC = &RegisterPair{&c.B, &c.C}
	c.DE = &RegisterPair{&c.D, &c.E}
	c.HL = &RegisterPair{&c.H, &c.L}
	c.AF = &RegisterPair{&c.A, &c.F}
	c.registerPointers = [8]*Register{&c.B, &c.C, &c.D, &c.E, &c.H, &c.L, &c.hlTemp, &c.A}

	if m.IsGBC() {
		c.A, c.F = 0x11, 0x80
		c.B, c.C = 0x00, 0x00
		c.D, c.E = 0xFF, 0x56
		c.H, c.L = 0x00, 0x0D
	} else {
		c.A, c.F = 0x01, 0xB0
		c.B, c.C = 0x00, 0x13
		c.D, c.E = 0x00, 0xD8
		c.H, c.L = 0x01, 0x4D
	}
	c.SP = 0xFFFE
	c.PC = 0x0100

	return c
}

// IME reports whether interrupts are currently enabled for dispatch.
func (c *CPU) IME() bool {
	return c.ime
}

// tick advances every ticked subsystem by one m-cycle.
func (c *CPU) tick() {
	c.mmu.Tick(1)
	c.mcycles++
}

// fetch reads the byte at PC, consuming one m-cycle, and advances PC.
func (c *CPU) fetch() uint8 {
	c.tick()
	v := c.mmu.Read(c.PC)
	c.PC++
	return v
}

// readOperand is fetch by another name, used for instruction operand
// bytes rather than the opcode itself.
func (c *CPU) readOperand() uint8 {
	return c.fetch()
}

// skipOperand consumes an operand byte's m-cycle without using its
// value, for untaken conditional branches that still read past it.
func (c *CPU) skipOperand() {
	c.tick()
	c.PC++
}

func (c *CPU) readByte(addr uint16) uint8 {
	c.tick()
	return c.mmu.Read(addr)
}

func (c *CPU) writeByte(addr uint16, val uint8) {
	c.tick()
	c.mmu.Write(addr, val)
}

// Step executes one instruction (or one m-cycle of HALT/STOP), then
// dispatches an interrupt if one is pending and enabled. It returns
// the number of m-cycles elapsed.
func (c *CPU) Step() uint8 {
	c.mcycles = 0

	switch c.mode {
	case modeNormal:
		c.decode(c.fetch())
	case modeHalt, modeStop:
		c.tick()
		if c.pendingInterrupt() {
			c.mode = modeNormal
		}
	case modeEnableIME:
		c.ime = true
		c.mode = modeNormal
		c.decode(c.fetch())
	case modeHaltBug:
		instr := c.fetch()
		c.PC--
		c.mode = modeNormal
		c.decode(instr)
	}

	if c.ime && c.mode == modeNormal && c.pendingInterrupt() {
		c.dispatchInterrupt()
	}

	return c.mcycles
}

func (c *CPU) pendingInterrupt() bool {
	_, _, ok := c.mmu.IRQ.Highest()
	return ok
}

// Halted reports whether the CPU is in HALT or STOP, waiting for an
// interrupt to resume normal execution.
func (c *CPU) Halted() bool {
	return c.mode == modeHalt || c.mode == modeStop
}

// halt enters HALT (or the HALT bug when IME is disabled with an
// interrupt already pending) in response to the HALT opcode.
func (c *CPU) halt() {
	if !c.ime && c.pendingInterrupt() {
		c.mode = modeHaltBug
		return
	}
	c.mode = modeHalt
}

// dispatchInterrupt pushes PC, jumps to the highest-priority pending
// interrupt's vector, clears its IF bit and disables IME.
func (c *CPU) dispatchInterrupt() {
	flag, vector, ok := c.mmu.IRQ.Highest()
	if !ok {
		return
	}

	c.tick()
	c.tick()
	c.push(uint8(c.PC>>8), uint8(c.PC))
	c.tick()

	c.mmu.IRQ.Clear(flag)
	c.ime = false
	c.PC = vector
}

// Save writes the CPU's register file, PC/SP, IME and run mode.
func (c *CPU) Save(s *savestate.State) {
	s.Write8(c.A)
	s.Write8(c.F)
	s.Write8(c.B)
	s.Write8(c.C)
	s.Write8(c.D)
	s.Write8(c.E)
	s.Write8(c.H)
	s.Write8(c.L)
	s.Write16(c.SP)
	s.Write16(c.PC)
	s.WriteBool(c.ime)
	s.Write8(uint8(c.mode))
}

// Load restores state written by Save.
func (c *CPU) Load(s *savestate.State) {
	c.A = s.Read8()
	c.F = s.Read8()
	c.B = s.Read8()
	c.C = s.Read8()
	c.D = s.Read8()
	c.E = s.Read8()
	c.H = s.Read8()
	c.L = s.Read8()
	c.SP = s.Read16()
	c.PC = s.Read16()
	c.ime = s.ReadBool()
	c.mode = mode(s.Read8())
}
