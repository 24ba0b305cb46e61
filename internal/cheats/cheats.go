// Package cheats implements Game Genie and GameShark cheat code
// parsing and application: Game Genie patches cartridge ROM reads in
// place, GameShark pokes a fixed value through the MMU after every
// emulator burst.
//
// Grounded on the teacher's internal/cheats/{cheats,gamegenie,gameshark}.go
// code parsing, with the file-format loader and fmt.Printf diagnostics
// dropped in favor of a single Engine that an emulator.Option loads
// codes into directly, and GameShark's external-RAM-bank patching
// (which the teacher left as a panic) dropped: codes targeting
// cartridge RAM (0xA000-0xBFFF) are skipped, and every other address
// is written through the MMU as an ordinary write.
package cheats

import (
	"fmt"
	"strconv"
	"strings"
)

// Engine holds the set of loaded Game Genie and GameShark codes for
// one running cartridge.
type Engine struct {
	genie []GameGenieCode
	shark []GameSharkCode
}

// NewEngine returns an Engine with no codes loaded.
func NewEngine() *Engine {
	return &Engine{}
}

// Load parses code and adds it under name, detecting the format from
// its length with dashes removed: 9 digits (ABC-DEF-GHI) is Game
// Genie, 8 is GameShark. It returns an error for any other length or
// malformed digits.
func (e *Engine) Load(code, name string) error {
	stripped := strings.ReplaceAll(code, "-", "")
	switch len(stripped) {
	case 9:
		c, err := parseGameGenie(code)
		if err != nil {
			return err
		}
		c.Name = name
		e.genie = append(e.genie, c)
		return nil
	case 8:
		c, err := parseGameShark(code)
		if err != nil {
			return err
		}
		c.Name = name
		e.shark = append(e.shark, c)
		return nil
	default:
		return fmt.Errorf("cheats: invalid code %q: want 9 or 8 hex digits, got %d", code, len(stripped))
	}
}

// Enable turns on every loaded code named name (Game Genie and
// GameShark codes share one namespace).
func (e *Engine) Enable(name string) {
	for i := range e.genie {
		if e.genie[i].Name == name {
			e.genie[i].Enabled = true
		}
	}
	for i := range e.shark {
		if e.shark[i].Name == name {
			e.shark[i].Enabled = true
		}
	}
}

// Disable turns off every loaded code named name.
func (e *Engine) Disable(name string) {
	for i := range e.genie {
		if e.genie[i].Name == name {
			e.genie[i].Enabled = false
		}
	}
	for i := range e.shark {
		if e.shark[i].Name == name {
			e.shark[i].Enabled = false
		}
	}
}

// PatchROM returns the byte an enabled Game Genie code substitutes at
// address, or value unchanged if no enabled code matches.
func (e *Engine) PatchROM(address uint16, value uint8) uint8 {
	for _, c := range e.genie {
		if c.Enabled && c.Address == address {
			return c.NewData
		}
	}
	return value
}

// RAMPokes reports every enabled GameShark code targeting RAM (the
// engine never patches cartridge-backed external RAM banks, since
// that would bypass the cartridge's own MBC banking), which
// mmu.ApplyCheats writes after every emulator burst.
func (e *Engine) RAMPokes() []GameSharkCode {
	var out []GameSharkCode
	for _, c := range e.shark {
		if c.Enabled && !(c.Address >= 0xA000 && c.Address <= 0xBFFF) {
			out = append(out, c)
		}
	}
	return out
}

func parseHex(s string, bits int) (uint64, error) {
	return strconv.ParseUint(s, 16, bits)
}
