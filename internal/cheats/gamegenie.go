package cheats

import (
	"fmt"
	"strings"
)

// GameGenieCode is a parsed nine-digit Game Genie code, formatted by
// the user as ABC-DEF-GHI. AB is the new data, FCDE is the target ROM
// address XORed with 0xF000, and GI is the old data XORed with 0xBA
// and rotated left two bits; H is unused by this engine.
type GameGenieCode struct {
	NewData uint8
	Address uint16
	OldData uint8

	Name    string
	Enabled bool
}

func parseGameGenie(code string) (GameGenieCode, error) {
	stripped := strings.ReplaceAll(code, "-", "")
	if len(stripped) != 9 {
		return GameGenieCode{}, fmt.Errorf("cheats: invalid game genie code %q: want 9 hex digits, got %d", code, len(stripped))
	}

	ab := stripped[0:2]
	fcde := stripped[5:6] + stripped[2:5]
	gi := stripped[6:7] + stripped[8:9]

	newData, err := parseHex(ab, 8)
	if err != nil {
		return GameGenieCode{}, fmt.Errorf("cheats: %w", err)
	}
	addr, err := parseHex(fcde, 16)
	if err != nil {
		return GameGenieCode{}, fmt.Errorf("cheats: %w", err)
	}
	oldData, err := parseHex(gi, 8)
	if err != nil {
		return GameGenieCode{}, fmt.Errorf("cheats: %w", err)
	}

	old := uint8(oldData) ^ 0xBA
	return GameGenieCode{
		NewData: uint8(newData),
		Address: uint16(addr) ^ 0xF000,
		OldData: old<<2 | old>>6,
	}, nil
}
