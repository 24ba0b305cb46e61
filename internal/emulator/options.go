package emulator

import (
	"github.com/pellucid-systems/goboy/internal/ppu/palette"
	"github.com/pellucid-systems/goboy/pkg/log"
)

// CheatCode names one Game Genie or GameShark code to load at
// construction time, under Name, enabled or not from the start.
type CheatCode struct {
	Code    string
	Name    string
	Enabled bool
}

// Options configures a new Emulator. Use the With* functions below to
// build one, following the teacher's functional-options pattern
// (internal/gameboy/options.go).
type Options struct {
	logger       log.Logger
	palette      int
	forceCGB     bool
	forceDMG     bool
	samplePeriod uint32
	burstSteps   int
	skipBootROM  bool
	cheats       []CheatCode
}

// Option configures an Emulator at construction time.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		logger:       log.New(),
		palette:      palette.Greyscale,
		samplePeriod: 0,
		burstSteps:   128,
		skipBootROM:  true,
	}
}

// WithLogger overrides the default stderr logger.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithPalette selects the initial DMG palette (palette.Greyscale,
// palette.Green, palette.Red or palette.Yellow).
func WithPalette(p int) Option {
	return func(o *Options) { o.palette = p }
}

// ForceCGB runs the cartridge in CGB mode even if its header only
// claims DMG support, for titles with undocumented CGB-enhancement
// detection.
func ForceCGB() Option {
	return func(o *Options) { o.forceCGB = true }
}

// ForceDMG runs a CGB-capable cartridge in plain DMG mode.
func ForceDMG() Option {
	return func(o *Options) { o.forceDMG = true }
}

// WithSamplePeriod sets the initial AudioData batching period, in
// master-clock dots. Unlike an AudioControl message, it leaves the
// APU's own sampling period at its default.
func WithSamplePeriod(dots uint32) Option {
	return func(o *Options) { o.samplePeriod = dots }
}

// WithBurstSteps overrides the outer loop's CPU-steps-per-burst count
// (spec.md §4.10 suggests ~128; smaller bursts trade throughput for
// request/shutdown latency).
func WithBurstSteps(n int) Option {
	return func(o *Options) { o.burstSteps = n }
}

// SkipBootROM is the default: no boot ROM is modeled (see
// internal/mmu), so the CPU and IO registers always start at their
// standard post-boot-ROM values. This option exists so callers can
// name the behavior explicitly in config, per SPEC_FULL.md §4.11.
func SkipBootROM() Option {
	return func(o *Options) { o.skipBootROM = true }
}

// WithCheatCodes loads Game Genie and GameShark codes into the
// emulator's cheat engine, each enabled or disabled per its Enabled
// field.
func WithCheatCodes(codes ...CheatCode) Option {
	return func(o *Options) { o.cheats = append(o.cheats, codes...) }
}
