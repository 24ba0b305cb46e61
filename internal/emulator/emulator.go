// Package emulator runs the Game Boy core's outer loop: burst CPU
// stepping, message exchange with a host over plain channels, and
// wall-clock pacing, per spec.md §4.10-§6.
//
// Grounded on internal/gameboy/gameboy.go's Run loop (burst stepping,
// frame smoothing, FPS accounting) and pkg/emulator's CommandPacket/
// Controller/State split, generalized from the teacher's fyne-bound,
// directly-called API into the channel-based Request/Reply protocol
// spec.md §5-§6 specifies, so a host runs on its own goroutine and
// never touches core state directly.
package emulator

import (
	"time"

	"github.com/pellucid-systems/goboy/internal/cartridge"
	"github.com/pellucid-systems/goboy/internal/cheats"
	"github.com/pellucid-systems/goboy/internal/cpu"
	"github.com/pellucid-systems/goboy/internal/mmu"
	"github.com/pellucid-systems/goboy/internal/ppu/palette"
	"github.com/pellucid-systems/goboy/internal/savestate"
	"github.com/pellucid-systems/goboy/internal/serial"
	"github.com/pellucid-systems/goboy/pkg/log"
)

// Emulator owns one running Game Boy core and exchanges messages with
// a host over four channels: requests in, replies out, audio control
// in, audio data out.
type Emulator struct {
	cpu *cpu.CPU
	mmu *mmu.MMU

	log log.Logger

	Requests     chan Request
	Replies      chan Reply
	AudioControl chan AudioControl
	AudioData    chan AudioData

	burstSteps     int
	samplePeriod   uint32
	dotsSinceAudio uint32

	running bool
}

// New constructs an Emulator around rom, applying opts. The cartridge
// header (or a Force* option) decides DMG/CGB mode.
func New(rom []byte, opts ...Option) (*Emulator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cart, err := cartridge.New(rom)
	if err != nil {
		return nil, err
	}

	isCGB := cart.GameboyColor()
	if o.forceCGB {
		isCGB = true
	}
	if o.forceDMG {
		isCGB = false
	}

	m := mmu.NewWithModel(cart, o.logger, isCGB)
	c := cpu.New(m)
	palette.Current = o.palette

	if len(o.cheats) > 0 {
		engine := cheats.NewEngine()
		for _, cc := range o.cheats {
			if err := engine.Load(cc.Code, cc.Name); err != nil {
				return nil, err
			}
			if cc.Enabled {
				engine.Enable(cc.Name)
			}
		}
		m.Cheats = engine
	}

	return &Emulator{
		cpu:          c,
		mmu:          m,
		log:          o.logger,
		Requests:     make(chan Request),
		Replies:      make(chan Reply),
		AudioControl: make(chan AudioControl),
		AudioData:    make(chan AudioData, 64),
		burstSteps:   o.burstSteps,
		samplePeriod: o.samplePeriod,
	}, nil
}

// Resume constructs an Emulator by decoding a savestate blob produced
// by a prior ShuttingDown{SaveState: true} reply, re-attaching rom's
// bytes to rebuild the cartridge (the savestate itself only carries
// RAM, registers and banking state, not the ROM image).
func Resume(rom, blob []byte, opts ...Option) (*Emulator, error) {
	e, err := New(rom, opts...)
	if err != nil {
		return nil, err
	}

	st, err := savestate.Decode(blob)
	if err != nil {
		return nil, err
	}
	e.Load(st)
	return e, nil
}

// Save writes the full CPU+MMU state (cartridge RAM/RTC, every
// component) but not transient presentation buffers, per spec.md §6.
func (e *Emulator) Save(s *savestate.State) {
	e.cpu.Save(s)
	e.mmu.Save(s)
}

// Load restores state written by Save.
func (e *Emulator) Load(s *savestate.State) {
	e.cpu.Load(s)
	e.mmu.Load(s)
}

// AttachSerialDevice connects a link-cable peer (for example a Game
// Boy Printer) to the serial port. Call it before the first go
// e.Run(): the serial controller is otherwise only ever touched from
// Run's goroutine, and Attach itself is not synchronized against it.
func (e *Emulator) AttachSerialDevice(d serial.Device) {
	e.mmu.Serial.Attach(d)
}

// Run executes the outer loop until a Shutdown request is handled,
// then sends a ShuttingDown reply and returns. It is meant to run on
// its own goroutine; the host communicates only through e's channels.
func (e *Emulator) Run() {
	const freq = float64(cpu.ClockSpeed)
	simStart := time.Now()
	var totalMCycles uint64

	for {
		if e.running {
			mcycles := e.runBurst()
			totalMCycles += uint64(mcycles)
			e.pumpAudio(mcycles)
		}

		if done := e.handleOneRequest(); done {
			return
		}

		if e.running {
			simSeconds := float64(totalMCycles*4) / freq
			elapsed := time.Since(simStart)
			if wait := time.Duration(simSeconds*float64(time.Second)) - elapsed; wait > 0 {
				time.Sleep(wait)
			}
		}
	}
}

// runBurst steps the CPU burstSteps times and returns the m-cycles
// elapsed. A Step() call during HALT/STOP still consumes exactly one
// m-cycle and checks for wakeup internally, so no special-casing is
// needed here: a halted CPU just burns through the burst one m-cycle
// at a time until it wakes.
func (e *Emulator) runBurst() uint32 {
	var mcycles uint32
	for i := 0; i < e.burstSteps; i++ {
		mcycles += uint32(e.cpu.Step())
	}
	e.mmu.ApplyCheats()
	return mcycles
}

// pumpAudio accumulates dots since the last AudioData emission and,
// once the host's requested period has elapsed, drains the APU and
// sends a non-blocking AudioData reply (dropped if the host isn't
// receiving, per spec.md §5's "host must drain promptly" policy).
func (e *Emulator) pumpAudio(mcycles uint32) {
	if e.samplePeriod == 0 {
		return
	}
	e.dotsSinceAudio += mcycles * 4
	if e.dotsSinceAudio < e.samplePeriod {
		return
	}
	e.dotsSinceAudio = 0

	samples := e.mmu.APU.Drain()
	e.sendAudioData(samples)
}

func (e *Emulator) sendAudioData(samples []float32) {
	if len(samples) == 0 {
		return
	}
	select {
	case e.AudioData <- AudioData{Samples: samples}:
	default:
		e.log.Debugf("emulator: dropped %d audio samples, host not draining", len(samples))
	}
}

// applyAudioControl drives the APU's start_new_sampling(period_dots)
// operation directly: it sets the APU's sampling counter to the
// host's requested period (0 stops sampling) and forwards whatever
// samples had accumulated under the previous period, so a host that
// only polls via AudioControl (rather than relying on pumpAudio's
// periodic batching) still receives every sample it is owed.
func (e *Emulator) applyAudioControl(periodDots uint32) {
	e.samplePeriod = periodDots
	e.dotsSinceAudio = 0
	e.sendAudioData(e.mmu.APU.StartNewSampling(periodDots))
}

// handleOneRequest services at most one pending request (or audio
// control update) without blocking while running, and blocks while
// not yet started (no burst can make progress until a Start request
// arrives). It returns true once a Shutdown request has been fully
// handled.
//
// spec.md §5 additionally allows blocking while the CPU is Stopped,
// woken only by joypad input; that optimization is deliberately not
// implemented here, since an ordinary HALT (the overwhelming majority
// of halted time, waiting out the rest of a frame for VBlank) also
// reports Halted() and self-wakes with no host input at all — blocking
// on it here would stall the whole core.
func (e *Emulator) handleOneRequest() bool {
	if !e.running {
		select {
		case req := <-e.Requests:
			return e.dispatch(req)
		case ctrl := <-e.AudioControl:
			e.applyAudioControl(ctrl.PeriodDots)
			return false
		}
	}

	select {
	case req := <-e.Requests:
		return e.dispatch(req)
	case ctrl := <-e.AudioControl:
		e.applyAudioControl(ctrl.PeriodDots)
	default:
	}
	return false
}

func (e *Emulator) dispatch(req Request) bool {
	switch r := req.(type) {
	case Start:
		e.running = true
	case UpdateButtonState:
		e.mmu.Joypad.ProcessInputs(r.Buttons)
	case CyclePalette:
		palette.CyclePalette()
	case GetVideoFrame:
		e.Replies <- VideoFrame{Frame: e.mmu.PPU.Frame()}
	case GetTitle:
		e.Replies <- Title{Title: e.mmu.Cart.Title}
	case GetFrequency:
		hz := float64(cpu.ClockSpeed)
		if e.mmu.DoubleSpeed() {
			hz *= 2
		}
		e.Replies <- Frequency{Hz: hz}
	case Shutdown:
		var blob []byte
		if r.SaveState {
			s := savestate.New()
			e.Save(s)
			blob = savestate.Encode(s)
		}
		e.Replies <- ShuttingDown{SaveState: blob}
		return true
	case SaveState:
		s := savestate.New()
		e.Save(s)
		e.Replies <- SavedState{Blob: savestate.Encode(s)}
	}
	return false
}
