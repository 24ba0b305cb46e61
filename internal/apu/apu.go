package apu

import (
	"github.com/pellucid-systems/goboy/internal/counter"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

// Register addresses on the IO bus.
const (
	NR10 uint16 = 0xFF10
	NR11 uint16 = 0xFF11
	NR12 uint16 = 0xFF12
	NR13 uint16 = 0xFF13
	NR14 uint16 = 0xFF14

	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR23 uint16 = 0xFF18
	NR24 uint16 = 0xFF19

	NR30 uint16 = 0xFF1A
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C
	NR33 uint16 = 0xFF1D
	NR34 uint16 = 0xFF1E

	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22
	NR44 uint16 = 0xFF23

	NR50 uint16 = 0xFF24
	NR51 uint16 = 0xFF25
	NR52 uint16 = 0xFF26

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

const (
	frameSequencerPeriod = 4194304 / 512 // 8192 dots between frame sequencer steps

	// outputSampleRate is the default rate at which Drain's samples
	// are produced until the host calls StartNewSampling with its own
	// period; chosen to match a typical host audio device rate rather
	// than the APU's own internal 1 MHz-ish channel timers.
	outputSampleRate    = 48000
	defaultSamplePeriod = 4194304 / outputSampleRate
)

// APU owns the four sound channels, the NR50-52 mixer/power
// registers, the 512 Hz frame sequencer, and a simple high-pass
// filter applied to the final downsampled output.
type APU struct {
	enabled bool

	pulse1 *pulseChannel
	pulse2 *pulseChannel
	wave   *waveChannel
	noise  *noiseChannel

	frameSeqCounter *counter.Counter
	frameSeqStep    uint8
	firstHalf       bool

	// sampleCounter paces Drain's output samples. Its period is in
	// master-clock dots and is host-settable through StartNewSampling,
	// implementing spec's start_new_sampling(period_dots) operation
	// (0 stops sampling, per Counter's own zero-period convention).
	sampleCounter *counter.Counter

	vinLeft, vinRight       bool
	volumeLeft, volumeRight uint8
	leftEnable, rightEnable [4]bool

	hpCapacitorL, hpCapacitorR float32

	// samples accumulates interleaved [left, right] float32 pairs
	// until Drain is called by the emulator's audio pump.
	samples []float32
}

// New returns a powered-on APU with all channels silent.
func New() *APU {
	return &APU{
		enabled:         true,
		pulse1:          newPulseChannel(true),
		pulse2:          newPulseChannel(false),
		wave:            newWaveChannel(),
		noise:           newNoiseChannel(),
		frameSeqCounter: counter.New(frameSequencerPeriod),
		sampleCounter:   counter.New(defaultSamplePeriod),
	}
}

// Tick advances the APU by dots master-clock ticks, running both
// channel generators and the frame sequencer, and accumulating
// output samples.
func (a *APU) Tick(dots uint32) {
	for i := uint32(0); i < dots; i++ {
		if a.enabled {
			a.tickOne()
		}
	}
}

func (a *APU) tickOne() {
	if a.frameSeqCounter.Tick(1) > 0 {
		a.firstHalf = a.frameSeqStep&0x01 == 0
		a.stepFrameSequencer()
		a.frameSeqStep = (a.frameSeqStep + 1) & 0x07
	}

	a.pulse1.tick()
	a.pulse2.tick()
	a.wave.tick()
	a.noise.tick()

	if a.sampleCounter.Tick(1) > 0 {
		a.produceSample()
	}
}

// StartNewSampling drains the samples accumulated under the previous
// period and sets a new sampling period in master-clock dots; a
// period of 0 stops sampling until a later non-zero call resumes it.
func (a *APU) StartNewSampling(periodDots uint32) []float32 {
	samples := a.Drain()
	a.sampleCounter.SetPeriod(periodDots)
	return samples
}

func (a *APU) stepFrameSequencer() {
	switch a.frameSeqStep {
	case 0, 4:
		a.lengthStep()
	case 2, 6:
		a.lengthStep()
		a.pulse1.sweepClock()
	case 7:
		a.pulse1.volumeStep()
		a.pulse2.volumeStep()
		a.noise.volumeStep()
	}
}

func (a *APU) lengthStep() {
	a.pulse1.lengthStep()
	a.pulse2.lengthStep()
	a.wave.lengthStep()
	a.noise.lengthStep()
}

func (a *APU) produceSample() {
	amps := [4]float32{
		a.pulse1.amplitude(),
		a.pulse2.amplitude(),
		a.wave.amplitude(),
		a.noise.amplitude(),
	}

	var left, right float32
	for i, amp := range amps {
		if a.leftEnable[i] {
			left += amp
		}
		if a.rightEnable[i] {
			right += amp
		}
	}

	left = (float32(a.volumeLeft) / 7) * left / 4
	right = (float32(a.volumeRight) / 7) * right / 4

	// First-order high-pass, matching the real hardware's capacitor
	// that drains a DC-biased output toward silence between samples.
	const charge = 0.996
	outL := left - a.hpCapacitorL
	a.hpCapacitorL = left - outL*charge
	outR := right - a.hpCapacitorR
	a.hpCapacitorR = right - outR*charge

	a.samples = append(a.samples, outL, outR)
}

// Drain returns the accumulated interleaved stereo samples since the
// last call, clearing the internal buffer.
func (a *APU) Drain() []float32 {
	out := a.samples
	a.samples = nil
	return out
}

// Read dispatches a register read.
func (a *APU) Read(addr uint16) uint8 {
	switch {
	case addr == NR10:
		return a.pulse1.readNR10()
	case addr == NR12:
		return a.pulse1.volumeEnvelope.readNRx2()
	case addr == NR13, addr == NR23, addr == NR33:
		return 0xFF
	case addr == NR14:
		return readLenEnable(a.pulse1.lengthCounterEnabled)
	case addr == NR22:
		return a.pulse2.volumeEnvelope.readNRx2()
	case addr == NR24:
		return readLenEnable(a.pulse2.lengthCounterEnabled)
	case addr == NR30:
		return a.wave.readNR30()
	case addr == NR31:
		return 0xFF
	case addr == NR32:
		return a.wave.readNR32()
	case addr == NR34:
		return readLenEnable(a.wave.lengthCounterEnabled)
	case addr == NR41:
		return 0xFF
	case addr == NR42:
		return a.noise.volumeEnvelope.readNRx2()
	case addr == NR43:
		return a.noise.readNR43()
	case addr == NR44:
		return readLenEnable(a.noise.lengthCounterEnabled)
	case addr == NR11, addr == NR21:
		return a.readNRx1(addr)
	case addr == NR50:
		return a.readNR50()
	case addr == NR51:
		return a.readNR51()
	case addr == NR52:
		return a.readNR52()
	case addr >= WaveRAMStart && addr <= WaveRAMEnd:
		return a.wave.readRAM(addr)
	}
	return 0xFF
}

func (a *APU) readNRx1(addr uint16) uint8 {
	if addr == NR11 {
		return a.pulse1.duty<<6 | 0x3F
	}
	return a.pulse2.duty<<6 | 0x3F
}

func (a *APU) readNR50() uint8 {
	b := a.volumeRight | a.volumeLeft<<4
	if a.vinRight {
		b |= 0x08
	}
	if a.vinLeft {
		b |= 0x80
	}
	return b
}

func (a *APU) readNR51() uint8 {
	b := uint8(0)
	for i := 0; i < 4; i++ {
		if a.rightEnable[i] {
			b |= 1 << i
		}
		if a.leftEnable[i] {
			b |= 1 << (i + 4)
		}
	}
	return b
}

func (a *APU) readNR52() uint8 {
	b := uint8(0)
	if a.enabled {
		b |= 0x80
	}
	if a.pulse1.enabled {
		b |= 0x01
	}
	if a.pulse2.enabled {
		b |= 0x02
	}
	if a.wave.enabled {
		b |= 0x04
	}
	if a.noise.enabled {
		b |= 0x08
	}
	return b | 0x70
}

// Write dispatches a register write.
func (a *APU) Write(addr uint16, value uint8) {
	if addr >= WaveRAMStart && addr <= WaveRAMEnd {
		a.wave.writeRAM(addr, value)
		return
	}
	if addr == NR52 {
		a.writeNR52(value)
		return
	}
	if !a.enabled {
		return
	}

	switch addr {
	case NR10:
		a.pulse1.writeNR10(value)
	case NR11:
		a.pulse1.writeNRx1(value)
	case NR12:
		a.pulse1.writeNRx2(value)
	case NR13:
		a.pulse1.writeNRx3(value)
	case NR14:
		a.pulse1.writeNRx4(value, a.firstHalf)
	case NR21:
		a.pulse2.writeNRx1(value)
	case NR22:
		a.pulse2.writeNRx2(value)
	case NR23:
		a.pulse2.writeNRx3(value)
	case NR24:
		a.pulse2.writeNRx4(value, a.firstHalf)
	case NR30:
		a.wave.writeNR30(value)
	case NR31:
		a.wave.writeNR31(value)
	case NR32:
		a.wave.writeNR32(value)
	case NR33:
		a.wave.writeNR33(value)
	case NR34:
		a.wave.writeNR34(value, a.firstHalf)
	case NR41:
		a.noise.writeNR41(value)
	case NR42:
		a.noise.writeNR42(value)
	case NR43:
		a.noise.writeNR43(value)
	case NR44:
		a.noise.writeNR44(value, a.firstHalf)
	case NR50:
		a.volumeRight = value & 0x07
		a.volumeLeft = (value >> 4) & 0x07
		a.vinRight = value&0x08 != 0
		a.vinLeft = value&0x80 != 0
	case NR51:
		for i := 0; i < 4; i++ {
			a.rightEnable[i] = value&(1<<i) != 0
			a.leftEnable[i] = value&(1<<(i+4)) != 0
		}
	}
}

func (a *APU) writeNR52(value uint8) {
	wasEnabled := a.enabled
	a.enabled = value&0x80 != 0
	if wasEnabled && !a.enabled {
		*a.pulse1 = pulseChannel{hasSweep: true}
		*a.pulse2 = pulseChannel{hasSweep: false}
		a.wave.channel = channel{}
		a.wave.lengthLoad, a.wave.volumeShift, a.wave.frequency = 0, 0, 0
		*a.noise = noiseChannel{lfsr: 0x7FFF}
		a.volumeLeft, a.volumeRight = 0, 0
		a.vinLeft, a.vinRight = false, false
		a.leftEnable, a.rightEnable = [4]bool{}, [4]bool{}
	} else if !wasEnabled && a.enabled {
		a.frameSeqStep = 0
	}
}

// Save writes the full APU state: all four channels, the mixer
// registers and the frame sequencer's phase.
func (a *APU) Save(s *savestate.State) {
	s.WriteBool(a.enabled)
	a.pulse1.Save(s)
	a.pulse2.Save(s)
	a.wave.Save(s)
	a.noise.Save(s)
	a.frameSeqCounter.Save(s)
	a.sampleCounter.Save(s)
	s.Write8(a.frameSeqStep)
	s.WriteBool(a.firstHalf)
	s.Write8(a.volumeLeft)
	s.Write8(a.volumeRight)
	s.WriteBool(a.vinLeft)
	s.WriteBool(a.vinRight)
	for i := 0; i < 4; i++ {
		s.WriteBool(a.leftEnable[i])
		s.WriteBool(a.rightEnable[i])
	}
}

// Load restores state written by Save.
func (a *APU) Load(s *savestate.State) {
	a.enabled = s.ReadBool()
	a.pulse1.Load(s)
	a.pulse2.Load(s)
	a.wave.Load(s)
	a.noise.Load(s)
	a.frameSeqCounter.Load(s)
	a.sampleCounter.Load(s)
	a.frameSeqStep = s.Read8()
	a.firstHalf = s.ReadBool()
	a.volumeLeft = s.Read8()
	a.volumeRight = s.Read8()
	a.vinLeft = s.ReadBool()
	a.vinRight = s.ReadBool()
	for i := 0; i < 4; i++ {
		a.leftEnable[i] = s.ReadBool()
		a.rightEnable[i] = s.ReadBool()
	}
}
