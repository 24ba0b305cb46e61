package apu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/savestate"
)

func newPoweredAPU() *APU {
	a := New()
	a.Write(NR52, 0x80)
	a.Write(NR51, 0xFF) // all channels to both speakers
	a.Write(NR50, 0x77) // max volume, no VIN
	return a
}

func TestPulseChannelTriggerEnablesDAC(t *testing.T) {
	a := newPoweredAPU()
	a.Write(NR12, 0xF0) // starting volume 15, no envelope, DAC on
	a.Write(NR13, 0x00)
	a.Write(NR14, 0x87) // trigger, freq high bits
	require.True(t, a.pulse1.enabled)
	require.True(t, a.pulse1.dacEnabled)
}

func TestPulseChannelDACOffDisablesChannel(t *testing.T) {
	a := newPoweredAPU()
	a.Write(NR12, 0xF0)
	a.Write(NR14, 0x80)
	require.True(t, a.pulse1.enabled)

	a.Write(NR12, 0x00) // volume 0, no envelope => DAC off
	require.False(t, a.pulse1.enabled)
	require.False(t, a.pulse1.dacEnabled)
}

func TestPulseChannelDutyCycleAdvancesOnPeriod(t *testing.T) {
	c := newPulseChannel(false)
	c.writeNRx2(0xF0)
	c.writeNRx3(0x00)
	c.writeNRx4(0x87, false) // frequency = 0x700, trigger
	require.Equal(t, int32(2048-0x700)*4, c.period())

	start := c.dutyPos
	for i := int32(0); i < c.period(); i++ {
		c.tick()
	}
	require.NotEqual(t, start, c.dutyPos)
}

func TestPulseLengthCounterDisablesChannelAtZero(t *testing.T) {
	c := newPulseChannel(false)
	c.writeNRx2(0xF0)
	c.writeNRx1(0x3F)       // length load = 63, counter = 1
	c.writeNRx4(0x40, false) // length enable, no trigger
	c.enabled = true
	c.lengthCounter = 1

	c.lengthStep()
	require.Equal(t, uint(0), c.lengthCounter)
	require.False(t, c.enabled)
}

func TestPulseSweepOverflowDisablesChannel(t *testing.T) {
	c := newPulseChannel(true)
	c.writeNRx2(0xF0)
	c.writeNR10(0x12)       // period 1, shift 2, no negate
	c.writeNRx3(0x00)       // frequency low byte
	c.writeNRx4(0x84, false) // frequency = 0x400, trigger
	require.True(t, c.enabled)
	require.Equal(t, uint16(0x400), c.frequency)

	for i := 0; i < 16 && c.enabled; i++ {
		c.sweepClock()
	}
	require.False(t, c.enabled, "repeated sweep increases should eventually overflow past 0x7FF")
}

func TestWaveChannelPlaybackReadsRAM(t *testing.T) {
	c := newWaveChannel()
	for i := range c.ram {
		c.ram[i] = uint8(i)
	}
	c.writeNR30(0x80) // DAC on
	c.writeNR32(0x20) // 100% volume
	c.writeNR33(0x00)
	c.writeNR34(0x87, false) // trigger

	require.True(t, c.isOn())
	for i := int32(0); i < c.period()+6; i++ {
		c.tick()
	}
	require.Equal(t, c.ram[0], c.sampleBuffer)
}

func TestWaveChannelRAMGatedWhilePlaying(t *testing.T) {
	c := newWaveChannel()
	c.writeNR30(0x80)
	c.writeNR34(0x80, false)
	c.ticksSinceRead = 10

	c.writeRAM(0xFF30, 0xAB)
	require.NotEqual(t, uint8(0xAB), c.ram[0])
}

func TestWaveChannelVolumeShiftCodes(t *testing.T) {
	c := newWaveChannel()
	c.writeNR32(0x00)
	require.Equal(t, uint8(4), c.volumeShift)
	require.Equal(t, uint8(0x9F), c.readNR32())

	c.writeNR32(0x20)
	require.Equal(t, uint8(0), c.volumeShift)
	c.writeNR32(0x40)
	require.Equal(t, uint8(1), c.volumeShift)
	c.writeNR32(0x60)
	require.Equal(t, uint8(2), c.volumeShift)
}

func TestNoiseChannelLFSRNarrowModeMirrorsBit6AndBit14(t *testing.T) {
	c := newNoiseChannel()
	c.writeNR43(0x08) // width mode bit set, shift 0, divisor 0
	c.lfsr = 0x7FFF

	c.tick()
	bit6 := c.lfsr&(1<<6) != 0
	bit14 := c.lfsr&(1<<14) != 0
	require.Equal(t, bit14, bit6, "width mode mirrors the feedback bit into bit 6")
}

func TestNoiseChannelTrigger(t *testing.T) {
	c := newNoiseChannel()
	c.writeNR42(0xF0) // volume 15, DAC on
	c.writeNR44(0x80, false)
	require.True(t, c.enabled)
	require.Equal(t, uint16(0x7FFF), c.lfsr)
}

func TestFrameSequencerStep0ClocksLength(t *testing.T) {
	a := newPoweredAPU()
	a.Write(NR12, 0xF8) // volume 15, envelope period 0 (won't change, but dacEnabled)
	a.Write(NR11, 0x3E) // length load 62
	a.Write(NR14, 0x40) // length enable, no trigger
	a.pulse1.enabled = true
	a.pulse1.lengthCounter = 1

	a.frameSeqStep = 0
	a.stepFrameSequencer()
	require.Equal(t, uint(0), a.pulse1.lengthCounter)
	require.False(t, a.pulse1.enabled)
}

func TestMixerChannelEnableRouting(t *testing.T) {
	a := New()
	a.Write(NR52, 0x80)
	a.Write(NR51, 0x11) // channel 1 only, both sides
	a.Write(NR50, 0x77)
	require.True(t, a.leftEnable[0])
	require.True(t, a.rightEnable[0])
	require.False(t, a.leftEnable[1])
	require.False(t, a.rightEnable[1])
}

func TestPowerOffClearsChannelsAndRegisters(t *testing.T) {
	a := newPoweredAPU()
	a.Write(NR12, 0xF0)
	a.Write(NR14, 0x80)
	require.True(t, a.pulse1.enabled)

	a.Write(NR52, 0x00)
	require.False(t, a.enabled)
	require.False(t, a.pulse1.enabled)
	require.Equal(t, uint8(0), a.volumeLeft)
	require.False(t, a.leftEnable[0])

	// writes to channel registers are ignored while powered off
	a.Write(NR12, 0xF0)
	require.Equal(t, uint8(0), a.pulse1.startingVolume)
}

func TestPowerOnResetsFrameSequencerStep(t *testing.T) {
	a := newPoweredAPU()
	a.frameSeqStep = 5
	a.Write(NR52, 0x00)
	a.Write(NR52, 0x80)
	require.Equal(t, uint8(0), a.frameSeqStep)
}

func TestDrainReturnsAndClearsSamples(t *testing.T) {
	a := newPoweredAPU()
	a.Tick(defaultSamplePeriod * 4)
	require.NotEmpty(t, a.Drain())
	require.Empty(t, a.Drain())
}

func TestStartNewSamplingYieldsFloorNOverPeriodSamples(t *testing.T) {
	a := newPoweredAPU()
	a.Write(NR11, 0x80)
	a.Write(NR12, 0xF0)
	a.Write(NR13, 0x00)
	a.Write(NR14, 0x84) // trigger CH1, duty 2, raw period 1024

	a.StartNewSampling(87)
	a.Tick(10000)
	samples := a.Drain()
	require.Len(t, samples, 2*(10000/87))
}

func TestStartNewSamplingZeroPeriodStopsSampling(t *testing.T) {
	a := newPoweredAPU()
	a.StartNewSampling(0)
	a.Tick(100000)
	require.Empty(t, a.Drain())
}

func TestStartNewSamplingDrainsPreviousPeriodSamplesBeforeSwitching(t *testing.T) {
	a := newPoweredAPU()
	a.Tick(defaultSamplePeriod * 3)
	drained := a.StartNewSampling(defaultSamplePeriod * 10)
	require.NotEmpty(t, drained)
	require.Empty(t, a.Drain())
}

func TestWaveRAMAccessibleThroughAPUWhileSilent(t *testing.T) {
	a := New()
	a.Write(NR52, 0x80)
	a.Write(WaveRAMStart, 0x42)
	require.Equal(t, uint8(0x42), a.Read(WaveRAMStart))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	a := newPoweredAPU()
	a.Write(NR12, 0xA5)
	a.Write(NR13, 0x33)
	a.Write(NR14, 0x87)
	a.Write(NR42, 0xC2)
	a.Write(NR44, 0x80)
	a.Write(WaveRAMStart, 0x12)
	a.Tick(defaultSamplePeriod * 2)

	st := savestate.New()
	a.Save(st)

	r := New()
	r.Load(savestate.FromBytes(st.Bytes()))

	require.Equal(t, a.enabled, r.enabled)
	require.Equal(t, a.pulse1.frequency, r.pulse1.frequency)
	require.Equal(t, a.pulse1.startingVolume, r.pulse1.startingVolume)
	require.Equal(t, a.noise.currentVolume, r.noise.currentVolume)
	require.Equal(t, a.wave.ram, r.wave.ram)
	require.Equal(t, a.frameSeqStep, r.frameSeqStep)
	require.Equal(t, a.volumeLeft, r.volumeLeft)
	require.Equal(t, a.leftEnable, r.leftEnable)
}
