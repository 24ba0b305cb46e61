package apu

import "github.com/pellucid-systems/goboy/internal/savestate"

var pulseDuty = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 0, 0, 1},
	{1, 0, 0, 0, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 0},
}

// pulseChannel is channel 1 or 2: a duty-cycle square wave with a
// volume envelope; channel 1 additionally has a frequency sweep.
type pulseChannel struct {
	channel
	volumeEnvelope

	hasSweep bool

	duty       uint8
	lengthLoad uint8
	frequency  uint16

	dutyPos       uint8
	freqTimer     int32

	// NR10 sweep (channel 1 only)
	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepTimer   uint8
	sweepShadow  uint16
	sweepEnabled bool
	sweepNegateUsed bool
}

func newPulseChannel(hasSweep bool) *pulseChannel {
	return &pulseChannel{hasSweep: hasSweep}
}

func (c *pulseChannel) period() int32 {
	return int32(2048-c.frequency) * 4
}

// tick advances the duty-cycle generator by one dot.
func (c *pulseChannel) tick() {
	c.freqTimer--
	if c.freqTimer <= 0 {
		c.freqTimer = c.period()
		c.dutyPos = (c.dutyPos + 1) & 0x07
	}
}

func (c *pulseChannel) amplitude() float32 {
	if !c.isOn() {
		return 0
	}
	if pulseDuty[c.duty][c.dutyPos] == 0 {
		return 0
	}
	return (float32(c.currentVolume) / 7.5) - 1
}

// writeNRx1 handles NR11/NR21 (duty + length load).
func (c *pulseChannel) writeNRx1(value uint8) {
	c.duty = value >> 6
	c.lengthLoad = value & 0x3F
	c.lengthCounter = 64 - uint(c.lengthLoad)
}

// writeNRx2 handles NR12/NR22.
func (c *pulseChannel) writeNRx2(value uint8) {
	c.volumeEnvelope.writeNRx2(value)
	c.dacEnabled = c.volumeEnvelope.dacEnabledFromByte(value)
	if !c.dacEnabled {
		c.enabled = false
	}
}

// writeNRx3 handles NR13/NR23 (frequency low byte).
func (c *pulseChannel) writeNRx3(value uint8) {
	c.frequency = c.frequency&0x0700 | uint16(value)
}

// writeNRx4 handles NR14/NR24 (frequency high bits, length enable,
// trigger). firstHalf is the frame sequencer's current length-clock
// parity, needed for the length counter's extra-clock quirk.
func (c *pulseChannel) writeNRx4(value uint8, firstHalf bool) {
	c.frequency = c.frequency&0x00FF | uint16(value&0x07)<<8

	wasEnabled := c.lengthCounterEnabled
	c.lengthCounterEnabled = value&0x40 != 0
	if firstHalf && !wasEnabled && c.lengthCounterEnabled && c.lengthCounter > 0 {
		c.lengthCounter--
		if c.lengthCounter == 0 {
			c.enabled = false
		}
	}

	if value&0x80 != 0 {
		c.trigger(firstHalf)
	}
}

func (c *pulseChannel) trigger(firstHalf bool) {
	c.enabled = c.dacEnabled
	if c.lengthCounter == 0 {
		c.lengthCounter = 64
		if c.lengthCounterEnabled && firstHalf {
			c.lengthCounter--
		}
	}
	c.freqTimer = c.period()
	c.volumeEnvelope.trigger()

	if c.hasSweep {
		c.sweepShadow = c.frequency
		if c.sweepPeriod > 0 {
			c.sweepTimer = c.sweepPeriod
		} else {
			c.sweepTimer = 8
		}
		c.sweepEnabled = c.sweepPeriod > 0 || c.sweepShift > 0
		c.sweepNegateUsed = false
		if c.sweepShift > 0 {
			c.sweepCalculate()
		}
	}
}

// writeNR10 handles channel 1's sweep register.
func (c *pulseChannel) writeNR10(value uint8) {
	c.sweepPeriod = (value >> 4) & 0x07
	negate := value&0x08 != 0
	if c.sweepNegateUsed && c.sweepNegate && !negate {
		c.enabled = false
	}
	c.sweepNegate = negate
	c.sweepShift = value & 0x07
}

func (c *pulseChannel) readNR10() uint8 {
	b := c.sweepPeriod<<4 | c.sweepShift
	if c.sweepNegate {
		b |= 0x08
	}
	return b | 0x80
}

// sweepClock runs the frequency sweep at 128 Hz.
func (c *pulseChannel) sweepClock() {
	if !c.hasSweep {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	if c.sweepPeriod > 0 {
		c.sweepTimer = c.sweepPeriod
	} else {
		c.sweepTimer = 8
	}
	if !c.sweepEnabled || c.sweepPeriod == 0 {
		return
	}
	next := c.sweepCalculate()
	if next <= 0x7FF && c.sweepShift > 0 {
		c.sweepShadow = next
		c.frequency = next
		c.sweepCalculate()
	}
}

func (c *pulseChannel) sweepCalculate() uint16 {
	delta := c.sweepShadow >> c.sweepShift
	var next uint16
	if c.sweepNegate {
		next = c.sweepShadow - delta
	} else {
		next = c.sweepShadow + delta
	}
	c.sweepNegateUsed = c.sweepNegate
	if next > 0x7FF {
		c.enabled = false
	}
	return next
}

// Save writes this channel's full state.
func (c *pulseChannel) Save(s *savestate.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write32(uint32(c.lengthCounter))
	s.WriteBool(c.lengthCounterEnabled)
	s.Write8(c.startingVolume)
	s.WriteBool(c.addMode)
	s.Write8(c.period)
	s.Write8(c.volumeEnvelope.timer)
	s.Write8(c.currentVolume)
	s.WriteBool(c.updating)
	s.Write8(c.duty)
	s.Write8(c.lengthLoad)
	s.Write16(c.frequency)
	s.Write8(c.dutyPos)
	s.Write32(uint32(c.freqTimer))
	s.Write8(c.sweepPeriod)
	s.WriteBool(c.sweepNegate)
	s.Write8(c.sweepShift)
	s.Write8(c.sweepTimer)
	s.Write16(c.sweepShadow)
	s.WriteBool(c.sweepEnabled)
	s.WriteBool(c.sweepNegateUsed)
}

// Load restores state written by Save.
func (c *pulseChannel) Load(s *savestate.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthCounter = uint(s.Read32())
	c.lengthCounterEnabled = s.ReadBool()
	c.startingVolume = s.Read8()
	c.addMode = s.ReadBool()
	c.period = s.Read8()
	c.volumeEnvelope.timer = s.Read8()
	c.currentVolume = s.Read8()
	c.updating = s.ReadBool()
	c.duty = s.Read8()
	c.lengthLoad = s.Read8()
	c.frequency = s.Read16()
	c.dutyPos = s.Read8()
	c.freqTimer = int32(s.Read32())
	c.sweepPeriod = s.Read8()
	c.sweepNegate = s.ReadBool()
	c.sweepShift = s.Read8()
	c.sweepTimer = s.Read8()
	c.sweepShadow = s.Read16()
	c.sweepEnabled = s.ReadBool()
	c.sweepNegateUsed = s.ReadBool()
}
