package apu

import "github.com/pellucid-systems/goboy/internal/savestate"

// noiseChannel is channel 4: a 15-bit LFSR pseudo-random generator
// with the same volume envelope shape as the pulse channels.
type noiseChannel struct {
	channel
	volumeEnvelope

	lengthLoad uint8

	clockShift  uint8
	widthMode   bool
	divisorCode uint8

	lfsr      uint16
	freqTimer int32
}

var noiseDivisors = [8]int32{8, 16, 32, 48, 64, 80, 96, 112}

func newNoiseChannel() *noiseChannel {
	return &noiseChannel{lfsr: 0x7FFF}
}

func (c *noiseChannel) period() int32 {
	return noiseDivisors[c.divisorCode] << c.clockShift
}

func (c *noiseChannel) tick() {
	c.freqTimer--
	if c.freqTimer <= 0 {
		c.freqTimer = c.period()
		bit := (c.lfsr & 0x01) ^ ((c.lfsr >> 1) & 0x01)
		c.lfsr >>= 1
		c.lfsr |= bit << 14
		if c.widthMode {
			c.lfsr &^= 1 << 6
			c.lfsr |= bit << 6
		}
	}
}

func (c *noiseChannel) amplitude() float32 {
	if !c.isOn() {
		return 0
	}
	if c.lfsr&0x01 != 0 {
		return 0
	}
	return (float32(c.currentVolume) / 7.5) - 1
}

// writeNR41 handles the length-load register.
func (c *noiseChannel) writeNR41(value uint8) {
	c.lengthLoad = value & 0x3F
	c.lengthCounter = 64 - uint(c.lengthLoad)
}

// writeNR42 handles the envelope register.
func (c *noiseChannel) writeNR42(value uint8) {
	c.volumeEnvelope.writeNRx2(value)
	c.dacEnabled = c.volumeEnvelope.dacEnabledFromByte(value)
	if !c.dacEnabled {
		c.enabled = false
	}
}

// writeNR43 handles the LFSR clock/width/divisor register.
func (c *noiseChannel) writeNR43(value uint8) {
	c.clockShift = value >> 4
	c.widthMode = value&0x08 != 0
	c.divisorCode = value & 0x07
}

func (c *noiseChannel) readNR43() uint8 {
	b := c.clockShift << 4
	if c.widthMode {
		b |= 0x08
	}
	return b | c.divisorCode
}

// writeNR44 handles length-enable and trigger.
func (c *noiseChannel) writeNR44(value uint8, firstHalf bool) {
	wasEnabled := c.lengthCounterEnabled
	c.lengthCounterEnabled = value&0x40 != 0
	if firstHalf && !wasEnabled && c.lengthCounterEnabled && c.lengthCounter > 0 {
		c.lengthCounter--
		if c.lengthCounter == 0 {
			c.enabled = false
		}
	}

	if value&0x80 != 0 {
		c.enabled = c.dacEnabled
		if c.lengthCounter == 0 {
			c.lengthCounter = 64
			if c.lengthCounterEnabled && firstHalf {
				c.lengthCounter--
			}
		}
		c.volumeEnvelope.trigger()
		c.lfsr = 0x7FFF
	}
}

// Save writes this channel's full state.
func (c *noiseChannel) Save(s *savestate.State) {
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
	s.Write8(c.lengthLoad)
	s.Write8(c.clockShift)
	s.WriteBool(c.widthMode)
	s.Write8(c.divisorCode)
	s.Write16(c.lfsr)
	s.Write32(uint32(c.freqTimer))
}

// Load restores state written by Save.
func (c *noiseChannel) Load(s *savestate.State) {
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
	c.lengthLoad = s.Read8()
	c.clockShift = s.Read8()
	c.widthMode = s.ReadBool()
	c.divisorCode = s.Read8()
	c.lfsr = s.Read16()
	c.freqTimer = int32(s.Read32())
}
