package apu

import "github.com/pellucid-systems/goboy/internal/savestate"

// waveChannel is channel 3: an arbitrary 32-sample 4-bit waveform
// held in wave RAM (FF30-FF3F), played back at a programmable rate
// with one of four fixed volume shifts.
type waveChannel struct {
	channel

	ram [16]uint8

	lengthLoad  uint8
	volumeShift uint8
	frequency   uint16

	position       uint8
	sampleBuffer   uint8
	freqTimer      int32
	ticksSinceRead uint8
}

func newWaveChannel() *waveChannel {
	return &waveChannel{}
}

func (c *waveChannel) period() int32 {
	return int32(2048-c.frequency) * 2
}

func (c *waveChannel) tick() {
	if c.ticksSinceRead < 0xFF {
		c.ticksSinceRead++
	}
	c.freqTimer--
	if c.freqTimer <= 0 {
		c.freqTimer = c.period()
		c.ticksSinceRead = 0
		c.position = (c.position + 1) % 32
		c.sampleBuffer = c.ram[c.position/2]
	}
}

func (c *waveChannel) amplitude() float32 {
	if !c.isOn() {
		return 0
	}
	sample := c.sampleBuffer
	if c.position%2 == 0 {
		sample >>= 4
	} else {
		sample &= 0x0F
	}
	sample >>= c.volumeShift
	return (float32(sample) / 7.5) - 1
}

// writeNR30 handles channel 3's DAC-enable register.
func (c *waveChannel) writeNR30(value uint8) {
	c.dacEnabled = value&0x80 != 0
	if !c.dacEnabled {
		c.enabled = false
	}
}

func (c *waveChannel) readNR30() uint8 {
	b := uint8(0)
	if c.dacEnabled {
		b |= 0x80
	}
	return b | 0x7F
}

// writeNR31 handles the length-load register.
func (c *waveChannel) writeNR31(value uint8) {
	c.lengthLoad = value
	c.lengthCounter = 256 - uint(c.lengthLoad)
}

// writeNR32 handles the fixed-shift output-level register.
func (c *waveChannel) writeNR32(value uint8) {
	switch (value >> 5) & 0x03 {
	case 0:
		c.volumeShift = 4 // mute
	case 1:
		c.volumeShift = 0 // 100%
	case 2:
		c.volumeShift = 1 // 50%
	case 3:
		c.volumeShift = 2 // 25%
	}
}

func (c *waveChannel) readNR32() uint8 {
	var code uint8
	switch c.volumeShift {
	case 4:
		code = 0
	case 0:
		code = 1
	case 1:
		code = 2
	case 2:
		code = 3
	}
	return code<<5 | 0x9F
}

// writeNR33 handles the frequency low byte.
func (c *waveChannel) writeNR33(value uint8) {
	c.frequency = c.frequency&0x0700 | uint16(value)
}

// writeNR34 handles frequency high bits, length enable and trigger.
func (c *waveChannel) writeNR34(value uint8, firstHalf bool) {
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
		c.enabled = c.dacEnabled
		if c.lengthCounter == 0 {
			c.lengthCounter = 256
			if c.lengthCounterEnabled && firstHalf {
				c.lengthCounter--
			}
		}
		c.position = 0
		// +6 dots to satisfy the "wave RAM read while playing" corruption quirk.
		c.freqTimer = c.period() + 6
	}
}

// readRAM reads FF30-FF3F; while the channel is actively playing, the
// real hardware only allows reading the just-accessed byte.
func (c *waveChannel) readRAM(addr uint16) uint8 {
	if c.isOn() {
		if c.ticksSinceRead < 2 {
			return c.ram[c.position/2]
		}
		return 0xFF
	}
	return c.ram[addr-0xFF30]
}

// writeRAM writes FF30-FF3F, subject to the same playing-channel gate
// as readRAM.
func (c *waveChannel) writeRAM(addr uint16, value uint8) {
	if c.isOn() {
		if c.ticksSinceRead < 2 {
			c.ram[c.position/2] = value
		}
		return
	}
	c.ram[addr-0xFF30] = value
}

// Save writes this channel's full state.
func (c *waveChannel) Save(s *savestate.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write32(uint32(c.lengthCounter))
	s.WriteBool(c.lengthCounterEnabled)
	s.WriteRaw(c.ram[:])
	s.Write8(c.lengthLoad)
	s.Write8(c.volumeShift)
	s.Write16(c.frequency)
	s.Write8(c.position)
	s.Write8(c.sampleBuffer)
	s.Write32(uint32(c.freqTimer))
	s.Write8(c.ticksSinceRead)
}

// Load restores state written by Save.
func (c *waveChannel) Load(s *savestate.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthCounter = uint(s.Read32())
	c.lengthCounterEnabled = s.ReadBool()
	s.ReadInto(c.ram[:])
	c.lengthLoad = s.Read8()
	c.volumeShift = s.Read8()
	c.frequency = s.Read16()
	c.position = s.Read8()
	c.sampleBuffer = s.Read8()
	c.freqTimer = int32(s.Read32())
	c.ticksSinceRead = s.Read8()
}
