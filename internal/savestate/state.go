// Package savestate implements the length-prefixed binary encoding
// used to snapshot the emulator. A State is written to by every
// owned component during Save and read back in the same order during
// Load; Stater is the interface each component implements.
package savestate

import "fmt"

// ErrCorrupted is returned by Decode when a blob is truncated, fails
// to decompress, or decompresses to a length other than its length
// prefix.
var ErrCorrupted = fmt.Errorf("savestate: corrupted data")

// Stater is implemented by every component that participates in a
// snapshot.
type Stater interface {
	Save(*State)
	Load(*State)
}

// State is a two-cursor byte buffer: Write* methods append, Read*
// methods consume in the same order a matching sequence of writes
// produced them.
type State struct {
	raw      []byte
	readPos  int
}

// New returns an empty State ready for writing.
func New() *State {
	return &State{}
}

// FromBytes returns a State that reads back a previously-encoded
// buffer.
func FromBytes(raw []byte) *State {
	return &State{raw: raw}
}

// Bytes returns the accumulated buffer.
func (s *State) Bytes() []byte {
	return s.raw
}

func (s *State) Write8(v uint8) {
	s.raw = append(s.raw, v)
}

func (s *State) Write16(v uint16) {
	s.raw = append(s.raw, byte(v), byte(v>>8))
}

func (s *State) Write32(v uint32) {
	s.raw = append(s.raw, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (s *State) Write64(v uint64) {
	s.Write32(uint32(v))
	s.Write32(uint32(v >> 32))
}

func (s *State) WriteBool(v bool) {
	if v {
		s.raw = append(s.raw, 1)
	} else {
		s.raw = append(s.raw, 0)
	}
}

// WriteBytes writes a length-prefixed (uint32) byte slice, so
// variable-length buffers (ROM banks, RAM, VRAM) round-trip without
// the caller needing to know the size in advance.
func (s *State) WriteBytes(data []byte) {
	s.Write32(uint32(len(data)))
	s.raw = append(s.raw, data...)
}

func (s *State) Read8() uint8 {
	v := s.raw[s.readPos]
	s.readPos++
	return v
}

func (s *State) Read16() uint16 {
	v := uint16(s.raw[s.readPos]) | uint16(s.raw[s.readPos+1])<<8
	s.readPos += 2
	return v
}

func (s *State) Read32() uint32 {
	v := uint32(s.raw[s.readPos]) | uint32(s.raw[s.readPos+1])<<8 |
		uint32(s.raw[s.readPos+2])<<16 | uint32(s.raw[s.readPos+3])<<24
	s.readPos += 4
	return v
}

func (s *State) Read64() uint64 {
	lo := uint64(s.Read32())
	hi := uint64(s.Read32())
	return lo | hi<<32
}

func (s *State) ReadBool() bool {
	return s.Read8() != 0
}

// ReadBytes reads back a slice written with WriteBytes.
func (s *State) ReadBytes() []byte {
	n := int(s.Read32())
	v := make([]byte, n)
	copy(v, s.raw[s.readPos:s.readPos+n])
	s.readPos += n
	return v
}

// ReadInto reads exactly len(dst) raw bytes (no length prefix), for
// fixed-size buffers saved with WriteRaw.
func (s *State) ReadInto(dst []byte) {
	copy(dst, s.raw[s.readPos:s.readPos+len(dst)])
	s.readPos += len(dst)
}

// WriteRaw appends data with no length prefix, for fixed-size buffers
// whose size is already known by both sides (e.g. a [16]byte wave
// table).
func (s *State) WriteRaw(data []byte) {
	s.raw = append(s.raw, data...)
}
