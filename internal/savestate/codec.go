package savestate

import (
	"encoding/binary"
	"fmt"

	"github.com/google/brotli/go/cbrotli"
)

// Encode compresses a State's buffer with brotli and prefixes it with
// the uncompressed length (4 bytes, little-endian), which Decode
// checks against the decompressed payload.
func Encode(s *State) []byte {
	raw := s.Bytes()
	compressed, err := cbrotli.Encode(raw, cbrotli.WriterOptions{Quality: 9})
	if err != nil {
		// brotli failing to compress an in-memory buffer indicates a
		// library misuse, not a recoverable runtime condition.
		panic(fmt.Sprintf("savestate: brotli encode: %v", err))
	}

	out := make([]byte, 4+len(compressed))
	binary.LittleEndian.PutUint32(out, uint32(len(raw)))
	copy(out[4:], compressed)
	return out
}

// Decode reverses Encode, returning a State ready for Load calls.
func Decode(blob []byte) (*State, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupted)
	}
	wantLen := binary.LittleEndian.Uint32(blob)

	raw, err := cbrotli.Decode(blob[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if uint32(len(raw)) != wantLen {
		return nil, fmt.Errorf("%w: length mismatch, want %d got %d", ErrCorrupted, wantLen, len(raw))
	}

	return FromBytes(raw), nil
}
