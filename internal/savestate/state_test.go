package savestate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/savestate"
)

func TestRoundTripPrimitives(t *testing.T) {
	s := savestate.New()
	s.Write8(0xAB)
	s.Write16(0x1234)
	s.Write32(0xDEADBEEF)
	s.Write64(0x0102030405060708)
	s.WriteBool(true)
	s.WriteBool(false)
	s.WriteBytes([]byte{1, 2, 3, 4, 5})
	s.WriteRaw([]byte{9, 9, 9})

	r := savestate.FromBytes(s.Bytes())
	require.Equal(t, uint8(0xAB), r.Read8())
	require.Equal(t, uint16(0x1234), r.Read16())
	require.Equal(t, uint32(0xDEADBEEF), r.Read32())
	require.Equal(t, uint64(0x0102030405060708), r.Read64())
	require.True(t, r.ReadBool())
	require.False(t, r.ReadBool())
	require.Equal(t, []byte{1, 2, 3, 4, 5}, r.ReadBytes())
	dst := make([]byte, 3)
	r.ReadInto(dst)
	require.Equal(t, []byte{9, 9, 9}, dst)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := savestate.New()
	s.Write32(0x11223344)
	s.WriteBytes(make([]byte, 8192))

	blob := savestate.Encode(s)
	restored, err := savestate.Decode(blob)
	require.NoError(t, err)
	require.Equal(t, uint32(0x11223344), restored.Read32())
	require.Len(t, restored.ReadBytes(), 8192)
}

func TestDecodeRejectsCorruptBlob(t *testing.T) {
	s := savestate.New()
	s.Write8(1)
	blob := savestate.Encode(s)
	blob[len(blob)-1] ^= 0xFF

	_, err := savestate.Decode(blob)
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	_, err := savestate.Decode([]byte{1, 2})
	require.ErrorIs(t, err, savestate.ErrCorrupted)
}
