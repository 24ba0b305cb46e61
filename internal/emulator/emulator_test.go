package emulator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/emulator"
	"github.com/pellucid-systems/goboy/pkg/log"
)

// blankROM builds a 2-bank ROM-only cartridge whose code is all NOPs,
// with title set so GetTitle has something to return.
func blankROM(title string) []byte {
	rom := make([]byte, 2*16*1024)
	copy(rom[0x134:], title)
	rom[0x147] = 0x00 // ROM only
	rom[0x148] = 0
	rom[0x149] = 0
	return rom
}

func newRunning(t *testing.T) *emulator.Emulator {
	t.Helper()
	e, err := emulator.New(blankROM("TESTROM"), emulator.WithLogger(log.NewNullLogger()))
	require.NoError(t, err)
	go e.Run()
	e.Requests <- emulator.Start{}
	return e
}

func TestGetTitleReturnsHeaderTitle(t *testing.T) {
	e := newRunning(t)
	defer shutdown(t, e)

	e.Requests <- emulator.GetTitle{}
	reply := <-e.Replies
	require.Equal(t, emulator.Title{Title: "TESTROM"}, reply)
}

func TestGetVideoFrameReturnsAFrame(t *testing.T) {
	e := newRunning(t)
	defer shutdown(t, e)

	e.Requests <- emulator.GetVideoFrame{}
	reply, ok := (<-e.Replies).(emulator.VideoFrame)
	require.True(t, ok)
	_ = reply.Frame // a zero-value frame is a valid frame
}

func TestGetFrequencyReturnsBaseClockWhenNotDoubleSpeed(t *testing.T) {
	e := newRunning(t)
	defer shutdown(t, e)

	e.Requests <- emulator.GetFrequency{}
	reply, ok := (<-e.Replies).(emulator.Frequency)
	require.True(t, ok)
	require.Equal(t, float64(4194304), reply.Hz)
}

func TestShutdownWithSaveStateReturnsNonEmptyBlob(t *testing.T) {
	e, err := emulator.New(blankROM("SAVEME"), emulator.WithLogger(log.NewNullLogger()))
	require.NoError(t, err)
	go e.Run()
	e.Requests <- emulator.Start{}

	e.Requests <- emulator.Shutdown{SaveState: true}
	reply, ok := (<-e.Replies).(emulator.ShuttingDown)
	require.True(t, ok)
	require.NotEmpty(t, reply.SaveState)
}

func TestShutdownWithoutSaveStateReturnsNilBlob(t *testing.T) {
	e, err := emulator.New(blankROM("NOSAVE"), emulator.WithLogger(log.NewNullLogger()))
	require.NoError(t, err)
	go e.Run()
	e.Requests <- emulator.Start{}

	e.Requests <- emulator.Shutdown{SaveState: false}
	reply, ok := (<-e.Replies).(emulator.ShuttingDown)
	require.True(t, ok)
	require.Nil(t, reply.SaveState)
}

func TestResumeRestoresEncodedState(t *testing.T) {
	rom := blankROM("RESUME")
	e, err := emulator.New(rom, emulator.WithLogger(log.NewNullLogger()))
	require.NoError(t, err)
	go e.Run()
	e.Requests <- emulator.Start{}

	e.Requests <- emulator.Shutdown{SaveState: true}
	blob := (<-e.Replies).(emulator.ShuttingDown).SaveState

	e2, err := emulator.Resume(rom, blob, emulator.WithLogger(log.NewNullLogger()))
	require.NoError(t, err)
	go e2.Run()
	e2.Requests <- emulator.Start{}

	e2.Requests <- emulator.GetTitle{}
	reply := <-e2.Replies
	require.Equal(t, emulator.Title{Title: "RESUME"}, reply)

	shutdown(t, e2)
}

func shutdown(t *testing.T, e *emulator.Emulator) {
	t.Helper()
	e.Requests <- emulator.Shutdown{SaveState: false}
	select {
	case <-e.Replies:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ShuttingDown reply")
	}
}
