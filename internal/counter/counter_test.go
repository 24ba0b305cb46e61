package counter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pellucid-systems/goboy/internal/counter"
	"github.com/pellucid-systems/goboy/internal/savestate"
)

func TestCounterConservesTotal(t *testing.T) {
	elapsed := []uint32{1, 5, 3, 100, 7, 2, 400, 1}

	for _, period := range []uint32{1, 4, 13, 512, 4194304} {
		c := counter.New(period)
		var total, fired uint32
		for _, e := range elapsed {
			fired += c.Tick(e)
			total += e
		}
		require.Equal(t, total/period, fired, "period=%d", period)
	}
}

func TestCounterZeroPeriodNeverFires(t *testing.T) {
	c := counter.New(0)
	for _, e := range []uint32{0, 1, 1000, 70224} {
		require.Equal(t, uint32(0), c.Tick(e))
	}
}

func TestCounterSinglePeriod(t *testing.T) {
	c := counter.New(10)
	require.Equal(t, uint32(0), c.Tick(9))
	require.Equal(t, uint32(1), c.Tick(1))
	require.Equal(t, uint32(2), c.Tick(20))
}

func TestCounterSaveLoadRoundTrip(t *testing.T) {
	c := counter.New(10)
	c.Tick(7)

	s := savestate.New()
	c.Save(s)

	r := counter.New(0)
	r.Load(savestate.FromBytes(s.Bytes()))

	require.Equal(t, uint32(10), r.Period())
	require.Equal(t, uint32(1), r.Tick(3))
}
