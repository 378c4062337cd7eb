package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingMean(t *testing.T) {
	t.Run("averages partial windows before the period fills", func(t *testing.T) {
		got := RollingMean([]float64{2, 4, 6, 8}, 3)
		require.Len(t, got, 4)
		assert.InDelta(t, 2.0, got[0], 1e-9)
		assert.InDelta(t, 3.0, got[1], 1e-9)
		assert.InDelta(t, 4.0, got[2], 1e-9)
		assert.InDelta(t, 6.0, got[3], 1e-9)
	})

	t.Run("empty input returns empty series", func(t *testing.T) {
		assert.Empty(t, RollingMean(nil, 5))
	})

	t.Run("period one echoes the input", func(t *testing.T) {
		in := []float64{1.5, 2.5, 3.5}
		got := RollingMean(in, 1)
		assert.Equal(t, in, got)
	})
}

func TestRSI(t *testing.T) {
	t.Run("monotonic rise saturates at 100", func(t *testing.T) {
		closes := []float64{10, 11, 12, 13, 14, 15}
		got := RSI(closes, 3)
		assert.InDelta(t, 100.0, got[len(got)-1], 1e-9)
	})

	t.Run("monotonic fall pins to 0", func(t *testing.T) {
		closes := []float64{15, 14, 13, 12, 11, 10}
		got := RSI(closes, 3)
		assert.InDelta(t, 0.0, got[len(got)-1], 1e-9)
	})

	t.Run("equal gains and losses balance at 50", func(t *testing.T) {
		closes := []float64{10, 11, 10, 11, 10, 11, 10, 11}
		got := RSI(closes, 4)
		assert.InDelta(t, 50.0, got[len(got)-1], 1.0)
	})

	t.Run("flat series yields zero", func(t *testing.T) {
		closes := []float64{10, 10, 10, 10}
		got := RSI(closes, 2)
		assert.InDelta(t, 0.0, got[len(got)-1], 1e-9)
	})
}

func TestMomentum(t *testing.T) {
	assert.InDelta(t, 50.0, Momentum([]float64{10, 12, 15}), 1e-9)
	assert.InDelta(t, -20.0, Momentum([]float64{10, 9, 8}), 1e-9)
	assert.Zero(t, Momentum([]float64{10}))
	assert.Zero(t, Momentum([]float64{0, 5}))
}

func TestPctChange(t *testing.T) {
	assert.InDelta(t, 10.0, PctChange(100, 110), 1e-9)
	assert.InDelta(t, -50.0, PctChange(100, 50), 1e-9)
	assert.Zero(t, PctChange(0, 10))
}

func TestRSIStatus(t *testing.T) {
	assert.Equal(t, "OVERBOUGHT", rsiStatus(75))
	assert.Equal(t, "OVERSOLD", rsiStatus(25))
	assert.Equal(t, "NEUTRAL", rsiStatus(50))
	assert.Equal(t, "NEUTRAL", rsiStatus(70))
	assert.Equal(t, "NEUTRAL", rsiStatus(30))
}
