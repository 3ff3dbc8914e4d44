package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogReturns(t *testing.T) {
	closes := []float64{100, 110, 121}
	ret := LogReturns(closes, 1)
	require.True(t, math.IsNaN(ret[0]))
	require.InDelta(t, math.Log(1.1), ret[1], 1e-12)
	require.InDelta(t, math.Log(1.1), ret[2], 1e-12)
}

func TestEMASeedsWithFirstValue(t *testing.T) {
	xs := []float64{10, 10, 10, 10}
	ema := EMA(xs, 3)
	for _, v := range ema {
		require.InDelta(t, 10.0, v, 1e-12)
	}

	xs = []float64{10, 20}
	ema = EMA(xs, 3)
	require.Equal(t, 10.0, ema[0])
	// alpha = 2/(3+1) = 0.5
	require.InDelta(t, 15.0, ema[1], 1e-12)
}

func TestRSIBounds(t *testing.T) {
	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	rsi := RSI(up, 14)
	require.True(t, math.IsNaN(rsi[13]))
	// All gains: the loss denominator is only the epsilon guard.
	require.Greater(t, rsi[29], 99.0)

	down := make([]float64, 30)
	for i := range down {
		down[i] = 100 - float64(i)
	}
	rsi = RSI(down, 14)
	require.Less(t, rsi[29], 1.0)
}

func TestBollingerPositionConstantSeries(t *testing.T) {
	xs := make([]float64, 25)
	for i := range xs {
		xs[i] = 50
	}
	pos := BollingerPosition(xs, 20)
	// Zero-width band: the epsilon keeps the division finite.
	require.InDelta(t, 0.0, pos[24], 1e-6)
}

func TestRollingStdWindow(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	sd := RollingStd(xs, 3)
	require.True(t, math.IsNaN(sd[1]))
	// Sample std of {1,2,3} = 1.
	require.InDelta(t, 1.0, sd[2], 1e-12)
	require.InDelta(t, 1.0, sd[4], 1e-12)
}

func TestMACDHistogramConverges(t *testing.T) {
	xs := make([]float64, 120)
	for i := range xs {
		xs[i] = 100
	}
	h := MACDHistogram(xs, 12, 26, 9)
	// Flat prices: MACD and signal both settle at zero.
	require.InDelta(t, 0.0, h[119], 1e-9)
}

func TestParkinsonVolZeroRange(t *testing.T) {
	highs := []float64{10, 10}
	lows := []float64{10, 10}
	pv := ParkinsonVol(highs, lows)
	require.InDelta(t, 0.0, pv[0], 1e-12)
}
