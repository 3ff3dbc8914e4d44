package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// epsilon guards the denominators of RSI and the Bollinger position, matching
// the values downstream consumers were trained against.
const epsilon = 1e-6

// LogReturns computes k-day log returns, NaN where undefined.
func LogReturns(closes []float64, k int) []float64 {
	out := nanSlice(len(closes))
	for i := k; i < len(closes); i++ {
		prev, cur := closes[i-k], closes[i]
		if prev <= 0 || cur <= 0 {
			continue
		}
		out[i] = math.Log(cur / prev)
	}
	return out
}

// RollingStd is the rolling sample standard deviation over `window` values.
// A window containing any undefined value stays undefined.
func RollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	for i := window - 1; i < len(xs); i++ {
		w := xs[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = stat.StdDev(w, nil)
	}
	return out
}

// RollingMean is the rolling arithmetic mean over `window` values, with the
// same undefined-window propagation as RollingStd.
func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	for i := window - 1; i < len(xs); i++ {
		w := xs[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = stat.Mean(w, nil)
	}
	return out
}

// EMA is the recursive exponential moving average with alpha = 2/(span+1),
// seeded with the first observation. This is the adjust=false form; the
// fitted model depends on these exact values, do not swap in an SMA-seeded
// variant.
func EMA(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI is the Relative Strength Index over rolling means of gains and losses.
// Deliberately not Wilder smoothing: the original pipeline uses plain
// rolling means with an epsilon denominator, and the trained model expects
// those numerics.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	avgGain := RollingMean(gains, period)
	avgLoss := RollingMean(losses, period)

	out := nanSlice(n)
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		rs := avgGain[i] / (avgLoss[i] + epsilon)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACDHistogram is EMA(fast)-EMA(slow) minus its own EMA(signal) signal line.
func MACDHistogram(closes []float64, fast, slow, signal int) []float64 {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line := make([]float64, len(closes))
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMA(line, signal)
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = line[i] - sig[i]
	}
	return out
}

// BollingerPosition is the close's normalized position inside the +/-2 sigma
// band: (close-lower)/((upper-lower)+epsilon). NaN until the rolling window
// is defined.
func BollingerPosition(closes []float64, window int) []float64 {
	ma := RollingMean(closes, window)
	sd := RollingStd(closes, window)
	out := nanSlice(len(closes))
	for i := range out {
		if math.IsNaN(ma[i]) || math.IsNaN(sd[i]) {
			continue
		}
		upper := ma[i] + 2*sd[i]
		lower := ma[i] - 2*sd[i]
		out[i] = (closes[i] - lower) / ((upper - lower) + epsilon)
	}
	return out
}

// ParkinsonVol is the high/low range volatility estimator
// sqrt(ln(high/low)^2 / (4 ln 2)) per session.
func ParkinsonVol(highs, lows []float64) []float64 {
	out := nanSlice(len(highs))
	c := 1.0 / (4.0 * math.Ln2)
	for i := range highs {
		if highs[i] <= 0 || lows[i] <= 0 {
			continue
		}
		r := math.Log(highs[i] / lows[i])
		out[i] = math.Sqrt(c * r * r)
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func hasNaN(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
