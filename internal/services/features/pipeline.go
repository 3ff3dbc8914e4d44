package features

import (
	"math"

	"TuniCast/internal/domain/models"
)

// Rolling windows of the derived series. These are numeric contracts shared
// with the persisted model artifacts; changing them invalidates every
// trained model.
const (
	VolatilityWindow = 20
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
	BollingerWindow  = 20
	AmihudWindow     = 20
)

// WarmupSessions is the number of extra raw sessions an instrument needs on
// top of a model window so that every rolling feature of the window is
// defined.
const WarmupSessions = 30

// AddFeatures derives the full feature set from a resampled business-day
// series. Pure and deterministic. Rows whose rolling inputs are not yet
// defined are dropped, so the first defined row trails the series start by
// the longest warm-up among the rolling windows.
func AddFeatures(bars []models.Bar) []models.FeatureRow {
	n := len(bars)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	values := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
		values[i] = b.Value
	}

	ret1 := LogReturns(closes, 1)
	ret3 := LogReturns(closes, 3)
	ret5 := LogReturns(closes, 5)
	vol20 := RollingStd(ret1, VolatilityWindow)
	park := ParkinsonVol(highs, lows)
	rsi := RSI(closes, RSIPeriod)
	macd := MACDHistogram(closes, MACDFast, MACDSlow, MACDSignal)
	bbPos := BollingerPosition(closes, BollingerWindow)

	volChange := nanSlice(n)
	for i := 1; i < n; i++ {
		volChange[i] = math.Log((volumes[i] + 1) / (volumes[i-1] + 1))
	}

	illiq, amihud := amihudIlliquidity(ret1, values)

	rows := make([]models.FeatureRow, 0, n)
	for i := 0; i < n; i++ {
		vals := []float64{
			ret1[i], ret3[i], ret5[i], vol20[i], park[i], rsi[i],
			macd[i], bbPos[i], volChange[i], illiq[i], amihud[i],
		}
		if hasNaN(vals) {
			continue
		}
		rows = append(rows, models.FeatureRow{
			Code:         bars[i].Code,
			Session:      bars[i].Session,
			Close:        bars[i].Close,
			LogReturn:    ret1[i],
			LogReturn3:   ret3[i],
			LogReturn5:   ret5[i],
			Volatility20: vol20[i],
			ParkinsonVol: park[i],
			RSI:          rsi[i],
			MACDHist:     macd[i],
			BBPos:        bbPos[i],
			VolumeChange: volChange[i],
			LogVolume:    math.Log1p(volumes[i]),
			LogValue:     math.Log1p(values[i]),
			IlliquidDay:  illiq[i],
			Amihud20:     amihud[i],
			ZeroStreak:   zeroStreakAt(volumes, i),
		})
	}
	return rows
}

// amihudIlliquidity returns the daily Amihud ratio |ret|/value and its
// 20-day rolling mean. Sessions with zero traded value are set to the
// maximum illiquidity observed in the series, deliberately penalizing
// untraded days instead of treating them as liquid or unknown.
func amihudIlliquidity(ret1, values []float64) (daily, rolling []float64) {
	n := len(values)
	daily = nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(ret1[i]) || values[i] <= 0 {
			continue
		}
		daily[i] = math.Abs(ret1[i]) / values[i]
	}
	rolling = RollingMean(daily, AmihudWindow)

	maxIlliq := 0.0
	for _, v := range daily {
		if !math.IsNaN(v) && v > maxIlliq {
			maxIlliq = v
		}
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(daily[i]) {
			daily[i] = maxIlliq
		}
		if math.IsNaN(rolling[i]) {
			rolling[i] = maxIlliq
		}
	}
	return daily, rolling
}

func zeroStreakAt(volumes []float64, i int) float64 {
	streak := 0
	for j := i; j >= 0 && volumes[j] == 0; j-- {
		streak++
	}
	return float64(streak)
}
