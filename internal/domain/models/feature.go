package models

import "time"

// FeatureRow is a resampled session row augmented with the derived numeric
// fields the model and detectors consume. Rows are only emitted once every
// rolling feature is defined; callers never see partial rows.
type FeatureRow struct {
	Code    string
	Session time.Time
	Close   float64

	LogReturn    float64 // 1-day log return
	LogReturn3   float64
	LogReturn5   float64
	Volatility20 float64 // rolling std of 1-day log returns, window 20
	ParkinsonVol float64 // high/low based
	RSI          float64
	MACDHist     float64
	BBPos        float64 // close position inside the +/-2 sigma band
	VolumeChange float64 // log((v_t+1)/(v_{t-1}+1))
	LogVolume    float64
	LogValue     float64
	IlliquidDay  float64 // Amihud |ret|/value, zero-value days set to series max
	Amihud20     float64 // 20-day rolling mean of IlliquidDay
	ZeroStreak   float64 // consecutive zero-volume sessions ending here
}

// FeatureColumns is the model input vector, in order. The order is part of
// the artifact contract: a persisted scaler/model pair is only valid against
// this exact list, so it is embedded in the artifact bundle and checked on
// load.
var FeatureColumns = []string{
	"log_return",
	"volatility_20",
	"rsi",
	"macd_hist",
	"bb_pos",
	"volume_change",
}

// Vector returns the model input features in FeatureColumns order.
func (r FeatureRow) Vector() []float64 {
	return []float64{
		r.LogReturn,
		r.Volatility20,
		r.RSI,
		r.MACDHist,
		r.BBPos,
		r.VolumeChange,
	}
}
