package models

import "time"

// Bar is one recorded trading session for an instrument, as ingested from
// the exchange history feed. Immutable once stored; every derived series is
// computed from these rows.
type Bar struct {
	Code    string    `json:"code"`
	Session time.Time `json:"session"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  float64   `json:"volume"`
	Value   float64   `json:"value"` // traded value (price x volume as reported)
}

// Observation is a candidate "current" data point evaluated against an
// instrument's history by the anomaly detector. It is supplied by the
// caller (realtime snapshot, backtest row) and never persisted here.
type Observation struct {
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
