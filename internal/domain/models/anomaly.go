package models

import "time"

// AnomalyType identifies the rule that fired.
type AnomalyType string

const (
	AnomalyVolumeSpike AnomalyType = "VOLUME_SPIKE"
	AnomalyPriceShock  AnomalyType = "PRICE_SHOCK"
)

// AnomalyEvent is one detection against a single observation. Events are
// transient here; durable storage belongs to the anomaly sink collaborator.
type AnomalyEvent struct {
	Code        string      `json:"code"`
	Type        AnomalyType `json:"type"`
	Description string      `json:"description"`
	MetricValue float64     `json:"metric_value"`
	Confidence  float64     `json:"confidence"` // in [0,1]
	DetectedAt  time.Time   `json:"detected_at"`
}

// ValidationReport aggregates the synthetic-injection backtest of the
// anomaly rules for one instrument.
type ValidationReport struct {
	Symbol         string  `json:"symbol"`
	TotalSamples   int     `json:"total_samples"`
	Injected       int     `json:"injected_anomalies"`
	TruePositives  int     `json:"detected_true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1_score"`
}
