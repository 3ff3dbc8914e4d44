package models

// RiskProfile gates the decision engine thresholds.
type RiskProfile string

const (
	RiskAggressive   RiskProfile = "aggressive"
	RiskModerate     RiskProfile = "moderate"
	RiskConservative RiskProfile = "conservative"
)

// ParseRiskProfile normalizes a profile string, defaulting to moderate.
func ParseRiskProfile(s string) RiskProfile {
	switch RiskProfile(s) {
	case RiskAggressive, RiskConservative:
		return RiskProfile(s)
	default:
		return RiskModerate
	}
}

// Action is the fused trading recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// RecommendationMetrics echoes the inputs the decision was fused from.
type RecommendationMetrics struct {
	ForecastReturn float64 `json:"forecast_return"`
	SentimentScore float64 `json:"sentiment_score"`
	AnomalyCount   int     `json:"anomaly_count"`
}

// Recommendation is computed fresh per request; identical inputs always
// produce identical output.
type Recommendation struct {
	Symbol     string                `json:"symbol"`
	Action     Action                `json:"action"`
	Confidence float64               `json:"confidence"` // in [0,1]
	Reasons    []string              `json:"reasons"`
	Metrics    RecommendationMetrics `json:"metrics"`
}
