package decision

import (
	"fmt"

	"TuniCast/internal/domain/models"
)

// thresholds gates a BUY by minimum forecast return and minimum sentiment.
type thresholds struct {
	buyReturn    float64
	minSentiment float64
}

// profileThresholds maps each risk profile to its gate. More conservative
// profiles demand larger forecast returns and friendlier sentiment.
var profileThresholds = map[models.RiskProfile]thresholds{
	models.RiskAggressive:   {buyReturn: 0.005, minSentiment: -0.2},
	models.RiskModerate:     {buyReturn: 0.01, minSentiment: 0.2},
	models.RiskConservative: {buyReturn: 0.02, minSentiment: 0.5},
}

const sellReturn = -0.01

// Inputs are the signals the engine combines. Missing signals arrive as
// their neutral values: zero return, zero sentiment, zero anomalies.
type Inputs struct {
	Symbol         string
	ForecastReturn float64
	Sentiment      float64
	AnomalyCount   int
}

// Engine turns forecast, sentiment, and anomaly signals into a gated
// BUY, SELL, or HOLD. It is pure: the same inputs always produce the
// same recommendation.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Decide applies the profile's gates in order: BUY when both the return
// and sentiment gates pass, SELL on a forecast drop, HOLD otherwise.
// Conservative profiles refuse to BUY while any anomaly is live.
func (e *Engine) Decide(in Inputs, profile models.RiskProfile) models.Recommendation {
	th, ok := profileThresholds[profile]
	if !ok {
		profile = models.RiskModerate
		th = profileThresholds[profile]
	}

	rec := models.Recommendation{
		Symbol: in.Symbol,
		Metrics: models.RecommendationMetrics{
			ForecastReturn: in.ForecastReturn,
			SentimentScore: in.Sentiment,
			AnomalyCount:   in.AnomalyCount,
		},
	}

	switch {
	case in.ForecastReturn > th.buyReturn && in.Sentiment > th.minSentiment:
		rec.Action = models.ActionBuy
		rec.Confidence = 0.8
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("forecast return %+.2f%% clears the %s buy threshold", in.ForecastReturn*100, profile))
		if in.Sentiment > 0.5 {
			rec.Confidence += 0.1
			rec.Reasons = append(rec.Reasons, "strongly positive sentiment")
		}
		if profile == models.RiskConservative && in.AnomalyCount > 0 {
			// Only the action is downgraded; the confidence the buy case
			// accumulated stays, it now backs the HOLD.
			rec.Action = models.ActionHold
			rec.Reasons = append(rec.Reasons,
				fmt.Sprintf("downgraded to HOLD: %d active anomaly signal(s) under a conservative profile", in.AnomalyCount))
		}
	case in.ForecastReturn < sellReturn:
		rec.Action = models.ActionSell
		rec.Confidence = 0.7
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("forecast return %+.2f%% signals a drawdown", in.ForecastReturn*100))
	default:
		rec.Action = models.ActionHold
		rec.Confidence = 0.5
		if in.ForecastReturn > th.buyReturn {
			rec.Reasons = append(rec.Reasons,
				"sentiment too low for a buy despite a favorable forecast")
		} else {
			rec.Reasons = append(rec.Reasons, "no strong signal in either direction")
		}
	}
	return rec
}
