package models

// Requests for the core HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type DetectRequest struct {
	Symbol string  `query:"symbol" json:"symbol" validate:"required"`
	Close  float64 `json:"close" validate:"gt=0"`
	Volume float64 `json:"volume" validate:"gte=0"`
}

type ValidateRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Seed   int64  `query:"seed" json:"seed"`
}

type RecommendRequest struct {
	Symbol      string `query:"symbol" json:"symbol" validate:"required"`
	RiskProfile string `query:"risk_profile" json:"risk_profile" default:"moderate" validate:"oneof=aggressive moderate conservative"`
}
