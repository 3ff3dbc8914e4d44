package models

// ForecastResult is the per-request output of the inference service.
// Recomputed from the latest window on every call; never stored.
//
// LogReturnT5 is the predicted log return of the single session five trading
// days ahead, not a cumulative five-day return. That matches how the model
// targets are built; consumers must not compound it into a price path.
type ForecastResult struct {
	Symbol       string  `json:"symbol"`
	Code         string  `json:"code"`
	CurrentPrice float64 `json:"current_price"`
	PriceT1      float64 `json:"prediction_t1"`
	LogReturnT1  float64 `json:"log_return_t1"`
	LogReturnT5  float64 `json:"log_return_t5"`
}
