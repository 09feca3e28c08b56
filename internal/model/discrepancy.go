package model

// Outcome tags one of the three 1X2 results.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// MarketDiscrepancy is the signed market-vs-model disagreement for one
// outcome. Delta is model probability minus market probability.
type MarketDiscrepancy struct {
	Outcome           Outcome `json:"outcome"`
	MarketProbability float64 `json:"market_probability"`
	ModelProbability  float64 `json:"model_probability"`
	Delta             float64 `json:"delta"`
}
