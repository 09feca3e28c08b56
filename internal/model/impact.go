package model

// ExpectedGoalsAdjustment is the aggregate signed xG impact of absences,
// summed independently per side.
type ExpectedGoalsAdjustment struct {
	HomeXGDelta float64 `json:"home_xg_delta"`
	AwayXGDelta float64 `json:"away_xg_delta"`
}

// AdjustedProbabilities are the market probabilities after the team-news
// shift has been applied and the triple re-normalized. This is a
// transformation of the market baseline, not a forecast.
type AdjustedProbabilities struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}
