package model

import (
	"github.com/rotisserie/eris"
)

// RawOdds holds decimal 1X2 odds for a single match. Each price must be
// strictly greater than 1.0; construct via NewRawOdds to enforce this at
// the boundary.
type RawOdds struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

// NewRawOdds validates and builds a RawOdds. Odds at or below 1.0 are a
// caller contract violation and are rejected, never coerced.
func NewRawOdds(homeWin, draw, awayWin float64) (RawOdds, error) {
	o := RawOdds{HomeWin: homeWin, Draw: draw, AwayWin: awayWin}
	if err := o.Validate(); err != nil {
		return RawOdds{}, err
	}
	return o, nil
}

// Validate rejects any price at or below 1.0. RawOdds built as struct
// literals (decoded JSON, test fixtures) must pass through here before
// entering the pipeline.
func (o RawOdds) Validate() error {
	if o.HomeWin <= 1.0 || o.Draw <= 1.0 || o.AwayWin <= 1.0 {
		return eris.Errorf(
			"model: decimal odds must be > 1.0, got home=%.4f draw=%.4f away=%.4f",
			o.HomeWin, o.Draw, o.AwayWin,
		)
	}
	return nil
}

// ImpliedProbabilities are market-implied outcome probabilities normalized
// to sum to 1, plus the bookmaker overround (sum of raw reciprocal odds,
// typically slightly above 1).
type ImpliedProbabilities struct {
	Home      float64 `json:"home"`
	Draw      float64 `json:"draw"`
	Away      float64 `json:"away"`
	Overround float64 `json:"overround"`
}
