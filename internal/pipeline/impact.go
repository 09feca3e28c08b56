package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/matchpulse/marketintel/internal/model"
)

// Modeling constants for the team-news adjustment. In an efficient top-flight
// market, team-news driven moves are modest; the shift is small and hard-capped
// so the layer stays interpretable rather than predictive.
const (
	// ShiftPerNetXG converts net xG delta into a home-vs-away probability shift.
	ShiftPerNetXG = 0.15
	// MaxAbsShift caps the total directional movement regardless of how many
	// absences are reported.
	MaxAbsShift = 0.15

	probEpsilon = 1e-9
)

// AdjustProbabilities applies the team-news shift to the market baseline.
// Net xG delta (home minus away, positive favoring home) moves probability
// between the home and away outcomes; the draw is treated as a residual and
// only changes through re-normalization. Home advantage is assumed to be
// embedded in the market baseline and is not added here. The output is a
// transformation of the market, not a forecast.
func AdjustProbabilities(market model.ImpliedProbabilities, adj model.ExpectedGoalsAdjustment) (model.AdjustedProbabilities, error) {
	netXG := adj.HomeXGDelta - adj.AwayXGDelta
	shift := netXG * ShiftPerNetXG
	if shift > MaxAbsShift {
		shift = MaxAbsShift
	} else if shift < -MaxAbsShift {
		shift = -MaxAbsShift
	}

	home := max(market.Home+shift, probEpsilon)
	away := max(market.Away-shift, probEpsilon)
	draw := max(market.Draw, probEpsilon)

	sum := home + draw + away
	if sum <= 0 {
		return model.AdjustedProbabilities{}, eris.Errorf(
			"pipeline: adjusted probabilities must sum to a positive value, got %.6f", sum,
		)
	}

	return model.AdjustedProbabilities{
		Home: home / sum,
		Draw: draw / sum,
		Away: away / sum,
	}, nil
}
