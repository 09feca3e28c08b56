package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/matchpulse/marketintel/internal/model"
)

// NormalizeOdds converts decimal 1X2 odds into market-implied probabilities.
// Raw implied probabilities are the reciprocals of the odds; their sum is the
// bookmaker overround. The returned triple is normalized to sum to exactly 1,
// with the overround reported separately.
func NormalizeOdds(odds model.RawOdds) (model.ImpliedProbabilities, error) {
	rawHome := 1.0 / odds.HomeWin
	rawDraw := 1.0 / odds.Draw
	rawAway := 1.0 / odds.AwayWin

	overround := rawHome + rawDraw + rawAway
	if overround <= 0 {
		return model.ImpliedProbabilities{}, eris.Errorf(
			"pipeline: implied probability sum must be positive, got %.6f", overround,
		)
	}

	return model.ImpliedProbabilities{
		Home:      rawHome / overround,
		Draw:      rawDraw / overround,
		Away:      rawAway / overround,
		Overround: overround,
	}, nil
}
