package pipeline

import (
	"math"
	"sort"

	"github.com/matchpulse/marketintel/internal/model"
)

// RankDiscrepancies compares the market and model probability triples
// outcome by outcome. It always returns exactly three entries sorted by
// descending absolute delta; the sort is stable, so exact ties keep the
// home, draw, away order.
func RankDiscrepancies(market model.ImpliedProbabilities, adjusted model.AdjustedProbabilities) []model.MarketDiscrepancy {
	discrepancies := []model.MarketDiscrepancy{
		{
			Outcome:           model.OutcomeHome,
			MarketProbability: market.Home,
			ModelProbability:  adjusted.Home,
			Delta:             adjusted.Home - market.Home,
		},
		{
			Outcome:           model.OutcomeDraw,
			MarketProbability: market.Draw,
			ModelProbability:  adjusted.Draw,
			Delta:             adjusted.Draw - market.Draw,
		},
		{
			Outcome:           model.OutcomeAway,
			MarketProbability: market.Away,
			ModelProbability:  adjusted.Away,
			Delta:             adjusted.Away - market.Away,
		},
	}

	sort.SliceStable(discrepancies, func(i, j int) bool {
		return math.Abs(discrepancies[i].Delta) > math.Abs(discrepancies[j].Delta)
	})
	return discrepancies
}
