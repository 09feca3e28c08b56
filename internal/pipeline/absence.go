package pipeline

import "github.com/matchpulse/marketintel/internal/model"

// TotalXGImpact sums the signed estimated xG impact across a side's
// absences. An empty list yields 0.
func TotalXGImpact(news model.TeamNews) float64 {
	var total float64
	for _, a := range news.Absences {
		total += a.EstimatedXGImpact
	}
	return total
}

// AggregateAbsences reduces match team news to one signed xG delta per side.
func AggregateAbsences(news model.MatchTeamNews) model.ExpectedGoalsAdjustment {
	return model.ExpectedGoalsAdjustment{
		HomeXGDelta: TotalXGImpact(news.Home),
		AwayXGDelta: TotalXGImpact(news.Away),
	}
}
