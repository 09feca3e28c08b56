package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matchpulse/marketintel/internal/model"
)

// ComposeReport assembles the final descriptive report for a match. The
// report states what the market and the model say and where they differ; it
// never contains prescriptive or advisory language.
func ComposeReport(
	match model.Match,
	implied model.ImpliedProbabilities,
	adjusted model.AdjustedProbabilities,
	news model.MatchTeamNews,
	discrepancies []model.MarketDiscrepancy,
) model.MatchReport {
	summary := fmt.Sprintf("%s — %s vs %s — Kickoff (UTC): %s",
		match.League, match.HomeTeam, match.AwayTeam,
		match.KickoffUTC.UTC().Format(time.RFC3339),
	)

	return model.MatchReport{
		MatchSummary:   summary,
		MarketFavorite: favoriteFrom(match, implied.Home, implied.Draw, implied.Away),
		ModelFavorite:  favoriteFrom(match, adjusted.Home, adjusted.Draw, adjusted.Away),
		KeyTeamNews:    formatTeamNews(news),
		Discrepancies:  discrepancies,
		Conclusion:     formatConclusion(discrepancies),
	}
}

// favoriteFrom picks the outcome with the strictly highest probability.
// Candidates are evaluated in home, draw, away order, so on exact equality
// home wins over draw and draw over away.
func favoriteFrom(match model.Match, home, draw, away float64) model.OutcomeFavorite {
	fav := model.OutcomeFavorite{Outcome: model.OutcomeHome, Label: match.HomeTeam, Probability: home}
	if draw > fav.Probability {
		fav = model.OutcomeFavorite{Outcome: model.OutcomeDraw, Label: "Draw", Probability: draw}
	}
	if away > fav.Probability {
		fav = model.OutcomeFavorite{Outcome: model.OutcomeAway, Label: match.AwayTeam, Probability: away}
	}
	return fav
}

func formatTeamNews(news model.MatchTeamNews) string {
	var b strings.Builder

	writeSide := func(side string, news model.TeamNews) {
		fmt.Fprintf(&b, "%s team absences:\n", side)
		if len(news.Absences) == 0 {
			b.WriteString("- None reported\n")
		}
		for _, a := range news.Absences {
			sign := ""
			if a.EstimatedXGImpact > 0 {
				sign = "+"
			}
			fmt.Fprintf(&b, "- %s (%s) — %s; estimated_xg_impact: %s%.2f\n",
				a.PlayerName, a.Position, a.Reason, sign, a.EstimatedXGImpact)
		}
		fmt.Fprintf(&b, "%s total estimated_xg_impact: %+.2f\n", side, TotalXGImpact(news))
	}

	writeSide("Home", news.Home)
	b.WriteString("\n")
	writeSide("Away", news.Away)

	return strings.TrimSuffix(b.String(), "\n")
}

func formatConclusion(discrepancies []model.MarketDiscrepancy) string {
	if len(discrepancies) == 0 {
		return "No discrepancy items were generated."
	}

	top := discrepancies[0]
	direction := "lower"
	if top.Delta > 0 {
		direction = "higher"
	}
	delta := top.Delta
	if delta < 0 {
		delta = -delta
	}
	return fmt.Sprintf(
		"Summary: The largest market-to-model misalignment is observed in the '%s' outcome. "+
			"The model probability is %s than the market by %.3f (absolute probability points).",
		top.Outcome, direction, delta,
	)
}
