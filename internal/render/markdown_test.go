package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matchpulse/marketintel/internal/model"
)

func TestMarkdownContainsAllSections(t *testing.T) {
	report := model.MatchReport{
		MatchSummary:   "Arsenal vs Chelsea | Premier League | 2026-01-17T15:00:00Z",
		MarketFavorite: model.OutcomeFavorite{Outcome: model.OutcomeHome, Label: "Arsenal", Probability: 0.4828},
		ModelFavorite:  model.OutcomeFavorite{Outcome: model.OutcomeHome, Label: "Arsenal", Probability: 0.5054},
		KeyTeamNews:    "Home team absences:\n- None reported\n",
		Discrepancies: []model.MarketDiscrepancy{
			{Outcome: model.OutcomeHome, MarketProbability: 0.4828, ModelProbability: 0.5054, Delta: 0.0226},
			{Outcome: model.OutcomeAway, MarketProbability: 0.2414, ModelProbability: 0.2258, Delta: -0.0156},
			{Outcome: model.OutcomeDraw, MarketProbability: 0.2759, ModelProbability: 0.2688, Delta: -0.0071},
		},
		Conclusion: "Summary: The largest market-to-model misalignment is observed in the 'home' outcome.",
	}

	md := Markdown(report)

	assert.True(t, strings.HasPrefix(md, "# Arsenal vs Chelsea"))
	assert.Contains(t, md, "**Market favorite:** Arsenal (48.3%)")
	assert.Contains(t, md, "**Model favorite:** Arsenal (50.5%)")
	assert.Contains(t, md, "- None reported")
	assert.Contains(t, md, "| Home | 0.483 | 0.505 | +0.023 |")
	assert.Contains(t, md, "| Away | 0.241 | 0.226 | -0.016 |")
	assert.Contains(t, md, "misalignment is observed in the 'home' outcome")
}

func TestMarkdownRowsFollowDiscrepancyOrder(t *testing.T) {
	report := model.MatchReport{
		Discrepancies: []model.MarketDiscrepancy{
			{Outcome: model.OutcomeDraw},
			{Outcome: model.OutcomeHome},
			{Outcome: model.OutcomeAway},
		},
	}

	md := Markdown(report)
	draw := strings.Index(md, "| Draw |")
	home := strings.Index(md, "| Home |")
	away := strings.Index(md, "| Away |")
	assert.True(t, draw < home && home < away, "table rows keep ranked order")
}
