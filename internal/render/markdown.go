// Package render turns match reports into display formats for the CLI and
// HTTP surfaces.
package render

import (
	"fmt"
	"strings"

	"github.com/matchpulse/marketintel/internal/model"
)

// Markdown renders a match report as a markdown document suitable for
// terminals and chat surfaces.
func Markdown(r model.MatchReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.MatchSummary)

	b.WriteString("## Favorites\n\n")
	fmt.Fprintf(&b, "- **Market favorite:** %s (%.1f%%)\n", r.MarketFavorite.Label, r.MarketFavorite.Probability*100)
	fmt.Fprintf(&b, "- **Model favorite:** %s (%.1f%%)\n\n", r.ModelFavorite.Label, r.ModelFavorite.Probability*100)

	b.WriteString("## Key team news\n\n")
	b.WriteString("```\n")
	b.WriteString(strings.TrimRight(r.KeyTeamNews, "\n"))
	b.WriteString("\n```\n\n")

	b.WriteString("## Market vs model\n\n")
	b.WriteString("| Outcome | Market | Model | Delta |\n")
	b.WriteString("|---------|--------|-------|-------|\n")
	for _, d := range r.Discrepancies {
		fmt.Fprintf(&b, "| %s | %.3f | %.3f | %+.3f |\n",
			outcomeTitle(d.Outcome), d.MarketProbability, d.ModelProbability, d.Delta)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s\n", r.Conclusion)

	return b.String()
}

func outcomeTitle(o model.Outcome) string {
	switch o {
	case model.OutcomeHome:
		return "Home"
	case model.OutcomeDraw:
		return "Draw"
	case model.OutcomeAway:
		return "Away"
	}
	return string(o)
}
