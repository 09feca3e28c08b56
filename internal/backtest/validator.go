package backtest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/internal/store"
)

// Fixture is a completed match as reported by the result source.
type Fixture struct {
	HomeTeam  string
	AwayTeam  string
	Date      string // ISO date or datetime; only the date portion is keyed
	HomeGoals int
	AwayGoals int
}

// ResultSource provides recently completed fixtures with final scores.
type ResultSource interface {
	CompletedFixtures(ctx context.Context, lastN int) ([]Fixture, error)
}

// Summary reports the outcome of one validation pass.
type Summary struct {
	Updated      int `json:"updated"`
	NotFound     int `json:"not_found"`
	StillPending int `json:"still_pending"`
}

// Validator closes the loop between stored predictions and real results.
type Validator struct {
	store    store.Store
	source   ResultSource
	lookback int
}

// New creates a Validator that checks up to lookback recent completed
// fixtures per pass.
func New(st store.Store, source ResultSource, lookback int) *Validator {
	if lookback <= 0 {
		lookback = 50
	}
	return &Validator{store: st, source: source, lookback: lookback}
}

// ValidatePending fetches recent results and records them against pending
// predictions. A fetch failure degrades to an empty result set and zero
// updates; previously validated metrics stay available.
func (v *Validator) ValidatePending(ctx context.Context) (Summary, error) {
	pending, err := v.store.GetPending(ctx)
	if err != nil {
		return Summary{}, err
	}
	if len(pending) == 0 {
		return Summary{}, nil
	}

	completed := v.fetchCompleted(ctx)

	type outcome struct {
		result    model.Outcome
		homeGoals int
		awayGoals int
	}
	lookup := make(map[string]outcome, len(completed))
	for _, fx := range completed {
		result := model.OutcomeDraw
		if fx.HomeGoals > fx.AwayGoals {
			result = model.OutcomeHome
		} else if fx.AwayGoals > fx.HomeGoals {
			result = model.OutcomeAway
		}
		lookup[lookupKey(fx.HomeTeam, fx.AwayTeam, fx.Date)] = outcome{
			result:    result,
			homeGoals: fx.HomeGoals,
			awayGoals: fx.AwayGoals,
		}
	}

	var summary Summary
	for _, pred := range pending {
		key := lookupKey(pred.HomeTeam, pred.AwayTeam, pred.MatchDate)
		o, ok := lookup[key]
		if !ok {
			summary.StillPending++
			continue
		}

		found, err := v.store.UpdateResult(ctx, pred.MatchID, o.result, o.homeGoals, o.awayGoals)
		if err != nil {
			return summary, err
		}
		if found {
			summary.Updated++
			zap.L().Info("backtest: prediction validated",
				zap.String("match_id", pred.MatchID),
				zap.String("result", string(o.result)),
			)
		}
	}

	// Unmatched pending predictions may simply not have been played yet; no
	// distinction beyond this best-effort remainder is recorded.
	summary.NotFound = len(pending) - summary.Updated - summary.StillPending

	return summary, nil
}

func (v *Validator) fetchCompleted(ctx context.Context) []Fixture {
	completed, err := v.source.CompletedFixtures(ctx, v.lookback)
	if err != nil {
		zap.L().Warn("backtest: could not fetch completed fixtures", zap.Error(err))
		return nil
	}
	return completed
}

// lookupKey normalizes a fixture identity for matching across data sources:
// lowercase, spaces stripped, each team name truncated to 15 characters,
// date separators removed. The truncation is deliberately lossy to tolerate
// minor naming differences between sources.
func lookupKey(home, away, date string) string {
	if len(date) > 10 {
		date = date[:10]
	}
	return fmt.Sprintf("%s_%s_%s",
		normalizeTeam(home),
		normalizeTeam(away),
		strings.ReplaceAll(date, "-", ""),
	)
}

func normalizeTeam(name string) string {
	n := strings.ReplaceAll(strings.ToLower(name), " ", "")
	r := []rune(n)
	if len(r) > 15 {
		return string(r[:15])
	}
	return n
}

// Report renders the operator-facing validation report from store metrics.
func (v *Validator) Report(ctx context.Context) (string, error) {
	metrics, err := v.store.Metrics(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	divider := strings.Repeat("=", 60)

	b.WriteString(divider + "\n")
	b.WriteString("PREDICTION VALIDATION REPORT\n")
	b.WriteString(divider + "\n\n")

	fmt.Fprintf(&b, "Total predictions: %d\n", metrics.Total)
	fmt.Fprintf(&b, "  Validated: %d\n", metrics.Validated)
	fmt.Fprintf(&b, "  Pending:   %d\n", metrics.Pending)

	if metrics.Validated > 0 {
		b.WriteString("\n--- Accuracy ---\n")
		fmt.Fprintf(&b, "Market favorite accuracy: %.1f%% (%d/%d)\n",
			metrics.MarketAccuracy, metrics.MarketCorrect, metrics.Validated)
		fmt.Fprintf(&b, "Model favorite accuracy:  %.1f%% (%d/%d)\n",
			metrics.ModelAccuracy, metrics.ModelCorrect, metrics.Validated)

		if metrics.Disagreements > 0 {
			disagreePct := float64(metrics.ModelWinsWhenDisagreed) / float64(metrics.Disagreements) * 100
			b.WriteString("\n--- When Model Disagreed with Market ---\n")
			fmt.Fprintf(&b, "Disagreements: %d\n", metrics.Disagreements)
			fmt.Fprintf(&b, "Model was correct: %d (%.1f%%)\n", metrics.ModelWinsWhenDisagreed, disagreePct)
		}
	} else {
		b.WriteString("\nNo validated predictions yet. Run analyses, wait for matches to complete, then validate.\n")
	}

	b.WriteString(divider + "\n")
	return b.String(), nil
}
