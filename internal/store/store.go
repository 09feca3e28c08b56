package store

import (
	"context"
	"math"

	"github.com/matchpulse/marketintel/internal/model"
)

// Store is the persistence interface for prediction records. One record
// exists per match, keyed by the derived match_id; SavePrediction upserts
// and UpdateResult enriches the record once the result is known.
type Store interface {
	// SavePrediction inserts or updates the prediction for the draft's match.
	// On update, any already-recorded result fields are preserved. Returns
	// the post-merge record.
	SavePrediction(ctx context.Context, draft model.PredictionDraft) (*model.Prediction, error)

	// UpdateResult records the actual result for a match. Returns whether a
	// matching record existed. Idempotent for identical inputs.
	UpdateResult(ctx context.Context, matchID string, result model.Outcome, homeGoals, awayGoals int) (bool, error)

	GetPending(ctx context.Context) ([]model.Prediction, error)
	GetValidated(ctx context.Context) ([]model.Prediction, error)
	GetAll(ctx context.Context) ([]model.Prediction, error)

	// Metrics aggregates favorite accuracy over validated predictions.
	Metrics(ctx context.Context) (model.ValidationMetrics, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// computeMetrics derives validation metrics from filtered reads. Both
// backends share it so the accuracy semantics cannot drift.
func computeMetrics(validated, pending []model.Prediction) model.ValidationMetrics {
	m := model.ValidationMetrics{
		Total:     len(validated) + len(pending),
		Validated: len(validated),
		Pending:   len(pending),
	}

	for _, p := range validated {
		winner := p.ActualWinnerLabel()
		if p.MarketFavorite == winner {
			m.MarketCorrect++
		}
		if p.ModelFavorite == winner {
			m.ModelCorrect++
		}
		if p.MarketFavorite != p.ModelFavorite {
			m.Disagreements++
			if p.ModelFavorite == winner {
				m.ModelWinsWhenDisagreed++
			}
		}
	}

	if n := len(validated); n > 0 {
		m.MarketAccuracy = roundPct(float64(m.MarketCorrect) / float64(n) * 100)
		m.ModelAccuracy = roundPct(float64(m.ModelCorrect) / float64(n) * 100)
	}
	return m
}

// roundPct rounds a percentage to one decimal.
func roundPct(v float64) float64 {
	return math.Round(v*10) / 10
}
