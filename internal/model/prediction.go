package model

import (
	"fmt"
	"strings"
	"time"
)

// Prediction is the durable record of one analysis run for a match,
// later enriched with the actual result by the backtest validator.
type Prediction struct {
	ID                 string    `json:"id"`
	MatchID            string    `json:"match_id"`
	HomeTeam           string    `json:"home_team"`
	AwayTeam           string    `json:"away_team"`
	MatchDate          string    `json:"match_date"`
	PredictionTime     time.Time `json:"prediction_time"`
	MarketFavorite     string    `json:"market_favorite"`
	MarketFavoriteProb float64   `json:"market_favorite_prob"`
	ModelFavorite      string    `json:"model_favorite"`
	ModelFavoriteProb  float64   `json:"model_favorite_prob"`
	HomeProb           float64   `json:"home_prob"`
	DrawProb           float64   `json:"draw_prob"`
	AwayProb           float64   `json:"away_prob"`
	HomeOdds           float64   `json:"home_odds"`
	DrawOdds           float64   `json:"draw_odds"`
	AwayOdds           float64   `json:"away_odds"`

	// Result fields are nil until the prediction has been validated.
	ActualResult *Outcome `json:"actual_result,omitempty"`
	HomeGoals    *int     `json:"home_goals,omitempty"`
	AwayGoals    *int     `json:"away_goals,omitempty"`
}

// Validated reports whether the actual result has been recorded.
func (p Prediction) Validated() bool {
	return p.ActualResult != nil
}

// ActualWinnerLabel returns the display label of the recorded result: the
// home or away team name, or "Draw". Empty for pending predictions.
func (p Prediction) ActualWinnerLabel() string {
	if p.ActualResult == nil {
		return ""
	}
	switch *p.ActualResult {
	case OutcomeHome:
		return p.HomeTeam
	case OutcomeAway:
		return p.AwayTeam
	default:
		return "Draw"
	}
}

// PredictionDraft carries the fields written by each analysis run. Result
// fields are owned by the validator and are never part of a draft.
type PredictionDraft struct {
	HomeTeam           string
	AwayTeam           string
	MatchDate          string
	MarketFavorite     string
	MarketFavoriteProb float64
	ModelFavorite      string
	ModelFavoriteProb  float64
	HomeProb           float64
	DrawProb           float64
	AwayProb           float64
	HomeOdds           float64
	DrawOdds           float64
	AwayOdds           float64
}

// MatchID derives the stable store key for a fixture: lowercased,
// underscore-joined team names truncated to 20 characters each, plus the
// date portion of matchDate with separators stripped.
func MatchID(homeTeam, awayTeam, matchDate string) string {
	datePart := matchDate
	if len(datePart) > 10 {
		datePart = datePart[:10]
	}
	datePart = strings.ReplaceAll(datePart, "-", "")
	home := truncateRunes(strings.ReplaceAll(strings.ToLower(homeTeam), " ", "_"), 20)
	away := truncateRunes(strings.ReplaceAll(strings.ToLower(awayTeam), " ", "_"), 20)
	return fmt.Sprintf("%s_vs_%s_%s", home, away, datePart)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ValidationMetrics aggregates favorite accuracy over all validated
// predictions. Accuracy rates are percentages rounded to one decimal and
// zero when nothing has been validated yet.
type ValidationMetrics struct {
	Total                  int     `json:"total"`
	Validated              int     `json:"validated"`
	Pending                int     `json:"pending"`
	MarketCorrect          int     `json:"market_correct"`
	ModelCorrect           int     `json:"model_correct"`
	MarketAccuracy         float64 `json:"market_accuracy"`
	ModelAccuracy          float64 `json:"model_accuracy"`
	Disagreements          int     `json:"disagreements"`
	ModelWinsWhenDisagreed int     `json:"model_wins_when_disagreed"`
}
