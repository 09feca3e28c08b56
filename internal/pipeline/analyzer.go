package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/internal/store"
)

// Analysis threads the intermediate results of one analysis run through the
// deterministic steps. Every field below Report is derived from the three
// inputs at the top.
type Analysis struct {
	Match    model.Match         `json:"match"`
	RawOdds  model.RawOdds       `json:"raw_odds"`
	TeamNews model.MatchTeamNews `json:"team_news"`

	Implied       model.ImpliedProbabilities    `json:"implied"`
	XGAdjustment  model.ExpectedGoalsAdjustment `json:"xg_adjustment"`
	Adjusted      model.AdjustedProbabilities   `json:"adjusted"`
	Discrepancies []model.MarketDiscrepancy     `json:"discrepancies"`
	Report        model.MatchReport             `json:"report"`

	// Prediction is the stored record, nil when the analyzer runs without a store.
	Prediction *model.Prediction `json:"prediction,omitempty"`
}

// Analyzer runs the full analytical pipeline for one match and persists the
// resulting prediction. The pipeline itself is synchronous and side-effect
// free; independent matches can be analyzed concurrently.
type Analyzer struct {
	store store.Store
}

// NewAnalyzer creates an Analyzer. A nil store skips prediction persistence.
func NewAnalyzer(st store.Store) *Analyzer {
	return &Analyzer{store: st}
}

// Analyze executes the ordered steps: odds normalization, team-news
// validation and aggregation, probability adjustment, discrepancy ranking,
// report composition, and prediction upsert. Any failure in the adjustment
// or ranking stages aborts report generation for the match.
func (a *Analyzer) Analyze(ctx context.Context, match model.Match, odds model.RawOdds, news model.MatchTeamNews) (*Analysis, error) {
	log := zap.L().With(
		zap.String("home_team", match.HomeTeam),
		zap.String("away_team", match.AwayTeam),
	)
	log.Info("analyze: starting match analysis")

	if err := odds.Validate(); err != nil {
		return nil, eris.Wrap(err, "analyze: odds")
	}
	if err := news.Validate(); err != nil {
		return nil, eris.Wrap(err, "analyze: team news")
	}

	analysis := &Analysis{Match: match, RawOdds: odds, TeamNews: news}

	implied, err := NormalizeOdds(odds)
	if err != nil {
		return nil, eris.Wrap(err, "analyze: normalize odds")
	}
	analysis.Implied = implied
	log.Debug("analyze: odds normalized",
		zap.Float64("home", implied.Home),
		zap.Float64("draw", implied.Draw),
		zap.Float64("away", implied.Away),
		zap.Float64("overround", implied.Overround),
	)

	analysis.XGAdjustment = AggregateAbsences(news)

	adjusted, err := AdjustProbabilities(implied, analysis.XGAdjustment)
	if err != nil {
		return nil, eris.Wrap(err, "analyze: adjust probabilities")
	}
	analysis.Adjusted = adjusted

	analysis.Discrepancies = RankDiscrepancies(implied, adjusted)
	analysis.Report = ComposeReport(match, implied, adjusted, news, analysis.Discrepancies)

	if a.store != nil {
		pred, err := a.store.SavePrediction(ctx, model.PredictionDraft{
			HomeTeam:           match.HomeTeam,
			AwayTeam:           match.AwayTeam,
			MatchDate:          match.KickoffUTC.UTC().Format(time.RFC3339),
			MarketFavorite:     analysis.Report.MarketFavorite.Label,
			MarketFavoriteProb: analysis.Report.MarketFavorite.Probability,
			ModelFavorite:      analysis.Report.ModelFavorite.Label,
			ModelFavoriteProb:  analysis.Report.ModelFavorite.Probability,
			HomeProb:           adjusted.Home,
			DrawProb:           adjusted.Draw,
			AwayProb:           adjusted.Away,
			HomeOdds:           odds.HomeWin,
			DrawOdds:           odds.Draw,
			AwayOdds:           odds.AwayWin,
		})
		if err != nil {
			return nil, eris.Wrap(err, "analyze: save prediction")
		}
		analysis.Prediction = pred
		log.Info("analyze: prediction saved", zap.String("match_id", pred.MatchID))
	}

	log.Info("analyze: complete",
		zap.String("market_favorite", analysis.Report.MarketFavorite.Label),
		zap.String("model_favorite", analysis.Report.ModelFavorite.Label),
	)
	return analysis, nil
}
