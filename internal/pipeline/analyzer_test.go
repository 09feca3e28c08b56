package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/internal/store"
)

func newAnalyzerStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "predictions.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAnalyzeEndToEnd(t *testing.T) {
	st := newAnalyzerStore(t)
	analyzer := NewAnalyzer(st)

	odds := model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0}
	news := model.MatchTeamNews{
		Home: model.TeamNews{Absences: []model.PlayerAbsence{
			{PlayerName: "Bukayo Saka", Position: "RW", Reason: model.ReasonInjury, EstimatedXGImpact: -0.30},
		}},
	}

	analysis, err := analyzer.Analyze(context.Background(), testMatch(), odds, news)
	require.NoError(t, err)

	assert.InDelta(t, 0.4828, analysis.Implied.Home, 0.0001)
	assert.InDelta(t, -0.30, analysis.XGAdjustment.HomeXGDelta, 1e-9)
	assert.Less(t, analysis.Adjusted.Home, analysis.Implied.Home,
		"home absence should lower the model's home probability")
	require.Len(t, analysis.Discrepancies, 3)

	require.NotNil(t, analysis.Prediction)
	assert.Equal(t, "arsenal_vs_chelsea_20260117", analysis.Prediction.MatchID)
	assert.Equal(t, "Arsenal", analysis.Prediction.MarketFavorite)
	assert.Equal(t, "2026-01-17T15:00:00Z", analysis.Prediction.MatchDate)

	pending, err := st.GetPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestAnalyzeWithoutStore(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	odds := model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0}
	analysis, err := analyzer.Analyze(context.Background(), testMatch(), odds, model.MatchTeamNews{})
	require.NoError(t, err)

	assert.Nil(t, analysis.Prediction)
	assert.Equal(t, "Arsenal", analysis.Report.MarketFavorite.Label)
}

func TestAnalyzeRejectsInvalidTeamNews(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	odds := model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0}
	news := model.MatchTeamNews{
		Away: model.TeamNews{Absences: []model.PlayerAbsence{
			{PlayerName: "Nobody", Position: "ST", Reason: "holiday", EstimatedXGImpact: -0.1},
		}},
	}

	_, err := analyzer.Analyze(context.Background(), testMatch(), odds, news)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason")
}

func TestAnalyzeRejectsInvalidOdds(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	odds := model.RawOdds{HomeWin: 0.5, Draw: 3.5, AwayWin: 4.0}
	_, err := analyzer.Analyze(context.Background(), testMatch(), odds, model.MatchTeamNews{})
	require.Error(t, err)
}

func TestAnalyzeReanalysisUpserts(t *testing.T) {
	st := newAnalyzerStore(t)
	analyzer := NewAnalyzer(st)

	odds := model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0}
	_, err := analyzer.Analyze(context.Background(), testMatch(), odds, model.MatchTeamNews{})
	require.NoError(t, err)

	odds2 := model.RawOdds{HomeWin: 2.1, Draw: 3.4, AwayWin: 3.9}
	analysis, err := analyzer.Analyze(context.Background(), testMatch(), odds2, model.MatchTeamNews{})
	require.NoError(t, err)

	all, err := st.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1, "re-analysis updates the same prediction")
	assert.InDelta(t, 2.1, all[0].HomeOdds, 1e-9)
	assert.Equal(t, analysis.Prediction.ID, all[0].ID)
}
