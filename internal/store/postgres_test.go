package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpulse/marketintel/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgres_SavePrediction_Insert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, actual_result, home_goals, away_goals FROM predictions WHERE match_id = \$1`).
		WithArgs("arsenal_vs_chelsea_20260117").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO predictions`).
		WithArgs(pgxmock.AnyArg(), "arsenal_vs_chelsea_20260117", "Arsenal", "Chelsea",
			"2026-01-17T15:00:00Z", pgxmock.AnyArg(),
			"Arsenal", 0.4828, "Arsenal", 0.4407,
			0.4407, 0.2759, 0.2834, 2.0, 3.5, 4.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	pred, err := s.SavePrediction(context.Background(), testDraft())
	require.NoError(t, err)
	assert.Equal(t, "arsenal_vs_chelsea_20260117", pred.MatchID)
	assert.NotEmpty(t, pred.ID)
	assert.Nil(t, pred.ActualResult)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SavePrediction_UpdateKeepsResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	result := "home"
	hg, ag := 2, 1

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, actual_result, home_goals, away_goals FROM predictions WHERE match_id = \$1`).
		WithArgs("arsenal_vs_chelsea_20260117").
		WillReturnRows(pgxmock.NewRows([]string{"id", "actual_result", "home_goals", "away_goals"}).
			AddRow("existing-id", &result, &hg, &ag))
	mock.ExpectExec(`UPDATE predictions SET`).
		WithArgs("Arsenal", 0.4828, "Arsenal", 0.4407,
			0.4407, 0.2759, 0.2834, 2.0, 3.5, 4.0,
			pgxmock.AnyArg(), "arsenal_vs_chelsea_20260117").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	pred, err := s.SavePrediction(context.Background(), testDraft())
	require.NoError(t, err)
	assert.Equal(t, "existing-id", pred.ID)
	require.NotNil(t, pred.ActualResult)
	assert.Equal(t, model.OutcomeHome, *pred.ActualResult)
	require.NotNil(t, pred.HomeGoals)
	assert.Equal(t, 2, *pred.HomeGoals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateResult_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE predictions SET actual_result = \$1, home_goals = \$2, away_goals = \$3 WHERE match_id = \$4`).
		WithArgs("away", 0, 2, "arsenal_vs_chelsea_20260117").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	found, err := s.UpdateResult(context.Background(), "arsenal_vs_chelsea_20260117", model.OutcomeAway, 0, 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE predictions SET actual_result`).
		WithArgs("draw", 1, 1, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	found, err := s.UpdateResult(context.Background(), "missing", model.OutcomeDraw, 1, 1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetPending(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM predictions WHERE actual_result IS NULL`).
		WillReturnRows(predictionRows().
			AddRow("id-1", "arsenal_vs_chelsea_20260117", "Arsenal", "Chelsea", "2026-01-17T15:00:00Z", now,
				"Arsenal", 0.48, "Arsenal", 0.44, 0.44, 0.28, 0.28, 2.0, 3.5, 4.0,
				(*string)(nil), (*int)(nil), (*int)(nil)))

	pending, err := s.GetPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Arsenal", pending[0].HomeTeam)
	assert.False(t, pending[0].Validated())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Metrics(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	result := "home"
	hg, ag := 3, 1

	mock.ExpectQuery(`FROM predictions WHERE actual_result IS NOT NULL`).
		WillReturnRows(predictionRows().
			AddRow("id-1", "arsenal_vs_chelsea_20260117", "Arsenal", "Chelsea", "2026-01-17T15:00:00Z", now,
				"Arsenal", 0.48, "Chelsea", 0.40, 0.35, 0.25, 0.40, 2.0, 3.5, 4.0,
				&result, &hg, &ag))
	mock.ExpectQuery(`FROM predictions WHERE actual_result IS NULL`).
		WillReturnRows(predictionRows())

	m, err := s.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Total)
	assert.Equal(t, 1, m.Validated)
	assert.Equal(t, 1, m.MarketCorrect)
	assert.Equal(t, 0, m.ModelCorrect)
	assert.Equal(t, 1, m.Disagreements)
	assert.Equal(t, 0, m.ModelWinsWhenDisagreed)
	assert.Equal(t, 100.0, m.MarketAccuracy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func predictionRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "match_id", "home_team", "away_team", "match_date", "prediction_time",
		"market_favorite", "market_favorite_prob", "model_favorite", "model_favorite_prob",
		"home_prob", "draw_prob", "away_prob", "home_odds", "draw_odds", "away_odds",
		"actual_result", "home_goals", "away_goals",
	})
}
