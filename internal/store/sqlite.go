package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/matchpulse/marketintel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS predictions (
	id                   TEXT PRIMARY KEY,
	match_id             TEXT UNIQUE NOT NULL,
	home_team            TEXT NOT NULL,
	away_team            TEXT NOT NULL,
	match_date           TEXT NOT NULL,
	prediction_time      DATETIME NOT NULL,
	market_favorite      TEXT NOT NULL,
	market_favorite_prob REAL NOT NULL,
	model_favorite       TEXT NOT NULL,
	model_favorite_prob  REAL NOT NULL,
	home_prob            REAL NOT NULL,
	draw_prob            REAL NOT NULL,
	away_prob            REAL NOT NULL,
	home_odds            REAL NOT NULL,
	draw_odds            REAL NOT NULL,
	away_odds            REAL NOT NULL,
	actual_result        TEXT,
	home_goals           INTEGER,
	away_goals           INTEGER
);

CREATE INDEX IF NOT EXISTS idx_predictions_actual_result ON predictions(actual_result);
CREATE INDEX IF NOT EXISTS idx_predictions_match_date ON predictions(match_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SavePrediction(ctx context.Context, draft model.PredictionDraft) (*model.Prediction, error) {
	matchID := model.MatchID(draft.HomeTeam, draft.AwayTeam, draft.MatchDate)
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin save prediction")
	}
	defer tx.Rollback() //nolint:errcheck

	pred := &model.Prediction{
		MatchID:            matchID,
		HomeTeam:           draft.HomeTeam,
		AwayTeam:           draft.AwayTeam,
		MatchDate:          draft.MatchDate,
		PredictionTime:     now,
		MarketFavorite:     draft.MarketFavorite,
		MarketFavoriteProb: draft.MarketFavoriteProb,
		ModelFavorite:      draft.ModelFavorite,
		ModelFavoriteProb:  draft.ModelFavoriteProb,
		HomeProb:           draft.HomeProb,
		DrawProb:           draft.DrawProb,
		AwayProb:           draft.AwayProb,
		HomeOdds:           draft.HomeOdds,
		DrawOdds:           draft.DrawOdds,
		AwayOdds:           draft.AwayOdds,
	}

	row := tx.QueryRowContext(ctx,
		`SELECT id, actual_result, home_goals, away_goals FROM predictions WHERE match_id = ?`,
		matchID,
	)

	var existingID string
	var actualResult sql.NullString
	var homeGoals, awayGoals sql.NullInt64

	err = row.Scan(&existingID, &actualResult, &homeGoals, &awayGoals)
	switch {
	case err == sql.ErrNoRows:
		pred.ID = uuid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO predictions (
				id, match_id, home_team, away_team, match_date, prediction_time,
				market_favorite, market_favorite_prob, model_favorite, model_favorite_prob,
				home_prob, draw_prob, away_prob, home_odds, draw_odds, away_odds
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pred.ID, matchID, draft.HomeTeam, draft.AwayTeam, draft.MatchDate, now,
			draft.MarketFavorite, draft.MarketFavoriteProb, draft.ModelFavorite, draft.ModelFavoriteProb,
			draft.HomeProb, draft.DrawProb, draft.AwayProb, draft.HomeOdds, draft.DrawOdds, draft.AwayOdds,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert prediction")
		}
	case err != nil:
		return nil, eris.Wrap(err, "sqlite: lookup prediction")
	default:
		// Update the prediction but keep any already-recorded result.
		pred.ID = existingID
		_, err = tx.ExecContext(ctx,
			`UPDATE predictions SET
				market_favorite = ?, market_favorite_prob = ?,
				model_favorite = ?, model_favorite_prob = ?,
				home_prob = ?, draw_prob = ?, away_prob = ?,
				home_odds = ?, draw_odds = ?, away_odds = ?,
				prediction_time = ?
			WHERE match_id = ?`,
			draft.MarketFavorite, draft.MarketFavoriteProb,
			draft.ModelFavorite, draft.ModelFavoriteProb,
			draft.HomeProb, draft.DrawProb, draft.AwayProb,
			draft.HomeOdds, draft.DrawOdds, draft.AwayOdds,
			now, matchID,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: update prediction")
		}
		if actualResult.Valid {
			result := model.Outcome(actualResult.String)
			pred.ActualResult = &result
		}
		if homeGoals.Valid {
			hg := int(homeGoals.Int64)
			pred.HomeGoals = &hg
		}
		if awayGoals.Valid {
			ag := int(awayGoals.Int64)
			pred.AwayGoals = &ag
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit save prediction")
	}
	return pred, nil
}

func (s *SQLiteStore) UpdateResult(ctx context.Context, matchID string, result model.Outcome, homeGoals, awayGoals int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE predictions SET actual_result = ?, home_goals = ?, away_goals = ? WHERE match_id = ?`,
		string(result), homeGoals, awayGoals, matchID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: update result %s", matchID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) GetPending(ctx context.Context) ([]model.Prediction, error) {
	return s.query(ctx, selectPredictions+` WHERE actual_result IS NULL`)
}

func (s *SQLiteStore) GetValidated(ctx context.Context) ([]model.Prediction, error) {
	return s.query(ctx, selectPredictions+` WHERE actual_result IS NOT NULL`)
}

func (s *SQLiteStore) GetAll(ctx context.Context) ([]model.Prediction, error) {
	return s.query(ctx, selectPredictions+` ORDER BY match_date DESC`)
}

func (s *SQLiteStore) Metrics(ctx context.Context) (model.ValidationMetrics, error) {
	validated, err := s.GetValidated(ctx)
	if err != nil {
		return model.ValidationMetrics{}, err
	}
	pending, err := s.GetPending(ctx)
	if err != nil {
		return model.ValidationMetrics{}, err
	}
	return computeMetrics(validated, pending), nil
}

const selectPredictions = `SELECT
	id, match_id, home_team, away_team, match_date, prediction_time,
	market_favorite, market_favorite_prob, model_favorite, model_favorite_prob,
	home_prob, draw_prob, away_prob, home_odds, draw_odds, away_odds,
	actual_result, home_goals, away_goals
FROM predictions`

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]model.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query predictions")
	}
	defer rows.Close()

	var preds []model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		preds = append(preds, *p)
	}
	return preds, eris.Wrap(rows.Err(), "sqlite: iterate predictions")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPrediction(row scannable) (*model.Prediction, error) {
	var p model.Prediction
	var actualResult sql.NullString
	var homeGoals, awayGoals sql.NullInt64

	err := row.Scan(
		&p.ID, &p.MatchID, &p.HomeTeam, &p.AwayTeam, &p.MatchDate, &p.PredictionTime,
		&p.MarketFavorite, &p.MarketFavoriteProb, &p.ModelFavorite, &p.ModelFavoriteProb,
		&p.HomeProb, &p.DrawProb, &p.AwayProb, &p.HomeOdds, &p.DrawOdds, &p.AwayOdds,
		&actualResult, &homeGoals, &awayGoals,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan prediction")
	}

	if actualResult.Valid {
		result := model.Outcome(actualResult.String)
		p.ActualResult = &result
	}
	if homeGoals.Valid {
		hg := int(homeGoals.Int64)
		p.HomeGoals = &hg
	}
	if awayGoals.Valid {
		ag := int(awayGoals.Int64)
		p.AwayGoals = &ag
	}
	return &p, nil
}
