package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/matchpulse/marketintel/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS predictions (
	id                   UUID PRIMARY KEY,
	match_id             TEXT UNIQUE NOT NULL,
	home_team            TEXT NOT NULL,
	away_team            TEXT NOT NULL,
	match_date           TEXT NOT NULL,
	prediction_time      TIMESTAMPTZ NOT NULL,
	market_favorite      TEXT NOT NULL,
	market_favorite_prob DOUBLE PRECISION NOT NULL,
	model_favorite       TEXT NOT NULL,
	model_favorite_prob  DOUBLE PRECISION NOT NULL,
	home_prob            DOUBLE PRECISION NOT NULL,
	draw_prob            DOUBLE PRECISION NOT NULL,
	away_prob            DOUBLE PRECISION NOT NULL,
	home_odds            DOUBLE PRECISION NOT NULL,
	draw_odds            DOUBLE PRECISION NOT NULL,
	away_odds            DOUBLE PRECISION NOT NULL,
	actual_result        TEXT,
	home_goals           INTEGER,
	away_goals           INTEGER
);

CREATE INDEX IF NOT EXISTS idx_predictions_actual_result ON predictions(actual_result);
CREATE INDEX IF NOT EXISTS idx_predictions_match_date ON predictions(match_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SavePrediction(ctx context.Context, draft model.PredictionDraft) (*model.Prediction, error) {
	matchID := model.MatchID(draft.HomeTeam, draft.AwayTeam, draft.MatchDate)
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin save prediction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

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

	var existingID string
	var actualResult *string
	var homeGoals, awayGoals *int

	err = tx.QueryRow(ctx,
		`SELECT id, actual_result, home_goals, away_goals FROM predictions WHERE match_id = $1`,
		matchID,
	).Scan(&existingID, &actualResult, &homeGoals, &awayGoals)

	switch {
	case err == pgx.ErrNoRows:
		pred.ID = uuid.New().String()
		_, err = tx.Exec(ctx,
			`INSERT INTO predictions (
				id, match_id, home_team, away_team, match_date, prediction_time,
				market_favorite, market_favorite_prob, model_favorite, model_favorite_prob,
				home_prob, draw_prob, away_prob, home_odds, draw_odds, away_odds
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			pred.ID, matchID, draft.HomeTeam, draft.AwayTeam, draft.MatchDate, now,
			draft.MarketFavorite, draft.MarketFavoriteProb, draft.ModelFavorite, draft.ModelFavoriteProb,
			draft.HomeProb, draft.DrawProb, draft.AwayProb, draft.HomeOdds, draft.DrawOdds, draft.AwayOdds,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: insert prediction")
		}
	case err != nil:
		return nil, eris.Wrap(err, "postgres: lookup prediction")
	default:
		pred.ID = existingID
		_, err = tx.Exec(ctx,
			`UPDATE predictions SET
				market_favorite = $1, market_favorite_prob = $2,
				model_favorite = $3, model_favorite_prob = $4,
				home_prob = $5, draw_prob = $6, away_prob = $7,
				home_odds = $8, draw_odds = $9, away_odds = $10,
				prediction_time = $11
			WHERE match_id = $12`,
			draft.MarketFavorite, draft.MarketFavoriteProb,
			draft.ModelFavorite, draft.ModelFavoriteProb,
			draft.HomeProb, draft.DrawProb, draft.AwayProb,
			draft.HomeOdds, draft.DrawOdds, draft.AwayOdds,
			now, matchID,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: update prediction")
		}
		if actualResult != nil {
			result := model.Outcome(*actualResult)
			pred.ActualResult = &result
		}
		pred.HomeGoals = homeGoals
		pred.AwayGoals = awayGoals
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit save prediction")
	}
	return pred, nil
}

func (s *PostgresStore) UpdateResult(ctx context.Context, matchID string, result model.Outcome, homeGoals, awayGoals int) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE predictions SET actual_result = $1, home_goals = $2, away_goals = $3 WHERE match_id = $4`,
		string(result), homeGoals, awayGoals, matchID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: update result %s", matchID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetPending(ctx context.Context) ([]model.Prediction, error) {
	return s.query(ctx, selectPredictions+` WHERE actual_result IS NULL`)
}

func (s *PostgresStore) GetValidated(ctx context.Context) ([]model.Prediction, error) {
	return s.query(ctx, selectPredictions+` WHERE actual_result IS NOT NULL`)
}

func (s *PostgresStore) GetAll(ctx context.Context) ([]model.Prediction, error) {
	return s.query(ctx, selectPredictions+` ORDER BY match_date DESC`)
}

func (s *PostgresStore) Metrics(ctx context.Context) (model.ValidationMetrics, error) {
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

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query predictions")
	}
	defer rows.Close()

	var preds []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var actualResult *string
		err := rows.Scan(
			&p.ID, &p.MatchID, &p.HomeTeam, &p.AwayTeam, &p.MatchDate, &p.PredictionTime,
			&p.MarketFavorite, &p.MarketFavoriteProb, &p.ModelFavorite, &p.ModelFavoriteProb,
			&p.HomeProb, &p.DrawProb, &p.AwayProb, &p.HomeOdds, &p.DrawOdds, &p.AwayOdds,
			&actualResult, &p.HomeGoals, &p.AwayGoals,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan prediction")
		}
		if actualResult != nil {
			result := model.Outcome(*actualResult)
			p.ActualResult = &result
		}
		preds = append(preds, p)
	}
	return preds, eris.Wrap(rows.Err(), "postgres: iterate predictions")
}
