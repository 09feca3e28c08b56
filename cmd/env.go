package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/matchpulse/marketintel/internal/backtest"
	"github.com/matchpulse/marketintel/internal/cache"
	"github.com/matchpulse/marketintel/internal/pipeline"
	"github.com/matchpulse/marketintel/internal/store"
	"github.com/matchpulse/marketintel/pkg/footballapi"
	"github.com/matchpulse/marketintel/pkg/oddsapi"
)

// appEnv holds the initialized store, API clients, and pipeline pieces
// shared by the commands.
type appEnv struct {
	Store    store.Store
	Odds     oddsapi.Client
	Football footballapi.Client
	Analyzer *pipeline.Analyzer

	oddsCache    *cache.TTL[[]oddsapi.UpcomingMatch]
	fixtureCache *cache.TTL[[]footballapi.Fixture]
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv validates the config for the given mode, opens the store, and
// builds the API clients. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute

	env := &appEnv{
		Store: st,
		Odds: oddsapi.NewClient(cfg.OddsAPI.Key,
			oddsapi.WithBaseURL(cfg.OddsAPI.BaseURL),
			oddsapi.WithSport(cfg.OddsAPI.Sport),
		),
		Football: footballapi.NewClient(cfg.Football.Key,
			footballapi.WithBaseURL(cfg.Football.BaseURL),
			footballapi.WithLeague(cfg.Football.LeagueID, cfg.Football.Season),
		),
		Analyzer:     pipeline.NewAnalyzer(st),
		oddsCache:    cache.New[[]oddsapi.UpcomingMatch](ttl),
		fixtureCache: cache.New[[]footballapi.Fixture](ttl),
	}
	return env, nil
}

// newValidator wires the backtest validator over the store and the
// API-Football result feed.
func (e *appEnv) newValidator() *backtest.Validator {
	return backtest.New(e.Store, &fixtureResultSource{client: e.Football}, cfg.Backtest.Lookback)
}

// fixtureResultSource adapts the API-Football client to the result feed the
// validator consumes.
type fixtureResultSource struct {
	client footballapi.Client
}

func (s *fixtureResultSource) CompletedFixtures(ctx context.Context, lastN int) ([]backtest.Fixture, error) {
	fixtures, err := s.client.CompletedFixtures(ctx, lastN)
	if err != nil {
		return nil, err
	}

	out := make([]backtest.Fixture, 0, len(fixtures))
	for _, fx := range fixtures {
		if fx.Goals.Home == nil || fx.Goals.Away == nil {
			continue
		}
		out = append(out, backtest.Fixture{
			HomeTeam:  fx.Teams.Home.Name,
			AwayTeam:  fx.Teams.Away.Name,
			Date:      fx.Fixture.Date.UTC().Format("2006-01-02"),
			HomeGoals: *fx.Goals.Home,
			AwayGoals: *fx.Goals.Away,
		})
	}
	return out, nil
}

// upcomingOdds fetches upcoming matches with odds, memoized for the cache
// TTL.
func (e *appEnv) upcomingOdds(ctx context.Context) ([]oddsapi.UpcomingMatch, error) {
	if cached, ok := e.oddsCache.Get("upcoming"); ok {
		return cached, nil
	}
	matches, err := e.Odds.UpcomingMatches(ctx)
	if err != nil {
		return nil, err
	}
	e.oddsCache.Set("upcoming", matches)
	return matches, nil
}

// upcomingFixtures fetches upcoming fixtures, memoized for the cache TTL.
func (e *appEnv) upcomingFixtures(ctx context.Context) ([]footballapi.Fixture, error) {
	if cached, ok := e.fixtureCache.Get("upcoming"); ok {
		return cached, nil
	}
	fixtures, err := e.Football.UpcomingFixtures(ctx, cfg.Analysis.UpcomingLimit)
	if err != nil {
		return nil, err
	}
	e.fixtureCache.Set("upcoming", fixtures)
	return fixtures, nil
}

// findFixture locates the upcoming fixture for the given teams, matching
// names case-insensitively in either direction.
func (e *appEnv) findFixture(ctx context.Context, homeTeam, awayTeam string) (footballapi.Fixture, bool, error) {
	fixtures, err := e.upcomingFixtures(ctx)
	if err != nil {
		return footballapi.Fixture{}, false, err
	}
	for _, fx := range fixtures {
		if teamNamesMatch(homeTeam, fx.Teams.Home.Name) && teamNamesMatch(awayTeam, fx.Teams.Away.Name) {
			return fx, true, nil
		}
	}
	return footballapi.Fixture{}, false, nil
}

func teamNamesMatch(requested, fromAPI string) bool {
	a := strings.ToLower(requested)
	b := strings.ToLower(fromAPI)
	return strings.Contains(a, b) || strings.Contains(b, a)
}
