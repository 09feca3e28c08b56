package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpulse/marketintel/internal/cache"
	"github.com/matchpulse/marketintel/internal/config"
	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/internal/pipeline"
	"github.com/matchpulse/marketintel/internal/store"
	"github.com/matchpulse/marketintel/pkg/footballapi"
	"github.com/matchpulse/marketintel/pkg/oddsapi"
)

// stubOdds implements oddsapi.Client.
type stubOdds struct {
	odds     model.RawOdds
	oddsErr  error
	upcoming []oddsapi.UpcomingMatch
}

func (s *stubOdds) SportOdds(context.Context) ([]oddsapi.Event, error) { return nil, nil }

func (s *stubOdds) OddsForMatch(context.Context, string, string) (model.RawOdds, error) {
	if s.oddsErr != nil {
		return model.RawOdds{}, s.oddsErr
	}
	return s.odds, nil
}

func (s *stubOdds) UpcomingMatches(context.Context) ([]oddsapi.UpcomingMatch, error) {
	return s.upcoming, nil
}

// stubFootball implements footballapi.Client.
type stubFootball struct {
	upcoming  []footballapi.Fixture
	completed []footballapi.Fixture
	news      model.MatchTeamNews
}

func (s *stubFootball) UpcomingFixtures(context.Context, int) ([]footballapi.Fixture, error) {
	return s.upcoming, nil
}

func (s *stubFootball) CompletedFixtures(context.Context, int) ([]footballapi.Fixture, error) {
	return s.completed, nil
}

func (s *stubFootball) FixtureInjuries(context.Context, int) ([]footballapi.Injury, error) {
	return nil, nil
}

func (s *stubFootball) TeamInjuries(context.Context, int) ([]footballapi.Injury, error) {
	return nil, nil
}

func (s *stubFootball) MatchTeamNews(context.Context, footballapi.Fixture) (model.MatchTeamNews, error) {
	return s.news, nil
}

func newTestEnv(t *testing.T, odds *stubOdds, football *stubFootball) *appEnv {
	t.Helper()

	cfg = &config.Config{}
	cfg.Backtest.Lookback = 50
	cfg.Analysis.UpcomingLimit = 10

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "predictions.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	return &appEnv{
		Store:        st,
		Odds:         odds,
		Football:     football,
		Analyzer:     pipeline.NewAnalyzer(st),
		oddsCache:    cache.New[[]oddsapi.UpcomingMatch](time.Minute),
		fixtureCache: cache.New[[]footballapi.Fixture](time.Minute),
	}
}

func arsenalFixture() footballapi.Fixture {
	var fx footballapi.Fixture
	fx.Fixture.ID = 1001
	fx.Fixture.Date = time.Date(2026, 1, 17, 15, 0, 0, 0, time.UTC)
	fx.League.Name = "Premier League"
	fx.Teams.Home = footballapi.Team{ID: 42, Name: "Arsenal"}
	fx.Teams.Away = footballapi.Team{ID: 49, Name: "Chelsea"}
	return fx
}

func TestRouterHealth(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubOdds{}, &stubFootball{}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.PredictionsTracked)

	ts, err := time.Parse(time.RFC3339, body.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)
}

func TestRouterMatches(t *testing.T) {
	odds := &stubOdds{upcoming: []oddsapi.UpcomingMatch{
		{
			HomeTeam:   "Arsenal",
			AwayTeam:   "Chelsea",
			KickoffUTC: time.Date(2026, 1, 17, 15, 0, 0, 0, time.UTC),
			Odds:       model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0},
		},
	}}
	router := newRouter(newTestEnv(t, odds, &stubFootball{}))

	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var matches []oddsapi.UpcomingMatch
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "Arsenal", matches[0].HomeTeam)
}

func TestRouterAnalyzeStoresPrediction(t *testing.T) {
	odds := &stubOdds{odds: model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0}}
	football := &stubFootball{upcoming: []footballapi.Fixture{arsenalFixture()}}
	env := newTestEnv(t, odds, football)
	router := newRouter(env)

	payload, _ := json.Marshal(map[string]string{
		"home_team": "Arsenal",
		"away_team": "Chelsea",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var analysis pipeline.Analysis
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &analysis))
	assert.Equal(t, "Arsenal", analysis.Report.MarketFavorite.Label)
	require.NotNil(t, analysis.Prediction)

	stored, err := env.Store.GetPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	// The stored prediction shows up in the health count.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, 1, health.PredictionsTracked)
}

func TestRouterAnalyzeValidation(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubOdds{}, &stubFootball{}))

	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader([]byte(`{"home_team":"Arsenal"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterAnalyzeMatchNotFound(t *testing.T) {
	odds := &stubOdds{oddsErr: oddsapi.ErrMatchNotFound}
	router := newRouter(newTestEnv(t, odds, &stubFootball{}))

	payload, _ := json.Marshal(map[string]string{
		"home_team": "Arsenal",
		"away_team": "Chelsea",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterPredictionsFilter(t *testing.T) {
	odds := &stubOdds{odds: model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0}}
	env := newTestEnv(t, odds, &stubFootball{})
	router := newRouter(env)

	payload, _ := json.Marshal(map[string]string{
		"home_team": "Arsenal",
		"away_team": "Chelsea",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	for _, tc := range []struct {
		status string
		count  int
	}{
		{"", 1},
		{"pending", 1},
		{"validated", 0},
	} {
		req := httptest.NewRequest(http.MethodGet, "/predictions?status="+tc.status, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var predictions []model.Prediction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &predictions))
		assert.Len(t, predictions, tc.count, "status %q", tc.status)
	}

	req = httptest.NewRequest(http.MethodGet, "/predictions?status=bogus", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterMetricsEmpty(t *testing.T) {
	router := newRouter(newTestEnv(t, &stubOdds{}, &stubFootball{}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var metrics model.ValidationMetrics
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &metrics))
	assert.Equal(t, 0, metrics.Total)
}

func TestRouterValidateRoundTrip(t *testing.T) {
	odds := &stubOdds{odds: model.RawOdds{HomeWin: 2.0, Draw: 3.5, AwayWin: 4.0}}

	home, away := 2, 1
	completed := arsenalFixture()
	completed.Goals.Home = &home
	completed.Goals.Away = &away
	football := &stubFootball{
		upcoming:  []footballapi.Fixture{arsenalFixture()},
		completed: []footballapi.Fixture{completed},
	}
	env := newTestEnv(t, odds, football)
	router := newRouter(env)

	payload, _ := json.Marshal(map[string]string{
		"home_team": "Arsenal",
		"away_team": "Chelsea",
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/validate", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var summary struct {
		Updated      int `json:"updated"`
		StillPending int `json:"still_pending"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 0, summary.StillPending)

	validated, err := env.Store.GetValidated(context.Background())
	require.NoError(t, err)
	require.Len(t, validated, 1)
	require.NotNil(t, validated[0].ActualResult)
	assert.Equal(t, model.OutcomeHome, *validated[0].ActualResult)
}
