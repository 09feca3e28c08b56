// Package footballapi wraps API-Football v3 for fixtures, results, and
// injury reports.
//
// API docs: https://www.api-football.com/documentation-v3
// The free tier allows 100 requests per day and does not support the
// "last"/"h2h" convenience parameters, so queries use explicit date ranges.
package footballapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/internal/resilience"
)

const (
	defaultBaseURL = "https://v3.football.api-sports.io"

	// PremierLeagueID is the league identifier used by API-Football.
	PremierLeagueID = 39
	// DefaultSeason is the starting year of the current season.
	DefaultSeason = 2025
)

// Client fetches fixtures and injuries from API-Football.
type Client interface {
	// UpcomingFixtures returns the next n fixtures in kickoff order,
	// looking ahead 14 days.
	UpcomingFixtures(ctx context.Context, n int) ([]Fixture, error)
	// CompletedFixtures returns up to n full-time fixtures from the last
	// 30 days, most recent first.
	CompletedFixtures(ctx context.Context, n int) ([]Fixture, error)
	// FixtureInjuries returns injury records attached to one fixture.
	FixtureInjuries(ctx context.Context, fixtureID int) ([]Injury, error)
	// TeamInjuries returns current injury records for one team.
	TeamInjuries(ctx context.Context, teamID int) ([]Injury, error)
	// MatchTeamNews assembles team news for a fixture, preferring
	// fixture-scoped injuries and falling back to per-team lookups.
	MatchTeamNews(ctx context.Context, fx Fixture) (model.MatchTeamNews, error)
}

// Fixture is one entry from GET /fixtures.
type Fixture struct {
	Fixture struct {
		ID     int       `json:"id"`
		Date   time.Time `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home Team `json:"home"`
		Away Team `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

// Team identifies one side of a fixture.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Injury is one entry from GET /injuries.
type Injury struct {
	Player struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Position string `json:"position"`
		Reason   string `json:"reason"`
	} `json:"player"`
	Team Team `json:"team"`
}

// Match converts the fixture to the internal match type.
func (f Fixture) Match() model.Match {
	league := f.League.Name
	if league == "" {
		league = "Premier League"
	}
	return model.Match{
		League:     league,
		HomeTeam:   f.Teams.Home.Name,
		AwayTeam:   f.Teams.Away.Name,
		KickoffUTC: f.Fixture.Date.UTC(),
	}
}

type apiResponse[T any] struct {
	Response []T `json:"response"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithLeague overrides the default league and season.
func WithLeague(leagueID, season int) Option {
	return func(c *httpClient) {
		c.leagueID = leagueID
		c.season = season
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request throttle.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	leagueID int
	season   int
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	now      func() time.Time
}

// NewClient creates an API-Football client for the Premier League.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		leagueID: PremierLeagueID,
		season:   DefaultSeason,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(1, 1),
		retry:   resilience.DefaultRetryConfig(),
		now:     time.Now,
	}
	c.retry.OnRetry = resilience.RetryLogger("footballapi", "get")
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "footballapi: rate limit")
		}
	}

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "footballapi: create request")
		}
		req.Header.Set("x-apisports-key", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "footballapi: send request")
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "footballapi: read response")
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("footballapi: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}
		return respBody, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "footballapi: unmarshal response")
	}
	return nil
}

func (c *httpClient) leagueParams() url.Values {
	q := url.Values{}
	q.Set("league", strconv.Itoa(c.leagueID))
	q.Set("season", strconv.Itoa(c.season))
	return q
}

func (c *httpClient) UpcomingFixtures(ctx context.Context, n int) ([]Fixture, error) {
	today := c.now().UTC()
	q := c.leagueParams()
	q.Set("from", today.Format("2006-01-02"))
	q.Set("to", today.AddDate(0, 0, 14).Format("2006-01-02"))

	var result apiResponse[Fixture]
	if err := c.get(ctx, "fixtures", q, &result); err != nil {
		return nil, err
	}

	fixtures := result.Response
	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Fixture.Date.Before(fixtures[j].Fixture.Date)
	})
	if n > 0 && len(fixtures) > n {
		fixtures = fixtures[:n]
	}
	return fixtures, nil
}

func (c *httpClient) CompletedFixtures(ctx context.Context, n int) ([]Fixture, error) {
	today := c.now().UTC()
	q := c.leagueParams()
	q.Set("from", today.AddDate(0, 0, -30).Format("2006-01-02"))
	q.Set("to", today.Format("2006-01-02"))
	q.Set("status", "FT")

	var result apiResponse[Fixture]
	if err := c.get(ctx, "fixtures", q, &result); err != nil {
		return nil, err
	}

	fixtures := result.Response
	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Fixture.Date.After(fixtures[j].Fixture.Date)
	})
	if n > 0 && len(fixtures) > n {
		fixtures = fixtures[:n]
	}
	return fixtures, nil
}

func (c *httpClient) FixtureInjuries(ctx context.Context, fixtureID int) ([]Injury, error) {
	q := url.Values{}
	q.Set("fixture", strconv.Itoa(fixtureID))

	var result apiResponse[Injury]
	if err := c.get(ctx, "injuries", q, &result); err != nil {
		return nil, err
	}
	return result.Response, nil
}

func (c *httpClient) TeamInjuries(ctx context.Context, teamID int) ([]Injury, error) {
	q := c.leagueParams()
	q.Set("team", strconv.Itoa(teamID))

	var result apiResponse[Injury]
	if err := c.get(ctx, "injuries", q, &result); err != nil {
		return nil, err
	}
	return result.Response, nil
}

// MatchTeamNews prefers injuries scoped to the fixture. When a side has
// none, its current team injury list is fetched instead; both fallback
// lookups run concurrently.
func (c *httpClient) MatchTeamNews(ctx context.Context, fx Fixture) (model.MatchTeamNews, error) {
	homeID := fx.Teams.Home.ID
	awayID := fx.Teams.Away.ID

	var home, away []model.PlayerAbsence

	if fx.Fixture.ID != 0 {
		injuries, err := c.FixtureInjuries(ctx, fx.Fixture.ID)
		if err != nil {
			return model.MatchTeamNews{}, err
		}
		for _, inj := range injuries {
			absence, ok := InjuryToAbsence(inj)
			if !ok {
				continue
			}
			switch inj.Team.ID {
			case homeID:
				home = append(home, absence)
			case awayID:
				away = append(away, absence)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(home) == 0 && homeID != 0 {
		g.Go(func() error {
			injuries, err := c.TeamInjuries(gctx, homeID)
			if err != nil {
				return err
			}
			home = collectAbsences(injuries)
			return nil
		})
	}
	if len(away) == 0 && awayID != 0 {
		g.Go(func() error {
			injuries, err := c.TeamInjuries(gctx, awayID)
			if err != nil {
				return err
			}
			away = collectAbsences(injuries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.MatchTeamNews{}, err
	}

	return model.MatchTeamNews{
		Home: model.TeamNews{Absences: home},
		Away: model.TeamNews{Absences: away},
	}, nil
}

func collectAbsences(injuries []Injury) []model.PlayerAbsence {
	var out []model.PlayerAbsence
	for _, inj := range injuries {
		if absence, ok := InjuryToAbsence(inj); ok {
			out = append(out, absence)
		}
	}
	return out
}

