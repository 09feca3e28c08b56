// Package oddsapi wraps The Odds API v4 for fetching live 1X2 betting odds.
//
// API docs: https://the-odds-api.com/liveapi/guides/v4/
// The free tier allows 500 requests per month, so callers should cache
// responses aggressively.
package oddsapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/matchpulse/marketintel/internal/model"
	"github.com/matchpulse/marketintel/internal/resilience"
)

const (
	defaultBaseURL = "https://api.the-odds-api.com/v4"
	defaultSport   = "soccer_epl"
)

// Client fetches match odds from The Odds API.
type Client interface {
	// SportOdds fetches all upcoming events for the configured sport with
	// h2h (1X2) odds from UK bookmakers.
	SportOdds(ctx context.Context) ([]Event, error)
	// OddsForMatch finds the event matching the given team names and
	// returns its odds from the first bookmaker with a complete h2h
	// market. Returns ErrMatchNotFound when no event matches.
	OddsForMatch(ctx context.Context, homeTeam, awayTeam string) (model.RawOdds, error)
	// UpcomingMatches returns all events that have usable h2h odds.
	UpcomingMatches(ctx context.Context) ([]UpcomingMatch, error)
}

// ErrMatchNotFound indicates no event matched the requested teams.
var ErrMatchNotFound = eris.New("oddsapi: match not found")

// Event is a single event from GET /sports/{sport}/odds.
type Event struct {
	ID           string      `json:"id"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker carries one bookmaker's markets for an event.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Market is a single priced market (we only request h2h).
type Market struct {
	Key      string          `json:"key"`
	Outcomes []MarketOutcome `json:"outcomes"`
}

// MarketOutcome is one priced outcome within a market.
type MarketOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// UpcomingMatch pairs an event's teams and kickoff with its extracted odds.
type UpcomingMatch struct {
	HomeTeam   string        `json:"home_team"`
	AwayTeam   string        `json:"away_team"`
	KickoffUTC time.Time     `json:"kickoff_utc"`
	Odds       model.RawOdds `json:"odds"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithSport overrides the default sport key (soccer_epl).
func WithSport(sport string) Option {
	return func(c *httpClient) {
		c.sport = sport
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
	apiKey  string
	baseURL string
	sport   string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an Odds API client. Requests are throttled to 1 req/s
// by default to stay well inside the free-tier quota.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		sport:   defaultSport,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(1, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("oddsapi", "sport odds")
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) SportOdds(ctx context.Context) ([]Event, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "oddsapi: rate limit")
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", "uk")
	q.Set("markets", "h2h")
	q.Set("oddsFormat", "decimal")

	endpoint := c.baseURL + "/sports/" + c.sport + "/odds?" + q.Encode()
	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "oddsapi: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "oddsapi: send request")
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "oddsapi: read response")
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := eris.Errorf("oddsapi: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
			}
			return nil, statusErr
		}
		return respBody, nil
	})
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, eris.Wrap(err, "oddsapi: unmarshal response")
	}
	return events, nil
}

func (c *httpClient) OddsForMatch(ctx context.Context, homeTeam, awayTeam string) (model.RawOdds, error) {
	events, err := c.SportOdds(ctx)
	if err != nil {
		return model.RawOdds{}, err
	}

	for _, ev := range events {
		if !teamsMatch(homeTeam, ev.HomeTeam) || !teamsMatch(awayTeam, ev.AwayTeam) {
			continue
		}
		odds, ok := extractOdds(ev)
		if !ok {
			continue
		}
		return odds, nil
	}
	return model.RawOdds{}, eris.Wrapf(ErrMatchNotFound, "%s vs %s", homeTeam, awayTeam)
}

func (c *httpClient) UpcomingMatches(ctx context.Context) ([]UpcomingMatch, error) {
	events, err := c.SportOdds(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]UpcomingMatch, 0, len(events))
	for _, ev := range events {
		odds, ok := extractOdds(ev)
		if !ok {
			continue
		}
		matches = append(matches, UpcomingMatch{
			HomeTeam:   ev.HomeTeam,
			AwayTeam:   ev.AwayTeam,
			KickoffUTC: ev.CommenceTime,
			Odds:       odds,
		})
	}
	return matches, nil
}

// teamsMatch compares team names case-insensitively, accepting a partial
// match in either direction so "Wolves" matches "Wolverhampton Wanderers".
func teamsMatch(requested, fromAPI string) bool {
	a := strings.ToLower(requested)
	b := strings.ToLower(fromAPI)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// extractOdds pulls decimal 1X2 prices from the first bookmaker carrying a
// complete h2h market for the event. Markets missing an outcome or pricing
// one at or below 1.0 are skipped.
func extractOdds(ev Event) (model.RawOdds, bool) {
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != "h2h" {
				continue
			}
			prices := make(map[string]float64, len(m.Outcomes))
			for _, o := range m.Outcomes {
				prices[o.Name] = o.Price
			}
			odds, err := model.NewRawOdds(prices[ev.HomeTeam], prices["Draw"], prices[ev.AwayTeam])
			if err != nil {
				continue
			}
			return odds, true
		}
	}
	return model.RawOdds{}, false
}
