package model

import "time"

// Match identifies a single fixture.
type Match struct {
	League     string    `json:"league"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	KickoffUTC time.Time `json:"kickoff_utc"`
}
