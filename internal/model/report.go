package model

// OutcomeFavorite is the highest-probability outcome in a probability
// triple, with its display label (team name or "Draw").
type OutcomeFavorite struct {
	Outcome     Outcome `json:"outcome"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// MatchReport is the final descriptive market intelligence report for one
// match. It carries no prescriptive or advisory content.
type MatchReport struct {
	MatchSummary   string              `json:"match_summary"`
	MarketFavorite OutcomeFavorite     `json:"market_favorite"`
	ModelFavorite  OutcomeFavorite     `json:"model_favorite"`
	KeyTeamNews    string              `json:"key_team_news"`
	Discrepancies  []MarketDiscrepancy `json:"discrepancies"`
	Conclusion     string              `json:"conclusion"`
}
