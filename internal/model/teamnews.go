package model

import "github.com/rotisserie/eris"

// AbsenceReason classifies why a player is unavailable.
type AbsenceReason string

const (
	ReasonInjury     AbsenceReason = "injury"
	ReasonSuspension AbsenceReason = "suspension"
	ReasonRotation   AbsenceReason = "rotation"
)

// Valid reports whether the reason is one of the known values.
func (r AbsenceReason) Valid() bool {
	switch r {
	case ReasonInjury, ReasonSuspension, ReasonRotation:
		return true
	}
	return false
}

// PlayerAbsence is a single missing player with a position-based xG impact
// estimate. The impact is signed; absences of attacking players carry larger
// negative magnitudes.
type PlayerAbsence struct {
	PlayerName        string        `json:"player_name"`
	Position          string        `json:"position"`
	Reason            AbsenceReason `json:"reason"`
	EstimatedXGImpact float64       `json:"estimated_xg_impact"`
}

// Validate checks the absence record's schema shape.
func (a PlayerAbsence) Validate() error {
	if a.PlayerName == "" {
		return eris.New("model: absence player_name is required")
	}
	if !a.Reason.Valid() {
		return eris.Errorf("model: absence reason %q is not one of injury, suspension, rotation", a.Reason)
	}
	return nil
}

// TeamNews is the ordered list of absences for one side. No dedup is
// performed; the list is taken as reported.
type TeamNews struct {
	Absences []PlayerAbsence `json:"absences"`
}

// MatchTeamNews pairs home and away team news for a fixture.
type MatchTeamNews struct {
	Home TeamNews `json:"home"`
	Away TeamNews `json:"away"`
}

// Validate checks every absence on both sides.
func (n MatchTeamNews) Validate() error {
	for _, a := range n.Home.Absences {
		if err := a.Validate(); err != nil {
			return eris.Wrap(err, "home")
		}
	}
	for _, a := range n.Away.Absences {
		if err := a.Validate(); err != nil {
			return eris.Wrap(err, "away")
		}
	}
	return nil
}
