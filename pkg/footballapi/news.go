package footballapi

import (
	"strings"

	"github.com/matchpulse/marketintel/internal/model"
)

// API-Football reports long-form positions; internal absences use short
// codes.
var positionCodes = map[string]string{
	"Goalkeeper": "GK",
	"Defender":   "DF",
	"Midfielder": "MF",
	"Attacker":   "ST",
}

// xgImpactByPosition is a simple heuristic: attacking positions carry the
// largest negative expected-goals impact when absent.
var xgImpactByPosition = map[string]float64{
	"ST": -0.15,
	"RW": -0.10,
	"LW": -0.10,
	"CF": -0.12,
	"MF": -0.05,
	"AM": -0.08,
	"CM": -0.05,
	"DM": -0.04,
	"DF": -0.03,
	"CB": -0.03,
	"LB": -0.03,
	"RB": -0.03,
	"GK": -0.02,
}

const defaultXGImpact = -0.05

// InjuryToAbsence converts an API injury record to a player absence. It
// reports false when the record carries no player name.
func InjuryToAbsence(inj Injury) (model.PlayerAbsence, bool) {
	name := inj.Player.Name
	if name == "" {
		return model.PlayerAbsence{}, false
	}

	position := inj.Player.Position
	if position == "" {
		position = "MF"
	}
	if code, ok := positionCodes[position]; ok {
		position = code
	} else if len(position) > 2 {
		position = strings.ToUpper(position[:2])
	}

	impact, ok := xgImpactByPosition[position]
	if !ok {
		impact = defaultXGImpact
	}

	return model.PlayerAbsence{
		PlayerName:        name,
		Position:          position,
		Reason:            classifyReason(inj.Player.Reason),
		EstimatedXGImpact: impact,
	}, true
}

func classifyReason(reason string) model.AbsenceReason {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "suspend") || strings.Contains(r, "red card"):
		return model.ReasonSuspension
	case strings.Contains(r, "rotation") || strings.Contains(r, "rest"):
		return model.ReasonRotation
	default:
		return model.ReasonInjury
	}
}
