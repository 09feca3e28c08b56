package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matchpulse/marketintel/internal/model"
)

func TestAggregateAbsences_Empty(t *testing.T) {
	adj := AggregateAbsences(model.MatchTeamNews{})
	assert.Equal(t, 0.0, adj.HomeXGDelta)
	assert.Equal(t, 0.0, adj.AwayXGDelta)
}

func TestAggregateAbsences_SignedSumsPerSide(t *testing.T) {
	news := model.MatchTeamNews{
		Home: model.TeamNews{Absences: []model.PlayerAbsence{
			{PlayerName: "A", Position: "ST", Reason: model.ReasonInjury, EstimatedXGImpact: -0.15},
			{PlayerName: "B", Position: "MF", Reason: model.ReasonSuspension, EstimatedXGImpact: -0.05},
		}},
		Away: model.TeamNews{Absences: []model.PlayerAbsence{
			{PlayerName: "C", Position: "CB", Reason: model.ReasonRotation, EstimatedXGImpact: -0.03},
		}},
	}

	adj := AggregateAbsences(news)
	assert.InDelta(t, -0.20, adj.HomeXGDelta, 1e-12)
	assert.InDelta(t, -0.03, adj.AwayXGDelta, 1e-12)
}

func TestTotalXGImpact_NoDedup(t *testing.T) {
	// Duplicate entries count twice; the list is taken as reported.
	news := model.TeamNews{Absences: []model.PlayerAbsence{
		{PlayerName: "A", Position: "ST", Reason: model.ReasonInjury, EstimatedXGImpact: -0.15},
		{PlayerName: "A", Position: "ST", Reason: model.ReasonInjury, EstimatedXGImpact: -0.15},
	}}
	assert.InDelta(t, -0.30, TotalXGImpact(news), 1e-12)
}
