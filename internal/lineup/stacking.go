package lineup

import (
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/types"
)

const (
	stackBonus      = 5.0
	correlatedBonus = 3.0
	correlatedTeams = 5
)

// applyStackBonus rewards GPP lineups that capture correlated scoring:
// a teammate stacked with the anchor position, and a roster concentrated
// across few teams.
func (b *Builder) applyStackBonus(built *types.Lineup) {
	if b.config.AnchorPosition == "" {
		return
	}

	var anchor *types.Candidate
	for i := range built.Players {
		if built.Players[i].Position == b.config.AnchorPosition {
			anchor = &built.Players[i]
			break
		}
	}
	if anchor == nil {
		return
	}

	teammates := 0
	teams := make(map[string]bool)
	for _, p := range built.Players {
		teams[p.Team] = true
		if p.ID != anchor.ID && p.Team == anchor.Team {
			teammates++
		}
	}

	if teammates >= 1 {
		built.StrategyLabel += " +stack"
		built.PatternScore += stackBonus
	}
	if len(teams) <= correlatedTeams {
		built.StrategyLabel += " correlated"
		built.PatternScore += correlatedBonus
	}

	if teammates >= 1 || len(teams) <= correlatedTeams {
		b.logger.WithFields(logrus.Fields{
			"lineup_id":      built.ID,
			"anchor_team":    anchor.Team,
			"teammates":      teammates,
			"distinct_teams": len(teams),
		}).Debug("Stack bonus applied")
	}
}
