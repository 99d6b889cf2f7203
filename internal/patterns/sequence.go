package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/stitts-dev/edge-engine/internal/types"
	"golang.org/x/sync/errgroup"
)

// extractSequenceLayer mines per-team chronological runs: schedule
// compression and streaks. Independent per team, so teams fan out.
func (e *Extractor) extractSequenceLayer(ctx context.Context, games []types.Game, store *signalStore) error {
	byTeam := gamesByTeam(games)
	if len(byTeam) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(8)

	for teamID, teamGames := range byTeam {
		teamID, teamGames := teamID, teamGames
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}
			e.scanTeamSequence(teamID, teamGames, store)
			return nil
		})
	}

	return group.Wait()
}

func (e *Extractor) scanTeamSequence(teamID string, teamGames []types.Game, store *signalStore) {
	now := time.Now().UTC()

	for i := 2; i < len(teamGames); i++ {
		first, second, third := teamGames[i-2], teamGames[i-1], teamGames[i]

		// Three games with day-gaps of at most one between each pair.
		if dayGap(first.StartTime, second.StartTime) <= 1 && dayGap(second.StartTime, third.StartTime) <= 1 {
			store.Append(types.PatternSignal{
				GameID:   third.ID,
				Layer:    types.LayerSequence,
				Name:     "triple_back_to_back",
				Strength: 0.85,
				Metadata: map[string]string{
					"team_id":    teamID,
					"first_game": first.ID,
				},
				DetectedAt: now,
			})
		}

		if teamWon(first, teamID) && teamWon(second, teamID) && teamWon(third, teamID) {
			store.Append(types.PatternSignal{
				GameID:   third.ID,
				Layer:    types.LayerSequence,
				Name:     "hot_streak_3",
				Strength: 0.72,
				Metadata: map[string]string{
					"team_id": teamID,
				},
				DetectedAt: now,
			})
		}

		if !teamWon(first, teamID) && !teamWon(second, teamID) && teamWon(third, teamID) {
			store.Append(types.PatternSignal{
				GameID:   third.ID,
				Layer:    types.LayerSequence,
				Name:     "bounce_back_after_2L",
				Strength: 0.68,
				Metadata: map[string]string{
					"team_id": teamID,
					"losses":  fmt.Sprintf("%s,%s", first.ID, second.ID),
				},
				DetectedAt: now,
			})
		}
	}
}
