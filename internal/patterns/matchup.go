package patterns

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stitts-dev/edge-engine/internal/types"
)

// extractMatchupLayer mines head-to-head history for every unordered team
// pair: home-side dominance and scoring trends.
func (e *Extractor) extractMatchupLayer(ctx context.Context, games []types.Game, store *signalStore) error {
	meetings := make(map[string][]types.Game)
	for _, g := range games {
		meetings[pairKey(g.HomeTeamID, g.AwayTeamID)] = append(meetings[pairKey(g.HomeTeamID, g.AwayTeamID)], g)
	}

	now := time.Now().UTC()
	processed := 0

	for key, pairGames := range meetings {
		processed++
		if processed%256 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		if len(pairGames) < 3 {
			continue
		}

		sort.Slice(pairGames, func(i, j int) bool {
			return pairGames[i].StartTime.Before(pairGames[j].StartTime)
		})

		homeWins := 0
		totalScore := 0
		for _, g := range pairGames {
			if g.HomeWon() {
				homeWins++
			}
			totalScore += g.TotalScore()
		}
		homeWinRate := float64(homeWins) / float64(len(pairGames))

		// Dominance attaches to the two most recent meetings only.
		if homeWinRate > e.config.DominanceWinRate && len(pairGames) >= e.config.DominanceSampleSize {
			for _, g := range pairGames[len(pairGames)-2:] {
				store.Append(types.PatternSignal{
					GameID:   g.ID,
					Layer:    types.LayerMatchup,
					Name:     "historical_dominance",
					Strength: 0.78,
					Metadata: map[string]string{
						"pair":          key,
						"home_win_rate": fmt.Sprintf("%.2f", homeWinRate),
						"meetings":      fmt.Sprintf("%d", len(pairGames)),
					},
					DetectedAt: now,
				})
			}
		}

		allTimeAvg := float64(totalScore) / float64(len(pairGames))
		recent := pairGames[len(pairGames)-3:]
		recentTotal := 0
		for _, g := range recent {
			recentTotal += g.TotalScore()
		}
		recentAvg := float64(recentTotal) / float64(len(recent))

		if allTimeAvg > 0 && recentAvg >= 1.15*allTimeAvg {
			latest := pairGames[len(pairGames)-1]
			store.Append(types.PatternSignal{
				GameID:   latest.ID,
				Layer:    types.LayerMatchup,
				Name:     "scoring_trend_up",
				Strength: 0.71,
				Metadata: map[string]string{
					"pair":         key,
					"recent_avg":   fmt.Sprintf("%.1f", recentAvg),
					"all_time_avg": fmt.Sprintf("%.1f", allTimeAvg),
				},
				DetectedAt: now,
			})
		}
	}

	return nil
}

// pairKey builds an order-independent key for a team pair.
func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}
