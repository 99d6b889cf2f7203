package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/stitts-dev/edge-engine/internal/types"
	"gonum.org/v1/gonum/stat"
)

// extractPlayerImpactLayer mines per-player stat lines for star-driven and
// balanced-scoring games. Requires player-level stats; without them the
// layer is skipped silently, never blocking the other layers.
func (e *Extractor) extractPlayerImpactLayer(ctx context.Context, games []types.Game, stats []types.PlayerGameStat, store *signalStore) error {
	if len(stats) == 0 {
		e.logger.Debug("Player-impact layer skipped, no player stats provided")
		return nil
	}

	gameIDs := make(map[string]bool, len(games))
	for _, g := range games {
		gameIDs[g.ID] = true
	}

	byGame := make(map[string][]types.PlayerGameStat)
	for _, line := range stats {
		if gameIDs[line.GameID] {
			byGame[line.GameID] = append(byGame[line.GameID], line)
		}
	}

	now := time.Now().UTC()
	processed := 0

	for gameID, lines := range byGame {
		processed++
		if processed%256 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		starCount := 0
		scorers := make([]float64, 0, len(lines))
		for _, line := range lines {
			if line.Points >= e.config.StarPerformancePoints {
				starCount++
			}
			if line.Points > 0 {
				scorers = append(scorers, line.Points)
			}
		}

		if starCount >= 2 {
			store.Append(types.PatternSignal{
				GameID:   gameID,
				Layer:    types.LayerPlayerImpact,
				Name:     "multiple_star_performances",
				Strength: 0.74,
				Metadata: map[string]string{
					"stars":     fmt.Sprintf("%d", starCount),
					"threshold": fmt.Sprintf("%.0f", e.config.StarPerformancePoints),
				},
				DetectedAt: now,
			})
		}

		if len(scorers) >= 8 {
			mean := stat.Mean(scorers, nil)
			variance := stat.Variance(scorers, nil)
			if mean > 0 && variance < mean/2 {
				store.Append(types.PatternSignal{
					GameID:   gameID,
					Layer:    types.LayerPlayerImpact,
					Name:     "balanced_scoring",
					Strength: 0.68,
					Metadata: map[string]string{
						"scorers":  fmt.Sprintf("%d", len(scorers)),
						"variance": fmt.Sprintf("%.1f", variance),
					},
					DetectedAt: now,
				})
			}
		}
	}

	return nil
}
