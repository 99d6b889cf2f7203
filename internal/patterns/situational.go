package patterns

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/stitts-dev/edge-engine/internal/types"
)

// extractSituationalLayer attaches per-game context signals: scheduling
// windows, blowouts, and scoring extremes against a sport-specific
// expected total.
func (e *Extractor) extractSituationalLayer(ctx context.Context, games []types.Game, store *signalStore) error {
	now := time.Now().UTC()

	for i, g := range games {
		if i%512 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		weekday := g.StartTime.Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			store.Append(types.PatternSignal{
				GameID:     g.ID,
				Layer:      types.LayerSituational,
				Name:       "weekend_game",
				Strength:   0.65,
				DetectedAt: now,
			})
		}

		hour := g.StartTime.Hour()
		if hour < 14 {
			store.Append(types.PatternSignal{
				GameID:     g.ID,
				Layer:      types.LayerSituational,
				Name:       "early_game",
				Strength:   0.62,
				DetectedAt: now,
			})
		} else if hour >= 21 {
			store.Append(types.PatternSignal{
				GameID:     g.ID,
				Layer:      types.LayerSituational,
				Name:       "late_night_game",
				Strength:   0.64,
				DetectedAt: now,
			})
		}

		total := g.TotalScore()
		if total > 0 {
			margin := math.Abs(float64(g.HomeScore - g.AwayScore))
			if margin > 0.30*float64(total) {
				store.Append(types.PatternSignal{
					GameID:   g.ID,
					Layer:    types.LayerSituational,
					Name:     "blowout_game",
					Strength: 0.73,
					Metadata: map[string]string{
						"margin": fmt.Sprintf("%.0f", margin),
					},
					DetectedAt: now,
				})
			}

			if expected, ok := e.config.ExpectedTotals[g.SportID]; ok && expected > 0 {
				deviation := (float64(total) - expected) / expected
				if deviation >= 0.20 {
					store.Append(types.PatternSignal{
						GameID:   g.ID,
						Layer:    types.LayerSituational,
						Name:     "high_scoring_game",
						Strength: 0.69,
						Metadata: map[string]string{
							"total":    fmt.Sprintf("%d", total),
							"expected": fmt.Sprintf("%.1f", expected),
						},
						DetectedAt: now,
					})
				} else if deviation <= -0.20 {
					store.Append(types.PatternSignal{
						GameID:   g.ID,
						Layer:    types.LayerSituational,
						Name:     "low_scoring_game",
						Strength: 0.67,
						Metadata: map[string]string{
							"total":    fmt.Sprintf("%d", total),
							"expected": fmt.Sprintf("%.1f", expected),
						},
						DetectedAt: now,
					})
				}
			}
		}
	}

	return nil
}
