package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/stitts-dev/edge-engine/internal/types"
	"gonum.org/v1/gonum/stat"
)

type weekBucket struct {
	games     []types.Game
	totals    []float64
	homeWins  int
	completed int
}

// extractTrendLayer groups games by sport and ISO week, then flags weeks
// whose scoring pace or home win rate runs hot against the season average.
func (e *Extractor) extractTrendLayer(ctx context.Context, games []types.Game, store *signalStore) error {
	type sportSeason struct {
		weeks  map[string]*weekBucket
		totals []float64
		wins   int
		played int
	}

	seasons := make(map[types.Sport]*sportSeason)

	for i, g := range games {
		if i%512 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		season, ok := seasons[g.SportID]
		if !ok {
			season = &sportSeason{weeks: make(map[string]*weekBucket)}
			seasons[g.SportID] = season
		}

		year, week := g.StartTime.ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)
		bucket, ok := season.weeks[key]
		if !ok {
			bucket = &weekBucket{}
			season.weeks[key] = bucket
		}

		bucket.games = append(bucket.games, g)
		bucket.totals = append(bucket.totals, float64(g.TotalScore()))
		bucket.completed++
		season.totals = append(season.totals, float64(g.TotalScore()))
		season.played++
		if g.HomeWon() {
			bucket.homeWins++
			season.wins++
		}
	}

	now := time.Now().UTC()

	for _, season := range seasons {
		if season.played == 0 {
			continue
		}
		seasonAvgTotal := stat.Mean(season.totals, nil)
		seasonHomeRate := float64(season.wins) / float64(season.played)

		for key, bucket := range season.weeks {
			if bucket.completed == 0 {
				continue
			}
			weekAvgTotal := stat.Mean(bucket.totals, nil)
			weekHomeRate := float64(bucket.homeWins) / float64(bucket.completed)

			highScoring := seasonAvgTotal > 0 && weekAvgTotal >= seasonAvgTotal*(1+e.config.TrendScoreThreshold)
			strongHome := seasonHomeRate > 0 && weekHomeRate >= seasonHomeRate*(1+e.config.TrendHomeWinThreshold)
			if !highScoring && !strongHome {
				continue
			}

			for _, g := range bucket.games {
				if highScoring {
					store.Append(types.PatternSignal{
						GameID:   g.ID,
						Layer:    types.LayerTrend,
						Name:     "high_scoring_week",
						Strength: 0.70,
						Metadata: map[string]string{
							"week":       key,
							"week_avg":   fmt.Sprintf("%.1f", weekAvgTotal),
							"season_avg": fmt.Sprintf("%.1f", seasonAvgTotal),
						},
						DetectedAt: now,
					})
				}
				if strongHome {
					store.Append(types.PatternSignal{
						GameID:   g.ID,
						Layer:    types.LayerTrend,
						Name:     "strong_home_week",
						Strength: 0.66,
						Metadata: map[string]string{
							"week":        key,
							"week_rate":   fmt.Sprintf("%.2f", weekHomeRate),
							"season_rate": fmt.Sprintf("%.2f", seasonHomeRate),
						},
						DetectedAt: now,
					})
				}
			}
		}
	}

	return nil
}
