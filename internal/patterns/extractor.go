package patterns

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stitts-dev/edge-engine/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Config holds extraction thresholds. Zero values fall back to defaults.
type Config struct {
	RunID                 string                  // engine run id stamped on layer logs
	TrendScoreThreshold   float64                 // weekly combined-score lift over season average
	TrendHomeWinThreshold float64                 // weekly home win rate lift over season average
	DominanceWinRate      float64                 // home-side win rate for historical_dominance
	DominanceSampleSize   int                     // meetings required for historical_dominance
	StarPerformancePoints float64                 // points for a "star performance"
	ExpectedTotals        map[types.Sport]float64 // sport -> expected combined score
	Shards                int                     // signal store shard count
}

// DefaultConfig returns documented extraction defaults.
func DefaultConfig() Config {
	return Config{
		TrendScoreThreshold:   0.10,
		TrendHomeWinThreshold: 0.15,
		DominanceWinRate:      0.75,
		DominanceSampleSize:   5,
		StarPerformancePoints: 30.0,
		ExpectedTotals: map[types.Sport]float64{
			types.SportNBA: 220,
			types.SportNFL: 47,
			types.SportMLB: 9,
			types.SportNHL: 5.5,
		},
		Shards: 16,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TrendScoreThreshold <= 0 {
		c.TrendScoreThreshold = defaults.TrendScoreThreshold
	}
	if c.TrendHomeWinThreshold <= 0 {
		c.TrendHomeWinThreshold = defaults.TrendHomeWinThreshold
	}
	if c.DominanceWinRate <= 0 {
		c.DominanceWinRate = defaults.DominanceWinRate
	}
	if c.DominanceSampleSize <= 0 {
		c.DominanceSampleSize = defaults.DominanceSampleSize
	}
	if c.StarPerformancePoints <= 0 {
		c.StarPerformancePoints = defaults.StarPerformancePoints
	}
	if len(c.ExpectedTotals) == 0 {
		c.ExpectedTotals = defaults.ExpectedTotals
	}
	if c.Shards <= 0 {
		c.Shards = defaults.Shards
	}
	return c
}

// Result is the merged output of one extraction run.
type Result struct {
	Signals     map[string][]types.PatternSignal `json:"signals"`
	Confidences map[string]types.GameConfidence  `json:"confidences"`
	GamesSeen   int                              `json:"games_seen"`
	Elapsed     time.Duration                    `json:"elapsed"`
}

// Extractor mines the historical corpus across five independent layers.
// Each layer contributes zero or more PatternSignals per game; a layer
// missing its required input is skipped and never blocks the others.
type Extractor struct {
	config Config
	rng    *rand.Rand
	logger *logrus.Entry
}

// NewExtractor creates an extractor. The rng drives the profit-potential
// jitter and must be seeded by the caller for reproducible runs.
func NewExtractor(config Config, rng *rand.Rand) *Extractor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Extractor{
		config: config.withDefaults(),
		rng:    rng,
		logger: logger.WithComponent("pattern_extractor"),
	}
}

// Extract runs every layer over the corpus and aggregates per-game
// confidence. Cancellation via ctx aborts the scan; stats may be nil, which
// skips the player-impact layer.
func (e *Extractor) Extract(ctx context.Context, games []types.Game, stats []types.PlayerGameStat) (*Result, error) {
	start := time.Now()

	completed := make([]types.Game, 0, len(games))
	for _, g := range games {
		if g.Completed() {
			completed = append(completed, g)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"games_total":     len(games),
		"games_completed": len(completed),
		"stat_lines":      len(stats),
	}).Info("Starting pattern extraction")

	store := newSignalStore(e.config.Shards)

	group, groupCtx := errgroup.WithContext(ctx)
	layers := []struct {
		name string
		run  func(context.Context) error
	}{
		{"sequence", func(ctx context.Context) error { return e.extractSequenceLayer(ctx, completed, store) }},
		{"matchup", func(ctx context.Context) error { return e.extractMatchupLayer(ctx, completed, store) }},
		{"situational", func(ctx context.Context) error { return e.extractSituationalLayer(ctx, completed, store) }},
		{"trend", func(ctx context.Context) error { return e.extractTrendLayer(ctx, completed, store) }},
		{"player_impact", func(ctx context.Context) error { return e.extractPlayerImpactLayer(ctx, completed, stats, store) }},
	}
	for _, layer := range layers {
		layer := layer
		group.Go(func() error {
			log := logger.WithExtractionContext(e.config.RunID, layer.name)
			if err := layer.run(groupCtx); err != nil {
				log.WithError(err).Warn("Layer extraction aborted")
				return err
			}
			log.Debug("Layer extraction finished")
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	signals := store.Snapshot()
	confidences := make(map[string]types.GameConfidence, len(signals))
	for gameID, gameSignals := range signals {
		confidences[gameID] = e.aggregate(gameID, gameSignals)
	}

	result := &Result{
		Signals:     signals,
		Confidences: confidences,
		GamesSeen:   len(completed),
		Elapsed:     time.Since(start),
	}

	e.logger.WithFields(logrus.Fields{
		"signals":            store.Count(),
		"games_with_signals": len(signals),
		"elapsed":            result.Elapsed,
	}).Info("Pattern extraction completed")

	return result, nil
}

// gamesByTeam groups games by team id, each slice sorted chronologically.
func gamesByTeam(games []types.Game) map[string][]types.Game {
	byTeam := make(map[string][]types.Game)
	for _, g := range games {
		byTeam[g.HomeTeamID] = append(byTeam[g.HomeTeamID], g)
		byTeam[g.AwayTeamID] = append(byTeam[g.AwayTeamID], g)
	}
	for team := range byTeam {
		sort.Slice(byTeam[team], func(i, j int) bool {
			return byTeam[team][i].StartTime.Before(byTeam[team][j].StartTime)
		})
	}
	return byTeam
}

// teamWon reports whether the given team won the game.
func teamWon(g types.Game, teamID string) bool {
	if g.HomeTeamID == teamID {
		return g.HomeScore > g.AwayScore
	}
	return g.AwayScore > g.HomeScore
}

// dayGap returns whole calendar days between two game dates.
func dayGap(earlier, later time.Time) int {
	a := time.Date(earlier.Year(), earlier.Month(), earlier.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(later.Year(), later.Month(), later.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
