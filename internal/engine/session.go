package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/contest"
	"github.com/stitts-dev/edge-engine/internal/ensemble"
	"github.com/stitts-dev/edge-engine/internal/lineup"
	"github.com/stitts-dev/edge-engine/internal/patterns"
	"github.com/stitts-dev/edge-engine/internal/store"
	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stitts-dev/edge-engine/pkg/config"
	"github.com/stitts-dev/edge-engine/pkg/logger"
)

// Session is the explicit run object holding configuration, the seeded
// random source, and per-run caches. One session per slate keeps runs
// isolated; nothing in the engine lives at package level.
type Session struct {
	config    *config.Config
	rng       *rand.Rand
	runID     string
	logger    *logrus.Entry
	scorer    *ensemble.Scorer
	extractor *patterns.Extractor
	analyzer  *contest.Analyzer
	records   *store.RecordStore
}

// NewSession validates configuration and wires the components. Configuration
// problems are fatal here, before any computation begins.
func NewSession(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		return nil, &types.ConfigError{Field: "config", Reason: "configuration is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	scorer, err := ensemble.NewScorer(ensemble.Config{
		Multipliers: map[ensemble.Section]float64{
			ensemble.SectionBase:      cfg.BaseMultiplier,
			ensemble.SectionWeather:   cfg.WeatherMultiplier,
			ensemble.SectionMomentum:  cfg.MomentumMultiplier,
			ensemble.SectionSentiment: cfg.SentimentMultiplier,
			ensemble.SectionSchedule:  cfg.ScheduleMultiplier,
		},
	})
	if err != nil {
		return nil, err
	}

	expectedTotals := make(map[types.Sport]float64, len(cfg.ExpectedTotals))
	for sport, total := range cfg.ExpectedTotals {
		expectedTotals[types.Sport(sport)] = total
	}

	runID := uuid.New().String()

	extractor := patterns.NewExtractor(patterns.Config{
		RunID:                 runID,
		TrendScoreThreshold:   cfg.TrendScoreThreshold,
		TrendHomeWinThreshold: cfg.TrendHomeWinThreshold,
		DominanceWinRate:      cfg.DominanceWinRate,
		DominanceSampleSize:   cfg.DominanceSampleSize,
		StarPerformancePoints: cfg.StarPerformancePoints,
		ExpectedTotals:        expectedTotals,
		Shards:                cfg.ExtractionShards,
	}, rng)

	return &Session{
		config:    cfg,
		rng:       rng,
		runID:     runID,
		logger:    logger.WithComponent("engine").WithField("run_id", runID),
		scorer:    scorer,
		extractor: extractor,
		analyzer:  contest.NewAnalyzer(),
	}, nil
}

// WithRecordStore attaches an optional write-back store for predictions and
// signals. Failures to persist are logged, never fatal.
func (s *Session) WithRecordStore(records *store.RecordStore) *Session {
	s.records = records
	return s
}

// RunID returns the unique id for this session's runs.
func (s *Session) RunID() string {
	return s.runID
}

// RunInput carries one slate's worth of data through the pipeline.
type RunInput struct {
	Sport       types.Sport
	Platform    string
	Strategy    types.ContestStrategy
	SalaryCap   int
	NumLineups  int
	Candidates  []types.Candidate
	Games       []types.Game
	PlayerStats []types.PlayerGameStat
	Bundles     []ensemble.FeatureBundle
}

// RunResult is the structured output of one pipeline run.
type RunResult struct {
	RunID       string
	Predictions []types.EnsemblePrediction
	Patterns    *patterns.Result
	Lineups     []types.Lineup
	Report      *contest.Report
	Partial     bool
	Warnings    []string
}

// Run executes extract, score, build, analyze. Provider failures surface as
// a partial result: everything computed before the failure is returned and
// the error indicates what is missing.
func (s *Session) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	if err := input.Strategy.Validate(); err != nil {
		return nil, err
	}

	slots := lineup.SlotsFor(input.Sport, input.Platform)
	if len(slots) == 0 {
		return nil, &types.ConfigError{
			Field:  "platform",
			Reason: fmt.Sprintf("no position-slot map for %s/%s", input.Sport, input.Platform),
		}
	}

	result := &RunResult{RunID: s.runID}

	// Pattern extraction over the historical corpus.
	if len(input.Games) > 0 {
		extracted, err := s.extractor.Extract(ctx, input.Games, input.PlayerStats)
		if err != nil {
			return result, err
		}
		result.Patterns = extracted
	} else {
		result.Partial = true
		result.Warnings = append(result.Warnings, "no historical corpus supplied, pattern layers skipped")
	}

	// Ensemble scoring, independent per subject.
	for _, bundle := range input.Bundles {
		result.Predictions = append(result.Predictions, s.scorer.Score(bundle))
	}

	// Lineup construction.
	builder, err := lineup.NewBuilder(lineup.Config{
		RunID:           s.runID,
		SalaryCap:       input.SalaryCap,
		Slots:           slots,
		Strategy:        input.Strategy.Kind,
		NumLineups:      input.NumLineups,
		DiversityWindow: s.config.DiversityWindow,
		RepairRetries:   s.config.RepairRetries,
		AnchorPosition:  lineup.AnchorPositionFor(input.Sport),
		PatternBoost:    s.patternBoost(input.Candidates, input.Games, result.Patterns),
	}, s.rng)
	if err != nil {
		return result, err
	}

	lineups, err := builder.Build(input.Candidates)
	if err != nil {
		// Signals already mined stay valid even when the feed fails.
		var providerErr *types.ProviderError
		if errors.As(err, &providerErr) {
			result.Partial = true
			result.Warnings = append(result.Warnings, providerErr.Error())
			s.persist(ctx, result)
			return result, err
		}
		return result, err
	}
	result.Lineups = lineups

	report, err := s.analyzer.Analyze(input.Strategy, lineups, input.SalaryCap)
	if err != nil {
		return result, err
	}
	result.Report = report

	s.persist(ctx, result)

	logger.WithRunContext(s.runID, string(input.Sport), input.Platform).WithFields(logrus.Fields{
		"predictions": len(result.Predictions),
		"lineups":     len(result.Lineups),
		"partial":     result.Partial,
	}).Info("Engine run completed")

	return result, nil
}

// patternBoost folds per-game confidence into a per-candidate boost via
// team membership: a candidate inherits the strongest confidence among its
// team's recent games.
func (s *Session) patternBoost(candidates []types.Candidate, games []types.Game, extracted *patterns.Result) map[string]float64 {
	if extracted == nil || len(extracted.Confidences) == 0 {
		return nil
	}

	teamBoost := make(map[string]float64)
	for _, g := range games {
		confidence, ok := extracted.Confidences[g.ID]
		if !ok {
			continue
		}
		boost := confidence.Confidence * 0.15
		if boost > teamBoost[g.HomeTeamID] {
			teamBoost[g.HomeTeamID] = boost
		}
		if boost > teamBoost[g.AwayTeamID] {
			teamBoost[g.AwayTeamID] = boost
		}
	}

	boosts := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		if boost, ok := teamBoost[c.Team]; ok && boost > 0 {
			boosts[c.ID] = boost
		}
	}
	return boosts
}

// persist writes predictions and signals to the optional record store.
func (s *Session) persist(ctx context.Context, result *RunResult) {
	if s.records == nil {
		return
	}
	for _, prediction := range result.Predictions {
		if err := s.records.SavePrediction(ctx, prediction); err != nil {
			s.logger.WithError(err).WithField("subject_id", prediction.SubjectID).Warn("Prediction write-back failed")
		}
	}
	if result.Patterns != nil {
		for gameID, signals := range result.Patterns.Signals {
			if err := s.records.SaveSignals(ctx, gameID, signals); err != nil {
				s.logger.WithError(err).WithField("game_id", gameID).Warn("Signal write-back failed")
			}
		}
	}
}

// Summary renders a human-readable digest of the run.
func (r *RunResult) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "run %s\n", r.RunID)

	if r.Patterns != nil {
		fmt.Fprintf(&sb, "patterns: %d games mined, %d with signals\n", r.Patterns.GamesSeen, len(r.Patterns.Signals))
	}

	for _, p := range r.Predictions {
		fmt.Fprintf(&sb, "prediction %s: %.2f (confidence %.2f) - %s\n",
			p.SubjectID, p.Probability, p.Confidence, strings.Join(p.Reasoning, "; "))
	}

	validCount := 0
	for _, l := range r.Lineups {
		if l.Valid {
			validCount++
		}
	}
	if len(r.Lineups) > 0 {
		fmt.Fprintf(&sb, "lineups: %d built, %d valid\n", len(r.Lineups), validCount)
	}

	if r.Report != nil {
		fmt.Fprintf(&sb, "%s\n", r.Report.Summary)
		for _, rec := range r.Report.Recommendations {
			fmt.Fprintf(&sb, "  - %s\n", rec)
		}
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(&sb, "warning: %s\n", warning)
	}

	return sb.String()
}
