package lineup

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stitts-dev/edge-engine/pkg/logger"
)

// Config controls one multi-entry build batch.
type Config struct {
	RunID           string             `json:"run_id"`
	SalaryCap       int                `json:"salary_cap"`
	Slots           []Slot             `json:"slots"`
	Strategy        types.StrategyKind `json:"strategy"`
	NumLineups      int                `json:"num_lineups"`
	DiversityWindow int                `json:"diversity_window"` // GPP: pick among top-N eligible
	RepairRetries   int                `json:"repair_retries"`
	AnchorPosition  string             `json:"anchor_position"` // stack anchor, e.g. QB
	PatternBoost    map[string]float64 `json:"pattern_boost"`   // candidate id -> boost
}

// Builder constructs salary-capped rosters under a contest strategy.
// Randomness for GPP diversity comes only from the injected seeded rng.
type Builder struct {
	config Config
	rng    *rand.Rand
	logger *logrus.Entry
}

// NewBuilder validates the configuration; malformed configuration is a
// fatal precondition violation raised before any construction starts.
func NewBuilder(config Config, rng *rand.Rand) (*Builder, error) {
	if config.SalaryCap <= 0 {
		return nil, &types.ConfigError{Field: "salary_cap", Reason: "salary cap must be positive"}
	}
	if len(config.Slots) == 0 {
		return nil, &types.ConfigError{Field: "slots", Reason: "position-slot requirement map is empty"}
	}
	switch config.Strategy {
	case types.StrategyCash, types.StrategyGPP, types.StrategyBalanced:
	default:
		return nil, &types.ConfigError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", config.Strategy)}
	}
	if config.NumLineups <= 0 {
		config.NumLineups = 1
	}
	if config.DiversityWindow <= 0 {
		config.DiversityWindow = 5
	}
	if config.RepairRetries <= 0 {
		config.RepairRetries = 3
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Builder{
		config: config,
		rng:    rng,
		logger: logger.WithBuildContext(config.RunID, string(config.Strategy)),
	}, nil
}

// Build constructs the requested batch. Infeasible lineups come back with
// Valid=false and a shortfall message rather than an error; only malformed
// candidate records abort the batch.
func (b *Builder) Build(pool []types.Candidate) ([]types.Lineup, error) {
	valid := make([]types.Candidate, 0, len(pool))
	for _, c := range pool {
		if err := types.ValidateCandidate(c); err != nil {
			b.logger.WithError(err).WithField("candidate_id", c.ID).Warn("Rejecting malformed candidate")
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil, &types.ProviderError{Source: "candidate-feed", Reason: "no usable candidates in pool"}
	}

	b.logger.WithFields(logrus.Fields{
		"pool_size":   len(valid),
		"salary_cap":  b.config.SalaryCap,
		"num_lineups": b.config.NumLineups,
	}).Info("Starting lineup construction")

	lineups := make([]types.Lineup, 0, b.config.NumLineups)
	for k := 0; k < b.config.NumLineups; k++ {
		built := b.buildOne(valid, k)

		if built.Valid {
			b.repairUniqueness(&built, lineups, valid)
		}

		// Stack labels reflect the post-repair roster.
		if built.Valid && b.config.Strategy == types.StrategyGPP {
			b.applyStackBonus(&built)
		}

		lineups = append(lineups, built)
	}

	b.logger.WithField("lineups", len(lineups)).Info("Lineup construction completed")
	return lineups, nil
}

// buildOne greedily fills each slot in order using the strategy ranking,
// reserving budget for the slots still unfilled.
func (b *Builder) buildOne(pool []types.Candidate, index int) types.Lineup {
	built := types.Lineup{
		ID:            fmt.Sprintf("lineup_%d_%s", index+1, uuid.New().String()[:8]),
		StrategyLabel: string(b.config.Strategy),
	}

	minSlotSalary := minimumSalary(pool)
	used := make(map[string]bool)
	ownershipCeiling := b.ownershipCeiling(index)

	for slotIndex, slot := range b.config.Slots {
		eligible := b.rankEligible(pool, slot, used, index, ownershipCeiling)
		if len(eligible) == 0 {
			err := &types.InsufficientPoolError{Slot: slot.Name, Available: 0, Required: 1}
			built.Valid = false
			built.Shortfall = err.Error()
			b.logger.WithField("slot", slot.Name).Debug("No eligible candidates for slot")
			return built
		}

		remainingSlots := len(b.config.Slots) - slotIndex - 1
		reserve := remainingSlots * minSlotSalary

		picked, ok := b.pickForSlot(eligible, built.TotalSalary, reserve)
		if !ok {
			budget := b.config.SalaryCap - built.TotalSalary - reserve
			err := &types.BudgetInfeasibleError{
				SalaryCap: b.config.SalaryCap,
				Shortfall: minimumSalary(eligible) - budget,
			}
			built.Valid = false
			built.Shortfall = err.Error()
			b.logger.WithFields(logrus.Fields{
				"slot":    slot.Name,
				"spent":   built.TotalSalary,
				"reserve": reserve,
			}).Debug("No affordable candidate for slot")
			return built
		}

		built.Players = append(built.Players, picked)
		built.Slots = append(built.Slots, slot.Name)
		built.TotalSalary += picked.Salary
		built.TotalProjected += picked.ProjectedPoints
		built.TotalOwnership += picked.OwnershipPercent
		built.PatternScore += b.config.PatternBoost[picked.ID]
		used[picked.ID] = true
	}

	built.Valid = built.TotalSalary <= b.config.SalaryCap
	if !built.Valid {
		built.Shortfall = (&types.BudgetInfeasibleError{
			SalaryCap: b.config.SalaryCap,
			Shortfall: built.TotalSalary - b.config.SalaryCap,
		}).Error()
	}
	return built
}

// rankEligible returns the slot-eligible unused candidates, best first
// under the active strategy ranking.
func (b *Builder) rankEligible(pool []types.Candidate, slot Slot, used map[string]bool, index int, ownershipCeiling float64) []types.Candidate {
	eligible := make([]types.Candidate, 0, len(pool))
	for _, c := range pool {
		if used[c.ID] || !slot.CanFill(c) {
			continue
		}
		eligible = append(eligible, c)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return b.score(eligible[i], ownershipCeiling) > b.score(eligible[j], ownershipCeiling)
	})
	return eligible
}

// pickForSlot picks the best affordable candidate. GPP selects among the
// top DiversityWindow affordable candidates for multi-entry diversity.
func (b *Builder) pickForSlot(eligible []types.Candidate, spent, reserve int) (types.Candidate, bool) {
	affordable := make([]types.Candidate, 0, len(eligible))
	for _, c := range eligible {
		if spent+c.Salary+reserve <= b.config.SalaryCap {
			affordable = append(affordable, c)
		}
	}
	if len(affordable) == 0 {
		return types.Candidate{}, false
	}

	if b.config.Strategy == types.StrategyGPP {
		window := b.config.DiversityWindow
		if window > len(affordable) {
			window = len(affordable)
		}
		return affordable[b.rng.Intn(window)], true
	}
	return affordable[0], true
}

// score implements the strategy objective functions.
func (b *Builder) score(c types.Candidate, ownershipCeiling float64) float64 {
	value := c.ProjectedPoints / (float64(c.Salary) / 1000.0)

	switch b.config.Strategy {
	case types.StrategyCash:
		return value
	case types.StrategyGPP:
		ownership := math.Max(c.OwnershipPercent, 1.0)
		upside := c.ProjectedPoints * (1 + b.config.PatternBoost[c.ID]) / math.Sqrt(ownership)
		// Later entries in the batch chase lower ownership.
		if c.OwnershipPercent > ownershipCeiling {
			upside *= 0.8
		}
		return upside
	case types.StrategyBalanced:
		return 0.6*value + 0.4*(c.ProjectedPoints/30.0)
	default:
		return value
	}
}

// ownershipCeiling decays with lineup index so later GPP entries lean
// further contrarian.
func (b *Builder) ownershipCeiling(index int) float64 {
	ceiling := 60.0 - 5.0*float64(index)
	if ceiling < 15.0 {
		ceiling = 15.0
	}
	return ceiling
}

func minimumSalary(pool []types.Candidate) int {
	if len(pool) == 0 {
		return 0
	}
	min := pool[0].Salary
	for _, c := range pool[1:] {
		if c.Salary < min {
			min = c.Salary
		}
	}
	return min
}
