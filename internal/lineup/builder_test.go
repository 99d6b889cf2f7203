package lineup

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nflSlots(t *testing.T) []Slot {
	t.Helper()
	slots := SlotsFor(types.SportNFL, "draftkings")
	require.Len(t, slots, 9)
	return slots
}

// exactFitPool is nine candidates, one per DraftKings NFL slot, whose
// salaries sum to 49,700.
func exactFitPool() []types.Candidate {
	return []types.Candidate{
		{ID: "qb1", Name: "Allen", Team: "BUF", Position: "QB", Salary: 7000, ProjectedPoints: 24.5, OwnershipPercent: 22},
		{ID: "rb1", Name: "McCaffrey", Team: "SF", Position: "RB", Salary: 7500, ProjectedPoints: 23.0, OwnershipPercent: 35},
		{ID: "rb2", Name: "Barkley", Team: "PHI", Position: "RB", Salary: 6500, ProjectedPoints: 19.0, OwnershipPercent: 28},
		{ID: "wr1", Name: "Lamb", Team: "DAL", Position: "WR", Salary: 6800, ProjectedPoints: 21.0, OwnershipPercent: 25},
		{ID: "wr2", Name: "Hill", Team: "MIA", Position: "WR", Salary: 6300, ProjectedPoints: 20.0, OwnershipPercent: 30},
		{ID: "wr3", Name: "Olave", Team: "NO", Position: "WR", Salary: 4500, ProjectedPoints: 13.5, OwnershipPercent: 12},
		{ID: "te1", Name: "Kelce", Team: "KC", Position: "TE", Salary: 5000, ProjectedPoints: 15.0, OwnershipPercent: 20},
		{ID: "rb3", Name: "Gibbs", Team: "DET", Position: "RB", Salary: 4100, ProjectedPoints: 12.0, OwnershipPercent: 10},
		{ID: "dst1", Name: "Ravens", Team: "BAL", Position: "DST", Salary: 2000, ProjectedPoints: 8.0, OwnershipPercent: 8},
	}
}

// widePool returns a 50-candidate pool priced so every full roster fits
// under the standard $50,000 cap regardless of pick order.
func widePool() []types.Candidate {
	pool := make([]types.Candidate, 0, 50)
	add := func(position string, count, baseSalary, salaryStep int, basePoints, pointsStep float64) {
		for i := 0; i < count; i++ {
			pool = append(pool, types.Candidate{
				ID:               fmt.Sprintf("%s%d", position, i),
				Name:             fmt.Sprintf("%s Player %d", position, i),
				Team:             fmt.Sprintf("T%d", i%8),
				Position:         position,
				Salary:           baseSalary - i*salaryStep,
				ProjectedPoints:  basePoints - float64(i)*pointsStep,
				OwnershipPercent: float64(5 + (i*7)%40),
			})
		}
	}
	add("QB", 8, 6000, 250, 24, 1.0)
	add("RB", 12, 6400, 300, 22, 1.1)
	add("WR", 16, 5800, 150, 21, 0.7)
	add("TE", 8, 4800, 200, 14, 0.8)
	add("DST", 6, 3000, 100, 9, 0.5)
	return pool
}

func newTestBuilder(t *testing.T, config Config) *Builder {
	t.Helper()
	builder, err := NewBuilder(config, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return builder
}

func TestNewBuilder_RejectsMalformedConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"zero salary cap", Config{Slots: SlotsFor(types.SportNFL, "draftkings"), Strategy: types.StrategyCash}},
		{"empty slots", Config{SalaryCap: 50000, Strategy: types.StrategyCash}},
		{"unknown strategy", Config{SalaryCap: 50000, Slots: SlotsFor(types.SportNFL, "draftkings"), Strategy: "yolo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(tt.config, rand.New(rand.NewSource(1)))
			require.Error(t, err)
			var configErr *types.ConfigError
			assert.ErrorAs(t, err, &configErr)
		})
	}
}

func TestBuild_ExactFitUsesAllNine(t *testing.T) {
	pool := exactFitPool()
	totalSalary := 0
	for _, c := range pool {
		totalSalary += c.Salary
	}

	builder := newTestBuilder(t, Config{
		SalaryCap:  50000,
		Slots:      nflSlots(t),
		Strategy:   types.StrategyCash,
		NumLineups: 1,
	})

	lineups, err := builder.Build(pool)
	require.NoError(t, err)
	require.Len(t, lineups, 1)

	built := lineups[0]
	assert.True(t, built.Valid, "shortfall: %s", built.Shortfall)
	assert.Len(t, built.Players, 9)
	assert.Equal(t, totalSalary, built.TotalSalary)

	seen := make(map[string]bool)
	for _, p := range built.Players {
		assert.False(t, seen[p.ID], "player %s rostered twice", p.ID)
		seen[p.ID] = true
	}
}

func TestBuild_SlotEligibilityRespected(t *testing.T) {
	slots := nflSlots(t)
	builder := newTestBuilder(t, Config{
		SalaryCap:  50000,
		Slots:      slots,
		Strategy:   types.StrategyCash,
		NumLineups: 1,
	})

	lineups, err := builder.Build(widePool())
	require.NoError(t, err)
	require.Len(t, lineups, 1)
	built := lineups[0]
	require.True(t, built.Valid, "shortfall: %s", built.Shortfall)
	require.Len(t, built.Slots, len(slots))

	for i, slotName := range built.Slots {
		slot := slots[i]
		assert.Equal(t, slot.Name, slotName)
		assert.True(t, slot.CanFill(built.Players[i]),
			"player %s (%s) cannot fill slot %s", built.Players[i].Name, built.Players[i].Position, slot.Name)
	}
	assert.LessOrEqual(t, built.TotalSalary, 50000)
}

func TestBuild_MissingPositionMakesInvalid(t *testing.T) {
	pool := make([]types.Candidate, 0)
	for _, c := range widePool() {
		if c.Position != "TE" {
			pool = append(pool, c)
		}
	}

	builder := newTestBuilder(t, Config{
		SalaryCap:  50000,
		Slots:      nflSlots(t),
		Strategy:   types.StrategyCash,
		NumLineups: 1,
	})

	lineups, err := builder.Build(pool)
	require.NoError(t, err)
	require.Len(t, lineups, 1)

	assert.False(t, lineups[0].Valid)
	assert.Contains(t, lineups[0].Shortfall, "TE")
}

func TestBuild_CapInfeasibleMakesInvalid(t *testing.T) {
	builder := newTestBuilder(t, Config{
		SalaryCap:  20000, // far below the cheapest full roster
		Slots:      nflSlots(t),
		Strategy:   types.StrategyCash,
		NumLineups: 1,
	})

	lineups, err := builder.Build(widePool())
	require.NoError(t, err)
	require.Len(t, lineups, 1)

	assert.False(t, lineups[0].Valid)
	assert.NotEmpty(t, lineups[0].Shortfall)
}

func TestBuild_GPPBatchUniqueness(t *testing.T) {
	slots := nflSlots(t)
	builder := newTestBuilder(t, Config{
		SalaryCap:      50000,
		Slots:          slots,
		Strategy:       types.StrategyGPP,
		NumLineups:     5,
		AnchorPosition: "QB",
	})

	lineups, err := builder.Build(widePool())
	require.NoError(t, err)
	require.Len(t, lineups, 5)

	maxShared := len(slots) - 2
	for i := range lineups {
		assert.True(t, lineups[i].Valid, "lineup %d shortfall: %s", i, lineups[i].Shortfall)
		assert.LessOrEqual(t, lineups[i].TotalSalary, 50000)
		for j := i + 1; j < len(lineups); j++ {
			shared := lineups[i].SharedPlayers(lineups[j])
			assert.LessOrEqual(t, shared, maxShared,
				"lineups %d and %d share %d players", i, j, shared)
		}
	}
}

func TestBuild_SeededBatchesReproduce(t *testing.T) {
	config := Config{
		SalaryCap:  50000,
		Slots:      nflSlots(t),
		Strategy:   types.StrategyGPP,
		NumLineups: 3,
	}

	first, err := NewBuilder(config, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	second, err := NewBuilder(config, rand.New(rand.NewSource(99)))
	require.NoError(t, err)

	batchA, err := first.Build(widePool())
	require.NoError(t, err)
	batchB, err := second.Build(widePool())
	require.NoError(t, err)

	require.Len(t, batchB, len(batchA))
	for i := range batchA {
		idsA := make([]string, len(batchA[i].Players))
		idsB := make([]string, len(batchB[i].Players))
		for j := range batchA[i].Players {
			idsA[j] = batchA[i].Players[j].ID
			idsB[j] = batchB[i].Players[j].ID
		}
		assert.Equal(t, idsA, idsB, "lineup %d differs between seeded runs", i)
	}
}

func TestBuild_UnrepairableOverlapFlagged(t *testing.T) {
	// With exactly one candidate per slot, the second lineup of the batch
	// has no swap available and keeps the full nine-player overlap.
	builder := newTestBuilder(t, Config{
		SalaryCap:  50000,
		Slots:      nflSlots(t),
		Strategy:   types.StrategyCash,
		NumLineups: 2,
	})

	lineups, err := builder.Build(exactFitPool())
	require.NoError(t, err)
	require.Len(t, lineups, 2)

	assert.NotContains(t, lineups[0].StrategyLabel, "overlap")
	assert.True(t, lineups[1].Valid)
	assert.Contains(t, lineups[1].StrategyLabel, "overlap:9")
}

func TestBuild_StackBonusReflectsRepairedRoster(t *testing.T) {
	// DiversityWindow 1 makes GPP picks deterministic: both lineups start
	// as qb/wrKC/wrSF, and repairing the second swaps out the anchor's only
	// teammate. The stack label must describe the roster after the swaps.
	slots := []Slot{
		{Name: "QB", Eligible: []string{"QB"}},
		{Name: "WR1", Eligible: []string{"WR"}},
		{Name: "WR2", Eligible: []string{"WR"}},
	}
	pool := []types.Candidate{
		{ID: "qb", Name: "Mahomes", Team: "KC", Position: "QB", Salary: 6000, ProjectedPoints: 22, OwnershipPercent: 1},
		{ID: "wrKC", Name: "Rice", Team: "KC", Position: "WR", Salary: 5000, ProjectedPoints: 20, OwnershipPercent: 1},
		{ID: "wrSF", Name: "Aiyuk", Team: "SF", Position: "WR", Salary: 5000, ProjectedPoints: 18, OwnershipPercent: 1},
		{ID: "wrDAL", Name: "Lamb", Team: "DAL", Position: "WR", Salary: 4800, ProjectedPoints: 16, OwnershipPercent: 1},
		{ID: "wrDEN", Name: "Sutton", Team: "DEN", Position: "WR", Salary: 4600, ProjectedPoints: 14, OwnershipPercent: 1},
	}

	builder := newTestBuilder(t, Config{
		SalaryCap:       50000,
		Slots:           slots,
		Strategy:        types.StrategyGPP,
		NumLineups:      2,
		DiversityWindow: 1,
		AnchorPosition:  "QB",
	})

	lineups, err := builder.Build(pool)
	require.NoError(t, err)
	require.Len(t, lineups, 2)

	assert.Contains(t, lineups[0].StrategyLabel, "+stack")
	assert.Equal(t, 8.0, lineups[0].PatternScore)

	repaired := lineups[1]
	require.True(t, repaired.Valid, "shortfall: %s", repaired.Shortfall)
	for _, p := range repaired.Players {
		if p.ID != "qb" {
			assert.NotEqual(t, "KC", p.Team, "repair removed the anchor's teammates")
		}
	}
	assert.NotContains(t, repaired.StrategyLabel, "+stack")
	assert.Contains(t, repaired.StrategyLabel, "correlated")
	assert.Equal(t, 3.0, repaired.PatternScore)
}

func TestBuild_RejectsMalformedCandidates(t *testing.T) {
	pool := exactFitPool()
	pool = append(pool, types.Candidate{ID: "bad", Position: "WR", Salary: -100})

	builder := newTestBuilder(t, Config{
		SalaryCap:  50000,
		Slots:      nflSlots(t),
		Strategy:   types.StrategyCash,
		NumLineups: 1,
	})

	lineups, err := builder.Build(pool)
	require.NoError(t, err)
	require.Len(t, lineups, 1)
	assert.False(t, lineups[0].HasPlayer("bad"))
}

func TestBuild_EmptyPoolIsProviderError(t *testing.T) {
	builder := newTestBuilder(t, Config{
		SalaryCap:  50000,
		Slots:      nflSlots(t),
		Strategy:   types.StrategyCash,
		NumLineups: 1,
	})

	_, err := builder.Build(nil)
	require.Error(t, err)
	var providerErr *types.ProviderError
	assert.ErrorAs(t, err, &providerErr)
}

func TestApplyStackBonus(t *testing.T) {
	builder := newTestBuilder(t, Config{
		SalaryCap:      50000,
		Slots:          nflSlots(t),
		Strategy:       types.StrategyGPP,
		NumLineups:     1,
		AnchorPosition: "QB",
	})

	built := types.Lineup{
		ID:            "lineup_test",
		StrategyLabel: "gpp",
		Players: []types.Candidate{
			{ID: "qb", Position: "QB", Team: "KC"},
			{ID: "wr", Position: "WR", Team: "KC"},
			{ID: "rb", Position: "RB", Team: "SF"},
			{ID: "te", Position: "TE", Team: "SF"},
		},
		Valid: true,
	}

	builder.applyStackBonus(&built)

	assert.Contains(t, built.StrategyLabel, "+stack")
	assert.Contains(t, built.StrategyLabel, "correlated")
	assert.Equal(t, 8.0, built.PatternScore)
}

func TestSlotsFor_UnknownPlatform(t *testing.T) {
	assert.Nil(t, SlotsFor(types.SportNBA, "unknown"))
	assert.Nil(t, SlotsFor(types.SportMLB, "draftkings"))
}
