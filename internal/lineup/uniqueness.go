package lineup

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/types"
)

// repairUniqueness enforces multi-entry uniqueness: a new lineup may share
// at most slotCount-2 candidates with any earlier lineup of the batch.
// Violations trigger a bounded swap pass replacing the lowest-marginal-value
// non-anchor player with the next-best eligible alternative absent from
// prior lineups. A lineup still over the bound after the retries is kept
// with the residual overlap count appended to its label.
func (b *Builder) repairUniqueness(built *types.Lineup, prior []types.Lineup, pool []types.Candidate) {
	maxShared := len(b.config.Slots) - 2
	if maxShared < 0 {
		return
	}

	for attempt := 0; attempt < b.config.RepairRetries; attempt++ {
		if b.findConflict(built, prior, maxShared) == -1 {
			return
		}
		if !b.swapWeakestShared(built, prior, pool) {
			break
		}
	}

	conflict := b.findConflict(built, prior, maxShared)
	if conflict == -1 {
		return
	}
	overlap := built.SharedPlayers(prior[conflict])
	built.StrategyLabel += fmt.Sprintf(" overlap:%d", overlap)
	b.logger.WithFields(logrus.Fields{
		"lineup_id": built.ID,
		"conflict":  prior[conflict].ID,
		"overlap":   overlap,
	}).Warn("Uniqueness repair exhausted, lineup flagged")
}

// findConflict returns the index of the first valid prior lineup sharing
// more than maxShared players, or -1.
func (b *Builder) findConflict(built *types.Lineup, prior []types.Lineup, maxShared int) int {
	for i, earlier := range prior {
		if !earlier.Valid {
			continue
		}
		if built.SharedPlayers(earlier) > maxShared {
			return i
		}
	}
	return -1
}

// swapWeakestShared replaces one swappable player. Returns false when no
// eligible replacement fits the remaining budget.
func (b *Builder) swapWeakestShared(built *types.Lineup, prior []types.Lineup, pool []types.Candidate) bool {
	priorIDs := make(map[string]bool)
	for _, earlier := range prior {
		for _, p := range earlier.Players {
			priorIDs[p.ID] = true
		}
	}

	// Swap candidates ordered weakest first; the anchor stays put.
	order := make([]int, 0, len(built.Players))
	for i, p := range built.Players {
		if priorIDs[p.ID] && p.Position != b.config.AnchorPosition {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return false
	}
	ceiling := b.ownershipCeiling(0)
	sort.Slice(order, func(x, y int) bool {
		return b.score(built.Players[order[x]], ceiling) < b.score(built.Players[order[y]], ceiling)
	})

	inLineup := make(map[string]bool, len(built.Players))
	for _, p := range built.Players {
		inLineup[p.ID] = true
	}

	for _, idx := range order {
		outgoing := built.Players[idx]
		slot := b.slotByName(built.Slots[idx])

		best := -1
		bestScore := 0.0
		for i, c := range pool {
			if inLineup[c.ID] || priorIDs[c.ID] || !slot.CanFill(c) {
				continue
			}
			if built.TotalSalary-outgoing.Salary+c.Salary > b.config.SalaryCap {
				continue
			}
			s := b.score(c, ceiling)
			if best == -1 || s > bestScore {
				best = i
				bestScore = s
			}
		}
		if best == -1 {
			continue
		}

		incoming := pool[best]
		built.TotalSalary += incoming.Salary - outgoing.Salary
		built.TotalProjected += incoming.ProjectedPoints - outgoing.ProjectedPoints
		built.TotalOwnership += incoming.OwnershipPercent - outgoing.OwnershipPercent
		built.PatternScore += b.config.PatternBoost[incoming.ID] - b.config.PatternBoost[outgoing.ID]
		built.Players[idx] = incoming

		b.logger.WithFields(logrus.Fields{
			"lineup_id": built.ID,
			"slot":      built.Slots[idx],
			"out":       outgoing.Name,
			"in":        incoming.Name,
		}).Debug("Uniqueness repair swapped player")
		return true
	}

	return false
}

func (b *Builder) slotByName(name string) Slot {
	for _, s := range b.config.Slots {
		if s.Name == name {
			return s
		}
	}
	return Slot{Name: name}
}
