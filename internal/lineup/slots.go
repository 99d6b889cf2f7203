package lineup

import (
	"github.com/stitts-dev/edge-engine/internal/types"
)

// Slot is one roster position slot. An empty Eligible set accepts any
// position (UTIL-style slots).
type Slot struct {
	Name     string   `json:"name"`
	Eligible []string `json:"eligible"`
}

// CanFill reports whether the candidate's position satisfies the slot's
// eligibility set.
func (s Slot) CanFill(c types.Candidate) bool {
	if len(s.Eligible) == 0 {
		return true
	}
	for _, pos := range s.Eligible {
		if c.Position == pos {
			return true
		}
	}
	return false
}

// SlotsFor returns the position-slot requirement map for a sport/platform
// pairing. Concrete slots come first so flex slots resolve against the
// leftover pool.
func SlotsFor(sport types.Sport, platform string) []Slot {
	switch sport {
	case types.SportNFL:
		if platform == "draftkings" || platform == "fanduel" {
			return []Slot{
				{Name: "QB", Eligible: []string{"QB"}},
				{Name: "RB", Eligible: []string{"RB"}},
				{Name: "RB", Eligible: []string{"RB"}},
				{Name: "WR", Eligible: []string{"WR"}},
				{Name: "WR", Eligible: []string{"WR"}},
				{Name: "WR", Eligible: []string{"WR"}},
				{Name: "TE", Eligible: []string{"TE"}},
				{Name: "FLEX", Eligible: []string{"RB", "WR", "TE"}},
				{Name: "DST", Eligible: []string{"DST"}},
			}
		}
	case types.SportNBA:
		if platform == "draftkings" {
			return []Slot{
				{Name: "PG", Eligible: []string{"PG"}},
				{Name: "SG", Eligible: []string{"SG"}},
				{Name: "SF", Eligible: []string{"SF"}},
				{Name: "PF", Eligible: []string{"PF"}},
				{Name: "C", Eligible: []string{"C"}},
				{Name: "G", Eligible: []string{"PG", "SG"}},
				{Name: "F", Eligible: []string{"SF", "PF"}},
				{Name: "UTIL", Eligible: nil},
			}
		}
	}
	return nil
}

// AnchorPositionFor returns the stack anchor position for team sports.
func AnchorPositionFor(sport types.Sport) string {
	switch sport {
	case types.SportNFL:
		return "QB"
	case types.SportNBA:
		return "PG"
	default:
		return ""
	}
}
