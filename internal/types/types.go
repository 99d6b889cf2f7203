package types

import (
	"fmt"
	"strings"
	"time"
)

// Sport represents different sports types
type Sport string

const (
	SportNBA Sport = "nba"
	SportNFL Sport = "nfl"
	SportMLB Sport = "mlb"
	SportNHL Sport = "nhl"
)

// Candidate represents one rosterable player in a contest slate.
// Immutable within a single optimization run.
type Candidate struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Team             string  `json:"team"`
	Position         string  `json:"position"`
	Salary           int     `json:"salary"`
	ProjectedPoints  float64 `json:"projected_points"`
	OwnershipPercent float64 `json:"ownership_percent"`
}

// ValidateCandidate rejects malformed feed records at the ingestion boundary.
func ValidateCandidate(c Candidate) error {
	if c.ID == "" {
		return &ProviderError{Source: "candidate-feed", Reason: "candidate missing id"}
	}
	if c.Position == "" {
		return &ProviderError{Source: "candidate-feed", Reason: fmt.Sprintf("candidate %s missing position", c.ID)}
	}
	if c.Salary <= 0 {
		return &ProviderError{Source: "candidate-feed", Reason: fmt.Sprintf("candidate %s has non-positive salary %d", c.ID, c.Salary)}
	}
	if c.ProjectedPoints < 0 {
		return &ProviderError{Source: "candidate-feed", Reason: fmt.Sprintf("candidate %s has negative projection", c.ID)}
	}
	if c.OwnershipPercent < 0 || c.OwnershipPercent > 100 {
		return &ProviderError{Source: "candidate-feed", Reason: fmt.Sprintf("candidate %s ownership %.1f outside 0-100", c.ID, c.OwnershipPercent)}
	}
	return nil
}

// Game represents a completed (or scheduled) game from the historical corpus.
type Game struct {
	ID         string    `json:"id"`
	SportID    Sport     `json:"sport_id"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	HomeScore  int       `json:"home_score"`
	AwayScore  int       `json:"away_score"`
	StartTime  time.Time `json:"start_time"`
}

// Completed reports whether the game has a final score.
func (g Game) Completed() bool {
	return g.HomeScore > 0 || g.AwayScore > 0
}

// TotalScore returns the combined final score.
func (g Game) TotalScore() int {
	return g.HomeScore + g.AwayScore
}

// HomeWon reports whether the home side won.
func (g Game) HomeWon() bool {
	return g.HomeScore > g.AwayScore
}

// PlayerGameStat is a per-player per-game stat line, used by the
// player-impact pattern layer.
type PlayerGameStat struct {
	GameID   string  `json:"game_id"`
	PlayerID string  `json:"player_id"`
	TeamID   string  `json:"team_id"`
	Points   float64 `json:"points"`
	Minutes  float64 `json:"minutes"`
}

// PatternLayer identifies one independent category of historical mining.
type PatternLayer string

const (
	LayerSequence     PatternLayer = "sequence"
	LayerMatchup      PatternLayer = "matchup"
	LayerSituational  PatternLayer = "situational"
	LayerTrend        PatternLayer = "trend"
	LayerPlayerImpact PatternLayer = "player_impact"
)

// PatternSignal is a single mined signal attached to a game.
// Never mutated after creation.
type PatternSignal struct {
	GameID     string            `json:"game_id"`
	Layer      PatternLayer      `json:"layer"`
	Name       string            `json:"name"`
	Strength   float64           `json:"strength"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	DetectedAt time.Time         `json:"detected_at"`
}

// GameConfidence aggregates all PatternSignals attached to one game.
type GameConfidence struct {
	GameID          string  `json:"game_id"`
	Confidence      float64 `json:"confidence"`
	ProfitPotential float64 `json:"profit_potential"`
	SignalCount     int     `json:"signal_count"`
	LayerCount      int     `json:"layer_count"`
}

// ModelPrediction is one sub-model's contribution to an ensemble prediction.
type ModelPrediction struct {
	ModelName        string  `json:"model_name"`
	Probability      float64 `json:"probability"`
	ConfidenceWeight float64 `json:"confidence_weight"`
}

// EnsemblePrediction is the fused output of all contributing sub-models.
// Confidence derives only from agreement among the contributing predictions
// and their distance from indifference (0.5).
type EnsemblePrediction struct {
	SubjectID   string            `json:"subject_id"`
	Probability float64           `json:"probability"`
	Confidence  float64           `json:"confidence"`
	Models      []ModelPrediction `json:"models"`
	Reasoning   []string          `json:"reasoning"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// StrategyKind selects the objective function for lineup construction.
type StrategyKind string

const (
	StrategyCash     StrategyKind = "cash"
	StrategyGPP      StrategyKind = "gpp"
	StrategyBalanced StrategyKind = "balanced"
)

// PrizeStructure describes how a contest pays out.
type PrizeStructure string

const (
	PrizeTopHeavy      PrizeStructure = "top_heavy"
	PrizeFlat          PrizeStructure = "flat"
	PrizeWinnerTakeAll PrizeStructure = "winner_take_all"
)

// ContestStrategy is supplied by the caller and read-only to the engine.
type ContestStrategy struct {
	Kind           StrategyKind   `json:"kind"`
	EntryLimit     int            `json:"entry_limit"`
	PrizeStructure PrizeStructure `json:"prize_structure"`
	FieldSize      int            `json:"field_size"`
	BuyIn          float64        `json:"buy_in"`
}

// Validate checks the strategy is usable. Failures are fatal
// precondition violations raised before any computation begins.
func (s ContestStrategy) Validate() error {
	switch s.Kind {
	case StrategyCash, StrategyGPP, StrategyBalanced:
	default:
		return &ConfigError{Field: "kind", Reason: fmt.Sprintf("unknown strategy kind %q", s.Kind)}
	}
	switch s.PrizeStructure {
	case PrizeTopHeavy, PrizeFlat, PrizeWinnerTakeAll, "":
	default:
		return &ConfigError{Field: "prize_structure", Reason: fmt.Sprintf("unknown prize structure %q", s.PrizeStructure)}
	}
	if s.FieldSize <= 0 {
		return &ConfigError{Field: "field_size", Reason: "field size must be positive"}
	}
	if s.EntryLimit < 0 {
		return &ConfigError{Field: "entry_limit", Reason: "entry limit cannot be negative"}
	}
	if s.BuyIn < 0 {
		return &ConfigError{Field: "buy_in", Reason: "buy-in cannot be negative"}
	}
	return nil
}

// Lineup is one constructed roster. When Valid, TotalSalary is within the
// cap and every slot holds a position-eligible candidate.
type Lineup struct {
	ID             string      `json:"id"`
	Players        []Candidate `json:"players"`
	Slots          []string    `json:"slots"`
	TotalSalary    int         `json:"total_salary"`
	TotalProjected float64     `json:"total_projected"`
	TotalOwnership float64     `json:"total_ownership"`
	PatternScore   float64     `json:"pattern_score"`
	Valid          bool        `json:"valid"`
	StrategyLabel  string      `json:"strategy_label"`
	Shortfall      string      `json:"shortfall,omitempty"`
}

// HasPlayer reports whether the lineup already contains the candidate.
func (l Lineup) HasPlayer(id string) bool {
	for _, p := range l.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// SharedPlayers counts candidates present in both lineups.
func (l Lineup) SharedPlayers(other Lineup) int {
	seen := make(map[string]bool, len(l.Players))
	for _, p := range l.Players {
		seen[p.ID] = true
	}
	shared := 0
	for _, p := range other.Players {
		if seen[p.ID] {
			shared++
		}
	}
	return shared
}

// Describe returns a short human-readable form used in summaries.
func (l Lineup) Describe() string {
	names := make([]string, len(l.Players))
	for i, p := range l.Players {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s [$%d, %.1fpts] %s", l.StrategyLabel, l.TotalSalary, l.TotalProjected, strings.Join(names, ", "))
}
