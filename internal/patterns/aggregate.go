package patterns

import (
	"math"

	"github.com/stitts-dev/edge-engine/internal/types"
)

// confidenceCap bounds aggregate confidence; no game is ever a certainty.
const confidenceCap = 0.95

// aggregate folds a game's signal set into one GameConfidence. Distinct
// layer types earn a diversity bonus, signal count earns a diminishing
// volume bonus, and the result is capped.
func (e *Extractor) aggregate(gameID string, signals []types.PatternSignal) types.GameConfidence {
	if len(signals) == 0 {
		return types.GameConfidence{GameID: gameID}
	}

	strengthSum := 0.0
	layers := make(map[types.PatternLayer]bool)
	for _, s := range signals {
		strengthSum += s.Strength
		layers[s.Layer] = true
	}

	avgStrength := strengthSum / float64(len(signals))
	diversityBonus := 1 + 0.1*float64(len(layers)-1)
	volumeBonus := math.Min(1.5, 1+0.05*float64(len(signals)))

	confidence := math.Min(confidenceCap, avgStrength*diversityBonus*volumeBonus)

	// Heuristic score, not a monetary estimate. Jitter uses the injected
	// seeded rng.
	jitter := 0.8 + 0.4*e.rng.Float64()
	profitPotential := confidence * 100 * jitter

	return types.GameConfidence{
		GameID:          gameID,
		Confidence:      confidence,
		ProfitPotential: profitPotential,
		SignalCount:     len(signals),
		LayerCount:      len(layers),
	}
}
