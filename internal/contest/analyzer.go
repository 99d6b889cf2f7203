package contest

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stitts-dev/edge-engine/pkg/logger"
	"gonum.org/v1/gonum/stat"
)

// cashProjectionThreshold is the empirical projected score around which a
// lineup cashes roughly half the time in small-field contests.
const cashProjectionThreshold = 140.0

// Report is the contest-economics evaluation of one generated batch.
type Report struct {
	Strategy        types.ContestStrategy `json:"strategy"`
	LineupCount     int                   `json:"lineup_count"`
	InvalidCount    int                   `json:"invalid_count"`
	MeanProjected   float64               `json:"mean_projected"`
	MeanOwnership   float64               `json:"mean_ownership"`
	MeanSalaryUsed  float64               `json:"mean_salary_used"`
	MeanPattern     float64               `json:"mean_pattern"`
	WinProbability  float64               `json:"win_probability"`
	CashProbability float64               `json:"cash_probability"`
	ExpectedValue   float64               `json:"expected_value"`
	Recommendations []string              `json:"recommendations"`
	Summary         string                `json:"summary"`
}

// Analyzer converts lineup aggregates into expected value and advisory
// recommendations. Recommendations are returned, never raised as errors.
type Analyzer struct {
	logger *logrus.Entry
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{logger: logger.WithComponent("contest_analyzer")}
}

// Analyze evaluates a generated batch against the contest economics.
// The strategy is validated up front; an unusable strategy is fatal.
func (a *Analyzer) Analyze(strategy types.ContestStrategy, lineups []types.Lineup, salaryCap int) (*Report, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Strategy: strategy, LineupCount: len(lineups)}

	valid := make([]types.Lineup, 0, len(lineups))
	for _, l := range lineups {
		if l.Valid {
			valid = append(valid, l)
		} else {
			report.InvalidCount++
		}
	}

	if len(valid) == 0 {
		report.Recommendations = []string{"no valid lineups generated - widen the candidate pool or raise the cap"}
		report.Summary = fmt.Sprintf("%s: 0/%d lineups valid", strategy.Kind, len(lineups))
		return report, nil
	}

	projections := make([]float64, len(valid))
	ownerships := make([]float64, len(valid))
	salaries := make([]float64, len(valid))
	patterns := make([]float64, len(valid))
	for i, l := range valid {
		projections[i] = l.TotalProjected
		salaries[i] = float64(l.TotalSalary)
		patterns[i] = l.PatternScore
		if len(l.Players) > 0 {
			ownerships[i] = l.TotalOwnership / float64(len(l.Players))
		}
	}

	report.MeanProjected = stat.Mean(projections, nil)
	report.MeanOwnership = stat.Mean(ownerships, nil)
	report.MeanSalaryUsed = stat.Mean(salaries, nil)
	report.MeanPattern = stat.Mean(patterns, nil)

	report.WinProbability = a.winProbability(strategy, report.MeanOwnership, len(valid))
	report.CashProbability = a.cashProbability(report.MeanProjected)

	effective := report.WinProbability
	if strategy.Kind == types.StrategyCash {
		effective = report.CashProbability
	}
	report.ExpectedValue = effective * strategy.BuyIn * payoutMultiplier(strategy.PrizeStructure)

	report.Recommendations = a.buildRecommendations(strategy, report, salaryCap)
	report.Summary = fmt.Sprintf(
		"%s: %d/%d lineups valid, %.1f mean projection, %.1f%% mean ownership, EV $%.2f on $%.2f buy-in",
		strategy.Kind, len(valid), len(lineups), report.MeanProjected, report.MeanOwnership,
		report.ExpectedValue, strategy.BuyIn,
	)

	a.logger.WithFields(logrus.Fields{
		"strategy":       strategy.Kind,
		"valid_lineups":  len(valid),
		"mean_projected": report.MeanProjected,
		"expected_value": report.ExpectedValue,
	}).Info("Contest analysis completed")

	return report, nil
}

// winProbability models tournament finish odds: inverse in mean ownership
// and in field size, scaled by entry count.
func (a *Analyzer) winProbability(strategy types.ContestStrategy, meanOwnership float64, entries int) float64 {
	baseline := float64(entries) / float64(strategy.FieldSize)

	if strategy.Kind != types.StrategyGPP {
		return clamp(baseline, 0, 1)
	}

	leverage := 25.0 / math.Max(meanOwnership, 10.0)
	return clamp(baseline*leverage, 0, 0.25)
}

// cashProbability is a monotonic function of mean projection relative to
// the empirical cash threshold.
func (a *Analyzer) cashProbability(meanProjected float64) float64 {
	p := 1.0 / (1.0 + math.Exp(-(meanProjected-cashProjectionThreshold)/15.0))
	return clamp(p, 0.05, 0.95)
}

func payoutMultiplier(structure types.PrizeStructure) float64 {
	switch structure {
	case types.PrizeWinnerTakeAll:
		return 18.0
	case types.PrizeTopHeavy:
		return 10.0
	case types.PrizeFlat:
		return 2.0
	default:
		return 2.0
	}
}

func (a *Analyzer) buildRecommendations(strategy types.ContestStrategy, report *Report, salaryCap int) []string {
	recs := make([]string, 0, 4)

	if strategy.Kind == types.StrategyGPP && report.MeanOwnership > 35 {
		recs = append(recs, "mean ownership is high for a tournament - pivot to contrarian plays")
	}
	if strategy.Kind == types.StrategyCash && report.MeanProjected < cashProjectionThreshold {
		recs = append(recs, "mean projection is below the cash line - favor high-floor players")
	}
	if salaryCap > 0 && report.MeanSalaryUsed < 0.95*float64(salaryCap) {
		recs = append(recs, fmt.Sprintf("salary under-spend: using $%.0f of $%d cap on average", report.MeanSalaryUsed, salaryCap))
	}
	if strategy.Kind == types.StrategyGPP && report.MeanPattern < 2 {
		recs = append(recs, "low pattern support across the batch - few historical signals back these games")
	}
	if report.ExpectedValue < strategy.BuyIn && strategy.BuyIn > 0 {
		recs = append(recs, "expected value below buy-in at this field size")
	}
	if report.InvalidCount > 0 {
		recs = append(recs, fmt.Sprintf("%d of %d lineups failed construction - check pool depth", report.InvalidCount, report.LineupCount))
	}

	return recs
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
