package ensemble

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stitts-dev/edge-engine/pkg/logger"
	"gonum.org/v1/gonum/stat"
)

// Section identifies one contributing sub-model.
type Section string

const (
	SectionBase      Section = "base"
	SectionWeather   Section = "weather"
	SectionMomentum  Section = "momentum"
	SectionSentiment Section = "sentiment"
	SectionSchedule  Section = "schedule"
)

// Config holds the per-section fusion multipliers. Specialist sections get
// higher influence specifically when they are confident, since the
// confidence weight scales with distance from indifference.
type Config struct {
	Multipliers map[Section]float64
}

// DefaultConfig returns the documented default multiplier table.
func DefaultConfig() Config {
	return Config{
		Multipliers: map[Section]float64{
			SectionBase:      1.0,
			SectionWeather:   2.5,
			SectionMomentum:  2.2,
			SectionSchedule:  1.8,
			SectionSentiment: 1.5,
		},
	}
}

// FeatureBundle carries the independently-optional inputs for one subject.
// A nil section means the corresponding sub-model is skipped.
type FeatureBundle struct {
	SubjectID string            `json:"subject_id"`
	Base      *BaseSection      `json:"base,omitempty"`
	Weather   *WeatherSection   `json:"weather,omitempty"`
	Momentum  *MomentumSection  `json:"momentum,omitempty"`
	Sentiment *SentimentSection `json:"sentiment,omitempty"`
	Schedule  *ScheduleSection  `json:"schedule,omitempty"`
}

// Scorer fuses heterogeneous sub-model predictions into one calibrated
// probability and confidence. Score is a pure function of its inputs;
// callers persist results if desired.
type Scorer struct {
	config Config
	logger *logrus.Entry
}

// NewScorer creates a scorer with the given multiplier table.
func NewScorer(config Config) (*Scorer, error) {
	if len(config.Multipliers) == 0 {
		config = DefaultConfig()
	}
	for section, m := range config.Multipliers {
		if m <= 0 {
			return nil, &types.ConfigError{
				Field:  string(section),
				Reason: fmt.Sprintf("multiplier must be positive, got %f", m),
			}
		}
	}
	return &Scorer{
		config: config,
		logger: logger.WithComponent("ensemble_scorer"),
	}, nil
}

func (s *Scorer) multiplier(section Section) float64 {
	if m, ok := s.config.Multipliers[section]; ok {
		return m
	}
	return 1.0
}

// Score fuses every present section of the bundle into an EnsemblePrediction.
// Sections with missing data are skipped; if nothing contributes, a neutral
// prediction is returned rather than an error.
func (s *Scorer) Score(bundle FeatureBundle) types.EnsemblePrediction {
	predictions := make([]types.ModelPrediction, 0, 5)

	type sectionInput struct {
		section Section
		run     func() (float64, error)
		present bool
	}

	inputs := []sectionInput{
		{SectionBase, func() (float64, error) { return baseModel(*bundle.Base) }, bundle.Base != nil},
		{SectionWeather, func() (float64, error) { return weatherModel(*bundle.Weather) }, bundle.Weather != nil},
		{SectionMomentum, func() (float64, error) { return momentumModel(*bundle.Momentum) }, bundle.Momentum != nil},
		{SectionSentiment, func() (float64, error) { return sentimentModel(*bundle.Sentiment) }, bundle.Sentiment != nil},
		{SectionSchedule, func() (float64, error) { return scheduleModel(*bundle.Schedule) }, bundle.Schedule != nil},
	}

	for _, input := range inputs {
		if !input.present {
			continue
		}
		probability, err := input.run()
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"subject_id": bundle.SubjectID,
				"section":    input.section,
			}).Debug("Section skipped, missing required data")
			continue
		}
		if math.IsNaN(probability) {
			continue
		}
		predictions = append(predictions, types.ModelPrediction{
			ModelName:        string(input.section),
			Probability:      probability,
			ConfidenceWeight: math.Abs(probability-0.5) * s.multiplier(input.section),
		})
	}

	if len(predictions) == 0 {
		return neutralPrediction(bundle.SubjectID)
	}

	combined := combineProbabilities(predictions)
	agreement := computeAgreement(predictions, combined)
	confidence := clamp01(agreement * math.Abs(combined-0.5) * 2)

	prediction := types.EnsemblePrediction{
		SubjectID:   bundle.SubjectID,
		Probability: combined,
		Confidence:  confidence,
		Models:      predictions,
		Reasoning:   s.buildReasoning(bundle, predictions, combined, agreement),
		GeneratedAt: time.Now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"subject_id":  bundle.SubjectID,
		"models":      len(predictions),
		"probability": combined,
		"confidence":  confidence,
		"agreement":   agreement,
	}).Debug("Ensemble prediction computed")

	return prediction
}

// combineProbabilities returns the confidence-weighted average. When every
// contributor sits exactly at indifference the weights all vanish, so fall
// back to the unweighted mean.
func combineProbabilities(predictions []types.ModelPrediction) float64 {
	weightedSum := 0.0
	weightTotal := 0.0
	plain := make([]float64, len(predictions))
	for i, p := range predictions {
		weightedSum += p.Probability * p.ConfidenceWeight
		weightTotal += p.ConfidenceWeight
		plain[i] = p.Probability
	}
	if weightTotal == 0 {
		return stat.Mean(plain, nil)
	}
	return weightedSum / weightTotal
}

// computeAgreement measures numeric consensus: 1 minus the mean distance of
// each contributor from the combined probability.
func computeAgreement(predictions []types.ModelPrediction, combined float64) float64 {
	diffs := make([]float64, len(predictions))
	for i, p := range predictions {
		diffs[i] = math.Abs(p.Probability - combined)
	}
	return clamp01(1 - stat.Mean(diffs, nil))
}

func (s *Scorer) buildReasoning(bundle FeatureBundle, predictions []types.ModelPrediction, combined, agreement float64) []string {
	reasoning := make([]string, 0, 6)

	for _, p := range predictions {
		switch Section(p.ModelName) {
		case SectionBase:
			if p.Probability > 0.6 {
				reasoning = append(reasoning, "season record favors home")
			} else if p.Probability < 0.4 {
				reasoning = append(reasoning, "season record favors away")
			}
		case SectionWeather:
			if p.Probability > 0.55 {
				reasoning = append(reasoning, "harsh weather amplifies home-field edge")
			}
		case SectionMomentum:
			if p.Probability > 0.6 {
				reasoning = append(reasoning, "momentum favors home")
			} else if p.Probability < 0.4 {
				reasoning = append(reasoning, "momentum favors away")
			}
		case SectionSentiment:
			if p.Probability > 0.6 {
				reasoning = append(reasoning, "sentiment leans home")
			} else if p.Probability < 0.4 {
				reasoning = append(reasoning, "sentiment leans away")
			}
		case SectionSchedule:
			if p.Probability > 0.55 {
				reasoning = append(reasoning, "rest advantage to home")
			} else if p.Probability < 0.45 {
				reasoning = append(reasoning, "rest advantage to away")
			}
		}
	}

	if agreement > 0.8 {
		reasoning = append(reasoning, "models strongly agree")
	} else if agreement < 0.5 {
		reasoning = append(reasoning, "models disagree - higher uncertainty")
	}

	if len(reasoning) == 0 {
		reasoning = append(reasoning, fmt.Sprintf("no strong signal either way (%.2f)", combined))
	}

	return reasoning
}

func neutralPrediction(subjectID string) types.EnsemblePrediction {
	return types.EnsemblePrediction{
		SubjectID:   subjectID,
		Probability: 0.5,
		Confidence:  0,
		Models:      []types.ModelPrediction{},
		Reasoning:   []string{"insufficient data"},
		GeneratedAt: time.Now().UTC(),
	}
}
