package ensemble

import (
	"math"

	"github.com/stitts-dev/edge-engine/internal/types"
	"gonum.org/v1/gonum/stat"
)

// minGamesForForm is the minimum sample before a team's rolling record is
// trusted. Below this the base section is treated as missing.
const minGamesForForm = 5

// TeamForm aggregates a team's rolling record entering a game.
type TeamForm struct {
	Games         int       `json:"games"`
	Wins          int       `json:"wins"`
	PointsFor     float64   `json:"points_for"`
	PointsAgainst float64   `json:"points_against"`
	RecentResults []float64 `json:"recent_results"` // 1=win 0=loss, most recent last
	Streak        int       `json:"streak"`         // positive=winning, negative=losing
	RestDays      int       `json:"rest_days"`
}

// WinRate returns the team's all-games win rate.
func (f TeamForm) WinRate() float64 {
	if f.Games == 0 {
		return 0.5
	}
	return float64(f.Wins) / float64(f.Games)
}

// RecentForm returns the mean of the last five results, 0.5 when empty.
func (f TeamForm) RecentForm() float64 {
	recent := f.RecentResults
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	if len(recent) == 0 {
		return 0.5
	}
	return stat.Mean(recent, nil)
}

// PointDiffPerGame returns average scoring margin.
func (f TeamForm) PointDiffPerGame() float64 {
	if f.Games == 0 {
		return 0
	}
	return (f.PointsFor - f.PointsAgainst) / float64(f.Games)
}

// BaseSection holds the rolling records of both sides.
type BaseSection struct {
	Home TeamForm `json:"home"`
	Away TeamForm `json:"away"`
}

// WeatherSection holds game-site conditions. Only meaningful outdoors.
type WeatherSection struct {
	TemperatureF float64 `json:"temperature_f"`
	WindMPH      float64 `json:"wind_mph"`
	Outdoor      bool    `json:"outdoor"`
}

// MomentumSection holds streak and short-window form for both sides.
type MomentumSection struct {
	HomeStreak int       `json:"home_streak"`
	AwayStreak int       `json:"away_streak"`
	HomeRecent []float64 `json:"home_recent"`
	AwayRecent []float64 `json:"away_recent"`
}

// SentimentSection holds aggregated sentiment scores per side.
type SentimentSection struct {
	HomeScore float64 `json:"home_score"`
	AwayScore float64 `json:"away_score"`
}

// ScheduleSection holds fatigue indicators per side.
type ScheduleSection struct {
	HomeRestDays   int  `json:"home_rest_days"`
	AwayRestDays   int  `json:"away_rest_days"`
	HomeBackToBack bool `json:"home_back_to_back"`
	AwayBackToBack bool `json:"away_back_to_back"`
}

// baseModel predicts from win rates, recent form, and scoring margin.
// Teams need minGamesForForm completed games before the record is trusted.
func baseModel(s BaseSection) (float64, error) {
	if s.Home.Games < minGamesForForm || s.Away.Games < minGamesForForm {
		return 0, types.ErrMissingData
	}

	winRateDiff := s.Home.WinRate() - s.Away.WinRate()
	formDiff := s.Home.RecentForm() - s.Away.RecentForm()
	marginDiff := s.Home.PointDiffPerGame() - s.Away.PointDiffPerGame()

	// Home advantage baseline plus record, form, and margin edges.
	p := 0.54 + 0.25*winRateDiff + 0.15*formDiff + 0.10*math.Tanh(marginDiff/10.0)
	return clampProb(p), nil
}

// weatherModel predicts the weather's effect on the home side. Indoor games
// carry no weather signal.
func weatherModel(s WeatherSection) (float64, error) {
	if !s.Outdoor {
		return 0, types.ErrMissingData
	}

	wind := clamp01(s.WindMPH / 30.0)
	severity := wind
	if s.TemperatureF <= 32 || s.TemperatureF >= 95 {
		severity += 0.3
	}
	severity = clamp01(severity)

	// Harsh conditions amplify home familiarity.
	p := 0.5 + 0.12*severity
	return clampProb(p), nil
}

// momentumModel predicts from signed streak lengths and short-window form.
func momentumModel(s MomentumSection) (float64, error) {
	if len(s.HomeRecent) == 0 && len(s.AwayRecent) == 0 && s.HomeStreak == 0 && s.AwayStreak == 0 {
		return 0, types.ErrMissingData
	}

	streakEdge := (math.Tanh(float64(s.HomeStreak)/3.0) - math.Tanh(float64(s.AwayStreak)/3.0)) / 2.0

	homeForm, awayForm := 0.5, 0.5
	if len(s.HomeRecent) > 0 {
		homeForm = stat.Mean(s.HomeRecent, nil)
	}
	if len(s.AwayRecent) > 0 {
		awayForm = stat.Mean(s.AwayRecent, nil)
	}

	p := 0.5 + 0.22*streakEdge + 0.15*(homeForm-awayForm)
	return clampProb(p), nil
}

// sentimentModel predicts from tanh-squashed sentiment scores so outlier
// news spikes saturate instead of dominating.
func sentimentModel(s SentimentSection) (float64, error) {
	if s.HomeScore == 0 && s.AwayScore == 0 {
		return 0, types.ErrMissingData
	}
	edge := (math.Tanh(s.HomeScore) - math.Tanh(s.AwayScore)) / 2.0
	return clampProb(0.5 + 0.25*edge), nil
}

// scheduleModel predicts from rest-day differential and back-to-back fatigue.
func scheduleModel(s ScheduleSection) (float64, error) {
	if s.HomeRestDays == 0 && s.AwayRestDays == 0 && !s.HomeBackToBack && !s.AwayBackToBack {
		return 0, types.ErrMissingData
	}

	restDiff := float64(s.HomeRestDays - s.AwayRestDays)
	if restDiff > 4 {
		restDiff = 4
	} else if restDiff < -4 {
		restDiff = -4
	}

	p := 0.5 + 0.05*restDiff
	if s.HomeBackToBack {
		p -= 0.08
	}
	if s.AwayBackToBack {
		p += 0.08
	}
	return clampProb(p), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampProb keeps probabilities strictly inside [0,1].
func clampProb(p float64) float64 {
	return clamp01(p)
}
