package ensemble

import (
	"testing"

	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseModel_RequiresMinimumSample(t *testing.T) {
	_, err := baseModel(BaseSection{
		Home: TeamForm{Games: 4, Wins: 4},
		Away: TeamForm{Games: 10, Wins: 5},
	})

	assert.ErrorIs(t, err, types.ErrMissingData)
}

func TestBaseModel_FavorsStrongerRecord(t *testing.T) {
	p, err := baseModel(BaseSection{
		Home: TeamForm{Games: 10, Wins: 8, PointsFor: 1100, PointsAgainst: 1000, RecentResults: []float64{1, 1, 1, 0, 1}},
		Away: TeamForm{Games: 10, Wins: 3, PointsFor: 1000, PointsAgainst: 1100, RecentResults: []float64{0, 0, 1, 0, 0}},
	})

	require.NoError(t, err)
	assert.Greater(t, p, 0.6)
	assert.LessOrEqual(t, p, 1.0)
}

func TestBaseModel_RecentFormUsesLastFive(t *testing.T) {
	form := TeamForm{RecentResults: []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}}
	assert.InDelta(t, 1.0, form.RecentForm(), 1e-9)
}

func TestWeatherModel_IndoorHasNoSignal(t *testing.T) {
	_, err := weatherModel(WeatherSection{TemperatureF: 72, WindMPH: 0, Outdoor: false})
	assert.ErrorIs(t, err, types.ErrMissingData)
}

func TestWeatherModel_HarshConditionsFavorHome(t *testing.T) {
	mild, err := weatherModel(WeatherSection{TemperatureF: 70, WindMPH: 3, Outdoor: true})
	require.NoError(t, err)

	harsh, err := weatherModel(WeatherSection{TemperatureF: 18, WindMPH: 28, Outdoor: true})
	require.NoError(t, err)

	assert.Greater(t, harsh, mild)
}

func TestMomentumModel_StreaksOffset(t *testing.T) {
	p, err := momentumModel(MomentumSection{HomeStreak: 4, AwayStreak: 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-9)
}

func TestSentimentModel_SaturatesOnOutliers(t *testing.T) {
	moderate, err := sentimentModel(SentimentSection{HomeScore: 2, AwayScore: -2})
	require.NoError(t, err)

	extreme, err := sentimentModel(SentimentSection{HomeScore: 50, AwayScore: -50})
	require.NoError(t, err)

	// tanh saturation: the extreme spike barely moves past the moderate one.
	assert.InDelta(t, moderate, extreme, 0.02)
	assert.LessOrEqual(t, extreme, 0.75)
}

func TestScheduleModel_BackToBackPenalty(t *testing.T) {
	rested, err := scheduleModel(ScheduleSection{HomeRestDays: 2, AwayRestDays: 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rested, 1e-9)

	fatigued, err := scheduleModel(ScheduleSection{HomeRestDays: 2, AwayRestDays: 2, HomeBackToBack: true})
	require.NoError(t, err)
	assert.Less(t, fatigued, rested)
}

func TestScheduleModel_RestDifferentialClamped(t *testing.T) {
	p, err := scheduleModel(ScheduleSection{HomeRestDays: 30, AwayRestDays: 1})
	require.NoError(t, err)
	assert.LessOrEqual(t, p, 0.7+1e-9)
}
