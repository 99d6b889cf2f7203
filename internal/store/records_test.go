package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordStore_RejectsBadURL(t *testing.T) {
	_, err := NewRecordStore(Config{RedisURL: "not-a-redis-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse Redis URL")
}

func TestBuildKey(t *testing.T) {
	rs := &RecordStore{keyPrefix: "edge"}
	assert.Equal(t, "edge:prediction:g42", rs.buildKey("prediction", "g42"))
	assert.Equal(t, "edge:signals:g42", rs.buildKey("signals", "g42"))
}

// Round-trip against a live Redis; skipped unless REDIS_URL is set.
func TestRecordStore_RoundTrip(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	rs, err := NewRecordStore(Config{
		RedisURL:   redisURL,
		DefaultTTL: time.Minute,
		KeyPrefix:  "edge_test",
	})
	require.NoError(t, err)
	defer rs.Close()

	ctx := context.Background()

	prediction := types.EnsemblePrediction{
		SubjectID:   "rt_game",
		Probability: 0.62,
		Confidence:  0.41,
		Reasoning:   []string{"momentum favors home team"},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, rs.SavePrediction(ctx, prediction))

	got, err := rs.GetPrediction(ctx, "rt_game")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, prediction.SubjectID, got.SubjectID)
	assert.Equal(t, prediction.Probability, got.Probability)

	miss, err := rs.GetPrediction(ctx, "never_written")
	require.NoError(t, err)
	assert.Nil(t, miss)

	signals := []types.PatternSignal{
		{GameID: "rt_game", Layer: types.LayerSequence, Name: "hot_streak_3", Strength: 0.72},
	}
	require.NoError(t, rs.SaveSignals(ctx, "rt_game", signals))

	gotSignals, err := rs.GetSignals(ctx, "rt_game")
	require.NoError(t, err)
	require.Len(t, gotSignals, 1)
	assert.Equal(t, "hot_streak_3", gotSignals[0].Name)
}
