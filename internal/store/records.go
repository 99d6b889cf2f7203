package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/edge-engine/internal/types"
	"github.com/stitts-dev/edge-engine/pkg/logger"
)

// RecordStore persists EnsemblePrediction and PatternSignal records keyed
// by subject/game id. Persistence is caller-driven and optional; the engine
// works without it.
type RecordStore struct {
	client     *redis.Client
	defaultTTL time.Duration
	keyPrefix  string
	logger     *logrus.Entry
}

// Config contains configuration for the record store.
type Config struct {
	RedisURL     string        `json:"redis_url"`
	Database     int           `json:"database"`
	DefaultTTL   time.Duration `json:"default_ttl"`
	KeyPrefix    string        `json:"key_prefix"`
	MaxRetries   int           `json:"max_retries"`
	PoolSize     int           `json:"pool_size"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// NewRecordStore creates a record store and verifies connectivity.
func NewRecordStore(config Config) (*RecordStore, error) {
	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.DB = config.Database
	opt.MaxRetries = config.MaxRetries
	if config.PoolSize > 0 {
		opt.PoolSize = config.PoolSize
	}
	if config.ReadTimeout > 0 {
		opt.ReadTimeout = config.ReadTimeout
	}
	if config.WriteTimeout > 0 {
		opt.WriteTimeout = config.WriteTimeout
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 24 * time.Hour
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "edge"
	}

	store := &RecordStore{
		client:     client,
		defaultTTL: config.DefaultTTL,
		keyPrefix:  config.KeyPrefix,
		logger:     logger.WithComponent("record_store"),
	}

	store.logger.WithFields(logrus.Fields{
		"database":    config.Database,
		"default_ttl": config.DefaultTTL,
		"key_prefix":  config.KeyPrefix,
	}).Info("Record store initialized")

	return store, nil
}

// SavePrediction writes an ensemble prediction keyed by subject id.
func (rs *RecordStore) SavePrediction(ctx context.Context, prediction types.EnsemblePrediction) error {
	key := rs.buildKey("prediction", prediction.SubjectID)

	data, err := json.Marshal(prediction)
	if err != nil {
		rs.logger.WithError(err).WithField("subject_id", prediction.SubjectID).Error("Failed to marshal prediction")
		return err
	}

	if err := rs.client.Set(ctx, key, data, rs.defaultTTL).Err(); err != nil {
		rs.logger.WithError(err).WithField("key", key).Error("Failed to set prediction in store")
		return err
	}

	rs.logger.WithFields(logrus.Fields{
		"key":        key,
		"size_bytes": len(data),
	}).Debug("Stored ensemble prediction")

	return nil
}

// GetPrediction retrieves a stored prediction; (nil, nil) on a miss.
func (rs *RecordStore) GetPrediction(ctx context.Context, subjectID string) (*types.EnsemblePrediction, error) {
	key := rs.buildKey("prediction", subjectID)

	result, err := rs.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		rs.logger.WithError(err).WithField("key", key).Error("Failed to get prediction from store")
		return nil, err
	}

	var prediction types.EnsemblePrediction
	if err := json.Unmarshal([]byte(result), &prediction); err != nil {
		rs.logger.WithError(err).WithField("key", key).Error("Failed to unmarshal prediction")
		return nil, err
	}

	return &prediction, nil
}

// SaveSignals writes a game's pattern signals keyed by game id.
func (rs *RecordStore) SaveSignals(ctx context.Context, gameID string, signals []types.PatternSignal) error {
	key := rs.buildKey("signals", gameID)

	data, err := json.Marshal(signals)
	if err != nil {
		rs.logger.WithError(err).WithField("game_id", gameID).Error("Failed to marshal signals")
		return err
	}

	if err := rs.client.Set(ctx, key, data, rs.defaultTTL).Err(); err != nil {
		rs.logger.WithError(err).WithField("key", key).Error("Failed to set signals in store")
		return err
	}

	rs.logger.WithFields(logrus.Fields{
		"key":     key,
		"signals": len(signals),
	}).Debug("Stored pattern signals")

	return nil
}

// GetSignals retrieves a game's stored signals; (nil, nil) on a miss.
func (rs *RecordStore) GetSignals(ctx context.Context, gameID string) ([]types.PatternSignal, error) {
	key := rs.buildKey("signals", gameID)

	result, err := rs.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		rs.logger.WithError(err).WithField("key", key).Error("Failed to get signals from store")
		return nil, err
	}

	var signals []types.PatternSignal
	if err := json.Unmarshal([]byte(result), &signals); err != nil {
		rs.logger.WithError(err).WithField("key", key).Error("Failed to unmarshal signals")
		return nil, err
	}

	return signals, nil
}

// Close releases the underlying client.
func (rs *RecordStore) Close() error {
	return rs.client.Close()
}

func (rs *RecordStore) buildKey(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", rs.keyPrefix, kind, id)
}
