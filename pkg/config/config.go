package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable knob for the engine. Fusion weights and
// pattern thresholds live here rather than as constants scattered through
// the scoring code so deployments can override them per sport.
type Config struct {
	// Environment
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Ensemble fusion multipliers. Specialist sections get higher
	// influence specifically when confident.
	BaseMultiplier      float64 `mapstructure:"BASE_MULTIPLIER"`
	WeatherMultiplier   float64 `mapstructure:"WEATHER_MULTIPLIER"`
	MomentumMultiplier  float64 `mapstructure:"MOMENTUM_MULTIPLIER"`
	SentimentMultiplier float64 `mapstructure:"SENTIMENT_MULTIPLIER"`
	ScheduleMultiplier  float64 `mapstructure:"SCHEDULE_MULTIPLIER"`

	// Pattern extraction thresholds
	TrendScoreThreshold   float64 `mapstructure:"TREND_SCORE_THRESHOLD"`
	TrendHomeWinThreshold float64 `mapstructure:"TREND_HOME_WIN_THRESHOLD"`
	DominanceWinRate      float64 `mapstructure:"DOMINANCE_WIN_RATE"`
	DominanceSampleSize   int     `mapstructure:"DOMINANCE_SAMPLE_SIZE"`
	StarPerformancePoints float64 `mapstructure:"STAR_PERFORMANCE_POINTS"`
	ExtractionShards      int     `mapstructure:"EXTRACTION_SHARDS"`
	ExpectedTotals        map[string]float64

	// Lineup builder settings
	DiversityWindow int `mapstructure:"DIVERSITY_WINDOW"`
	RepairRetries   int `mapstructure:"REPAIR_RETRIES"`

	// Record store (optional write-back of predictions and signals)
	RedisURL       string        `mapstructure:"REDIS_URL"`
	RecordStoreTTL time.Duration `mapstructure:"RECORD_STORE_TTL"`

	// Randomness seed for GPP diversity and profit-potential jitter.
	// Zero means seed from the clock at session creation.
	RandomSeed int64 `mapstructure:"RANDOM_SEED"`
}

// LoadConfig reads configuration from environment and optional .env file.
func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")

	viper.SetDefault("BASE_MULTIPLIER", 1.0)
	viper.SetDefault("WEATHER_MULTIPLIER", 2.5)
	viper.SetDefault("MOMENTUM_MULTIPLIER", 2.2)
	viper.SetDefault("SENTIMENT_MULTIPLIER", 1.5)
	viper.SetDefault("SCHEDULE_MULTIPLIER", 1.8)

	viper.SetDefault("TREND_SCORE_THRESHOLD", 0.10)
	viper.SetDefault("TREND_HOME_WIN_THRESHOLD", 0.15)
	viper.SetDefault("DOMINANCE_WIN_RATE", 0.75)
	viper.SetDefault("DOMINANCE_SAMPLE_SIZE", 5)
	viper.SetDefault("STAR_PERFORMANCE_POINTS", 30.0)
	viper.SetDefault("EXTRACTION_SHARDS", 16)
	viper.SetDefault("EXPECTED_TOTALS", "nba:220,nfl:47,mlb:9,nhl:5.5")

	viper.SetDefault("DIVERSITY_WINDOW", 5)
	viper.SetDefault("REPAIR_RETRIES", 3)

	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("RECORD_STORE_TTL", "24h")
	viper.SetDefault("RANDOM_SEED", 0)

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse expected totals from "sport:total" pairs
	totals, err := parseExpectedTotals(viper.GetString("EXPECTED_TOTALS"))
	if err != nil {
		return nil, err
	}
	config.ExpectedTotals = totals

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations that would corrupt scoring before any
// computation begins.
func (c *Config) Validate() error {
	multipliers := map[string]float64{
		"BASE_MULTIPLIER":      c.BaseMultiplier,
		"WEATHER_MULTIPLIER":   c.WeatherMultiplier,
		"MOMENTUM_MULTIPLIER":  c.MomentumMultiplier,
		"SENTIMENT_MULTIPLIER": c.SentimentMultiplier,
		"SCHEDULE_MULTIPLIER":  c.ScheduleMultiplier,
	}
	for name, m := range multipliers {
		if m <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, m)
		}
	}
	if c.DominanceWinRate <= 0.5 || c.DominanceWinRate > 1.0 {
		return fmt.Errorf("DOMINANCE_WIN_RATE must be in (0.5, 1.0], got %f", c.DominanceWinRate)
	}
	if c.DominanceSampleSize < 1 {
		return fmt.Errorf("DOMINANCE_SAMPLE_SIZE must be at least 1")
	}
	if c.ExtractionShards < 1 {
		return fmt.Errorf("EXTRACTION_SHARDS must be at least 1")
	}
	if c.DiversityWindow < 1 {
		return fmt.Errorf("DIVERSITY_WINDOW must be at least 1")
	}
	if c.RepairRetries < 0 {
		return fmt.Errorf("REPAIR_RETRIES cannot be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func parseExpectedTotals(raw string) (map[string]float64, error) {
	totals := make(map[string]float64)
	if raw == "" {
		return totals, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed EXPECTED_TOTALS entry %q", pair)
		}
		value, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed EXPECTED_TOTALS value %q: %w", parts[1], err)
		}
		totals[strings.ToLower(parts[0])] = value
	}
	return totals, nil
}
