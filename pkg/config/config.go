package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Service       ServiceConfig
	Registry      RegistryConfig
	Redis         RedisConfig
	Tracking      TrackingConfig
	Polling       PollingConfig
	Directory     DirectoryConfig
	Ranking       RankingConfig
	Profiler      ProfilerConfig
	Transcription TranscriptionConfig
}

// ServiceConfig holds service identity configuration
type ServiceConfig struct {
	Name string
	Env  string
}

// RegistryConfig holds upstream hospital registry configuration
type RegistryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig holds Redis configuration for the shared record cache
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TrackingConfig holds location tracking configuration
type TrackingConfig struct {
	RefreshInterval         time.Duration
	MovementThresholdMeters float64
}

// PollingConfig holds capacity polling configuration
type PollingConfig struct {
	Interval       time.Duration
	FreshnessLimit time.Duration
	StaleCeiling   time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

// DirectoryConfig holds hospital directory cache configuration
type DirectoryConfig struct {
	TTL time.Duration
}

// RankingConfig holds ranking weights and limits
type RankingConfig struct {
	MaxRadiusKm    float64
	DistanceWeight float64
	MatchWeight    float64
	CapacityWeight float64
	MaxResults     int
}

// ProfilerConfig holds symptom profiler configuration
type ProfilerConfig struct {
	RulesPath string
}

// TranscriptionConfig holds voice transcription configuration
type TranscriptionConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "er-routing"),
			Env:  getEnv("SERVICE_ENV", "development"),
		},
		Registry: RegistryConfig{
			BaseURL: getEnv("REGISTRY_BASE_URL", "http://localhost:9090"),
			Timeout: time.Duration(getEnvAsInt("REGISTRY_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Tracking: TrackingConfig{
			RefreshInterval:         time.Duration(getEnvAsInt("LOCATION_REFRESH_INTERVAL_SECONDS", 30)) * time.Second,
			MovementThresholdMeters: getEnvAsFloat("MOVEMENT_THRESHOLD_METERS", 50),
		},
		Polling: PollingConfig{
			Interval:       time.Duration(getEnvAsInt("CAPACITY_POLL_INTERVAL_SECONDS", 30)) * time.Second,
			FreshnessLimit: time.Duration(getEnvAsInt("SNAPSHOT_FRESHNESS_SECONDS", 300)) * time.Second,
			StaleCeiling:   time.Duration(getEnvAsInt("STALE_SNAPSHOT_CEILING_MINUTES", 15)) * time.Minute,
			BackoffInitial: time.Duration(getEnvAsInt("CAPACITY_BACKOFF_INITIAL_SECONDS", 1)) * time.Second,
			BackoffMax:     time.Duration(getEnvAsInt("CAPACITY_BACKOFF_MAX_SECONDS", 30)) * time.Second,
		},
		Directory: DirectoryConfig{
			TTL: time.Duration(getEnvAsInt("DIRECTORY_TTL_SECONDS", 600)) * time.Second,
		},
		Ranking: RankingConfig{
			MaxRadiusKm:    getEnvAsFloat("MAX_CONSIDERED_RADIUS_KM", 50),
			DistanceWeight: getEnvAsFloat("DISTANCE_WEIGHT", 0.40),
			MatchWeight:    getEnvAsFloat("MATCH_WEIGHT", 0.35),
			CapacityWeight: getEnvAsFloat("CAPACITY_WEIGHT", 0.25),
			MaxResults:     getEnvAsInt("MAX_RESULTS", 3),
		},
		Profiler: ProfilerConfig{
			RulesPath: getEnv("SYMPTOM_RULES_PATH", ""),
		},
		Transcription: TranscriptionConfig{
			BaseURL: getEnv("TRANSCRIPTION_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("TRANSCRIPTION_API_KEY", ""),
			Model:   getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		},
	}

	if err := cfg.Ranking.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the ranking weights form a proper convex combination
func (c *RankingConfig) Validate() error {
	sum := c.DistanceWeight + c.MatchWeight + c.CapacityWeight
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("ranking weights must sum to 1.0, got %.3f", sum)
	}
	if c.DistanceWeight < 0 || c.MatchWeight < 0 || c.CapacityWeight < 0 {
		return fmt.Errorf("ranking weights must be non-negative")
	}
	if c.MaxRadiusKm <= 0 {
		return fmt.Errorf("max considered radius must be positive, got %.1f", c.MaxRadiusKm)
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
