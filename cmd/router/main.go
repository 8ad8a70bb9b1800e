package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carelink/er-routing/internal/adapters/cache"
	"github.com/carelink/er-routing/internal/adapters/index"
	"github.com/carelink/er-routing/internal/adapters/providers/location"
	"github.com/carelink/er-routing/internal/adapters/providers/transcription"
	registryadapter "github.com/carelink/er-routing/internal/adapters/registry"
	"github.com/carelink/er-routing/internal/application/services"
	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/internal/domain/providers"
	registryclient "github.com/carelink/er-routing/internal/infrastructure/clients/registry"
	"github.com/carelink/er-routing/internal/infrastructure/clients/redis"
	"github.com/carelink/er-routing/internal/infrastructure/observability"
	"github.com/carelink/er-routing/pkg/config"
)

// logPublisher logs published recommendations. It stands in for the
// presentation layer, which subscribes at this boundary.
type logPublisher struct{}

func (logPublisher) Publish(ctx context.Context, rec *entities.Recommendation) {
	logger := observability.LoggerFromContext(ctx)
	event := logger.Info().
		Str("recommendation_id", rec.ID).
		Bool("degraded", rec.Degraded).
		Bool("no_eligible", rec.NoEligible).
		Int("candidates", len(rec.Candidates))
	for i, c := range rec.Candidates {
		event = event.Str(fmt.Sprintf("candidate_%d", i+1), c.Name+" ("+c.Rationale+")")
	}
	event.Msg("recommendation published")
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.Service.Name, cfg.Service.Env)
	logger := observability.GetLogger()
	logger.Info().Msg("Starting emergency routing core...")

	// Shared record cache: Redis when enabled, in-process otherwise
	var recordCache providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		defer redisClient.Close()
		recordCache = cache.NewRedisAdapter(redisClient)
		logger.Info().Msg("Redis record cache initialized")
	} else {
		recordCache = cache.NewMemoryAdapter()
		logger.Info().Msg("In-memory record cache initialized")
	}

	// Upstream registry behind validation and a circuit breaker
	client := registryclient.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout)
	registry := registryadapter.NewAdapter(client)

	spatial := index.NewHospitalIndex()
	directory := services.NewDirectoryCache(registry, recordCache, spatial, cfg.Directory.TTL)

	poller := services.NewCapacityPoller(registry, services.PollerConfig{
		Interval:       cfg.Polling.Interval,
		FreshnessLimit: cfg.Polling.FreshnessLimit,
		StaleCeiling:   cfg.Polling.StaleCeiling,
		BackoffInitial: cfg.Polling.BackoffInitial,
		BackoffMax:     cfg.Polling.BackoffMax,
	})

	profiler, err := services.NewSymptomProfiler(cfg.Profiler.RulesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load symptom rules")
	}

	ranking := services.NewRankingService(cfg.Ranking)

	tracker := services.NewLocationTracker(
		cfg.Tracking.MovementThresholdMeters,
		cfg.Tracking.RefreshInterval,
		nil,
	)

	var transcriber providers.Transcriber
	if cfg.Transcription.APIKey != "" {
		transcriber = transcription.NewWhisperAdapter(
			cfg.Transcription.BaseURL,
			cfg.Transcription.APIKey,
			cfg.Transcription.Model,
			30*time.Second,
		)
		logger.Info().Msg("Voice transcription enabled")
	}

	orchestrator := services.NewOrchestrator(
		profiler,
		transcriber,
		directory,
		poller,
		ranking,
		tracker,
		logPublisher{},
		cfg.Polling.Interval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go poller.Run(ctx)
	go orchestrator.Run(ctx)

	// Position feed: IP geolocation on the tracking interval
	locator := location.NewIPProvider("https://ipapi.co/json/", 10*time.Second)
	go func() {
		ticker := time.NewTicker(cfg.Tracking.RefreshInterval)
		defer ticker.Stop()
		for {
			point, err := locator.Locate(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("location lookup failed")
			} else if _, err := orchestrator.OfferLocation(point); err != nil {
				logger.Warn().Err(err).Msg("location update rejected")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	logger.Info().Msg("Emergency routing core started")

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")
	cancel()
	logger.Info().Msg("Shutdown complete")
}
