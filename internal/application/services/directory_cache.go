package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carelink/er-routing/internal/adapters/index"
	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/internal/domain/providers"
	"github.com/carelink/er-routing/internal/infrastructure/observability"
	apperrors "github.com/carelink/er-routing/pkg/errors"
	"github.com/carelink/er-routing/pkg/retry"
)

const refreshTimeout = 15 * time.Second

// DirectoryResult is the outcome of a directory lookup. Degraded means the
// records are stale because the last refresh attempt failed.
type DirectoryResult struct {
	Records  []*entities.HospitalRecord
	Degraded bool
}

type directoryEntry struct {
	records   []*entities.HospitalRecord
	fetchedAt time.Time
	degraded  bool
}

// DirectoryCache serves the hospital directory from a TTL cache in front of
// the registry. An expired entry triggers at most one in-flight refresh per
// region; concurrent readers share the outcome. A failed refresh keeps the
// stale entry and marks the region degraded instead of erroring.
type DirectoryCache struct {
	registry providers.HospitalRegistry
	cache    providers.CacheProvider
	spatial  *index.HospitalIndex
	ttl      time.Duration

	mu      sync.RWMutex
	entries map[string]*directoryEntry
	group   singleflight.Group

	now func() time.Time
}

// NewDirectoryCache creates a directory cache over the registry
func NewDirectoryCache(registry providers.HospitalRegistry, cache providers.CacheProvider, spatial *index.HospitalIndex, ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		registry: registry,
		cache:    cache,
		spatial:  spatial,
		ttl:      ttl,
		entries:  make(map[string]*directoryEntry),
		now:      time.Now,
	}
}

// Get returns the directory for a region, refreshing it when the TTL has
// expired. Only total unavailability with nothing cached at all returns an
// error.
func (s *DirectoryCache) Get(ctx context.Context, region string) (*DirectoryResult, error) {
	s.mu.RLock()
	entry := s.entries[region]
	s.mu.RUnlock()

	if entry != nil && s.now().Sub(entry.fetchedAt) < s.ttl && !entry.degraded {
		return &DirectoryResult{Records: entry.records, Degraded: false}, nil
	}

	result, err, _ := s.group.Do(region, func() (interface{}, error) {
		return s.refresh(ctx, region)
	})
	if err != nil {
		return nil, err
	}
	return result.(*DirectoryResult), nil
}

// Nearby answers a radius query from the spatial index over cached records
func (s *DirectoryCache) Nearby(region string, lat, lon, radiusKm float64) []index.NearbyHospital {
	return s.spatial.Nearby(region, lat, lon, radiusKm)
}

func (s *DirectoryCache) refresh(ctx context.Context, region string) (*DirectoryResult, error) {
	logger := observability.LoggerFromContext(ctx)

	// Another waiter may have refreshed while we queued on the group.
	s.mu.RLock()
	entry := s.entries[region]
	s.mu.RUnlock()
	if entry != nil && s.now().Sub(entry.fetchedAt) < s.ttl && !entry.degraded {
		return &DirectoryResult{Records: entry.records, Degraded: false}, nil
	}

	// The fetch is shared by every waiter on this region, so it must not
	// die with the first waiter's context.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
	defer cancel()

	var records []*entities.HospitalRecord
	err := retry.Do(fetchCtx, retry.DefaultConfig(), func() error {
		fetched, fetchErr := s.registry.FetchHospitals(fetchCtx, region)
		if fetchErr != nil {
			return fetchErr
		}
		records = fetched
		return nil
	})

	if err == nil {
		s.store(region, records, false)
		s.writeThrough(ctx, region, records)
		logger.Info().Str("region", region).Int("hospitals", len(records)).Msg("hospital directory refreshed")
		return &DirectoryResult{Records: records, Degraded: false}, nil
	}

	logger.Warn().Err(err).Str("region", region).Msg("hospital directory refresh failed")

	// Keep serving stale records while the upstream is down.
	if entry != nil {
		s.markDegraded(region)
		return &DirectoryResult{Records: entry.records, Degraded: true}, nil
	}

	// Cold start fallback: records persisted by a previous process.
	if restored := s.restore(ctx, region); restored != nil {
		s.store(region, restored, true)
		logger.Info().Str("region", region).Int("hospitals", len(restored)).Msg("serving directory restored from shared cache")
		return &DirectoryResult{Records: restored, Degraded: true}, nil
	}

	return nil, apperrors.NewUpstreamError("hospital directory unavailable and nothing cached for region "+region, err)
}

func (s *DirectoryCache) store(region string, records []*entities.HospitalRecord, degraded bool) {
	s.mu.Lock()
	s.entries[region] = &directoryEntry{
		records:   records,
		fetchedAt: s.now(),
		degraded:  degraded,
	}
	s.mu.Unlock()
	s.spatial.ReplaceRegion(region, records)
}

func (s *DirectoryCache) markDegraded(region string) {
	s.mu.Lock()
	if entry := s.entries[region]; entry != nil {
		entry.degraded = true
	}
	s.mu.Unlock()
}

func (s *DirectoryCache) writeThrough(ctx context.Context, region string, records []*entities.HospitalRecord) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	// Long expiry on purpose: this copy exists to survive restarts, the TTL
	// freshness decision lives in the in-memory entry.
	if err := s.cache.Set(ctx, directoryKey(region), data, int((24 * time.Hour).Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("region", region).Msg("directory write-through failed")
	}
}

func (s *DirectoryCache) restore(ctx context.Context, region string) []*entities.HospitalRecord {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, directoryKey(region))
	if err != nil {
		return nil
	}
	var records []*entities.HospitalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	if len(records) == 0 {
		return nil
	}
	return records
}

func directoryKey(region string) string {
	return "directory:" + region
}
