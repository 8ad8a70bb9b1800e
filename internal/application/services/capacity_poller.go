package services

import (
	"context"
	"sync"
	"time"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/internal/domain/providers"
	"github.com/carelink/er-routing/internal/infrastructure/observability"
	"github.com/carelink/er-routing/pkg/retry"
)

const fetchTimeout = 5 * time.Second

// PollerConfig holds the poller's timing knobs
type PollerConfig struct {
	Interval       time.Duration
	FreshnessLimit time.Duration
	StaleCeiling   time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

type hospitalState struct {
	mu          sync.Mutex
	snapshot    *entities.CapacitySnapshot
	backoff     *retry.Backoff
	nextAttempt time.Time
}

// CapacityPoller keeps one live capacity snapshot per watched hospital.
// Hospitals are polled in parallel but each hospital's state is serialized,
// and a failing hospital backs off exponentially without delaying the rest.
type CapacityPoller struct {
	registry providers.HospitalRegistry
	cfg      PollerConfig

	mu     sync.RWMutex
	states map[string]*hospitalState

	now func() time.Time
}

// NewCapacityPoller creates a poller over the registry
func NewCapacityPoller(registry providers.HospitalRegistry, cfg PollerConfig) *CapacityPoller {
	return &CapacityPoller{
		registry: registry,
		cfg:      cfg,
		states:   make(map[string]*hospitalState),
		now:      time.Now,
	}
}

// SetWatch replaces the watched hospital set. Snapshots and backoff state
// survive for hospitals present in both the old and new sets.
func (p *CapacityPoller) SetWatch(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	p.mu.Lock()
	for id := range p.states {
		if !keep[id] {
			delete(p.states, id)
		}
	}
	for _, id := range ids {
		if _, ok := p.states[id]; !ok {
			p.states[id] = &hospitalState{
				backoff: retry.NewBackoff(p.cfg.BackoffInitial, p.cfg.BackoffMax),
			}
		}
	}
	p.mu.Unlock()
}

// Run polls the watched set on the configured interval until the context is
// cancelled. An immediate first pass warms the snapshots.
func (p *CapacityPoller) Run(ctx context.Context) {
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce refreshes every watched hospital whose backoff window has passed
func (p *CapacityPoller) PollOnce(ctx context.Context) {
	p.mu.RLock()
	ids := make([]string, 0, len(p.states))
	for id := range p.states {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(hospitalID string) {
			defer wg.Done()
			p.pollHospital(ctx, hospitalID)
		}(id)
	}
	wg.Wait()
}

func (p *CapacityPoller) pollHospital(ctx context.Context, id string) {
	p.mu.RLock()
	state := p.states[id]
	p.mu.RUnlock()
	if state == nil {
		return
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if p.now().Before(state.nextAttempt) {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	snapshot, err := p.registry.FetchCapacity(fetchCtx, id)
	cancel()

	logger := observability.LoggerFromContext(ctx)
	if err != nil {
		// Keep the previous snapshot, flag it stale, and widen the gap to
		// the next attempt for this hospital only.
		if state.snapshot != nil {
			state.snapshot.Stale = true
		}
		delay := state.backoff.Next()
		state.nextAttempt = p.now().Add(delay)
		logger.Warn().Err(err).
			Str("hospital_id", id).
			Dur("backoff", delay).
			Msg("capacity poll failed")
		return
	}

	state.snapshot = snapshot
	state.backoff.Reset()
	state.nextAttempt = time.Time{}
	logger.Debug().
		Str("hospital_id", id).
		Int("general_beds", snapshot.GeneralBeds).
		Msg("capacity snapshot refreshed")
}

// Snapshot returns a copy of the hospital's latest snapshot, with staleness
// recomputed against the freshness limit. Nil when nothing was ever fetched.
func (p *CapacityPoller) Snapshot(id string) *entities.CapacitySnapshot {
	p.mu.RLock()
	state := p.states[id]
	p.mu.RUnlock()
	if state == nil {
		return nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.snapshot == nil {
		return nil
	}

	copied := *state.snapshot
	if copied.OlderThan(p.now(), p.cfg.FreshnessLimit) {
		copied.Stale = true
	}
	return &copied
}

// Snapshots returns the latest snapshots for a set of hospitals; hospitals
// with no snapshot yet are absent from the result.
func (p *CapacityPoller) Snapshots(ids []string) map[string]*entities.CapacitySnapshot {
	out := make(map[string]*entities.CapacitySnapshot, len(ids))
	for _, id := range ids {
		if snapshot := p.Snapshot(id); snapshot != nil {
			out[id] = snapshot
		}
	}
	return out
}

// CeilingExpired reports whether the hospital's snapshot is so old it must
// not inform ranking at all.
func (p *CapacityPoller) CeilingExpired(id string) bool {
	p.mu.RLock()
	state := p.states[id]
	p.mu.RUnlock()
	if state == nil {
		return false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.snapshot == nil {
		return false
	}
	return state.snapshot.OlderThan(p.now(), p.cfg.StaleCeiling)
}
