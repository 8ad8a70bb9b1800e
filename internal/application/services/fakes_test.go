package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carelink/er-routing/internal/domain/entities"
	apperrors "github.com/carelink/er-routing/pkg/errors"
)

// fakeRegistry is a scriptable HospitalRegistry for service tests
type fakeRegistry struct {
	mu        sync.Mutex
	hospitals map[string][]*entities.HospitalRecord
	capacity  map[string]*entities.CapacitySnapshot

	failDirectory bool
	failCapacity  map[string]bool

	directoryCalls atomic.Int64
	capacityCalls  atomic.Int64

	fetchDelay time.Duration
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		hospitals:    make(map[string][]*entities.HospitalRecord),
		capacity:     make(map[string]*entities.CapacitySnapshot),
		failCapacity: make(map[string]bool),
	}
}

func (f *fakeRegistry) FetchHospitals(ctx context.Context, region string) ([]*entities.HospitalRecord, error) {
	f.directoryCalls.Add(1)
	if f.fetchDelay > 0 {
		select {
		case <-time.After(f.fetchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDirectory {
		return nil, apperrors.NewUpstreamError("registry unavailable", nil)
	}
	return f.hospitals[region], nil
}

func (f *fakeRegistry) FetchCapacity(ctx context.Context, hospitalID string) (*entities.CapacitySnapshot, error) {
	f.capacityCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCapacity[hospitalID] {
		return nil, apperrors.NewUpstreamError("capacity feed unavailable", nil)
	}
	snapshot, ok := f.capacity[hospitalID]
	if !ok {
		return nil, apperrors.NewUpstreamError("unknown hospital: "+hospitalID, nil)
	}
	copied := *snapshot
	return &copied, nil
}

func (f *fakeRegistry) setDirectory(region string, records []*entities.HospitalRecord) {
	f.mu.Lock()
	f.hospitals[region] = records
	f.mu.Unlock()
}

func (f *fakeRegistry) setCapacity(snapshot *entities.CapacitySnapshot) {
	f.mu.Lock()
	f.capacity[snapshot.HospitalID] = snapshot
	f.mu.Unlock()
}

func (f *fakeRegistry) setDirectoryFailing(failing bool) {
	f.mu.Lock()
	f.failDirectory = failing
	f.mu.Unlock()
}

func (f *fakeRegistry) setCapacityFailing(hospitalID string, failing bool) {
	f.mu.Lock()
	f.failCapacity[hospitalID] = failing
	f.mu.Unlock()
}

// capturePublisher records published recommendations
type capturePublisher struct {
	mu   sync.Mutex
	recs []*entities.Recommendation
}

func (p *capturePublisher) Publish(ctx context.Context, rec *entities.Recommendation) {
	p.mu.Lock()
	p.recs = append(p.recs, rec)
	p.mu.Unlock()
}

func (p *capturePublisher) published() []*entities.Recommendation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*entities.Recommendation, len(p.recs))
	copy(out, p.recs)
	return out
}

func (p *capturePublisher) last() *entities.Recommendation {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.recs) == 0 {
		return nil
	}
	return p.recs[len(p.recs)-1]
}

// fakeTranscriber returns canned text
type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}
