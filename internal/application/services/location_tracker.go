package services

import (
	"sync"
	"time"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/pkg/geo"
)

// LocationTracker debounces position updates: a new reading replaces the
// current one only when the patient moved meaningfully or enough time has
// passed, so GPS jitter does not trigger re-ranking storms.
type LocationTracker struct {
	thresholdMeters float64
	maxAge          time.Duration
	onAccept        func(entities.GeoPoint)

	mu      sync.RWMutex
	current *entities.GeoPoint

	now func() time.Time
}

// NewLocationTracker creates a tracker. onAccept fires on every accepted
// update and may be nil.
func NewLocationTracker(thresholdMeters float64, maxAge time.Duration, onAccept func(entities.GeoPoint)) *LocationTracker {
	return &LocationTracker{
		thresholdMeters: thresholdMeters,
		maxAge:          maxAge,
		onAccept:        onAccept,
		now:             time.Now,
	}
}

// Update offers a new reading. Returns true when the reading was accepted
// as the current position.
func (t *LocationTracker) Update(point entities.GeoPoint) (bool, error) {
	if err := point.Validate(); err != nil {
		return false, err
	}
	if point.ObservedAt.IsZero() {
		point.ObservedAt = t.now()
	}

	t.mu.Lock()
	accepted := t.shouldAccept(point)
	if accepted {
		t.current = &point
	}
	t.mu.Unlock()

	if accepted && t.onAccept != nil {
		t.onAccept(point)
	}
	return accepted, nil
}

func (t *LocationTracker) shouldAccept(point entities.GeoPoint) bool {
	if t.current == nil {
		return true
	}
	movedKm := geo.DistanceKm(t.current.Latitude, t.current.Longitude, point.Latitude, point.Longitude)
	if movedKm*1000 > t.thresholdMeters {
		return true
	}
	return point.ObservedAt.Sub(t.current.ObservedAt) > t.maxAge
}

// Current returns the latest accepted position, or false when no reading
// was ever accepted.
func (t *LocationTracker) Current() (entities.GeoPoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return entities.GeoPoint{}, false
	}
	return *t.current, true
}
