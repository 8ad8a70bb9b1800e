package registry

import (
	"context"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/internal/domain/providers"
	registryclient "github.com/carelink/er-routing/internal/infrastructure/clients/registry"
	apperrors "github.com/carelink/er-routing/pkg/errors"
)

// Adapter validates loose registry payloads into domain entities and shields
// callers from a flapping upstream with a circuit breaker. Every failure
// surfaces as an upstream error so callers apply a single degradation policy.
type Adapter struct {
	client  registryclient.Client
	breaker *gobreaker.CircuitBreaker
}

// NewAdapter creates a registry adapter around the raw client
func NewAdapter(client registryclient.Client) providers.HospitalRegistry {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "hospital-registry",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	})
	return &Adapter{client: client, breaker: breaker}
}

func (a *Adapter) FetchHospitals(ctx context.Context, region string) ([]*entities.HospitalRecord, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.ListHospitals(ctx, region)
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError("hospital directory fetch failed", err)
	}

	resp := result.(*registryclient.HospitalListResponse)
	records := make([]*entities.HospitalRecord, 0, len(resp.Data))
	for _, payload := range resp.Data {
		record, err := validateHospital(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (a *Adapter) FetchCapacity(ctx context.Context, hospitalID string) (*entities.CapacitySnapshot, error) {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.GetCapacity(ctx, hospitalID)
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError("capacity fetch failed", err)
	}

	resp := result.(*registryclient.CapacityResponse)
	return validateCapacity(hospitalID, resp)
}

// validateHospital fails fast on schema violations instead of propagating
// partial records into the cache.
func validateHospital(p registryclient.HospitalPayload) (*entities.HospitalRecord, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, apperrors.NewUpstreamError("registry record missing hospital id", nil)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperrors.NewUpstreamError("registry record missing hospital name: "+p.ID, nil)
	}
	point := entities.GeoPoint{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude}
	if err := point.Validate(); err != nil {
		return nil, apperrors.NewUpstreamError("registry record has invalid coordinates: "+p.ID, err)
	}

	specialties := make(map[string]bool, len(p.Specialties))
	for _, s := range p.Specialties {
		name := strings.ToLower(strings.TrimSpace(s))
		if name != "" {
			specialties[name] = true
		}
	}

	return &entities.HospitalRecord{
		ID:          p.ID,
		Name:        p.Name,
		Address:     p.Address,
		PhoneNumber: p.PhoneNumber,
		Specialties: specialties,
		Location: entities.Location{
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		},
	}, nil
}

func validateCapacity(hospitalID string, r *registryclient.CapacityResponse) (*entities.CapacitySnapshot, error) {
	if r.GeneralBeds == nil || r.TypicalBeds == nil {
		return nil, apperrors.NewUpstreamError("capacity payload missing bed counts: "+hospitalID, nil)
	}
	if *r.GeneralBeds < 0 || *r.TypicalBeds < 0 {
		return nil, apperrors.NewUpstreamError("capacity payload has negative bed counts: "+hospitalID, nil)
	}
	observed := r.ObservedAt
	if observed.IsZero() {
		observed = time.Now()
	}
	return &entities.CapacitySnapshot{
		HospitalID:    hospitalID,
		GeneralBeds:   *r.GeneralBeds,
		SpecialtyBeds: r.SpecialtyBeds,
		Equipment:     r.Equipment,
		TypicalBeds:   *r.TypicalBeds,
		ObservedAt:    observed,
	}, nil
}
