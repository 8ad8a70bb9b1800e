package providers

import (
	"context"

	"github.com/carelink/er-routing/internal/domain/entities"
)

// HospitalRegistry is the upstream source of truth for the hospital
// directory and live capacity. Implementations must honor context
// cancellation; callers bound every fetch with a timeout.
type HospitalRegistry interface {
	// FetchHospitals returns the directory of emergency facilities for a
	// region key.
	FetchHospitals(ctx context.Context, region string) ([]*entities.HospitalRecord, error)

	// FetchCapacity returns the current capacity snapshot for one hospital.
	FetchCapacity(ctx context.Context, hospitalID string) (*entities.CapacitySnapshot, error)
}
