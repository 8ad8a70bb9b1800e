package providers

import (
	"context"

	"github.com/carelink/er-routing/internal/domain/entities"
)

// LocationProvider resolves the patient's current position
type LocationProvider interface {
	Locate(ctx context.Context) (entities.GeoPoint, error)
}
