package entities

import (
	"time"

	apperrors "github.com/carelink/er-routing/pkg/errors"
)

// GeoPoint is a single observed patient position. It is an immutable value;
// a new reading replaces the prior one rather than mutating it.
type GeoPoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ObservedAt time.Time `json:"observed_at"`
}

// Validate checks the coordinate ranges
func (p GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return apperrors.NewValidationError("latitude must be within [-90, 90]")
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return apperrors.NewValidationError("longitude must be within [-180, 180]")
	}
	return nil
}
