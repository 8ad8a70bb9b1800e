package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(37.5665, 126.9780, 37.5665, 126.9780))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	d1 := DistanceKm(37.5665, 126.9780, 35.1796, 129.0756)
	d2 := DistanceKm(35.1796, 129.0756, 37.5665, 126.9780)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceKm_NonNegative(t *testing.T) {
	assert.GreaterOrEqual(t, DistanceKm(-33.9, 18.4, 59.3, 18.1), 0.0)
	assert.GreaterOrEqual(t, DistanceKm(0, 0, 0, 180), 0.0)
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Seoul to Busan is roughly 325 km
	d := DistanceKm(37.5665, 126.9780, 35.1796, 129.0756)
	assert.InDelta(t, 325, d, 10)
}

func TestBearingDeg_Range(t *testing.T) {
	b := BearingDeg(37.5665, 126.9780, 35.1796, 129.0756)
	assert.GreaterOrEqual(t, b, 0.0)
	assert.Less(t, b, 360.0)
}

func TestBearingDeg_DueNorth(t *testing.T) {
	assert.InDelta(t, 0.0, BearingDeg(10.0, 20.0, 11.0, 20.0), 0.5)
}
