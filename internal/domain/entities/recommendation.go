package entities

import "time"

// RankedCandidate is one entry of a ranking result. Regenerated on every
// ranking pass and never mutated after creation.
type RankedCandidate struct {
	HospitalID    string  `json:"hospital_id"`
	Name          string  `json:"name"`
	PhoneNumber   string  `json:"phone_number,omitempty"`
	Score         float64 `json:"score"`
	DistanceScore float64 `json:"distance_score"`
	MatchScore    float64 `json:"match_score"`
	CapacityScore float64 `json:"capacity_score"`
	DistanceKm    float64 `json:"distance_km"`
	Rationale     string  `json:"rationale"`
}

// Recommendation is the published result set consumed read-only by the
// presentation layer.
type Recommendation struct {
	ID          string            `json:"id"`
	Candidates  []RankedCandidate `json:"candidates"`
	Degraded    bool              `json:"degraded"`
	NoEligible  bool              `json:"no_eligible"`
	GeneratedAt time.Time         `json:"generated_at"`
}
