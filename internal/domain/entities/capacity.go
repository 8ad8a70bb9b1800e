package entities

import "time"

// CapacitySnapshot is the latest volatile bed and equipment state for one
// hospital. Exactly one snapshot exists per hospital at any time; each
// successful poll overwrites the previous one.
type CapacitySnapshot struct {
	HospitalID    string          `json:"hospital_id"`
	GeneralBeds   int             `json:"general_beds"`
	SpecialtyBeds map[string]int  `json:"specialty_beds,omitempty"`
	Equipment     map[string]bool `json:"equipment,omitempty"`
	TypicalBeds   int             `json:"typical_beds"`
	ObservedAt    time.Time       `json:"observed_at"`
	Stale         bool            `json:"stale"`
}

// Age returns how old the snapshot is at the given instant
func (s *CapacitySnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.ObservedAt)
}

// OlderThan reports whether the snapshot's age exceeds the limit
func (s *CapacitySnapshot) OlderThan(now time.Time, limit time.Duration) bool {
	return s.Age(now) > limit
}
