package entities

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HospitalRecord is the static directory entry for one emergency facility.
// It is owned by the directory cache: created on first fetch, refreshed on
// TTL expiry, and retained across fetch failures until a successful refresh.
type HospitalRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Location    Location        `json:"location"`
	Address     string          `json:"address,omitempty"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	Specialties map[string]bool `json:"specialties"`
}

// HasSpecialty reports whether the hospital supports the named specialty
func (h *HospitalRecord) HasSpecialty(name string) bool {
	return h != nil && h.Specialties[name]
}
