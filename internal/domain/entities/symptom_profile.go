package entities

import "sort"

// Urgency is the ordered severity level of a symptom profile
type Urgency int

const (
	UrgencyRoutine Urgency = iota
	UrgencyUrgent
	UrgencyCritical
)

// String implements fmt.Stringer
func (u Urgency) String() string {
	switch u {
	case UrgencyCritical:
		return "critical"
	case UrgencyUrgent:
		return "urgent"
	default:
		return "routine"
	}
}

// ParseUrgency maps a configuration string to an urgency level
func ParseUrgency(s string) Urgency {
	switch s {
	case "critical":
		return UrgencyCritical
	case "urgent":
		return UrgencyUrgent
	default:
		return UrgencyRoutine
	}
}

// SymptomProfile is the structured interpretation of a symptom description.
// It lives only for the duration of a session.
type SymptomProfile struct {
	Urgency             Urgency         `json:"urgency"`
	RequiredSpecialties map[string]bool `json:"required_specialties"`
	RequiredEquipment   map[string]bool `json:"required_equipment,omitempty"`
	SourceText          string          `json:"source_text"`
	Confidence          float64         `json:"confidence"`
}

// Requires reports whether the named specialty is required
func (p *SymptomProfile) Requires(specialty string) bool {
	return p != nil && p.RequiredSpecialties[specialty]
}

// SpecialtyList returns the required specialties in deterministic order
func (p *SymptomProfile) SpecialtyList() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.RequiredSpecialties))
	for name, required := range p.RequiredSpecialties {
		if required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
