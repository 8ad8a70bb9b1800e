package services

import (
	"strings"

	"github.com/carelink/er-routing/internal/domain/entities"
	apperrors "github.com/carelink/er-routing/pkg/errors"
)

// SymptomProfiler turns free-text symptom descriptions into structured
// profiles by keyword matching against the rule table. The same input
// always yields the same profile.
type SymptomProfiler struct {
	rules []SymptomRule
}

// NewSymptomProfiler creates a profiler with the built-in rule table, or
// the table at rulesPath when one is configured.
func NewSymptomProfiler(rulesPath string) (*SymptomProfiler, error) {
	if rulesPath == "" {
		return &SymptomProfiler{rules: defaultSymptomRules()}, nil
	}
	rules, err := loadSymptomRules(rulesPath)
	if err != nil {
		return nil, err
	}
	return &SymptomProfiler{rules: rules}, nil
}

// Profile interprets a symptom description. Blank input is rejected with an
// empty-input error; unrecognized input yields a routine profile with low
// confidence rather than an error.
func (s *SymptomProfiler) Profile(text string) (*entities.SymptomProfile, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil, apperrors.NewEmptyInputError("symptom description is empty")
	}

	profile := &entities.SymptomProfile{
		Urgency:             entities.UrgencyRoutine,
		RequiredSpecialties: make(map[string]bool),
		RequiredEquipment:   make(map[string]bool),
		SourceText:          text,
	}

	matches := 0
	for _, rule := range s.rules {
		if !ruleMatches(normalized, rule) {
			continue
		}
		matches++
		for _, specialty := range rule.Specialties {
			profile.RequiredSpecialties[strings.ToLower(specialty)] = true
		}
		for _, equipment := range rule.Equipment {
			profile.RequiredEquipment[strings.ToLower(equipment)] = true
		}
		if urgency := entities.ParseUrgency(rule.Urgency); urgency > profile.Urgency {
			profile.Urgency = urgency
		}
	}

	if matches == 0 {
		profile.Confidence = 0.2
		return profile, nil
	}

	confidence := 0.4 + 0.2*float64(matches)
	if confidence > 1.0 {
		confidence = 1.0
	}
	profile.Confidence = confidence
	return profile, nil
}

func ruleMatches(normalized string, rule SymptomRule) bool {
	for _, keyword := range rule.Keywords {
		if keyword != "" && strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
