package services

import (
	"encoding/json"
	"os"
	"strings"
)

// SymptomRule maps complaint keywords to the care capabilities they imply.
// The table is configuration data, not a clinical taxonomy: deployments
// tune it via SYMPTOM_RULES_PATH.
type SymptomRule struct {
	Keywords    []string `json:"keywords"`
	Specialties []string `json:"specialties"`
	Equipment   []string `json:"equipment,omitempty"`
	Urgency     string   `json:"urgency"`
}

// defaultSymptomRules is the built-in table used when no rules file is
// configured.
func defaultSymptomRules() []SymptomRule {
	return []SymptomRule{
		{
			Keywords:    []string{"chest pain", "chest pressure", "heart attack", "palpitation"},
			Specialties: []string{"cardiology"},
			Equipment:   []string{"ct"},
			Urgency:     "critical",
		},
		{
			Keywords:    []string{"stroke", "slurred speech", "face drooping", "sudden numbness"},
			Specialties: []string{"neurology"},
			Equipment:   []string{"ct", "mri"},
			Urgency:     "critical",
		},
		{
			Keywords:    []string{"unconscious", "not breathing", "severe bleeding", "seizure"},
			Specialties: []string{"emergency medicine"},
			Urgency:     "critical",
		},
		{
			Keywords:    []string{"broken", "fracture", "dislocated", "sprain"},
			Specialties: []string{"orthopedics"},
			Urgency:     "urgent",
		},
		{
			Keywords:    []string{"burn", "scald"},
			Specialties: []string{"burn care"},
			Urgency:     "urgent",
		},
		{
			Keywords:    []string{"abdominal pain", "stomach pain", "vomiting blood", "appendix"},
			Specialties: []string{"general surgery"},
			Urgency:     "urgent",
		},
		{
			Keywords:    []string{"pregnant", "labor", "contractions"},
			Specialties: []string{"obstetrics"},
			Urgency:     "urgent",
		},
		{
			Keywords:    []string{"child", "infant", "baby"},
			Specialties: []string{"pediatrics"},
			Urgency:     "routine",
		},
		{
			Keywords:    []string{"fever", "cough", "sore throat", "headache"},
			Specialties: nil,
			Urgency:     "routine",
		},
	}
}

// loadSymptomRules reads a rules table from a JSON file
func loadSymptomRules(path string) ([]SymptomRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []SymptomRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	for i := range rules {
		for j, kw := range rules[i].Keywords {
			rules[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return rules, nil
}
