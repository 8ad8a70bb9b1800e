package services

import (
	"fmt"
	"sort"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/pkg/config"
	apperrors "github.com/carelink/er-routing/pkg/errors"
)

// RankingCandidate pairs a directory record with its distance from the
// patient and the latest capacity view for scoring.
type RankingCandidate struct {
	Hospital       *entities.HospitalRecord
	Capacity       *entities.CapacitySnapshot
	DistanceKm     float64
	CeilingExpired bool
}

// RankingService scores eligible hospitals and produces the ordered
// shortlist. Scoring is pure: the same inputs always produce the same
// output, in the same order.
type RankingService struct {
	cfg config.RankingConfig
}

// NewRankingService creates a ranking service; the weight configuration
// must already be validated.
func NewRankingService(cfg config.RankingConfig) *RankingService {
	return &RankingService{cfg: cfg}
}

// Rank filters and orders the candidates for a profile and position.
// Returns a no-eligible-hospital error when every candidate is filtered
// out, which is distinct from ranking over an empty candidate list.
func (s *RankingService) Rank(profile *entities.SymptomProfile, candidates []RankingCandidate) ([]entities.RankedCandidate, error) {
	if len(candidates) == 0 {
		return nil, apperrors.NewNoEligibleHospitalError("no hospitals available to rank")
	}

	survivors := make([]RankingCandidate, 0, len(candidates))
	for _, c := range candidates {
		if s.eligible(profile, c) {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 0 {
		return nil, apperrors.NewNoEligibleHospitalError("no hospital satisfies the required capabilities")
	}

	inRadius := make([]RankingCandidate, 0, len(survivors))
	beyond := make([]RankingCandidate, 0)
	for _, c := range survivors {
		if c.DistanceKm <= s.cfg.MaxRadiusKm {
			inRadius = append(inRadius, c)
		} else {
			beyond = append(beyond, c)
		}
	}

	// Too few nearby survivors: admit the next-closest ones beyond the
	// radius rather than returning a short list.
	if len(inRadius) < s.cfg.MaxResults && len(beyond) > 0 {
		sort.Slice(beyond, func(i, j int) bool {
			if beyond[i].DistanceKm != beyond[j].DistanceKm {
				return beyond[i].DistanceKm < beyond[j].DistanceKm
			}
			return beyond[i].Hospital.ID < beyond[j].Hospital.ID
		})
		missing := s.cfg.MaxResults - len(inRadius)
		if missing > len(beyond) {
			missing = len(beyond)
		}
		inRadius = append(inRadius, beyond[:missing]...)
	}

	ranked := make([]entities.RankedCandidate, 0, len(inRadius))
	for _, c := range inRadius {
		ranked = append(ranked, s.score(profile, c))
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].HospitalID < ranked[j].HospitalID
	})

	if len(ranked) > s.cfg.MaxResults {
		ranked = ranked[:s.cfg.MaxResults]
	}
	return ranked, nil
}

// eligible applies the hard filters. A snapshot past the stale ceiling
// disqualifies regardless of urgency; critical cases additionally require
// every needed specialty and at least one relevant bed.
func (s *RankingService) eligible(profile *entities.SymptomProfile, c RankingCandidate) bool {
	if c.Hospital == nil {
		return false
	}
	if c.CeilingExpired {
		return false
	}
	if profile == nil || profile.Urgency != entities.UrgencyCritical {
		return true
	}

	for _, specialty := range profile.SpecialtyList() {
		if !c.Hospital.HasSpecialty(specialty) {
			return false
		}
	}
	return relevantBeds(profile, c.Capacity) > 0
}

// relevantBeds counts the beds that matter for the profile: specialty beds
// for required specialties when the snapshot tracks them, general beds
// otherwise. No snapshot at all means zero.
func relevantBeds(profile *entities.SymptomProfile, snapshot *entities.CapacitySnapshot) int {
	if snapshot == nil {
		return 0
	}
	specialties := profile.SpecialtyList()
	if len(specialties) == 0 || len(snapshot.SpecialtyBeds) == 0 {
		return snapshot.GeneralBeds
	}
	total := 0
	tracked := false
	for _, specialty := range specialties {
		if beds, ok := snapshot.SpecialtyBeds[specialty]; ok {
			tracked = true
			total += beds
		}
	}
	if !tracked {
		return snapshot.GeneralBeds
	}
	return total
}

func (s *RankingService) score(profile *entities.SymptomProfile, c RankingCandidate) entities.RankedCandidate {
	distanceScore := 1.0 / (1.0 + c.DistanceKm/10.0)
	matchScore := specialtyMatch(profile, c.Hospital)
	capacityScore := availabilityScore(profile, c.Capacity)

	weighted := s.cfg.DistanceWeight*distanceScore +
		s.cfg.MatchWeight*matchScore +
		s.cfg.CapacityWeight*capacityScore

	ranked := entities.RankedCandidate{
		HospitalID:    c.Hospital.ID,
		Name:          c.Hospital.Name,
		PhoneNumber:   c.Hospital.PhoneNumber,
		Score:         weighted,
		DistanceScore: distanceScore,
		MatchScore:    matchScore,
		CapacityScore: capacityScore,
		DistanceKm:    c.DistanceKm,
	}
	ranked.Rationale = s.rationale(ranked)
	return ranked
}

// specialtyMatch is the fraction of required specialties the hospital
// offers; a profile with no requirements matches everything.
func specialtyMatch(profile *entities.SymptomProfile, hospital *entities.HospitalRecord) float64 {
	if profile == nil {
		return 1.0
	}
	required := profile.SpecialtyList()
	if len(required) == 0 {
		return 1.0
	}
	matched := 0
	for _, specialty := range required {
		if hospital.HasSpecialty(specialty) {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

// availabilityScore blends bed availability against typical capacity with
// the presence of required equipment. A missing snapshot scores zero,
// keeping unknown-capacity hospitals rankable but last for non-critical
// cases.
func availabilityScore(profile *entities.SymptomProfile, snapshot *entities.CapacitySnapshot) float64 {
	if snapshot == nil {
		return 0.0
	}

	bedRatio := 0.0
	if snapshot.TypicalBeds > 0 {
		bedRatio = float64(relevantBeds(profile, snapshot)) / float64(snapshot.TypicalBeds)
		if bedRatio > 1.0 {
			bedRatio = 1.0
		}
	} else if relevantBeds(profile, snapshot) > 0 {
		bedRatio = 1.0
	}

	equipmentScore := 1.0
	if profile != nil && len(profile.RequiredEquipment) > 0 {
		present := 0
		total := 0
		for name, required := range profile.RequiredEquipment {
			if !required {
				continue
			}
			total++
			if snapshot.Equipment[name] {
				present++
			}
		}
		if total > 0 {
			equipmentScore = float64(present) / float64(total)
		}
	}

	return 0.7*bedRatio + 0.3*equipmentScore
}

// rationale names the strongest weighted contributor so the shortlist can
// explain itself.
func (s *RankingService) rationale(r entities.RankedCandidate) string {
	distance := s.cfg.DistanceWeight * r.DistanceScore
	match := s.cfg.MatchWeight * r.MatchScore
	capacity := s.cfg.CapacityWeight * r.CapacityScore

	switch {
	case distance >= match && distance >= capacity:
		return fmt.Sprintf("closest suitable option at %.1f km", r.DistanceKm)
	case match >= capacity:
		return "strongest specialty coverage for the reported symptoms"
	default:
		return "best current bed and equipment availability"
	}
}
