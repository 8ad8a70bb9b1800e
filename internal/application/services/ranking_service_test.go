package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/pkg/config"
	apperrors "github.com/carelink/er-routing/pkg/errors"
)

func testRankingConfig() config.RankingConfig {
	return config.RankingConfig{
		MaxRadiusKm:    50,
		DistanceWeight: 0.40,
		MatchWeight:    0.35,
		CapacityWeight: 0.25,
		MaxResults:     3,
	}
}

func criticalCardiologyProfile() *entities.SymptomProfile {
	return &entities.SymptomProfile{
		Urgency:             entities.UrgencyCritical,
		RequiredSpecialties: map[string]bool{"cardiology": true},
	}
}

func hospital(id, name string, specialties ...string) *entities.HospitalRecord {
	specs := make(map[string]bool, len(specialties))
	for _, s := range specialties {
		specs[s] = true
	}
	return &entities.HospitalRecord{ID: id, Name: name, Specialties: specs}
}

func snapshot(id string, generalBeds, typicalBeds int) *entities.CapacitySnapshot {
	return &entities.CapacitySnapshot{
		HospitalID:  id,
		GeneralBeds: generalBeds,
		TypicalBeds: typicalBeds,
		ObservedAt:  time.Now(),
	}
}

// Chest pain scenario: A is closest but has no free beds, C is closest of
// all but lacks cardiology. Only B survives the hard filters.
func TestRank_CriticalHardFilters(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	candidates := []RankingCandidate{
		{Hospital: hospital("A", "Alpha Heart Center", "cardiology"), Capacity: snapshot("A", 0, 20), DistanceKm: 2},
		{Hospital: hospital("B", "Beta General", "cardiology"), Capacity: snapshot("B", 5, 30), DistanceKm: 5},
		{Hospital: hospital("C", "Gamma Clinic"), Capacity: snapshot("C", 10, 15), DistanceKm: 1},
	}

	ranked, err := svc.Rank(criticalCardiologyProfile(), candidates)
	require.NoError(t, err)

	require.Len(t, ranked, 1)
	assert.Equal(t, "B", ranked[0].HospitalID)
}

func TestRank_MissingSnapshotExcludedWhenCritical(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	candidates := []RankingCandidate{
		{Hospital: hospital("A", "Alpha", "cardiology"), Capacity: nil, DistanceKm: 2},
	}

	_, err := svc.Rank(criticalCardiologyProfile(), candidates)
	assert.True(t, apperrors.IsNoEligibleHospital(err))
}

func TestRank_CeilingExpiredAlwaysExcluded(t *testing.T) {
	svc := NewRankingService(testRankingConfig())
	routine := &entities.SymptomProfile{Urgency: entities.UrgencyRoutine}

	candidates := []RankingCandidate{
		{Hospital: hospital("A", "Alpha"), Capacity: snapshot("A", 5, 10), DistanceKm: 2, CeilingExpired: true},
		{Hospital: hospital("B", "Beta"), Capacity: snapshot("B", 5, 10), DistanceKm: 4},
	}

	ranked, err := svc.Rank(routine, candidates)
	require.NoError(t, err)

	require.Len(t, ranked, 1)
	assert.Equal(t, "B", ranked[0].HospitalID)
}

func TestRank_NoEligibleDistinctFromEmptyInput(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	_, err := svc.Rank(criticalCardiologyProfile(), nil)
	assert.True(t, apperrors.IsNoEligibleHospital(err))
}

func TestRank_DeterministicOrderAndTieBreak(t *testing.T) {
	svc := NewRankingService(testRankingConfig())
	routine := &entities.SymptomProfile{Urgency: entities.UrgencyRoutine}

	// Identical scores and distances: ordering falls through to the ID.
	candidates := []RankingCandidate{
		{Hospital: hospital("B", "Beta"), Capacity: snapshot("B", 5, 10), DistanceKm: 3},
		{Hospital: hospital("A", "Alpha"), Capacity: snapshot("A", 5, 10), DistanceKm: 3},
		{Hospital: hospital("C", "Gamma"), Capacity: snapshot("C", 5, 10), DistanceKm: 3},
	}

	first, err := svc.Rank(routine, candidates)
	require.NoError(t, err)
	second, err := svc.Rank(routine, candidates)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "A", first[0].HospitalID)
	assert.Equal(t, "B", first[1].HospitalID)
	assert.Equal(t, "C", first[2].HospitalID)
}

func TestRank_TopThreeOnly(t *testing.T) {
	svc := NewRankingService(testRankingConfig())
	routine := &entities.SymptomProfile{Urgency: entities.UrgencyRoutine}

	candidates := make([]RankingCandidate, 0, 6)
	for _, id := range []string{"A", "B", "C", "D", "E", "F"} {
		candidates = append(candidates, RankingCandidate{
			Hospital:   hospital(id, id+" Hospital"),
			Capacity:   snapshot(id, 5, 10),
			DistanceKm: 3,
		})
	}

	ranked, err := svc.Rank(routine, candidates)
	require.NoError(t, err)
	assert.Len(t, ranked, 3)
}

func TestRank_RadiusRelaxationAdmitsNextClosest(t *testing.T) {
	svc := NewRankingService(testRankingConfig())
	routine := &entities.SymptomProfile{Urgency: entities.UrgencyRoutine}

	candidates := []RankingCandidate{
		{Hospital: hospital("A", "Alpha"), Capacity: snapshot("A", 5, 10), DistanceKm: 10},
		{Hospital: hospital("B", "Beta"), Capacity: snapshot("B", 5, 10), DistanceKm: 80},
		{Hospital: hospital("C", "Gamma"), Capacity: snapshot("C", 5, 10), DistanceKm: 120},
	}

	ranked, err := svc.Rank(routine, candidates)
	require.NoError(t, err)

	require.Len(t, ranked, 3)
	assert.Equal(t, "A", ranked[0].HospitalID)
	assert.Equal(t, "B", ranked[1].HospitalID)
	assert.Equal(t, "C", ranked[2].HospitalID)
}

func TestRank_FarCandidatesIgnoredWhenEnoughNearby(t *testing.T) {
	svc := NewRankingService(testRankingConfig())
	routine := &entities.SymptomProfile{Urgency: entities.UrgencyRoutine}

	candidates := []RankingCandidate{
		{Hospital: hospital("A", "Alpha"), Capacity: snapshot("A", 5, 10), DistanceKm: 5},
		{Hospital: hospital("B", "Beta"), Capacity: snapshot("B", 5, 10), DistanceKm: 10},
		{Hospital: hospital("C", "Gamma"), Capacity: snapshot("C", 5, 10), DistanceKm: 15},
		{Hospital: hospital("Z", "Zulu"), Capacity: snapshot("Z", 50, 50), DistanceKm: 90},
	}

	ranked, err := svc.Rank(routine, candidates)
	require.NoError(t, err)

	require.Len(t, ranked, 3)
	for _, r := range ranked {
		assert.NotEqual(t, "Z", r.HospitalID)
	}
}

func TestRank_CloserWinsOtherThingsEqual(t *testing.T) {
	svc := NewRankingService(testRankingConfig())
	routine := &entities.SymptomProfile{Urgency: entities.UrgencyRoutine}

	candidates := []RankingCandidate{
		{Hospital: hospital("far", "Far"), Capacity: snapshot("far", 5, 10), DistanceKm: 30},
		{Hospital: hospital("near", "Near"), Capacity: snapshot("near", 5, 10), DistanceKm: 2},
	}

	ranked, err := svc.Rank(routine, candidates)
	require.NoError(t, err)
	assert.Equal(t, "near", ranked[0].HospitalID)
}

func TestRank_SpecialtyBedsUsedForCriticalFilter(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	full := snapshot("A", 10, 20)
	full.SpecialtyBeds = map[string]int{"cardiology": 0}

	free := snapshot("B", 0, 20)
	free.SpecialtyBeds = map[string]int{"cardiology": 2}

	candidates := []RankingCandidate{
		{Hospital: hospital("A", "Alpha", "cardiology"), Capacity: full, DistanceKm: 2},
		{Hospital: hospital("B", "Beta", "cardiology"), Capacity: free, DistanceKm: 5},
	}

	ranked, err := svc.Rank(criticalCardiologyProfile(), candidates)
	require.NoError(t, err)

	require.Len(t, ranked, 1)
	assert.Equal(t, "B", ranked[0].HospitalID)
}

func TestRank_RationaleNamesDominantFactor(t *testing.T) {
	svc := NewRankingService(testRankingConfig())
	routine := &entities.SymptomProfile{Urgency: entities.UrgencyRoutine}

	candidates := []RankingCandidate{
		{Hospital: hospital("A", "Alpha"), Capacity: snapshot("A", 5, 10), DistanceKm: 1},
	}

	ranked, err := svc.Rank(routine, candidates)
	require.NoError(t, err)
	assert.NotEmpty(t, ranked[0].Rationale)
}
