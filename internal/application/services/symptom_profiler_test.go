package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/er-routing/internal/domain/entities"
	apperrors "github.com/carelink/er-routing/pkg/errors"
)

func newTestProfiler(t *testing.T) *SymptomProfiler {
	t.Helper()
	profiler, err := NewSymptomProfiler("")
	require.NoError(t, err)
	return profiler
}

func TestProfile_ChestPainIsCriticalCardiology(t *testing.T) {
	profiler := newTestProfiler(t)

	profile, err := profiler.Profile("sudden chest pain and shortness of breath")
	require.NoError(t, err)

	assert.Equal(t, entities.UrgencyCritical, profile.Urgency)
	assert.True(t, profile.Requires("cardiology"))
	assert.Greater(t, profile.Confidence, 0.5)
}

func TestProfile_EmptyInputRejected(t *testing.T) {
	profiler := newTestProfiler(t)

	_, err := profiler.Profile("   ")
	assert.True(t, apperrors.IsEmptyInput(err))

	_, err = profiler.Profile("")
	assert.True(t, apperrors.IsEmptyInput(err))
}

func TestProfile_UnrecognizedInputIsRoutineLowConfidence(t *testing.T) {
	profiler := newTestProfiler(t)

	profile, err := profiler.Profile("xyzzy frobnicated widget")
	require.NoError(t, err)

	assert.Equal(t, entities.UrgencyRoutine, profile.Urgency)
	assert.Empty(t, profile.SpecialtyList())
	assert.Less(t, profile.Confidence, 0.4)
}

func TestProfile_CaseInsensitive(t *testing.T) {
	profiler := newTestProfiler(t)

	upper, err := profiler.Profile("CHEST PAIN")
	require.NoError(t, err)
	lower, err := profiler.Profile("chest pain")
	require.NoError(t, err)

	assert.Equal(t, lower.Urgency, upper.Urgency)
	assert.Equal(t, lower.SpecialtyList(), upper.SpecialtyList())
}

func TestProfile_HighestUrgencyWinsAcrossRules(t *testing.T) {
	profiler := newTestProfiler(t)

	profile, err := profiler.Profile("broken leg and chest pain")
	require.NoError(t, err)

	assert.Equal(t, entities.UrgencyCritical, profile.Urgency)
	assert.True(t, profile.Requires("cardiology"))
	assert.True(t, profile.Requires("orthopedics"))
}

func TestProfile_Deterministic(t *testing.T) {
	profiler := newTestProfiler(t)

	first, err := profiler.Profile("stroke symptoms with slurred speech")
	require.NoError(t, err)
	second, err := profiler.Profile("stroke symptoms with slurred speech")
	require.NoError(t, err)

	assert.Equal(t, first.Urgency, second.Urgency)
	assert.Equal(t, first.SpecialtyList(), second.SpecialtyList())
	assert.Equal(t, first.Confidence, second.Confidence)
}
