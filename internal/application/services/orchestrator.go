package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/internal/domain/providers"
	"github.com/carelink/er-routing/internal/infrastructure/observability"
	apperrors "github.com/carelink/er-routing/pkg/errors"
	"github.com/carelink/er-routing/pkg/geo"
)

// State is the orchestrator's session phase
type State int32

const (
	StateIdle State = iota
	StateProfiling
	StateFetching
	StateRanking
	StatePresenting
	StateError
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateProfiling:
		return "profiling"
	case StateFetching:
		return "fetching"
	case StateRanking:
		return "ranking"
	case StatePresenting:
		return "presenting"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

type triggerKind int

const (
	triggerSymptoms triggerKind = iota
	triggerLocation
	triggerTick
	triggerCoalesced
)

func (k triggerKind) String() string {
	switch k {
	case triggerSymptoms:
		return "symptoms"
	case triggerLocation:
		return "location"
	case triggerTick:
		return "tick"
	default:
		return "coalesced"
	}
}

// RegionResolver maps a position to the directory region key it falls in
type RegionResolver func(point entities.GeoPoint) string

// GridRegionResolver buckets positions into one-degree cells, which keeps a
// moving patient on the same directory entry until they cross a cell edge.
func GridRegionResolver(point entities.GeoPoint) string {
	return fmt.Sprintf("cell:%d:%d", int(math.Floor(point.Latitude)), int(math.Floor(point.Longitude)))
}

// Orchestrator drives a recommendation session. All triggers funnel into a
// single-consumer queue: one ranking pass runs at a time, triggers arriving
// mid-pass collapse into at most one pending follow-up, and a pass whose
// inputs were superseded finishes computing but is not published.
type Orchestrator struct {
	profiler      *SymptomProfiler
	transcriber   providers.Transcriber
	directory     *DirectoryCache
	poller        *CapacityPoller
	ranking       *RankingService
	tracker       *LocationTracker
	publisher     providers.RecommendationPublisher
	resolveRegion RegionResolver
	tickInterval  time.Duration

	mu      sync.Mutex
	profile *entities.SymptomProfile
	pending bool

	state      atomic.Int32
	generation atomic.Uint64
	triggers   chan triggerKind

	now func() time.Time
}

// NewOrchestrator wires a session orchestrator. The transcriber may be nil
// when no voice input is configured.
func NewOrchestrator(
	profiler *SymptomProfiler,
	transcriber providers.Transcriber,
	directory *DirectoryCache,
	poller *CapacityPoller,
	ranking *RankingService,
	tracker *LocationTracker,
	publisher providers.RecommendationPublisher,
	tickInterval time.Duration,
) *Orchestrator {
	o := &Orchestrator{
		profiler:      profiler,
		transcriber:   transcriber,
		directory:     directory,
		poller:        poller,
		ranking:       ranking,
		tracker:       tracker,
		publisher:     publisher,
		resolveRegion: GridRegionResolver,
		tickInterval:  tickInterval,
		triggers:      make(chan triggerKind, 1),
		now:           time.Now,
	}
	tracker.onAccept = func(entities.GeoPoint) {
		o.trigger(triggerLocation)
	}
	return o
}

// SetRegionResolver overrides the position-to-region mapping
func (o *Orchestrator) SetRegionResolver(resolver RegionResolver) {
	o.resolveRegion = resolver
}

// State returns the current session phase
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// SubmitSymptoms profiles a symptom description and schedules a ranking
// pass. Empty input is rejected before anything is scheduled.
func (o *Orchestrator) SubmitSymptoms(ctx context.Context, text string) error {
	o.setState(ctx, StateProfiling)

	profile, err := o.profiler.Profile(text)
	if err != nil {
		o.setState(ctx, StateIdle)
		return err
	}

	o.mu.Lock()
	o.profile = profile
	o.mu.Unlock()

	observability.LoggerFromContext(ctx).Info().
		Str("urgency", profile.Urgency.String()).
		Strs("specialties", profile.SpecialtyList()).
		Float64("confidence", profile.Confidence).
		Msg("symptom profile updated")

	o.trigger(triggerSymptoms)
	return nil
}

// SubmitVoice transcribes an audio payload and treats the text as a symptom
// submission.
func (o *Orchestrator) SubmitVoice(ctx context.Context, audio []byte) error {
	if o.transcriber == nil {
		return apperrors.NewTranscriptionError("no transcriber configured", nil)
	}
	text, err := o.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return err
	}
	return o.SubmitSymptoms(ctx, text)
}

// OfferLocation feeds a position reading through the tracker's debounce; an
// accepted reading schedules a ranking pass.
func (o *Orchestrator) OfferLocation(point entities.GeoPoint) (bool, error) {
	return o.tracker.Update(point)
}

// Profile returns the active symptom profile, if any
func (o *Orchestrator) Profile() *entities.SymptomProfile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.profile
}

// trigger schedules a ranking pass. When one is already queued or running,
// the new trigger merges into a single pending follow-up instead of
// growing a backlog.
func (o *Orchestrator) trigger(kind triggerKind) {
	o.generation.Add(1)
	select {
	case o.triggers <- kind:
	default:
		o.mu.Lock()
		o.pending = true
		o.mu.Unlock()
	}
}

// Run consumes triggers until the context is cancelled. The periodic tick
// re-ranks against drifting capacity even when the patient is idle.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.trigger(triggerTick)
		case kind := <-o.triggers:
			o.runPass(ctx, kind)

			o.mu.Lock()
			if o.pending {
				o.pending = false
				o.mu.Unlock()
				select {
				case o.triggers <- triggerCoalesced:
				default:
				}
			} else {
				o.mu.Unlock()
			}
		}
	}
}

// runPass executes one full recommendation pass. Failures land in the
// error state and are logged; the next trigger starts a fresh pass.
func (o *Orchestrator) runPass(ctx context.Context, kind triggerKind) {
	logger := observability.LoggerFromContext(ctx)
	startGen := o.generation.Load()

	o.mu.Lock()
	profile := o.profile
	o.mu.Unlock()
	location, haveLocation := o.tracker.Current()

	// A pass needs both inputs; triggers before the session is primed are
	// deliberately dropped.
	if profile == nil || !haveLocation {
		o.setState(ctx, StateIdle)
		return
	}

	passID := uuid.New().String()
	logger.Debug().
		Str("pass_id", passID).
		Str("trigger", kind.String()).
		Msg("ranking pass started")

	o.setState(ctx, StateFetching)
	region := o.resolveRegion(location)
	dir, err := o.directory.Get(ctx, region)
	if err != nil {
		o.fail(ctx, passID, err)
		return
	}

	nearby := o.directory.Nearby(region, location.Latitude, location.Longitude, o.ranking.cfg.MaxRadiusKm)
	candidates := make([]RankingCandidate, 0, len(dir.Records))
	watched := make([]string, 0, len(nearby))
	seen := make(map[string]bool, len(nearby))
	for _, hit := range nearby {
		watched = append(watched, hit.Record.ID)
		seen[hit.Record.ID] = true
		candidates = append(candidates, RankingCandidate{
			Hospital:   hit.Record,
			DistanceKm: hit.DistanceKm,
		})
	}
	// Out-of-radius records stay in the pool so radius relaxation has
	// something to fall back to. The closest few are capacity-polled as
	// well; without snapshots they could never pass the critical bed
	// filter, and relaxation would be dead for the cases that need it.
	farther := make([]RankingCandidate, 0)
	for _, record := range dir.Records {
		if seen[record.ID] {
			continue
		}
		farther = append(farther, RankingCandidate{
			Hospital:   record,
			DistanceKm: distanceTo(location, record),
		})
	}
	sort.Slice(farther, func(i, j int) bool {
		if farther[i].DistanceKm != farther[j].DistanceKm {
			return farther[i].DistanceKm < farther[j].DistanceKm
		}
		return farther[i].Hospital.ID < farther[j].Hospital.ID
	})
	for i, c := range farther {
		if i < o.ranking.cfg.MaxResults {
			watched = append(watched, c.Hospital.ID)
		}
		candidates = append(candidates, c)
	}

	o.poller.SetWatch(watched)
	o.poller.PollOnce(ctx)

	degraded := dir.Degraded
	for i := range candidates {
		id := candidates[i].Hospital.ID
		candidates[i].Capacity = o.poller.Snapshot(id)
		candidates[i].CeilingExpired = o.poller.CeilingExpired(id)
		if candidates[i].Capacity != nil && candidates[i].Capacity.Stale {
			degraded = true
		}
	}

	o.setState(ctx, StateRanking)
	ranked, err := o.ranking.Rank(profile, candidates)
	if err != nil {
		if apperrors.IsNoEligibleHospital(err) {
			o.publish(ctx, startGen, &entities.Recommendation{
				ID:          passID,
				Degraded:    degraded,
				NoEligible:  true,
				GeneratedAt: o.now(),
			})
		}
		o.fail(ctx, passID, err)
		return
	}

	o.publish(ctx, startGen, &entities.Recommendation{
		ID:          passID,
		Candidates:  ranked,
		Degraded:    degraded,
		GeneratedAt: o.now(),
	})
	o.setState(ctx, StateIdle)
}

// publish hands the result to the subscriber unless a newer trigger arrived
// while this pass was computing. The superseded pass completed its work; it
// just stays silent so the follow-up pass speaks last.
func (o *Orchestrator) publish(ctx context.Context, startGen uint64, rec *entities.Recommendation) {
	if o.generation.Load() != startGen {
		observability.LoggerFromContext(ctx).Debug().
			Str("pass_id", rec.ID).
			Msg("ranking pass superseded, result withheld")
		return
	}
	o.setState(ctx, StatePresenting)
	if o.publisher != nil {
		o.publisher.Publish(ctx, rec)
	}
}

func (o *Orchestrator) fail(ctx context.Context, passID string, err error) {
	observability.LoggerFromContext(ctx).Warn().
		Err(err).
		Str("pass_id", passID).
		Msg("ranking pass failed")
	o.state.Store(int32(StateError))
}

func (o *Orchestrator) setState(ctx context.Context, next State) {
	prev := State(o.state.Swap(int32(next)))
	if prev != next {
		observability.LoggerFromContext(ctx).Debug().
			Str("from", prev.String()).
			Str("to", next.String()).
			Msg("session state changed")
	}
}

func distanceTo(point entities.GeoPoint, record *entities.HospitalRecord) float64 {
	return geo.DistanceKm(point.Latitude, point.Longitude, record.Location.Latitude, record.Location.Longitude)
}
