package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/liveness"
	"github.com/luminar-software/presenca/internal/match"
)

// closed eyes: EAR = 0.05; open eyes: EAR = 0.5 (see liveness tests).
func eyeContour(height float64) []domain.Point {
	return []domain.Point{
		{X: 0, Y: 0},
		{X: 1, Y: height},
		{X: 3, Y: height},
		{X: 4, Y: 0},
		{X: 3, Y: -height},
		{X: 1, Y: -height},
	}
}

func closedEyes() *domain.EyePair {
	return &domain.EyePair{Left: eyeContour(0.1), Right: eyeContour(0.1)}
}

func openEyes() *domain.EyePair {
	return &domain.EyePair{Left: eyeContour(1), Right: eyeContour(1)}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.AttendanceEvent
}

func (r *eventRecorder) sink(e domain.AttendanceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []domain.AttendanceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AttendanceEvent(nil), r.events...)
}

func newTestSession(t *testing.T, rec *eventRecorder, entries ...domain.GalleryEntry) *Session {
	t.Helper()
	if len(entries) == 0 {
		entries = []domain.GalleryEntry{{Identity: "Alice", Embedding: []float64{0, 0}}}
	}
	matcher, err := match.New(entries, 0.5)
	require.NoError(t, err)
	return New(matcher, liveness.NewTracker(0.25, 3), rec.sink)
}

// Scenario A: recognized on every frame, closed eyes on three consecutive
// frames; the event fires on the third qualifying frame, not before.
func TestObserve_AttendanceFiresOnThirdBlinkFrame(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)
	obs := Observation{Embedding: []float64{0.3, 0}, Eyes: closedEyes()}

	out, err := s.Observe(obs)
	require.NoError(t, err)
	assert.True(t, out.Known)
	assert.Equal(t, "Alice", out.Identity)
	assert.InDelta(t, 0.3, out.Distance, 1e-12)
	assert.False(t, out.Live)
	assert.False(t, out.Recorded)
	assert.Empty(t, rec.all())

	out, err = s.Observe(obs)
	require.NoError(t, err)
	assert.False(t, out.Live)
	assert.Equal(t, 2, out.BlinkCount)
	assert.Empty(t, rec.all())

	out, err = s.Observe(obs)
	require.NoError(t, err)
	assert.True(t, out.Live)
	assert.True(t, out.Recorded)
	assert.True(t, out.JustRecorded)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "Alice", events[0].Identity)
	assert.Equal(t, s.ID(), events[0].SessionID)
	assert.WithinDuration(t, time.Now(), events[0].Timestamp, time.Minute)
}

// Scenario B: eyes never close, so liveness is never reached and no event
// fires regardless of frame count.
func TestObserve_NoBlinksNoAttendance(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)

	for i := 0; i < 50; i++ {
		out, err := s.Observe(Observation{Embedding: []float64{0.3, 0}, Eyes: openEyes()})
		require.NoError(t, err)
		assert.True(t, out.Known)
		assert.False(t, out.Live)
		assert.False(t, out.Recorded)
	}
	assert.Empty(t, rec.all())
}

// Scenario C: once recorded, further matching frames with closed eyes must
// not produce a second event.
func TestObserve_RecordedIsTerminal(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)
	obs := Observation{Embedding: []float64{0.1, 0}, Eyes: closedEyes()}

	for i := 0; i < 3; i++ {
		_, err := s.Observe(obs)
		require.NoError(t, err)
	}
	require.Len(t, rec.all(), 1)

	for i := 0; i < 20; i++ {
		out, err := s.Observe(obs)
		require.NoError(t, err)
		assert.True(t, out.Recorded)
		assert.False(t, out.JustRecorded)
	}
	assert.Len(t, rec.all(), 1)
	assert.True(t, s.IsRecorded("Alice"))
	assert.Equal(t, 1, s.RecordedCount())
}

// Scenario D: an unknown face never creates blink state and can never be
// recorded.
func TestObserve_UnknownFaceIsNotTracked(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)

	// Distance 0.6 >= 0.5 threshold.
	out, err := s.Observe(Observation{Embedding: []float64{0.6, 0}, Eyes: closedEyes()})
	require.NoError(t, err)
	assert.False(t, out.Known)
	assert.Empty(t, out.Identity)
	assert.InDelta(t, 0.6, out.Distance, 1e-12)
	assert.Zero(t, out.BlinkCount)

	// Even many closed-eye frames accumulate nothing for unknowns. When
	// Alice later shows up, she starts from zero.
	for i := 0; i < 5; i++ {
		_, err = s.Observe(Observation{Embedding: []float64{0.6, 0}, Eyes: closedEyes()})
		require.NoError(t, err)
	}
	out, err = s.Observe(Observation{Embedding: []float64{0, 0}, Eyes: closedEyes()})
	require.NoError(t, err)
	assert.Equal(t, 1, out.BlinkCount)
	assert.Empty(t, rec.all())
}

// Scenario E is covered by match.TestNew_EmptyGallery: a session cannot be
// built without a matcher, and match.New refuses an empty gallery.

func TestObserve_DimensionMismatchSurfaces(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)

	_, err := s.Observe(Observation{Embedding: []float64{0, 0, 0}})
	assert.ErrorIs(t, err, domain.ErrEmbeddingDimension)
}

func TestProcessFrame_FacesAreIndependent(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec,
		domain.GalleryEntry{Identity: "Alice", Embedding: []float64{0, 0}},
		domain.GalleryEntry{Identity: "Bob", Embedding: []float64{10, 10}},
	)

	// Alice blinks, Bob does not, an unknown face sits between them.
	frame := []Observation{
		{Embedding: []float64{0, 0}, Eyes: closedEyes()},
		{Embedding: []float64{5, 5}, Eyes: closedEyes()},
		{Embedding: []float64{10, 10}, Eyes: openEyes()},
	}

	var outcomes []Outcome
	for i := 0; i < 3; i++ {
		outcomes = s.ProcessFrame(frame)
		require.Len(t, outcomes, 3)
	}

	assert.Equal(t, "Alice", outcomes[0].Identity)
	assert.True(t, outcomes[0].JustRecorded)
	assert.False(t, outcomes[1].Known)
	assert.Equal(t, "Bob", outcomes[2].Identity)
	assert.False(t, outcomes[2].Live)
	assert.Zero(t, outcomes[2].BlinkCount)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, "Alice", events[0].Identity)
}

func TestProcessFrame_BadObservationDoesNotAbortOthers(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)

	outcomes := s.ProcessFrame([]Observation{
		{Embedding: []float64{0, 0, 0}, Eyes: closedEyes()}, // wrong dimension
		{Embedding: []float64{0, 0}, Eyes: closedEyes()},
	})
	require.Len(t, outcomes, 2)
	assert.NotEmpty(t, outcomes[0].Error)
	assert.True(t, outcomes[1].Known)
	assert.Equal(t, 1, outcomes[1].BlinkCount)
}

func TestReset_ClearsRecordAndBlinkState(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)
	obs := Observation{Embedding: []float64{0, 0}, Eyes: closedEyes()}

	for i := 0; i < 3; i++ {
		_, err := s.Observe(obs)
		require.NoError(t, err)
	}
	require.Len(t, rec.all(), 1)

	s.Reset()
	assert.False(t, s.IsRecorded("Alice"))

	// A fresh quota is required, and a second event may fire in the new run.
	out, err := s.Observe(obs)
	require.NoError(t, err)
	assert.Equal(t, 1, out.BlinkCount)
	assert.False(t, out.Live)

	for i := 0; i < 2; i++ {
		_, err = s.Observe(obs)
		require.NoError(t, err)
	}
	assert.Len(t, rec.all(), 2)
}

func TestManager_SessionsDoNotInterfere(t *testing.T) {
	rec := &eventRecorder{}
	matcher, err := match.New([]domain.GalleryEntry{
		{Identity: "Alice", Embedding: []float64{0, 0}},
	}, 0.5)
	require.NoError(t, err)

	mgr := NewManager(matcher, 0.25, 3, rec.sink)
	s1 := mgr.Create()
	s2 := mgr.Create()
	assert.Equal(t, 2, mgr.Count())

	obs := Observation{Embedding: []float64{0, 0}, Eyes: closedEyes()}
	for i := 0; i < 3; i++ {
		_, err = s1.Observe(obs)
		require.NoError(t, err)
	}

	// s1 recorded Alice; s2 has seen nothing.
	assert.True(t, s1.IsRecorded("Alice"))
	assert.False(t, s2.IsRecorded("Alice"))

	got, err := mgr.Get(s1.ID())
	require.NoError(t, err)
	assert.Same(t, s1, got)

	require.NoError(t, mgr.End(s1.ID()))
	_, err = mgr.Get(s1.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, mgr.End(s1.ID()), domain.ErrSessionNotFound)
	assert.Equal(t, 1, mgr.Count())
}

func TestObserve_AtMostOnceUnderConcurrency(t *testing.T) {
	rec := &eventRecorder{}
	s := newTestSession(t, rec)
	obs := Observation{Embedding: []float64{0, 0}, Eyes: closedEyes()}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = s.Observe(obs)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, rec.all(), 1)
}
