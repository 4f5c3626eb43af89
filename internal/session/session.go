// Package session holds the per-session attendance state machine. Each
// identity moves Unseen → Recognized → Live → Recorded, and Recorded is
// terminal: the attendance sink fires exactly once per identity per
// session no matter how many further frames arrive.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/liveness"
	"github.com/luminar-software/presenca/internal/match"
)

// Sink receives each attendance event exactly once. The receiver owns
// durable storage and must not apply its own dedup logic.
type Sink func(domain.AttendanceEvent)

// Observation is one detected face's signals for one frame. Eyes may be
// nil when the vision collaborator found no usable landmarks.
type Observation struct {
	Embedding []float64
	Eyes      *domain.EyePair
}

// Outcome reports what the session decided for one observation.
type Outcome struct {
	Identity     string  `json:"identity,omitempty"`
	Known        bool    `json:"known"`
	Distance     float64 `json:"distance"`
	Live         bool    `json:"live"`
	BlinkCount   int     `json:"blink_count"`
	Recorded     bool    `json:"recorded"`
	JustRecorded bool    `json:"just_recorded"`
	Error        string  `json:"error,omitempty"`
}

// Session owns one bounded attendance run: the blink tracker and the set
// of identities already marked present. The gallery matcher is shared and
// read-only; everything mutable lives here, so concurrent sessions (one
// per camera) never interfere.
type Session struct {
	id        uuid.UUID
	matcher   *match.Matcher
	tracker   *liveness.Tracker
	sink      Sink
	now       func() time.Time
	startedAt time.Time

	mu       sync.Mutex
	recorded map[string]struct{}
}

func New(matcher *match.Matcher, tracker *liveness.Tracker, sink Sink) *Session {
	return &Session{
		id:        uuid.New(),
		matcher:   matcher,
		tracker:   tracker,
		sink:      sink,
		now:       time.Now,
		startedAt: time.Now(),
		recorded:  make(map[string]struct{}),
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Observe runs one detected face through matching, liveness and the
// at-most-once recording step.
func (s *Session) Observe(obs Observation) (Outcome, error) {
	res, err := s.matcher.Match(obs.Embedding)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Identity: res.Identity,
		Known:    res.Known,
		Distance: res.Distance,
	}

	// Unknown candidates never transition state: no blink tracking, no
	// session record.
	if !res.Known {
		return out, nil
	}

	out.Live = s.tracker.Observe(res.Identity, obs.Eyes)
	out.BlinkCount = s.tracker.Count(res.Identity)
	if !out.Live {
		return out, nil
	}

	s.mu.Lock()
	if _, done := s.recorded[res.Identity]; done {
		s.mu.Unlock()
		out.Recorded = true
		return out, nil
	}
	s.recorded[res.Identity] = struct{}{}
	s.mu.Unlock()

	event := domain.AttendanceEvent{
		ID:        uuid.New(),
		SessionID: s.id,
		Identity:  res.Identity,
		Distance:  res.Distance,
		Timestamp: s.now(),
	}
	if s.sink != nil {
		s.sink(event)
	}

	out.Recorded = true
	out.JustRecorded = true
	return out, nil
}

// ProcessFrame handles all faces detected in one frame, independently and
// in detection order. A malformed observation is reported in its own
// outcome and does not affect the others.
func (s *Session) ProcessFrame(observations []Observation) []Outcome {
	outcomes := make([]Outcome, len(observations))
	for i, obs := range observations {
		out, err := s.Observe(obs)
		if err != nil {
			out = Outcome{Error: err.Error()}
		}
		outcomes[i] = out
	}
	return outcomes
}

// IsRecorded reports whether the identity was already marked present.
func (s *Session) IsRecorded(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.recorded[identity]
	return ok
}

// RecordedCount returns how many identities were marked present so far.
func (s *Session) RecordedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

// Reset clears the session record and all blink state, starting a fresh
// attendance run under the same session ID.
func (s *Session) Reset() {
	s.mu.Lock()
	s.recorded = make(map[string]struct{})
	s.mu.Unlock()
	s.tracker.Reset()
}
