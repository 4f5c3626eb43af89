package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/liveness"
	"github.com/luminar-software/presenca/internal/match"
)

// Manager tracks the live attendance sessions. All sessions share one
// read-only matcher; each gets its own blink tracker and record set.
type Manager struct {
	matcher        *match.Matcher
	sink           Sink
	earThreshold   float64
	requiredBlinks int

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager(matcher *match.Matcher, earThreshold float64, requiredBlinks int, sink Sink) *Manager {
	return &Manager{
		matcher:        matcher,
		sink:           sink,
		earThreshold:   earThreshold,
		requiredBlinks: requiredBlinks,
		sessions:       make(map[uuid.UUID]*Session),
	}
}

// Create starts a new empty session.
func (m *Manager) Create() *Session {
	s := New(m.matcher, liveness.NewTracker(m.earThreshold, m.requiredBlinks), m.sink)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	return s
}

// Get returns the session or domain.ErrSessionNotFound.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// End destroys the session and all of its state.
func (m *Manager) End(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
