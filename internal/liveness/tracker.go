// Package liveness accumulates blink evidence per identity across frames.
// A face counts as live once enough closed-eye frames have been observed,
// which guards against photos and screen replays of enrolled people.
package liveness

import (
	"math"
	"sync"

	"github.com/luminar-software/presenca/internal/domain"
)

// minEyePoints is the smallest landmark contour EyeAspectRatio accepts.
const minEyePoints = 6

// Tracker owns all per-identity blink counters for one session. Counters
// only grow; Reset is the only way to clear them.
//
// Known limitation: the counter accumulates closed-eye frame observations,
// not discrete blink events. A single long eye closure spanning several
// frames counts once per frame, so it over-counts relative to true blinks.
// The quota semantics were kept as-is rather than switching to
// closed-to-open edge detection.
type Tracker struct {
	mu             sync.Mutex
	blinkCounts    map[string]int
	earThreshold   float64
	requiredBlinks int
}

func NewTracker(earThreshold float64, requiredBlinks int) *Tracker {
	return &Tracker{
		blinkCounts:    make(map[string]int),
		earThreshold:   earThreshold,
		requiredBlinks: requiredBlinks,
	}
}

// Observe folds one frame's eye geometry into the identity's blink counter
// and reports whether the identity has met the liveness quota. Missing or
// malformed landmarks are silent no-ops, never errors: the per-frame input
// is noisy and the real-time loop must not fault on it. The verdict is
// sticky for the session since counters never decrease.
func (t *Tracker) Observe(identity string, eyes *domain.EyePair) bool {
	closed := false
	if eyes != nil && len(eyes.Left) >= minEyePoints && len(eyes.Right) >= minEyePoints {
		ear := (EyeAspectRatio(eyes.Left) + EyeAspectRatio(eyes.Right)) / 2.0
		closed = ear < t.earThreshold
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if closed {
		t.blinkCounts[identity]++
	}
	return t.blinkCounts[identity] >= t.requiredBlinks
}

// Count returns the identity's accumulated closed-eye frame count.
func (t *Tracker) Count(identity string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blinkCounts[identity]
}

// IsLive reports the current verdict without observing a frame.
func (t *Tracker) IsLive(identity string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blinkCounts[identity] >= t.requiredBlinks
}

// Reset clears all blink state, for the start of a new session.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blinkCounts = make(map[string]int)
}

// EyeAspectRatio computes the eye openness proxy from the first six
// contour points p0..p5 ordered around the eye:
//
//	EAR = (‖p1−p5‖ + ‖p2−p4‖) / (2·‖p0−p3‖)
//
// Degenerate geometry (zero width) yields 1.0, i.e. "not closed", so bad
// landmarks can never register a blink or divide by zero.
func EyeAspectRatio(points []domain.Point) float64 {
	if len(points) < minEyePoints {
		return 1.0
	}

	a := pointDistance(points[1], points[5])
	b := pointDistance(points[2], points[4])
	c := pointDistance(points[0], points[3])

	if c == 0 {
		return 1.0
	}
	return (a + b) / (2.0 * c)
}

func pointDistance(p, q domain.Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}
