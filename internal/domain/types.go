package domain

import (
	"time"

	"github.com/google/uuid"
)

// Point is a single 2D landmark coordinate in frame space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EyePair holds the ordered landmark contours of one detected face's eyes
// for a single frame. Each contour has at least 6 points (p0..p5 around the
// eye); anything shorter is treated as malformed and ignored by the
// liveness tracker. The pair is transient and never stored.
type EyePair struct {
	Left  []Point `json:"left_eye"`
	Right []Point `json:"right_eye"`
}

// GalleryEntry representa uma face cadastrada: a identidade e o embedding
// biométrico gerado na matrícula. Entries are read-only after enrollment.
type GalleryEntry struct {
	Identity  string
	Embedding []float64
}

// Face representa uma face cadastrada no banco (tabela faces).
type Face struct {
	ID        uuid.UUID `json:"id"`
	Identity  string    `json:"identity"`
	Embedding []float64 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoundingBox represents the face area in the image
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scale returns the box rescaled by factor. Used to map detections made on
// a downscaled frame back to source-frame coordinates.
func (b BoundingBox) Scale(factor float64) BoundingBox {
	return BoundingBox{
		X:      b.X * factor,
		Y:      b.Y * factor,
		Width:  b.Width * factor,
		Height: b.Height * factor,
	}
}

// AttendanceEvent is produced exactly once per identity per session and
// handed to the configured sink. Never mutated after creation.
type AttendanceEvent struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Identity  string    `json:"identity"`
	Distance  float64   `json:"distance"`
	Timestamp time.Time `json:"timestamp"`
}

// AttendanceStatus values stored in attendance records.
const (
	StatusPresent = "present"
)

// AttendanceRecord is the durable, append-only form of an AttendanceEvent.
// The attendance store must not apply its own dedup logic: the session's
// record set is the single source of truth for "present" decisions.
type AttendanceRecord struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	Identity   string    `json:"identity"`
	Status     string    `json:"status"`
	Distance   float64   `json:"distance"`
	RecordedAt time.Time `json:"recorded_at"`
}
