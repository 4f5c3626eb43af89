// Package vision defines the external vision collaborator consumed by the
// attendance engine. Detection, embedding extraction and eye landmarks are
// all computed outside the core; implementations live in subpackages.
package vision

import (
	"context"

	"github.com/luminar-software/presenca/internal/domain"
)

// Provider is the per-frame vision collaborator interface
type Provider interface {
	// DetectFaces detects faces in the frame and returns one bounding box
	// per face, in detection order
	DetectFaces(ctx context.Context, frame []byte) ([]domain.BoundingBox, error)

	// EncodeFace extracts the biometric embedding for the face inside box
	EncodeFace(ctx context.Context, frame []byte, box domain.BoundingBox) ([]float64, error)

	// EyeLandmarks returns the eye contours for the face inside box, or
	// (nil, nil) when no usable landmarks were found. Absence is not an
	// error: the caller treats it as a non-blink observation.
	EyeLandmarks(ctx context.Context, frame []byte, box domain.BoundingBox) (*domain.EyePair, error)
}
