// Package mock implementa vision.Provider para testes e desenvolvimento.
// Embeddings are derived deterministically from the frame bytes, so the
// same image always encodes to the same vector.
package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/luminar-software/presenca/internal/domain"
)

const embeddingDimension = 128

// minFrameSize rejects obviously truncated inputs, mirroring what a real
// decoder would do with a corrupt image.
const minFrameSize = 64

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

// DetectFaces simulates detection: one centered face per frame.
func (p *Provider) DetectFaces(ctx context.Context, frame []byte) ([]domain.BoundingBox, error) {
	if len(frame) < minFrameSize {
		return nil, domain.ErrInvalidImage
	}

	return []domain.BoundingBox{
		{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
	}, nil
}

// EncodeFace generates a deterministic unit-norm embedding from the frame
// hash. The box does not influence the result since the mock always
// reports a single face.
func (p *Provider) EncodeFace(ctx context.Context, frame []byte, box domain.BoundingBox) ([]float64, error) {
	if len(frame) < minFrameSize {
		return nil, domain.ErrInvalidImage
	}
	return generateEmbedding(frame), nil
}

// EyeLandmarks returns a closed-eye contour pair on every frame so the
// full pipeline can reach liveness in development without a real camera.
func (p *Provider) EyeLandmarks(ctx context.Context, frame []byte, box domain.BoundingBox) (*domain.EyePair, error) {
	if len(frame) < minFrameSize {
		return nil, domain.ErrInvalidImage
	}

	left := eyeContour(box.X+box.Width*0.25, box.Y+box.Height*0.4)
	right := eyeContour(box.X+box.Width*0.75, box.Y+box.Height*0.4)
	return &domain.EyePair{Left: left, Right: right}, nil
}

// eyeContour builds a nearly shut 6-point eye around (cx, cy):
// EAR = (0.004+0.004)/(2*0.04) = 0.1.
func eyeContour(cx, cy float64) []domain.Point {
	return []domain.Point{
		{X: cx - 0.02, Y: cy},
		{X: cx - 0.01, Y: cy + 0.002},
		{X: cx + 0.01, Y: cy + 0.002},
		{X: cx + 0.02, Y: cy},
		{X: cx + 0.01, Y: cy - 0.002},
		{X: cx - 0.01, Y: cy - 0.002},
	}
}

// generateEmbedding derives a unit-norm vector from the frame hash.
func generateEmbedding(frame []byte) []float64 {
	hash := sha256.Sum256(frame)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}
