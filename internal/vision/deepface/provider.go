package deepface

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/luminar-software/presenca/internal/domain"
)

// Provider implements vision.Provider against a DeepFace extractor
// sidecar. The extractor works whole-frame, so per-face calls select the
// result whose facial area best overlaps the requested box.
type Provider struct {
	client *Client
}

func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// DetectFaces returns one bounding box per face found in the frame, in
// the extractor's detection order.
func (p *Provider) DetectFaces(ctx context.Context, frame []byte) ([]domain.BoundingBox, error) {
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(frame))
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	boxes := make([]domain.BoundingBox, 0, len(resp.Results))
	for _, result := range resp.Results {
		boxes = append(boxes, boxFromArea(result.FacialArea))
	}
	return boxes, nil
}

// EncodeFace extracts the embedding of the face inside box.
func (p *Provider) EncodeFace(ctx context.Context, frame []byte, box domain.BoundingBox) ([]float64, error) {
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(frame))
	if err != nil {
		return nil, fmt.Errorf("encode face: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	best := resp.Results[0]
	bestOverlap := overlap(box, boxFromArea(best.FacialArea))
	for _, result := range resp.Results[1:] {
		if o := overlap(box, boxFromArea(result.FacialArea)); o > bestOverlap {
			best = result
			bestOverlap = o
		}
	}
	return best.Embedding, nil
}

// EyeLandmarks fetches the eye contours for the face inside box. A face
// without usable eyes is (nil, nil), never an error.
func (p *Provider) EyeLandmarks(ctx context.Context, frame []byte, box domain.BoundingBox) (*domain.EyePair, error) {
	resp, err := p.client.Landmarks(ctx, base64.StdEncoding.EncodeToString(frame), areaFromBox(box))
	if err != nil {
		return nil, fmt.Errorf("eye landmarks: %w", err)
	}
	if len(resp.LeftEye) == 0 || len(resp.RightEye) == 0 {
		return nil, nil
	}

	return &domain.EyePair{
		Left:  toPoints(resp.LeftEye),
		Right: toPoints(resp.RightEye),
	}, nil
}

func toPoints(raw [][2]float64) []domain.Point {
	points := make([]domain.Point, len(raw))
	for i, p := range raw {
		points[i] = domain.Point{X: p[0], Y: p[1]}
	}
	return points
}

func boxFromArea(a FacialArea) domain.BoundingBox {
	return domain.BoundingBox{
		X:      float64(a.X),
		Y:      float64(a.Y),
		Width:  float64(a.W),
		Height: float64(a.H),
	}
}

func areaFromBox(b domain.BoundingBox) FacialArea {
	return FacialArea{
		X: int(b.X),
		Y: int(b.Y),
		W: int(b.Width),
		H: int(b.Height),
	}
}

// overlap computes intersection-over-union between two boxes, used to pair
// a requested box with the extractor's per-call detection results.
func overlap(a, b domain.BoundingBox) float64 {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)

	if x2 <= x1 || y2 <= y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Width*a.Height + b.Width*b.Height - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
