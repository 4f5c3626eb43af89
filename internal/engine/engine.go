// Package engine runs the frame-synchronous attendance loop: detect faces,
// encode each one, fetch eye landmarks, and feed the observations to the
// attendance session. One frame is fully processed before the next is
// accepted; the engine itself never blocks on anything but its vision
// collaborator.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/session"
	"github.com/luminar-software/presenca/internal/vision"
)

// Detection pairs a face's bounding box, mapped back to source-frame
// coordinates, with the session's decision for it.
type Detection struct {
	Box     domain.BoundingBox `json:"box"`
	Outcome session.Outcome    `json:"outcome"`
}

type Engine struct {
	provider  vision.Provider
	downscale float64
	logger    *slog.Logger
}

// New builds an engine. downscale is the factor the kiosk applied to the
// frame before detection (0 < downscale <= 1); bounding boxes are scaled
// by its inverse when reported, so overlays land on the original frame.
func New(provider vision.Provider, downscale float64, logger *slog.Logger) *Engine {
	if downscale <= 0 || downscale > 1 {
		downscale = 1
	}
	return &Engine{
		provider:  provider,
		downscale: downscale,
		logger:    logger,
	}
}

// ProcessFrame runs one frame through the full pipeline against the given
// session. Per-face vision failures are logged and skipped; a face with no
// usable eye landmarks is still observed (as a non-blink frame). Only a
// failed detection pass aborts the frame.
func (e *Engine) ProcessFrame(ctx context.Context, sess *session.Session, frame []byte) ([]Detection, error) {
	boxes, err := e.provider.DetectFaces(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	detections := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		embedding, err := e.provider.EncodeFace(ctx, frame, box)
		if err != nil {
			e.logger.Warn("encode face failed, skipping detection",
				slog.Any("error", err),
			)
			continue
		}

		eyes, err := e.provider.EyeLandmarks(ctx, frame, box)
		if err != nil {
			// Noisy landmark extraction must not stall the loop; the
			// frame simply cannot count as a blink.
			e.logger.Debug("eye landmarks unavailable",
				slog.Any("error", err),
			)
			eyes = nil
		}

		outcome, err := sess.Observe(session.Observation{
			Embedding: embedding,
			Eyes:      eyes,
		})
		if err != nil {
			e.logger.Warn("observation rejected",
				slog.Any("error", err),
			)
			continue
		}

		detections = append(detections, Detection{
			Box:     box.Scale(1 / e.downscale),
			Outcome: outcome,
		})
	}

	return detections, nil
}
