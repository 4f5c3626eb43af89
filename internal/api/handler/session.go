package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/engine"
	"github.com/luminar-software/presenca/internal/repository"
	"github.com/luminar-software/presenca/internal/session"
)

// SessionHandler exposes attendance sessions to kiosks. A kiosk either
// posts raw camera frames (the server runs detection) or posts
// pre-extracted observations when it does face detection on-device.
type SessionHandler struct {
	manager        *session.Manager
	engine         *engine.Engine
	attendanceRepo repository.AttendanceRepositoryInterface
	logger         *slog.Logger
}

func NewSessionHandler(manager *session.Manager, eng *engine.Engine, attendanceRepo repository.AttendanceRepositoryInterface, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		manager:        manager,
		engine:         eng,
		attendanceRepo: attendanceRepo,
		logger:         logger,
	}
}

// SessionResponse response for session endpoints
type SessionResponse struct {
	SessionID string `json:"session_id"`
	StartedAt string `json:"started_at"`
}

// FrameResponse response for frame processing
type FrameResponse struct {
	Detections []engine.Detection `json:"detections"`
}

// ObservationsRequest carries pre-extracted signals from a kiosk that
// runs its own face detector.
type ObservationsRequest struct {
	Observations []ObservationPayload `json:"observations"`
}

type ObservationPayload struct {
	Embedding []float64       `json:"embedding"`
	Eyes      *domain.EyePair `json:"eyes,omitempty"`
}

// ObservationsResponse response for observation processing
type ObservationsResponse struct {
	Outcomes []session.Outcome `json:"outcomes"`
}

// AttendanceResponse response for the attendance listing
type AttendanceResponse struct {
	SessionID string                    `json:"session_id"`
	Records   []domain.AttendanceRecord `json:"records"`
}

// Create POST /v1/sessions - start a new attendance session
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	sess := h.manager.Create()

	h.logger.Info("session started", "session_id", sess.ID())

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		SessionID: sess.ID().String(),
		StartedAt: sess.StartedAt().UTC().Format(time.RFC3339),
	})
}

// ProcessFrame POST /v1/sessions/:id/frames - run one camera frame
// through detection, matching and liveness
func (h *SessionHandler) ProcessFrame(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	frame, err := extractAndValidateImage(c, "frame")
	if err != nil {
		return err
	}

	detections, err := h.engine.ProcessFrame(c.Context(), sess, frame)
	if err != nil {
		return err
	}

	return c.JSON(FrameResponse{Detections: detections})
}

// ProcessObservations POST /v1/sessions/:id/observations - feed
// pre-extracted embeddings and eye landmarks into the session
func (h *SessionHandler) ProcessObservations(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	var req ObservationsRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if len(req.Observations) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("observations are required"))
	}

	observations := make([]session.Observation, 0, len(req.Observations))
	for _, o := range req.Observations {
		observations = append(observations, session.Observation{
			Embedding: o.Embedding,
			Eyes:      o.Eyes,
		})
	}

	outcomes := sess.ProcessFrame(observations)

	return c.JSON(ObservationsResponse{Outcomes: outcomes})
}

// Reset POST /v1/sessions/:id/reset - clear marked identities and
// blink progress, keeping the session id
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}

	sess.Reset()
	h.logger.Info("session reset", "session_id", sess.ID())

	return c.SendStatus(fiber.StatusNoContent)
}

// End DELETE /v1/sessions/:id - terminate the session
func (h *SessionHandler) End(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}

	if err := h.manager.End(id); err != nil {
		return err
	}

	h.logger.Info("session ended", "session_id", id)

	return c.SendStatus(fiber.StatusNoContent)
}

// ListAttendance GET /v1/sessions/:id/attendance - durable attendance
// records for the session
func (h *SessionHandler) ListAttendance(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}

	records, err := h.attendanceRepo.ListBySession(c.Context(), id)
	if err != nil {
		return err
	}

	if records == nil {
		records = []domain.AttendanceRecord{}
	}

	return c.JSON(AttendanceResponse{
		SessionID: id.String(),
		Records:   records,
	})
}

func (h *SessionHandler) sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidationFailed.WithError(errors.New("invalid session id"))
	}
	return id, nil
}

func (h *SessionHandler) session(c *fiber.Ctx) (*session.Session, error) {
	id, err := h.sessionID(c)
	if err != nil {
		return nil, err
	}
	return h.manager.Get(id)
}
