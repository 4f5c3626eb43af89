package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/luminar-software/presenca/internal/audit"
	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/repository"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Enroller encodes a reference photo and persists the gallery entry.
type Enroller interface {
	EnrollImage(ctx context.Context, identity string, frame []byte) error
}

// FaceHandler handles gallery enrollment over HTTP. Changes only take
// effect for sessions created after the service reloads its gallery.
type FaceHandler struct {
	enroller Enroller
	faceRepo repository.FaceRepositoryInterface
	logger   *slog.Logger
	audit    audit.Logger
}

func NewFaceHandler(enroller Enroller, faceRepo repository.FaceRepositoryInterface, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		enroller: enroller,
		faceRepo: faceRepo,
		logger:   logger,
		audit:    audit.NewSlogLogger(logger),
	}
}

// EnrollResponse response for enroll endpoint
type EnrollResponse struct {
	Identity string `json:"identity"`
}

// FaceListResponse response for the gallery listing
type FaceListResponse struct {
	Faces []FaceSummary `json:"faces"`
	Total int           `json:"total"`
}

// FaceSummary is a gallery entry without its embedding.
type FaceSummary struct {
	Identity  string `json:"identity"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Enroll POST /v1/faces - enroll a reference photo for an identity
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	identity := strings.TrimSpace(c.FormValue("identity"))
	if identity == "" {
		return domain.ErrValidationFailed.WithError(errors.New("identity is required"))
	}

	imageBytes, err := extractAndValidateImage(c, "image")
	if err != nil {
		return err
	}

	if err := h.enroller.EnrollImage(c.Context(), identity, imageBytes); err != nil {
		_ = h.audit.Log(c.Context(), audit.Event{
			EventType: audit.EventFaceEnrolled,
			Identity:  identity,
			Success:   false,
			Error:     err.Error(),
			IPAddress: c.IP(),
		})
		return err
	}

	_ = h.audit.Log(c.Context(), audit.Event{
		EventType: audit.EventFaceEnrolled,
		Identity:  identity,
		Success:   true,
		IPAddress: c.IP(),
	})

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Identity: identity,
	})
}

// List GET /v1/faces - list enrolled identities
func (h *FaceHandler) List(c *fiber.Ctx) error {
	faces, err := h.faceRepo.List(c.Context())
	if err != nil {
		return err
	}

	summaries := make([]FaceSummary, 0, len(faces))
	for _, f := range faces {
		summaries = append(summaries, FaceSummary{
			Identity:  f.Identity,
			CreatedAt: f.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: f.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(FaceListResponse{
		Faces: summaries,
		Total: len(summaries),
	})
}

// Delete DELETE /v1/faces/:identity - remove an identity from the
// gallery (LGPD)
func (h *FaceHandler) Delete(c *fiber.Ctx) error {
	identity := strings.TrimSpace(c.Params("identity"))
	if identity == "" {
		return domain.ErrValidationFailed.WithError(errors.New("identity is required"))
	}

	if err := h.faceRepo.Delete(c.Context(), identity); err != nil {
		return err
	}

	_ = h.audit.Log(c.Context(), audit.Event{
		EventType: audit.EventFaceDeleted,
		Identity:  identity,
		Success:   true,
		IPAddress: c.IP(),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

// extractAndValidateImage extracts and validates an image upload from
// the named multipart field
func extractAndValidateImage(c *fiber.Ctx, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	if file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
