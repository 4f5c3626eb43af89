package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/luminar-software/presenca/internal/api/middleware"
	"github.com/luminar-software/presenca/internal/domain"
)

type MockEnroller struct {
	mock.Mock
}

func (m *MockEnroller) EnrollImage(ctx context.Context, identity string, frame []byte) error {
	args := m.Called(ctx, identity, frame)
	return args.Error(0)
}

type MockFaceRepo struct {
	mock.Mock
}

func (m *MockFaceRepo) Upsert(ctx context.Context, face *domain.Face) error {
	args := m.Called(ctx, face)
	return args.Error(0)
}

func (m *MockFaceRepo) GetByIdentity(ctx context.Context, identity string) (*domain.Face, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Face), args.Error(1)
}

func (m *MockFaceRepo) List(ctx context.Context) ([]domain.Face, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Face), args.Error(1)
}

func (m *MockFaceRepo) Delete(ctx context.Context, identity string) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func (m *MockFaceRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newFaceApp(enroller *MockEnroller, repo *MockFaceRepo) *fiber.App {
	h := NewFaceHandler(enroller, repo, testLogger)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger),
	})

	v1 := app.Group("/v1")
	v1.Post("/faces", h.Enroll)
	v1.Get("/faces", h.List)
	v1.Delete("/faces/:identity", h.Delete)

	return app
}

func buildEnrollForm(t *testing.T, identity string, image []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if identity != "" {
		require.NoError(t, writer.WriteField("identity", identity))
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="photo.jpg"`)
	hdr.Set("Content-Type", contentType)
	part, err := writer.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestFaceHandler_Enroll(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		enroller := new(MockEnroller)
		enroller.On("EnrollImage", mock.Anything, "Alice", []byte("photo-bytes")).Return(nil)

		app := newFaceApp(enroller, new(MockFaceRepo))

		body, contentType := buildEnrollForm(t, "Alice", []byte("photo-bytes"), "image/jpeg")
		req := httptest.NewRequest("POST", "/v1/faces", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var out EnrollResponse
		respBody, _ := io.ReadAll(resp.Body)
		require.NoError(t, json.Unmarshal(respBody, &out))
		assert.Equal(t, "Alice", out.Identity)

		enroller.AssertExpectations(t)
	})

	t.Run("missing identity", func(t *testing.T) {
		app := newFaceApp(new(MockEnroller), new(MockFaceRepo))

		body, contentType := buildEnrollForm(t, "", []byte("photo-bytes"), "image/jpeg")
		req := httptest.NewRequest("POST", "/v1/faces", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		app := newFaceApp(new(MockEnroller), new(MockFaceRepo))

		body, contentType := buildEnrollForm(t, "Alice", []byte("plain text"), "text/plain")
		req := httptest.NewRequest("POST", "/v1/faces", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})

	t.Run("no face in photo", func(t *testing.T) {
		enroller := new(MockEnroller)
		enroller.On("EnrollImage", mock.Anything, "Alice", mock.Anything).Return(domain.ErrNoFaceDetected)

		app := newFaceApp(enroller, new(MockFaceRepo))

		body, contentType := buildEnrollForm(t, "Alice", []byte("photo-bytes"), "image/jpeg")
		req := httptest.NewRequest("POST", "/v1/faces", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})
}

func TestFaceHandler_List(t *testing.T) {
	now := time.Now().UTC()

	repo := new(MockFaceRepo)
	repo.On("List", mock.Anything).Return([]domain.Face{
		{ID: uuid.New(), Identity: "Alice", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Identity: "Bob", CreatedAt: now, UpdatedAt: now},
	}, nil)

	app := newFaceApp(new(MockEnroller), repo)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/faces", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var out FaceListResponse
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &out))

	assert.Equal(t, 2, out.Total)
	require.Len(t, out.Faces, 2)
	assert.Equal(t, "Alice", out.Faces[0].Identity)
}

func TestFaceHandler_List_TimestampsInUTC(t *testing.T) {
	// Timestamps stored with a non-UTC offset must come back converted,
	// not just relabeled with a Z suffix.
	loc := time.FixedZone("BRT", -3*60*60)
	local := time.Date(2026, 8, 26, 9, 30, 0, 0, loc)

	repo := new(MockFaceRepo)
	repo.On("List", mock.Anything).Return([]domain.Face{
		{ID: uuid.New(), Identity: "Alice", CreatedAt: local, UpdatedAt: local},
	}, nil)

	app := newFaceApp(new(MockEnroller), repo)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/faces", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var out FaceListResponse
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &out))

	require.Len(t, out.Faces, 1)
	assert.Equal(t, "2026-08-26T12:30:00Z", out.Faces[0].CreatedAt)
	assert.Equal(t, "2026-08-26T12:30:00Z", out.Faces[0].UpdatedAt)
}

func TestFaceHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := new(MockFaceRepo)
		repo.On("Delete", mock.Anything, "Alice").Return(nil)

		app := newFaceApp(new(MockEnroller), repo)

		resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/faces/Alice", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockFaceRepo)
		repo.On("Delete", mock.Anything, "Ghost").Return(domain.ErrFaceNotFound)

		app := newFaceApp(new(MockEnroller), repo)

		resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/faces/Ghost", nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}
