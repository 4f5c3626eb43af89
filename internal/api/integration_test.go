//go:build integration

package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/luminar-software/presenca/internal/database"
	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/engine"
	"github.com/luminar-software/presenca/internal/enroll"
	"github.com/luminar-software/presenca/internal/match"
	"github.com/luminar-software/presenca/internal/repository"
	"github.com/luminar-software/presenca/internal/session"
	"github.com/luminar-software/presenca/internal/vision/mock"
)

const integrationAPIKey = "integration-test-key"

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	// Start PostgreSQL container with pgvector
	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "presenca_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}()

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/presenca_test?sslmode=disable", host, port.Port())

	migrator, err := database.NewMigrator(connStr, "presenca_test")
	if err != nil {
		fmt.Printf("Failed to create migrator: %v\n", err)
		os.Exit(1)
	}
	if err := migrator.Up(); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		os.Exit(1)
	}
	migrator.Close()

	testDB, err = pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer testDB.Close()

	code := m.Run()
	os.Exit(code)
}

// alicePhoto is the frame used both for enrollment and for session
// frames. The mock provider encodes deterministically from the bytes,
// so posting the same frame yields a distance of zero.
func alicePhoto() []byte {
	return bytes.Repeat([]byte("alice-reference-photo-pixels-"), 10)
}

// newIntegrationRouter enrolls Alice, loads the gallery and wires the
// full stack against the container database.
func newIntegrationRouter(t *testing.T) *Router {
	t.Helper()
	ctx := context.Background()

	if _, err := testDB.Exec(ctx, "TRUNCATE faces, attendance, webhook_queue"); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := mock.New()
	faceRepo := repository.NewFaceRepository(testDB)
	attendanceRepo := repository.NewAttendanceRepository(testDB)
	enroller := enroll.NewEnroller(provider, faceRepo, logger)

	if err := enroller.EnrollImage(ctx, "Alice", alicePhoto()); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	entries, err := enroll.LoadGallery(ctx, faceRepo)
	if err != nil {
		t.Fatalf("load gallery: %v", err)
	}
	matcher, err := match.New(entries, 0.5)
	if err != nil {
		t.Fatalf("matcher: %v", err)
	}

	sink := func(ev domain.AttendanceEvent) {
		rec := &domain.AttendanceRecord{
			ID:         ev.ID,
			SessionID:  ev.SessionID,
			Identity:   ev.Identity,
			Distance:   ev.Distance,
			RecordedAt: ev.Timestamp,
		}
		if err := attendanceRepo.Create(context.Background(), rec); err != nil {
			t.Errorf("persist attendance: %v", err)
		}
	}

	manager := session.NewManager(matcher, 0.25, 3, sink)
	eng := engine.New(provider, 0.5, logger)

	router := NewRouter(logger, &Dependencies{
		DB:             testDB,
		Manager:        manager,
		Engine:         eng,
		Enroller:       enroller,
		FaceRepo:       faceRepo,
		AttendanceRepo: attendanceRepo,
		APIKeyHash:     fmt.Sprintf("%x", sha256.Sum256([]byte(integrationAPIKey))),
	})
	router.Setup()
	return router
}

func frameRequest(t *testing.T, frame []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="frame"; filename="frame.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	writer.Close()

	return body, writer.FormDataContentType()
}

func TestIntegration_HealthEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, nil)
	router.Setup()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("status = %v, want ok", result["status"])
	}
}

func TestIntegration_ReadyEndpoint(t *testing.T) {
	router := newIntegrationRouter(t)
	defer router.Shutdown()

	req := httptest.NewRequest("GET", "/ready", nil)
	resp, err := router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestIntegration_RequiresAPIKey(t *testing.T) {
	router := newIntegrationRouter(t)
	defer router.Shutdown()

	req := httptest.NewRequest("POST", "/v1/sessions", nil)
	resp, err := router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != 401 {
		t.Errorf("Status = %d, want 401", resp.StatusCode)
	}
}

func TestIntegration_AttendanceFlow(t *testing.T) {
	router := newIntegrationRouter(t)
	defer router.Shutdown()
	app := router.App()
	auth := "Bearer " + integrationAPIKey

	// Start a session
	req := httptest.NewRequest("POST", "/v1/sessions", nil)
	req.Header.Set("Authorization", auth)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("Status = %d, want 201", resp.StatusCode)
	}

	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	// The mock provider reports closed eyes on every frame, so three
	// frames complete the required three blinks and record attendance.
	var last struct {
		Detections []struct {
			Outcome struct {
				Identity     string `json:"identity"`
				Known        bool   `json:"known"`
				Recorded     bool   `json:"recorded"`
				JustRecorded bool   `json:"just_recorded"`
			} `json:"outcome"`
		} `json:"detections"`
	}
	for i := 0; i < 3; i++ {
		body, contentType := frameRequest(t, alicePhoto())
		req = httptest.NewRequest("POST", "/v1/sessions/"+created.SessionID+"/frames", body)
		req.Header.Set("Authorization", auth)
		req.Header.Set("Content-Type", contentType)
		resp, err = app.Test(req, -1)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("frame %d: Status = %d, want 200", i, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&last); err != nil {
			t.Fatalf("frame %d: decode: %v", i, err)
		}
	}

	if len(last.Detections) != 1 {
		t.Fatalf("detections = %d, want 1", len(last.Detections))
	}
	outcome := last.Detections[0].Outcome
	if outcome.Identity != "Alice" || !outcome.Known {
		t.Errorf("outcome = %+v, want Alice known", outcome)
	}
	if !outcome.Recorded || !outcome.JustRecorded {
		t.Errorf("outcome = %+v, want recorded on third frame", outcome)
	}

	// Listing must reflect the persisted record
	req = httptest.NewRequest("GET", "/v1/sessions/"+created.SessionID+"/attendance", nil)
	req.Header.Set("Authorization", auth)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("list attendance: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("list attendance: Status = %d, want 200", resp.StatusCode)
	}

	var listing struct {
		Records []struct {
			Identity string `json:"identity"`
			Status   string `json:"status"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode attendance: %v", err)
	}
	if len(listing.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(listing.Records))
	}
	if listing.Records[0].Identity != "Alice" || listing.Records[0].Status != "present" {
		t.Errorf("record = %+v, want Alice present", listing.Records[0])
	}

	// And the row must exist in the database
	var count int
	err = testDB.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM attendance WHERE session_id = $1 AND identity = 'Alice'",
		created.SessionID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count attendance: %v", err)
	}
	if count != 1 {
		t.Errorf("attendance rows = %d, want 1", count)
	}
}

func TestIntegration_FaceListing(t *testing.T) {
	router := newIntegrationRouter(t)
	defer router.Shutdown()

	req := httptest.NewRequest("GET", "/v1/faces", nil)
	req.Header.Set("Authorization", "Bearer "+integrationAPIKey)
	resp, err := router.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var listing struct {
		Faces []struct {
			Identity string `json:"identity"`
		} `json:"faces"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode faces: %v", err)
	}
	if listing.Total != 1 || len(listing.Faces) != 1 || listing.Faces[0].Identity != "Alice" {
		t.Errorf("listing = %+v, want one entry Alice", listing)
	}
}

func TestIntegration_PgvectorExtension(t *testing.T) {
	ctx := context.Background()

	var version string
	err := testDB.QueryRow(ctx, "SELECT extversion FROM pg_extension WHERE extname = 'vector'").Scan(&version)
	if err != nil {
		t.Fatalf("pgvector not available: %v", err)
	}

	t.Logf("pgvector version: %s", version)
}
