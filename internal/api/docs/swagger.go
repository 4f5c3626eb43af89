package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// SessionData represents a created attendance session
type SessionData struct {
	SessionID string `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartedAt string `json:"started_at" example:"2024-01-01T00:00:00Z"`
}

// OutcomeData represents the decision for one observed face
type OutcomeData struct {
	Identity     string  `json:"identity,omitempty" example:"Alice"`
	Known        bool    `json:"known" example:"true"`
	Distance     float64 `json:"distance" example:"0.32"`
	Live         bool    `json:"live" example:"true"`
	BlinkCount   int     `json:"blink_count" example:"3"`
	Recorded     bool    `json:"recorded" example:"true"`
	JustRecorded bool    `json:"just_recorded" example:"true"`
}

// BoxData represents a face bounding box in source-frame coordinates
type BoxData struct {
	X      float64 `json:"x" example:"120"`
	Y      float64 `json:"y" example:"80"`
	Width  float64 `json:"width" example:"200"`
	Height float64 `json:"height" example:"200"`
}

// DetectionData pairs a bounding box with its outcome
type DetectionData struct {
	Box     BoxData     `json:"box"`
	Outcome OutcomeData `json:"outcome"`
}

// FrameData represents the result of processing one camera frame
type FrameData struct {
	Detections []DetectionData `json:"detections"`
}

// OutcomesData represents the result of processing observations
type OutcomesData struct {
	Outcomes []OutcomeData `json:"outcomes"`
}

// AttendanceRecordData represents one durable attendance record
type AttendanceRecordData struct {
	ID         string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SessionID  string  `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Identity   string  `json:"identity" example:"Alice"`
	Status     string  `json:"status" example:"present"`
	Distance   float64 `json:"distance" example:"0.32"`
	RecordedAt string  `json:"recorded_at" example:"2024-01-01T00:00:00Z"`
}

// AttendanceData wraps a session's attendance listing
type AttendanceData struct {
	SessionID string                 `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Records   []AttendanceRecordData `json:"records"`
}

// EnrollData represents a successful enrollment
type EnrollData struct {
	Identity string `json:"identity" example:"Alice"`
}

// FaceSummaryData is a gallery entry without its embedding
type FaceSummaryData struct {
	Identity  string `json:"identity" example:"Alice"`
	CreatedAt string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt string `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// FaceListData wraps the gallery listing
type FaceListData struct {
	Faces []FaceSummaryData `json:"faces"`
	Total int               `json:"total" example:"42"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Presenca Attendance API",
		Version:     "v1.0.0",
		Description: "Face recognition attendance service: sessions, blink-based liveness and gallery enrollment",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	authError := response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized")
	internalError := response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	sessionNotFound := response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Attendance session not found"}, "404", "Not Found")

	endpoints := []*endpoint.EndPoint{
		// POST /v1/sessions - start a session
		endpoint.New(
			endpoint.POST,
			"/sessions",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Start an attendance session"),
			endpoint.WithDescription("Starts a new bounded attendance run with fresh liveness and attendance state"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionData{}, "201", "Session started"),
			}),
			endpoint.WithErrors([]response.Response{authError, internalError}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/sessions/:id/frames - process a camera frame
		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/frames",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Process one camera frame"),
			endpoint.WithDescription("Runs detection, matching and blink tracking on a raw camera frame and returns per-face decisions"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FrameData{}, "200", "Frame processed"),
			}),
			endpoint.WithErrors([]response.Response{
				authError,
				sessionNotFound,
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				internalError,
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/sessions/:id/observations - process pre-extracted signals
		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/observations",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Process pre-extracted observations"),
			endpoint.WithDescription("Feeds embeddings and eye landmarks extracted on-device into the session, for kiosks running their own detector"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(OutcomesData{}, "200", "Observations processed"),
			}),
			endpoint.WithErrors([]response.Response{
				authError,
				sessionNotFound,
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "observations are required"}, "422", "Unprocessable Entity"),
				internalError,
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/sessions/:id/reset - reset session state
		endpoint.New(
			endpoint.POST,
			"/sessions/{id}/reset",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Reset a session"),
			endpoint.WithDescription("Clears marked identities and blink progress so the same session can record everyone again"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Session reset"),
			}),
			endpoint.WithErrors([]response.Response{authError, sessionNotFound, internalError}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/sessions/:id - end session
		endpoint.New(
			endpoint.DELETE,
			"/sessions/{id}",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("End a session"),
			endpoint.WithDescription("Terminates the session; recorded attendance stays in the database"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Session ended"),
			}),
			endpoint.WithErrors([]response.Response{authError, sessionNotFound, internalError}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/sessions/:id/attendance - list attendance
		endpoint.New(
			endpoint.GET,
			"/sessions/{id}/attendance",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("List attendance for a session"),
			endpoint.WithDescription("Returns the durable attendance records for the session, in the order they were recorded"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session UUID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceData{}, "200", "Attendance retrieved"),
			}),
			endpoint.WithErrors([]response.Response{authError, internalError}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/faces - enroll a face
		endpoint.New(
			endpoint.POST,
			"/faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enroll a reference photo"),
			endpoint.WithDescription("Encodes a reference photo for the given identity. Re-enrolling an identity replaces its embedding."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollData{}, "201", "Face enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				authError,
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected"}, "422", "Unprocessable Entity"),
				internalError,
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/faces - list enrolled identities
		endpoint.New(
			endpoint.GET,
			"/faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("List enrolled identities"),
			endpoint.WithDescription("Returns the gallery in enrollment order, without embeddings"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceListData{}, "200", "Gallery retrieved"),
			}),
			endpoint.WithErrors([]response.Response{authError, internalError}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// DELETE /v1/faces/:identity - remove an identity
		endpoint.New(
			endpoint.DELETE,
			"/faces/{identity}",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Remove an identity from the gallery"),
			endpoint.WithDescription("Deletes the identity's embedding (LGPD compliance)"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("identity", parameter.Path, parameter.WithDescription("Display identity")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Face deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				authError,
				response.New(ErrorResponse{Code: "FACE_NOT_FOUND", Message: "Face not found"}, "404", "Not Found"),
				internalError,
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
