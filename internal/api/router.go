package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/luminar-software/presenca/internal/api/docs"
	"github.com/luminar-software/presenca/internal/api/handler"
	"github.com/luminar-software/presenca/internal/api/middleware"
	"github.com/luminar-software/presenca/internal/engine"
	"github.com/luminar-software/presenca/internal/enroll"
	"github.com/luminar-software/presenca/internal/repository"
	"github.com/luminar-software/presenca/internal/session"
	"github.com/luminar-software/presenca/internal/webhook"
)

type Dependencies struct {
	DB             *pgxpool.Pool
	Manager        *session.Manager
	Engine         *engine.Engine
	Enroller       *enroll.Enroller
	FaceRepo       repository.FaceRepositoryInterface
	AttendanceRepo repository.AttendanceRepositoryInterface
	WebhookService *webhook.Service
	APIKeyHash     string
}

type Router struct {
	app           *fiber.App
	logger        *slog.Logger
	deps          *Dependencies
	rateLimiter   *middleware.RateLimiter
	webhookWorker *webhook.Worker
	cancelWorker  context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Presenca API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	var db *pgxpool.Pool
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group with authentication
	v1 := r.app.Group("/v1")

	// Only configure authenticated routes if dependencies were provided
	if r.deps != nil {
		// Retry queue for failed attendance event deliveries
		if r.deps.WebhookService != nil && r.deps.WebhookService.Enabled() {
			r.webhookWorker = webhook.NewWorker(r.deps.DB, r.deps.WebhookService, r.logger)

			ctx, cancel := context.WithCancel(context.Background())
			r.cancelWorker = cancel
			go r.webhookWorker.Run(ctx)
		}

		// Auth middleware
		v1.Use(middleware.Auth(r.deps.APIKeyHash))

		// Rate limiting (per kiosk) - must come after auth
		r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		v1.Use(r.rateLimiter.Handler())

		// Session handler
		sessionHandler := handler.NewSessionHandler(r.deps.Manager, r.deps.Engine, r.deps.AttendanceRepo, r.logger)

		// Session routes
		v1.Post("/sessions", sessionHandler.Create)
		v1.Post("/sessions/:id/frames", sessionHandler.ProcessFrame)
		v1.Post("/sessions/:id/observations", sessionHandler.ProcessObservations)
		v1.Post("/sessions/:id/reset", sessionHandler.Reset)
		v1.Delete("/sessions/:id", sessionHandler.End)
		v1.Get("/sessions/:id/attendance", sessionHandler.ListAttendance)

		// Face handler
		faceHandler := handler.NewFaceHandler(r.deps.Enroller, r.deps.FaceRepo, r.logger)

		// Face routes
		v1.Post("/faces", faceHandler.Enroll)
		v1.Get("/faces", faceHandler.List)
		v1.Delete("/faces/:identity", faceHandler.Delete)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop webhook worker
	if r.cancelWorker != nil {
		r.cancelWorker()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
