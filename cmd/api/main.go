package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/luminar-software/presenca/internal/api"
	"github.com/luminar-software/presenca/internal/audit"
	"github.com/luminar-software/presenca/internal/config"
	"github.com/luminar-software/presenca/internal/database"
	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/engine"
	"github.com/luminar-software/presenca/internal/enroll"
	"github.com/luminar-software/presenca/internal/match"
	"github.com/luminar-software/presenca/internal/repository"
	"github.com/luminar-software/presenca/internal/session"
	"github.com/luminar-software/presenca/internal/vision"
	"github.com/luminar-software/presenca/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Presenca API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("vision_provider", cfg.VisionProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Apply pending migrations before opening the pool
	migrator, err := database.NewMigrator(cfg.DatabaseURL, "presenca")
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		migrator.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	migrator.Close()

	// Database pool
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Vision collaborator
	provider, err := vision.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create vision provider: %w", err)
	}

	// Repositories
	faceRepo := repository.NewFaceRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	// Gallery must be loaded before any session can run
	entries, err := enroll.LoadGallery(ctx, faceRepo)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyGallery) {
			return fmt.Errorf("gallery is empty: enroll reference photos first (see cmd/enroll)")
		}
		return fmt.Errorf("failed to load gallery: %w", err)
	}
	matcher, err := match.New(entries, cfg.MatchDistanceThreshold)
	if err != nil {
		return fmt.Errorf("failed to build matcher: %w", err)
	}
	logger.Info("gallery loaded", slog.Int("identities", matcher.Size()))

	// Attendance event delivery
	webhookService := webhook.NewService(pool, cfg.WebhookURL, cfg.WebhookSecret, logger)
	auditLogger := audit.NewSlogLogger(logger)

	// Every recorded attendance is persisted and, when configured,
	// pushed to the webhook endpoint. Neither failure path reaches the
	// kiosk: the session already committed the decision.
	sink := func(ev domain.AttendanceEvent) {
		sinkCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rec := &domain.AttendanceRecord{
			ID:         ev.ID,
			SessionID:  ev.SessionID,
			Identity:   ev.Identity,
			Distance:   ev.Distance,
			RecordedAt: ev.Timestamp,
		}
		if err := attendanceRepo.Create(sinkCtx, rec); err != nil {
			logger.Error("failed to persist attendance record",
				slog.String("identity", ev.Identity),
				slog.Any("error", err),
			)
		}

		_ = auditLogger.Log(sinkCtx, audit.Event{
			EventType: audit.EventAttendanceRecorded,
			Identity:  ev.Identity,
			SessionID: ev.SessionID.String(),
			Success:   true,
			Metadata: map[string]string{
				"distance": fmt.Sprintf("%.4f", ev.Distance),
			},
		})

		if webhookService.Enabled() {
			if err := webhookService.NotifyAttendance(sinkCtx, ev); err != nil {
				logger.Error("failed to queue attendance event",
					slog.String("identity", ev.Identity),
					slog.Any("error", err),
				)
			}
		}
	}

	// Decision pipeline
	manager := session.NewManager(matcher, cfg.BlinkEARThreshold, cfg.RequiredBlinks, sink)
	eng := engine.New(provider, cfg.FrameDownscale, logger)
	enroller := enroll.NewEnroller(provider, faceRepo, logger)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		DB:             pool,
		Manager:        manager,
		Engine:         eng,
		Enroller:       enroller,
		FaceRepo:       faceRepo,
		AttendanceRepo: attendanceRepo,
		WebhookService: webhookService,
		APIKeyHash:     cfg.APIKeyHash,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
