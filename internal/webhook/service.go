// Package webhook entrega eventos de presença para um endpoint HTTP
// configurado, com fila de retry no banco.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/repository"
)

// Service posts events to the single endpoint configured at startup.
// A delivery that fails lands in webhook_queue and is retried by the
// Worker, so callers never block on a slow endpoint twice.
type Service struct {
	db     repository.PgxPool
	client *http.Client
	url    string
	secret string
	logger *slog.Logger
}

func NewService(db repository.PgxPool, url, secret string, logger *slog.Logger) *Service {
	return &Service{
		db: db,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		url:    url,
		secret: secret,
		logger: logger,
	}
}

// Enabled reports whether an endpoint is configured. When it is not,
// NotifyAttendance is a no-op.
func (s *Service) Enabled() bool {
	return s.url != ""
}

// NotifyAttendance delivers an attendance event. On delivery failure
// the payload is enqueued for retry and no error is returned: the
// attendance decision itself already happened and must not be rolled
// back because an endpoint is down.
func (s *Service) NotifyAttendance(ctx context.Context, event domain.AttendanceEvent) error {
	if !s.Enabled() {
		return nil
	}

	payload, err := json.Marshal(EventPayload{
		Type:      EventAttendanceRecorded,
		Data:      event,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.deliver(ctx, EventAttendanceRecorded, payload); err != nil {
		s.logger.Warn("webhook delivery failed, enqueueing",
			"event", EventAttendanceRecorded,
			"identity", event.Identity,
			"error", err,
		)
		return s.enqueue(ctx, EventAttendanceRecorded, payload, err.Error())
	}

	return nil
}

// deliver performs one signed POST to the endpoint.
func (s *Service) deliver(ctx context.Context, eventType string, payload []byte) error {
	signature := Sign(s.secret, payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Presenca-Signature", signature)
	req.Header.Set("X-Presenca-Event", eventType)
	req.Header.Set("User-Agent", "Presenca-Webhook/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}

func (s *Service) enqueue(ctx context.Context, eventType string, payload []byte, errorMsg string) error {
	query := `
		INSERT INTO webhook_queue (event_type, payload, next_retry_at, last_error)
		VALUES ($1, $2, NOW() + INTERVAL '1 second', $3)
	`

	_, err := s.db.Exec(ctx, query, eventType, payload, errorMsg)
	if err != nil {
		return fmt.Errorf("enqueue webhook: %w", err)
	}

	return nil
}
