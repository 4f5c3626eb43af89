package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminar-software/presenca/internal/domain"
)

// AttendanceRepository persists attendance records append-only. It applies
// no dedup of its own: the session's record set is the single source of
// truth for "present" decisions, so every event handed in is stored as-is.
type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func (r *AttendanceRepository) Create(ctx context.Context, record *domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance (id, session_id, identity, status, distance, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING recorded_at
	`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = domain.StatusPresent
	}

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.SessionID,
		record.Identity,
		record.Status,
		record.Distance,
		record.RecordedAt,
	).Scan(&record.RecordedAt)
	if err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}

	return nil
}

func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AttendanceRecord, error) {
	query := `
		SELECT id, session_id, identity, status, distance, recorded_at
		FROM attendance
		WHERE session_id = $1
		ORDER BY recorded_at ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list attendance by session: %w", err)
	}
	defer rows.Close()

	var records []domain.AttendanceRecord
	for rows.Next() {
		var rec domain.AttendanceRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Identity,
			&rec.Status,
			&rec.Distance,
			&rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}

	return records, nil
}
