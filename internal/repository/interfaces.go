package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/luminar-software/presenca/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories need; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// FaceRepositoryInterface defines operations for enrolled face data access
type FaceRepositoryInterface interface {
	Upsert(ctx context.Context, face *domain.Face) error
	GetByIdentity(ctx context.Context, identity string) (*domain.Face, error)
	List(ctx context.Context) ([]domain.Face, error)
	Delete(ctx context.Context, identity string) error
	Count(ctx context.Context) (int, error)
}

// AttendanceRepositoryInterface defines operations for the append-only
// attendance store. It must never dedup: the session already guarantees
// at-most-once per identity.
type AttendanceRepositoryInterface interface {
	Create(ctx context.Context, record *domain.AttendanceRecord) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AttendanceRecord, error)
}
