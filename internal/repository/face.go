package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/luminar-software/presenca/internal/domain"
)

type FaceRepository struct {
	pool PgxPool
}

func NewFaceRepository(pool PgxPool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// Upsert enrolls a face, replacing the embedding when the identity is
// already enrolled (last write wins, matching the gallery dedup rule).
func (r *FaceRepository) Upsert(ctx context.Context, face *domain.Face) error {
	query := `
		INSERT INTO faces (id, identity, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (identity)
		DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = NOW()
		RETURNING created_at, updated_at
	`

	if face.ID == uuid.Nil {
		face.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		face.ID,
		face.Identity,
		toVector(face.Embedding),
	).Scan(&face.CreatedAt, &face.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert face: %w", err)
	}

	return nil
}

func (r *FaceRepository) GetByIdentity(ctx context.Context, identity string) (*domain.Face, error) {
	query := `
		SELECT id, identity, embedding, created_at, updated_at
		FROM faces
		WHERE identity = $1
	`

	var face domain.Face
	var embedding *pgvector.Vector

	err := r.pool.QueryRow(ctx, query, identity).Scan(
		&face.ID,
		&face.Identity,
		&embedding,
		&face.CreatedAt,
		&face.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get face by identity: %w", err)
	}

	face.Embedding = fromVector(embedding)
	return &face, nil
}

// List returns all enrolled faces in enrollment order. The order matters:
// the matcher's tie-break resolves to the earliest-enrolled identity.
func (r *FaceRepository) List(ctx context.Context) ([]domain.Face, error) {
	query := `
		SELECT id, identity, embedding, created_at, updated_at
		FROM faces
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	var faces []domain.Face
	for rows.Next() {
		var face domain.Face
		var embedding *pgvector.Vector

		if err := rows.Scan(
			&face.ID,
			&face.Identity,
			&embedding,
			&face.CreatedAt,
			&face.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}

		face.Embedding = fromVector(embedding)
		faces = append(faces, face)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}

	return faces, nil
}

func (r *FaceRepository) Delete(ctx context.Context, identity string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM faces WHERE identity = $1`, identity)
	if err != nil {
		return fmt.Errorf("delete face: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFaceNotFound
	}
	return nil
}

func (r *FaceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM faces`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count faces: %w", err)
	}
	return count, nil
}

func toVector(embedding []float64) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	floats := make([]float32, len(embedding))
	for i, v := range embedding {
		floats[i] = float32(v)
	}
	vec := pgvector.NewVector(floats)
	return &vec
}

func fromVector(vec *pgvector.Vector) []float64 {
	if vec == nil || vec.Slice() == nil {
		return nil
	}
	embedding := make([]float64, len(vec.Slice()))
	for i, v := range vec.Slice() {
		embedding[i] = float64(v)
	}
	return embedding
}
