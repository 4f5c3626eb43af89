// Package enroll carrega e mantém a galeria de faces cadastradas.
// Enrollment happens out-of-band (CLI or API); the recognition loop
// only ever reads the resulting gallery.
package enroll

import (
	"context"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/repository"
)

// LoadGallery reads every enrolled face and returns the entries in
// enrollment order. Enrollment order decides ties during matching, so
// the repository's ordering must be stable.
//
// An empty gallery is a fatal condition: the service has nothing to
// recognize against and must not start.
func LoadGallery(ctx context.Context, repo repository.FaceRepositoryInterface) ([]domain.GalleryEntry, error) {
	faces, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(faces) == 0 {
		return nil, domain.ErrEmptyGallery
	}

	entries := make([]domain.GalleryEntry, 0, len(faces))
	for _, f := range faces {
		entries = append(entries, domain.GalleryEntry{
			Identity:  f.Identity,
			Embedding: f.Embedding,
		})
	}

	return entries, nil
}
