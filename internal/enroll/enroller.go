package enroll

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/luminar-software/presenca/internal/domain"
	"github.com/luminar-software/presenca/internal/repository"
	"github.com/luminar-software/presenca/internal/vision"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Enroller encodes reference photos into gallery embeddings and
// persists them.
type Enroller struct {
	provider vision.Provider
	repo     repository.FaceRepositoryInterface
	logger   *slog.Logger
}

func NewEnroller(provider vision.Provider, repo repository.FaceRepositoryInterface, logger *slog.Logger) *Enroller {
	return &Enroller{
		provider: provider,
		repo:     repo,
		logger:   logger,
	}
}

// EnrollImage encodes a single reference photo for identity. The photo
// must contain exactly one face: zero faces yields ErrNoFaceDetected
// and more than one yields ErrMultipleFaces, since there is no way to
// tell which face belongs to the identity.
func (e *Enroller) EnrollImage(ctx context.Context, identity string, frame []byte) error {
	if identity == "" {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("identity is required"))
	}

	boxes, err := e.provider.DetectFaces(ctx, frame)
	if err != nil {
		return err
	}

	switch {
	case len(boxes) == 0:
		return domain.ErrNoFaceDetected
	case len(boxes) > 1:
		return domain.ErrMultipleFaces
	}

	embedding, err := e.provider.EncodeFace(ctx, frame, boxes[0])
	if err != nil {
		return err
	}

	if err := e.repo.Upsert(ctx, &domain.Face{
		Identity:  identity,
		Embedding: embedding,
	}); err != nil {
		return err
	}

	e.logger.Info("face enrolled", "identity", identity)
	return nil
}

// EnrollDirectory enrolls every image in dir, deriving the identity
// from the filename: "alice.jpg" becomes "Alice". Files that fail are
// logged and skipped so one bad photo does not abort a batch. Returns
// the number of identities enrolled.
func (e *Enroller) EnrollDirectory(ctx context.Context, dir string) (int, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read enrollment directory: %w", err)
	}

	enrolled := 0
	for _, entry := range dirEntries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		frame, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("skipping unreadable image", "path", path, "error", err)
			continue
		}

		identity := IdentityFromFilename(entry.Name())
		if err := e.EnrollImage(ctx, identity, frame); err != nil {
			e.logger.Warn("skipping image", "path", path, "identity", identity, "error", err)
			continue
		}

		enrolled++
	}

	return enrolled, nil
}

// IdentityFromFilename derives a display identity from an image
// filename: the extension is dropped, the first letter is uppercased
// and the rest lowercased, so "ALICE.jpg" and "alice.png" both enroll
// as "Alice".
func IdentityFromFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return ""
	}

	runes := []rune(strings.ToLower(stem))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
