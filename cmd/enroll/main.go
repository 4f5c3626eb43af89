// Command enroll populates the face gallery from reference photos. It
// enrolls a directory (identity taken from each filename), a YAML
// manifest, or a single photo with an explicit identity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/luminar-software/presenca/internal/config"
	"github.com/luminar-software/presenca/internal/database"
	"github.com/luminar-software/presenca/internal/enroll"
	"github.com/luminar-software/presenca/internal/repository"
	"github.com/luminar-software/presenca/internal/vision"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "", "Directory of reference photos (identity from filename)")
	manifest := flag.String("manifest", "", "YAML manifest of identity/image pairs")
	identity := flag.String("identity", "", "Identity for a single photo (requires -image)")
	image := flag.String("image", "", "Single photo to enroll (requires -identity)")
	flag.Parse()

	modes := 0
	if *dir != "" {
		modes++
	}
	if *manifest != "" {
		modes++
	}
	if *image != "" || *identity != "" {
		if *image == "" || *identity == "" {
			return fmt.Errorf("-identity and -image must be used together")
		}
		modes++
	}
	if modes != 1 {
		return fmt.Errorf("specify exactly one of -dir, -manifest or -identity/-image")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	ctx := context.Background()

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	provider, err := vision.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create vision provider: %w", err)
	}

	faceRepo := repository.NewFaceRepository(pool)
	enroller := enroll.NewEnroller(provider, faceRepo, logger)

	switch {
	case *dir != "":
		enrolled, err := enroller.EnrollDirectory(ctx, *dir)
		if err != nil {
			return fmt.Errorf("enroll directory: %w", err)
		}
		logger.Info("directory enrolled", slog.String("dir", *dir), slog.Int("enrolled", enrolled))

	case *manifest != "":
		enrolled, err := enroller.EnrollManifest(ctx, *manifest)
		if err != nil {
			return fmt.Errorf("enroll manifest (enrolled %d before failure): %w", enrolled, err)
		}
		logger.Info("manifest enrolled", slog.String("manifest", *manifest), slog.Int("enrolled", enrolled))

	default:
		frame, err := os.ReadFile(*image)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		if err := enroller.EnrollImage(ctx, *identity, frame); err != nil {
			return fmt.Errorf("enroll %s: %w", *identity, err)
		}
		logger.Info("face enrolled", slog.String("identity", *identity))
	}

	total, err := faceRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count gallery: %w", err)
	}
	logger.Info("gallery size", slog.Int("identities", total))

	return nil
}
