package enroll

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists reference photos to enroll, keyed by explicit
// identity. It exists for galleries where filenames do not carry the
// display name (badge exports, HR dumps).
type Manifest struct {
	Faces []ManifestEntry `yaml:"faces"`
}

type ManifestEntry struct {
	Identity string `yaml:"identity"`
	Image    string `yaml:"image"`
}

// LoadManifest parses a YAML manifest. Image paths are resolved
// relative to the manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("manifest %s lists no faces", path)
	}

	base := filepath.Dir(path)
	for i := range m.Faces {
		entry := &m.Faces[i]
		if entry.Identity == "" {
			return nil, fmt.Errorf("manifest entry %d has no identity", i)
		}
		if entry.Image == "" {
			return nil, fmt.Errorf("manifest entry %q has no image", entry.Identity)
		}
		if !filepath.IsAbs(entry.Image) {
			entry.Image = filepath.Join(base, entry.Image)
		}
	}

	return &m, nil
}

// EnrollManifest enrolls every entry of the manifest at path. Unlike
// EnrollDirectory a manifest is an explicit roster, so the first
// failure aborts the batch.
func (e *Enroller) EnrollManifest(ctx context.Context, path string) (int, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return 0, err
	}

	for i, entry := range m.Faces {
		frame, err := os.ReadFile(entry.Image)
		if err != nil {
			return i, fmt.Errorf("read image for %q: %w", entry.Identity, err)
		}

		if err := e.EnrollImage(ctx, entry.Identity, frame); err != nil {
			return i, fmt.Errorf("enroll %q: %w", entry.Identity, err)
		}
	}

	return len(m.Faces), nil
}
