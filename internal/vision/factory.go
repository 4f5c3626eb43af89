package vision

import (
	"fmt"

	"github.com/luminar-software/presenca/internal/config"
	"github.com/luminar-software/presenca/internal/vision/deepface"
	"github.com/luminar-software/presenca/internal/vision/mock"
)

// ProviderType defines supported vision provider types
type ProviderType string

const (
	// ProviderTypeMock is the deterministic in-process provider (dev/test)
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeDeepFace is the DeepFace extractor sidecar over HTTP
	ProviderTypeDeepFace ProviderType = "deepface"
)

// NewProvider creates a vision Provider based on configuration.
//
// Environment variables:
//   - VISION_PROVIDER: "mock" or "deepface" (default: "mock")
//   - DEEPFACE_URL: extractor URL (default: "http://localhost:5005")
func NewProvider(cfg *config.Config) (Provider, error) {
	switch ProviderType(cfg.VisionProvider) {
	case ProviderTypeDeepFace:
		dfConfig := deepface.DefaultConfig()
		if cfg.DeepFaceURL != "" {
			dfConfig.BaseURL = cfg.DeepFaceURL
		}
		return deepface.NewProvider(dfConfig), nil

	case ProviderTypeMock, "":
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown vision provider: %s (supported: %s, %s)",
			cfg.VisionProvider, ProviderTypeMock, ProviderTypeDeepFace)
	}
}
