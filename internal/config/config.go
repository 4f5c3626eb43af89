package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Security: SHA-256 hex hash of the kiosk API key (see cmd/genkey)
	APIKeyHash string `envconfig:"API_KEY_HASH" required:"true"`

	// Vision collaborator
	VisionProvider string `envconfig:"VISION_PROVIDER" default:"mock"`
	DeepFaceURL    string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`

	// Decision engine
	MatchDistanceThreshold float64 `envconfig:"MATCH_DISTANCE_THRESHOLD" default:"0.5"`
	BlinkEARThreshold      float64 `envconfig:"BLINK_EAR_THRESHOLD" default:"0.25"`
	RequiredBlinks         int     `envconfig:"REQUIRED_BLINKS" default:"3"`
	FrameDownscale         float64 `envconfig:"FRAME_DOWNSCALE" default:"0.5"`

	// Attendance event delivery (optional)
	WebhookURL    string `envconfig:"WEBHOOK_URL" default:""`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MatchDistanceThreshold <= 0 {
		return fmt.Errorf("MATCH_DISTANCE_THRESHOLD must be positive, got %v", c.MatchDistanceThreshold)
	}
	if c.BlinkEARThreshold <= 0 {
		return fmt.Errorf("BLINK_EAR_THRESHOLD must be positive, got %v", c.BlinkEARThreshold)
	}
	if c.RequiredBlinks < 1 {
		return fmt.Errorf("REQUIRED_BLINKS must be at least 1, got %d", c.RequiredBlinks)
	}
	if c.FrameDownscale <= 0 || c.FrameDownscale > 1 {
		return fmt.Errorf("FRAME_DOWNSCALE must be in (0, 1], got %v", c.FrameDownscale)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
