package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/luminar-software/presenca/internal/domain"
)

// Auth validates the kiosk API key. Only the SHA-256 hash of the key
// is configured on the server, so a leaked config never exposes the
// key itself.
func Auth(apiKeyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractBearerToken(c)
		if apiKey == "" {
			return domain.ErrUnauthorized
		}

		hash := hashAPIKey(apiKey)
		if subtle.ConstantTimeCompare([]byte(hash), []byte(apiKeyHash)) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// hashAPIKey generates SHA-256 hash of API Key
func hashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}
