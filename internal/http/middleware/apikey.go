package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// APIKeyHeader is the header clients must present on protected endpoints.
const APIKeyHeader = "X-API-Key"

// APIKey rejects requests whose X-API-Key header does not match the
// configured key. Paths listed in exempt bypass the check (probes,
// metrics, docs). The comparison is constant-time. A rejected request
// never reaches business logic.
func APIKey(key string, exempt ...string) fiber.Handler {
	exemptSet := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		exemptSet[p] = true
	}

	return func(c *fiber.Ctx) error {
		if exemptSet[c.Path()] {
			return c.Next()
		}

		presented := c.Get(APIKeyHeader)
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			rid, _ := c.Locals(RequestIDLocalKey).(string)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":     "error",
				"message":    "missing or invalid API key",
				"request_id": rid,
			})
		}

		return c.Next()
	}
}
