package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/types"
)

// HeaderAPIVersion selects the API version. Only major version 1 is served.
const HeaderAPIVersion = "X-Api-Version"

// VersionMiddleware normalizes X-Api-Version, stores it in the request locals and echoes it back.
// Short forms "1" and "1.0" mean 1.0.0; other major versions are rejected.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := strings.TrimPrefix(strings.TrimSpace(c.Get(HeaderAPIVersion, "1.0.0")), "v")

		switch version {
		case "1", "1.0":
			version = "1.0.0"
		}
		if major, _, _ := strings.Cut(version, "."); major != "1" {
			return types.BadRequest("version", "unsupported api version %q", version)
		}

		c.Locals("apiVersion", version)
		c.Set(HeaderAPIVersion, version)
		return c.Next()
	}
}
