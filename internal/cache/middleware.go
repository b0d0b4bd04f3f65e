package cache

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/observability"
)

// Middleware serves cached responses for repeated GET requests and captures
// fresh 2xx responses on the way out. It runs after the auth gate so the key
// can carry the principal id.
func Middleware(dedup *Dedup, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Cacheable(c.Method(), c.Path()) {
			return c.Next()
		}

		principalID := ""
		if principal, ok := auth.PrincipalFromContext(c); ok {
			principalID = principal.UserID
		}
		key := Key(c.Method(), string(c.Request().URI().RequestURI()), principalID)

		if entry, hit := dedup.Lookup(key); hit {
			metrics.RecordCacheHit()
			c.Set(fiber.HeaderContentType, entry.ContentType)
			c.Set("X-Cache", "HIT")
			return c.Status(entry.StatusCode).Send(entry.Body)
		}
		metrics.RecordCacheMiss()

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= 200 && status < 300 {
			dedup.Store(key, status, string(c.Response().Header.ContentType()), c.Response().Body())
		}
		return nil
	}
}
