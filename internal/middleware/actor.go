package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/netbill/netbill/internal/ledger"
)

const (
	actorIDHeader  = "X-Actor-ID"
	tenantIDHeader = "X-Tenant-ID"
)

// ActorContext extracts the authenticated actor forwarded by the upstream
// gateway. Authentication itself happens upstream; requests reaching this
// service without a complete actor identity are rejected.
func ActorContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID := c.Get(actorIDHeader)
		tenantID := c.Get(tenantIDHeader)
		if actorID == "" || tenantID == "" {
			return fiber.NewError(http.StatusUnauthorized, "actor identity required")
		}
		if _, err := uuid.Parse(actorID); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid actor identity")
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid tenant identity")
		}

		c.Locals(ledger.ActorContextKey, ledger.Actor{ID: actorID, TenantID: tenantID})
		return c.Next()
	}
}
