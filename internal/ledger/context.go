package ledger

import "github.com/gofiber/fiber/v2"

// ActorContextKey is the request-locals key under which the authenticated
// actor is stored by the HTTP middleware.
const ActorContextKey = "actor"

// ActorFromContext retrieves the actor placed in request locals.
func ActorFromContext(c *fiber.Ctx) (Actor, bool) {
	actor, ok := c.Locals(ActorContextKey).(Actor)
	if !ok || actor.ID == "" || actor.TenantID == "" {
		return Actor{}, false
	}
	return actor, true
}
