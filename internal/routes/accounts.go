package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/netbill/netbill/internal/ledger"
)

// RegisterAccountRoutes wires wallet ledger endpoints. Balance-changing
// endpoints additionally pass through the mutation rate limiter.
func RegisterAccountRoutes(r fiber.Router, h *ledger.Handler, mutationLimit fiber.Handler) {
	r.Post("/accounts", h.Create)
	r.Post("/accounts/:accountId/adjustments", mutationLimit, h.Adjust)
	r.Get("/accounts/:accountId/transactions", h.History)
	r.Get("/accounts/:accountId/balance", h.Balance)
}
