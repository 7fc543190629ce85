package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/netbill/netbill/internal/advance"
)

// RegisterAdvanceRoutes wires advance payment endpoints.
func RegisterAdvanceRoutes(r fiber.Router, h *advance.Handler, mutationLimit fiber.Handler) {
	r.Post("/customers/:customerId/advance-payments", mutationLimit, h.Record)
	r.Get("/customers/:customerId/advance-payments", h.List)
	r.Get("/customers/:customerId/advance-payments/balance", h.TotalBalance)
	r.Post("/advance-payments/:paymentId/consume", mutationLimit, h.Consume)
}
