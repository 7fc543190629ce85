package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/netbill/netbill/internal/commission"
)

// RegisterCommissionRoutes wires commission endpoints.
func RegisterCommissionRoutes(r fiber.Router, h *commission.Handler) {
	r.Post("/commissions/accrue", h.Accrue)
	r.Post("/commissions/:commissionId/pay", h.MarkPaid)
	r.Get("/commissions/stats", h.TenantStats)
	r.Get("/resellers/:resellerId/commissions", h.List)
	r.Get("/resellers/:resellerId/commissions/summary", h.Summary)
	r.Post("/resellers/:resellerId/commissions/pay", h.PayAll)
}
