package commission

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/ledger"
)

// Handler exposes commission HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a commission HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type accrueRequest struct {
	ResellerID    string `json:"reseller_id"`
	ResellerRole  string `json:"reseller_role"`
	ParentID      string `json:"parent_id"`
	ParentRole    string `json:"parent_role"`
	PaymentID     string `json:"payment_id"`
	InvoiceID     string `json:"invoice_id"`
	PaymentAmount string `json:"payment_amount"`
}

type markPaidRequest struct {
	Notes string `json:"notes"`
}

type commissionResponse struct {
	ID         string     `json:"id"`
	ResellerID string     `json:"reseller_id"`
	PaymentID  string     `json:"payment_id"`
	InvoiceID  string     `json:"invoice_id"`
	Amount     string     `json:"amount"`
	Percentage string     `json:"percentage"`
	Status     string     `json:"status"`
	Notes      string     `json:"notes,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Accrue records commissions for a settled customer payment.
func (h *Handler) Accrue(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	var req accrueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.PaymentAmount)
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "payment_amount: must be a decimal number")
	}

	accrued, err := h.service.Accrue(c.UserContext(), AccrualInput{
		ResellerID:    req.ResellerID,
		ResellerRole:  Role(req.ResellerRole),
		ParentID:      req.ParentID,
		ParentRole:    Role(req.ParentRole),
		PaymentID:     req.PaymentID,
		InvoiceID:     req.InvoiceID,
		PaymentAmount: amount,
	}, actor)
	if err != nil {
		return errorToHTTP(err)
	}

	out := make([]commissionResponse, 0, len(accrued))
	for _, commission := range accrued {
		out = append(out, toCommissionResponse(commission))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"commissions": out})
}

// Summary returns the reseller's aggregated commissions.
func (h *Handler) Summary(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	summary, err := h.service.Summarize(c.UserContext(), c.Params("resellerId"), actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"total_earned":  summary.TotalEarned.String(),
		"pending":       summary.Pending.String(),
		"paid":          summary.Paid.String(),
		"count_pending": summary.CountPending,
		"count_paid":    summary.CountPaid,
	})
}

// List returns the reseller's commissions.
func (h *Handler) List(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	commissions, err := h.service.ListByReseller(c.UserContext(), c.Params("resellerId"), actor)
	if err != nil {
		return errorToHTTP(err)
	}
	out := make([]commissionResponse, 0, len(commissions))
	for _, commission := range commissions {
		out = append(out, toCommissionResponse(commission))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"commissions": out})
}

// MarkPaid settles a pending commission.
func (h *Handler) MarkPaid(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	var req markPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	commission, err := h.service.MarkPaid(c.UserContext(), c.Params("commissionId"), req.Notes, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(toCommissionResponse(commission))
}

// PayAll settles every pending commission of a reseller.
func (h *Handler) PayAll(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	var req markPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	settled, err := h.service.MarkAllPaid(c.UserContext(), c.Params("resellerId"), req.Notes, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	out := make([]commissionResponse, 0, len(settled))
	for _, commission := range settled {
		out = append(out, toCommissionResponse(commission))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"commissions": out, "count": len(out)})
}

// TenantStats returns commission totals for the actor's tenant.
func (h *Handler) TenantStats(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	stats, err := h.service.TenantStats(c.UserContext(), actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"total_commissions":   stats.Total.String(),
		"pending_commissions": stats.Pending.String(),
		"paid_commissions":    stats.Paid.String(),
		"total_count":         stats.TotalCount,
		"pending_count":       stats.PendingCount,
		"paid_count":          stats.PaidCount,
	})
}

func toCommissionResponse(commission Commission) commissionResponse {
	return commissionResponse{
		ID:         commission.ID,
		ResellerID: commission.ResellerID,
		PaymentID:  commission.PaymentID,
		InvoiceID:  commission.InvoiceID,
		Amount:     commission.Amount.String(),
		Percentage: commission.Percentage.String(),
		Status:     string(commission.Status),
		Notes:      commission.Notes,
		PaidAt:     commission.PaidAt,
		CreatedAt:  commission.CreatedAt,
	}
}

func errorToHTTP(err error) error {
	var validation ledger.ValidationError
	var invalidState InvalidStateTransitionError
	switch {
	case errors.As(err, &validation):
		return fiber.NewError(http.StatusUnprocessableEntity, validation.Error())
	case errors.As(err, &invalidState):
		return fiber.NewError(http.StatusConflict, invalidState.Error())
	case errors.Is(err, ledger.ErrTenantMismatch):
		return fiber.NewError(http.StatusForbidden, ledger.ErrTenantMismatch.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "commission operation failed")
	}
}
