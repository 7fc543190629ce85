package advance

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/netbill/netbill/internal/ledger"
)

// Handler exposes advance payment HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an advance payment HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type recordRequest struct {
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Reference   string `json:"reference"`
	PaymentDate string `json:"payment_date"`
}

type consumeRequest struct {
	Draw string `json:"draw"`
}

type paymentResponse struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	Amount           string    `json:"amount"`
	RemainingBalance string    `json:"remaining_balance"`
	Method           string    `json:"method"`
	Reference        string    `json:"reference"`
	PaymentDate      time.Time `json:"payment_date"`
	ReceivedBy       string    `json:"received_by"`
}

// Record registers a prepaid credit for the customer.
func (h *Handler) Record(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "amount: must be a decimal number")
	}
	input := RecordInput{
		CustomerID: c.Params("customerId"),
		Amount:     amount,
		Method:     req.Method,
		Reference:  req.Reference,
	}
	if req.PaymentDate != "" {
		date, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			return fiber.NewError(http.StatusUnprocessableEntity, "payment_date: must be YYYY-MM-DD")
		}
		input.PaymentDate = date
	}

	payment, err := h.service.Record(c.UserContext(), input, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(toPaymentResponse(payment))
}

// Consume draws down an advance payment.
func (h *Handler) Consume(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	var req consumeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	draw, err := decimal.NewFromString(req.Draw)
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "draw: must be a decimal number")
	}

	payment, err := h.service.Consume(c.UserContext(), c.Params("paymentId"), draw, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(toPaymentResponse(payment))
}

// List returns the customer's advance payments.
func (h *Handler) List(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	payments, err := h.service.ListByCustomer(c.UserContext(), c.Params("customerId"), actor)
	if err != nil {
		return errorToHTTP(err)
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, payment := range payments {
		out = append(out, toPaymentResponse(payment))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"advance_payments": out})
}

// TotalBalance returns the customer's total remaining prepaid credit.
func (h *Handler) TotalBalance(c *fiber.Ctx) error {
	actor, ok := ledger.ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	customerID := c.Params("customerId")
	total, err := h.service.TotalBalance(c.UserContext(), customerID, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"customer_id":   customerID,
		"total_balance": total.String(),
		"timestamp":     time.Now().UTC(),
	})
}

func toPaymentResponse(payment AdvancePayment) paymentResponse {
	return paymentResponse{
		ID:               payment.ID,
		CustomerID:       payment.CustomerID,
		Amount:           payment.Amount.String(),
		RemainingBalance: payment.RemainingBalance.String(),
		Method:           payment.Method,
		Reference:        payment.Reference,
		PaymentDate:      payment.PaymentDate,
		ReceivedBy:       payment.ReceivedBy,
	}
}

func errorToHTTP(err error) error {
	var validation ledger.ValidationError
	var insufficient InsufficientBalanceError
	switch {
	case errors.As(err, &validation):
		return fiber.NewError(http.StatusUnprocessableEntity, validation.Error())
	case errors.As(err, &insufficient):
		return fiber.NewError(http.StatusConflict, insufficient.Error())
	case errors.Is(err, ledger.ErrTenantMismatch):
		return fiber.NewError(http.StatusForbidden, ledger.ErrTenantMismatch.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "advance payment operation failed")
	}
}
