package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet ledger HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createAccountRequest struct {
	AccountID string `json:"account_id"`
}

type adjustRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	Amount       string    `json:"amount"`
	Description  string    `json:"description"`
	ActorID      string    `json:"actor_id"`
	BalanceAfter string    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// Create provisions a wallet account inside the actor's tenant.
func (h *Handler) Create(c *fiber.Ctx) error {
	actor, ok := ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	var req createAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AccountID == "" {
		return fiber.NewError(http.StatusUnprocessableEntity, "account_id: is required")
	}
	account, err := h.service.EnsureAccount(c.UserContext(), req.AccountID, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":        account.ID,
		"tenant_id": account.TenantID,
		"balance":   account.Balance.String(),
		"active":    account.Active,
	})
}

// Adjust applies a signed balance change to the account.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	actor, ok := ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "amount: must be a decimal number")
	}

	txn, err := h.service.Adjust(c.UserContext(), c.Params("accountId"), amount, req.Description, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusCreated).JSON(toTransactionResponse(txn))
}

// History returns the account's ledger entries, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	actor, ok := ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	page := Page{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	txns, err := h.service.History(c.UserContext(), c.Params("accountId"), page, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Balance returns the current account balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	actor, ok := ActorFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "actor identity required")
	}
	accountID := c.Params("accountId")
	balance, err := h.service.Balance(c.UserContext(), accountID, actor)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": accountID,
		"balance":    balance.String(),
		"timestamp":  time.Now().UTC(),
	})
}

func toTransactionResponse(txn Transaction) transactionResponse {
	return transactionResponse{
		ID:           txn.ID,
		AccountID:    txn.AccountID,
		Amount:       txn.Amount.String(),
		Description:  txn.Description,
		ActorID:      txn.ActorID,
		BalanceAfter: txn.BalanceAfter.String(),
		CreatedAt:    txn.CreatedAt,
	}
}

func errorToHTTP(err error) error {
	var validation ValidationError
	switch {
	case errors.As(err, &validation):
		return fiber.NewError(http.StatusUnprocessableEntity, validation.Error())
	case errors.Is(err, ErrTenantMismatch):
		return fiber.NewError(http.StatusForbidden, ErrTenantMismatch.Error())
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAccountInactive):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "ledger operation failed")
	}
}
