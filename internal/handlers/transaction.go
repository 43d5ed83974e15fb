package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nortbank/backoffice/internal/apperrors"
	"github.com/nortbank/backoffice/internal/handlers/render"
	"github.com/nortbank/backoffice/internal/handlers/userctx"
	"github.com/nortbank/backoffice/internal/logger"
	"github.com/nortbank/backoffice/internal/models"
	"github.com/nortbank/backoffice/internal/service/transaction"
)

type transactionService interface {
	Create(ctx context.Context, p transaction.CreateParams) (models.Transaction, error)
	List(ctx context.Context, accountNumber string, requesterID string) ([]models.Transaction, error)
	Get(ctx context.Context, accountNumber string, transactionID string, requesterID string) (models.Transaction, error)
}

type TransactionHandler struct {
	transactionService transactionService
	logger             logger.Logger
}

type TransactionResponse struct {
	ID            string    `json:"id"`
	AccountNumber string    `json:"account_number"`
	Amount        string    `json:"amount"`
	Direction     string    `json:"direction"`
	Currency      string    `json:"currency"`
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTransactionResponse(t models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		AccountNumber: t.AccountNumber,
		Amount:        t.Amount.StringFixed(2),
		Direction:     t.Direction,
		Currency:      t.Currency,
		Reference:     t.Reference,
		CreatedAt:     t.CreatedAt,
	}
}

func NewTransaction(transactionService transactionService, l logger.Logger) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, logger: l}
}

func (h *TransactionHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /accounts/{number}/transactions", h.create)
	mux.HandleFunc("GET /accounts/{number}/transactions", h.list)
	mux.HandleFunc("GET /accounts/{number}/transactions/{transactionID}", h.get)

	return mux
}

func (h *TransactionHandler) create(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		Amount    decimal.Decimal `json:"amount" validate:"required"`
		Currency  string          `json:"currency" validate:"required"`
		Direction string          `json:"direction" validate:"required,oneof=deposit withdrawal"`
		Reference string          `json:"reference" validate:"max=255"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[createRequest](w, r)
	if err != nil {
		return
	}

	created, err := h.transactionService.Create(r.Context(), transaction.CreateParams{
		AccountNumber: r.PathValue("number"),
		Amount:        data.Amount,
		Currency:      data.Currency,
		Direction:     data.Direction,
		Reference:     data.Reference,
		RequesterID:   user.ID,
	})

	switch {
	case err == nil:
		render.JSONWithStatus(w, toTransactionResponse(created), http.StatusCreated)
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnauthorized):
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		render.ServiceError(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrDirectionInvalid),
		errors.Is(err, apperrors.ErrCurrencyMismatch),
		errors.Is(err, apperrors.ErrAmountOutOfRange):
		render.ServiceError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Failed to create transaction", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	transactions, err := h.transactionService.List(r.Context(), r.PathValue("number"), user.ID)

	switch {
	case err == nil:
		response := make([]TransactionResponse, 0, len(transactions))
		for _, t := range transactions {
			response = append(response, toTransactionResponse(t))
		}
		render.JSON(w, response)
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnauthorized):
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
	default:
		h.logger.Error("Failed to list transactions", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TransactionHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	got, err := h.transactionService.Get(r.Context(), r.PathValue("number"), r.PathValue("transactionID"), user.ID)

	switch {
	case err == nil:
		render.JSON(w, toTransactionResponse(got))
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		render.ServiceError(w, "Transaction not found for this account", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnauthorized):
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
	default:
		h.logger.Error("Failed to get transaction", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
