package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/nortbank/backoffice/internal/apperrors"
	"github.com/nortbank/backoffice/internal/handlers/render"
	"github.com/nortbank/backoffice/internal/handlers/userctx"
	"github.com/nortbank/backoffice/internal/logger"
	"github.com/nortbank/backoffice/internal/models"
)

type accountService interface {
	Create(ctx context.Context, ownerID string, name string, category string) (models.Account, error)
	Get(ctx context.Context, number string, requesterID string) (models.Account, error)
	Update(ctx context.Context, number string, name string, category string, requesterID string) (models.Account, error)
	Delete(ctx context.Context, number string, requesterID string) error
}

type AccountHandler struct {
	accountService accountService
	logger         logger.Logger
}

// AccountResponse is the client-facing account shape. Balance is rendered
// as a fixed 2-decimal string so the exact value survives the trip.
type AccountResponse struct {
	Number    string    `json:"number"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAccountResponse(a models.Account) AccountResponse {
	return AccountResponse{
		Number:    a.Number,
		Name:      a.Name,
		Category:  a.Category,
		Balance:   a.Balance.StringFixed(2),
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func NewAccount(accountService accountService, l logger.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: l}
}

func (h *AccountHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /accounts", h.create)
	mux.HandleFunc("GET /accounts/{number}", h.get)
	mux.HandleFunc("PATCH /accounts/{number}", h.update)
	mux.HandleFunc("DELETE /accounts/{number}", h.delete)

	return mux
}

func (h *AccountHandler) create(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		Name     string `json:"name" validate:"required,min=1,max=100"`
		Category string `json:"category" validate:"required"`
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

	account, err := h.accountService.Create(r.Context(), user.ID, data.Name, data.Category)

	switch {
	case err == nil:
		render.JSONWithStatus(w, toAccountResponse(account), http.StatusCreated)
	case errors.Is(err, apperrors.ErrCategoryInvalid):
		render.ServiceError(w, "Unknown account category", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "Owner not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrAccountNumbersExhausted):
		h.logger.Error("Account number space exhausted", "error", err)
		render.ServiceError(w, "Can't allocate account number", http.StatusServiceUnavailable)
	default:
		h.logger.Error("Failed to create account", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *AccountHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	account, err := h.accountService.Get(r.Context(), r.PathValue("number"), user.ID)

	switch {
	case err == nil:
		render.JSON(w, toAccountResponse(account))
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnauthorized):
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
	default:
		h.logger.Error("Failed to get account", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request) {
	type updateRequest struct {
		Name     string `json:"name" validate:"required,min=1,max=100"`
		Category string `json:"category" validate:"required"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[updateRequest](w, r)
	if err != nil {
		return
	}

	account, err := h.accountService.Update(r.Context(), r.PathValue("number"), data.Name, data.Category, user.ID)

	switch {
	case err == nil:
		render.JSON(w, toAccountResponse(account))
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnauthorized):
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrCategoryInvalid):
		render.ServiceError(w, "Unknown account category", http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Failed to update account", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *AccountHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
		return
	}

	err := h.accountService.Delete(r.Context(), r.PathValue("number"), user.ID)

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, apperrors.ErrAccountNotFound):
		render.ServiceError(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnauthorized):
		render.ServiceError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrAccountNotEmpty):
		render.ServiceError(w, "Account has transactions and can't be deleted", http.StatusConflict)
	default:
		h.logger.Error("Failed to delete account", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
