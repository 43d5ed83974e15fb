package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nortbank/backoffice/internal/handlers"
	"github.com/nortbank/backoffice/internal/handlers/middleware"
	"github.com/nortbank/backoffice/internal/logger"
	"github.com/nortbank/backoffice/internal/repository/memory"
	"github.com/nortbank/backoffice/internal/service/account"
	"github.com/nortbank/backoffice/internal/service/auth"
	"github.com/nortbank/backoffice/internal/service/auth/tokenmanager"
	"github.com/nortbank/backoffice/internal/service/transaction"
	"github.com/nortbank/backoffice/internal/service/user"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	storage := memory.NewStorage()
	l := logger.NewNoOpLogger()

	tokens, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret-key"}, storage.Refresh())
	require.NoError(t, err)
	users := user.NewService(nil, storage)
	authService, err := auth.NewService(tokens, users, storage.User())
	require.NoError(t, err)

	return handlers.NewRouter(
		handlers.NewAuth(authService),
		handlers.NewAccount(account.NewService(storage), l),
		handlers.NewTransaction(transaction.NewService(storage), l),
		middleware.AuthMiddleware(authService),
		middleware.LoggerMiddleware(l),
	)
}

func do(t *testing.T, h http.Handler, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, path, &buf)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&value))
	return value
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type accountBody struct {
	Number   string `json:"number"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

type transactionBody struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Direction     string `json:"direction"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
}

func registerUser(t *testing.T, h http.Handler, username string) tokenPair {
	t.Helper()

	w := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	return decode[tokenPair](t, w)
}

func createAccount(t *testing.T, h http.Handler, token string) accountBody {
	t.Helper()

	w := do(t, h, http.MethodPost, "/api/accounts", token, map[string]string{
		"name":     "Main",
		"category": "personal",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	return decode[accountBody](t, w)
}

func TestAuthFlow(t *testing.T) {
	t.Run("register login refresh", func(t *testing.T) {
		h := newRouter(t)

		pair := registerUser(t, h, "alice")
		require.NotEmpty(t, pair.AccessToken)

		w := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = do(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{
			"refresh_token": pair.RefreshToken,
		})
		require.Equal(t, http.StatusOK, w.Code)
		refreshed := decode[tokenPair](t, w)
		require.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		h := newRouter(t)
		registerUser(t, h, "alice")

		w := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice",
			"password": "password123",
		})

		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		h := newRouter(t)

		w := do(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice",
			"password": "short",
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		h := newRouter(t)
		registerUser(t, h, "alice")

		w := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice",
			"password": "wrongpassword",
		})

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me returns the authenticated user", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")

		w := do(t, h, http.MethodGet, "/api/me", pair.AccessToken, nil)

		require.Equal(t, http.StatusOK, w.Code)
		me := decode[struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		}](t, w)
		require.Equal(t, "alice", me.Username)
		require.Regexp(t, `^usr-[a-zA-Z0-9]{12}$`, me.ID)
	})

	t.Run("protected routes refuse anonymous requests", func(t *testing.T) {
		h := newRouter(t)

		for _, path := range []string{"/api/me", "/api/accounts/01234567"} {
			w := do(t, h, http.MethodGet, path, "", nil)
			require.Equal(t, http.StatusUnauthorized, w.Code, "path %s", path)
		}
	})
}

func TestAccountFlow(t *testing.T) {
	t.Run("create and fetch", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")

		created := createAccount(t, h, pair.AccessToken)
		require.Regexp(t, `^01\d{6}$`, created.Number)
		require.Equal(t, "0.00", created.Balance)
		require.Equal(t, "GBP", created.Currency)

		w := do(t, h, http.MethodGet, "/api/accounts/"+created.Number, pair.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[accountBody](t, w)
		require.Equal(t, created.Number, got.Number)
	})

	t.Run("unknown category", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")

		w := do(t, h, http.MethodPost, "/api/accounts", pair.AccessToken, map[string]string{
			"name":     "Main",
			"category": "business",
		})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("another user's account is forbidden", func(t *testing.T) {
		h := newRouter(t)
		alice := registerUser(t, h, "alice")
		bob := registerUser(t, h, "bob")

		created := createAccount(t, h, alice.AccessToken)

		w := do(t, h, http.MethodGet, "/api/accounts/"+created.Number, bob.AccessToken, nil)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("update renames", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		created := createAccount(t, h, pair.AccessToken)

		w := do(t, h, http.MethodPatch, "/api/accounts/"+created.Number, pair.AccessToken, map[string]string{
			"name":     "Rainy day",
			"category": "personal",
		})

		require.Equal(t, http.StatusOK, w.Code)
		got := decode[accountBody](t, w)
		require.Equal(t, "Rainy day", got.Name)
	})

	t.Run("delete", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		created := createAccount(t, h, pair.AccessToken)

		w := do(t, h, http.MethodDelete, "/api/accounts/"+created.Number, pair.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, h, http.MethodGet, "/api/accounts/"+created.Number, pair.AccessToken, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete refuses account with history", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		created := createAccount(t, h, pair.AccessToken)

		w := do(t, h, http.MethodPost, "/api/accounts/"+created.Number+"/transactions", pair.AccessToken, map[string]string{
			"amount":    "10.00",
			"currency":  "GBP",
			"direction": "deposit",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(t, h, http.MethodDelete, "/api/accounts/"+created.Number, pair.AccessToken, nil)

		require.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestTransactionFlow(t *testing.T) {
	deposit := func(t *testing.T, h http.Handler, token string, number string, amount string) *httptest.ResponseRecorder {
		t.Helper()
		return do(t, h, http.MethodPost, "/api/accounts/"+number+"/transactions", token, map[string]string{
			"amount":    amount,
			"currency":  "GBP",
			"direction": "deposit",
		})
	}

	t.Run("deposit then withdraw", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		acc := createAccount(t, h, pair.AccessToken)

		w := deposit(t, h, pair.AccessToken, acc.Number, "100.00")
		require.Equal(t, http.StatusCreated, w.Code)
		created := decode[transactionBody](t, w)
		require.Regexp(t, `^txn-[a-zA-Z0-9]{12}$`, created.ID)
		require.Equal(t, "100.00", created.Amount)

		w = do(t, h, http.MethodPost, "/api/accounts/"+acc.Number+"/transactions", pair.AccessToken, map[string]string{
			"amount":    "30.50",
			"currency":  "GBP",
			"direction": "withdrawal",
			"reference": "rent",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(t, h, http.MethodGet, "/api/accounts/"+acc.Number, pair.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[accountBody](t, w)
		require.Equal(t, "69.50", got.Balance)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		acc := createAccount(t, h, pair.AccessToken)

		w := do(t, h, http.MethodPost, "/api/accounts/"+acc.Number+"/transactions", pair.AccessToken, map[string]string{
			"amount":    "0.01",
			"currency":  "GBP",
			"direction": "withdrawal",
		})

		require.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("unknown direction fails request validation", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		acc := createAccount(t, h, pair.AccessToken)

		w := do(t, h, http.MethodPost, "/api/accounts/"+acc.Number+"/transactions", pair.AccessToken, map[string]string{
			"amount":    "10.00",
			"currency":  "GBP",
			"direction": "transfer",
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		acc := createAccount(t, h, pair.AccessToken)

		w := do(t, h, http.MethodPost, "/api/accounts/"+acc.Number+"/transactions", pair.AccessToken, map[string]string{
			"amount":    "10.00",
			"currency":  "USD",
			"direction": "deposit",
		})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("amount above the cap", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		acc := createAccount(t, h, pair.AccessToken)

		w := deposit(t, h, pair.AccessToken, acc.Number, "10000.01")

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("list and get", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")
		acc := createAccount(t, h, pair.AccessToken)

		w := deposit(t, h, pair.AccessToken, acc.Number, "10.00")
		require.Equal(t, http.StatusCreated, w.Code)
		created := decode[transactionBody](t, w)

		w = do(t, h, http.MethodGet, "/api/accounts/"+acc.Number+"/transactions", pair.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[[]transactionBody](t, w)
		require.Len(t, list, 1)
		require.Equal(t, created.ID, list[0].ID)

		path := fmt.Sprintf("/api/accounts/%s/transactions/%s", acc.Number, created.ID)
		w = do(t, h, http.MethodGet, path, pair.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[transactionBody](t, w)
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("stranger can't move money", func(t *testing.T) {
		h := newRouter(t)
		alice := registerUser(t, h, "alice")
		bob := registerUser(t, h, "bob")
		acc := createAccount(t, h, alice.AccessToken)

		w := deposit(t, h, bob.AccessToken, acc.Number, "10.00")

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		h := newRouter(t)
		pair := registerUser(t, h, "alice")

		w := deposit(t, h, pair.AccessToken, "01999999", "10.00")

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
