package handlers

import (
	"net/http"

	"github.com/nortbank/backoffice/internal/handlers/render"
	"github.com/nortbank/backoffice/internal/handlers/userctx"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	accountHandler *AccountHandler,
	transactionHandler *TransactionHandler,
	authMiddleware func(http.Handler) http.Handler,
	loggerMiddleware func(http.Handler) http.Handler,
) http.Handler {
	api := http.NewServeMux()
	api.Handle("/auth/", http.StripPrefix("/auth", authHandler.Handler()))

	// Everything below requires an authenticated requester
	api.Handle("/accounts", authMiddleware(accountHandler.Handler()))
	api.Handle("/accounts/{number}", authMiddleware(accountHandler.Handler()))
	api.Handle("/accounts/{number}/transactions", authMiddleware(transactionHandler.Handler()))
	api.Handle("/accounts/{number}/transactions/{transactionID}", authMiddleware(transactionHandler.Handler()))
	api.Handle("GET /me", authMiddleware(handleMe()))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root, loggerMiddleware)
}

func handleMe() http.Handler {
	type response struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())
		render.JSON(w, response{ID: user.ID, Username: user.Username})
	})
}
