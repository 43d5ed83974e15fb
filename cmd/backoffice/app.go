package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nortbank/backoffice/internal/db"
	"github.com/nortbank/backoffice/internal/handlers"
	"github.com/nortbank/backoffice/internal/handlers/middleware"
	"github.com/nortbank/backoffice/internal/logger"
	"github.com/nortbank/backoffice/internal/repository/postgres"
	"github.com/nortbank/backoffice/internal/service/account"
	"github.com/nortbank/backoffice/internal/service/auth"
	"github.com/nortbank/backoffice/internal/service/auth/tokenmanager"
	"github.com/nortbank/backoffice/internal/service/transaction"
	"github.com/nortbank/backoffice/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(auth.DefaultHasher, storage)
	authService, err := auth.NewService(tokenManager, userService, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	accountService := account.NewService(storage)
	transactionService := transaction.NewService(storage)

	// Initialize handlers
	mux := handlers.NewRouter(
		handlers.NewAuth(authService),
		handlers.NewAccount(accountService, l),
		handlers.NewTransaction(transactionService, l),
		middleware.AuthMiddleware(authService),
		middleware.LoggerMiddleware(l),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     l,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close connections gracefully
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
