package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nortbank/backoffice/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with pre-generated id
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, id string, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Account repository interface
type AccountRepo interface {
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)

	// Get account by number
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, number string) (models.Account, error)

	// Get account by number holding an exclusive row lock until the
	// enclosing unit of work commits or rolls back. Must be called inside
	// Storage.InTx, otherwise the lock is released immediately.
	GetAccountForUpdate(ctx context.Context, number string) (models.Account, error)

	// Report whether the number is already taken
	NumberExists(ctx context.Context, number string) (bool, error)

	// Update client-settable fields only (name, category)
	UpdateAccount(ctx context.Context, number string, name string, category string) (models.Account, error)

	// Set the account balance. Only the transaction service may call this,
	// and only under the row lock taken by GetAccountForUpdate.
	UpdateBalance(ctx context.Context, number string, balance decimal.Decimal) (models.Account, error)

	// Delete account row
	// Must return apperrors.ErrAccountNotEmpty if transactions reference it
	DeleteAccount(ctx context.Context, number string) error
}

// Transaction repository interface, append-only: no update or delete exists
type TransactionRepo interface {
	CreateTransaction(ctx context.Context, transaction models.Transaction) (models.Transaction, error)

	// Get transaction scoped by the owning account
	// If absent or owned by another account must return apperrors.ErrTransactionNotFound
	GetTransaction(ctx context.Context, accountNumber string, transactionID string) (models.Transaction, error)

	// List transactions of the account, most recent first
	ListTransactions(ctx context.Context, accountNumber string) ([]models.Transaction, error)

	// Count transactions recorded against the account
	CountTransactions(ctx context.Context, accountNumber string) (int64, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) error

	// Get token and mark it used in one step
	// If the token is used already must return apperrors.ErrRefreshTokenIsUsed
	// If the token is absent must return apperrors.ErrRefreshTokenNotFound
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Storage aggregates the repositories over one connection or transaction
type Storage interface {
	User() UserRepo
	Account() AccountRepo
	Transaction() TransactionRepo
	Refresh() RefreshTokenRepo

	// InTx runs fn against a Storage bound to a single database transaction.
	// Everything fn writes commits atomically, or rolls back together if fn
	// returns an error.
	InTx(ctx context.Context, fn func(Storage) error) error
}
