package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nortbank/backoffice/internal/apperrors"
	"github.com/nortbank/backoffice/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const transactionColumns = `id, account_number, amount, direction, currency, reference, initiated_by, created_at`

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, account_number, amount, direction, currency, reference, initiated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, account_number, amount, direction, currency, reference, initiated_by, created_at
`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, transaction models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		transaction.ID, transaction.AccountNumber, transaction.Amount,
		transaction.Direction, transaction.Currency, transaction.Reference, transaction.InitiatedBy,
	)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrAccountNotFound
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTransaction = `-- name: GetTransaction
SELECT ` + transactionColumns + ` FROM transactions
WHERE account_number = $1 AND id = $2
`

// GetTransaction is scoped by account: an id that exists but belongs to a
// different account is reported as not found.
func (r *TransactionRepo) GetTransaction(ctx context.Context, accountNumber string, transactionID string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getTransaction, accountNumber, transactionID)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return transaction, nil
	case errors.Is(err, pgx.ErrNoRows):
		return transaction, apperrors.ErrTransactionNotFound
	default:
		return transaction, fmt.Errorf("db error: %w", err)
	}
}

const listTransactions = `-- name: ListTransactions
SELECT ` + transactionColumns + ` FROM transactions
WHERE account_number = $1
ORDER BY created_at DESC
`

func (r *TransactionRepo) ListTransactions(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, accountNumber)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

const countTransactions = `-- name: CountTransactions
SELECT count(*) FROM transactions
WHERE account_number = $1
`

func (r *TransactionRepo) CountTransactions(ctx context.Context, accountNumber string) (int64, error) {
	var count int64
	err := r.DB.QueryRow(ctx, countTransactions, accountNumber).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.AccountNumber, &t.Amount, &t.Direction, &t.Currency, &t.Reference, &t.InitiatedBy, &t.CreatedAt)
	return t, err
}
