package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nortbank/backoffice/internal/apperrors"
	"github.com/nortbank/backoffice/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `number, name, category, balance, currency, owner_id, created_at, updated_at`

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (number, name, category, balance, currency, owner_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING number, name, category, balance, currency, owner_id, created_at, updated_at
`

func (r *AccountRepo) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount,
		account.Number, account.Name, account.Category, account.Balance, account.Currency, account.OwnerID,
	)
	created, err := pgx.CollectOneRow(rows, rowToAccount)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getAccount = `-- name: GetAccount
SELECT ` + accountColumns + ` FROM accounts
WHERE number = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, number)
	return collectAccount(rows)
}

const getAccountForUpdate = `-- name: GetAccountForUpdate
SELECT ` + accountColumns + ` FROM accounts
WHERE number = $1
FOR UPDATE
`

// GetAccountForUpdate takes an exclusive lock on the account row. The lock
// lasts until the enclosing transaction commits or rolls back, serializing
// concurrent balance mutations per account.
func (r *AccountRepo) GetAccountForUpdate(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountForUpdate, number)
	return collectAccount(rows)
}

const numberExists = `-- name: NumberExists
SELECT EXISTS (SELECT 1 FROM accounts WHERE number = $1)
`

func (r *AccountRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, numberExists, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

const updateAccount = `-- name: UpdateAccount
UPDATE accounts
SET name = $2, category = $3, updated_at = now()
WHERE number = $1
RETURNING ` + accountColumns + `
`

func (r *AccountRepo) UpdateAccount(ctx context.Context, number string, name string, category string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updateAccount, number, name, category)
	return collectAccount(rows)
}

const updateBalance = `-- name: UpdateBalance
UPDATE accounts
SET balance = $2, updated_at = now()
WHERE number = $1
RETURNING ` + accountColumns + `
`

func (r *AccountRepo) UpdateBalance(ctx context.Context, number string, balance decimal.Decimal) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, updateBalance, number, balance)
	return collectAccount(rows)
}

const deleteAccount = `-- name: DeleteAccount
DELETE FROM accounts
WHERE number = $1
`

func (r *AccountRepo) DeleteAccount(ctx context.Context, number string) error {
	tag, err := r.DB.Exec(ctx, deleteAccount, number)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrAccountNotEmpty
		}
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}

	return nil
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.Number, &a.Name, &a.Category, &a.Balance, &a.Currency, &a.OwnerID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
