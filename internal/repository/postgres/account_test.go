package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nortbank/backoffice/internal/apperrors"
	"github.com/nortbank/backoffice/internal/models"
	"github.com/nortbank/backoffice/internal/testutil"
)

func seedOwner(t *testing.T, tx pgx.Tx) models.User {
	t.Helper()

	repo := UserRepo{DB: tx}
	owner, err := repo.CreateUser(t.Context(), "usr-owner0000000", "owner", "somehash")
	require.NoError(t, err)

	return owner
}

func seedAccount(t *testing.T, tx pgx.Tx, ownerID string) models.Account {
	t.Helper()

	repo := AccountRepo{DB: tx}
	account, err := repo.CreateAccount(t.Context(), models.Account{
		Number:   "01234567",
		Name:     "Main",
		Category: models.AccountCategoryPersonal,
		Balance:  decimal.Zero,
		Currency: models.CurrencyGBP,
		OwnerID:  ownerID,
	})
	require.NoError(t, err)

	return account
}

func TestAccountRepo(t *testing.T) {
	container := testutil.StartPostgresContainer(t)
	defer container.Terminate()

	t.Run("create and read back", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)
			created := seedAccount(t, tx, owner.ID)

			require.Equal(t, "01234567", created.Number)
			require.True(t, created.Balance.IsZero())
			require.False(t, created.CreatedAt.IsZero())

			repo := AccountRepo{DB: tx}
			got, err := repo.GetAccount(t.Context(), created.Number)
			require.NoError(t, err)
			require.Equal(t, created.Number, got.Number)
			require.Equal(t, created.OwnerID, got.OwnerID)
			require.True(t, got.Balance.Equal(created.Balance))
		})
	})

	t.Run("number format is enforced by the schema", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)

			repo := AccountRepo{DB: tx}
			_, err := repo.CreateAccount(t.Context(), models.Account{
				Number:   "99234567",
				Name:     "Main",
				Category: models.AccountCategoryPersonal,
				Balance:  decimal.Zero,
				Currency: models.CurrencyGBP,
				OwnerID:  owner.ID,
			})

			require.Error(t, err)
		})
	})

	t.Run("not found", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			repo := AccountRepo{DB: tx}

			_, err := repo.GetAccount(t.Context(), "01999999")
			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)

			_, err = repo.GetAccountForUpdate(t.Context(), "01999999")
			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})
	})

	t.Run("number exists", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)
			account := seedAccount(t, tx, owner.ID)

			repo := AccountRepo{DB: tx}

			exists, err := repo.NumberExists(t.Context(), account.Number)
			require.NoError(t, err)
			require.True(t, exists)

			exists, err = repo.NumberExists(t.Context(), "01999999")
			require.NoError(t, err)
			require.False(t, exists)
		})
	})

	t.Run("update touches name and category only", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)
			account := seedAccount(t, tx, owner.ID)

			repo := AccountRepo{DB: tx}
			_, err := repo.UpdateBalance(t.Context(), account.Number, decimal.RequireFromString("55.50"))
			require.NoError(t, err)

			updated, err := repo.UpdateAccount(t.Context(), account.Number, "Renamed", models.AccountCategoryPersonal)

			require.NoError(t, err)
			require.Equal(t, "Renamed", updated.Name)
			require.Equal(t, "55.50", updated.Balance.StringFixed(2))
			require.Equal(t, models.CurrencyGBP, updated.Currency)
		})
	})

	t.Run("update balance keeps cents exact", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)
			account := seedAccount(t, tx, owner.ID)

			repo := AccountRepo{DB: tx}
			updated, err := repo.UpdateBalance(t.Context(), account.Number, decimal.RequireFromString("99.99"))

			require.NoError(t, err)
			require.Equal(t, "99.99", updated.Balance.StringFixed(2))
		})
	})

	t.Run("negative balance is refused by the schema", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)
			account := seedAccount(t, tx, owner.ID)

			repo := AccountRepo{DB: tx}
			_, err := repo.UpdateBalance(t.Context(), account.Number, decimal.RequireFromString("-0.01"))

			require.Error(t, err)
		})
	})

	t.Run("delete", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)
			account := seedAccount(t, tx, owner.ID)

			repo := AccountRepo{DB: tx}
			err := repo.DeleteAccount(t.Context(), account.Number)
			require.NoError(t, err)

			_, err = repo.GetAccount(t.Context(), account.Number)
			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})
	})

	t.Run("delete unknown number", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			repo := AccountRepo{DB: tx}

			err := repo.DeleteAccount(t.Context(), "01999999")

			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})
	})

	t.Run("delete is restricted while transactions reference the account", func(t *testing.T) {
		testutil.InTx(container.Pool, t, func(tx pgx.Tx) {
			owner := seedOwner(t, tx)
			account := seedAccount(t, tx, owner.ID)

			transactions := TransactionRepo{DB: tx}
			_, err := transactions.CreateTransaction(t.Context(), models.Transaction{
				ID:            "txn-aaaaaaaaaaaa",
				AccountNumber: account.Number,
				Amount:        decimal.RequireFromString("10.00"),
				Direction:     models.DirectionDeposit,
				Currency:      models.CurrencyGBP,
				InitiatedBy:   owner.ID,
			})
			require.NoError(t, err)

			repo := AccountRepo{DB: tx}
			err = repo.DeleteAccount(t.Context(), account.Number)

			require.ErrorIs(t, err, apperrors.ErrAccountNotEmpty)
		})
	})
}
