// Package transaction holds the ledger mutation path. Everything that
// touches an account balance goes through Create, inside one unit of work
// guarded by an exclusive row lock on the account.
package transaction

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nortbank/backoffice/internal/apperrors"
	"github.com/nortbank/backoffice/internal/idgen"
	"github.com/nortbank/backoffice/internal/models"
	"github.com/nortbank/backoffice/internal/ownership"
	"github.com/nortbank/backoffice/internal/repository"
)

type TransactionService struct {
	// Repository to access long term data
	storage repository.Storage
}

func NewService(storage repository.Storage) *TransactionService {
	return &TransactionService{
		storage: storage,
	}
}

type CreateParams struct {
	AccountNumber string
	Amount        decimal.Decimal
	Currency      string
	Direction     string
	Reference     string
	RequesterID   string
}

// Create records a deposit or withdrawal and moves the account balance,
// both persisted in the same database transaction.
//
// Order of operations inside the unit of work:
// locked fetch, ownership check, validation, sufficiency check, mutation.
// The row lock taken by the fetch serializes concurrent calls against the
// same account; nothing is ever locked for a missing account. Any error
// rolls the whole unit back, so a failed call leaves no partial effect.
func (s *TransactionService) Create(ctx context.Context, p CreateParams) (models.Transaction, error) {
	var created models.Transaction

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		account, err := storage.Account().GetAccountForUpdate(ctx, p.AccountNumber)
		if err != nil {
			return err
		}

		if err := ownership.Verify(account.OwnerID, p.RequesterID, "account "+account.Number); err != nil {
			return err
		}

		if err := validate(account, p); err != nil {
			return err
		}

		newBalance := account.Balance.Add(p.Amount)
		if p.Direction == models.DirectionWithdrawal {
			if p.Amount.GreaterThan(account.Balance) {
				return &apperrors.InsufficientFundsError{
					AccountNumber: account.Number,
					Requested:     p.Amount,
					Available:     account.Balance,
				}
			}
			newBalance = account.Balance.Sub(p.Amount)
		}

		id, err := idgen.NewTransactionID()
		if err != nil {
			return err
		}

		created, err = storage.Transaction().CreateTransaction(ctx, models.Transaction{
			ID:            id,
			AccountNumber: account.Number,
			Amount:        p.Amount,
			Direction:     p.Direction,
			Currency:      p.Currency,
			Reference:     p.Reference,
			InitiatedBy:   p.RequesterID,
		})
		if err != nil {
			return err
		}

		_, err = storage.Account().UpdateBalance(ctx, account.Number, newBalance)
		return err
	})

	if err != nil {
		return models.Transaction{}, err
	}

	return created, nil
}

// List returns the account's transactions, most recent first. Takes no lock:
// a reader may miss a concurrently committing writer, the committed row is
// the authority.
func (s *TransactionService) List(ctx context.Context, accountNumber string, requesterID string) ([]models.Transaction, error) {
	account, err := s.storage.Account().GetAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if err := ownership.Verify(account.OwnerID, requesterID, "account "+account.Number); err != nil {
		return nil, err
	}

	return s.storage.Transaction().ListTransactions(ctx, account.Number)
}

// Get returns one transaction of the account. An id that belongs to a
// different account is apperrors.ErrTransactionNotFound, same as an absent one.
func (s *TransactionService) Get(ctx context.Context, accountNumber string, transactionID string, requesterID string) (models.Transaction, error) {
	account, err := s.storage.Account().GetAccount(ctx, accountNumber)
	if err != nil {
		return models.Transaction{}, err
	}

	if err := ownership.Verify(account.OwnerID, requesterID, "account "+account.Number); err != nil {
		return models.Transaction{}, err
	}

	return s.storage.Transaction().GetTransaction(ctx, account.Number, transactionID)
}

func validate(account models.Account, p CreateParams) error {
	if !models.ValidDirection(p.Direction) {
		return fmt.Errorf("direction %q: %w", p.Direction, apperrors.ErrDirectionInvalid)
	}

	if p.Currency != account.Currency {
		return fmt.Errorf("got %q, account holds %q: %w", p.Currency, account.Currency, apperrors.ErrCurrencyMismatch)
	}

	if p.Amount.LessThan(models.AmountMin) || p.Amount.GreaterThan(models.AmountMax) {
		return fmt.Errorf(
			"amount %s not in [%s, %s]: %w",
			p.Amount.StringFixed(2), models.AmountMin.StringFixed(2), models.AmountMax.StringFixed(2),
			apperrors.ErrAmountOutOfRange,
		)
	}

	return nil
}
