// Package account orchestrates the account lifecycle. No locking here:
// nothing in this package mutates a balance, the single-row writes can't
// contend with the transaction path.
package account

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

type AccountService struct {
	// Repository to access long term data
	storage repository.Storage
}

func NewService(storage repository.Storage) *AccountService {
	return &AccountService{
		storage: storage,
	}
}

// Create opens an account for the owner with a fresh collision-checked
// number, zero balance and the single supported currency.
func (s *AccountService) Create(ctx context.Context, ownerID string, name string, category string) (models.Account, error) {
	var account models.Account

	if !models.ValidAccountCategory(category) {
		return account, fmt.Errorf("category %q is unknown: %w", category, apperrors.ErrCategoryInvalid)
	}

	// Owner must exist before an account can reference it
	owner, err := s.storage.User().GetUserByID(ctx, ownerID)
	if err != nil {
		return account, err
	}

	number, err := idgen.NewAccountNumber(ctx, s.storage.Account().NumberExists)
	if err != nil {
		return account, err
	}

	return s.storage.Account().CreateAccount(ctx, models.Account{
		Number:   number,
		Name:     name,
		Category: category,
		Balance:  decimal.Zero,
		Currency: models.CurrencyGBP,
		OwnerID:  owner.ID,
	})
}

func (s *AccountService) Get(ctx context.Context, number string, requesterID string) (models.Account, error) {
	account, err := s.storage.Account().GetAccount(ctx, number)
	if err != nil {
		return models.Account{}, err
	}

	if err := ownership.Verify(account.OwnerID, requesterID, "account "+account.Number); err != nil {
		return models.Account{}, err
	}

	return account, nil
}

// Update touches display name and category only. Balance and currency are
// never client-settable: the balance moves only through the transaction
// service and the currency is fixed at creation.
func (s *AccountService) Update(ctx context.Context, number string, name string, category string, requesterID string) (models.Account, error) {
	account, err := s.storage.Account().GetAccount(ctx, number)
	if err != nil {
		return models.Account{}, err
	}

	if err := ownership.Verify(account.OwnerID, requesterID, "account "+account.Number); err != nil {
		return models.Account{}, err
	}

	if !models.ValidAccountCategory(category) {
		return models.Account{}, fmt.Errorf("category %q is unknown: %w", category, apperrors.ErrCategoryInvalid)
	}

	return s.storage.Account().UpdateAccount(ctx, number, name, category)
}

// Delete removes the account. An account with recorded transactions is
// refused with apperrors.ErrAccountNotEmpty; the foreign key with delete
// restrict stays as the storage-level backstop for the same rule.
func (s *AccountService) Delete(ctx context.Context, number string, requesterID string) error {
	account, err := s.storage.Account().GetAccount(ctx, number)
	if err != nil {
		return err
	}

	if err := ownership.Verify(account.OwnerID, requesterID, "account "+account.Number); err != nil {
		return err
	}

	count, err := s.storage.Transaction().CountTransactions(ctx, account.Number)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrAccountNotEmpty
	}

	return s.storage.Account().DeleteAccount(ctx, account.Number)
}
