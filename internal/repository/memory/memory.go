// Package memory holds a map-backed repository.Storage for tests.
//
// One mutex guards the whole store and is held for the full duration of a
// unit of work, so InTx gives the same serialization a row lock gives the
// postgres implementation, just with coarser granularity. A snapshot taken
// at InTx start is restored when fn fails, keeping units of work atomic.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/nortbank/backoffice/internal/apperrors"
	"github.com/nortbank/backoffice/internal/models"
	"github.com/nortbank/backoffice/internal/repository"
	"github.com/shopspring/decimal"
)

type data struct {
	users        map[string]models.User         // by id
	accounts     map[string]models.Account      // by number
	transactions []models.Transaction           // insertion order
	refresh      map[string]models.RefreshToken // by token string
}

func (d *data) clone() *data {
	return &data{
		users:        maps.Clone(d.users),
		accounts:     maps.Clone(d.accounts),
		transactions: slices.Clone(d.transactions),
		refresh:      maps.Clone(d.refresh),
	}
}

type Storage struct {
	mu   *sync.Mutex
	d    *data
	inTx bool
}

func NewStorage() *Storage {
	return &Storage{
		mu: &sync.Mutex{},
		d: &data{
			users:    make(map[string]models.User),
			accounts: make(map[string]models.Account),
			refresh:  make(map[string]models.RefreshToken),
		},
	}
}

func (s *Storage) User() repository.UserRepo               { return s }
func (s *Storage) Account() repository.AccountRepo         { return s }
func (s *Storage) Transaction() repository.TransactionRepo { return s }
func (s *Storage) Refresh() repository.RefreshTokenRepo    { return s }

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	err := fn(&Storage{mu: s.mu, d: s.d, inTx: true})
	if err != nil {
		*s.d = *snapshot
	}

	return err
}

// do runs fn under the store mutex unless it is held by an enclosing InTx
func (s *Storage) do(fn func(*data) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	return fn(s.d)
}

func (s *Storage) CreateUser(_ context.Context, id string, username string, hashedPassword string) (models.User, error) {
	var user models.User
	err := s.do(func(d *data) error {
		for _, u := range d.users {
			if u.Username == username {
				return apperrors.ErrUserAlreadyExists
			}
		}

		user = models.User{ID: id, CreatedAt: time.Now(), Username: username, PasswordHash: hashedPassword}
		d.users[id] = user
		return nil
	})

	return user, err
}

func (s *Storage) GetUserByID(_ context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.do(func(d *data) error {
		u, ok := d.users[userID]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		user = u
		return nil
	})

	return user, err
}

func (s *Storage) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	var user models.User
	err := s.do(func(d *data) error {
		for _, u := range d.users {
			if u.Username == username {
				user = u
				return nil
			}
		}
		return apperrors.ErrUserNotFound
	})

	return user, err
}

func (s *Storage) CreateAccount(_ context.Context, account models.Account) (models.Account, error) {
	err := s.do(func(d *data) error {
		if _, exists := d.accounts[account.Number]; exists {
			return fmt.Errorf("account number already exists: %s", account.Number)
		}

		now := time.Now()
		account.CreatedAt = now
		account.UpdatedAt = now
		d.accounts[account.Number] = account
		return nil
	})

	return account, err
}

func (s *Storage) GetAccount(_ context.Context, number string) (models.Account, error) {
	var account models.Account
	err := s.do(func(d *data) error {
		a, ok := d.accounts[number]
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		account = a
		return nil
	})

	return account, err
}

// GetAccountForUpdate behaves like GetAccount: the store mutex held by the
// enclosing InTx already serializes concurrent units of work.
func (s *Storage) GetAccountForUpdate(ctx context.Context, number string) (models.Account, error) {
	return s.GetAccount(ctx, number)
}

func (s *Storage) NumberExists(_ context.Context, number string) (bool, error) {
	var exists bool
	err := s.do(func(d *data) error {
		_, exists = d.accounts[number]
		return nil
	})

	return exists, err
}

func (s *Storage) UpdateAccount(_ context.Context, number string, name string, category string) (models.Account, error) {
	var account models.Account
	err := s.do(func(d *data) error {
		a, ok := d.accounts[number]
		if !ok {
			return apperrors.ErrAccountNotFound
		}

		a.Name = name
		a.Category = category
		a.UpdatedAt = time.Now()
		d.accounts[number] = a
		account = a
		return nil
	})

	return account, err
}

func (s *Storage) UpdateBalance(_ context.Context, number string, balance decimal.Decimal) (models.Account, error) {
	var account models.Account
	err := s.do(func(d *data) error {
		a, ok := d.accounts[number]
		if !ok {
			return apperrors.ErrAccountNotFound
		}

		a.Balance = balance
		a.UpdatedAt = time.Now()
		d.accounts[number] = a
		account = a
		return nil
	})

	return account, err
}

func (s *Storage) DeleteAccount(_ context.Context, number string) error {
	return s.do(func(d *data) error {
		if _, ok := d.accounts[number]; !ok {
			return apperrors.ErrAccountNotFound
		}

		for _, t := range d.transactions {
			if t.AccountNumber == number {
				return apperrors.ErrAccountNotEmpty
			}
		}

		delete(d.accounts, number)
		return nil
	})
}

func (s *Storage) CreateTransaction(_ context.Context, transaction models.Transaction) (models.Transaction, error) {
	err := s.do(func(d *data) error {
		if _, ok := d.accounts[transaction.AccountNumber]; !ok {
			return apperrors.ErrAccountNotFound
		}

		transaction.CreatedAt = time.Now()
		d.transactions = append(d.transactions, transaction)
		return nil
	})

	return transaction, err
}

func (s *Storage) GetTransaction(_ context.Context, accountNumber string, transactionID string) (models.Transaction, error) {
	var transaction models.Transaction
	err := s.do(func(d *data) error {
		for _, t := range d.transactions {
			if t.ID == transactionID && t.AccountNumber == accountNumber {
				transaction = t
				return nil
			}
		}
		return apperrors.ErrTransactionNotFound
	})

	return transaction, err
}

func (s *Storage) ListTransactions(_ context.Context, accountNumber string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.do(func(d *data) error {
		// Most recent first, mirrors the postgres ORDER BY created_at DESC
		for i := len(d.transactions) - 1; i >= 0; i-- {
			if d.transactions[i].AccountNumber == accountNumber {
				transactions = append(transactions, d.transactions[i])
			}
		}
		return nil
	})

	return transactions, err
}

func (s *Storage) CountTransactions(_ context.Context, accountNumber string) (int64, error) {
	var count int64
	err := s.do(func(d *data) error {
		for _, t := range d.transactions {
			if t.AccountNumber == accountNumber {
				count++
			}
		}
		return nil
	})

	return count, err
}

func (s *Storage) Save(_ context.Context, token models.RefreshToken) error {
	return s.do(func(d *data) error {
		d.refresh[token.Token] = token
		return nil
	})
}

func (s *Storage) GetAndMarkUsed(_ context.Context, tokenString string) (models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.do(func(d *data) error {
		t, ok := d.refresh[tokenString]
		if !ok {
			return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
		}
		if t.UsedAt != nil {
			return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenIsUsed)
		}

		now := time.Now()
		t.UsedAt = &now
		d.refresh[tokenString] = t
		token = t
		return nil
	})

	return token, err
}
