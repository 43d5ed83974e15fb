// Package idgen generates identifiers for users, transactions and accounts.
//
// User and transaction ids draw 12 characters from a 62-symbol alphabet and
// are not checked for existence: the space is wide enough that collisions are
// not a practical concern. Account numbers live in a 6-digit space where
// collisions are plausible, so they are checked against the store and retried.
package idgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/nortbank/backoffice/internal/apperrors"
)

const (
	userIDPrefix        = "usr-"
	transactionIDPrefix = "txn-"
	idSuffixLen         = 12

	accountNumberPrefix = "01"
	accountNumberDigits = 6

	// How many candidate numbers to try before giving up
	maxNumberAttempts = 10
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func NewUserID() (string, error) {
	return randomID(userIDPrefix)
}

func NewTransactionID() (string, error) {
	return randomID(transactionIDPrefix)
}

func randomID(prefix string) (string, error) {
	suffix, err := randomString(alphanumeric, idSuffixLen)
	if err != nil {
		return "", fmt.Errorf("error while generating id. Err: %w", err)
	}
	return prefix + suffix, nil
}

// ExistsFunc reports whether an account number is already taken
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// NewAccountNumber returns a fresh number in format "01" + 6 digits that is
// not known to exists. Returns apperrors.ErrAccountNumbersExhausted if every
// candidate within the retry budget is taken.
func NewAccountNumber(ctx context.Context, exists ExistsFunc) (string, error) {
	for range maxNumberAttempts {
		digits, err := randomString("0123456789", accountNumberDigits)
		if err != nil {
			return "", fmt.Errorf("error while generating account number. Err: %w", err)
		}
		number := accountNumberPrefix + digits

		taken, err := exists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("error while checking account number. Err: %w", err)
		}
		if !taken {
			return number, nil
		}
	}

	return "", apperrors.ErrAccountNumbersExhausted
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))

	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}

	return string(b), nil
}
