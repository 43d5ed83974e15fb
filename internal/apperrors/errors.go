package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found for this account")

	// Account still has transactions recorded against it, delete refused
	ErrAccountNotEmpty = errors.New("account has transactions and can't be deleted")

	// Requester is not the owner of the resource
	ErrUnauthorized = errors.New("requester is not the resource owner")

	// Ownership check called without both ids set, caller bug
	ErrOwnerRequired = errors.New("owner and requester ids are required")

	ErrCategoryInvalid  = errors.New("account category is invalid")
	ErrDirectionInvalid = errors.New("transaction direction is invalid")
	ErrCurrencyMismatch = errors.New("currency doesn't match the account currency")
	ErrAmountOutOfRange = errors.New("amount is out of the allowed range")

	ErrInsufficientFunds = errors.New("insufficient funds")

	// Account number generation retry budget spent, not retryable by the caller
	ErrAccountNumbersExhausted = errors.New("account number generation retries exhausted")
)

// InsufficientFundsError carries the context a caller needs to render
// a useful response. Matches ErrInsufficientFunds with errors.Is.
type InsufficientFundsError struct {
	AccountNumber string
	Requested     decimal.Decimal
	Available     decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds on account %s: requested %s, available %s",
		e.AccountNumber, e.Requested.StringFixed(2), e.Available.StringFixed(2),
	)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
