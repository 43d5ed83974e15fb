package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Single members for now, the schema constrains both to a closed set
const (
	AccountCategoryPersonal = "personal"

	CurrencyGBP = "GBP"
)

type Account struct {
	// Number in format "01" + 6 digits, immutable after creation
	Number string

	Name     string
	Category string

	// Balance is mutated only by the transaction service, never set directly
	Balance  decimal.Decimal
	Currency string

	OwnerID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func ValidAccountCategory(category string) bool {
	return category == AccountCategoryPersonal
}

func ValidCurrency(currency string) bool {
	return currency == CurrencyGBP
}
