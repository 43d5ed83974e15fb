package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionDeposit    = "deposit"
	DirectionWithdrawal = "withdrawal"
)

// Inclusive bounds for a single transaction amount
var (
	AmountMin = decimal.RequireFromString("0.01")
	AmountMax = decimal.RequireFromString("10000.00")
)

// Transaction is immutable once created: no update or delete exists for it
type Transaction struct {
	ID            string
	AccountNumber string

	Amount    decimal.Decimal
	Direction string
	Currency  string

	// Optional free text supplied by the client
	Reference string

	// Who initiated the transaction, distinct from the account owner reference
	InitiatedBy string

	CreatedAt time.Time
}

func ValidDirection(direction string) bool {
	return direction == DirectionDeposit || direction == DirectionWithdrawal
}
