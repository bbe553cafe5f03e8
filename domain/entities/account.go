package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a player's wallet as seen by the settlement ledger
type Account struct {
	ID        int64           `db:"id"`
	Balance   decimal.Decimal `db:"balance"`
	PlayCount int64           `db:"play_count"`
	Tier      *string         `db:"tier"`
	Banned    bool            `db:"banned"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// CanAfford checks if the balance covers amount
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// CheckPlayable returns the error that prevents this account from betting amount, if any
func (a *Account) CheckPlayable(amount decimal.Decimal) error {
	if a.Banned {
		return ErrAccountBanned
	}
	if !a.CanAfford(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// BalanceAfter computes balance − stake + payout, failing if it would go negative
func (a *Account) BalanceAfter(stake, payout decimal.Decimal) (decimal.Decimal, error) {
	after := a.Balance.Sub(stake).Add(payout)
	if after.IsNegative() {
		return decimal.Zero, ErrInsufficientBalance
	}
	return after, nil
}
