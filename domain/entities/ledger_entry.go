package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is the immutable record of one resolved bet
type LedgerEntry struct {
	ID            int64           `db:"id"`
	AccountID     int64           `db:"account_id"`
	GameKind      GameKind        `db:"game_kind"`
	Stake         decimal.Decimal `db:"stake"`
	Multiplier    decimal.Decimal `db:"multiplier"`
	Payout        decimal.Decimal `db:"payout"`
	IsWin         bool            `db:"is_win"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	PolicyVersion string          `db:"policy_version"`
	SessionID     *uuid.UUID      `db:"session_id"`
	Reference     *string         `db:"reference"` // collaborator idempotency key, unique
	Detail        map[string]any  `db:"detail"`
	CreatedAt     time.Time       `db:"created_at"`
}

// NetResult returns payout − stake
func (e *LedgerEntry) NetResult() decimal.Decimal {
	return e.Payout.Sub(e.Stake)
}

// LedgerFilter narrows a ledger history query
type LedgerFilter struct {
	GameKind *GameKind
	Before   *time.Time
	Limit    int
}

const (
	DefaultLedgerLimit = 50
	MaxLedgerLimit     = 500
)

// EffectiveLimit clamps Limit into [1, MaxLedgerLimit]
func (f LedgerFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLedgerLimit
	case f.Limit > MaxLedgerLimit:
		return MaxLedgerLimit
	}
	return f.Limit
}
