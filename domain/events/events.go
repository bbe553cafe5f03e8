package events

import (
	"time"

	"casino/domain/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeBetSettled    EventType = "bet_settled"
	EventTypeCrashOpened   EventType = "crash_opened"
	EventTypeCrashExpired  EventType = "crash_expired"
	EventTypePolicyChanged EventType = "policy_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is raised for every balance_history row
type BalanceChangeEvent struct {
	AccountID       int64                    `json:"account_id"`
	OldBalance      decimal.Decimal          `json:"old_balance"`
	NewBalance      decimal.Decimal          `json:"new_balance"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ChangeAmount    decimal.Decimal          `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetSettledEvent is raised once per ledger row
type BetSettledEvent struct {
	LedgerID      int64             `json:"ledger_id"`
	AccountID     int64             `json:"account_id"`
	GameKind      entities.GameKind `json:"game_kind"`
	Stake         decimal.Decimal   `json:"stake"`
	Multiplier    decimal.Decimal   `json:"multiplier"`
	Payout        decimal.Decimal   `json:"payout"`
	IsWin         bool              `json:"is_win"`
	PolicyVersion string            `json:"policy_version"`
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// CrashOpenedEvent carries no crash point; it is published before resolution
type CrashOpenedEvent struct {
	SessionID uuid.UUID       `json:"session_id"`
	AccountID int64           `json:"account_id"`
	Stake     decimal.Decimal `json:"stake"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (e CrashOpenedEvent) Type() EventType {
	return EventTypeCrashOpened
}

// CrashExpiredEvent is raised when the reaper closes an abandoned session
type CrashExpiredEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	AccountID int64     `json:"account_id"`
	LedgerID  int64     `json:"ledger_id"`
}

func (e CrashExpiredEvent) Type() EventType {
	return EventTypeCrashExpired
}

// PolicyChangedEvent is raised when a new policy version becomes active
type PolicyChangedEvent struct {
	Version  string `json:"version"`
	Checksum string `json:"checksum"`
}

func (e PolicyChangedEvent) Type() EventType {
	return EventTypePolicyChanged
}
