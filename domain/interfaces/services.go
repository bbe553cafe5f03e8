package interfaces

import (
	"context"
	"time"

	"casino/domain/entities"
	"casino/domain/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher queues events until the owning transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes every queued event
	Flush(ctx context.Context) error

	// Discard drops every queued event
	Discard()
}

// SlotsResult is returned to the player after a spin
type SlotsResult struct {
	Outcome  *entities.SlotsOutcome
	LedgerID int64
	Balance  decimal.Decimal
}

type DiceResult struct {
	Outcome  *entities.DiceOutcome
	LedgerID int64
	Balance  decimal.Decimal
}

// CrashStartResult never carries the crash point
type CrashStartResult struct {
	SessionID uuid.UUID
	Stake     decimal.Decimal
	Balance   decimal.Decimal
}

type CrashCashoutResult struct {
	Outcome  *entities.CrashOutcome
	LedgerID int64
	Balance  decimal.Decimal
}

type RouletteResult struct {
	Outcome  *entities.RouletteOutcome
	LedgerID int64
	Balance  decimal.Decimal
}

// GameService is the entry point for every game
type GameService interface {
	PlaceSlots(ctx context.Context, bet entities.SlotsBet) (*SlotsResult, error)
	PlaceDice(ctx context.Context, bet entities.DiceBet) (*DiceResult, error)
	StartCrash(ctx context.Context, bet entities.CrashStartBet) (*CrashStartResult, error)
	CashoutCrash(ctx context.Context, req entities.CrashCashout) (*CrashCashoutResult, error)
	PlaceRoulette(ctx context.Context, bet entities.RouletteBet) (*RouletteResult, error)
	History(ctx context.Context, accountID int64, filter entities.LedgerFilter) ([]*entities.LedgerEntry, error)
	PolicyVersion() (string, error)
}

// SettlementRequest settles an outcome decided outside the engine, e.g. blackjack
type SettlementRequest struct {
	AccountID int64
	GameKind  entities.GameKind
	Stake     decimal.Decimal
	Payout    decimal.Decimal
	Detail    map[string]any
	Reference string
}

type SettlementResult struct {
	LedgerID     int64
	BalanceAfter decimal.Decimal
}

// SettlementService exposes the ledger primitive to external collaborators
type SettlementService interface {
	Settle(ctx context.Context, req SettlementRequest) (*SettlementResult, error)
}

// CrashReaper resolves abandoned crash sessions
type CrashReaper interface {
	ExpireCrashSessions(ctx context.Context, batchSize int) (int, error)
}

// AccountService covers administrative account operations
type AccountService interface {
	GetOrCreate(ctx context.Context, accountID int64, initialBalance decimal.Decimal) (*entities.Account, error)
	AdjustBalance(ctx context.Context, accountID int64, amount decimal.Decimal, reason string) (*entities.Account, error)
	SetBanned(ctx context.Context, accountID int64, banned bool, reason string) (*entities.Account, error)
}

// GameMetrics receives per-bet measurements
type GameMetrics interface {
	RecordBet(kind entities.GameKind, stake, payout decimal.Decimal, win bool)
	RecordRejection(kind entities.GameKind, reason string)
	RecordSettlementDuration(kind entities.GameKind, d time.Duration)
	UpdateOpenCrashSessions(delta int64)
}
