package interfaces

import (
	"context"
	"time"

	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Account, error)

	// GetForUpdate retrieves an account and locks its row until the transaction ends
	GetForUpdate(ctx context.Context, id int64) (*entities.Account, error)

	// Create creates an account with an initial balance
	Create(ctx context.Context, id int64, initialBalance decimal.Decimal) (*entities.Account, error)

	// ApplySettlement sets the new balance and bumps play_count when countPlay is set
	ApplySettlement(ctx context.Context, id int64, newBalance decimal.Decimal, countPlay bool) error

	// SetBanned flags or clears a ban
	SetBanned(ctx context.Context, id int64, banned bool) error
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByAccount returns the most recent entries for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BalanceHistory, error)
}

// LedgerRepository defines the interface for the game ledger
type LedgerRepository interface {
	// Append inserts an entry and fills in its ID and CreatedAt
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// GetBySessionID returns the ledger row resolving a crash session, or nil
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*entities.LedgerEntry, error)

	// List returns an account's entries, newest first
	List(ctx context.Context, accountID int64, filter entities.LedgerFilter) ([]*entities.LedgerEntry, error)
}

// CrashSessionRepository defines the interface for open crash sessions
type CrashSessionRepository interface {
	// Create stores a new open session
	Create(ctx context.Context, session *entities.CrashSession) error

	// Close deletes and returns the session, or nil if it is not open.
	// A session can be closed only once.
	Close(ctx context.Context, id uuid.UUID) (*entities.CrashSession, error)

	// CloseExpired deletes and returns up to limit sessions expired at now,
	// skipping rows locked by concurrent cashouts
	CloseExpired(ctx context.Context, now time.Time, limit int) ([]*entities.CrashSession, error)

	// CountOpen returns the number of open sessions
	CountOpen(ctx context.Context) (int64, error)
}

// PolicyVersionRepository records every policy version that became active
type PolicyVersionRepository interface {
	// Record stores the snapshot document. Recording the same document twice
	// is a no-op; a different document under a recorded version fails.
	Record(ctx context.Context, snap *policy.Snapshot) error
	// Checksum returns the recorded checksum for version, or "" if it was never recorded
	Checksum(ctx context.Context, version string) (string, error)
}
