package testutil

import (
	"context"
	"sync"
	"time"

	"casino/domain/entities"
	"casino/domain/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTestCrashSession builds an open session for accountID expiring after ttl
func CreateTestCrashSession(accountID int64, stake, crashPoint string, ttl time.Duration) *entities.CrashSession {
	return &entities.CrashSession{
		ID:            uuid.New(),
		AccountID:     accountID,
		Stake:         decimal.RequireFromString(stake),
		CrashPoint:    decimal.RequireFromString(crashPoint),
		PolicyVersion: "test",
		ExpiresAt:     time.Now().Add(ttl),
	}
}

// CreateTestLedgerEntry builds a ledger row for accountID
func CreateTestLedgerEntry(accountID int64, kind entities.GameKind, stake, payout string) *entities.LedgerEntry {
	s := decimal.RequireFromString(stake)
	p := decimal.RequireFromString(payout)
	return &entities.LedgerEntry{
		AccountID:     accountID,
		GameKind:      kind,
		Stake:         s,
		Multiplier:    entities.NormalizeMultiplier(p.DivRound(s, entities.MultiplierPlaces)),
		Payout:        p,
		IsWin:         p.IsPositive(),
		BalanceAfter:  decimal.NewFromInt(1000),
		PolicyVersion: "test",
		Detail:        map[string]any{"test": true},
	}
}

// RecordingPublisher is an in-memory TransactionalEventPublisher
type RecordingPublisher struct {
	mu        sync.Mutex
	pending   []events.Event
	Published []events.Event
	Discarded int
}

func (p *RecordingPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
	return nil
}

func (p *RecordingPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published = append(p.Published, p.pending...)
	p.pending = nil
	return nil
}

func (p *RecordingPublisher) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Discarded += len(p.pending)
	p.pending = nil
}
