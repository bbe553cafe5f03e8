package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"casino/domain/entities"
	"casino/domain/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// expiredSession returns a session for the test account that expired at expiresAt
func expiredSession(expiresAt time.Time) *entities.CrashSession {
	return &entities.CrashSession{
		ID:            uuid.New(),
		AccountID:     testAccountID,
		Stake:         amount("10"),
		CrashPoint:    amount("3.17"),
		PolicyVersion: "2026.09.2",
		CreatedAt:     expiresAt.Add(-5 * time.Minute),
		ExpiresAt:     expiresAt,
	}
}

func TestCrashReaper_ExpiresAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	uow := testhelpers.NewMockUnitOfWork()
	metrics := &recordingMetrics{}
	reaper := NewCrashReaper(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow}, metrics, func() time.Time { return now })

	session := expiredSession(now.Add(-10 * time.Minute))

	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Commit").Return(nil).Once()
	uow.On("Rollback").Return(nil)
	uow.CrashSessions.On("CloseExpired", ctx, now, 1).Return([]*entities.CrashSession{session}, nil).Once()
	uow.CrashSessions.On("CloseExpired", ctx, now, 1).Return([]*entities.CrashSession{}, nil).Once()
	uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(testAccount("40"), nil)
	uow.Accounts.On("ApplySettlement", ctx, testAccountID, decimalEq("40"), true).Return(nil)
	uow.Ledger.On("Append", ctx, mock.MatchedBy(func(e *entities.LedgerEntry) bool {
		return *e.SessionID == session.ID &&
			!e.IsWin &&
			e.Payout.IsZero() &&
			e.Detail["expired"] == true &&
			e.PolicyVersion == session.PolicyVersion
	})).Run(assignLedgerID(11)).Return(nil)
	uow.Events.On("Publish", mock.AnythingOfType("events.BetSettledEvent")).Return(nil)
	uow.Events.On("Publish", mock.AnythingOfType("events.CrashExpiredEvent")).Return(nil)

	expired, err := reaper.ExpireCrashSessions(ctx, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, int64(-1), metrics.openSessions)
	assert.Equal(t, []entities.GameKind{entities.GameKindCrash}, metrics.bets)
	uow.AssertAllExpectations(t)
}

func TestCrashReaper_StopsAtBatchSize(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	uow := testhelpers.NewMockUnitOfWork()
	reaper := NewCrashReaper(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow}, nil, func() time.Time { return now })

	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)
	uow.CrashSessions.On("CloseExpired", ctx, mock.Anything, 1).
		Return([]*entities.CrashSession{expiredSession(now.Add(-time.Hour))}, nil)
	uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(testAccount("40"), nil)
	uow.Accounts.On("ApplySettlement", ctx, testAccountID, mock.Anything, true).Return(nil)
	uow.Ledger.On("Append", ctx, mock.Anything).Return(nil)
	uow.Events.On("Publish", mock.Anything).Return(nil)

	expired, err := reaper.ExpireCrashSessions(ctx, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, expired)
	uow.CrashSessions.AssertNumberOfCalls(t, "CloseExpired", 3)
}

func TestCrashReaper_Errors(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("close failure", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		reaper := NewCrashReaper(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow}, nil, func() time.Time { return now })
		uow.ExpectTransaction(false)
		uow.CrashSessions.On("CloseExpired", ctx, mock.Anything, 1).Return(nil, errors.New("deadlock detected"))

		expired, err := reaper.ExpireCrashSessions(ctx, 5)
		assert.Zero(t, expired)
		assert.ErrorContains(t, err, "deadlock detected")
	})

	t.Run("orphaned session", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		reaper := NewCrashReaper(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow}, nil, func() time.Time { return now })
		uow.ExpectTransaction(false)
		uow.CrashSessions.On("CloseExpired", ctx, mock.Anything, 1).Return([]*entities.CrashSession{expiredSession(now)}, nil)
		uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(nil, nil)

		_, err := reaper.ExpireCrashSessions(ctx, 5)
		assert.ErrorContains(t, err, "missing account")
		uow.AssertNotCalled(t, "Commit")
	})

	t.Run("cancelled context", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		reaper := NewCrashReaper(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow}, nil, nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := reaper.ExpireCrashSessions(cancelled, 5)
		assert.ErrorIs(t, err, context.Canceled)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
