package testhelpers

import (
	"context"
	"time"

	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/interfaces"
	"casino/domain/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetForUpdate(ctx context.Context, id int64) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, id int64, initialBalance decimal.Decimal) (*entities.Account, error) {
	args := m.Called(ctx, id, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplySettlement(ctx context.Context, id int64, newBalance decimal.Decimal, countPlay bool) error {
	args := m.Called(ctx, id, newBalance, countPlay)
	return args.Error(0)
}

func (m *MockAccountRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	args := m.Called(ctx, id, banned)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*entities.LedgerEntry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) List(ctx context.Context, accountID int64, filter entities.LedgerFilter) ([]*entities.LedgerEntry, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEntry), args.Error(1)
}

// MockCrashSessionRepository is a mock implementation of CrashSessionRepository
type MockCrashSessionRepository struct {
	mock.Mock
}

func (m *MockCrashSessionRepository) Create(ctx context.Context, session *entities.CrashSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCrashSessionRepository) Close(ctx context.Context, id uuid.UUID) (*entities.CrashSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CrashSession), args.Error(1)
}

func (m *MockCrashSessionRepository) CloseExpired(ctx context.Context, now time.Time, limit int) ([]*entities.CrashSession, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CrashSession), args.Error(1)
}

func (m *MockCrashSessionRepository) CountOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPolicyVersionRepository is a mock implementation of PolicyVersionRepository
type MockPolicyVersionRepository struct {
	mock.Mock
}

func (m *MockPolicyVersionRepository) Record(ctx context.Context, snap *policy.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockPolicyVersionRepository) Checksum(ctx context.Context, version string) (string, error) {
	args := m.Called(ctx, version)
	return args.String(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockUnitOfWork hands out the mock repositories it was built with.
// Begin, Commit and Rollback are recorded so tests can assert on them.
type MockUnitOfWork struct {
	mock.Mock
	Accounts       *MockAccountRepository
	BalanceHistory *MockBalanceHistoryRepository
	Ledger         *MockLedgerRepository
	CrashSessions  *MockCrashSessionRepository
	Events         *MockEventPublisher
}

// NewMockUnitOfWork creates a unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Accounts:       new(MockAccountRepository),
		BalanceHistory: new(MockBalanceHistoryRepository),
		Ledger:         new(MockLedgerRepository),
		CrashSessions:  new(MockCrashSessionRepository),
		Events:         new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() interfaces.AccountRepository {
	return m.Accounts
}

func (m *MockUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return m.BalanceHistory
}

func (m *MockUnitOfWork) LedgerRepository() interfaces.LedgerRepository {
	return m.Ledger
}

func (m *MockUnitOfWork) CrashSessionRepository() interfaces.CrashSessionRepository {
	return m.CrashSessions
}

func (m *MockUnitOfWork) EventBus() interfaces.EventPublisher {
	return m.Events
}

// ExpectTransaction sets up Begin and a deferred Rollback, plus Commit when committed is set
func (m *MockUnitOfWork) ExpectTransaction(committed bool) {
	m.On("Begin", mock.Anything).Return(nil)
	if committed {
		m.On("Commit").Return(nil)
	}
	m.On("Rollback").Return(nil)
}

// AssertAllExpectations asserts the unit of work and every repository mock
func (m *MockUnitOfWork) AssertAllExpectations(t mock.TestingT) {
	m.AssertExpectations(t)
	m.Accounts.AssertExpectations(t)
	m.BalanceHistory.AssertExpectations(t)
	m.Ledger.AssertExpectations(t)
	m.CrashSessions.AssertExpectations(t)
	m.Events.AssertExpectations(t)
}

// MockUnitOfWorkFactory always returns the same unit of work
type MockUnitOfWorkFactory struct {
	UnitOfWork *MockUnitOfWork
}

func (f *MockUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return f.UnitOfWork
}
