package services

import (
	"sync"
	"testing"
	"time"

	"casino/domain/engine"
	"casino/domain/entities"
	"casino/domain/policy"
	"casino/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testAccountID = int64(42)
	settledPlays  = int64(1000)
)

// fixedSource returns f for every gate and i (clamped) for every integer draw
type fixedSource struct {
	f float64
	i int
}

func (s fixedSource) Float64() float64 { return s.f }

func (s fixedSource) IntN(n int) int {
	if s.i >= n {
		return n - 1
	}
	return s.i
}

type recordingMetrics struct {
	mu           sync.Mutex
	bets         []entities.GameKind
	rejections   []string
	openSessions int64
}

func (m *recordingMetrics) RecordBet(kind entities.GameKind, stake, payout decimal.Decimal, win bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bets = append(m.bets, kind)
}

func (m *recordingMetrics) RecordRejection(kind entities.GameKind, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, reason)
}

func (m *recordingMetrics) RecordSettlementDuration(kind entities.GameKind, d time.Duration) {}

func (m *recordingMetrics) UpdateOpenCrashSessions(delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openSessions += delta
}

func loadTestStore(t *testing.T) *policy.Store {
	t.Helper()
	snap, err := policy.LoadFile("../../config/policy.yaml")
	require.NoError(t, err)
	return policy.NewStore(snap)
}

var testLimits = entities.StakeLimits{Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(10000)}

type gameServiceFixture struct {
	uow     *testhelpers.MockUnitOfWork
	metrics *recordingMetrics
	service *gameService
	now     time.Time
}

func newGameServiceFixture(t *testing.T, rng engine.RandomSource) *gameServiceFixture {
	t.Helper()
	f := &gameServiceFixture{
		uow:     testhelpers.NewMockUnitOfWork(),
		metrics: &recordingMetrics{},
		now:     time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
	svc := NewGameService(
		&testhelpers.MockUnitOfWorkFactory{UnitOfWork: f.uow},
		loadTestStore(t),
		engine.New(rng),
		testLimits,
		5*time.Minute,
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return f.now }),
	)
	f.service = svc.(*gameService)
	return f
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// decimalEq matches a decimal argument by value
func decimalEq(s string) interface{} {
	want := amount(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func testAccount(balance string) *entities.Account {
	return &entities.Account{ID: testAccountID, Balance: amount(balance), PlayCount: settledPlays}
}

// assignLedgerID mimics the RETURNING id of the ledger insert
func assignLedgerID(id int64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		args.Get(1).(*entities.LedgerEntry).ID = id
	}
}
