package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/policy"
	"casino/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCrashReaper struct {
	mock.Mock
}

func (m *mockCrashReaper) ExpireCrashSessions(ctx context.Context, batchSize int) (int, error) {
	args := m.Called(ctx, batchSize)
	return args.Int(0), args.Error(1)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordBet(kind entities.GameKind, stake, payout decimal.Decimal, win bool) {
	m.Called(kind, stake, payout, win)
}

func (m *mockMetrics) RecordRejection(kind entities.GameKind, reason string) {
	m.Called(kind, reason)
}

func (m *mockMetrics) RecordSettlementDuration(kind entities.GameKind, d time.Duration) {
	m.Called(kind, d)
}

func (m *mockMetrics) UpdateOpenCrashSessions(delta int64) {
	m.Called(delta)
}

func (m *mockMetrics) MeasureDatabaseQuery(repository, method string) func() {
	m.Called(repository, method)
	return func() {}
}

func TestCrashExpiryWorker_Sweep(t *testing.T) {
	t.Run("returns the number expired", func(t *testing.T) {
		reaper := new(mockCrashReaper)
		reaper.On("ExpireCrashSessions", mock.Anything, 25).Return(3, nil)

		worker := NewCrashExpiryWorker(reaper, "@every 1s", 25)
		assert.Equal(t, 3, worker.Sweep(context.Background()))
		reaper.AssertExpectations(t)
	})

	t.Run("errors are logged not propagated", func(t *testing.T) {
		reaper := new(mockCrashReaper)
		reaper.On("ExpireCrashSessions", mock.Anything, DefaultExpiryBatchSize).Return(1, errors.New("db down"))

		worker := NewCrashExpiryWorker(reaper, "@every 1s", 0)
		assert.Equal(t, 1, worker.Sweep(context.Background()))
	})

	t.Run("cancelled context skips the sweep", func(t *testing.T) {
		reaper := new(mockCrashReaper)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		worker := NewCrashExpiryWorker(reaper, "@every 1s", 10)
		assert.Zero(t, worker.Sweep(ctx))
		reaper.AssertNotCalled(t, "ExpireCrashSessions", mock.Anything, mock.Anything)
	})
}

func TestCrashExpiryWorker_Start(t *testing.T) {
	t.Run("rejects a bad schedule", func(t *testing.T) {
		worker := NewCrashExpiryWorker(new(mockCrashReaper), "not a schedule", 10)
		stop, err := worker.Start(context.Background())
		assert.Error(t, err)
		assert.Nil(t, stop)
	})

	t.Run("runs on schedule", func(t *testing.T) {
		reaper := new(mockCrashReaper)
		swept := make(chan struct{}, 1)
		reaper.On("ExpireCrashSessions", mock.Anything, 10).
			Run(func(mock.Arguments) {
				select {
				case swept <- struct{}{}:
				default:
				}
			}).
			Return(0, nil)

		worker := NewCrashExpiryWorker(reaper, "@every 1s", 10)
		stop, err := worker.Start(context.Background())
		require.NoError(t, err)
		defer stop()

		select {
		case <-swept:
		case <-time.After(5 * time.Second):
			t.Fatal("sweep did not run")
		}
	})
}

func TestPolicyAuditHook(t *testing.T) {
	snap := &policy.Snapshot{Version: "2026.10.1", Checksum: "abc"}

	t.Run("records and publishes", func(t *testing.T) {
		repo := new(testhelpers.MockPolicyVersionRepository)
		publisher := new(testhelpers.MockEventPublisher)
		repo.On("Record", mock.Anything, snap).Return(nil)
		publisher.On("Publish", events.PolicyChangedEvent{Version: "2026.10.1", Checksum: "abc"}).Return(nil)

		hook := NewPolicyAuditHook(repo, publisher)
		require.NoError(t, hook(context.Background(), snap))

		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("record failure is returned and nothing is published", func(t *testing.T) {
		repo := new(testhelpers.MockPolicyVersionRepository)
		publisher := new(testhelpers.MockEventPublisher)
		repo.On("Record", mock.Anything, snap).Return(errors.New("db down"))

		hook := NewPolicyAuditHook(repo, publisher)
		assert.Error(t, hook(context.Background(), snap))
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestPolicyVersionGuard(t *testing.T) {
	snap := &policy.Snapshot{Version: "2026.10.1", Checksum: "abc"}

	tests := []struct {
		name    string
		stored  string
		lookup  error
		wantErr error
		fails   bool
	}{
		{name: "never recorded", stored: ""},
		{name: "recorded with same checksum", stored: "abc"},
		{name: "recorded with another checksum", stored: "def", wantErr: policy.ErrVersionConflict, fails: true},
		{name: "lookup failure", lookup: errors.New("db down"), fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testhelpers.MockPolicyVersionRepository)
			repo.On("Checksum", mock.Anything, "2026.10.1").Return(tt.stored, tt.lookup)

			err := NewPolicyVersionGuard(repo)(context.Background(), snap)
			if !tt.fails {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSeedOpenCrashSessions(t *testing.T) {
	sessions := new(testhelpers.MockCrashSessionRepository)
	metrics := new(mockMetrics)

	sessions.On("CountOpen", mock.Anything).Return(int64(4), nil)
	metrics.On("MeasureDatabaseQuery", "crash_session", "CountOpen").Return()
	metrics.On("UpdateOpenCrashSessions", int64(4)).Return()

	count, err := SeedOpenCrashSessions(context.Background(), sessions, metrics, metrics)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	metrics.AssertExpectations(t)
	sessions.AssertExpectations(t)
}
