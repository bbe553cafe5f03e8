package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"casino/domain/engine"
	"casino/domain/entities"
	"casino/domain/interfaces"
	"casino/domain/policy"
	"casino/domain/services"
	"casino/infrastructure"
	"casino/repository"
	"casino/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type concurrencyFixture struct {
	db          *testutil.TestDatabase
	games       interfaces.GameService
	settlements interfaces.SettlementService
	accounts    *repository.AccountRepository
	ledger      *repository.LedgerRepository
}

func newConcurrencyFixture(t *testing.T) *concurrencyFixture {
	t.Helper()
	testDB := testutil.SetupTestDatabase(t)

	snap, err := policy.LoadFile("../../config/policy.yaml")
	require.NoError(t, err)
	store := policy.NewStore(snap)

	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher())
	limits := entities.StakeLimits{Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(10000)}

	return &concurrencyFixture{
		db:          testDB,
		games:       services.NewGameService(uowFactory, store, engine.New(nil), limits, 5*time.Minute),
		settlements: services.NewSettlementService(uowFactory, store, limits, decimal.NewFromInt(100)),
		accounts:    repository.NewAccountRepository(testDB.DB),
		ledger:      repository.NewLedgerRepository(testDB.DB),
	}
}

func (f *concurrencyFixture) createAccount(t *testing.T, id int64, balance string) {
	t.Helper()
	_, err := f.accounts.Create(context.Background(), id, decimal.RequireFromString(balance))
	require.NoError(t, err)
}

func (f *concurrencyFixture) balance(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	account, err := f.accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, account)
	return account.Balance
}

func (f *concurrencyFixture) ledgerRows(t *testing.T, id int64) []*entities.LedgerEntry {
	t.Helper()
	entries, err := f.ledger.List(context.Background(), id, entities.LedgerFilter{Limit: entities.MaxLedgerLimit})
	require.NoError(t, err)
	return entries
}

// race runs fn n times concurrently, releasing all goroutines at once, and
// returns each call's error in call order
func race(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	start := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func partition(errs []error) (succeeded int, failed []error) {
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			failed = append(failed, err)
		}
	}
	return succeeded, failed
}

func TestConcurrentCrashStart_OnlyOneStakeFits(t *testing.T) {
	f := newConcurrencyFixture(t)
	ctx := context.Background()
	const player = int64(7001)
	f.createAccount(t, player, "100")

	errs := race(2, func(int) error {
		_, err := f.games.StartCrash(ctx, entities.CrashStartBet{PlayerID: player, Stake: decimal.NewFromInt(60)})
		return err
	})

	succeeded, failed := partition(errs)
	assert.Equal(t, 1, succeeded)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], entities.ErrInsufficientBalance)

	assert.True(t, f.balance(t, player).Equal(decimal.NewFromInt(40)), "balance %s", f.balance(t, player))
	assert.Empty(t, f.ledgerRows(t, player), "opening a session writes no ledger row")

	open, err := repository.NewCrashSessionRepository(f.db.DB).CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), open)
}

func TestConcurrentDice_BalanceNeverOverdrawn(t *testing.T) {
	f := newConcurrencyFixture(t)
	ctx := context.Background()
	const player = int64(7002)
	const bets = 12
	f.createAccount(t, player, "100")

	results := make([]*interfaces.DiceResult, bets)
	errs := race(bets, func(i int) error {
		res, err := f.games.PlaceDice(ctx, entities.DiceBet{PlayerID: player, Stake: decimal.NewFromInt(30), Target: 50})
		results[i] = res
		return err
	})

	succeeded, failed := partition(errs)
	require.Positive(t, succeeded)
	for _, err := range failed {
		assert.ErrorIs(t, err, entities.ErrInsufficientBalance)
	}

	expected := decimal.NewFromInt(100)
	for i, res := range results {
		if errs[i] != nil {
			continue
		}
		expected = expected.Sub(decimal.NewFromInt(30)).Add(res.Outcome.Payout)
	}

	final := f.balance(t, player)
	assert.False(t, final.IsNegative())
	assert.True(t, final.Equal(expected), "balance %s, expected %s", final, expected)
	assert.Len(t, f.ledgerRows(t, player), succeeded)
}

func TestConcurrentCashout_SettlesOnce(t *testing.T) {
	f := newConcurrencyFixture(t)
	ctx := context.Background()
	const player = int64(7003)
	f.createAccount(t, player, "100")

	started, err := f.games.StartCrash(ctx, entities.CrashStartBet{PlayerID: player, Stake: decimal.NewFromInt(40)})
	require.NoError(t, err)
	require.True(t, started.Balance.Equal(decimal.NewFromInt(60)))

	results := make([]*interfaces.CrashCashoutResult, 2)
	errs := race(2, func(i int) error {
		res, err := f.games.CashoutCrash(ctx, entities.CrashCashout{
			PlayerID:   player,
			SessionID:  started.SessionID,
			Multiplier: decimal.NewFromInt(1),
		})
		results[i] = res
		return err
	})

	succeeded, failed := partition(errs)
	assert.Equal(t, 1, succeeded)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], entities.ErrSessionAlreadyClosed)

	var winner *interfaces.CrashCashoutResult
	for _, res := range results {
		if res != nil {
			winner = res
		}
	}
	require.NotNil(t, winner)
	assert.True(t, winner.Outcome.Win, "a 1.00 cashout never loses")

	assert.True(t, f.balance(t, player).Equal(decimal.NewFromInt(100)), "balance %s", f.balance(t, player))
	rows := f.ledgerRows(t, player)
	require.Len(t, rows, 1)
	assert.Equal(t, winner.LedgerID, rows[0].ID)
}

func TestConcurrentSettlement_ReferenceAppliesOnce(t *testing.T) {
	f := newConcurrencyFixture(t)
	ctx := context.Background()
	const player = int64(7004)
	f.createAccount(t, player, "100")

	errs := race(4, func(int) error {
		_, err := f.settlements.Settle(ctx, interfaces.SettlementRequest{
			AccountID: player,
			GameKind:  entities.GameKindExternal,
			Stake:     decimal.NewFromInt(10),
			Payout:    decimal.NewFromInt(25),
			Reference: "blackjack:hand-7",
		})
		return err
	})

	succeeded, failed := partition(errs)
	assert.Equal(t, 1, succeeded)
	for _, err := range failed {
		assert.True(t, errors.Is(err, entities.ErrDuplicateSettlement), fmt.Sprint(err))
	}

	assert.True(t, f.balance(t, player).Equal(decimal.NewFromInt(115)), "balance %s", f.balance(t, player))
	assert.Len(t, f.ledgerRows(t, player), 1)
}
