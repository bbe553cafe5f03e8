package services

import (
	"context"
	"errors"
	"testing"

	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRecordBalanceChange(t *testing.T) {
	ctx := context.Background()

	history := &entities.BalanceHistory{
		AccountID:       testAccountID,
		BalanceBefore:   amount("100"),
		BalanceAfter:    amount("70"),
		ChangeAmount:    amount("-30"),
		TransactionType: entities.TransactionTypeBetLoss,
	}

	t.Run("records and publishes", func(t *testing.T) {
		repo := new(testhelpers.MockBalanceHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)
		repo.On("Record", ctx, history).Return(nil)
		publisher.On("Publish", mock.MatchedBy(func(e events.BalanceChangeEvent) bool {
			return e.AccountID == testAccountID && e.NewBalance.Equal(amount("70")) && e.ChangeAmount.Equal(amount("-30"))
		})).Return(nil)

		require.NoError(t, RecordBalanceChange(ctx, repo, publisher, history))
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("publish failure is not fatal", func(t *testing.T) {
		repo := new(testhelpers.MockBalanceHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)
		repo.On("Record", ctx, history).Return(nil)
		publisher.On("Publish", mock.Anything).Return(errors.New("bus closed"))

		assert.NoError(t, RecordBalanceChange(ctx, repo, publisher, history))
	})

	t.Run("inconsistent change is refused", func(t *testing.T) {
		repo := new(testhelpers.MockBalanceHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)
		bad := *history
		bad.BalanceAfter = amount("80")

		assert.Error(t, RecordBalanceChange(ctx, repo, publisher, &bad))
		repo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("record failure", func(t *testing.T) {
		repo := new(testhelpers.MockBalanceHistoryRepository)
		publisher := new(testhelpers.MockEventPublisher)
		repo.On("Record", ctx, history).Return(errors.New("disk full"))

		err := RecordBalanceChange(ctx, repo, publisher, history)
		assert.ErrorContains(t, err, "failed to record balance history")
		publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}
