package services

import (
	"context"
	"testing"

	"casino/domain/entities"
	"casino/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing account", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(false)
		existing := testAccount("12.50")
		uow.Accounts.On("GetByID", ctx, testAccountID).Return(existing, nil)

		account, err := svc.GetOrCreate(ctx, testAccountID, amount("100"))
		require.NoError(t, err)
		assert.Same(t, existing, account)
		uow.Accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("new account with starting balance", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(true)
		uow.Accounts.On("GetByID", ctx, testAccountID).Return(nil, nil)
		uow.Accounts.On("Create", ctx, testAccountID, decimalEq("500")).Return(testAccount("500"), nil)
		uow.BalanceHistory.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
			return h.TransactionType == entities.TransactionTypeInitial && h.BalanceAfter.Equal(amount("500"))
		})).Return(nil)
		uow.Events.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)

		account, err := svc.GetOrCreate(ctx, testAccountID, amount("500"))
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(amount("500")))
		uow.AssertAllExpectations(t)
	})

	t.Run("new empty account has no history", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(true)
		uow.Accounts.On("GetByID", ctx, testAccountID).Return(nil, nil)
		uow.Accounts.On("Create", ctx, testAccountID, decimalEq("0")).Return(testAccount("0"), nil)

		_, err := svc.GetOrCreate(ctx, testAccountID, decimal.Zero)
		require.NoError(t, err)
		uow.BalanceHistory.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("negative starting balance", func(t *testing.T) {
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: testhelpers.NewMockUnitOfWork()})
		_, err := svc.GetOrCreate(ctx, testAccountID, amount("-1"))
		assert.True(t, entities.IsValidationError(err))
	})
}

func TestAccountService_AdjustBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("credit", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(true)
		uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(testAccount("10"), nil)
		uow.Accounts.On("ApplySettlement", ctx, testAccountID, decimalEq("35.25"), false).Return(nil)
		uow.BalanceHistory.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
			return h.TransactionType == entities.TransactionTypeAdminAdjustment &&
				h.TransactionMetadata["reason"] == "goodwill"
		})).Return(nil)
		uow.Events.On("Publish", mock.Anything).Return(nil)

		account, err := svc.AdjustBalance(ctx, testAccountID, amount("25.25"), "goodwill")
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(amount("35.25")))
		uow.AssertAllExpectations(t)
	})

	t.Run("debit below zero", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(false)
		uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(testAccount("10"), nil)

		_, err := svc.AdjustBalance(ctx, testAccountID, amount("-10.01"), "chargeback")
		assert.ErrorIs(t, err, entities.ErrInsufficientBalance)
		uow.AssertNotCalled(t, "Commit")
	})

	t.Run("unknown account", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(false)
		uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(nil, nil)

		_, err := svc.AdjustBalance(ctx, testAccountID, amount("5"), "promo")
		assert.ErrorIs(t, err, entities.ErrAccountNotFound)
	})

	t.Run("rejected input", func(t *testing.T) {
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: testhelpers.NewMockUnitOfWork()})

		_, err := svc.AdjustBalance(ctx, testAccountID, decimal.Zero, "nothing")
		assert.True(t, entities.IsValidationError(err))
		_, err = svc.AdjustBalance(ctx, testAccountID, amount("1.005"), "fraction")
		assert.True(t, entities.IsValidationError(err))
		_, err = svc.AdjustBalance(ctx, testAccountID, amount("1"), "")
		assert.True(t, entities.IsValidationError(err))
	})
}

func TestAccountService_SetBanned(t *testing.T) {
	ctx := context.Background()

	t.Run("bans an account", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(true)
		uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(testAccount("20"), nil)
		uow.Accounts.On("SetBanned", ctx, testAccountID, true).Return(nil)

		account, err := svc.SetBanned(ctx, testAccountID, true, "chargeback")
		require.NoError(t, err)
		assert.True(t, account.Banned)
		assert.ErrorIs(t, account.CheckPlayable(amount("1")), entities.ErrAccountBanned)
		uow.AssertAllExpectations(t)
	})

	t.Run("unchanged ban is not written", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(false)
		uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(testAccount("20"), nil)

		account, err := svc.SetBanned(ctx, testAccountID, false, "appeal")
		require.NoError(t, err)
		assert.False(t, account.Banned)
		uow.Accounts.AssertNotCalled(t, "SetBanned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown account", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})
		uow.ExpectTransaction(false)
		uow.Accounts.On("GetForUpdate", ctx, testAccountID).Return(nil, nil)

		_, err := svc.SetBanned(ctx, testAccountID, true, "chargeback")
		assert.ErrorIs(t, err, entities.ErrAccountNotFound)
	})

	t.Run("reason is required", func(t *testing.T) {
		uow := testhelpers.NewMockUnitOfWork()
		svc := NewAccountService(&testhelpers.MockUnitOfWorkFactory{UnitOfWork: uow})

		_, err := svc.SetBanned(ctx, testAccountID, true, "")
		assert.True(t, entities.IsValidationError(err))
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
