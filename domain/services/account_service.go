package services

import (
	"context"
	"fmt"

	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type accountService struct {
	uowFactory interfaces.UnitOfWorkFactory
}

// NewAccountService creates the administrative account service
func NewAccountService(uowFactory interfaces.UnitOfWorkFactory) interfaces.AccountService {
	return &accountService{uowFactory: uowFactory}
}

// GetOrCreate returns the account, creating it with initialBalance if missing
func (s *accountService) GetOrCreate(ctx context.Context, accountID int64, initialBalance decimal.Decimal) (*entities.Account, error) {
	if initialBalance.IsNegative() || !entities.HasMoneyPrecision(initialBalance) {
		return nil, entities.NewValidationError("initial_balance", "must be a non-negative amount in cents")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	account, err = uow.AccountRepository().Create(ctx, accountID, initialBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if initialBalance.IsPositive() {
		history := &entities.BalanceHistory{
			AccountID:       accountID,
			BalanceBefore:   decimal.Zero,
			BalanceAfter:    initialBalance,
			ChangeAmount:    initialBalance,
			TransactionType: entities.TransactionTypeInitial,
			TransactionMetadata: map[string]any{
				"initial_balance": initialBalance.StringFixed(entities.MoneyPlaces),
			},
		}
		if err := RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID":      accountID,
		"initialBalance": initialBalance,
	}).Info("Account created")
	return account, nil
}

// AdjustBalance credits (or debits, for negative amounts) an account outside any game
func (s *accountService) AdjustBalance(ctx context.Context, accountID int64, amount decimal.Decimal, reason string) (*entities.Account, error) {
	if amount.IsZero() || !entities.HasMoneyPrecision(amount) {
		return nil, entities.NewValidationError("amount", "must be a non-zero amount in cents")
	}
	if reason == "" {
		return nil, entities.NewValidationError("reason", "is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	account, err := uow.AccountRepository().GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	before := account.Balance
	after := before.Add(amount)
	if after.IsNegative() {
		return nil, entities.ErrInsufficientBalance
	}

	if err := uow.AccountRepository().ApplySettlement(ctx, accountID, after, false); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	history := &entities.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    amount,
		TransactionType: entities.TransactionTypeAdminAdjustment,
		TransactionMetadata: map[string]any{
			"reason": reason,
		},
	}
	if err := RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Balance = after
	log.WithFields(log.Fields{
		"accountID": accountID,
		"amount":    amount,
		"reason":    reason,
	}).Info("Balance adjusted")
	return account, nil
}

// SetBanned flags or clears a ban. A banned account keeps its balance but
// every new bet is refused.
func (s *accountService) SetBanned(ctx context.Context, accountID int64, banned bool, reason string) (*entities.Account, error) {
	if reason == "" {
		return nil, entities.NewValidationError("reason", "is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	account, err := uow.AccountRepository().GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}
	if account.Banned == banned {
		return account, nil
	}

	if err := uow.AccountRepository().SetBanned(ctx, accountID, banned); err != nil {
		return nil, fmt.Errorf("failed to update ban: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	account.Banned = banned
	log.WithFields(log.Fields{
		"accountID": accountID,
		"banned":    banned,
		"reason":    reason,
	}).Warn("Account ban changed")
	return account, nil
}
