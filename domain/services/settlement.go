package services

import (
	"context"
	"fmt"

	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// settlement describes one resolved bet to be written inside a unit of work
type settlement struct {
	kind          entities.GameKind
	stake         decimal.Decimal
	multiplier    decimal.Decimal
	payout        decimal.Decimal
	isWin         bool
	policyVersion string
	sessionID     *uuid.UUID
	reference     *string
	detail        map[string]any
	// reserved is set when the stake was already debited (crash sessions)
	reserved bool
}

// lockAccount loads and row-locks the account, then checks it may stake amount
func lockAccount(ctx context.Context, uow interfaces.UnitOfWork, accountID int64, amount decimal.Decimal) (*entities.Account, error) {
	account, err := uow.AccountRepository().GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}
	if err := account.CheckPlayable(amount); err != nil {
		return nil, err
	}
	return account, nil
}

// settle applies one settlement to a locked account: a single balance update,
// a balance history row when the balance moves, and exactly one ledger row.
// account.Balance is updated in place.
func settle(ctx context.Context, uow interfaces.UnitOfWork, account *entities.Account, s settlement) (*entities.LedgerEntry, error) {
	debit := s.stake
	if s.reserved {
		debit = decimal.Zero
	}

	before := account.Balance
	after, err := account.BalanceAfter(debit, s.payout)
	if err != nil {
		return nil, err
	}

	if err := uow.AccountRepository().ApplySettlement(ctx, account.ID, after, true); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	entry := &entities.LedgerEntry{
		AccountID:     account.ID,
		GameKind:      s.kind,
		Stake:         s.stake,
		Multiplier:    s.multiplier,
		Payout:        s.payout,
		IsWin:         s.isWin,
		BalanceAfter:  after,
		PolicyVersion: s.policyVersion,
		SessionID:     s.sessionID,
		Reference:     s.reference,
		Detail:        s.detail,
	}
	if err := uow.LedgerRepository().Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if change := after.Sub(before); !change.IsZero() {
		history := &entities.BalanceHistory{
			AccountID:       account.ID,
			BalanceBefore:   before,
			BalanceAfter:    after,
			ChangeAmount:    change,
			TransactionType: settlementTransactionType(s, change),
			TransactionMetadata: map[string]any{
				"game":       s.kind,
				"stake":      s.stake.StringFixed(entities.MoneyPlaces),
				"payout":     s.payout.StringFixed(entities.MoneyPlaces),
				"multiplier": s.multiplier.String(),
			},
			RelatedID: ledgerRef(entry.ID),
		}
		if err := RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
			return nil, err
		}
	}

	if err := uow.EventBus().Publish(events.BetSettledEvent{
		LedgerID:      entry.ID,
		AccountID:     account.ID,
		GameKind:      s.kind,
		Stake:         s.stake,
		Multiplier:    s.multiplier,
		Payout:        s.payout,
		IsWin:         s.isWin,
		PolicyVersion: s.policyVersion,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bet settled event")
	}

	account.Balance = after
	account.PlayCount++

	log.WithFields(log.Fields{
		"accountID":     account.ID,
		"game":          s.kind,
		"ledgerID":      entry.ID,
		"stake":         s.stake,
		"payout":        s.payout,
		"balanceAfter":  after,
		"policyVersion": s.policyVersion,
	}).Debug("Bet settled")

	return entry, nil
}

// reserve debits a crash stake and opens the session in the same transaction
func reserve(ctx context.Context, uow interfaces.UnitOfWork, account *entities.Account, session *entities.CrashSession) error {
	before := account.Balance
	after, err := account.BalanceAfter(session.Stake, decimal.Zero)
	if err != nil {
		return err
	}

	if err := uow.AccountRepository().ApplySettlement(ctx, account.ID, after, false); err != nil {
		return fmt.Errorf("failed to reserve stake: %w", err)
	}
	if err := uow.CrashSessionRepository().Create(ctx, session); err != nil {
		return fmt.Errorf("failed to open crash session: %w", err)
	}

	sessionRef := session.ID.String()
	history := &entities.BalanceHistory{
		AccountID:       account.ID,
		BalanceBefore:   before,
		BalanceAfter:    after,
		ChangeAmount:    after.Sub(before),
		TransactionType: entities.TransactionTypeCrashStake,
		TransactionMetadata: map[string]any{
			"session_id": sessionRef,
			"stake":      session.Stake.StringFixed(entities.MoneyPlaces),
		},
		RelatedID: &sessionRef,
	}
	if err := RecordBalanceChange(ctx, uow.BalanceHistoryRepository(), uow.EventBus(), history); err != nil {
		return err
	}

	if err := uow.EventBus().Publish(events.CrashOpenedEvent{
		SessionID: session.ID,
		AccountID: account.ID,
		Stake:     session.Stake,
		ExpiresAt: session.ExpiresAt,
	}); err != nil {
		log.WithError(err).Error("Failed to publish crash opened event")
	}

	account.Balance = after
	return nil
}

// settleOutcome writes the ledger row for an evaluated outcome
func settleOutcome(ctx context.Context, uow interfaces.UnitOfWork, account *entities.Account, outcome entities.Outcome, policyVersion string) (*entities.LedgerEntry, error) {
	detail, err := entities.OutcomeDetail(outcome)
	if err != nil {
		return nil, err
	}

	s := settlement{
		kind:          outcome.Kind(),
		stake:         outcome.TotalStake(),
		multiplier:    outcome.TotalMultiplier(),
		payout:        outcome.TotalPayout(),
		isWin:         outcome.Won(),
		policyVersion: policyVersion,
		detail:        detail,
	}
	if crash, ok := outcome.(*entities.CrashOutcome); ok {
		id := crash.SessionID
		s.sessionID = &id
		s.reserved = true
	}
	return settle(ctx, uow, account, s)
}

func settlementTransactionType(s settlement, change decimal.Decimal) entities.TransactionType {
	if s.reserved {
		return entities.TransactionTypeCrashPayout
	}
	if change.IsPositive() {
		return entities.TransactionTypeBetWin
	}
	return entities.TransactionTypeBetLoss
}

func ledgerRef(id int64) *string {
	ref := fmt.Sprintf("ledger:%d", id)
	return &ref
}
