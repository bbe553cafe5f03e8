package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casino/domain/engine"
	"casino/domain/entities"
	"casino/domain/interfaces"
	"casino/domain/policy"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type gameService struct {
	uowFactory interfaces.UnitOfWorkFactory
	policies   *policy.Store
	engine     *engine.Engine
	limits     entities.StakeLimits
	crashTTL   time.Duration
	metrics    interfaces.GameMetrics
	now        func() time.Time
}

// GameServiceOption customizes a game service
type GameServiceOption func(*gameService)

// WithMetrics sets the metrics sink
func WithMetrics(m interfaces.GameMetrics) GameServiceOption {
	return func(s *gameService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock replaces time.Now, used by tests to drive crash expiry
func WithClock(now func() time.Time) GameServiceOption {
	return func(s *gameService) {
		s.now = now
	}
}

// NewGameService creates a new game service
func NewGameService(uowFactory interfaces.UnitOfWorkFactory, policies *policy.Store, eng *engine.Engine, limits entities.StakeLimits, crashTTL time.Duration, opts ...GameServiceOption) interfaces.GameService {
	s := &gameService{
		uowFactory: uowFactory,
		policies:   policies,
		engine:     eng,
		limits:     limits,
		crashTTL:   crashTTL,
		metrics:    noopMetrics{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gameService) PlaceSlots(ctx context.Context, bet entities.SlotsBet) (*interfaces.SlotsResult, error) {
	s.trace(entities.GameKindSlots, bet.PlayerID, entities.BetStateReceived)
	if err := bet.Validate(s.limits); err != nil {
		return nil, s.reject(entities.GameKindSlots, bet.PlayerID, err)
	}
	s.trace(entities.GameKindSlots, bet.PlayerID, entities.BetStateValidated)
	snap, err := s.snapshot()
	if err != nil {
		return nil, s.reject(entities.GameKindSlots, bet.PlayerID, err)
	}
	start := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	account, err := lockAccount(ctx, uow, bet.PlayerID, bet.Stake)
	if err != nil {
		return nil, s.reject(entities.GameKindSlots, bet.PlayerID, err)
	}

	outcome, err := s.engine.PlaySlots(snap, account.PlayCount, bet.Stake)
	if err != nil {
		return nil, s.reject(entities.GameKindSlots, bet.PlayerID, err)
	}

	entry, err := settleOutcome(ctx, uow, account, outcome, snap.Version)
	if err != nil {
		return nil, s.reject(entities.GameKindSlots, bet.PlayerID, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.recordSettled(outcome, start, entry)
	return &interfaces.SlotsResult{Outcome: outcome, LedgerID: entry.ID, Balance: entry.BalanceAfter}, nil
}

func (s *gameService) PlaceDice(ctx context.Context, bet entities.DiceBet) (*interfaces.DiceResult, error) {
	s.trace(entities.GameKindDice, bet.PlayerID, entities.BetStateReceived)
	if err := bet.Validate(s.limits); err != nil {
		return nil, s.reject(entities.GameKindDice, bet.PlayerID, err)
	}
	s.trace(entities.GameKindDice, bet.PlayerID, entities.BetStateValidated)
	snap, err := s.snapshot()
	if err != nil {
		return nil, s.reject(entities.GameKindDice, bet.PlayerID, err)
	}
	start := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	account, err := lockAccount(ctx, uow, bet.PlayerID, bet.Stake)
	if err != nil {
		return nil, s.reject(entities.GameKindDice, bet.PlayerID, err)
	}

	outcome := s.engine.PlayDice(snap, account.PlayCount, bet.Stake, bet.Target)

	entry, err := settleOutcome(ctx, uow, account, outcome, snap.Version)
	if err != nil {
		return nil, s.reject(entities.GameKindDice, bet.PlayerID, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.recordSettled(outcome, start, entry)
	return &interfaces.DiceResult{Outcome: outcome, LedgerID: entry.ID, Balance: entry.BalanceAfter}, nil
}

// StartCrash debits the stake and opens a session. The crash point is drawn
// here but only leaves the server once the session is resolved.
func (s *gameService) StartCrash(ctx context.Context, bet entities.CrashStartBet) (*interfaces.CrashStartResult, error) {
	s.trace(entities.GameKindCrash, bet.PlayerID, entities.BetStateReceived)
	if err := bet.Validate(s.limits); err != nil {
		return nil, s.reject(entities.GameKindCrash, bet.PlayerID, err)
	}
	s.trace(entities.GameKindCrash, bet.PlayerID, entities.BetStateValidated)
	snap, err := s.snapshot()
	if err != nil {
		return nil, s.reject(entities.GameKindCrash, bet.PlayerID, err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	account, err := lockAccount(ctx, uow, bet.PlayerID, bet.Stake)
	if err != nil {
		return nil, s.reject(entities.GameKindCrash, bet.PlayerID, err)
	}

	now := s.now().UTC()
	session := &entities.CrashSession{
		ID:            uuid.New(),
		AccountID:     account.ID,
		Stake:         bet.Stake,
		CrashPoint:    s.engine.DrawCrashPoint(snap, account.PlayCount),
		AutoCashout:   bet.AutoCashout,
		PolicyVersion: snap.Version,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.crashTTL),
	}

	if err := reserve(ctx, uow, account, session); err != nil {
		return nil, s.reject(entities.GameKindCrash, bet.PlayerID, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.UpdateOpenCrashSessions(1)
	log.WithFields(log.Fields{
		"accountID": account.ID,
		"sessionID": session.ID,
		"stake":     session.Stake,
		"expiresAt": session.ExpiresAt,
	}).Debug("Crash session opened")

	return &interfaces.CrashStartResult{
		SessionID: session.ID,
		Stake:     session.Stake,
		Balance:   account.Balance,
	}, nil
}

// CashoutCrash closes a session exactly once and settles the claim
func (s *gameService) CashoutCrash(ctx context.Context, req entities.CrashCashout) (*interfaces.CrashCashoutResult, error) {
	s.trace(entities.GameKindCrash, req.PlayerID, entities.BetStateReceived)
	if err := req.Validate(); err != nil {
		return nil, s.reject(entities.GameKindCrash, req.PlayerID, err)
	}
	s.trace(entities.GameKindCrash, req.PlayerID, entities.BetStateValidated)
	start := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	session, err := uow.CrashSessionRepository().Close(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to close crash session: %w", err)
	}
	if session == nil {
		return nil, s.reject(entities.GameKindCrash, req.PlayerID, s.missingSessionError(ctx, uow, req))
	}
	if session.AccountID != req.PlayerID {
		// Rolling back restores the session for its owner
		return nil, s.reject(entities.GameKindCrash, req.PlayerID, entities.ErrSessionNotFound)
	}

	account, err := uow.AccountRepository().GetForUpdate(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return nil, entities.ErrAccountNotFound
	}

	outcome := engine.ResolveCrash(session, req.Multiplier, s.now())

	entry, err := settleOutcome(ctx, uow, account, outcome, session.PolicyVersion)
	if err != nil {
		return nil, s.reject(entities.GameKindCrash, req.PlayerID, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.UpdateOpenCrashSessions(-1)
	s.recordSettled(outcome, start, entry)
	return &interfaces.CrashCashoutResult{Outcome: outcome, LedgerID: entry.ID, Balance: entry.BalanceAfter}, nil
}

// missingSessionError tells a session that was already resolved apart from one that never existed
func (s *gameService) missingSessionError(ctx context.Context, uow interfaces.UnitOfWork, req entities.CrashCashout) error {
	entry, err := uow.LedgerRepository().GetBySessionID(ctx, req.SessionID)
	if err != nil {
		return fmt.Errorf("failed to look up crash session: %w", err)
	}
	if entry != nil && entry.AccountID == req.PlayerID {
		return entities.ErrSessionAlreadyClosed
	}
	return entities.ErrSessionNotFound
}

func (s *gameService) PlaceRoulette(ctx context.Context, bet entities.RouletteBet) (*interfaces.RouletteResult, error) {
	s.trace(entities.GameKindRoulette, bet.PlayerID, entities.BetStateReceived)
	if err := bet.Validate(s.limits); err != nil {
		return nil, s.reject(entities.GameKindRoulette, bet.PlayerID, err)
	}
	if err := engine.ValidateRouletteBet(bet); err != nil {
		return nil, s.reject(entities.GameKindRoulette, bet.PlayerID, err)
	}
	s.trace(entities.GameKindRoulette, bet.PlayerID, entities.BetStateValidated)
	snap, err := s.snapshot()
	if err != nil {
		return nil, s.reject(entities.GameKindRoulette, bet.PlayerID, err)
	}
	start := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	// The whole batch must be covered before the wheel spins
	account, err := lockAccount(ctx, uow, bet.PlayerID, bet.TotalStake())
	if err != nil {
		return nil, s.reject(entities.GameKindRoulette, bet.PlayerID, err)
	}

	outcome := s.engine.PlayRoulette(snap, account.PlayCount, bet)

	entry, err := settleOutcome(ctx, uow, account, outcome, snap.Version)
	if err != nil {
		return nil, s.reject(entities.GameKindRoulette, bet.PlayerID, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.recordSettled(outcome, start, entry)
	return &interfaces.RouletteResult{Outcome: outcome, LedgerID: entry.ID, Balance: entry.BalanceAfter}, nil
}

// History returns the account's own ledger rows, newest first
func (s *gameService) History(ctx context.Context, accountID int64, filter entities.LedgerFilter) ([]*entities.LedgerEntry, error) {
	if filter.GameKind != nil && !filter.GameKind.Valid() {
		return nil, entities.NewValidationError("game", "unknown game %q", *filter.GameKind)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	entries, err := uow.LedgerRepository().List(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// PolicyVersion returns the active policy version
func (s *gameService) PolicyVersion() (string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return "", err
	}
	return snap.Version, nil
}

func (s *gameService) snapshot() (*policy.Snapshot, error) {
	snap, err := s.policies.Current()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrInternalGenerator, err)
	}
	return snap, nil
}

// reject logs and counts a bet that ended in the Rejected state
func (s *gameService) reject(kind entities.GameKind, accountID int64, err error) error {
	reason := rejectionReason(err)
	s.metrics.RecordRejection(kind, reason)

	fields := log.Fields{
		"game":      kind,
		"accountID": accountID,
		"state":     entities.BetStateRejected,
		"reason":    reason,
	}
	if reason == "internal" {
		log.WithFields(fields).WithError(err).Error("Bet failed")
	} else {
		log.WithFields(fields).WithError(err).Debug("Bet rejected")
	}
	return err
}

func (s *gameService) recordSettled(outcome entities.Outcome, start time.Time, entry *entities.LedgerEntry) {
	s.metrics.RecordBet(outcome.Kind(), outcome.TotalStake(), outcome.TotalPayout(), outcome.Won())
	s.metrics.RecordSettlementDuration(outcome.Kind(), time.Since(start))
	engine.TraceState(outcome.Kind(), entities.BetStateSettled, log.Fields{
		"accountID": entry.AccountID,
		"ledgerID":  entry.ID,
	})
}

func (s *gameService) trace(kind entities.GameKind, accountID int64, state entities.BetState) {
	engine.TraceState(kind, state, log.Fields{"accountID": accountID})
}

func rejectionReason(err error) string {
	switch {
	case entities.IsValidationError(err):
		return "validation"
	case errors.Is(err, entities.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, entities.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, entities.ErrAccountBanned):
		return "account_banned"
	case errors.Is(err, entities.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, entities.ErrSessionAlreadyClosed):
		return "session_closed"
	}
	return "internal"
}
