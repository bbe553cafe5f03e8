package services

import (
	"context"
	"fmt"

	"casino/domain/entities"
	"casino/domain/interfaces"
	"casino/domain/policy"

	"github.com/shopspring/decimal"
)

const (
	// ExternalPolicyVersion is stamped on rows settled without a snapshot in hand
	ExternalPolicyVersion = "external"

	maxReferenceLength = 128
)

// DefaultMaxSettlementMultiplier caps payout/stake for collaborator settlements
var DefaultMaxSettlementMultiplier = decimal.NewFromInt(100)

type settlementService struct {
	uowFactory    interfaces.UnitOfWorkFactory
	policies      *policy.Store
	limits        entities.StakeLimits
	maxMultiplier decimal.Decimal
}

// NewSettlementService exposes the ledger to games resolved elsewhere. Stakes
// are held to limits and payouts to stake × maxMultiplier.
func NewSettlementService(uowFactory interfaces.UnitOfWorkFactory, policies *policy.Store, limits entities.StakeLimits, maxMultiplier decimal.Decimal) interfaces.SettlementService {
	if !maxMultiplier.IsPositive() {
		maxMultiplier = DefaultMaxSettlementMultiplier
	}
	return &settlementService{
		uowFactory:    uowFactory,
		policies:      policies,
		limits:        limits,
		maxMultiplier: maxMultiplier,
	}
}

// Settle applies stake and payout for a bet decided by a collaborator. Each
// reference settles at most once.
func (s *settlementService) Settle(ctx context.Context, req interfaces.SettlementRequest) (*interfaces.SettlementResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	version := ExternalPolicyVersion
	if s.policies != nil {
		if snap, err := s.policies.Current(); err == nil {
			version = snap.Version
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	account, err := lockAccount(ctx, uow, req.AccountID, req.Stake)
	if err != nil {
		return nil, err
	}

	detail := map[string]any{}
	for k, v := range req.Detail {
		detail[k] = v
	}

	reference := req.Reference
	multiplier := entities.NormalizeMultiplier(req.Payout.DivRound(req.Stake, entities.MultiplierPlaces+2))
	entry, err := settle(ctx, uow, account, settlement{
		kind:          req.GameKind,
		stake:         req.Stake,
		multiplier:    multiplier,
		payout:        req.Payout,
		isWin:         req.Payout.GreaterThan(req.Stake),
		policyVersion: version,
		reference:     &reference,
		detail:        detail,
	})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &interfaces.SettlementResult{LedgerID: entry.ID, BalanceAfter: entry.BalanceAfter}, nil
}

func (s *settlementService) validate(req interfaces.SettlementRequest) error {
	if req.AccountID <= 0 {
		return entities.NewValidationError("account_id", "must be positive")
	}
	if !req.GameKind.Valid() {
		return entities.NewValidationError("game", "unknown game %q", req.GameKind)
	}
	if req.Reference == "" || len(req.Reference) > maxReferenceLength {
		return entities.NewValidationError("reference", "must be 1 to %d characters", maxReferenceLength)
	}
	if err := s.limits.Validate("stake", req.Stake); err != nil {
		return err
	}
	if req.Payout.IsNegative() || !entities.HasMoneyPrecision(req.Payout) {
		return entities.NewValidationError("payout", "must be a non-negative amount in cents")
	}
	if maxPayout := req.Stake.Mul(s.maxMultiplier); req.Payout.GreaterThan(maxPayout) {
		return entities.NewValidationError("payout", "must be at most %s", maxPayout.StringFixed(entities.MoneyPlaces))
	}
	return nil
}
