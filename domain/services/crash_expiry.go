package services

import (
	"context"
	"fmt"
	"time"

	"casino/domain/engine"
	"casino/domain/entities"
	"casino/domain/events"
	"casino/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type crashReaper struct {
	uowFactory interfaces.UnitOfWorkFactory
	metrics    interfaces.GameMetrics
	now        func() time.Time
}

// NewCrashReaper creates the service that resolves abandoned crash sessions
func NewCrashReaper(uowFactory interfaces.UnitOfWorkFactory, metrics interfaces.GameMetrics, now func() time.Time) interfaces.CrashReaper {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	return &crashReaper{uowFactory: uowFactory, metrics: metrics, now: now}
}

// ExpireCrashSessions resolves up to batchSize expired sessions as losses.
// Each session is closed in its own transaction so one failure does not
// hold back the rest.
func (r *crashReaper) ExpireCrashSessions(ctx context.Context, batchSize int) (int, error) {
	expired := 0
	for expired < batchSize {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		done, err := r.expireOne(ctx)
		if err != nil {
			return expired, err
		}
		if !done {
			break
		}
		expired++
	}

	if expired > 0 {
		log.WithField("count", expired).Info("Expired abandoned crash sessions")
	}
	return expired, nil
}

func (r *crashReaper) expireOne(ctx context.Context) (bool, error) {
	uow := r.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = uow.Rollback() }()

	sessions, err := uow.CrashSessionRepository().CloseExpired(ctx, r.now().UTC(), 1)
	if err != nil {
		return false, fmt.Errorf("failed to close expired sessions: %w", err)
	}
	if len(sessions) == 0 {
		return false, nil
	}
	session := sessions[0]

	account, err := uow.AccountRepository().GetForUpdate(ctx, session.AccountID)
	if err != nil {
		return false, fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return false, fmt.Errorf("crash session %s references missing account %d", session.ID, session.AccountID)
	}

	outcome := engine.ExpireCrash(session)
	entry, err := settleOutcome(ctx, uow, account, outcome, session.PolicyVersion)
	if err != nil {
		return false, fmt.Errorf("failed to settle expired session %s: %w", session.ID, err)
	}

	if err := uow.EventBus().Publish(events.CrashExpiredEvent{
		SessionID: session.ID,
		AccountID: session.AccountID,
		LedgerID:  entry.ID,
	}); err != nil {
		log.WithError(err).Error("Failed to publish crash expired event")
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.UpdateOpenCrashSessions(-1)
	r.metrics.RecordBet(entities.GameKindCrash, outcome.Stake, outcome.Payout, false)

	log.WithFields(log.Fields{
		"sessionID": session.ID,
		"accountID": session.AccountID,
		"ledgerID":  entry.ID,
	}).Debug("Crash session expired")
	return true, nil
}
