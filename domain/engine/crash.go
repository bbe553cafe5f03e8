package engine

import (
	"time"

	"casino/domain/entities"

	"github.com/shopspring/decimal"
)

// ResolveCrash decides a cashout against the hidden crash point. Cashouts
// arriving at or after the session expiry always lose.
func ResolveCrash(session *entities.CrashSession, claimed decimal.Decimal, now time.Time) *entities.CrashOutcome {
	out := &entities.CrashOutcome{
		SessionID:  session.ID,
		Stake:      session.Stake,
		CrashPoint: session.CrashPoint,
		Claimed:    claimed,
		Multiplier: decimal.Zero,
		Payout:     decimal.Zero,
	}

	if session.IsExpired(now) {
		out.Expired = true
		return out
	}
	if !session.Survives(claimed) {
		return out
	}

	out.Win = true
	out.Multiplier = entities.NormalizeMultiplier(claimed)
	out.Payout = entities.PayoutFor(session.Stake, out.Multiplier)
	return out
}

// ExpireCrash resolves a session nobody cashed out as a loss
func ExpireCrash(session *entities.CrashSession) *entities.CrashOutcome {
	return &entities.CrashOutcome{
		SessionID:  session.ID,
		Stake:      session.Stake,
		CrashPoint: session.CrashPoint,
		Claimed:    decimal.Zero,
		Expired:    true,
		Multiplier: decimal.Zero,
		Payout:     decimal.Zero,
	}
}
