package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CrashSession is an open crash round. The crash point stays server-side
// until the session is resolved.
type CrashSession struct {
	ID            uuid.UUID        `db:"id"`
	AccountID     int64            `db:"account_id"`
	Stake         decimal.Decimal  `db:"stake"`
	CrashPoint    decimal.Decimal  `db:"crash_point"`
	AutoCashout   *decimal.Decimal `db:"auto_cashout"`
	PolicyVersion string           `db:"policy_version"`
	CreatedAt     time.Time        `db:"created_at"`
	ExpiresAt     time.Time        `db:"expires_at"`
}

// IsExpired reports whether the session outlived its TTL at now
func (s *CrashSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Survives reports whether a cashout at claimed beats the crash point
func (s *CrashSession) Survives(claimed decimal.Decimal) bool {
	return claimed.LessThanOrEqual(s.CrashPoint)
}
