package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casino/database"
	"casino/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const crashSessionColumns = `id, account_id, stake, crash_point, auto_cashout, policy_version, created_at, expires_at`

// CrashSessionRepository implements the CrashSessionRepository interface.
// Closing a session deletes its row, so a session can be resolved once.
type CrashSessionRepository struct {
	q Queryable
}

// NewCrashSessionRepository creates a new crash session repository
func NewCrashSessionRepository(db *database.DB) *CrashSessionRepository {
	return &CrashSessionRepository{q: db.Pool}
}

func newCrashSessionRepository(tx Queryable) *CrashSessionRepository {
	return &CrashSessionRepository{q: tx}
}

// Create stores a new open session
func (r *CrashSessionRepository) Create(ctx context.Context, session *entities.CrashSession) error {
	query := `
		INSERT INTO crash_sessions (id, account_id, stake, crash_point, auto_cashout, policy_version, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		session.ID,
		session.AccountID,
		session.Stake,
		session.CrashPoint,
		session.AutoCashout,
		session.PolicyVersion,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create crash session %s: %w", session.ID, err)
	}
	return nil
}

// Close deletes and returns the session, or nil if it is not open
func (r *CrashSessionRepository) Close(ctx context.Context, id uuid.UUID) (*entities.CrashSession, error) {
	query := `DELETE FROM crash_sessions WHERE id = $1 RETURNING ` + crashSessionColumns

	session, err := scanCrashSession(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close crash session %s: %w", id, err)
	}
	return session, nil
}

// CloseExpired deletes and returns up to limit sessions whose TTL ran out by
// now. Rows held by an in-flight cashout are skipped.
func (r *CrashSessionRepository) CloseExpired(ctx context.Context, now time.Time, limit int) ([]*entities.CrashSession, error) {
	query := `
		DELETE FROM crash_sessions
		WHERE id IN (
			SELECT id FROM crash_sessions
			WHERE expires_at <= $1
			ORDER BY expires_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + crashSessionColumns

	rows, err := r.q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to close expired crash sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entities.CrashSession
	for rows.Next() {
		session, err := scanCrashSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crash session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crash sessions: %w", err)
	}
	return sessions, nil
}

// CountOpen returns the number of open sessions
func (r *CrashSessionRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM crash_sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count crash sessions: %w", err)
	}
	return count, nil
}

func scanCrashSession(row pgx.Row) (*entities.CrashSession, error) {
	var s entities.CrashSession
	err := row.Scan(
		&s.ID,
		&s.AccountID,
		&s.Stake,
		&s.CrashPoint,
		&s.AutoCashout,
		&s.PolicyVersion,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
