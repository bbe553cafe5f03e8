package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"casino/database"
	"casino/domain/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	ledgerTable = "game_ledger"
	// ledgerReferenceIndex is the unique index on collaborator references
	ledgerReferenceIndex = "uniq_game_ledger_reference"

	uniqueViolation = "23505"
)

var ledgerColumns = []string{
	"id", "account_id", "game_kind", "stake", "multiplier", "payout", "is_win",
	"balance_after", "policy_version", "session_id", "reference", "detail", "created_at",
}

// psql builds postgres ($n) placeholders
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q Queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

func newLedgerRepository(tx Queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Append inserts an entry and fills in its ID and CreatedAt. A reference that
// was already settled fails with entities.ErrDuplicateSettlement.
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	detail := entry.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger detail: %w", err)
	}

	query, args, err := psql.Insert(ledgerTable).
		Columns("account_id", "game_kind", "stake", "multiplier", "payout", "is_win",
			"balance_after", "policy_version", "session_id", "reference", "detail").
		Values(entry.AccountID, entry.GameKind, entry.Stake, entry.Multiplier, entry.Payout, entry.IsWin,
			entry.BalanceAfter, entry.PolicyVersion, entry.SessionID, entry.Reference, detailJSON).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ledger insert: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == ledgerReferenceIndex {
			return fmt.Errorf("%w: %s", entities.ErrDuplicateSettlement, *entry.Reference)
		}
		return fmt.Errorf("failed to append ledger entry for account %d: %w", entry.AccountID, err)
	}
	return nil
}

// GetBySessionID returns the ledger row that resolved a crash session, or nil
func (r *LedgerRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*entities.LedgerEntry, error) {
	query, args, err := psql.Select(ledgerColumns...).
		From(ledgerTable).
		Where(sq.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger query: %w", err)
	}

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry for session %s: %w", sessionID, err)
	}
	return entry, nil
}

// List returns an account's ledger entries, newest first
func (r *LedgerRepository) List(ctx context.Context, accountID int64, filter entities.LedgerFilter) ([]*entities.LedgerEntry, error) {
	builder := psql.Select(ledgerColumns...).
		From(ledgerTable).
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.EffectiveLimit()))

	if filter.GameKind != nil {
		builder = builder.Where(sq.Eq{"game_kind": *filter.GameKind})
	}
	if filter.Before != nil {
		builder = builder.Where(sq.Lt{"created_at": *filter.Before})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger for account %d: %w", accountID, err)
	}
	defer rows.Close()

	entries := make([]*entities.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(row pgx.Row) (*entities.LedgerEntry, error) {
	var e entities.LedgerEntry
	var detailJSON []byte
	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.GameKind,
		&e.Stake,
		&e.Multiplier,
		&e.Payout,
		&e.IsWin,
		&e.BalanceAfter,
		&e.PolicyVersion,
		&e.SessionID,
		&e.Reference,
		&detailJSON,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(detailJSON) > 0 {
		if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger detail: %w", err)
		}
	}
	return &e, nil
}
