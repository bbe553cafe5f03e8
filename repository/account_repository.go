package repository

import (
	"context"
	"errors"
	"fmt"

	"casino/database"
	"casino/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, balance, play_count, tier, banned, created_at, updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

func newAccountRepository(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account, returning nil if it does not exist
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves an account and locks its row for the rest of the transaction
func (r *AccountRepository) GetForUpdate(ctx context.Context, id int64) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *AccountRepository) getOne(ctx context.Context, query string, id int64) (*entities.Account, error) {
	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// Create creates an account with an initial balance
func (r *AccountRepository) Create(ctx context.Context, id int64, initialBalance decimal.Decimal) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (id, balance)
		VALUES ($1, $2)
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, id, initialBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", id, err)
	}
	return account, nil
}

// ApplySettlement writes the post-settlement balance. play_count only moves
// when a bet is resolved, not when a crash stake is reserved.
func (r *AccountRepository) ApplySettlement(ctx context.Context, id int64, newBalance decimal.Decimal, countPlay bool) error {
	query := `
		UPDATE accounts
		SET balance = $2,
		    play_count = play_count + CASE WHEN $3 THEN 1 ELSE 0 END,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id, newBalance, countPlay)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return entities.ErrAccountNotFound
	}
	return nil
}

// SetBanned flags or clears a ban
func (r *AccountRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	result, err := r.q.Exec(ctx, `UPDATE accounts SET banned = $2, updated_at = NOW() WHERE id = $1`, id, banned)
	if err != nil {
		return fmt.Errorf("failed to set banned for account %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return entities.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var a entities.Account
	err := row.Scan(
		&a.ID,
		&a.Balance,
		&a.PlayCount,
		&a.Tier,
		&a.Banned,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
