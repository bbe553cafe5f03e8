package repository

import (
	"context"
	"errors"
	"fmt"

	"casino/database"
	"casino/domain/policy"

	"github.com/jackc/pgx/v5"
)

// PolicyVersionRepository keeps an audit copy of every policy document that went live
type PolicyVersionRepository struct {
	q Queryable
}

// NewPolicyVersionRepository creates a new policy version repository
func NewPolicyVersionRepository(db *database.DB) *PolicyVersionRepository {
	return &PolicyVersionRepository{q: db.Pool}
}

// Record stores the snapshot document. A version is written once: recording
// it again with the same checksum is a no-op, with another checksum it fails
// with policy.ErrVersionConflict.
func (r *PolicyVersionRepository) Record(ctx context.Context, snap *policy.Snapshot) error {
	query := `
		INSERT INTO policy_versions (version, checksum, document)
		VALUES ($1, $2, $3)
		ON CONFLICT (version) DO NOTHING
	`
	tag, err := r.q.Exec(ctx, query, snap.Version, snap.Checksum, string(snap.Source))
	if err != nil {
		return fmt.Errorf("failed to record policy version %s: %w", snap.Version, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	stored, err := r.Checksum(ctx, snap.Version)
	if err != nil {
		return err
	}
	if stored != snap.Checksum {
		return fmt.Errorf("%w: %s is recorded with checksum %s", policy.ErrVersionConflict, snap.Version, stored)
	}
	return nil
}

// Checksum returns the stored checksum for a version, or "" if it was never recorded
func (r *PolicyVersionRepository) Checksum(ctx context.Context, version string) (string, error) {
	var checksum string
	err := r.q.QueryRow(ctx, `SELECT checksum FROM policy_versions WHERE version = $1`, version).Scan(&checksum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get policy version %s: %w", version, err)
	}
	return checksum, nil
}
