package application

import (
	"context"
	"fmt"

	"casino/domain/events"
	"casino/domain/interfaces"
	"casino/domain/policy"

	log "github.com/sirupsen/logrus"
)

// NewPolicyAuditHook returns a change hook that stores every snapshot that
// goes live and announces it on the event bus
func NewPolicyAuditHook(repo interfaces.PolicyVersionRepository, publisher interfaces.EventPublisher) policy.ChangeHook {
	return func(ctx context.Context, snap *policy.Snapshot) error {
		if err := repo.Record(ctx, snap); err != nil {
			return fmt.Errorf("failed to record policy version: %w", err)
		}

		if err := publisher.Publish(events.PolicyChangedEvent{
			Version:  snap.Version,
			Checksum: snap.Checksum,
		}); err != nil {
			log.WithError(err).Warn("Failed to publish policy changed event")
		}

		log.WithFields(log.Fields{
			"version":  snap.Version,
			"checksum": snap.Checksum,
		}).Info("Policy version recorded")
		return nil
	}
}

// NewPolicyVersionGuard refuses a snapshot whose version was already recorded
// for a different document, so ledger rows stamped with a version always
// point at the tuning that was in effect
func NewPolicyVersionGuard(repo interfaces.PolicyVersionRepository) policy.VersionGuard {
	return func(ctx context.Context, snap *policy.Snapshot) error {
		stored, err := repo.Checksum(ctx, snap.Version)
		if err != nil {
			return fmt.Errorf("failed to look up policy version: %w", err)
		}
		if stored != "" && stored != snap.Checksum {
			return fmt.Errorf("%w: %s", policy.ErrVersionConflict, snap.Version)
		}
		return nil
	}
}
