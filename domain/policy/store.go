package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoSnapshot is returned by Current before any policy has been loaded
	ErrNoSnapshot = errors.New("no policy snapshot loaded")
	// ErrVersionConflict rejects a document that reuses a version string with different contents
	ErrVersionConflict = errors.New("policy version already used for a different document")
)

// ChangeHook is called after a new snapshot becomes current
type ChangeHook func(ctx context.Context, snap *Snapshot) error

// VersionGuard is consulted before a snapshot becomes current. Returning an
// error keeps the previous snapshot active.
type VersionGuard func(ctx context.Context, snap *Snapshot) error

// Store holds the current snapshot. Readers take one pointer per request and
// keep using it even if a reload swaps in a newer version meanwhile.
type Store struct {
	current atomic.Pointer[Snapshot]

	mu     sync.Mutex // serializes writers
	hooks  []ChangeHook
	guards []VersionGuard
	// known maps every version seen by this store to its checksum
	known  map[string]string
}

// NewStore creates a store seeded with snap
func NewStore(snap *Snapshot) *Store {
	s := &Store{known: make(map[string]string)}
	if snap != nil {
		s.current.Store(snap)
		s.known[snap.Version] = snap.Checksum
	}
	return s
}

// Current returns the active snapshot
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// OnChange registers a hook run after every successful replacement
func (s *Store) OnChange(hook ChangeHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Guard registers a check run before every replacement
func (s *Store) Guard(guard VersionGuard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guards = append(s.guards, guard)
}

// Replace validates snap and makes it current. An invalid snapshot, or one
// that reuses a known version for a different document, leaves the previous
// one in place.
func (s *Store) Replace(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return ErrNoSnapshot
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("refusing invalid policy: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	if prev != nil && prev.Checksum != "" && prev.Checksum == snap.Checksum {
		return nil
	}
	if checksum, ok := s.known[snap.Version]; ok && checksum != snap.Checksum {
		return fmt.Errorf("%w: %s", ErrVersionConflict, snap.Version)
	}
	for _, guard := range s.guards {
		if err := guard(ctx, snap); err != nil {
			return fmt.Errorf("refusing policy %s: %w", snap.Version, err)
		}
	}

	s.current.Store(snap)
	s.known[snap.Version] = snap.Checksum

	fields := log.Fields{"version": snap.Version}
	if prev != nil {
		fields["previous_version"] = prev.Version
	}
	log.WithFields(fields).Info("Win-rate policy activated")

	for _, hook := range s.hooks {
		if err := hook(ctx, snap); err != nil {
			// The snapshot stays active; hooks only record it
			log.WithError(err).WithField("version", snap.Version).Error("Policy change hook failed")
		}
	}
	return nil
}

// ReloadFile parses path and replaces the current snapshot with it
func (s *Store) ReloadFile(ctx context.Context, path string) error {
	snap, err := LoadFile(path)
	if err != nil {
		return err
	}
	return s.Replace(ctx, snap)
}
