package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"powerpulse-backend/internal/model"
)

// snapshot is one immutable view of the normalized reading set. It is built
// once and swapped in whole; readers never observe a partially updated view.
type snapshot struct {
	loadedAt time.Time
	homes    []model.Home
	homeSet  map[int64]model.Home
	readings map[int64][]model.Reading
}

// SnapshotStore is a read-through cache over a Store. Dashboard computations
// read from an atomically swapped snapshot, refreshed when it is older than
// the TTL or explicitly invalidated by the ingester.
type SnapshotStore struct {
	inner  Store
	ttl    time.Duration
	logger *zap.Logger

	snap      atomic.Pointer[snapshot]
	refreshMu sync.Mutex
	now       func() time.Time
}

// NewSnapshotStore wraps s with a snapshot cache of the given TTL.
func NewSnapshotStore(s Store, ttl time.Duration, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		inner:  s,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Invalidate drops the current snapshot so the next read rebuilds it.
func (s *SnapshotStore) Invalidate() {
	s.snap.Store(nil)
}

// Homes returns the homes known to the current snapshot.
func (s *SnapshotStore) Homes(ctx context.Context) ([]model.Home, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.homes, nil
}

// HomeByID resolves one home from the current snapshot.
func (s *SnapshotStore) HomeByID(ctx context.Context, id int64) (model.Home, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return model.Home{}, err
	}
	home, ok := snap.homeSet[id]
	if !ok {
		return model.Home{}, ErrUnknownHome
	}
	return home, nil
}

// Readings returns the home's readings ordered by timestamp. The returned
// slice belongs to an immutable snapshot and must not be mutated.
func (s *SnapshotStore) Readings(ctx context.Context, homeID int64) ([]model.Reading, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.homeSet[homeID]; !ok {
		return nil, ErrUnknownHome
	}
	return snap.readings[homeID], nil
}

func (s *SnapshotStore) current(ctx context.Context) (*snapshot, error) {
	if snap := s.snap.Load(); snap != nil && s.now().Sub(snap.loadedAt) <= s.ttl {
		return snap, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if snap := s.snap.Load(); snap != nil && s.now().Sub(snap.loadedAt) <= s.ttl {
		return snap, nil
	}

	snap, err := s.build(ctx)
	if err != nil {
		// Serve the stale snapshot rather than failing the dashboard.
		if stale := s.snap.Load(); stale != nil {
			s.logger.Warn("snapshot refresh failed, serving stale view",
				zap.Time("loaded_at", stale.loadedAt), zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	s.snap.Store(snap)
	return snap, nil
}

func (s *SnapshotStore) build(ctx context.Context) (*snapshot, error) {
	homes, err := s.inner.Homes(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.inner.AllReadings(ctx)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		loadedAt: s.now(),
		homes:    homes,
		homeSet:  make(map[int64]model.Home, len(homes)),
		readings: make(map[int64][]model.Reading, len(homes)),
	}
	for _, h := range homes {
		snap.homeSet[h.ID] = h
	}
	for _, r := range all {
		snap.readings[r.HomeID] = append(snap.readings[r.HomeID], r)
	}

	s.logger.Debug("reading snapshot rebuilt",
		zap.Int("homes", len(homes)), zap.Int("readings", len(all)))
	return snap, nil
}
