package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/cache/redis"
	"github.com/legal-assistant/docclient/internal/metrics"
	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/pkg/logger"
)

// SnapshotStore persists session input across restarts. *redis.Client
// implements it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap session.Snapshot) error
	LoadSnapshot(ctx context.Context, id string) (*redis.Snapshot, bool, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// Factory builds a session with the given id.
type Factory func(id string) *session.Session

// Registry holds live sessions in memory with a sliding TTL. When a store is
// configured, a session evicted from memory can be brought back from its
// saved input.
type Registry struct {
	sessions *cache.Cache
	factory  Factory
	store    SnapshotStore

	// restoreMu serializes cache misses so an id is restored at most once.
	restoreMu sync.Mutex
}

func NewRegistry(ttl time.Duration, factory Factory, store SnapshotStore) *Registry {
	r := &Registry{
		sessions: cache.New(ttl, ttl/2),
		factory:  factory,
		store:    store,
	}
	r.sessions.OnEvicted(func(id string, _ interface{}) {
		metrics.ActiveSessions.Dec()
		logger.Debug("Session evicted", zap.String("session_id", id))
	})
	return r
}

func (r *Registry) Create() *session.Session {
	s := r.factory("")
	r.track(s)
	logger.Info("Session created", zap.String("session_id", s.ID()))
	return s
}

func (r *Registry) Get(ctx context.Context, id string) (*session.Session, bool) {
	if s, ok := r.cached(id); ok {
		return s, true
	}

	if r.store == nil {
		return nil, false
	}

	r.restoreMu.Lock()
	defer r.restoreMu.Unlock()

	if s, ok := r.cached(id); ok {
		return s, true
	}

	saved, ok, err := r.store.LoadSnapshot(ctx, id)
	if err != nil {
		logger.Warn("Failed to load session snapshot", zap.String("session_id", id), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	s := r.factory(id)
	if err := s.Restore(saved.Input); err != nil {
		return nil, false
	}
	r.track(s)
	logger.Info("Session restored", zap.String("session_id", id))
	return s, true
}

func (r *Registry) cached(id string) (*session.Session, bool) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*session.Session)
	r.sessions.SetDefault(id, s)
	return s, true
}

func (r *Registry) Delete(ctx context.Context, id string) {
	r.sessions.Delete(id)
	if r.store != nil {
		if err := r.store.DeleteSnapshot(ctx, id); err != nil {
			logger.Warn("Failed to delete session snapshot", zap.String("session_id", id), zap.Error(err))
		}
	}
}

func (r *Registry) Count() int {
	return r.sessions.ItemCount()
}

func (r *Registry) track(s *session.Session) {
	r.sessions.SetDefault(s.ID(), s)
	metrics.ActiveSessions.Inc()

	if r.store == nil {
		return
	}
	s.Subscribe(snapshotSaver(r.store))
}

// snapshotSaver persists settled snapshots in version order. Notifications
// can arrive out of order, so a version at or below the last saved one is
// dropped.
func snapshotSaver(store SnapshotStore) func(session.Snapshot) {
	var (
		mu    sync.Mutex
		saved uint64
	)
	return func(snap session.Snapshot) {
		if snap.Loading() {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		if snap.Version <= saved {
			return
		}
		if err := store.SaveSnapshot(context.Background(), snap); err != nil {
			logger.Warn("Failed to save session snapshot", zap.String("session_id", snap.ID), zap.Error(err))
			return
		}
		saved = snap.Version
	}
}
