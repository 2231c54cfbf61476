package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/gator/internal/logging"
	"github.com/aretw0/gator/pkg/domain"
	"github.com/aretw0/gator/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can keep a distributed axis lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates axis access, ensuring motion commands from concurrent
// callers never interleave on the same axis.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	mu    sync.Mutex                 // Global lock for the map
	locks map[domain.Axis]*lockEntry // Map of active locks

	locker    ports.DistributedLocker // Optional distributed locker
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithNamespace prefixes distributed lock keys, normally with the stage profile name.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		m.namespace = ns
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new axis lock manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:     make(map[domain.Axis]*lockEntry),
		namespace: "stage",
		ttl:       DefaultLockTTL,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(axis) after unlocking.
func (m *Manager) acquire(axis domain.Axis) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[axis]
	if !exists {
		entry = &lockEntry{}
		m.locks[axis] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(axis domain.Axis) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[axis]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, axis)
	}
}

// Canonical returns axes deduplicated, in the order of domain.Axes. Unknown
// axes follow, sorted by name. Locking in one global order rules out deadlock
// between callers that need overlapping sets.
func Canonical(axes []domain.Axis) []domain.Axis {
	out := make([]domain.Axis, 0, len(axes))
	for _, a := range domain.Axes {
		if slices.Contains(axes, a) {
			out = append(out, a)
		}
	}
	var extra []domain.Axis
	for _, a := range axes {
		if !slices.Contains(domain.Axes, a) && !slices.Contains(extra, a) {
			extra = append(extra, a)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// Key returns the distributed lock key of an axis.
func (m *Manager) Key(axis domain.Axis) string {
	return m.namespace + ":" + string(axis)
}

// WithAxes executes fn while holding the locks of every axis in axes.
func (m *Manager) WithAxes(ctx context.Context, axes []domain.Axis, fn func(context.Context) error) error {
	ordered := Canonical(axes)
	var unlocks []func()
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()

	for _, axis := range ordered {
		unlock, err := m.lock(ctx, axis)
		if err != nil {
			return err
		}
		unlocks = append(unlocks, unlock)
	}
	return fn(ctx)
}

// WithAxis is WithAxes for a single axis.
func (m *Manager) WithAxis(ctx context.Context, axis domain.Axis, fn func(context.Context) error) error {
	return m.WithAxes(ctx, []domain.Axis{axis}, fn)
}

func (m *Manager) lock(ctx context.Context, axis domain.Axis) (func(), error) {
	entry := m.acquire(axis)
	entry.mu.Lock()
	local := func() {
		entry.mu.Unlock()
		m.release(axis)
	}
	if err := ctx.Err(); err != nil {
		local()
		return nil, err
	}
	if m.locker == nil {
		return local, nil
	}

	key := m.Key(axis)
	unlock, err := m.locker.Lock(ctx, key, m.ttl)
	if err != nil {
		local()
		return nil, fmt.Errorf("failed to acquire distributed lock for axis %s: %w", axis, err)
	}
	return func() {
		// The caller's ctx may already be cancelled; the release must still go out.
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
				"key", key,
				"err", err,
			)
		}
		local()
	}, nil
}

// Active returns how many axes currently have a lock entry.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
