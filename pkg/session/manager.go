package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/aretw0/stepgrid/pkg/ports"
)

const (
	DefaultColumns = 20
	DefaultRows    = 12
	DefaultLockTTL = 30 * time.Second
	// DefaultMaxSteps bounds a single Step call.
	DefaultMaxSteps = 10_000
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.TemplateStore

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks
	live  map[string]*session   // Engines in memory, guarded by their lockEntry

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	hooks      domain.LifecycleHooks
	engineOpts []stepgrid.Option
	cols, rows int
	maxSteps   int
	now        func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and its engines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers hooks on every engine the manager creates or restores.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithEngineOptions appends options applied to every engine (algorithm, seed...).
func WithEngineOptions(opts ...stepgrid.Option) Option {
	return func(m *Manager) {
		m.engineOpts = append(m.engineOpts, opts...)
	}
}

// WithDefaultSize sets the size of blank grids created without a template.
func WithDefaultSize(cols, rows int) Option {
	return func(m *Manager) {
		if cols > 0 && rows > 0 {
			m.cols, m.rows = cols, rows
		}
	}
}

// WithMaxSteps bounds the n accepted by a single Step call.
func WithMaxSteps(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSteps = n
		}
	}
}

// NewManager creates a new Session Manager checkpointing into store.
// Checkpoints are saved under domain.CheckpointID keys, next to but apart from saved templates.
// A nil store keeps sessions in memory only.
func NewManager(store ports.TemplateStore, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		locks:    make(map[string]*lockEntry),
		live:     make(map[string]*session),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
		cols:     DefaultColumns,
		rows:     DefaultRows,
		maxSteps: DefaultMaxSteps,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ ports.SessionService = (*Manager)(nil)

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", domain.ErrInvalidCommand)
	}

	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Create starts a session from tmpl, or from a blank grid when tmpl is nil or has no layout.
func (m *Manager) Create(ctx context.Context, id string, tmpl *domain.Template) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		if m.lookup(id) != nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, id)
		}
		if m.store != nil {
			_, err := m.store.Load(ctx, domain.CheckpointID(id))
			if err == nil {
				return fmt.Errorf("%w: %s", domain.ErrSessionExists, id)
			}
			if !errors.Is(err, domain.ErrTemplateNotFound) {
				return fmt.Errorf("failed to check session existence: %w", err)
			}
		}

		s, err := m.build(id, tmpl)
		if err != nil {
			return err
		}
		if err := m.checkpoint(ctx, s); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.register(id, s)
		snap = s.publish()

		m.logger.Info("session created", "session_id", id, "algorithm", s.engine.Algorithm())
		return nil
	})
	return snap, err
}

// Snapshot returns the current view of the session.
func (m *Manager) Snapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.withSession(ctx, id, func(ctx context.Context, s *session) error {
		snap = s.engine.Snapshot()
		return nil
	})
	return snap, err
}

// Step advances the session by up to n steps (at least one), stopping at a terminal status.
// Subscribers receive one diff per step.
func (m *Manager) Step(ctx context.Context, id string, n int) (*domain.Snapshot, error) {
	if n <= 0 {
		n = 1
	}
	if n > m.maxSteps {
		return nil, fmt.Errorf("%w: %d steps exceeds the limit of %d", domain.ErrInvalidCommand, n, m.maxSteps)
	}

	var snap *domain.Snapshot
	err := m.withSession(ctx, id, func(ctx context.Context, s *session) error {
		for i := 0; i < n && !s.engine.IsDone(); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.engine.Step()
			s.publish()
		}
		snap = s.engine.Snapshot()
		return nil
	})
	return snap, err
}

// Apply runs one command against the session and checkpoints the resulting layout.
func (m *Manager) Apply(ctx context.Context, id string, cmd domain.Command) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.withSession(ctx, id, func(ctx context.Context, s *session) error {
		err := s.engine.Apply(cmd)
		snap = s.publish()
		if err != nil {
			return err
		}

		if cmd.Type == domain.CommandReset {
			return nil
		}
		if err := m.checkpoint(ctx, s); err != nil {
			return fmt.Errorf("failed to checkpoint session: %w", err)
		}
		return nil
	})
	return snap, err
}

// Template exports the persistent layout of the session.
func (m *Manager) Template(ctx context.Context, id string) (*domain.Template, error) {
	var tmpl *domain.Template
	err := m.withSession(ctx, id, func(ctx context.Context, s *session) error {
		tmpl = m.templateOf(s)
		return nil
	})
	return tmpl, err
}

// Delete ends the session, closes its subscriptions and removes its checkpoint.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		s := m.lookup(id)
		found := s != nil
		if found {
			s.closeSubscribers()
			m.mu.Lock()
			delete(m.live, id)
			m.mu.Unlock()
		}

		if m.store != nil {
			if !found {
				if _, err := m.store.Load(ctx, domain.CheckpointID(id)); err == nil {
					found = true
				} else if !errors.Is(err, domain.ErrTemplateNotFound) {
					return err
				}
			}
			if err := m.store.Delete(ctx, domain.CheckpointID(id)); err != nil {
				return err
			}
		}

		if !found {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		m.logger.Info("session deleted", "session_id", id)
		return nil
	})
}

// List returns the IDs of sessions in memory and checkpointed in the store, sorted.
// Saved templates in the same store are not sessions and are skipped.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	m.mu.Lock()
	for id := range m.live {
		seen[id] = struct{}{}
	}
	m.mu.Unlock()

	if m.store != nil {
		stored, err := m.store.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, key := range stored {
			if domain.IsCheckpointID(key) {
				seen[strings.TrimPrefix(key, domain.CheckpointPrefix)] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Subscribe streams one diff per change of the session until ctx ends or the session is deleted.
// The first diff describes every cell. A subscriber that falls behind is dropped: its channel
// is closed and it should resubscribe.
func (m *Manager) Subscribe(ctx context.Context, id string) (<-chan *domain.SnapshotDiff, error) {
	var ch chan *domain.SnapshotDiff
	var s *session
	err := m.withSession(ctx, id, func(ctx context.Context, sess *session) error {
		s = sess
		ch = sess.subscribe()
		return nil
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = m.WithLock(context.WithoutCancel(ctx), id, func(context.Context) error {
			s.unsubscribe(ch)
			return nil
		})
	}()
	return ch, nil
}

// Store returns the underlying template store.
func (m *Manager) Store() ports.TemplateStore {
	return m.store
}

// withSession runs fn under the session lock, restoring the session from the store on a miss.
func (m *Manager) withSession(ctx context.Context, id string, fn func(context.Context, *session) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		s := m.lookup(id)
		if s == nil {
			restored, err := m.restore(ctx, id)
			if err != nil {
				return err
			}
			s = restored
		}
		return fn(ctx, s)
	})
}

func (m *Manager) restore(ctx context.Context, id string) (*session, error) {
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	tmpl, err := m.store.Load(ctx, domain.CheckpointID(id))
	if err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	s, err := m.build(id, tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	m.register(id, s)
	m.logger.Info("session restored", "session_id", id)
	return s, nil
}

func (m *Manager) build(id string, tmpl *domain.Template) (*session, error) {
	opts := append([]stepgrid.Option{
		stepgrid.WithLogger(m.logger.With("session_id", id)),
		stepgrid.WithLifecycleHooks(m.hooks),
	}, m.engineOpts...)

	var eng *stepgrid.Engine
	var err error
	switch {
	case tmpl == nil:
		eng, err = stepgrid.NewBlank(m.cols, m.rows, opts...)
	case tmpl.Layout == "":
		if tmpl.Algorithm != "" {
			opts = append(opts, stepgrid.WithAlgorithm(tmpl.Algorithm))
		}
		eng, err = stepgrid.NewBlank(m.cols, m.rows, opts...)
	default:
		named := *tmpl
		named.ID = id
		if named.Algorithm != "" {
			// The session's own algorithm wins over manager defaults.
			opts = append(opts, stepgrid.WithAlgorithm(named.Algorithm))
		}
		eng, err = stepgrid.FromTemplate(&named, opts...)
	}
	if err != nil {
		return nil, err
	}
	return newSession(id, eng), nil
}

func (m *Manager) lookup(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[id]
}

func (m *Manager) register(id string, s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[id] = s
}

func (m *Manager) templateOf(s *session) *domain.Template {
	return &domain.Template{
		ID:        s.id,
		Algorithm: s.engine.Algorithm(),
		Layout:    string(s.engine.Template()),
		UpdatedAt: m.now().UTC(),
	}
}

func (m *Manager) checkpoint(ctx context.Context, s *session) error {
	if m.store == nil {
		return nil
	}
	tmpl := m.templateOf(s)
	tmpl.ID = domain.CheckpointID(s.id)
	return m.store.Save(ctx, tmpl)
}
