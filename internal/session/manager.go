package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// State is the set of operations one browser session supports.
//
// Every operation degrades safely: when the backing store is unavailable or
// holds malformed data, reads behave as if no session exists and writes are
// silent no-ops. A corrupted or absent session is always recoverable by
// re-authenticating, so nothing here returns an error.
type State interface {
	// Establish writes the authenticated flag, the user identity and a
	// fresh activity timestamp together.
	Establish(ctx context.Context, u User)
	// Invalidate clears all session state. Idempotent.
	Invalidate(ctx context.Context)
	// IsValid reports whether the session exists and has seen activity
	// within the inactivity threshold. An expired or partial session is
	// cleared in full before false is returned.
	IsValid(ctx context.Context) bool
	// CurrentUser returns the stored identity, or absent when none is
	// stored or the stored value does not parse.
	CurrentUser(ctx context.Context) (*User, bool)
	// LastActivityTime returns the raw activity timestamp in milliseconds
	// since epoch.
	LastActivityTime(ctx context.Context) (int64, bool)
	// Touch records activity now, extending the expiry window.
	Touch(ctx context.Context)
}

// Manager hands out per-session State handles backed by a shared Store.
type Manager struct {
	store     Store
	prefix    string
	threshold time.Duration
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithThreshold overrides the inactivity threshold.
func WithThreshold(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.threshold = d
		}
	}
}

// WithClock overrides the time source. Tests use this to walk sessions
// across the expiry boundary.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithPrefix overrides the storage key namespace.
func WithPrefix(prefix string) Option {
	return func(m *Manager) { m.prefix = prefix }
}

// NewManager creates a session manager. A nil store is allowed and yields
// sessions that are permanently unauthenticated.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		prefix:    "session",
		threshold: InactivityThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the State handle for the session named by id.
func (m *Manager) Session(id string) State {
	s := &browserSession{m: m, id: id}
	s.tracker = Tracker{store: m.store, key: s.key(keyLastActivity), now: m.now}
	return s
}

// browserSession implements State for one session id.
type browserSession struct {
	m       *Manager
	id      string
	tracker Tracker
}

func (s *browserSession) key(suffix string) string {
	return fmt.Sprintf("%s:%s:%s", s.m.prefix, s.id, suffix)
}

func (s *browserSession) Establish(ctx context.Context, u User) {
	if s.m.store == nil {
		return
	}

	if u.CreatedAt == "" {
		u.CreatedAt = s.m.now().UTC().Format(time.RFC3339)
	}

	// Serialization of a plain struct cannot fail; write failures are
	// swallowed like every other storage error in this package.
	data, err := json.Marshal(u)
	if err != nil {
		return
	}

	_ = s.m.store.Set(ctx, s.key(keyAuthenticated), authenticatedSentinel)
	_ = s.m.store.Set(ctx, s.key(keyUser), string(data))
	s.tracker.Touch(ctx)
}

func (s *browserSession) Invalidate(ctx context.Context) {
	if s.m.store == nil {
		return
	}
	_ = s.m.store.Delete(ctx,
		s.key(keyAuthenticated),
		s.key(keyUser),
		s.key(keyLastActivity),
	)
}

func (s *browserSession) IsValid(ctx context.Context) bool {
	if s.m.store == nil {
		return false
	}

	flag, err := s.m.store.Get(ctx, s.key(keyAuthenticated))
	if err != nil || flag != authenticatedSentinel {
		// Clear any partial state so a stale activity timestamp cannot
		// resurrect the session later.
		s.Invalidate(ctx)
		return false
	}

	last, ok := s.tracker.Last(ctx)
	if !ok {
		s.Invalidate(ctx)
		return false
	}

	elapsed := s.m.now().UnixMilli() - last
	if elapsed >= s.m.threshold.Milliseconds() {
		s.Invalidate(ctx)
		return false
	}

	return true
}

func (s *browserSession) CurrentUser(ctx context.Context) (*User, bool) {
	if s.m.store == nil {
		return nil, false
	}

	raw, err := s.m.store.Get(ctx, s.key(keyUser))
	if err != nil {
		return nil, false
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		// Corrupted records read as absence, never as a failure.
		return nil, false
	}
	return &u, true
}

func (s *browserSession) LastActivityTime(ctx context.Context) (int64, bool) {
	return s.tracker.Last(ctx)
}

func (s *browserSession) Touch(ctx context.Context) {
	s.tracker.Touch(ctx)
}
