package presenter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/starford/dealroom/internal/ids"
	"github.com/starford/dealroom/internal/metrics"
)

// Option configures a Registry.
type Option func(*Registry)

// WithResetOnSwitch clears edit and disclosure state whenever a session
// expands a client other than the one it last expanded.
func WithResetOnSwitch(v bool) Option {
	return func(r *Registry) { r.resetOnSwitch = v }
}

// WithMetrics reports the number of open sessions to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger sets the logger handed to sessions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithIDs sets the session id generator.
func WithIDs(g ids.Generator) Option {
	return func(r *Registry) { r.ids = g }
}

// WithIdleTimeout expires sessions not looked up for d. Zero keeps them
// until deleted.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idleTimeout = d }
}

// WithMaxSessions caps the number of open sessions. Creating one past the
// cap evicts the least recently used. Zero means no cap.
func WithMaxSessions(n int) Option {
	return func(r *Registry) { r.maxSessions = n }
}

// WithRegistryClock sets the clock used for idle expiry.
func WithRegistryClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Registry holds the open sessions by id.
type Registry struct {
	clients       Clients
	ids           ids.Generator
	logger        *slog.Logger
	metrics       *metrics.Metrics
	resetOnSwitch bool
	idleTimeout   time.Duration
	maxSessions   int
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry whose sessions act on clients.
func NewRegistry(clients Clients, opts ...Option) *Registry {
	r := &Registry{
		clients:  clients,
		ids:      ids.UUID{},
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a new session, first dropping expired ones and, at the cap,
// the least recently used.
func (r *Registry) Create() *Session {
	s := newSession(r.ids.NewID(), r.clients, r.logger, r.resetOnSwitch)
	now := r.now()
	r.mu.Lock()
	r.pruneLocked(now)
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.evictOldestLocked()
	}
	r.sessions[s.id] = &entry{session: s, lastUsed: now}
	n := len(r.sessions)
	r.mu.Unlock()
	r.metrics.SetSessions(n)
	return s
}

// Get returns the session with the given id and marks it used. An expired
// session is dropped and reported missing.
func (r *Registry) Get(id string) (*Session, bool) {
	now := r.now()
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok && r.expired(e, now) {
		delete(r.sessions, id)
		n := len(r.sessions)
		r.mu.Unlock()
		r.logger.Debug("presenter: session expired", slog.String("session", id))
		r.metrics.SetSessions(n)
		return nil, false
	}
	if ok {
		e.lastUsed = now
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Prune drops every expired session and returns how many were removed.
func (r *Registry) Prune() int {
	now := r.now()
	r.mu.Lock()
	removed := r.pruneLocked(now)
	n := len(r.sessions)
	r.mu.Unlock()
	if removed > 0 {
		r.metrics.SetSessions(n)
	}
	return removed
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.idleTimeout > 0 && now.Sub(e.lastUsed) >= r.idleTimeout
}

// pruneLocked removes expired sessions. Callers hold r.mu.
func (r *Registry) pruneLocked(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	removed := 0
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// evictOldestLocked removes the least recently used session. Callers hold r.mu.
func (r *Registry) evictOldestLocked() {
	var oldest string
	var at time.Time
	for id, e := range r.sessions {
		if oldest == "" || e.lastUsed.Before(at) {
			oldest, at = id, e.lastUsed
		}
	}
	if oldest != "" {
		delete(r.sessions, oldest)
		r.logger.Info("presenter: session evicted", slog.String("session", oldest))
	}
}

// Delete discards a session and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if ok {
		r.metrics.SetSessions(n)
	}
	return ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
