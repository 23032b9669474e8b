package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

// DefaultIdleTTL evicts sessions untouched for half an hour.
const DefaultIdleTTL = 30 * time.Minute

type session struct {
	dash     *Dashboard
	lastSeen time.Time
}

// Registry keeps dashboards by session id and evicts idle ones.
type Registry struct {
	service *analytics.Service
	logger  *slog.Logger
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry constructs a registry. A non-positive ttl uses DefaultIdleTTL.
func NewRegistry(service *analytics.Service, logger *slog.Logger, ttl time.Duration) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Registry{
		service:  service,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// WithNow overrides the registry clock for testing.
func (r *Registry) WithNow(fn func() time.Time) {
	if fn != nil {
		r.now = fn
	}
}

// Create registers a new dashboard under a random id.
func (r *Registry) Create() *Dashboard {
	dash := New(uuid.NewString(), r.service, r.logger)
	r.mu.Lock()
	r.sessions[dash.ID()] = &session{dash: dash, lastSeen: r.now()}
	r.mu.Unlock()
	return dash
}

// Get returns the dashboard for id and marks it as used.
func (r *Registry) Get(id string) (*Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s.dash, nil
}

// Delete drops a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the ttl and returns how many
// were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle dashboard sessions", slog.Int("count", n))
			}
		}
	}
}
