package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config tunes session lifetime.
type Config struct {
	IdleTTL              time.Duration
	SweepInterval        time.Duration
	NotificationDuration time.Duration
}

// Registry creates, hands out and tears down sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
	active   prometheus.Gauge
}

// NewRegistry builds a registry and registers its active-session gauge with
// reg when reg is non-nil.
func NewRegistry(cfg Config, logger *slog.Logger, reg prometheus.Registerer) (*Registry, error) {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 24 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = min(cfg.IdleTTL/2, time.Minute)
	}

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "planto",
		Name:      "sessions_active",
		Help:      "Number of open storefront sessions",
	})
	if reg != nil {
		if err := reg.Register(gauge); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("register session gauge: %w", err)
			}
			gauge = are.ExistingCollector.(prometheus.Gauge)
		}
	}

	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
		active:   gauge,
	}, nil
}

// Open returns the user's session, creating it on first use.
func (r *Registry) Open(userID string) *Session {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		s.touch(now)
		return s
	}
	s := newSession(userID, r.cfg.NotificationDuration, now)
	r.sessions[userID] = s
	r.active.Set(float64(len(r.sessions)))
	r.logger.Debug("session opened", slog.String("user_id", userID))
	return s
}

// Get returns the user's session if one is open and marks it as used.
func (r *Registry) Get(userID string) (*Session, bool) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if ok {
		s.touch(now)
	}
	return s, ok
}

// Touch marks the user's session as used.
func (r *Registry) Touch(userID string) {
	r.Get(userID)
}

// Close tears down the user's session, discarding its cart and favorites and
// stopping pending notification timers.
func (r *Registry) Close(userID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
		r.active.Set(float64(len(r.sessions)))
	}
	r.mu.Unlock()

	if ok {
		s.close()
		r.logger.Debug("session closed", slog.String("user_id", userID))
	}
	return ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run evicts idle sessions every SweepInterval until ctx is done, then closes
// all remaining sessions.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			if n := r.evictIdle(); n > 0 {
				r.logger.Info("evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

func (r *Registry) evictIdle() int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.active.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.active.Set(0)
	r.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
