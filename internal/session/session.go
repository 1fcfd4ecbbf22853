// Package session owns the per-user storefront state: one cart, one
// favorites set and one notification center for each signed-in user.
package session

import (
	"sync"
	"time"

	"github.com/utafrali/Planto/internal/cart"
	"github.com/utafrali/Planto/internal/favorites"
	"github.com/utafrali/Planto/internal/notify"
)

// Session is the storefront state of one user. Consumers only call store
// operations on it; the registry owns its lifecycle.
type Session struct {
	UserID        string
	Cart          *cart.Store
	Favorites     *favorites.Store
	Notifications *notify.Center
	CreatedAt     time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(userID string, notifyDuration time.Duration, now time.Time) *Session {
	return &Session{
		UserID:        userID,
		Cart:          cart.New(),
		Favorites:     favorites.New(),
		Notifications: notify.NewCenter(notifyDuration),
		CreatedAt:     now,
		lastSeen:      now,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the most recent access.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.Notifications.Close()
}

// Principal is the authenticated user behind a request.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// RequireAuth runs action when p is present and onDenied otherwise. It is the
// only gate in front of mutating storefront actions.
func RequireAuth(p *Principal, action func(*Principal) error, onDenied func() error) error {
	if p == nil || p.UserID == "" {
		return onDenied()
	}
	return action(p)
}
