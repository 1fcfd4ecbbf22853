// Package notify keeps the transient notifications shown by the storefront.
// Each notification is dismissed by its own one-shot timer; overlapping
// notifications are neither queued nor deduplicated.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 4000 * time.Millisecond

// Notification is a message for the storefront UI.
type Notification struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	IsError    bool      `json:"isError"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type pending struct {
	n     Notification
	timer *time.Timer
}

// Center holds the undismissed notifications of one session.
type Center struct {
	mu       sync.Mutex
	duration time.Duration
	active   []*pending
	closed   bool
}

// NewCenter creates a center whose notifications last d. A non-positive d
// uses DefaultDuration.
func NewCenter(d time.Duration) *Center {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Center{duration: d}
}

// Build returns a notification without scheduling it. Anonymous callers have
// no center, so denials are built and returned directly.
func Build(message string, isError bool, d time.Duration) Notification {
	if d <= 0 {
		d = DefaultDuration
	}
	now := time.Now().UTC()
	return Notification{
		ID:         uuid.NewString(),
		Message:    message,
		IsError:    isError,
		DurationMs: d.Milliseconds(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(d),
	}
}

// Success pushes a success notification.
func (c *Center) Success(message string) Notification {
	return c.Push(message, false)
}

// Error pushes an error notification.
func (c *Center) Error(message string) Notification {
	return c.Push(message, true)
}

// Push records a notification and schedules its dismissal. After Close the
// notification is still returned but not retained.
func (c *Center) Push(message string, isError bool) Notification {
	n := Build(message, isError, c.duration)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return n
	}
	p := &pending{n: n}
	p.timer = time.AfterFunc(c.duration, func() { c.Dismiss(n.ID) })
	c.active = append(c.active, p)
	return n
}

// Dismiss removes the notification with id and stops its timer. It reports
// whether the notification was still active.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, p := range c.active {
		if p.n.ID == id {
			p.timer.Stop()
			c.active = append(c.active[:i], c.active[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the undismissed notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.active))
	for _, p := range c.active {
		out = append(out, p.n)
	}
	return out
}

// Duration returns the display duration of this center's notifications.
func (c *Center) Duration() time.Duration {
	return c.duration
}

// Close stops every pending timer and drops the active notifications.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.active {
		p.timer.Stop()
	}
	c.active = nil
	c.closed = true
}
