package reconcile

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// notificationMemoryLimit caps retained notifications; older entries are
// evicted first.
const notificationMemoryLimit = 50

// Notification is one transient user-facing alert: a new message arrived
// or a sync brought in mail.
type Notification struct {
	ID        string
	SourceID  string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

// Center holds the transient notifications surfaced to the rendering
// layer. Losing these on restart is fine; they are never persisted.
type Center struct {
	mu      sync.Mutex
	items   []Notification
	nowFunc func() time.Time
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{nowFunc: func() time.Time { return time.Now().UTC() }}
}

// Push adds a notification and returns its id.
func (c *Center) Push(sourceID, title, body string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := Notification{
		ID:        uuid.New().String(),
		SourceID:  strings.TrimSpace(sourceID),
		Title:     strings.TrimSpace(title),
		Body:      body,
		CreatedAt: c.nowFunc(),
	}
	c.items = append(c.items, n)
	if len(c.items) > notificationMemoryLimit {
		c.items = append([]Notification(nil), c.items[len(c.items)-notificationMemoryLimit:]...)
	}
	return n.ID
}

// Notifications returns retained notifications, newest last.
func (c *Center) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

// UnreadCount returns the number of unread notifications.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, n := range c.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marks one notification read. Unknown ids are a no-op.
func (c *Center) MarkRead(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			return true
		}
	}
	return false
}

// Dismiss removes one notification. Unknown ids are a no-op.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every notification.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
