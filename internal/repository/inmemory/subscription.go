package inmemory

import (
	"sync"
	"time"

	subscriptiondomain "finance-app-go/internal/domain/subscription"
)

// StatusCache keeps per-user subscription status for a short TTL.
type StatusCache struct {
	mu    sync.RWMutex
	items map[string]statusItem
	now   func() time.Time
}

type statusItem struct {
	value     subscriptiondomain.Status
	expiresAt time.Time
}

func NewStatusCache() *StatusCache {
	return &StatusCache{
		items: make(map[string]statusItem),
		now:   time.Now,
	}
}

func (c *StatusCache) GetByUserID(userID string) (subscriptiondomain.Status, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return subscriptiondomain.Status{}, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return subscriptiondomain.Status{}, false
	}

	return item.value, true
}

func (c *StatusCache) SetByUserID(userID string, status subscriptiondomain.Status, ttl time.Duration) {
	if userID == "" || ttl <= 0 {
		c.DeleteByUserID(userID)
		return
	}

	c.mu.Lock()
	c.items[userID] = statusItem{
		value:     status,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *StatusCache) DeleteByUserID(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}

func (c *StatusCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]statusItem)
	c.mu.Unlock()
}

func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
