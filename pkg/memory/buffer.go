package memory

import (
	"sync"
	"time"
)

// DirtyBuffer is a bounded TTL set of users whose entries changed since their
// insight was last refreshed.
type DirtyBuffer struct {
	mu       sync.Mutex
	items    []bufferItem
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

type bufferItem struct {
	at     time.Time
	userID string
}

// NewDirtyBuffer creates a buffer. now defaults to time.Now.
func NewDirtyBuffer(capacity int, ttl time.Duration, now func() time.Time) *DirtyBuffer {
	if now == nil {
		now = time.Now
	}
	return &DirtyBuffer{capacity: capacity, ttl: ttl, now: now}
}

// Add marks userID, moving it to the newest position and evicting the oldest
// users once capacity is exceeded.
func (b *DirtyBuffer) Add(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, item := range b.items {
		if item.userID == userID {
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	b.items = append(b.items, bufferItem{at: b.now(), userID: userID})
	if b.capacity > 0 && len(b.items) > b.capacity {
		b.items = b.items[len(b.items)-b.capacity:]
	}
}

// Snapshot returns non-expired users, oldest mark first.
func (b *DirtyBuffer) Snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.ttl)
	var filtered []bufferItem
	for _, item := range b.items {
		if b.ttl <= 0 || item.at.After(cutoff) {
			filtered = append(filtered, item)
		}
	}
	b.items = filtered

	users := make([]string, len(filtered))
	for i, item := range filtered {
		users[i] = item.userID
	}
	return users
}

// Remove drops userID if it was not marked again after since.
func (b *DirtyBuffer) Remove(userID string, since time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, item := range b.items {
		if item.userID == userID {
			if !item.at.After(since) {
				b.items = append(b.items[:i], b.items[i+1:]...)
			}
			return
		}
	}
}

// Len reports how many users are marked, including expired ones not yet pruned.
func (b *DirtyBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
