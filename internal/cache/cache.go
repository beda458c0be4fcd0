// Package cache keeps short-lived answers to repeated storage lookups.
package cache

import (
	"time"

	"homeledger/internal/core"
)

// ClosedMonths caches whether a month has been closed. Only positive answers
// are stored: a month never reopens, while an open month may close at any time
// through another process.
type ClosedMonths struct {
	lru *LRUCache[bool]
}

// NewClosedMonths returns a cache holding up to size months for ttl.
func NewClosedMonths(size int, ttl time.Duration) *ClosedMonths {
	return &ClosedMonths{lru: NewLRUCache[bool](size, ttl)}
}

// Lookup reports whether month is known to be closed.
func (c *ClosedMonths) Lookup(month core.Month) bool {
	closed, ok := c.lru.Get(string(month))
	return ok && closed
}

// MarkClosed records month as closed.
func (c *ClosedMonths) MarkClosed(month core.Month) {
	c.lru.Set(string(month), true)
}
