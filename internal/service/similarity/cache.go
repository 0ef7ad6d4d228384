package similarity

import (
	"sync"
	"time"
)

const (
	DefaultTTL       = 24 * time.Hour
	DefaultThreshold = 0.2
)

type cacheEntry struct {
	ticketID  string
	context   string
	createdAt time.Time
}

// Cache remembers which ticket recent conversation text produced, so related
// follow-up talk updates that ticket instead of opening a duplicate.
// It is safe for concurrent use by many sessions.
type Cache struct {
	mu        sync.RWMutex
	entries   []cacheEntry // insertion order
	ttl       time.Duration
	threshold float64
	now       func() time.Time
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithThreshold sets the overlap score a candidate must exceed.
func WithThreshold(threshold float64) Option {
	return func(c *Cache) {
		c.threshold = threshold
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func NewCache(opts ...Option) *Cache {
	c := &Cache{
		ttl:       DefaultTTL,
		threshold: DefaultThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add records ticketID for contextText, then drops every entry aged ttl or more.
func (c *Cache) Add(ticketID, contextText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries = append(c.entries, cacheEntry{
		ticketID:  ticketID,
		context:   contextText,
		createdAt: now,
	})

	kept := c.entries[:0]
	for _, e := range c.entries {
		if now.Sub(e.createdAt) < c.ttl {
			kept = append(kept, e)
		}
	}
	// clear the tail so evicted strings can be collected
	for i := len(kept); i < len(c.entries); i++ {
		c.entries[i] = cacheEntry{}
	}
	c.entries = kept
}

// FindRelated returns the ticket whose stored context best overlaps contextText.
// Ties keep the oldest entry. Entries past the TTL never match, even before Add evicts them.
// ok is false when no entry scores above the threshold.
func (c *Cache) FindRelated(contextText string) (ticketID string, ok bool) {
	query := ExtractTopics(contextText)

	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	best := 0.0
	for _, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			continue
		}

		score := Overlap(query, ExtractTopics(e.context))
		if score > c.threshold && (!ok || score > best) {
			ticketID, best, ok = e.ticketID, score, true
		}
	}
	return ticketID, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
