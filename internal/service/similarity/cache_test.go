package similarity

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 2, 23, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_FindRelated_Empty(t *testing.T) {
	c := NewCache()

	for _, in := range []string{"", "Let's build the login page", "anything at all"} {
		id, ok := c.FindRelated(in)
		assert.False(t, ok)
		assert.Empty(t, id)
	}
}

func TestCache_FindRelated(t *testing.T) {
	tests := []struct {
		name    string
		entries [][2]string
		query   string
		wantID  string
		wantOk  bool
	}{
		{
			name:    "identical text matches",
			entries: [][2]string{{"T1", "Quarterly report for finance"}},
			query:   "Quarterly report for finance",
			wantID:  "T1",
			wantOk:  true,
		},
		{
			name:    "login page follow-up",
			entries: [][2]string{{"T1", "Let's build the login page with email and password"}},
			query:   "We need to finish the login page email flow",
			wantID:  "T1",
			wantOk:  true,
		},
		{
			name:    "no shared topics",
			entries: [][2]string{{"T1", "Let's build the login page"}},
			query:   "Budget review for marketing",
			wantOk:  false,
		},
		{
			name:    "score at threshold does not match",
			entries: [][2]string{{"T1", "alpha bravo charlie delta echo"}},
			query:   "alpha foxtrot golf hotel india",
			wantOk:  false,
		},
		{
			name: "best score wins",
			entries: [][2]string{
				{"T1", "login page design review"},
				{"T2", "login page email password flow"},
			},
			query:  "login page email password",
			wantID: "T2",
			wantOk: true,
		},
		{
			name: "ties keep oldest",
			entries: [][2]string{
				{"T1", "deploy staging cluster"},
				{"T2", "deploy staging cluster"},
			},
			query:  "deploy staging cluster",
			wantID: "T1",
			wantOk: true,
		},
		{
			name:    "empty query never matches",
			entries: [][2]string{{"T1", "deploy staging cluster"}},
			query:   "   ",
			wantOk:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache()
			for _, e := range tt.entries {
				c.Add(e[0], e[1])
			}

			id, ok := c.FindRelated(tt.query)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCache_AddEvictsByAge(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(WithClock(clock.Now))

	// inserted at t0, t0+1h, t0+2h, t0+3h
	for i := 0; i < 4; i++ {
		c.Add(fmt.Sprintf("T%d", i), fmt.Sprintf("topic%d shared words", i))
		clock.Advance(time.Hour)
	}
	require.Equal(t, 4, c.Len())

	// now = t0+25h: T0 (25h) and T1 (24h) are dropped, T2 (23h) survives
	clock.Advance(21 * time.Hour)
	c.Add("T4", "fresh")

	assert.Equal(t, 3, c.Len())
	_, ok := c.FindRelated("topic1 shared words")
	assert.True(t, ok, "T2/T3 still share words")

	id, ok := c.FindRelated("topic0 topic1")
	assert.False(t, ok, "evicted entries never match, got %q", id)
}

func TestCache_FindRelatedSkipsExpired(t *testing.T) {
	clock := newFakeClock()
	c := NewCache(WithClock(clock.Now), WithTTL(time.Hour))

	c.Add("T1", "deploy staging cluster")
	clock.Advance(time.Hour)

	_, ok := c.FindRelated("deploy staging cluster")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "expired entries are removed only by Add")
}

func TestCache_Threshold(t *testing.T) {
	c := NewCache(WithThreshold(0.6))
	c.Add("T1", "login page email password")

	_, ok := c.FindRelated("login page budget review")
	assert.False(t, ok, "0.5 does not exceed 0.6")

	id, ok := c.FindRelated("login page email budget")
	assert.True(t, ok)
	assert.Equal(t, "T1", id)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Add(fmt.Sprintf("T%d-%d", n, j), fmt.Sprintf("session %d discussion %d", n, j))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.FindRelated("session discussion")
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 1000, c.Len())
}
