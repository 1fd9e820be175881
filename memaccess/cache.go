package memaccess

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	// DefaultCapacity is the number of region slots the cache holds unless
	// configured otherwise.
	DefaultCapacity = 32

	// DefaultExpiry is how long a cached region is trusted before the next
	// lookup re-queries the OS.
	DefaultExpiry = 5 * time.Second
)

// regionSlot is one cache entry. Slots are reused in place; entries are
// never individually allocated or shared outside the cache.
type regionSlot struct {
	base    uintptr
	size    uintptr
	protect Protection
	stamp   time.Time
	valid   bool
}

// Cache caches page-protection queries for the current process. All methods
// are safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	slots []regionSlot

	expiry time.Duration
	pager  Pager
	log    *logger.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity sets the number of region slots. Values below 1 are raised
// to 1.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n < 1 {
			n = 1
		}
		c.slots = make([]regionSlot, n)
	}
}

// WithExpiry sets how long cached regions stay trusted.
func WithExpiry(d time.Duration) Option {
	return func(c *Cache) {
		c.expiry = d
	}
}

// NewCache creates a cache over the given pager.
func NewCache(pager Pager, options ...Option) *Cache {
	c := &Cache{
		slots:  make([]regionSlot, DefaultCapacity),
		expiry: DefaultExpiry,
		pager:  pager,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorTeal, coloransi.ColorOrange, "mem-cache")),
	}
	for _, opt := range options {
		opt(c)
	}
	c.log.Debugln("Initialized with", len(c.slots), "entries and", c.expiry, "expiry")
	return c
}

// Capacity returns the number of region slots.
func (c *Cache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// findSlot returns the protection of a valid, unexpired entry fully
// containing [addr, addr+size), refreshing its timestamp, or false.
// Caller holds c.mu. Expiry is lazy: stale entries are invalidated here.
func (c *Cache) findSlot(addr, size uintptr, now time.Time) (Protection, bool) {
	end := addr + size
	if end < addr && size != 0 {
		c.log.Warn("Address + size overflows in cache lookup")
		return 0, false
	}
	for i := range c.slots {
		s := &c.slots[i]
		if !s.valid {
			continue
		}
		if now.Sub(s.stamp) > c.expiry {
			s.valid = false
			continue
		}
		if addr >= s.base && end <= s.base+s.size {
			s.stamp = now
			return s.protect, true
		}
	}
	return 0, false
}

// storeRegion records a freshly queried region, preferring an invalid slot
// and otherwise evicting the least recently validated entry. Caller holds
// c.mu.
func (c *Cache) storeRegion(r Region, now time.Time) {
	victim := -1
	for i := range c.slots {
		if !c.slots[i].valid {
			victim = i
			break
		}
	}
	if victim < 0 {
		victim = 0
		for i := 1; i < len(c.slots); i++ {
			if c.slots[i].stamp.Before(c.slots[victim].stamp) {
				victim = i
			}
		}
	}
	c.slots[victim] = regionSlot{
		base:    r.Base,
		size:    r.Size,
		protect: r.Protect,
		stamp:   now,
		valid:   true,
	}
}

// check answers an accessibility question for [addr, addr+size), consulting
// the cache first and falling back to the pager on a miss.
func (c *Cache) check(addr, size uintptr, accessible func(Protection) bool) bool {
	if addr == 0 || size == 0 {
		return false
	}

	now := time.Now()
	c.mu.Lock()
	prot, hit := c.findSlot(addr, size, now)
	c.mu.Unlock()

	if hit {
		c.hits.Add(1)
		return accessible(prot)
	}
	c.misses.Add(1)

	region, err := c.pager.Query(addr)
	if err != nil {
		return false
	}
	if !region.Committed {
		return false
	}
	if !accessible(region.Protect) {
		return false
	}
	if !region.Contains(addr, size) {
		// The range spills past this region into a neighbor. Answering from
		// two regions is intentionally unsupported.
		return false
	}

	c.mu.Lock()
	c.storeRegion(region, now)
	c.mu.Unlock()
	return true
}

// IsReadable reports whether the whole range [addr, addr+size) is committed,
// readable memory inside a single region.
func (c *Cache) IsReadable(addr, size uintptr) bool {
	return c.check(addr, size, Protection.Readable)
}

// IsWritable reports whether the whole range [addr, addr+size) is committed,
// writable memory inside a single region.
func (c *Cache) IsWritable(addr, size uintptr) bool {
	return c.check(addr, size, Protection.Writable)
}

// Clear invalidates every entry and resets the hit/miss counters. The next
// access is guaranteed a fresh OS query.
func (c *Cache) Clear() {
	c.mu.Lock()
	for i := range c.slots {
		c.slots[i].valid = false
	}
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
	c.log.Debugln("All entries cleared")
}

// Hits returns the number of lookups answered from the cache.
func (c *Cache) Hits() uint64 { return c.hits.Load() }

// Misses returns the number of lookups that required an OS query.
func (c *Cache) Misses() uint64 { return c.misses.Load() }

// Stats returns a human-readable summary of cache effectiveness. This is a
// debugging aid, not part of the correctness surface.
func (c *Cache) Stats() string {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	c.mu.Lock()
	capacity := len(c.slots)
	expiry := c.expiry
	c.mu.Unlock()

	s := fmt.Sprintf("MemoryCache Stats (Capacity: %d, Expiry: %v) - Hits: %d, Misses: %d", capacity, expiry, hits, misses)
	if total > 0 {
		s += fmt.Sprintf(", Hit Rate: %.2f%%", float64(hits)/float64(total)*100)
	} else {
		s += ", Hit Rate: N/A (no queries tracked)"
	}
	return s
}
