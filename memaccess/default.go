package memaccess

import (
	"sync"
	"time"
)

// The package-level cache mirrors the common integration: one process-wide
// cache shared by everything in the mod. Init applies the first caller's
// configuration; later calls are no-ops.

var (
	defaultOnce  sync.Once
	defaultCache *Cache
)

// Init configures the package-level cache. It is idempotent and safe to call
// from multiple goroutines; only the first call's parameters take effect.
func Init(capacity int, expiry time.Duration) {
	defaultOnce.Do(func() {
		defaultCache = NewCache(NewPager(), WithCapacity(capacity), WithExpiry(expiry))
	})
}

// Default returns the package-level cache, initializing it with defaults if
// Init was never called.
func Default() *Cache {
	Init(DefaultCapacity, DefaultExpiry)
	return defaultCache
}

// IsReadable reports readability of [addr, addr+size) via the package-level
// cache.
func IsReadable(addr, size uintptr) bool {
	return Default().IsReadable(addr, size)
}

// IsWritable reports writability of [addr, addr+size) via the package-level
// cache.
func IsWritable(addr, size uintptr) bool {
	return Default().IsWritable(addr, size)
}

// WriteBytes writes through the package-level cache's pager.
func WriteBytes(target uintptr, src []byte) error {
	return Default().WriteBytes(target, src)
}

// Clear invalidates the package-level cache.
func Clear() {
	Default().Clear()
}

// Stats reports the package-level cache statistics.
func Stats() string {
	return Default().Stats()
}
