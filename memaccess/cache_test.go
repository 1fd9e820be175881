package memaccess

import (
	"errors"
	"testing"
	"time"
)

// fakePager serves regions from a fixed table and counts queries.
type fakePager struct {
	regions []Region
	queries int

	protectErr    error
	restoreErr    error
	flushErr      error
	protectCalls  []Protection
	flushed       int
	protectedAddr uintptr
}

func (f *fakePager) Query(addr uintptr) (Region, error) {
	f.queries++
	for _, r := range f.regions {
		if addr >= r.Base && addr < r.Base+r.Size {
			return r, nil
		}
	}
	return Region{}, errors.New("not mapped")
}

func (f *fakePager) Protect(addr, size uintptr, p Protection) (Protection, error) {
	call := len(f.protectCalls)
	f.protectCalls = append(f.protectCalls, p)
	if call == 0 && f.protectErr != nil {
		return 0, f.protectErr
	}
	if call == 1 && f.restoreErr != nil {
		return 0, f.restoreErr
	}
	f.protectedAddr = addr
	return ProtReadWrite, nil
}

func (f *fakePager) FlushInstructionCache(addr, size uintptr) error {
	f.flushed++
	return f.flushErr
}

func newTestCache(f *fakePager, opts ...Option) *Cache {
	return NewCache(f, opts...)
}

func TestProtectionPredicates(t *testing.T) {
	readable := []Protection{ProtReadOnly, ProtReadWrite, ProtWriteCopy, ProtExecuteRead, ProtExecuteReadWrite, ProtExecuteWriteCopy}
	for _, p := range readable {
		if !p.Readable() {
			t.Fatalf("0x%X should be readable", uint32(p))
		}
	}
	writable := []Protection{ProtReadWrite, ProtWriteCopy, ProtExecuteReadWrite, ProtExecuteWriteCopy}
	for _, p := range writable {
		if !p.Writable() {
			t.Fatalf("0x%X should be writable", uint32(p))
		}
	}
	for _, p := range []Protection{ProtNoAccess, ProtExecute, ProtReadOnly | ProtGuard} {
		if p.Writable() {
			t.Fatalf("0x%X should not be writable", uint32(p))
		}
	}
	if (ProtReadWrite | ProtGuard).Readable() {
		t.Fatal("guard pages must not report readable")
	}
}

func TestIsReadableRejectsBadInput(t *testing.T) {
	f := &fakePager{}
	c := newTestCache(f)

	if c.IsReadable(0, 16) {
		t.Fatal("nil address must be unreadable")
	}
	if c.IsReadable(0x1000, 0) {
		t.Fatal("zero size must be unreadable")
	}
	if f.queries != 0 {
		t.Fatalf("no OS query expected for invalid input, got %d", f.queries)
	}
}

func TestCacheHitSkipsOSQuery(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x2000, Protect: ProtExecuteRead, Committed: true},
	}}
	c := newTestCache(f)

	if !c.IsReadable(0x10100, 64) {
		t.Fatal("first check should succeed")
	}
	if f.queries != 1 {
		t.Fatalf("expected 1 OS query, got %d", f.queries)
	}

	// Second check inside the same region answers from cache.
	if !c.IsReadable(0x10800, 128) {
		t.Fatal("second check should succeed")
	}
	if f.queries != 1 {
		t.Fatalf("expected cached answer, got %d OS queries", f.queries)
	}
	if c.Hits() != 1 || c.Misses() != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", c.Hits(), c.Misses())
	}
}

func TestCacheAnswersWritabilityFromSameEntry(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x1000, Protect: ProtExecuteRead, Committed: true},
	}}
	c := newTestCache(f)

	if !c.IsReadable(0x10000, 16) {
		t.Fatal("readable check failed")
	}
	// Execute-read pages are not writable; the cached entry answers that
	// without another query.
	if c.IsWritable(0x10000, 16) {
		t.Fatal("execute-read region must not be writable")
	}
	if f.queries != 1 {
		t.Fatalf("expected 1 OS query, got %d", f.queries)
	}
}

func TestClearForcesFreshQuery(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x1000, Protect: ProtReadWrite, Committed: true},
	}}
	c := newTestCache(f)

	c.IsReadable(0x10000, 16)
	c.Clear()
	if c.Hits() != 0 || c.Misses() != 0 {
		t.Fatal("Clear must reset counters")
	}
	c.IsReadable(0x10000, 16)
	if f.queries != 2 {
		t.Fatalf("expected fresh query after Clear, got %d queries", f.queries)
	}
}

func TestExpiredEntryIsRequeried(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x1000, Protect: ProtReadOnly, Committed: true},
	}}
	c := newTestCache(f, WithExpiry(time.Nanosecond))

	c.IsReadable(0x10000, 16)
	time.Sleep(time.Millisecond)
	c.IsReadable(0x10000, 16)
	if f.queries != 2 {
		t.Fatalf("expected requery after expiry, got %d queries", f.queries)
	}
}

func TestRangeSpanningTwoRegionsIsNotAccessible(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x1000, Protect: ProtReadWrite, Committed: true},
		{Base: 0x11000, Size: 0x1000, Protect: ProtReadWrite, Committed: true},
	}}
	c := newTestCache(f)

	// Both halves are fine on their own but the range crosses the boundary.
	if c.IsReadable(0x10F00, 0x200) {
		t.Fatal("range spanning two regions must not be accessible")
	}
}

func TestUncommittedRegionIsNotAccessible(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x1000, Protect: ProtReadWrite, Committed: false},
	}}
	c := newTestCache(f)

	if c.IsReadable(0x10000, 16) {
		t.Fatal("reserved-but-uncommitted region must not be readable")
	}
}

func TestEvictionPrefersInvalidSlotThenOldest(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x1000, Protect: ProtReadOnly, Committed: true},
		{Base: 0x20000, Size: 0x1000, Protect: ProtReadOnly, Committed: true},
		{Base: 0x30000, Size: 0x1000, Protect: ProtReadOnly, Committed: true},
	}}
	c := newTestCache(f, WithCapacity(2))

	c.IsReadable(0x10000, 16) // fills slot 0
	c.IsReadable(0x20000, 16) // fills slot 1
	c.IsReadable(0x30000, 16) // evicts the least recently validated (0x10000)

	queries := f.queries
	if !c.IsReadable(0x20000, 16) || !c.IsReadable(0x30000, 16) {
		t.Fatal("recently cached regions should stay accessible")
	}
	if f.queries != queries {
		t.Fatalf("0x20000/0x30000 should be cache hits, got %d extra queries", f.queries-queries)
	}

	c.IsReadable(0x10000, 16)
	if f.queries != queries+1 {
		t.Fatal("0x10000 should have been evicted and requeried")
	}
}

func TestWithCapacityFloor(t *testing.T) {
	c := newTestCache(&fakePager{}, WithCapacity(0))
	if c.Capacity() != 1 {
		t.Fatalf("capacity floor: got %d, want 1", c.Capacity())
	}
}

func TestStatsString(t *testing.T) {
	f := &fakePager{regions: []Region{
		{Base: 0x10000, Size: 0x1000, Protect: ProtReadOnly, Committed: true},
	}}
	c := newTestCache(f)
	c.IsReadable(0x10000, 16)
	c.IsReadable(0x10000, 16)

	s := c.Stats()
	if s == "" {
		t.Fatal("Stats returned empty string")
	}
	if c.Hits() != 1 || c.Misses() != 1 {
		t.Fatalf("hits=%d misses=%d, want 1/1", c.Hits(), c.Misses())
	}
}
