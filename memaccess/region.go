// Package memaccess answers page-protection questions about the current
// process and performs protection-aware byte writes. Queries go through a
// small fixed-size cache so repeated checks against the same module pages do
// not hammer the OS.
package memaccess

import (
	"fmt"

	"detourkit/strfmt"
)

// Protection is a page-protection bitmask. The values mirror the Windows
// PAGE_* constants; the linux pager maps /proc/self/maps permissions onto
// the same bits so the cache logic is identical on both platforms.
type Protection uint32

const (
	ProtNoAccess         Protection = 0x01
	ProtReadOnly         Protection = 0x02
	ProtReadWrite        Protection = 0x04
	ProtWriteCopy        Protection = 0x08
	ProtExecute          Protection = 0x10
	ProtExecuteRead      Protection = 0x20
	ProtExecuteReadWrite Protection = 0x40
	ProtExecuteWriteCopy Protection = 0x80
	ProtGuard            Protection = 0x100
)

const (
	readMask  = ProtReadOnly | ProtReadWrite | ProtWriteCopy | ProtExecuteRead | ProtExecuteReadWrite | ProtExecuteWriteCopy
	writeMask = ProtReadWrite | ProtWriteCopy | ProtExecuteReadWrite | ProtExecuteWriteCopy
	denyMask  = ProtNoAccess | ProtGuard
)

// Readable reports whether pages with this protection can be read.
func (p Protection) Readable() bool {
	return p&readMask != 0 && p&denyMask == 0
}

// Writable reports whether pages with this protection can be written.
func (p Protection) Writable() bool {
	return p&writeMask != 0 && p&denyMask == 0
}

// Executable reports whether pages with this protection can be executed.
func (p Protection) Executable() bool {
	return p&(ProtExecute|ProtExecuteRead|ProtExecuteReadWrite|ProtExecuteWriteCopy) != 0 && p&denyMask == 0
}

// Region describes one contiguous range of pages sharing a protection, as
// reported by the OS.
type Region struct {
	Base      uintptr
	Size      uintptr
	Protect   Protection
	Committed bool
}

// Contains reports whether [addr, addr+size) lies entirely inside the
// region. A range spanning two adjacent regions is deliberately not merged.
func (r Region) Contains(addr, size uintptr) bool {
	end := addr + size
	if end < addr && size != 0 {
		return false
	}
	return addr >= r.Base && end <= r.Base+r.Size
}

// String renders the region for log output.
func (r Region) String() string {
	return fmt.Sprintf("%s +%d prot=0x%X committed=%v", strfmt.FormatAddress(r.Base), r.Size, uint32(r.Protect), r.Committed)
}

// Pager is the OS surface the cache sits on: region queries, protection
// changes and instruction-cache maintenance for the current process.
type Pager interface {
	// Query returns the region containing addr.
	Query(addr uintptr) (Region, error)

	// Protect sets the protection of [addr, addr+size) and returns the
	// previous protection.
	Protect(addr, size uintptr, p Protection) (Protection, error)

	// FlushInstructionCache flushes the CPU instruction cache for the range.
	FlushInstructionCache(addr, size uintptr) error
}
