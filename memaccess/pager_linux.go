//go:build linux

package memaccess

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linuxPager resolves regions from /proc/self/maps and changes protection
// with mprotect. Mapped regions count as committed; the WriteCopy
// distinction does not exist here.
type linuxPager struct{}

// NewPager returns the pager for the current OS.
func NewPager() Pager {
	return linuxPager{}
}

func (linuxPager) Query(addr uintptr) (Region, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return Region{}, fmt.Errorf("open maps: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		region, ok := parseMapsLine(scanner.Text())
		if !ok {
			continue
		}
		if addr >= region.Base && addr < region.Base+region.Size {
			return region, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return Region{}, fmt.Errorf("read maps: %w", err)
	}
	return Region{}, fmt.Errorf("address 0x%X not mapped", addr)
}

func (lp linuxPager) Protect(addr, size uintptr, p Protection) (Protection, error) {
	old, err := lp.Query(addr)
	if err != nil {
		return 0, err
	}

	pageSize := uintptr(os.Getpagesize())
	start := addr &^ (pageSize - 1)
	length := ((addr + size + pageSize - 1) &^ (pageSize - 1)) - start

	pages := unsafe.Slice((*byte)(unsafe.Pointer(start)), length)
	if err := unix.Mprotect(pages, unixProt(p)); err != nil {
		return 0, fmt.Errorf("mprotect at 0x%X: %w", addr, err)
	}
	return old.Protect, nil
}

func (linuxPager) FlushInstructionCache(addr, size uintptr) error {
	// x86 keeps the instruction cache coherent with data writes; nothing to
	// do here.
	return nil
}

// parseMapsLine parses one "start-end perms offset dev inode path" line.
func parseMapsLine(line string) (Region, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Region{}, false
	}
	bounds := strings.SplitN(fields[0], "-", 2)
	if len(bounds) != 2 {
		return Region{}, false
	}
	start, err1 := strconv.ParseUint(bounds[0], 16, 64)
	end, err2 := strconv.ParseUint(bounds[1], 16, 64)
	if err1 != nil || err2 != nil || end < start {
		return Region{}, false
	}
	return Region{
		Base:      uintptr(start),
		Size:      uintptr(end - start),
		Protect:   protFromPerms(fields[1]),
		Committed: true,
	}, nil
}

func protFromPerms(perms string) Protection {
	if len(perms) < 3 {
		return ProtNoAccess
	}
	r := perms[0] == 'r'
	w := perms[1] == 'w'
	x := perms[2] == 'x'
	switch {
	case r && w && x:
		return ProtExecuteReadWrite
	case r && x:
		return ProtExecuteRead
	case r && w:
		return ProtReadWrite
	case r:
		return ProtReadOnly
	case x:
		return ProtExecute
	}
	return ProtNoAccess
}

func unixProt(p Protection) int {
	prot := unix.PROT_NONE
	if p.Readable() {
		prot |= unix.PROT_READ
	}
	if p.Writable() {
		prot |= unix.PROT_WRITE
	}
	if p.Executable() {
		prot |= unix.PROT_EXEC
	}
	return prot
}
