//go:build windows

package memaccess

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modkernel32               = syscall.NewLazyDLL("kernel32.dll")
	procFlushInstructionCache = modkernel32.NewProc("FlushInstructionCache")
)

// windowsPager answers queries with VirtualQuery against the current
// process. Protection values pass through untranslated since the Protection
// constants are the PAGE_* values.
type windowsPager struct{}

// NewPager returns the pager for the current OS.
func NewPager() Pager {
	return windowsPager{}
}

func (windowsPager) Query(addr uintptr) (Region, error) {
	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
		return Region{}, fmt.Errorf("VirtualQuery at 0x%X: %w", addr, err)
	}
	return Region{
		Base:      mbi.BaseAddress,
		Size:      mbi.RegionSize,
		Protect:   Protection(mbi.Protect),
		Committed: mbi.State == windows.MEM_COMMIT,
	}, nil
}

func (windowsPager) Protect(addr, size uintptr, p Protection) (Protection, error) {
	var old uint32
	if err := windows.VirtualProtect(addr, size, uint32(p), &old); err != nil {
		return 0, fmt.Errorf("VirtualProtect at 0x%X: %w", addr, err)
	}
	return Protection(old), nil
}

func (windowsPager) FlushInstructionCache(addr, size uintptr) error {
	ret, _, err := procFlushInstructionCache.Call(uintptr(windows.CurrentProcess()), addr, size)
	if ret == 0 {
		return fmt.Errorf("FlushInstructionCache at 0x%X: %w", addr, err)
	}
	return nil
}
