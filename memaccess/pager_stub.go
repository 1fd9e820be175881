//go:build !windows && !linux

package memaccess

import "errors"

var errUnsupported = errors.New("memaccess: page queries not supported on this platform")

type stubPager struct{}

// NewPager returns the pager for the current OS.
func NewPager() Pager {
	return stubPager{}
}

func (stubPager) Query(addr uintptr) (Region, error) {
	return Region{}, errUnsupported
}

func (stubPager) Protect(addr, size uintptr, p Protection) (Protection, error) {
	return 0, errUnsupported
}

func (stubPager) FlushInstructionCache(addr, size uintptr) error {
	return errUnsupported
}
