package memaccess

import (
	"errors"
	"fmt"
	"unsafe"

	"detourkit/strfmt"
)

var (
	// ErrNilTarget is returned when a write targets address zero.
	ErrNilTarget = errors.New("target address is nil")
)

// WriteBytes copies src to target, temporarily lifting the page protection
// to execute-read-write and restoring it afterwards. The restore and the
// instruction-cache flush are best effort: once the copy has landed the
// write is reported as successful and their failures are only warned about.
// A zero-length write is a successful no-op.
func (c *Cache) WriteBytes(target uintptr, src []byte) error {
	if target == 0 {
		return ErrNilTarget
	}
	if len(src) == 0 {
		c.log.Warn("WriteBytes: zero bytes requested, nothing to do")
		return nil
	}

	size := uintptr(len(src))
	oldProt, err := c.pager.Protect(target, size, ProtExecuteReadWrite)
	if err != nil {
		return fmt.Errorf("unprotect %s (%d bytes): %w", strfmt.FormatAddress(target), len(src), err)
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(target)), len(src))
	copy(dst, src)

	if _, rerr := c.pager.Protect(target, size, oldProt); rerr != nil {
		c.log.Warn("Failed to restore protection ", strfmt.FormatHex(int64(oldProt), 0), " at ", strfmt.FormatAddress(target), ": ", rerr)
	}
	if ferr := c.pager.FlushInstructionCache(target, size); ferr != nil {
		c.log.Warn("FlushInstructionCache failed for ", strfmt.FormatAddress(target), ": ", ferr)
	}

	c.log.Debugln("Wrote", len(src), "bytes to", strfmt.FormatAddress(target))
	return nil
}
