package pattern

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"detourkit/strfmt"
)

var (
	// ErrPatternNotFound is returned when a scan completes without a match.
	// A miss is an expected outcome, not a fault.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrNilRegion is returned when the scan region base address is zero.
	ErrNilRegion = errors.New("scan region base address is nil")
)

// Scanner scans in-process memory regions for AOB signatures and logs what
// it finds. The zero Scanner is not usable; construct with NewScanner.
type Scanner struct {
	log *logger.Logger
}

// NewScanner creates a Scanner.
func NewScanner() *Scanner {
	return &Scanner{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "aob-scan")),
	}
}

// Find scans the in-process memory region [base, base+size) for the first
// occurrence of p and returns its absolute address. It returns
// ErrPatternNotFound on a miss and a validation error when the pattern is
// empty, base is nil, or the region is smaller than the pattern.
//
// The region must be readable for its entire length; callers hand in module
// bounds they already trust (typically a module base and image size).
func (s *Scanner) Find(base uintptr, size uintptr, p Pattern) (uintptr, error) {
	if !p.IsValid() {
		return 0, ErrEmptyPattern
	}
	if base == 0 {
		return 0, ErrNilRegion
	}
	if size < uintptr(p.Len()) {
		s.log.Warn("Search region (", size, " bytes) is smaller than pattern (", p.Len(), " bytes)")
		return 0, fmt.Errorf("region size %d smaller than pattern length %d: %w", size, p.Len(), ErrPatternNotFound)
	}

	s.log.Debugln("Scanning", size, "bytes from", strfmt.FormatAddress(base), "for pattern", p.String())
	if n := p.Wildcards(); n > 0 {
		s.log.Debugln("Pattern contains", n, "wildcard(s)")
	}

	region := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	offset := Find(region, p)
	if offset < 0 {
		s.log.Warn("Pattern not found in region starting at ", strfmt.FormatAddress(base))
		return 0, ErrPatternNotFound
	}

	addr := base + uintptr(offset)
	s.log.Infoln("Pattern match at", strfmt.FormatAddress(addr), "(RVA", strfmt.FormatHex(int64(offset), 0)+")")
	return addr, nil
}
