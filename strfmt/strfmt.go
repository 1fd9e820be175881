// Package strfmt provides the small formatting helpers shared by the kit's
// log output: addresses, hex values and virtual key code lists.
package strfmt

import (
	"fmt"
	"strings"
	"unsafe"
)

// FormatAddress formats a memory address as an uppercase hex string padded to
// the width of a pointer, e.g. "0x00007FFE12345678" on 64-bit.
func FormatAddress(addr uintptr) string {
	return fmt.Sprintf("0x%0*X", int(unsafe.Sizeof(addr))*2, uint64(addr))
}

// FormatHex formats a value as an uppercase hex string with an optional
// minimum digit width. A width of 0 uses the natural length.
func FormatHex(value int64, width int) string {
	if width > 0 {
		return fmt.Sprintf("0x%0*X", width, value)
	}
	return fmt.Sprintf("0x%X", value)
}

// FormatVKCode formats a virtual key code with at least two hex digits, so
// VK_LBUTTON (0x01) renders as "0x01" rather than "0x1".
func FormatVKCode(vk int) string {
	return FormatHex(int64(vk), 2)
}

// FormatVKCodeList renders a key list as comma-separated VK codes, or
// "(None)" when empty.
func FormatVKCodeList(keys []int) string {
	if len(keys) == 0 {
		return "(None)"
	}
	parts := make([]string, len(keys))
	for i, vk := range keys {
		parts[i] = FormatVKCode(vk)
	}
	return strings.Join(parts, ", ")
}

// Trim removes leading and trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}
