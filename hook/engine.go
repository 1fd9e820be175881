package hook

import (
	"fmt"

	"detourkit/strfmt"
)

// MidContext is the register snapshot handed to mid-function hook
// callbacks. The callback may mutate it; the engine restores the registers
// from it before resuming the original code.
type MidContext struct {
	Rax, Rbx, Rcx, Rdx uintptr
	Rsi, Rdi, Rbp, Rsp uintptr
	R8, R9, R10, R11   uintptr
	R12, R13, R14, R15 uintptr
	Rip                uintptr
	Rflags             uintptr
}

// MidFn is the callback type for mid-function hooks.
type MidFn func(ctx *MidContext)

// InlineHandle is an engine-native inline hook. Destroy unconditionally
// reverts the patched code; the handle is unusable afterwards.
type InlineHandle interface {
	Enable() error
	Disable() error
	Enabled() bool

	// Trampoline returns the address of the generated stub that preserves
	// the original prologue, callable to reach the original function.
	Trampoline() uintptr

	Destroy() error
}

// MidHandle is an engine-native mid-function hook. Mid hooks preserve the
// surrounding function body by construction, so there is no trampoline.
type MidHandle interface {
	Enable() error
	Disable() error
	Enabled() bool

	// Destination returns the installed callback.
	Destination() MidFn

	Destroy() error
}

// Engine is the external detouring engine the registry drives. The engine
// owns all instruction decoding and trampoline generation; this kit only
// decides where to hook and manages which hooks exist.
type Engine interface {
	CreateInline(target, detour uintptr, startDisabled bool) (InlineHandle, error)
	CreateMid(target uintptr, fn MidFn, startDisabled bool) (MidHandle, error)
}

// ErrorCode classifies engine-level creation failures.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeBadAllocation
	ErrCodeDecodeFailure
	ErrCodeShortJumpInTrampoline
	ErrCodeIPRelativeOutOfRange
	ErrCodeUnsupportedInstruction
	ErrCodeUnprotectFailure
	ErrCodeNotEnoughSpace
	ErrCodeBadInlineHook
)

// EngineError is the error type engines report from hook creation. IP is
// the instruction address involved, when the code relates to one. A mid
// hook failing because of its underlying inline hook carries the cause in
// Inner.
type EngineError struct {
	Code  ErrorCode
	IP    uintptr
	Inner *EngineError
}

func (e *EngineError) Error() string {
	switch e.Code {
	case ErrCodeBadAllocation:
		return "engine: bad allocation"
	case ErrCodeDecodeFailure:
		return "engine: failed to decode instruction at " + strfmt.FormatAddress(e.IP)
	case ErrCodeShortJumpInTrampoline:
		return "engine: short jump in trampoline at " + strfmt.FormatAddress(e.IP)
	case ErrCodeIPRelativeOutOfRange:
		return "engine: ip-relative instruction out of range at " + strfmt.FormatAddress(e.IP)
	case ErrCodeUnsupportedInstruction:
		return "engine: unsupported instruction in trampoline at " + strfmt.FormatAddress(e.IP)
	case ErrCodeUnprotectFailure:
		return "engine: failed to unprotect memory at " + strfmt.FormatAddress(e.IP)
	case ErrCodeNotEnoughSpace:
		return "engine: not enough space for the hook (prologue too short) at " + strfmt.FormatAddress(e.IP)
	case ErrCodeBadInlineHook:
		if e.Inner != nil {
			return "engine: bad underlying inline hook: " + e.Inner.Error()
		}
		return "engine: bad underlying inline hook"
	}
	return fmt.Sprintf("engine: unknown error (code %d)", int(e.Code))
}

func (e *EngineError) Unwrap() error {
	if e.Inner != nil {
		return e.Inner
	}
	return nil
}
