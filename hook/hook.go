// Package hook manages the lifecycle of inline and mid-function detours
// installed through an external detouring engine. A Registry owns every
// hook it creates, keyed by a unique name; removal reverts the patched
// code.
package hook

// Kind distinguishes the two hook shapes the kit supports. No third kind
// is anticipated.
type Kind int

const (
	// KindInline detours a function at its entry point, with a trampoline
	// back to the original.
	KindInline Kind = iota
	// KindMid injects a callback at an arbitrary instruction boundary
	// inside a function body.
	KindMid
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "Inline"
	case KindMid:
		return "Mid"
	}
	return "Unknown"
}

// Status is the lifecycle state of a hook.
type Status int

const (
	// StatusActive means the hook is installed and enabled.
	StatusActive Status = iota
	// StatusDisabled means the hook is installed but currently off.
	StatusDisabled
	// StatusFailed marks hooks whose engine-level creation failed. Such
	// hooks are never stored, so this status is not observable through a
	// registry lookup.
	StatusFailed
	// StatusRemoved is terminal. A name that was never registered reports
	// StatusRemoved too: "not present" and "removed" are the same
	// observable state.
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusDisabled:
		return "Disabled"
	case StatusFailed:
		return "Failed"
	case StatusRemoved:
		return "Removed"
	}
	return "Unknown"
}

// Config controls hook creation.
type Config struct {
	// AutoEnable enables the hook immediately after creation.
	AutoEnable bool
}

// DefaultConfig returns the configuration used when callers pass nil.
func DefaultConfig() *Config {
	return &Config{AutoEnable: true}
}

// Info is a copy-out descriptor of one hook. It carries no live engine
// handle, so it stays valid after the hook is removed (it just goes stale).
type Info struct {
	Name    string
	Kind    Kind
	Target  uintptr
	Status  Status
	Enabled bool

	// Trampoline is the original-function trampoline for inline hooks,
	// zero for mid hooks.
	Trampoline uintptr
}

// managedHook is the registry's record of one hook. Exactly one of inline
// or mid is set, matching kind.
type managedHook struct {
	name   string
	kind   Kind
	target uintptr
	status Status
	inline InlineHandle
	mid    MidHandle
}

func (h *managedHook) enable() error {
	if h.kind == KindInline {
		return h.inline.Enable()
	}
	return h.mid.Enable()
}

func (h *managedHook) disable() error {
	if h.kind == KindInline {
		return h.inline.Disable()
	}
	return h.mid.Disable()
}

func (h *managedHook) destroy() error {
	if h.kind == KindInline {
		return h.inline.Destroy()
	}
	return h.mid.Destroy()
}

func (h *managedHook) info() Info {
	inf := Info{
		Name:    h.name,
		Kind:    h.kind,
		Target:  h.target,
		Status:  h.status,
		Enabled: h.status == StatusActive,
	}
	if h.kind == KindInline {
		inf.Trampoline = h.inline.Trampoline()
	}
	return inf
}
