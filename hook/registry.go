package hook

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"detourkit/pattern"
	"detourkit/strfmt"
)

var (
	// ErrNilEngine is returned when constructing a registry without an
	// engine.
	ErrNilEngine = errors.New("engine is nil")
	// ErrEmptyName rejects hooks without an identity.
	ErrEmptyName = errors.New("hook name is empty")
	// ErrDuplicateName rejects a name already held by a stored hook.
	ErrDuplicateName = errors.New("hook name already exists")
	// ErrNilTarget rejects a zero target address.
	ErrNilTarget = errors.New("target address is nil")
	// ErrNilDetour rejects a zero detour.
	ErrNilDetour = errors.New("detour is nil")
	// ErrHookNotFound is returned by lookups and state transitions for
	// names the registry does not hold.
	ErrHookNotFound = errors.New("hook not found")
)

// Registry owns a set of named hooks created through one engine.
//
// Integration contract: construct one Registry when the mod loads and Close
// it when the mod unloads; Close removes (and thus unhooks) everything.
// All methods are safe for concurrent use. The lock only guards registry
// bookkeeping, never detour invocation itself.
type Registry struct {
	mu     sync.Mutex
	hooks  map[string]*managedHook
	engine Engine

	scanner *pattern.Scanner
	log     *logger.Logger
}

// NewRegistry creates a registry over the given engine.
func NewRegistry(engine Engine) (*Registry, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	r := &Registry{
		hooks:   make(map[string]*managedHook),
		engine:  engine,
		scanner: pattern.NewScanner(),
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "hooks")),
	}
	r.log.Infoln("Hook registry initialized")
	return r, nil
}

// Close removes every hook. Safe to call more than once.
func (r *Registry) Close() {
	r.RemoveAllHooks()
}

// validateNewLocked checks the shared preconditions for storing a new hook.
// Caller holds r.mu.
func (r *Registry) validateNewLocked(name string, target, detour uintptr) error {
	if name == "" {
		return ErrEmptyName
	}
	if target == 0 {
		return ErrNilTarget
	}
	if detour == 0 {
		return ErrNilDetour
	}
	if _, exists := r.hooks[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

// createInlineGuarded calls into the engine with a panic guard, so no
// engine fault ever crosses the registry's API.
func (r *Registry) createInlineGuarded(target, detour uintptr, startDisabled bool) (h InlineHandle, err error) {
	defer func() {
		if p := recover(); p != nil {
			h = nil
			err = fmt.Errorf("engine panicked: %v", p)
		}
	}()
	return r.engine.CreateInline(target, detour, startDisabled)
}

func (r *Registry) createMidGuarded(target uintptr, fn MidFn, startDisabled bool) (h MidHandle, err error) {
	defer func() {
		if p := recover(); p != nil {
			h = nil
			err = fmt.Errorf("engine panicked: %v", p)
		}
	}()
	return r.engine.CreateMid(target, fn, startDisabled)
}

// initialStatus derives the stored status from what the engine reports,
// warning when it disagrees with the requested auto-enable. The discrepancy
// is deliberately not fatal; callers that need a guarantee check
// Info.Enabled.
func (r *Registry) initialStatus(name string, enabled bool, cfg *Config) Status {
	if enabled {
		return StatusActive
	}
	if cfg.AutoEnable {
		r.log.Warn("Hook '", name, "' was configured for auto-enable but is disabled post-creation")
	}
	return StatusDisabled
}

// CreateInlineHook installs an inline detour at target and stores it under
// name. It returns the hook's id (its name) and the trampoline address for
// calling the original function. A nil cfg means DefaultConfig.
func (r *Registry) CreateInlineHook(name string, target, detour uintptr, cfg *Config) (string, uintptr, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validateNewLocked(name, target, detour); err != nil {
		r.log.Warn("Cannot create inline hook '", name, "': ", err)
		return "", 0, err
	}

	handle, err := r.createInlineGuarded(target, detour, !cfg.AutoEnable)
	if err != nil {
		r.log.Warn("Failed to create inline hook '", name, "' at ", strfmt.FormatAddress(target), ": ", err)
		return "", 0, fmt.Errorf("create inline hook %q: %w", name, err)
	}

	h := &managedHook{
		name:   name,
		kind:   KindInline,
		target: target,
		status: r.initialStatus(name, handle.Enabled(), cfg),
		inline: handle,
	}
	r.hooks[name] = h

	r.log.Infoln("Created inline hook '"+name+"' targeting", strfmt.FormatAddress(target), "("+h.status.String()+")")
	return name, handle.Trampoline(), nil
}

// CreateInlineHookAOB locates the target by scanning [moduleBase,
// moduleBase+moduleSize) for the signature, applies offset to the match,
// and delegates to CreateInlineHook. Every failure path returns a zero
// trampoline.
func (r *Registry) CreateInlineHookAOB(name string, moduleBase, moduleSize uintptr, signature string, offset int, detour uintptr, cfg *Config) (string, uintptr, error) {
	target, err := r.resolveAOB("inline", name, moduleBase, moduleSize, signature, offset)
	if err != nil {
		return "", 0, err
	}
	return r.CreateInlineHook(name, target, detour, cfg)
}

// CreateMidHook installs a mid-function hook at target and stores it under
// name. Mid hooks have no trampoline.
func (r *Registry) CreateMidHook(name string, target uintptr, fn MidFn, cfg *Config) (string, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		r.log.Warn("Cannot create mid hook: ", ErrEmptyName)
		return "", ErrEmptyName
	}
	if target == 0 {
		r.log.Warn("Cannot create mid hook '", name, "': ", ErrNilTarget)
		return "", ErrNilTarget
	}
	if fn == nil {
		r.log.Warn("Cannot create mid hook '", name, "': ", ErrNilDetour)
		return "", ErrNilDetour
	}
	if _, exists := r.hooks[name]; exists {
		r.log.Warn("Cannot create mid hook '", name, "': ", ErrDuplicateName)
		return "", fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	handle, err := r.createMidGuarded(target, fn, !cfg.AutoEnable)
	if err != nil {
		r.log.Warn("Failed to create mid hook '", name, "' at ", strfmt.FormatAddress(target), ": ", err)
		return "", fmt.Errorf("create mid hook %q: %w", name, err)
	}

	h := &managedHook{
		name:   name,
		kind:   KindMid,
		target: target,
		status: r.initialStatus(name, handle.Enabled(), cfg),
		mid:    handle,
	}
	r.hooks[name] = h

	r.log.Infoln("Created mid hook '"+name+"' targeting", strfmt.FormatAddress(target), "("+h.status.String()+")")
	return name, nil
}

// CreateMidHookAOB is CreateMidHook with the target resolved by AOB scan.
func (r *Registry) CreateMidHookAOB(name string, moduleBase, moduleSize uintptr, signature string, offset int, fn MidFn, cfg *Config) (string, error) {
	target, err := r.resolveAOB("mid", name, moduleBase, moduleSize, signature, offset)
	if err != nil {
		return "", err
	}
	return r.CreateMidHook(name, target, fn, cfg)
}

// resolveAOB parses and scans a signature, returning the match address plus
// offset. It runs unlocked; the delegated create call takes the lock.
func (r *Registry) resolveAOB(kind, name string, moduleBase, moduleSize uintptr, signature string, offset int) (uintptr, error) {
	r.log.Debugln("AOB scan for", kind, "hook '"+name+"' pattern \""+signature+"\" offset", strfmt.FormatHex(int64(offset), 0))

	p, err := pattern.Parse(signature)
	if err != nil {
		r.log.Warn("AOB pattern parse failed for ", kind, " hook '", name, "': ", err)
		return 0, fmt.Errorf("parse pattern for hook %q: %w", name, err)
	}

	match, err := r.scanner.Find(moduleBase, moduleSize, p)
	if err != nil {
		r.log.Warn("AOB pattern not found for ", kind, " hook '", name, "'")
		return 0, fmt.Errorf("scan for hook %q: %w", name, err)
	}

	target := uintptr(int64(match) + int64(offset))
	r.log.Infoln("AOB match for hook '"+name+"' at", strfmt.FormatAddress(match), "-> target", strfmt.FormatAddress(target))
	return target, nil
}

// RemoveHook destroys the named hook, reverting its patch, and forgets it.
// It reports false when the name is unknown.
func (r *Registry) RemoveHook(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hooks[name]
	if !ok {
		r.log.Warn("Remove requested for unknown hook '", name, "'")
		return false
	}
	if err := h.destroy(); err != nil {
		r.log.Warn("Destroying hook '", name, "' reported: ", err)
	}
	h.status = StatusRemoved
	delete(r.hooks, name)
	r.log.Infoln("Hook '"+name+"' ("+h.kind.String()+") removed and unhooked")
	return true
}

// RemoveAllHooks destroys every hook. Safe to call when empty; used at
// shutdown.
func (r *Registry) RemoveAllHooks() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.hooks) == 0 {
		r.log.Debugln("RemoveAllHooks called with no hooks to remove")
		return
	}
	n := len(r.hooks)
	for name, h := range r.hooks {
		if err := h.destroy(); err != nil {
			r.log.Warn("Destroying hook '", name, "' reported: ", err)
		}
		h.status = StatusRemoved
		delete(r.hooks, name)
	}
	r.log.Infoln("All", n, "managed hooks removed and unhooked")
}

// EnableHook transitions the named hook to Active. Enabling an already
// active hook is a successful no-op.
func (r *Registry) EnableHook(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hooks[name]
	if !ok {
		r.log.Warn("Enable requested for unknown hook '", name, "'")
		return fmt.Errorf("%w: %q", ErrHookNotFound, name)
	}
	switch h.status {
	case StatusActive:
		r.log.Debugln("Hook '"+name+"' already active, enable ignored")
		return nil
	case StatusDisabled:
		if err := h.enable(); err != nil {
			r.log.Warn("Failed to enable hook '", name, "': ", err)
			return fmt.Errorf("enable hook %q: %w", name, err)
		}
		h.status = StatusActive
		r.log.Infoln("Hook '" + name + "' enabled")
		return nil
	}
	return fmt.Errorf("hook %q cannot be enabled from status %s", name, h.status)
}

// DisableHook transitions the named hook to Disabled. Disabling an already
// disabled hook is a successful no-op.
func (r *Registry) DisableHook(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hooks[name]
	if !ok {
		r.log.Warn("Disable requested for unknown hook '", name, "'")
		return fmt.Errorf("%w: %q", ErrHookNotFound, name)
	}
	switch h.status {
	case StatusDisabled:
		r.log.Debugln("Hook '"+name+"' already disabled, disable ignored")
		return nil
	case StatusActive:
		if err := h.disable(); err != nil {
			r.log.Warn("Failed to disable hook '", name, "': ", err)
			return fmt.Errorf("disable hook %q: %w", name, err)
		}
		h.status = StatusDisabled
		r.log.Infoln("Hook '" + name + "' disabled")
		return nil
	}
	return fmt.Errorf("hook %q cannot be disabled from status %s", name, h.status)
}

// HookStatus returns the status of the named hook. Unknown names report
// StatusRemoved.
func (r *Registry) HookStatus(name string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.hooks[name]; ok {
		return h.status
	}
	return StatusRemoved
}

// HookCounts returns the number of hooks per status. All four statuses are
// always present as keys.
func (r *Registry) HookCounts() map[Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[Status]int{
		StatusActive:   0,
		StatusDisabled: 0,
		StatusFailed:   0,
		StatusRemoved:  0,
	}
	for _, h := range r.hooks {
		counts[h.status]++
	}
	return counts
}

// HookIDs returns the names of stored hooks, optionally filtered to the
// given statuses. Order is unspecified.
func (r *Registry) HookIDs(filter ...Status) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.hooks))
	for name, h := range r.hooks {
		if len(filter) > 0 && !statusIn(h.status, filter) {
			continue
		}
		ids = append(ids, name)
	}
	return ids
}

func statusIn(s Status, set []Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// InlineHookInfo returns a descriptor of the named hook if it exists and is
// an inline hook.
func (r *Registry) InlineHookInfo(name string) (Info, bool) {
	return r.hookInfo(name, KindInline)
}

// MidHookInfo returns a descriptor of the named hook if it exists and is a
// mid hook.
func (r *Registry) MidHookInfo(name string) (Info, bool) {
	return r.hookInfo(name, KindMid)
}

func (r *Registry) hookInfo(name string, kind Kind) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hooks[name]
	if !ok || h.kind != kind {
		return Info{}, false
	}
	return h.info(), true
}
