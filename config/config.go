// Package config binds Go variables to INI keys. Callers register typed
// settings once with their defaults, then Load reads the file from the
// runtime directory and fills every bound variable; missing or malformed
// keys keep their defaults.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"gopkg.in/ini.v1"

	"detourkit/fsutil"
	"detourkit/strfmt"
)

type entryKind int

const (
	kindInt entryKind = iota
	kindFloat
	kindBool
	kindString
	kindKeyList
)

// entry is one registered binding. target points at the caller's variable.
type entry struct {
	section string
	key     string
	kind    entryKind
	target  any
}

func (e *entry) id() string {
	if e.section == "" {
		return e.key
	}
	return e.section + "." + e.key
}

// Registry holds the registered bindings for one INI file.
type Registry struct {
	entries []*entry
	log     *logger.Logger
}

// NewRegistry creates an empty binding registry.
func NewRegistry() *Registry {
	return &Registry{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorLimeGreen, coloransi.ColorOrange, "config")),
	}
}

func (r *Registry) register(section, key string, kind entryKind, target any) {
	r.entries = append(r.entries, &entry{section: section, key: key, kind: kind, target: target})
}

// RegisterInt binds *target to [section]key with the given default.
func (r *Registry) RegisterInt(section, key string, target *int, def int) {
	*target = def
	r.register(section, key, kindInt, target)
}

// RegisterFloat binds *target to [section]key with the given default.
func (r *Registry) RegisterFloat(section, key string, target *float32, def float32) {
	*target = def
	r.register(section, key, kindFloat, target)
}

// RegisterBool binds *target to [section]key with the given default.
func (r *Registry) RegisterBool(section, key string, target *bool, def bool) {
	*target = def
	r.register(section, key, kindBool, target)
}

// RegisterString binds *target to [section]key with the given default.
func (r *Registry) RegisterString(section, key string, target *string, def string) {
	*target = def
	r.register(section, key, kindString, target)
}

// RegisterKeyList binds *target to a comma-separated list of hex virtual key
// codes, e.g. "0x72, 0x10". The default slice is not copied.
func (r *Registry) RegisterKeyList(section, key string, target *[]int, def []int) {
	*target = def
	r.register(section, key, kindKeyList, target)
}

// Load reads iniName, resolved against the runtime directory unless the
// path is already absolute, and fills every registered
// binding. A missing file or unreadable key leaves the defaults in place;
// only the file-level failure is reported back.
func (r *Registry) Load(iniName string) error {
	path := iniName
	if !filepath.IsAbs(path) {
		path = filepath.Join(fsutil.RuntimeDir(), path)
	}
	r.log.Infoln("Loading configuration from", path)

	file, err := ini.Load(path)
	if err != nil {
		r.log.Warn("Could not open '", path, "', keeping defaults: ", err)
		return fmt.Errorf("load config %q: %w", path, err)
	}

	for _, e := range r.entries {
		sec := file.Section(e.section)
		if !sec.HasKey(e.key) {
			r.log.Debugln("Key", e.id(), "not present, keeping default")
			continue
		}
		r.apply(e, sec.Key(e.key))
	}

	r.log.Infoln("Configuration loaded,", len(r.entries), "settings bound")
	return nil
}

// apply parses one key into its binding, keeping the default on parse
// failure.
func (r *Registry) apply(e *entry, key *ini.Key) {
	switch e.kind {
	case kindInt:
		v, err := key.Int()
		if err != nil {
			r.log.Warn("Invalid integer for ", e.id(), ": ", err)
			return
		}
		*e.target.(*int) = v
	case kindFloat:
		v, err := key.Float64()
		if err != nil {
			r.log.Warn("Invalid float for ", e.id(), ": ", err)
			return
		}
		*e.target.(*float32) = float32(v)
	case kindBool:
		v, err := key.Bool()
		if err != nil {
			r.log.Warn("Invalid boolean for ", e.id(), ": ", err)
			return
		}
		*e.target.(*bool) = v
	case kindString:
		*e.target.(*string) = strfmt.Trim(key.String())
	case kindKeyList:
		if keys, ok := r.parseKeyList(e.id(), key.String()); ok {
			*e.target.(*[]int) = keys
		}
	}
}

// parseKeyList converts a comma-separated list of hex VK codes. Tokens may
// carry an optional 0x prefix; trailing ';' or '#' comments are stripped.
// Invalid tokens are skipped with a warning. The second return is false only
// when the raw value had content but yielded no valid codes at all.
func (r *Registry) parseKeyList(id, raw string) ([]int, bool) {
	if i := strings.IndexAny(raw, ";#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strfmt.Trim(raw)
	if raw == "" {
		return nil, true
	}

	var keys []int
	for _, token := range strings.Split(raw, ",") {
		token = strfmt.Trim(token)
		if token == "" {
			continue
		}
		hex := strings.TrimPrefix(strings.ToLower(token), "0x")
		if hex == "" {
			r.log.Warn("Invalid key token '", token, "' for ", id)
			continue
		}
		code, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			r.log.Warn("Invalid key token '", token, "' for ", id, ": ", err)
			continue
		}
		if code == 0 || code > 0xFF {
			r.log.Warn("Key code ", strfmt.FormatHex(int64(code), 0), " for ", id, " is outside the VK range 0x01-0xFF")
		}
		keys = append(keys, int(code))
		r.log.Debugln("Added key for", id+":", strfmt.FormatVKCode(int(code)))
	}

	if len(keys) == 0 {
		r.log.Warn("Value \"", raw, "\" for ", id, " contained no valid key codes")
		return nil, false
	}
	return keys, true
}

// LogAll prints every bound setting with its current value, in registration
// order.
func (r *Registry) LogAll() {
	for _, e := range r.entries {
		switch e.kind {
		case kindInt:
			r.log.Infoln(e.id(), "=", *e.target.(*int))
		case kindFloat:
			r.log.Infoln(e.id(), "=", *e.target.(*float32))
		case kindBool:
			r.log.Infoln(e.id(), "=", *e.target.(*bool))
		case kindString:
			r.log.Infoln(e.id(), "=", *e.target.(*string))
		case kindKeyList:
			r.log.Infoln(e.id(), "=", strfmt.FormatVKCodeList(*e.target.(*[]int)))
		}
	}
}

// Clear drops all registered bindings. Bound variables keep their current
// values.
func (r *Registry) Clear() {
	r.entries = nil
}
