// Package envctx models the mutable process environment as an explicit
// value threaded through bootstrap steps. Installer steps that activate a
// freshly installed tool merge its variables here instead of calling
// os.Setenv, so every mutation is visible in one place and later steps can
// use the tool without a new shell.
package envctx

import (
	"os"
	"sort"
	"strings"
)

// ListSeparator separates PATH entries. The bootstrap targets mac and
// linux only, so this is always a colon.
const ListSeparator = ":"

// Env is a set of environment variables. The zero value is not usable;
// construct with New or FromEnviron.
type Env struct {
	vars map[string]string
}

// New returns an empty environment.
func New() *Env {
	return &Env{vars: make(map[string]string)}
}

// FromEnviron seeds an environment from the process environment.
func FromEnviron() *Env {
	return fromPairs(os.Environ())
}

func fromPairs(pairs []string) *Env {
	e := New()
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			e.vars[k] = v
		}
	}
	return e
}

// Get returns the value of key, or an empty string if unset.
func (e *Env) Get(key string) string {
	return e.vars[key]
}

// Lookup returns the value of key and whether it is set.
func (e *Env) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Set assigns key to value.
func (e *Env) Set(key, value string) {
	e.vars[key] = value
}

// Path returns the PATH entries in order.
func (e *Env) Path() []string {
	p := e.vars["PATH"]
	if p == "" {
		return nil
	}
	return strings.Split(p, ListSeparator)
}

// PrependPath puts dirs at the front of PATH, in the given order, removing
// any existing occurrence so repeated activation never grows the variable.
func (e *Env) PrependPath(dirs ...string) {
	existing := e.Path()
	merged := make([]string, 0, len(dirs)+len(existing))
	seen := make(map[string]bool, len(dirs)+len(existing))

	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		merged = append(merged, d)
	}
	for _, d := range existing {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		merged = append(merged, d)
	}

	e.vars["PATH"] = strings.Join(merged, ListSeparator)
}

// Merge copies every variable from other into e, overwriting existing
// values. PATH is treated specially: entries new in other are prepended so
// an activated tool's directories win without losing the current tail.
func (e *Env) Merge(other *Env) {
	for k, v := range other.vars {
		if k == "PATH" {
			continue
		}
		e.vars[k] = v
	}
	if otherPath := other.Path(); len(otherPath) > 0 {
		current := make(map[string]bool)
		for _, d := range e.Path() {
			current[d] = true
		}
		var fresh []string
		for _, d := range otherPath {
			if !current[d] {
				fresh = append(fresh, d)
			}
		}
		e.PrependPath(fresh...)
	}
}

// Clone returns an independent copy of e.
func (e *Env) Clone() *Env {
	c := New()
	for k, v := range e.vars {
		c.vars[k] = v
	}
	return c
}

// Environ renders the environment as KEY=value pairs sorted by key, the
// form os/exec consumes.
func (e *Env) Environ() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+e.vars[k])
	}
	return pairs
}

// ParseNull parses NUL-separated KEY=value records, the output of
// `env -0`, into an Env. Records without an equals sign are skipped.
func ParseNull(data string) *Env {
	return fromPairs(strings.Split(data, "\x00"))
}
