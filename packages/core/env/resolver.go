package env

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	rowPlaceholder  = regexp.MustCompile(`^\s*\d+\s*$`)
)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// LookupFunc reads one process environment value
type LookupFunc func(key string) (string, bool)

// Resolver substitutes variables with thread-safe access to its variable set
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	lookup    LookupFunc
	warnFunc  WarnFunc
}

// NewResolver reads $NAME references through lookup. A nil lookup disables
// them.
func NewResolver(lookup LookupFunc) *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		lookup:    lookup,
	}
}

// SetWarnFunc sets a function to be called for unresolved references
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve replaces every named reference in input. Unresolved references and
// row placeholders are kept verbatim.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := match[2 : len(match)-2]
		if rowPlaceholder.MatchString(expr) {
			return match
		}
		expr = strings.TrimSpace(expr)

		if name, ok := strings.CutPrefix(expr, "$"); ok {
			if r.lookup != nil {
				if val, ok := r.lookup(name); ok {
					return val
				}
			}
			r.warn("unresolved environment variable: $%s", name)
			return match
		}

		if val, ok := r.GetVariable(expr); ok {
			return fmt.Sprintf("%v", val)
		}

		r.warn("unresolved variable: %s", expr)
		return match
	})
}

// Unresolved lists the named references Resolve would leave in input
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(r.Resolve(input), -1) {
		if !rowPlaceholder.MatchString(m[1]) {
			names = append(names, strings.TrimSpace(m[1]))
		}
	}
	return names
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver(r.lookup)
	clone.warnFunc = r.warnFunc
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	return clone
}
