package checks

import (
	"log/slog"
	"sort"
)

// Registry maps check names to Check implementations. Lookup has no side
// effects; an unresolved name is a data condition the caller records as an
// errored result for that one check.
type Registry struct {
	checks map[string]Check
}

// NewRegistry creates a registry holding the given checks, keyed by name.
func NewRegistry(cs ...Check) *Registry {
	r := &Registry{checks: make(map[string]Check, len(cs))}
	for _, c := range cs {
		r.checks[c.Name()] = c
	}
	return r
}

// Register adds or replaces a check under its name.
func (r *Registry) Register(c Check) {
	r.checks[c.Name()] = c
}

// Resolve returns the check registered under name, if any.
func (r *Registry) Resolve(name string) (Check, bool) {
	c, ok := r.checks[name]
	return c, ok
}

// Names returns the registered check names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry with all built-in checks registered.
func Default(logger *slog.Logger) *Registry {
	return NewRegistry(
		NewPingCheck(logger),
		NewPortScanCheck(logger),
		NewHeadersCheck(logger),
		NewSSLCheck(logger),
		NewDNSCheck(logger),
		NewBruteforceCheck(logger),
	)
}
