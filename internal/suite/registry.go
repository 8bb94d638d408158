package suite

import (
	"fmt"
	"path"
	"sync"
)

// Registry holds checks in registration order
type Registry struct {
	mu     sync.RWMutex
	checks []*Check
	byName map[string]*Check
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Check)}
}

// Register adds a check. It panics on an unnamed, bodiless or duplicate
// check, since registration happens from init.
func (r *Registry) Register(c *Check) {
	if c == nil || c.Name == "" {
		panic("suite: check registered without a name")
	}
	if c.Func == nil {
		panic(fmt.Sprintf("suite: check %s registered without a body", c.Name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[c.Name]; exists {
		panic(fmt.Sprintf("suite: check %s registered twice", c.Name))
	}
	r.byName[c.Name] = c
	r.checks = append(r.checks, c)
}

// All returns the registered checks in registration order
func (r *Registry) All() []*Check {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Lookup returns the check registered under name
func (r *Registry) Lookup(name string) (*Check, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

var defaultRegistry = NewRegistry()

// Register adds a check to the default registry
func Register(c *Check) {
	defaultRegistry.Register(c)
}

// All returns the checks of the default registry
func All() []*Check {
	return defaultRegistry.All()
}

// Lookup finds a check in the default registry
func Lookup(name string) (*Check, bool) {
	return defaultRegistry.Lookup(name)
}

// Select keeps the checks whose name matches any of the glob patterns, in
// their original order. No patterns selects everything. A pattern that
// matches nothing is an error so typos don't silently run an empty suite.
func Select(checks []*Check, patterns []string) ([]*Check, error) {
	if len(patterns) == 0 {
		return checks, nil
	}

	matched := make(map[string]bool, len(patterns))
	var out []*Check
	for _, c := range checks {
		keep := false
		for _, p := range patterns {
			ok, err := path.Match(p, c.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid check pattern %q: %w", p, err)
			}
			if ok {
				matched[p] = true
				keep = true
			}
		}
		if keep {
			out = append(out, c)
		}
	}

	for _, p := range patterns {
		if !matched[p] {
			return nil, fmt.Errorf("no check matches %q", p)
		}
	}
	return out, nil
}

// WithFeature keeps the checks that require feature
func WithFeature(checks []*Check, feature string) []*Check {
	var out []*Check
	for _, c := range checks {
		for _, f := range c.Features {
			if f == feature {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// missingFeatures returns the features c needs that are not enabled
func missingFeatures(c *Check, enabled map[string]bool) []string {
	var missing []string
	for _, f := range c.Features {
		if !enabled[f] {
			missing = append(missing, f)
		}
	}
	return missing
}
