package engine

import (
	"sort"
	"sync"

	"github.com/nbartley/sequent/internal/model"
)

// Registry hands out per-project coordinators. Each project's graph is
// an independently lockable unit; there is no cross-project coordination
// and projects are processed fully independently.
type Registry struct {
	mu     sync.RWMutex
	coords map[model.ProjectID]*Coordinator
	opts   []Option
}

// NewRegistry creates a registry. The given options are applied to every
// coordinator it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		coords: make(map[model.ProjectID]*Coordinator),
		opts:   opts,
	}
}

// Get returns the project's coordinator, creating it on first use.
func (r *Registry) Get(project model.ProjectID) *Coordinator {
	r.mu.RLock()
	c, ok := r.coords[project]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.coords[project]; ok {
		return c
	}
	c = New(project, r.opts...)
	r.coords[project] = c
	return c
}

// Lookup returns the project's coordinator without creating one.
func (r *Registry) Lookup(project model.ProjectID) (*Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.coords[project]
	return c, ok
}

// Attach registers an externally built coordinator (e.g. one rebuilt by
// Replay), replacing any existing coordinator for the project.
func (r *Registry) Attach(c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coords[c.Project()] = c
}

// Projects returns the registered project ids, sorted.
func (r *Registry) Projects() []model.ProjectID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ProjectID, 0, len(r.coords))
	for p := range r.coords {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
