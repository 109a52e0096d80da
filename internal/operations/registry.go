package operations

import (
	"fmt"
	"sync"
)

// Registry holds the steps of a run. Registration order is execution order.
type Registry struct {
	mu    sync.RWMutex
	steps []Step
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends step. IDs must be non-empty and unique.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.steps {
		if s.ID() == id {
			return fmt.Errorf("step %s already registered", id)
		}
	}
	r.steps = append(r.steps, step)
	return nil
}

// List returns a copy of the registered steps in execution order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return steps
}

// stepIDs returns the IDs of steps in order
func stepIDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}
