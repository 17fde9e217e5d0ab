package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/oops"
)

// ErrUnknownAction is returned by Invoke for names that were never registered.
var ErrUnknownAction = errors.New("unknown action")

// Registry is the fixed catalog of actions the assistant may invoke.
// It is filled at startup and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	frozen  bool
	order   []string
	actions map[string]Action
}

func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register adds an action. Collisions and late registration are programming errors and panic.
func (r *Registry) Register(spec ActionSpec, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		panic(fmt.Sprintf("registry: register %q after freeze", spec.Name))
	}
	if spec.Name == "" {
		panic("registry: empty action name")
	}
	if handler == nil {
		panic(fmt.Sprintf("registry: nil handler for %q", spec.Name))
	}
	if _, exists := r.actions[spec.Name]; exists {
		panic(fmt.Sprintf("registry: duplicate action %q", spec.Name))
	}

	seen := make(map[string]bool, len(spec.Parameters))
	for _, field := range spec.Parameters {
		if seen[field.Name] {
			panic(fmt.Sprintf("registry: duplicate field %q in %q", field.Name, spec.Name))
		}
		seen[field.Name] = true
	}

	schema, err := compileArgs(spec)
	if err != nil {
		panic(fmt.Sprintf("registry: schema of %q: %v", spec.Name, err))
	}

	r.order = append(r.order, spec.Name)
	r.actions[spec.Name] = Action{Spec: spec, Handler: handler, schema: schema}
}

func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Lookup(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[name]
	return action, ok
}

// DescribeAll returns the full catalog in registration order.
func (r *Registry) DescribeAll() []ActionSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ActionSpec, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.actions[name].Spec)
	}

	return result
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Invoke validates raw arguments and calls the handler.
func (r *Registry) Invoke(ctx context.Context, name string, raw map[string]any) (string, error) {
	action, ok := r.Lookup(name)
	if !ok {
		return "", oops.With("action", name).Wrap(ErrUnknownAction)
	}

	args, err := action.Validate(raw)
	if err != nil {
		return "", err
	}

	return action.Handler(ctx, args)
}
