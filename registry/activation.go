package registry

import "fmt"

// Hook is the lifecycle hook pair a module's LifecycleClass names, looked
// up by name in the registry's hook table — a name-indexed substitute for
// reflective method dispatch, per the "deep lifecycle hook dispatch"
// design note. Either field may be nil: a module whose class or method is
// absent is simply not called, not an error.
type Hook struct {
	Activate   func(m *Module) (interface{}, error)
	Deactivate func(m *Module, contextValue interface{}) error
}

// ActivateRecursively activates m and, if m was not already active,
// recursively activates its non-nil forward dependencies first, then
// invokes m's lifecycle hook. If any step fails, every module this call
// newly brought from counter 0 to 1 is deactivated again before the error
// is returned, so a failed activation never leaves a partial subtree
// active.
func (r *Registry) ActivateRecursively(m *Module) error {
	var newlyActivated []*Module
	if err := r.activate(m, &newlyActivated); err != nil {
		// newlyActivated already enumerates the whole newly-activated
		// subtree, so each entry is unwound on its own: a recursive
		// deactivate would walk back down into dependents already in the
		// list, decrementing them a second time.
		for i := len(newlyActivated) - 1; i >= 0; i-- {
			r.deactivateOne(newlyActivated[i])
		}
		return err
	}
	return nil
}

// deactivateOne decrements m's activation counter and, if it reaches zero,
// invokes m's deactivate hook, without recursing into m's dependencies.
func (r *Registry) deactivateOne(m *Module) error {
	m.mu.Lock()
	m.counter--
	last := m.counter == 0
	contextValue := m.contextValue
	m.mu.Unlock()

	if last && m.meta.LifecycleClass != "" {
		if hook, ok := r.hooks[m.meta.LifecycleClass]; ok && hook.Deactivate != nil {
			if err := hook.Deactivate(m, contextValue); err != nil {
				return fmt.Errorf("%s: %w: %v", m.meta.ID, ErrDeactivationFailed, err)
			}
		}
	}
	return nil
}

func (r *Registry) activate(m *Module, newlyActivated *[]*Module) error {
	m.mu.Lock()
	first := m.counter == 0
	m.mu.Unlock()

	if first {
		for _, dep := range r.Forward(m) {
			if dep == nil {
				continue
			}
			if err := r.activate(dep, newlyActivated); err != nil {
				return fmt.Errorf("%s: %w: %v", m.meta.ID, ErrActivationFailed, err)
			}
		}

		var contextValue interface{}
		if m.meta.LifecycleClass != "" {
			if hook, ok := r.hooks[m.meta.LifecycleClass]; ok && hook.Activate != nil {
				v, err := hook.Activate(m)
				if err != nil {
					return fmt.Errorf("%s: %w: %v", m.meta.ID, ErrActivationFailed, err)
				}
				contextValue = v
			}
		}

		m.mu.Lock()
		m.contextValue = contextValue
		m.counter++
		m.mu.Unlock()
		*newlyActivated = append(*newlyActivated, m)
		return nil
	}

	m.mu.Lock()
	m.counter++
	m.mu.Unlock()
	return nil
}

// DeactivateRecursively decrements m's activation counter and, if it
// reaches zero, invokes m's deactivate hook (failure is reported but does
// not stop the traversal) and then recursively deactivates m's non-nil
// forward dependencies in declaration order.
func (r *Registry) DeactivateRecursively(m *Module) error {
	return r.deactivate(m)
}

func (r *Registry) deactivate(m *Module) error {
	m.mu.Lock()
	m.counter--
	last := m.counter == 0
	contextValue := m.contextValue
	m.mu.Unlock()

	var firstErr error
	if last {
		if m.meta.LifecycleClass != "" {
			if hook, ok := r.hooks[m.meta.LifecycleClass]; ok && hook.Deactivate != nil {
				if err := hook.Deactivate(m, contextValue); err != nil {
					firstErr = fmt.Errorf("%s: %w: %v", m.meta.ID, ErrDeactivationFailed, err)
				}
			}
		}
		for _, dep := range r.Forward(m) {
			if dep == nil {
				continue
			}
			if err := r.deactivate(dep); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
