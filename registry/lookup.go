package registry

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/diet4j/diet4j/artifact"
)

// ErrCodeNotFound is returned by lookupContext.LoadCode when name cannot be
// resolved anywhere in the allow-list, the module's own artifact, or its
// dependency graph.
var ErrCodeNotFound = errors.New("code unit not found")

// CodeUnit is the opaque handle a successful code lookup returns: the
// bytes backing the named resource, plus the module whose artifact
// resolved it. The wire format of those bytes is deliberately left
// abstract, same as the distilled spec leaves "Code" abstract.
type CodeUnit struct {
	Name   string
	Source []byte
	Module *Module
}

// SystemContext is the ambient, non-module-graph context that allow-listed
// names always resolve through: platform packages, the infrastructure's
// own packages, and similar host-supplied names.
type SystemContext interface {
	Load(name string) (*CodeUnit, bool)
}

// lookupContext is a Module's isolated code/resource lookup scope: local
// artifact first, then declared dependencies in order, with a persistent
// negative cache and an in-flight set that breaks lookup cycles (A -> B ->
// A asking for the same name) without requiring the cache to already hold
// an answer.
type lookupContext struct {
	module *Module

	mu       sync.Mutex
	cache    map[string]*CodeUnit
	negative map[string]bool
	inflight map[string]bool
}

// Context lazily allocates and returns m's lookup context.
func (m *Module) Context() *lookupContext {
	m.lookupOnce.Do(func() {
		m.lookup = &lookupContext{
			module:   m,
			cache:    make(map[string]*CodeUnit),
			negative: make(map[string]bool),
			inflight: make(map[string]bool),
		}
	})
	return m.lookup
}

func (c *lookupContext) matchesAllowList(name string) bool {
	for _, prefix := range c.module.registry.AllowList {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// LoadCode resolves name to a CodeUnit. resolve=false restricts the search
// to the allow-list and this context's own cache, skipping the
// module-graph search; resolve=true (the normal top-level query) also
// searches the module's own artifact and, on a local miss, delegates to
// each dependency's context in declaration order.
func (c *lookupContext) LoadCode(name string, resolve bool) (*CodeUnit, error) {
	c.mu.Lock()
	if unit, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return unit, nil
	}
	if c.negative[name] || c.inflight[name] {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", name, ErrCodeNotFound)
	}
	c.inflight[name] = true
	c.mu.Unlock()

	unit, err := c.resolveCode(name, resolve)

	c.mu.Lock()
	delete(c.inflight, name)
	if err == nil {
		c.cache[name] = unit // a given name is defined at most once in this context
	} else if resolve {
		// A resolve=false miss never searched the module graph, so it is
		// not recorded as a definitive failure.
		c.negative[name] = true
	}
	c.mu.Unlock()
	return unit, err
}

func (c *lookupContext) resolveCode(name string, resolve bool) (*CodeUnit, error) {
	if c.matchesAllowList(name) {
		system := c.module.registry.System
		if system != nil {
			if unit, ok := system.Load(name); ok {
				return unit, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", name, ErrCodeNotFound)
	}
	if !resolve {
		return nil, fmt.Errorf("%s: %w", name, ErrCodeNotFound)
	}

	m := c.module.meta
	entry := m.ResourcePrefix + name
	if rc, err := m.Artifact.Open(entry); err == nil {
		data, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr == nil {
			return &CodeUnit{Name: name, Source: data, Module: c.module}, nil
		}
	}

	for _, dep := range c.module.registry.Forward(c.module) {
		if dep == nil {
			continue
		}
		if unit, err := dep.Context().LoadCode(name, true); err == nil {
			return unit, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrCodeNotFound)
}

// FindResource returns a locator for name, searching the module's own
// artifact first and then its dependencies in declaration order, with
// visited tracking so a dependency cycle terminates instead of looping.
func (c *lookupContext) FindResource(name string) (artifact.Locator, bool) {
	return c.findResource(name, make(map[*Module]bool))
}

func (c *lookupContext) findResource(name string, visited map[*Module]bool) (artifact.Locator, bool) {
	if visited[c.module] {
		return "", false
	}
	visited[c.module] = true

	m := c.module.meta
	entry := m.ResourcePrefix + name
	for _, e := range m.Artifact.Entries() {
		if e == entry {
			return artifact.NewLocator(m.Artifact.Path(), entry), true
		}
	}

	for _, dep := range c.module.registry.Forward(c.module) {
		if dep == nil {
			continue
		}
		if loc, ok := dep.Context().findResource(name, visited); ok {
			return loc, true
		}
	}
	return "", false
}

// FindResources returns every locator matching name reachable from this
// context: a local match first (if present), followed by each dependency's
// own enumeration in declaration order.
func (c *lookupContext) FindResources(name string) []artifact.Locator {
	return c.findResources(name, make(map[*Module]bool))
}

func (c *lookupContext) findResources(name string, visited map[*Module]bool) []artifact.Locator {
	if visited[c.module] {
		return nil
	}
	visited[c.module] = true

	var locators []artifact.Locator
	m := c.module.meta
	entry := m.ResourcePrefix + name
	for _, e := range m.Artifact.Entries() {
		if e == entry {
			locators = append(locators, artifact.NewLocator(m.Artifact.Path(), entry))
		}
	}

	for _, dep := range c.module.registry.Forward(c.module) {
		if dep == nil {
			continue
		}
		locators = append(locators, dep.Context().findResources(name, visited)...)
	}
	return locators
}

// DependencyContexts returns the lookup context for each forward
// dependency, preserving declaration order and nil slots for unsatisfied
// optional dependencies.
func (c *lookupContext) DependencyContexts() []*lookupContext {
	forward := c.module.registry.Forward(c.module)
	contexts := make([]*lookupContext, len(forward))
	for i, dep := range forward {
		if dep != nil {
			contexts[i] = dep.Context()
		}
	}
	return contexts
}
