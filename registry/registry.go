// Package registry indexes module metadata, resolves requirements to
// concrete module instances, builds the isolated per-module lookup graph
// (lookup.go) and drives the activation lifecycle (activation.go).
package registry

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/diet4j/diet4j/internal/diagnostic"
	"github.com/diet4j/diet4j/meta"
	"github.com/diet4j/diet4j/version"
)

// Module is a resolved ModuleMeta bound to a registry: a lazily-allocated
// lookup context, an activation counter, and the context value its
// lifecycle hook returned while active.
type Module struct {
	meta     *meta.ModuleMeta
	registry *Registry

	mu           sync.Mutex
	counter      int
	contextValue interface{}

	lookupOnce sync.Once
	lookup     *lookupContext
}

// Meta returns the ModuleMeta this Module resolved.
func (m *Module) Meta() *meta.ModuleMeta { return m.meta }

// ID returns the module's identity.
func (m *Module) ID() version.ModuleID { return m.meta.ID }

// Active reports whether the module's activation counter is currently > 0.
func (m *Module) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter > 0
}

// Registry is the process-wide handle passed explicitly to every
// collaborator that needs it (such as cmd/diet4j) rather than a package-level
// singleton, per the "global singleton registry" design note.
type Registry struct {
	mu       sync.Mutex
	metas    map[string]map[string][]*meta.ModuleMeta // metas[artifact][group], newest-first
	resolved map[version.ModuleID]*Module
	forward  map[*Module][]*Module // one slot per declared requirement; nil = unsatisfied optional
	reverse  map[*Module][]*Module
	settings map[version.Requirement]map[string]string

	listenersMu sync.Mutex
	listeners   []Listener

	hooks map[string]Hook

	// AllowList and System implement the isolated lookup context's
	// allow-list delegation (see lookup.go): a name matching one of these
	// prefixes is always resolved via System, never via the module graph.
	AllowList []string
	System    SystemContext
}

// Listener is notified when a module is indexed. Registered/unregistered
// under listenersMu, a lock distinct from the resolve lock (mu), matching
// the spec's explicit split between "the registry resolve lock" and "the
// registry instance lock".
type Listener func(m *meta.ModuleMeta)

// New returns an empty Registry ready to index modules into.
func New() *Registry {
	return &Registry{
		metas:    make(map[string]map[string][]*meta.ModuleMeta),
		resolved: make(map[version.ModuleID]*Module),
		forward:  make(map[*Module][]*Module),
		reverse:  make(map[*Module][]*Module),
		settings: make(map[version.Requirement]map[string]string),
		hooks:    make(map[string]Hook),
	}
}

// AddListener registers l to be called for every subsequently indexed
// module.
func (r *Registry) AddListener(l Listener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *Registry) notifyListeners(m *meta.ModuleMeta) {
	r.listenersMu.Lock()
	listeners := append([]Listener(nil), r.listeners...)
	r.listenersMu.Unlock()
	for _, l := range listeners {
		l(m)
	}
}

// RegisterHook installs the lifecycle hook invoked for modules whose
// meta.LifecycleClass equals name.
func (r *Registry) RegisterHook(name string, hook Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = hook
}

// Index inserts m into the registry, keeping metas[artifact][group] sorted
// newest-version-first (invariant 1). A duplicate version (same triple
// already indexed) is dropped with a warning; the first-seen entry is kept.
// Reports whether m was newly indexed.
func (r *Registry) Index(m *meta.ModuleMeta) bool {
	r.mu.Lock()
	byGroup, ok := r.metas[m.ID.Artifact]
	if !ok {
		byGroup = make(map[string][]*meta.ModuleMeta)
		r.metas[m.ID.Artifact] = byGroup
	}
	list := byGroup[m.ID.Group]

	mv := version.NewVersion(m.ID.Version)
	pos := 0
	for pos < len(list) {
		c := version.Compare(mv, version.NewVersion(list[pos].ID.Version))
		if c == 0 {
			r.mu.Unlock()
			diagnostic.Warningf("duplicate module %s found, keeping the first copy indexed", m.ID)
			return false
		}
		if c > 0 {
			break
		}
		pos++
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = m
	byGroup[m.ID.Group] = list
	r.mu.Unlock()

	r.notifyListeners(m)
	return true
}

// Candidates returns every indexed ModuleMeta satisfying req, sorted
// exact-hit-first and newest-version-first within each class.
func (r *Registry) Candidates(req version.Requirement) []*meta.ModuleMeta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidatesLocked(req)
}

func (r *Registry) candidatesLocked(req version.Requirement) []*meta.ModuleMeta {
	byGroup, ok := r.metas[req.Artifact]
	if !ok {
		return nil
	}

	var pool []*meta.ModuleMeta
	if req.Group != "" {
		pool = byGroup[req.Group]
	} else {
		for _, list := range byGroup {
			pool = append(pool, list...)
		}
	}

	type scored struct {
		m     *meta.ModuleMeta
		score int
	}
	var hits []scored
	for _, m := range pool {
		if s := version.Match(req, m.ID); s != version.NoMatch {
			hits = append(hits, scored{m, s})
		}
	}

	// Stable two-pass partition (exact hits first) preserves each group's
	// existing newest-first order within a class.
	var exact, rest []*meta.ModuleMeta
	for _, h := range hits {
		if h.score == version.ExactMatch {
			exact = append(exact, h.m)
		} else {
			rest = append(rest, h.m)
		}
	}
	sortNewestFirst(exact)
	sortNewestFirst(rest)
	return append(exact, rest...)
}

func sortNewestFirst(ms []*meta.ModuleMeta) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0; j-- {
			a, b := version.NewVersion(ms[j-1].ID.Version), version.NewVersion(ms[j].ID.Version)
			if version.Compare(a, b) >= 0 {
				break
			}
			ms[j-1], ms[j] = ms[j], ms[j-1]
		}
	}
}

// Single returns the sole candidate for req, failing with ErrNoCandidate or
// ErrNotUnique if the candidate set's size isn't exactly one.
func (r *Registry) Single(req version.Requirement) (*meta.ModuleMeta, error) {
	candidates := r.Candidates(req)
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%s: %w", req, ErrNoCandidate)
	case 1:
		return candidates[0], nil
	default:
		return nil, fmt.Errorf("%s: %w (%d candidates)", req, ErrNotUnique, len(candidates))
	}
}

// Resolve resolves m to a Module, recursively resolving its declared
// dependencies when recursive is true. Resolving an already-resolved
// ModuleId returns the same instance (invariant 4): the placeholder for m
// is inserted into resolved before its dependencies are walked, so a cycle
// A -> B -> A terminates on A's own in-progress placeholder instead of
// recursing forever.
func (r *Registry) Resolve(m *meta.ModuleMeta, recursive bool) (*Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(m, recursive)
}

func (r *Registry) resolveLocked(m *meta.ModuleMeta, recursive bool) (*Module, error) {
	if existing, ok := r.resolved[m.ID]; ok {
		return existing, nil
	}

	mod := &Module{meta: m, registry: r}
	r.resolved[m.ID] = mod

	if !recursive {
		return mod, nil
	}

	forward := make([]*Module, len(m.Requirements))
	for i, declared := range m.Requirements {
		candidates := r.candidatesLocked(declared.Req)
		var resolvedDep *Module
		var lastErr error
		for _, candidate := range candidates {
			dep, err := r.resolveLocked(candidate, true)
			if err != nil {
				lastErr = err
				continue
			}
			resolvedDep = dep
			break
		}
		if resolvedDep == nil {
			if !declared.Optional {
				// m's own placeholder (inserted above, purely to guard
				// against resolution cycles) never got a forward vector
				// published, so it must not be left memoized: a later
				// resolveLocked(m, ...) would otherwise hit the cache at
				// the top of this function and return it as if resolved,
				// with no error and an empty forward slice.
				delete(r.resolved, m.ID)
				return nil, fmt.Errorf("%s: %w: %s: %v", m.ID, ErrUnresolvableDependency, declared.Req, lastErr)
			}
			continue // forward[i] stays nil: unsatisfied optional dependency
		}
		forward[i] = resolvedDep
	}

	r.forward[mod] = forward
	for _, dep := range forward {
		if dep == nil {
			continue
		}
		if !containsModule(r.reverse[dep], mod) {
			r.reverse[dep] = append(r.reverse[dep], mod)
		}
	}
	return mod, nil
}

func containsModule(list []*Module, m *Module) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

// NameSet returns every indexed artifact identifier, optionally filtered by
// pattern (a nil pattern matches everything).
func (r *Registry) NameSet(pattern *regexp.Regexp) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for name := range r.metas {
		if pattern == nil || pattern.MatchString(name) {
			names = append(names, name)
		}
	}
	return names
}

// Forward returns a copy of m's forward dependency vector (entries may be
// nil for unsatisfied optional dependencies).
func (r *Registry) Forward(m *Module) []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Module(nil), r.forward[m]...)
}

// Reverse returns every module that depends on m.
func (r *Registry) Reverse(m *Module) []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Module(nil), r.reverse[m]...)
}

// Settings returns the user-supplied configuration for req's matching
// module, populated from "REQ!NAME" configuration keys.
func (r *Registry) Settings(req version.Requirement) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings[req]
}

// SetSetting records a single configuration value for req.
func (r *Registry) SetSetting(req version.Requirement, name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.settings[req]
	if !ok {
		m = make(map[string]string)
		r.settings[req] = m
	}
	m[name] = value
}
