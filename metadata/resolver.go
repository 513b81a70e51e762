package metadata

import "sync"

// ModuleResolver locates the module of an external assembly by its
// simple name. Returning false means the assembly cannot be found;
// type resolution then terminates as "unresolved" rather than failing.
type ModuleResolver interface {
	ResolveAssembly(name string) (*Module, bool)
}

// MapModuleResolver is an in-memory ModuleResolver backed by a
// name-keyed registry. Safe for concurrent use.
type MapModuleResolver struct {
	mu      sync.RWMutex
	modules map[string]*Module
}

// NewMapModuleResolver creates an empty registry.
func NewMapModuleResolver() *MapModuleResolver {
	return &MapModuleResolver{modules: make(map[string]*Module)}
}

// Register adds a module under the given assembly name, replacing any
// previous entry.
func (r *MapModuleResolver) Register(name string, module *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = module
}

// ResolveAssembly implements ModuleResolver.
func (r *MapModuleResolver) ResolveAssembly(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}
