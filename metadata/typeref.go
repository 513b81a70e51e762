package metadata

// TypeReference is a type named in another scope: the current module,
// another module of the same assembly, an external assembly, or an
// enclosing type reference for nested types. Name, namespace and scope
// are resolved lazily from the backing TypeRef row on first access.
type TypeReference struct {
	entityBase

	name      *Lazy[string]
	namespace *Lazy[string]
	scope     *Lazy[ResolutionScope]
}

// NewTypeReference constructs an in-memory type reference with a null
// token. The scope may be nil for a reference whose scope is assigned
// later.
func NewTypeReference(scope ResolutionScope, namespace, name string) *TypeReference {
	t := &TypeReference{}
	t.name = LazyValue(name)
	t.namespace = LazyValue(namespace)
	t.scope = LazyValue(scope)
	return t
}

// newTypeReferenceFromRow materializes a reference for an existing
// TypeRef row. All cells stay unresolved until first use.
func newTypeReferenceFromRow(module *Module, token Token) *TypeReference {
	t := &TypeReference{}
	t.module = module
	t.token = token
	t.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := t.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	t.namespace = NewLazy(func(owner any) (string, error) {
		row, ok, err := t.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Namespace, nil
	})
	t.scope = NewLazy(func(owner any) (ResolutionScope, error) {
		row, ok, err := t.readRow()
		if err != nil || !ok {
			return nil, err
		}
		if row.Scope.IsNull() {
			return nil, nil
		}
		entity, found := module.TryLookupMember(row.Scope)
		if !found {
			// Unresolvable scope is a soft condition; the reference
			// simply stays scope-less.
			return nil, nil
		}
		scope, isScope := entity.(ResolutionScope)
		if !isScope {
			return nil, nil
		}
		return scope, nil
	})
	return t
}

func (t *TypeReference) Name() string        { return t.name.MustGet(t) }
func (t *TypeReference) SetName(name string) { t.name.Set(name) }

func (t *TypeReference) Namespace() string { return t.namespace.MustGet(t) }

// SetNamespace overwrites the cached namespace without re-running the
// row resolver.
func (t *TypeReference) SetNamespace(namespace string) { t.namespace.Set(namespace) }

// Scope returns the reference's resolution scope, or nil when the
// scope is absent or could not be resolved.
func (t *TypeReference) Scope() ResolutionScope { return t.scope.MustGet(t) }

func (t *TypeReference) SetScope(scope ResolutionScope) { t.scope.Set(scope) }

// DeclaringType returns the enclosing type for a nested type
// reference, which is its scope; nil otherwise.
func (t *TypeReference) DeclaringType() TypeDescriptor {
	if declaring, ok := t.Scope().(TypeDescriptor); ok {
		return declaring
	}
	return nil
}

// FullName renders the type's display name from the currently cached
// cells. Nested references are qualified by their enclosing type; a
// scope cycle terminates the walk instead of recursing forever.
func (t *TypeReference) FullName() string {
	return typeFullName(t, make(map[Entity]bool))
}

// ScopeName makes a type reference usable as the scope of a nested
// reference.
func (t *TypeReference) ScopeName() string { return t.FullName() }

// Resolve finds the TypeDefinition this reference names by walking its
// scope chain. It returns nil when the defining module cannot be
// located.
func (t *TypeReference) Resolve() *TypeDefinition {
	if t.module == nil {
		return nil
	}
	return t.module.resolveType(t)
}

// typeFullName walks declaring-type chains with a visited set so that
// re-export cycles yield a stable name instead of unbounded recursion.
func typeFullName(t TypeDescriptor, visited map[Entity]bool) string {
	if visited[t] {
		return fullNameOf(t.Namespace(), t.Name())
	}
	visited[t] = true
	if declaring := t.DeclaringType(); declaring != nil {
		return typeFullName(declaring, visited) + "/" + t.Name()
	}
	return fullNameOf(t.Namespace(), t.Name())
}
