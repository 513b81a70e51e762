package metadata

import (
	"sync"

	"github.com/google/uuid"
)

// materializers dispatches a table index to the constructor of the
// entity variant stored in that table. Lookup validity is defined by
// membership in this map, not by type inspection. Populated in init
// because some constructors build lazy cells that reach back through
// the module lookup, which reads this map.
var materializers map[TableIndex]func(*Module, Token) Entity

func init() {
	materializers = map[TableIndex]func(*Module, Token) Entity{
		TableTypeRef:      func(m *Module, t Token) Entity { return newTypeReferenceFromRow(m, t) },
		TableTypeDef:      func(m *Module, t Token) Entity { return newTypeDefinitionFromRow(m, t) },
		TableField:        func(m *Module, t Token) Entity { return newFieldDefinitionFromRow(m, t) },
		TableMethod:       func(m *Module, t Token) Entity { return newMethodDefinitionFromRow(m, t) },
		TableParam:        func(m *Module, t Token) Entity { return newParameterDefinitionFromRow(m, t) },
		TableMemberRef:    func(m *Module, t Token) Entity { return newMemberReferenceFromRow(m, t) },
		TableEvent:        func(m *Module, t Token) Entity { return newEventDefinitionFromRow(m, t) },
		TableProperty:     func(m *Module, t Token) Entity { return newPropertyDefinitionFromRow(m, t) },
		TableModuleRef:    func(m *Module, t Token) Entity { return newModuleReferenceFromRow(m, t) },
		TableTypeSpec:     func(m *Module, t Token) Entity { return newTypeSpecificationFromRow(m, t) },
		TableAssemblyRef:  func(m *Module, t Token) Entity { return newAssemblyReferenceFromRow(m, t) },
		TableExportedType: func(m *Module, t Token) Entity { return newExportedTypeFromRow(m, t) },
		TableModule:       func(m *Module, t Token) Entity { return m },
	}
}

// Module is the aggregate root of a metadata image: it owns the
// top-level types (and through them all nested types and members), the
// token resolution cache that guarantees reference identity, and the
// table provider used to materialize entities on demand.
type Module struct {
	name string
	mvid uuid.UUID

	tables  TableProvider
	strings StringProvider

	// resolver locates the modules of external assemblies. Nil means
	// cross-assembly resolution always yields "unresolved".
	resolver ModuleResolver

	mu       sync.RWMutex
	cache    map[Token]Entity
	topLevel []*TypeDefinition

	treeOnce sync.Once
}

// NewModule creates an empty in-memory module with a fresh MVID.
func NewModule(name string) *Module {
	return &Module{
		name:  name,
		mvid:  uuid.New(),
		cache: make(map[Token]Entity),
	}
}

// FromProvider creates a module backed by existing metadata tables.
// Entities materialize lazily as tokens are looked up.
func FromProvider(name string, mvid uuid.UUID, tables TableProvider, strings StringProvider) *Module {
	return &Module{
		name:    name,
		mvid:    mvid,
		tables:  tables,
		strings: strings,
		cache:   make(map[Token]Entity),
	}
}

func (m *Module) Name() string        { return m.name }
func (m *Module) SetName(name string) { m.name = name }

// MVID returns the module version identifier.
func (m *Module) MVID() uuid.UUID        { return m.mvid }
func (m *Module) SetMVID(mvid uuid.UUID) { m.mvid = mvid }

// Tables returns the backing table provider, nil for a module built in
// memory.
func (m *Module) Tables() TableProvider { return m.tables }

// SetResolver installs the resolver used for cross-assembly type
// resolution.
func (m *Module) SetResolver(resolver ModuleResolver) { m.resolver = resolver }

// Token makes the module addressable as the single row of the Module
// table.
func (m *Module) Token() Token {
	return NewToken(TableModule, 1)
}

// SetToken is part of Entity; the module's token is fixed.
func (m *Module) SetToken(Token) error { return nil }

// Module returns the module itself, satisfying Entity.
func (m *Module) Module() *Module { return m }

// ScopeName makes the module usable as a resolution scope.
func (m *Module) ScopeName() string { return m.name }

// LookupMember resolves a token to its live entity, materializing it
// on first request. It fails with ErrInvalidToken when the table is
// not member-bearing or the row id is out of range.
//
// Repeated lookups of the same token return the same object, so a
// mutation made through one reference site is visible from all others.
func (m *Module) LookupMember(token Token) (Entity, error) {
	construct, known := materializers[token.Table()]
	if !known {
		return nil, invalidToken(token, "table does not hold members")
	}
	if token.IsNull() {
		return nil, invalidToken(token, "null row id")
	}
	if m.tables == nil || token.RID() > m.tables.RowCount(token.Table()) {
		return nil, invalidToken(token, "row id out of range")
	}

	m.mu.RLock()
	entity, ok := m.cache[token]
	m.mu.RUnlock()
	if ok {
		return entity, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entity, ok := m.cache[token]; ok {
		return entity, nil
	}
	// The entity is fully constructed before it is published in the
	// cache; constructors defer cross-entity resolution to lazy cells,
	// so none of them re-enter the lookup lock.
	entity = construct(m, token)
	m.cache[token] = entity
	return entity, nil
}

// TryLookupMember is LookupMember for callers that must tolerate
// unresolved references, notably the instruction operand resolver.
func (m *Module) TryLookupMember(token Token) (Entity, bool) {
	entity, err := m.LookupMember(token)
	if err != nil {
		return nil, false
	}
	return entity, true
}

// TryLookupString resolves a user-string token against the #US heap.
func (m *Module) TryLookupString(token Token) (string, bool) {
	if token.Table() != TableUserString || m.strings == nil {
		return "", false
	}
	return m.strings.UserString(token.RID())
}

// TopLevelTypes returns the module's top-level type definitions in
// declaration order, materializing the owned tree from the backing
// tables on first call.
func (m *Module) TopLevelTypes() []*TypeDefinition {
	m.treeOnce.Do(m.materializeTree)
	return m.topLevel
}

// AddType appends a top-level type and claims ownership of it and its
// subtree.
func (m *Module) AddType(t *TypeDefinition) {
	m.treeOnce.Do(m.materializeTree)
	adoptType(t, m)
	m.topLevel = append(m.topLevel, t)
}

func adoptType(t *TypeDefinition, m *Module) {
	t.module = m
	for _, f := range t.fields {
		f.module = m
	}
	for _, method := range t.methods {
		method.module = m
		for _, p := range method.params {
			p.module = m
		}
	}
	for _, p := range t.properties {
		p.module = m
	}
	for _, e := range t.events {
		e.module = m
	}
	for _, n := range t.nested {
		adoptType(n, m)
	}
}

// RemoveType drops a top-level type from the module's owned list. The
// entity keeps its token; whether its original row leaves a gap in a
// rebuilt image is the builder's gap policy to decide.
func (m *Module) RemoveType(t *TypeDefinition) bool {
	m.treeOnce.Do(m.materializeTree)
	for i, existing := range m.topLevel {
		if existing == t {
			m.topLevel = append(m.topLevel[:i], m.topLevel[i+1:]...)
			return true
		}
	}
	return false
}

// GetType returns the top-level type with the given namespace and
// name, or nil.
func (m *Module) GetType(namespace, name string) *TypeDefinition {
	for _, t := range m.TopLevelTypes() {
		if t.Name() == name && t.Namespace() == namespace {
			return t
		}
	}
	return nil
}

// materializeTree builds the owned entity tree from the TypeDef,
// Field, Method, Param, Property and Event tables. Rows reference
// their parent through the Scope column; rows whose parent cannot be
// materialized are skipped rather than aborting the walk.
func (m *Module) materializeTree() {
	if m.tables == nil {
		return
	}

	// First pass materializes every type so nesting can point forward;
	// the second attaches nested types to their enclosing definition.
	typeCount := m.tables.RowCount(TableTypeDef)
	for rid := uint32(1); rid <= typeCount; rid++ {
		m.TryLookupMember(NewToken(TableTypeDef, rid))
	}

	for rid := uint32(1); rid <= typeCount; rid++ {
		entity, ok := m.TryLookupMember(NewToken(TableTypeDef, rid))
		if !ok {
			continue
		}
		t := entity.(*TypeDefinition)
		row, err := m.tables.ReadRow(TableTypeDef, rid)
		if err != nil {
			continue
		}
		if row.Scope.IsNull() || row.Scope.Table() != TableTypeDef {
			m.topLevel = append(m.topLevel, t)
			continue
		}
		if parent, ok := m.TryLookupMember(row.Scope); ok {
			def := parent.(*TypeDefinition)
			t.declaring = def
			def.nested = append(def.nested, t)
		}
	}

	m.attachMembers(TableField, func(parent *TypeDefinition, e Entity) {
		f := e.(*FieldDefinition)
		f.declaring = parent
		parent.fields = append(parent.fields, f)
	})
	m.attachMembers(TableMethod, func(parent *TypeDefinition, e Entity) {
		md := e.(*MethodDefinition)
		md.declaring = parent
		parent.methods = append(parent.methods, md)
	})
	m.attachMembers(TableProperty, func(parent *TypeDefinition, e Entity) {
		p := e.(*PropertyDefinition)
		p.declaring = parent
		parent.properties = append(parent.properties, p)
	})
	m.attachMembers(TableEvent, func(parent *TypeDefinition, e Entity) {
		ev := e.(*EventDefinition)
		ev.declaring = parent
		parent.events = append(parent.events, ev)
	})

	// Parameters hang off methods rather than types.
	paramCount := m.tables.RowCount(TableParam)
	for rid := uint32(1); rid <= paramCount; rid++ {
		row, err := m.tables.ReadRow(TableParam, rid)
		if err != nil || row.Scope.Table() != TableMethod {
			continue
		}
		owner, ok := m.TryLookupMember(row.Scope)
		if !ok {
			continue
		}
		method := owner.(*MethodDefinition)
		param, ok := m.TryLookupMember(NewToken(TableParam, rid))
		if !ok {
			continue
		}
		p := param.(*ParameterDefinition)
		p.method = method
		method.params = append(method.params, p)
	}
}

func (m *Module) attachMembers(table TableIndex, attach func(*TypeDefinition, Entity)) {
	count := m.tables.RowCount(table)
	for rid := uint32(1); rid <= count; rid++ {
		row, err := m.tables.ReadRow(table, rid)
		if err != nil || row.Scope.Table() != TableTypeDef {
			continue
		}
		parent, ok := m.TryLookupMember(row.Scope)
		if !ok {
			continue
		}
		member, ok := m.TryLookupMember(NewToken(table, rid))
		if !ok {
			continue
		}
		attach(parent.(*TypeDefinition), member)
	}
}

// resolveType maps a type reference to its definition by walking the
// reference's scope chain. Re-export hops through exported types are
// followed with a visited set so cycles terminate as unresolved.
func (m *Module) resolveType(ref *TypeReference) *TypeDefinition {
	return m.resolveTypeIn(ref.Scope(), ref.Namespace(), ref.Name(), make(map[Entity]bool))
}

func (m *Module) resolveTypeIn(scope ResolutionScope, namespace, name string, visited map[Entity]bool) *TypeDefinition {
	switch s := scope.(type) {
	case nil:
		return m.findDefined(m, namespace, name, visited)
	case *Module:
		return m.findDefined(s, namespace, name, visited)
	case *AssemblyReference:
		if m.resolver == nil {
			return nil
		}
		target, ok := m.resolver.ResolveAssembly(s.Name())
		if !ok {
			return nil
		}
		return m.findDefined(target, namespace, name, visited)
	case *ModuleReference:
		if m.resolver == nil {
			return nil
		}
		target, ok := m.resolver.ResolveAssembly(s.Name())
		if !ok {
			return nil
		}
		return m.findDefined(target, namespace, name, visited)
	case *TypeReference:
		declaring := s.Resolve()
		if declaring == nil {
			return nil
		}
		return declaring.GetNestedType(name)
	default:
		return nil
	}
}

// findDefined looks for a definition in the target module, falling
// back to its exported-type forwarders.
func (m *Module) findDefined(target *Module, namespace, name string, visited map[Entity]bool) *TypeDefinition {
	if def := target.GetType(namespace, name); def != nil {
		return def
	}
	if target.tables == nil {
		return nil
	}
	count := target.tables.RowCount(TableExportedType)
	for rid := uint32(1); rid <= count; rid++ {
		entity, ok := target.TryLookupMember(NewToken(TableExportedType, rid))
		if !ok {
			continue
		}
		exported := entity.(*ExportedType)
		if exported.Name() != name || exported.Namespace() != namespace {
			continue
		}
		if visited[exported] {
			return nil
		}
		visited[exported] = true
		if scope, ok := exported.Implementation().(ResolutionScope); ok {
			return target.resolveTypeIn(scope, namespace, name, visited)
		}
	}
	return nil
}
