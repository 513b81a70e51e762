package metadata

import "fmt"

// ModuleReference names another module of the same assembly.
type ModuleReference struct {
	entityBase

	name *Lazy[string]
}

// NewModuleReference constructs an in-memory module reference.
func NewModuleReference(name string) *ModuleReference {
	return &ModuleReference{name: LazyValue(name)}
}

func newModuleReferenceFromRow(module *Module, token Token) *ModuleReference {
	m := &ModuleReference{}
	m.module = module
	m.token = token
	m.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := m.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	return m
}

func (m *ModuleReference) Name() string        { return m.name.MustGet(m) }
func (m *ModuleReference) SetName(name string) { m.name.Set(name) }
func (m *ModuleReference) ScopeName() string   { return m.Name() }

// AssemblyVersion is the major/minor/build/revision quadruple of an
// assembly reference.
type AssemblyVersion struct {
	Major, Minor, Build, Revision uint16
}

func (v AssemblyVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}

// AssemblyReference names an external assembly. Resolving a type
// scoped to one requires a ModuleResolver that can locate the
// assembly's module.
type AssemblyReference struct {
	entityBase

	name    *Lazy[string]
	version AssemblyVersion
}

// NewAssemblyReference constructs an in-memory assembly reference.
func NewAssemblyReference(name string, version AssemblyVersion) *AssemblyReference {
	return &AssemblyReference{name: LazyValue(name), version: version}
}

func newAssemblyReferenceFromRow(module *Module, token Token) *AssemblyReference {
	a := &AssemblyReference{}
	a.module = module
	a.token = token
	a.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := a.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	if row, ok, err := a.readRow(); err == nil && ok {
		a.version = row.Version
	}
	return a
}

func (a *AssemblyReference) Name() string             { return a.name.MustGet(a) }
func (a *AssemblyReference) SetName(name string)      { a.name.Set(name) }
func (a *AssemblyReference) Version() AssemblyVersion { return a.version }

func (a *AssemblyReference) ScopeName() string {
	return fmt.Sprintf("%s, Version=%s", a.Name(), a.version)
}

// MemberReference names a member of another type, typically one
// defined in another module. The declaring type is resolved lazily
// from the row's parent token.
type MemberReference struct {
	entityBase

	name      *Lazy[string]
	parent    *Lazy[TypeDescriptor]
	signature []byte
}

// NewMemberReference constructs an in-memory member reference.
func NewMemberReference(parent TypeDescriptor, name string, signature []byte) *MemberReference {
	m := &MemberReference{
		name:      LazyValue(name),
		parent:    LazyValue(parent),
		signature: signature,
	}
	return m
}

func newMemberReferenceFromRow(module *Module, token Token) *MemberReference {
	m := &MemberReference{}
	m.module = module
	m.token = token
	m.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := m.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	m.parent = NewLazy(func(owner any) (TypeDescriptor, error) {
		row, ok, err := m.readRow()
		if err != nil || !ok {
			return nil, err
		}
		entity, found := module.TryLookupMember(row.Scope)
		if !found {
			return nil, nil
		}
		parent, isType := entity.(TypeDescriptor)
		if !isType {
			return nil, nil
		}
		return parent, nil
	})
	if row, ok, err := m.readRow(); err == nil && ok {
		m.signature = row.Blob
	}
	return m
}

func (m *MemberReference) Name() string        { return m.name.MustGet(m) }
func (m *MemberReference) SetName(name string) { m.name.Set(name) }
func (m *MemberReference) Signature() []byte   { return m.signature }

func (m *MemberReference) DeclaringType() TypeDescriptor { return m.parent.MustGet(m) }

func (m *MemberReference) FullName() string {
	if declaring := m.DeclaringType(); declaring != nil {
		return declaring.FullName() + "::" + m.Name()
	}
	return m.Name()
}

// TypeSpecification is a type given by a signature blob (generic
// instantiations, arrays, pointers). The core carries the blob
// opaquely.
type TypeSpecification struct {
	entityBase

	signature []byte
}

// NewTypeSpecification constructs an in-memory type specification.
func NewTypeSpecification(signature []byte) *TypeSpecification {
	return &TypeSpecification{signature: signature}
}

func newTypeSpecificationFromRow(module *Module, token Token) *TypeSpecification {
	t := &TypeSpecification{}
	t.module = module
	t.token = token
	if row, ok, err := t.readRow(); err == nil && ok {
		t.signature = row.Blob
	}
	return t
}

func (t *TypeSpecification) Signature() []byte { return t.signature }

func (t *TypeSpecification) Name() string      { return "" }
func (t *TypeSpecification) SetName(string)    {}
func (t *TypeSpecification) Namespace() string { return "" }

// FullName of a specification would require decoding the signature
// grammar, which the core does not do; it prints a placeholder keyed
// by token.
func (t *TypeSpecification) FullName() string {
	return fmt.Sprintf("<signature %s>", t.token)
}

func (t *TypeSpecification) DeclaringType() TypeDescriptor { return nil }
func (t *TypeSpecification) Resolve() *TypeDefinition      { return nil }

// ExportedType is a type forwarded by this assembly to another scope.
// Its implementation entity is where resolution continues; chains of
// re-exports may legally form cycles, which resolution guards against.
type ExportedType struct {
	entityBase

	name           *Lazy[string]
	namespace      *Lazy[string]
	implementation *Lazy[Entity]
}

// NewExportedType constructs an in-memory exported type.
func NewExportedType(namespace, name string, implementation Entity) *ExportedType {
	return &ExportedType{
		name:           LazyValue(name),
		namespace:      LazyValue(namespace),
		implementation: LazyValue(implementation),
	}
}

func newExportedTypeFromRow(module *Module, token Token) *ExportedType {
	e := &ExportedType{}
	e.module = module
	e.token = token
	e.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := e.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	e.namespace = NewLazy(func(owner any) (string, error) {
		row, ok, err := e.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Namespace, nil
	})
	e.implementation = NewLazy(func(owner any) (Entity, error) {
		row, ok, err := e.readRow()
		if err != nil || !ok {
			return nil, err
		}
		entity, found := module.TryLookupMember(row.Scope)
		if !found {
			return nil, nil
		}
		return entity, nil
	})
	return e
}

func (e *ExportedType) Name() string        { return e.name.MustGet(e) }
func (e *ExportedType) SetName(name string) { e.name.Set(name) }
func (e *ExportedType) Namespace() string   { return e.namespace.MustGet(e) }

// Implementation returns the entity resolution continues at, or nil.
func (e *ExportedType) Implementation() Entity { return e.implementation.MustGet(e) }

func (e *ExportedType) FullName() string {
	return fullNameOf(e.Namespace(), e.Name())
}
