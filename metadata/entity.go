package metadata

import (
	"fmt"
	"sync/atomic"
)

// Entity is anything addressable by a metadata token. The token is
// fixed at materialization time for entities read from a table, and
// starts null for entities constructed in memory; the builder assigns
// those when it commits them.
type Entity interface {
	// Token returns the entity's current token. Null for entities not
	// yet committed to a table.
	Token() Token

	// SetToken assigns a token to an entity that does not have one. It
	// fails for an entity whose token was fixed by its source table.
	SetToken(token Token) error

	// Module returns the owning module, or nil for an entity that has
	// not been added to one.
	Module() *Module
}

// Named is the capability of carrying a simple name.
type Named interface {
	Name() string
	SetName(name string)
}

// ResolutionScope marks entities that can disambiguate a type
// reference: a module, a module reference, an assembly reference, or
// an enclosing type reference.
type ResolutionScope interface {
	Entity

	// ScopeName returns the display name used when qualifying a type
	// by its scope.
	ScopeName() string
}

// TypeDescriptor is the capability set shared by type references,
// definitions and specifications.
type TypeDescriptor interface {
	Entity
	Named

	Namespace() string
	// FullName is computed from the currently cached name, namespace
	// and declaring type. It is never cached, so it always reflects
	// the latest mutation.
	FullName() string
	DeclaringType() TypeDescriptor
	// Resolve maps the descriptor to its defining TypeDefinition, or
	// nil when the defining module cannot be located. An unresolved
	// result is a legitimate terminal state, not an error.
	Resolve() *TypeDefinition
}

// MemberDescriptor is the capability set shared by fields, methods,
// properties, events and member references.
type MemberDescriptor interface {
	Entity
	Named

	DeclaringType() TypeDescriptor
	FullName() string
}

// CustomAttributeOwner marks entities that can carry custom
// attributes. The returned list is exclusively owned by the entity and
// materialized at most once.
type CustomAttributeOwner interface {
	CustomAttributes() *CustomAttributeList
}

// entityBase carries the state every entity variant shares. The custom
// attribute list follows the same atomic install-once discipline as
// the lazy cells.
type entityBase struct {
	token  Token
	module *Module
	attrs  atomic.Pointer[CustomAttributeList]
}

func (e *entityBase) Token() Token    { return e.token }
func (e *entityBase) Module() *Module { return e.module }

func (e *entityBase) SetToken(token Token) error {
	if !e.token.IsNull() && e.token != token {
		return fmt.Errorf("token already assigned: have %s, got %s", e.token, token)
	}
	e.token = token
	return nil
}

func (e *entityBase) renumber(token Token) { e.token = token }

type renumberable interface {
	renumber(token Token)
}

// Renumber overwrites an entity's token regardless of whether one was
// already assigned. It exists for the builder, which renumbers entities
// whose table category the preservation policy leaves free; everything
// else should use SetToken.
func Renumber(e Entity, token Token) error {
	r, ok := e.(renumberable)
	if !ok {
		return fmt.Errorf("entity %s cannot be renumbered", e.Token())
	}
	r.renumber(token)
	return nil
}

// CustomAttributes returns the entity's attribute list, creating it on
// first access. Concurrent first accesses agree on a single list.
func (e *entityBase) CustomAttributes() *CustomAttributeList {
	if list := e.attrs.Load(); list != nil {
		return list
	}
	list := newCustomAttributeList(e.module, e.token)
	if e.attrs.CompareAndSwap(nil, list) {
		return list
	}
	return e.attrs.Load()
}

// readRow fetches the entity's own backing row. Entities constructed
// in memory have no row; resolvers treat that as "use defaults".
func (e *entityBase) readRow() (RawRow, bool, error) {
	if e.module == nil || e.module.tables == nil || e.token.IsNull() {
		return RawRow{}, false, nil
	}
	row, err := e.module.tables.ReadRow(e.token.Table(), e.token.RID())
	if err != nil {
		return RawRow{}, false, resolutionError(e.token, err)
	}
	return row, true, nil
}

// fullNameOf joins a namespace and name the way CLR tooling prints
// type names.
func fullNameOf(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}
