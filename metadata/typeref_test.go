package metadata

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeReferenceLazyName(t *testing.T) {
	tables := newFakeTables()
	tok := tables.addRow(TableTypeRef, RawRow{Name: "List", Namespace: "System.Collections"})
	module := FromProvider("test.dll", uuid.UUID{}, tables, tables)

	entity, err := module.LookupMember(tok)
	require.NoError(t, err)
	ref := entity.(*TypeReference)

	reads := tables.reads
	assert.Equal(t, "List", ref.Name())
	assert.Greater(t, tables.reads, reads, "first Name access reads the backing row")

	reads = tables.reads
	assert.Equal(t, "List", ref.Name())
	assert.Equal(t, reads, tables.reads, "second Name access is served from the cell")
}

func TestTypeReferenceFullNameReflectsMutation(t *testing.T) {
	ref := NewTypeReference(nil, "System", "String")
	assert.Equal(t, "System.String", ref.FullName())

	ref.SetName("Text")
	ref.SetNamespace("Runtime")
	assert.Equal(t, "Runtime.Text", ref.FullName())
}

func TestTypeReferenceScopeResolution(t *testing.T) {
	tables := newFakeTables()
	asmTok := tables.addRow(TableAssemblyRef, RawRow{
		Name:    "mscorlib",
		Version: AssemblyVersion{Major: 4},
	})
	refTok := tables.addRow(TableTypeRef, RawRow{
		Name:      "Object",
		Namespace: "System",
		Scope:     asmTok,
	})
	module := FromProvider("test.dll", uuid.UUID{}, tables, tables)

	entity, err := module.LookupMember(refTok)
	require.NoError(t, err)
	ref := entity.(*TypeReference)

	scope := ref.Scope()
	require.NotNil(t, scope)
	asm, ok := scope.(*AssemblyReference)
	require.True(t, ok)
	assert.Equal(t, "mscorlib", asm.Name())
	assert.Equal(t, "mscorlib, Version=4.0.0.0", asm.ScopeName())
}

func TestTypeReferenceUnresolvableScopeIsSoft(t *testing.T) {
	tables := newFakeTables()
	refTok := tables.addRow(TableTypeRef, RawRow{
		Name:  "Orphan",
		Scope: NewToken(TableAssemblyRef, 42),
	})
	module := FromProvider("test.dll", uuid.UUID{}, tables, tables)

	entity, _ := module.LookupMember(refTok)
	ref := entity.(*TypeReference)
	assert.Nil(t, ref.Scope(), "dangling scope resolves to nil, not an error")
	assert.Equal(t, "Orphan", ref.FullName())
}

func TestTypeReferenceResolveAcrossModules(t *testing.T) {
	lib := NewModule("lib.dll")
	def := NewTypeDefinition("Lib", "Engine")
	lib.AddType(def)

	resolver := NewMapModuleResolver()
	resolver.Register("lib", lib)

	app := NewModule("app.dll")
	app.SetResolver(resolver)
	asmRef := NewAssemblyReference("lib", AssemblyVersion{Major: 1})
	ref := NewTypeReference(asmRef, "Lib", "Engine")
	ref.module = app

	resolved := ref.Resolve()
	require.NotNil(t, resolved)
	assert.Same(t, def, resolved)
}

func TestTypeReferenceResolveUnknownAssembly(t *testing.T) {
	app := NewModule("app.dll")
	app.SetResolver(NewMapModuleResolver())
	ref := NewTypeReference(NewAssemblyReference("missing", AssemblyVersion{}), "X", "Y")
	ref.module = app

	assert.Nil(t, ref.Resolve(), "unknown assembly yields unresolved, not an error")
}

func TestTypeReferenceResolveNested(t *testing.T) {
	lib := NewModule("lib.dll")
	outer := NewTypeDefinition("Lib", "Outer")
	inner := NewTypeDefinition("", "Inner")
	outer.AddNestedType(inner)
	lib.AddType(outer)

	outerRef := NewTypeReference(lib, "Lib", "Outer")
	outerRef.module = lib
	innerRef := NewTypeReference(outerRef, "", "Inner")
	innerRef.module = lib

	assert.Same(t, inner, innerRef.Resolve())
	assert.Equal(t, "Lib.Outer/Inner", innerRef.FullName())
}

func TestScopeCycleFullNameTerminates(t *testing.T) {
	// Two references whose scopes point at each other, as re-exported
	// types can legally produce. FullName must terminate and stay
	// stable.
	a := NewTypeReference(nil, "Cycle", "A")
	b := NewTypeReference(a, "Cycle", "B")
	a.SetScope(b)

	nameA := a.FullName()
	nameB := b.FullName()
	assert.True(t, strings.HasSuffix(nameA, "A"))
	assert.True(t, strings.HasSuffix(nameB, "B"))
	assert.Equal(t, nameA, a.FullName(), "FullName is stable across calls")
	assert.Equal(t, nameB, b.FullName())
}

func TestExportedTypeCycleResolvesAsUnresolved(t *testing.T) {
	// A module whose exported type forwards to a scope chain that
	// loops back to itself must terminate with nil.
	tables := newFakeTables()
	asmTok := tables.addRow(TableAssemblyRef, RawRow{Name: "self"})
	tables.addRow(TableExportedType, RawRow{
		Name:      "Ghost",
		Namespace: "X",
		Scope:     asmTok,
	})
	module := FromProvider("self.dll", uuid.UUID{}, tables, tables)

	resolver := NewMapModuleResolver()
	resolver.Register("self", module)
	module.SetResolver(resolver)

	ref := NewTypeReference(nil, "X", "Ghost")
	ref.module = module
	assert.Nil(t, ref.Resolve())
}
