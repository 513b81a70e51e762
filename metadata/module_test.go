package metadata

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFakeModule assembles a provider with one top-level type holding
// a field and a method with one parameter.
func buildFakeModule(t *testing.T) (*Module, *fakeTables) {
	t.Helper()
	tables := newFakeTables()
	typeTok := tables.addRow(TableTypeDef, RawRow{Name: "Widget", Namespace: "Acme"})
	tables.addRow(TableField, RawRow{Name: "count", Scope: typeTok})
	methodTok := tables.addRow(TableMethod, RawRow{Name: "Run", Scope: typeTok})
	tables.addRow(TableParam, RawRow{Name: "arg", Scope: methodTok})
	tables.strings[5] = "hello world"

	return FromProvider("test.dll", uuid.UUID{1}, tables, tables), tables
}

func TestLookupMemberIdentity(t *testing.T) {
	module, _ := buildFakeModule(t)
	tok := NewToken(TableTypeDef, 1)

	first, err := module.LookupMember(tok)
	require.NoError(t, err)
	second, err := module.LookupMember(tok)
	require.NoError(t, err)

	// Reference identity, not just equality: the graph relies on a
	// single live object per token.
	assert.Same(t, first, second)
}

func TestLookupMemberInvalidToken(t *testing.T) {
	module, _ := buildFakeModule(t)

	cases := []struct {
		name  string
		token Token
	}{
		{"unknown table", NewToken(TableIndex(0x3F), 1)},
		{"non member table", NewToken(TableClassLayout, 1)},
		{"row out of range", NewToken(TableTypeDef, 99)},
		{"null rid", NewToken(TableTypeDef, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := module.LookupMember(tc.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTryLookupMemberSoftFailure(t *testing.T) {
	module, _ := buildFakeModule(t)

	_, ok := module.TryLookupMember(NewToken(TableTypeDef, 99))
	assert.False(t, ok)

	entity, ok := module.TryLookupMember(NewToken(TableTypeDef, 1))
	require.True(t, ok)
	assert.IsType(t, &TypeDefinition{}, entity)
}

func TestTryLookupString(t *testing.T) {
	module, _ := buildFakeModule(t)

	s, ok := module.TryLookupString(NewToken(TableUserString, 5))
	require.True(t, ok)
	assert.Equal(t, "hello world", s)

	_, ok = module.TryLookupString(NewToken(TableUserString, 99))
	assert.False(t, ok)

	// A member token never resolves against the string heap.
	_, ok = module.TryLookupString(NewToken(TableTypeDef, 1))
	assert.False(t, ok)
}

func TestMutationVisibleFromAllReferenceSites(t *testing.T) {
	module, _ := buildFakeModule(t)
	tok := NewToken(TableTypeDef, 1)

	first, err := module.LookupMember(tok)
	require.NoError(t, err)
	first.(*TypeDefinition).SetName("Gadget")

	second, _ := module.LookupMember(tok)
	assert.Equal(t, "Gadget", second.(*TypeDefinition).Name())
}

func TestMaterializeTree(t *testing.T) {
	module, _ := buildFakeModule(t)

	types := module.TopLevelTypes()
	require.Len(t, types, 1)
	widget := types[0]
	assert.Equal(t, "Acme.Widget", widget.FullName())

	require.Len(t, widget.Fields(), 1)
	assert.Equal(t, "count", widget.Fields()[0].Name())

	require.Len(t, widget.Methods(), 1)
	run := widget.Methods()[0]
	assert.Equal(t, "Acme.Widget::Run", run.FullName())
	require.Len(t, run.Parameters(), 1)
	assert.Equal(t, "arg", run.Parameters()[0].Name())
}

func TestMaterializeTreeNestedTypes(t *testing.T) {
	tables := newFakeTables()
	outerTok := tables.addRow(TableTypeDef, RawRow{Name: "Outer", Namespace: "Acme"})
	tables.addRow(TableTypeDef, RawRow{Name: "Inner", Scope: outerTok})
	module := FromProvider("test.dll", uuid.UUID{}, tables, tables)

	types := module.TopLevelTypes()
	require.Len(t, types, 1)
	require.Len(t, types[0].NestedTypes(), 1)
	assert.Equal(t, "Acme.Outer/Inner", types[0].NestedTypes()[0].FullName())
}

func TestMaterializeTreeKeepsRowIDsAroundCorruptRows(t *testing.T) {
	tables := newFakeTables()
	outerTok := tables.addRow(TableTypeDef, RawRow{Name: "Outer", Namespace: "Acme"})
	broken := tables.addRow(TableTypeDef, RawRow{Name: "Broken"})
	tables.addRow(TableTypeDef, RawRow{Name: "Inner", Scope: outerTok})
	tables.failRows[broken] = true

	module := FromProvider("test.dll", uuid.UUID{}, tables, tables)
	types := module.TopLevelTypes()

	// The corrupt row drops out of the tree; the rows around it keep
	// their own row ids and the nesting edge stays intact.
	require.Len(t, types, 1)
	outer := types[0]
	require.Len(t, outer.NestedTypes(), 1)
	inner := outer.NestedTypes()[0]
	assert.Equal(t, "Acme.Outer/Inner", inner.FullName())
	assert.Equal(t, uint32(3), inner.Token().RID())
}

func TestResolutionFailurePropagatesAndRetries(t *testing.T) {
	tables := newFakeTables()
	tok := tables.addRow(TableTypeRef, RawRow{Name: "Broken"})
	tables.failRows[tok] = true
	module := FromProvider("test.dll", uuid.UUID{}, tables, tables)

	entity, err := module.LookupMember(tok)
	require.NoError(t, err)
	ref := entity.(*TypeReference)

	_, err = ref.name.Get(ref)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolutionFailed))

	// The cell stays unresolved; clearing the fault lets a later read
	// succeed.
	delete(tables.failRows, tok)
	name, err := ref.name.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, "Broken", name)
}

func TestConcurrentLookupsSingleEntity(t *testing.T) {
	module, _ := buildFakeModule(t)
	tok := NewToken(TableMethod, 1)

	const goroutines = 16
	results := make([]Entity, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], _ = module.TryLookupMember(tok)
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestAddTypeClaimsOwnership(t *testing.T) {
	module := NewModule("fresh.dll")
	def := NewTypeDefinition("App", "Main")
	def.AddMethod(NewMethodDefinition("Start", 0, nil))
	module.AddType(def)

	assert.Same(t, module, def.Module())
	assert.Same(t, module, def.Methods()[0].Module())
	assert.True(t, def.Token().IsNull(), "in-memory entity starts with a null token")
}
