package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComparerReferenceEqualsDefinition(t *testing.T) {
	c := SignatureComparer{}

	lib := NewModule("lib")
	def := NewTypeDefinition("Lib", "Engine")
	lib.AddType(def)

	ref := NewTypeReference(lib, "Lib", "Engine")

	// Distinct tokens, same logical type.
	assert.True(t, c.TypesEqual(ref, def))
	assert.True(t, c.TypesEqual(def, ref))
	assert.Equal(t, c.HashType(ref), c.HashType(def))
}

func TestComparerAssemblyScopedReferenceEqualsDefinition(t *testing.T) {
	c := SignatureComparer{}

	lib := NewModule("lib")
	def := NewTypeDefinition("Lib", "Engine")
	lib.AddType(def)

	// The assembly reference renders its scope name with a version
	// qualifier; comparison must use the plain assembly name.
	asm := NewAssemblyReference("lib", AssemblyVersion{Major: 1})
	ref := NewTypeReference(asm, "Lib", "Engine")

	assert.True(t, c.TypesEqual(ref, def))
	assert.True(t, c.TypesEqual(def, ref))
}

func TestComparerDistinguishesNamespaceAndName(t *testing.T) {
	c := SignatureComparer{}
	a := NewTypeReference(nil, "A", "T")

	assert.False(t, c.TypesEqual(a, NewTypeReference(nil, "B", "T")))
	assert.False(t, c.TypesEqual(a, NewTypeReference(nil, "A", "U")))
	assert.True(t, c.TypesEqual(a, NewTypeReference(nil, "A", "T")))
}

func TestComparerNestedChains(t *testing.T) {
	c := SignatureComparer{}

	outer1 := NewTypeReference(nil, "N", "Outer")
	inner1 := NewTypeReference(outer1, "", "Inner")
	outer2 := NewTypeReference(nil, "N", "Outer")
	inner2 := NewTypeReference(outer2, "", "Inner")

	assert.True(t, c.TypesEqual(inner1, inner2))

	lone := NewTypeReference(nil, "", "Inner")
	assert.False(t, c.TypesEqual(inner1, lone), "nested vs top-level differ")
}

func TestComparerScopeCycleTerminates(t *testing.T) {
	c := SignatureComparer{}

	a1 := NewTypeReference(nil, "C", "A")
	b1 := NewTypeReference(a1, "C", "B")
	a1.SetScope(b1)

	a2 := NewTypeReference(nil, "C", "A")
	b2 := NewTypeReference(a2, "C", "B")
	a2.SetScope(b2)

	// The comparison must terminate; the exact verdict on a cyclic
	// chain is bounded by the depth guard.
	_ = c.TypesEqual(b1, b2)
}

func TestComparerNil(t *testing.T) {
	c := SignatureComparer{}
	assert.True(t, c.TypesEqual(nil, nil))
	assert.False(t, c.TypesEqual(NewTypeReference(nil, "", "T"), nil))
}
