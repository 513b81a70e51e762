package builder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puff/AsmResolver/cil"
	"github.com/puff/AsmResolver/metadata"
	"github.com/puff/AsmResolver/metadata/serialized"
)

// sourceImage fabricates an original image with type A at TypeDef row
// 2 holding method M at Method row 5, padding the lower rows with
// unrelated entities.
func sourceImage(t *testing.T) []byte {
	t.Helper()
	w := serialized.NewWriter("source.dll", uuid.New())

	w.SetRow(metadata.TableTypeDef, 1, metadata.RawRow{Name: "Other", Namespace: "App"})
	w.SetRow(metadata.TableTypeDef, 2, metadata.RawRow{Name: "A", Namespace: "App"})
	for rid := uint32(1); rid <= 4; rid++ {
		w.SetRow(metadata.TableMethod, rid, metadata.RawRow{
			Name:  "Pad",
			Scope: metadata.NewToken(metadata.TableTypeDef, 1),
		})
	}
	hello := w.AddUserString("hello")
	code := cil.EncodeRaw([]cil.RawInstruction{
		{Offset: 0, OpCode: cil.Ldstr, Raw: uint32(metadata.NewToken(metadata.TableUserString, hello))},
		{Offset: 5, OpCode: cil.Ret},
	})
	w.SetRow(metadata.TableMethod, 5, metadata.RawRow{
		Name:  "M",
		Scope: metadata.NewToken(metadata.TableTypeDef, 2),
		Code:  code,
	})
	return w.Finish().Bytes()
}

func TestRoundTripPreservesTokens(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)

	a := original.GetType("App", "A")
	require.NotNil(t, a)
	require.Equal(t, metadata.NewToken(metadata.TableTypeDef, 2), a.Token())
	m := a.GetMethod("M")
	require.NotNil(t, m)
	require.Equal(t, metadata.NewToken(metadata.TableMethod, 5), m.Token())

	policy := Policy{Preserve: PreserveTypeTokens | PreserveMethodTokens}
	image, err := New(policy).Build(original)
	require.NoError(t, err)

	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)

	a2 := reloaded.GetType("App", "A")
	require.NotNil(t, a2)
	assert.Equal(t, metadata.NewToken(metadata.TableTypeDef, 2), a2.Token())
	m2 := a2.GetMethod("M")
	require.NotNil(t, m2)
	assert.Equal(t, metadata.NewToken(metadata.TableMethod, 5), m2.Token())

	require.NoError(t, CheckTokenStability(original, reloaded, policy.Preserve))
}

func TestRoundTripKeepsCode(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)

	image, err := New(Policy{Preserve: PreserveAll}).Build(original)
	require.NoError(t, err)
	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)

	m := reloaded.GetType("App", "A").GetMethod("M")
	require.NotNil(t, m)
	raw, err := cil.DecodeRaw(m.RawCode())
	require.NoError(t, err)
	require.Len(t, raw, 2)

	// The preserved string heap keeps the ldstr operand resolvable.
	s, ok := reloaded.TryLookupString(metadata.Token(raw[0].Raw))
	require.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestPolicyOffRenumbersButNeverShrinks(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)
	originalTables := original.Tables()

	image, err := New(Policy{}).Build(original)
	require.NoError(t, err)

	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)

	// No token claim is made with preservation off; the only property
	// is that no table shrank.
	require.NoError(t, CheckMonotonicGrowth(originalTables, reloaded.Tables()))

	// Renumbering follows declaration order; with all five methods
	// live, M happens to land on row 5 again.
	m := reloaded.GetType("App", "A").GetMethod("M")
	require.NotNil(t, m)
	assert.Equal(t, uint32(5), m.Token().RID())
}

func TestPolicyOffRemapsCodeTokens(t *testing.T) {
	// With renumbering in play the ldstr string is re-interned into a
	// fresh heap and its operand patched; it must still resolve.
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)

	image, err := New(Policy{}).Build(original)
	require.NoError(t, err)
	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)

	m := reloaded.GetType("App", "A").GetMethod("M")
	require.NotNil(t, m)
	raw, err := cil.DecodeRaw(m.RawCode())
	require.NoError(t, err)
	s, ok := reloaded.TryLookupString(metadata.Token(raw[0].Raw))
	require.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestNewEntitiesGetFreshTokens(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)

	added := metadata.NewTypeDefinition("App", "Added")
	added.AddMethod(metadata.NewMethodDefinition("Fresh", 0, nil))
	original.AddType(added)

	policy := Policy{Preserve: PreserveTypeTokens | PreserveMethodTokens}
	image, err := New(policy).Build(original)
	require.NoError(t, err)

	// The new type takes the first free row, after the preserved ones.
	assert.Equal(t, metadata.NewToken(metadata.TableTypeDef, 3), added.Token())
	assert.Equal(t, metadata.NewToken(metadata.TableMethod, 6), added.Methods()[0].Token())

	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)
	require.NotNil(t, reloaded.GetType("App", "Added"))
	require.NoError(t, CheckTokenStability(original, reloaded, policy.Preserve))
}

func TestTokenStabilityHandlesOverloads(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)

	// App.Other carries four methods all named Pad; the stability
	// check must line them up by position, not first-by-name.
	other := original.GetType("App", "Other")
	require.NotNil(t, other)
	require.Len(t, other.Methods(), 4)

	policy := Policy{Preserve: PreserveMethodTokens}
	image, err := New(policy).Build(original)
	require.NoError(t, err)
	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)

	require.NoError(t, CheckTokenStability(original, reloaded, policy.Preserve))

	rebuiltOther := reloaded.GetType("App", "Other")
	require.NotNil(t, rebuiltOther)
	for i, m := range other.Methods() {
		assert.Equal(t, m.Token(), rebuiltOther.Methods()[i].Token())
	}
}

func TestFreshTokensSkipRemovedPreservedRows(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)
	require.True(t, original.RemoveType(original.GetType("App", "Other")))

	added := metadata.NewTypeDefinition("App", "Added")
	original.AddType(added)

	policy := Policy{Preserve: PreserveTypeTokens}
	image, err := New(policy).Build(original)
	require.NoError(t, err)

	// Row 1 stays a tombstone for the removed type; the new one must
	// not slide into it.
	assert.Equal(t, metadata.NewToken(metadata.TableTypeDef, 3), added.Token())

	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), reloaded.Tables().RowCount(metadata.TableTypeDef))
	assert.Nil(t, reloaded.GetType("App", "Other"))
	require.NotNil(t, reloaded.GetType("App", "Added"))
}

func TestTokenCollisionIsFatal(t *testing.T) {
	module := metadata.NewModule("clash.dll")
	first := metadata.NewTypeDefinition("App", "First")
	second := metadata.NewTypeDefinition("App", "Second")
	require.NoError(t, first.SetToken(metadata.NewToken(metadata.TableTypeDef, 1)))
	require.NoError(t, second.SetToken(metadata.NewToken(metadata.TableTypeDef, 1)))
	module.AddType(first)
	module.AddType(second)

	_, err := New(Policy{Preserve: PreserveTypeTokens}).Build(module)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenCollision)

	var collision *TokenCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, metadata.NewToken(metadata.TableTypeDef, 1), collision.Token)
}

func TestGapRejectFailsOnRemovedRows(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)
	removed := original.GetType("App", "Other")
	require.True(t, original.RemoveType(removed))

	policy := Policy{Preserve: PreserveTypeTokens | PreserveMethodTokens, Gaps: GapReject}
	_, err = New(policy).Build(original)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreservationImpossible)
}

func TestGapPlaceholderFillsRemovedRows(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)
	require.True(t, original.RemoveType(original.GetType("App", "Other")))

	policy := Policy{Preserve: PreserveTypeTokens | PreserveMethodTokens}
	image, err := New(policy).Build(original)
	require.NoError(t, err)

	reloaded, err := serialized.LoadModule(image.Bytes())
	require.NoError(t, err)
	// Row 1 is a tombstone; A still sits at row 2.
	assert.Equal(t, uint32(2), reloaded.Tables().RowCount(metadata.TableTypeDef))
	a := reloaded.GetType("App", "A")
	require.NotNil(t, a)
	assert.Equal(t, metadata.NewToken(metadata.TableTypeDef, 2), a.Token())
}

func TestBuilderIsSingleUse(t *testing.T) {
	module := metadata.NewModule("once.dll")
	b := New(Policy{})
	_, err := b.Build(module)
	require.NoError(t, err)

	_, err = b.Build(module)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuilderState)
}

func TestMappingRecordsRenumbering(t *testing.T) {
	original, err := serialized.LoadModule(sourceImage(t))
	require.NoError(t, err)

	b := New(Policy{})
	_, err = b.Build(original)
	require.NoError(t, err)

	mapping := b.Mapping()
	assert.NotEmpty(t, mapping)
	for old, fresh := range mapping {
		assert.Equal(t, old.Table(), fresh.Table(), "entities never change table")
	}
}

func TestParsePreserveFlags(t *testing.T) {
	flags, err := ParsePreserveFlags([]string{"preserve_type_tokens", "Preserve_Method_Tokens"})
	require.NoError(t, err)
	assert.True(t, flags.Has(PreserveTypeTokens))
	assert.True(t, flags.Has(PreserveMethodTokens))
	assert.False(t, flags.Has(PreserveFieldTokens))

	all, err := ParsePreserveFlags([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, PreserveAll, all)

	_, err = ParsePreserveFlags([]string{"preserve_nothing"})
	assert.Error(t, err)
}

func TestParseGapMode(t *testing.T) {
	mode, err := ParseGapMode("")
	require.NoError(t, err)
	assert.Equal(t, GapPlaceholder, mode)

	mode, err = ParseGapMode("reject")
	require.NoError(t, err)
	assert.Equal(t, GapReject, mode)

	_, err = ParseGapMode("tombstone")
	assert.Error(t, err)
}
