package serialized

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puff/AsmResolver/metadata"
)

func TestWriteReadHeader(t *testing.T) {
	mvid := uuid.New()
	w := NewWriter("app.dll", mvid)
	image := w.Finish()

	r, err := Open(image.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "app.dll", r.Name())
	assert.Equal(t, mvid, r.MVID())
}

func TestOpenRejectsBadMagic(t *testing.T) {
	_, err := Open([]byte("NOPE----------------"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestOpenRejectsTruncated(t *testing.T) {
	image := NewWriter("x", uuid.UUID{}).Finish()
	data := image.Bytes()
	for _, cut := range []int{0, 3, 7, len(data) - 1} {
		_, err := Open(data[:cut])
		assert.Error(t, err, "cut at %d", cut)
	}
}

func TestRowRoundTrip(t *testing.T) {
	w := NewWriter("app.dll", uuid.UUID{})
	row := metadata.RawRow{
		Name:      "Widget",
		Namespace: "Acme",
		Scope:     metadata.NewToken(metadata.TableTypeDef, 3),
		Member:    metadata.NewToken(metadata.TableMemberRef, 1),
		Flags:     0x100,
		Version:   metadata.AssemblyVersion{Major: 1, Minor: 2, Build: 3, Revision: 4},
		Blob:      []byte{0xDE, 0xAD},
		Code:      []byte{1, 0, 0, 0},
	}
	w.SetRow(metadata.TableTypeDef, 1, row)

	r, err := Open(w.Finish().Bytes())
	require.NoError(t, err)
	require.Equal(t, uint32(1), r.RowCount(metadata.TableTypeDef))

	got, err := r.ReadRow(metadata.TableTypeDef, 1)
	require.NoError(t, err)
	assert.Equal(t, row, got)
}

func TestGapsBecomePlaceholderRows(t *testing.T) {
	w := NewWriter("app.dll", uuid.UUID{})
	w.SetRow(metadata.TableMethod, 5, metadata.RawRow{Name: "Late"})

	r, err := Open(w.Finish().Bytes())
	require.NoError(t, err)
	require.Equal(t, uint32(5), r.RowCount(metadata.TableMethod))

	tombstone, err := r.ReadRow(metadata.TableMethod, 2)
	require.NoError(t, err)
	assert.Equal(t, metadata.RawRow{}, tombstone)

	late, err := r.ReadRow(metadata.TableMethod, 5)
	require.NoError(t, err)
	assert.Equal(t, "Late", late.Name)
}

func TestReadRowBounds(t *testing.T) {
	r, err := Open(NewWriter("x", uuid.UUID{}).Finish().Bytes())
	require.NoError(t, err)

	_, err = r.ReadRow(metadata.TableTypeDef, 1)
	assert.Error(t, err)
	_, err = r.ReadRow(metadata.TableTypeDef, 0)
	assert.Error(t, err)
}

func TestUserStringHeap(t *testing.T) {
	w := NewWriter("x", uuid.UUID{})
	off1 := w.AddUserString("hello")
	off2 := w.AddUserString("world")
	dup := w.AddUserString("hello")
	assert.Equal(t, off1, dup, "identical strings share one entry")
	assert.NotEqual(t, off1, off2)
	assert.NotZero(t, off1, "offset 0 is reserved for null")

	r, err := Open(w.Finish().Bytes())
	require.NoError(t, err)

	s, ok := r.UserString(off1)
	require.True(t, ok)
	assert.Equal(t, "hello", s)
	s, ok = r.UserString(off2)
	require.True(t, ok)
	assert.Equal(t, "world", s)

	_, ok = r.UserString(0)
	assert.False(t, ok)
	_, ok = r.UserString(9999)
	assert.False(t, ok)
}

func TestSeedUserStringsKeepsOffsets(t *testing.T) {
	w1 := NewWriter("x", uuid.UUID{})
	off := w1.AddUserString("pinned")
	r1, err := Open(w1.Finish().Bytes())
	require.NoError(t, err)

	w2 := NewWriter("x", uuid.UUID{})
	w2.SeedUserStrings(r1.UserStringHeap())
	assert.Equal(t, off, w2.AddUserString("pinned"), "seeded strings keep their offset")

	fresh := w2.AddUserString("new")
	r2, err := Open(w2.Finish().Bytes())
	require.NoError(t, err)
	s, ok := r2.UserString(off)
	require.True(t, ok)
	assert.Equal(t, "pinned", s)
	s, ok = r2.UserString(fresh)
	require.True(t, ok)
	assert.Equal(t, "new", s)
}

func TestLoadModule(t *testing.T) {
	w := NewWriter("app.dll", uuid.New())
	w.SetRow(metadata.TableTypeDef, 1, metadata.RawRow{Name: "Program", Namespace: "App"})

	module, err := LoadModule(w.Finish().Bytes())
	require.NoError(t, err)
	assert.Equal(t, "app.dll", module.Name())
	require.Len(t, module.TopLevelTypes(), 1)
	assert.Equal(t, "App.Program", module.TopLevelTypes()[0].FullName())
}
