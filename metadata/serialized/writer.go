package serialized

import (
	"sort"

	"github.com/google/uuid"
	"github.com/puff/AsmResolver/metadata"
)

// Image is an opaque serialized metadata stream, ready to be handed to
// a PE writer or reloaded through Open.
type Image struct {
	data []byte
}

// Bytes returns the raw stream.
func (i *Image) Bytes() []byte { return i.data }

// Writer assembles a table stream row by row. Rows may arrive in any
// order; Finish emits each table's rows in row-id order, with zero
// placeholder rows filling any gaps left by preserved row ids.
type Writer struct {
	name string
	mvid uuid.UUID

	tables map[metadata.TableIndex]map[uint32]metadata.RawRow

	// usHeap starts with a single pad byte so offset 0 can mean null,
	// mirroring the row-id sentinel.
	usHeap    []byte
	usOffsets map[string]uint32
}

// NewWriter creates a writer for a module with the given identity.
func NewWriter(name string, mvid uuid.UUID) *Writer {
	return &Writer{
		name:      name,
		mvid:      mvid,
		tables:    make(map[metadata.TableIndex]map[uint32]metadata.RawRow),
		usHeap:    []byte{0},
		usOffsets: make(map[string]uint32),
	}
}

// SetRow stores the row at the given 1-based row id.
func (w *Writer) SetRow(table metadata.TableIndex, rid uint32, row metadata.RawRow) {
	rows, ok := w.tables[table]
	if !ok {
		rows = make(map[uint32]metadata.RawRow)
		w.tables[table] = rows
	}
	rows[rid] = row
}

// RowCount returns the highest row id stored for the table so far.
func (w *Writer) RowCount(table metadata.TableIndex) uint32 {
	var max uint32
	for rid := range w.tables[table] {
		if rid > max {
			max = rid
		}
	}
	return max
}

// AddUserString interns a string in the #US heap and returns its
// offset. Duplicate strings share one entry.
func (w *Writer) AddUserString(s string) uint32 {
	if off, ok := w.usOffsets[s]; ok {
		return off
	}
	off := uint32(len(w.usHeap))
	var bw byteWriter
	bw.writeUint16(uint16(len(s)))
	bw.writeBytes([]byte(s))
	w.usHeap = append(w.usHeap, bw.buf...)
	w.usOffsets[s] = off
	return off
}

// SeedUserStrings replaces the heap with a verbatim copy of an
// existing one, so strings already in it keep their offsets. Used when
// the preservation policy pins string tokens.
func (w *Writer) SeedUserStrings(heap []byte) {
	if len(heap) == 0 {
		return
	}
	w.usHeap = append([]byte(nil), heap...)
	w.usOffsets = make(map[string]uint32)
	// Re-index existing entries for dedup against newly added ones.
	pos := 1
	for pos+2 <= len(w.usHeap) {
		n := int(uint16(w.usHeap[pos]) | uint16(w.usHeap[pos+1])<<8)
		if pos+2+n > len(w.usHeap) {
			break
		}
		w.usOffsets[string(w.usHeap[pos+2:pos+2+n])] = uint32(pos)
		pos += 2 + n
	}
}

// Finish serializes the stream.
func (w *Writer) Finish() *Image {
	var bw byteWriter
	bw.writeBytes(ImageMagic[:])
	bw.writeUint32(ImageVersion)
	bw.writeString(w.name)
	bw.writeBytes(w.mvid[:])
	bw.writeBlob(w.usHeap)

	indices := make([]metadata.TableIndex, 0, len(w.tables))
	for table := range w.tables {
		indices = append(indices, table)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	bw.writeUint32(uint32(len(indices)))
	for _, table := range indices {
		rows := w.tables[table]
		count := w.RowCount(table)
		bw.writeUint8(uint8(table))
		bw.writeUint32(count)
		for rid := uint32(1); rid <= count; rid++ {
			writeRow(&bw, rows[rid])
		}
	}
	return &Image{data: bw.buf}
}

func writeRow(bw *byteWriter, row metadata.RawRow) {
	bw.writeString(row.Name)
	bw.writeString(row.Namespace)
	bw.writeUint32(uint32(row.Scope))
	bw.writeUint32(uint32(row.Member))
	bw.writeUint32(row.Flags)
	bw.writeUint16(row.Version.Major)
	bw.writeUint16(row.Version.Minor)
	bw.writeUint16(row.Version.Build)
	bw.writeUint16(row.Version.Revision)
	bw.writeBlob(row.Blob)
	bw.writeBlob(row.Code)
}
