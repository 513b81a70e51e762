package serialized

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/puff/AsmResolver/metadata"
)

// Reader is a parsed table stream. It satisfies metadata.TableProvider
// and metadata.StringProvider, so a metadata.Module can materialize
// its entity graph directly on top of it.
type Reader struct {
	name   string
	mvid   uuid.UUID
	tables map[metadata.TableIndex][]metadata.RawRow
	usHeap []byte
}

// Open parses a serialized image. The header, row counts and rows are
// read eagerly; entity materialization on top of them stays lazy.
func Open(data []byte) (*Reader, error) {
	br := &byteReader{data: data}

	magic, err := br.readBytes(4)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, ImageMagic[:]) {
		return nil, fmt.Errorf("serialized image: bad magic %q", magic)
	}
	version, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	if version != ImageVersion {
		return nil, fmt.Errorf("serialized image: unsupported version %d", version)
	}

	r := &Reader{tables: make(map[metadata.TableIndex][]metadata.RawRow)}
	if r.name, err = br.readString(); err != nil {
		return nil, err
	}
	mvid, err := br.readBytes(16)
	if err != nil {
		return nil, err
	}
	copy(r.mvid[:], mvid)
	if r.usHeap, err = br.readBlob(); err != nil {
		return nil, err
	}

	tableCount, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < tableCount; i++ {
		index, err := br.readUint8()
		if err != nil {
			return nil, err
		}
		rowCount, err := br.readUint32()
		if err != nil {
			return nil, err
		}
		if rowCount > metadata.MaxRID {
			return nil, fmt.Errorf("serialized image: table %s row count %d out of range",
				metadata.TableIndex(index), rowCount)
		}
		rows := make([]metadata.RawRow, rowCount)
		for rid := uint32(0); rid < rowCount; rid++ {
			if rows[rid], err = readRow(br); err != nil {
				return nil, err
			}
		}
		r.tables[metadata.TableIndex(index)] = rows
	}
	return r, nil
}

func readRow(br *byteReader) (metadata.RawRow, error) {
	var row metadata.RawRow
	var err error
	if row.Name, err = br.readString(); err != nil {
		return row, err
	}
	if row.Namespace, err = br.readString(); err != nil {
		return row, err
	}
	scope, err := br.readUint32()
	if err != nil {
		return row, err
	}
	row.Scope = metadata.Token(scope)
	member, err := br.readUint32()
	if err != nil {
		return row, err
	}
	row.Member = metadata.Token(member)
	if row.Flags, err = br.readUint32(); err != nil {
		return row, err
	}
	if row.Version.Major, err = br.readUint16(); err != nil {
		return row, err
	}
	if row.Version.Minor, err = br.readUint16(); err != nil {
		return row, err
	}
	if row.Version.Build, err = br.readUint16(); err != nil {
		return row, err
	}
	if row.Version.Revision, err = br.readUint16(); err != nil {
		return row, err
	}
	if row.Blob, err = br.readBlob(); err != nil {
		return row, err
	}
	if row.Code, err = br.readBlob(); err != nil {
		return row, err
	}
	return row, nil
}

// Name returns the module name stored in the header.
func (r *Reader) Name() string { return r.name }

// MVID returns the module version identifier stored in the header.
func (r *Reader) MVID() uuid.UUID { return r.mvid }

// RowCount implements metadata.TableProvider.
func (r *Reader) RowCount(table metadata.TableIndex) uint32 {
	return uint32(len(r.tables[table]))
}

// ReadRow implements metadata.TableProvider.
func (r *Reader) ReadRow(table metadata.TableIndex, rid uint32) (metadata.RawRow, error) {
	rows := r.tables[table]
	if rid == 0 || rid > uint32(len(rows)) {
		return metadata.RawRow{}, fmt.Errorf("serialized image: %s row %d out of range", table, rid)
	}
	return rows[rid-1], nil
}

// UserString implements metadata.StringProvider. The index is a byte
// offset into the #US heap.
func (r *Reader) UserString(index uint32) (string, bool) {
	if index == 0 || int(index)+2 > len(r.usHeap) {
		return "", false
	}
	n := int(uint16(r.usHeap[index]) | uint16(r.usHeap[index+1])<<8)
	start := int(index) + 2
	if start+n > len(r.usHeap) {
		return "", false
	}
	return string(r.usHeap[start : start+n]), true
}

// UserStringHeap exposes the raw heap so a rebuild can keep original
// string offsets.
func (r *Reader) UserStringHeap() []byte { return r.usHeap }

// LoadModule parses an image and wraps it in a lazily materializing
// module.
func LoadModule(data []byte) (*metadata.Module, error) {
	reader, err := Open(data)
	if err != nil {
		return nil, err
	}
	return metadata.FromProvider(reader.Name(), reader.MVID(), reader, reader), nil
}
