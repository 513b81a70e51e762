// Package serialized implements the binary table-stream codec the
// builder emits and the loader reads back. It is an in-memory stand-in
// for the metadata directory of a PE image: a header, the user-string
// heap, and per-table raw rows. The package implements
// metadata.TableProvider and metadata.StringProvider so a built image
// can be reloaded without going through a PE reader.
package serialized

import (
	"encoding/binary"
	"fmt"
)

// ImageMagic identifies a serialized table stream.
var ImageMagic = [4]byte{'A', 'S', 'M', 'I'}

// ImageVersion is the current stream format version.
const ImageVersion uint32 = 1

// maxBlob bounds a single length-prefixed field, guarding against
// corrupt length words in untrusted input.
const maxBlob = 1 << 28

var errTruncated = fmt.Errorf("serialized image: unexpected end of data")

// byteReader is a bounds-checked little-endian cursor.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) remaining() int { return len(r.data) - r.pos }

func (r *byteReader) readBytes(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, errTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *byteReader) readUint8() (uint8, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *byteReader) readUint16() (uint16, error) {
	b, err := r.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *byteReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *byteReader) readString() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if n > maxBlob {
		return "", fmt.Errorf("serialized image: string length %d out of range", n)
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *byteReader) readBlob() ([]byte, error) {
	n, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	if n > maxBlob {
		return nil, fmt.Errorf("serialized image: blob length %d out of range", n)
	}
	if n == 0 {
		return nil, nil
	}
	b, err := r.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// byteWriter is the little-endian mirror of byteReader.
type byteWriter struct {
	buf []byte
}

func (w *byteWriter) writeBytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *byteWriter) writeUint8(v uint8) { w.buf = append(w.buf, v) }

func (w *byteWriter) writeUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *byteWriter) writeUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *byteWriter) writeString(s string) {
	w.writeUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *byteWriter) writeBlob(b []byte) {
	w.writeUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}
