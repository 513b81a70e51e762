package metadata

import "fmt"

// fakeTables is an in-memory TableProvider/StringProvider used across
// the package tests. Rows are stored 0-based; row ids remain 1-based
// at the interface as everywhere else.
type fakeTables struct {
	rows    map[TableIndex][]RawRow
	strings map[uint32]string

	// failRows makes ReadRow fail for specific rows, simulating
	// corrupt backing data.
	failRows map[Token]bool

	reads int
}

func (f *fakeTables) RowCount(table TableIndex) uint32 {
	return uint32(len(f.rows[table]))
}

func (f *fakeTables) ReadRow(table TableIndex, rid uint32) (RawRow, error) {
	f.reads++
	if f.failRows[NewToken(table, rid)] {
		return RawRow{}, fmt.Errorf("corrupt row")
	}
	rows := f.rows[table]
	if rid == 0 || rid > uint32(len(rows)) {
		return RawRow{}, fmt.Errorf("row %d out of range", rid)
	}
	return rows[rid-1], nil
}

func (f *fakeTables) UserString(index uint32) (string, bool) {
	s, ok := f.strings[index]
	return s, ok
}

func (f *fakeTables) addRow(table TableIndex, row RawRow) Token {
	f.rows[table] = append(f.rows[table], row)
	return NewToken(table, uint32(len(f.rows[table])))
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		rows:     make(map[TableIndex][]RawRow),
		strings:  make(map[uint32]string),
		failRows: make(map[Token]bool),
	}
}
