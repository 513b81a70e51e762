package metadata

import "fmt"

// Token is the compact identity of a metadata entity: the most
// significant byte holds the table index and the low 24 bits hold the
// 1-based row id. A row id of zero is the null token, used for
// entities created in memory that have not been committed to a table.
type Token uint32

// MaxRID is the largest row id a token can address (24 bits).
const MaxRID uint32 = 0x00FFFFFF

// NewToken builds a token from a table index and a row id. Row ids
// above MaxRID are truncated by the encoding; callers that need to
// guard against that should check before constructing.
func NewToken(table TableIndex, rid uint32) Token {
	return Token(uint32(table)<<24 | (rid & MaxRID))
}

// Table returns the table index encoded in the high byte.
func (t Token) Table() TableIndex {
	return TableIndex(t >> 24)
}

// RID returns the 1-based row id encoded in the low 24 bits.
func (t Token) RID() uint32 {
	return uint32(t) & MaxRID
}

// IsNull reports whether the token has the reserved row id 0.
func (t Token) IsNull() bool {
	return t.RID() == 0
}

// IsValidIn reports whether the token addresses an existing row of the
// given provider. The null token is considered valid.
func (t Token) IsValidIn(provider TableProvider) bool {
	if t.IsNull() {
		return true
	}
	return t.RID() <= provider.RowCount(t.Table())
}

// Compare orders tokens by (table, rid). It returns -1, 0 or +1.
func (t Token) Compare(other Token) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	default:
		return 0
	}
}

// String renders the token as Table[0xTTRRRRRR], matching the way
// metadata tokens are conventionally printed by CLR tooling.
func (t Token) String() string {
	return fmt.Sprintf("%s[0x%08X]", t.Table(), uint32(t))
}
