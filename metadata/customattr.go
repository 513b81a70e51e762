package metadata

import "sync/atomic"

// CustomAttribute is a single attribute row: the constructor entity it
// names and the raw value blob, which the core does not decode.
type CustomAttribute struct {
	entityBase

	constructor Entity
	value       []byte
}

// NewCustomAttribute constructs an in-memory attribute.
func NewCustomAttribute(constructor Entity, value []byte) *CustomAttribute {
	return &CustomAttribute{constructor: constructor, value: value}
}

// Constructor returns the attribute's constructor entity, usually a
// member reference or method definition. Nil when it could not be
// resolved.
func (c *CustomAttribute) Constructor() Entity { return c.constructor }

// Value returns the raw attribute blob.
func (c *CustomAttribute) Value() []byte { return c.value }

// CustomAttributeList is the exclusively-owned attribute collection of
// a single entity. Backing rows are loaded at most once; concurrent
// first reads agree on one loaded slice via compare-and-swap, the same
// protocol the lazy cells use.
type CustomAttributeList struct {
	module *Module
	owner  Token

	loaded atomic.Pointer[[]*CustomAttribute]
	added  []*CustomAttribute
}

func newCustomAttributeList(module *Module, owner Token) *CustomAttributeList {
	return &CustomAttributeList{module: module, owner: owner}
}

// Items returns the attributes read from the owner's backing rows
// followed by any attributes added in memory.
func (l *CustomAttributeList) Items() []*CustomAttribute {
	return append(l.loadBacked(), l.added...)
}

// Count returns the total number of attributes.
func (l *CustomAttributeList) Count() int {
	return len(l.loadBacked()) + len(l.added)
}

// Add appends an in-memory attribute to the list.
func (l *CustomAttributeList) Add(attr *CustomAttribute) {
	l.added = append(l.added, attr)
}

// Added returns only the attributes added in memory, which is what the
// builder must emit as new rows.
func (l *CustomAttributeList) Added() []*CustomAttribute { return l.added }

func (l *CustomAttributeList) loadBacked() []*CustomAttribute {
	if p := l.loaded.Load(); p != nil {
		return *p
	}
	items := l.readRows()
	if l.loaded.CompareAndSwap(nil, &items) {
		return items
	}
	return *l.loaded.Load()
}

// readRows scans the CustomAttribute table for rows whose parent is
// the owner. Unresolvable constructor tokens produce attributes with a
// nil constructor rather than aborting the scan.
func (l *CustomAttributeList) readRows() []*CustomAttribute {
	if l.module == nil || l.module.tables == nil || l.owner.IsNull() {
		return nil
	}
	var items []*CustomAttribute
	count := l.module.tables.RowCount(TableCustomAttribute)
	for rid := uint32(1); rid <= count; rid++ {
		row, err := l.module.tables.ReadRow(TableCustomAttribute, rid)
		if err != nil {
			continue
		}
		if row.Scope != l.owner {
			continue
		}
		attr := &CustomAttribute{value: row.Blob}
		attr.module = l.module
		attr.token = NewToken(TableCustomAttribute, rid)
		if ctor, ok := l.module.TryLookupMember(row.Member); ok {
			attr.constructor = ctor
		}
		items = append(items, attr)
	}
	return items
}
