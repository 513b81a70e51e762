package builder

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/puff/AsmResolver/cil"
	"github.com/puff/AsmResolver/metadata"
	"github.com/puff/AsmResolver/metadata/serialized"
)

// TokenMapping records where each originally-tokened entity landed in
// the rebuilt image.
type TokenMapping map[metadata.Token]metadata.Token

// Remap translates a token through the mapping, returning it unchanged
// when it was not reassigned.
func (m TokenMapping) Remap(token metadata.Token) metadata.Token {
	if mapped, ok := m[token]; ok {
		return mapped
	}
	return token
}

type buildState int

const (
	stateIdle buildState = iota
	stateCollecting
	stateEmitting
	stateDone
)

// managedTables are the tables whose rows the builder derives from the
// owned entity tree. Rows of every other table present in the source
// image are carried over verbatim, with token columns remapped.
var managedTables = []metadata.TableIndex{
	metadata.TableTypeDef,
	metadata.TableField,
	metadata.TableMethod,
	metadata.TableParam,
	metadata.TableProperty,
	metadata.TableEvent,
}

// Builder serializes a module's entity graph back into a table stream
// under a preservation policy. A builder is single use.
type Builder struct {
	policy Policy
	log    *zap.Logger

	state   buildState
	module  *metadata.Module
	writer  *serialized.Writer
	mapping TokenMapping

	// buckets holds, per managed table, the owned entities in
	// declaration order.
	buckets map[metadata.TableIndex][]metadata.Entity
	// claimed tracks which row ids each table has handed out, and to
	// whom, for collision detection.
	claimed map[metadata.TableIndex]map[uint32]metadata.Entity
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) { b.log = log }
}

// New creates a builder with the given policy.
func New(policy Policy, opts ...Option) *Builder {
	b := &Builder{
		policy:  policy,
		log:     zap.NewNop(),
		mapping: make(TokenMapping),
		buckets: make(map[metadata.TableIndex][]metadata.Entity),
		claimed: make(map[metadata.TableIndex]map[uint32]metadata.Entity),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build collects the module's owned entity tree, assigns tokens under
// the policy, and emits the serialized image. Fatal conditions (token
// collisions, impossible preservation requests) abort with no partial
// output.
func (b *Builder) Build(module *metadata.Module) (*serialized.Image, error) {
	if b.state != stateIdle {
		return nil, fmt.Errorf("%w: Build called twice", ErrBuilderState)
	}
	b.module = module
	b.writer = serialized.NewWriter(module.Name(), module.MVID())

	b.state = stateCollecting
	b.collect()
	if err := b.assignTokens(); err != nil {
		b.state = stateDone
		return nil, err
	}

	b.state = stateEmitting
	if err := b.emit(); err != nil {
		b.state = stateDone
		return nil, err
	}

	b.state = stateDone
	return b.writer.Finish(), nil
}

// Mapping returns the old-to-new token mapping of the last build.
func (b *Builder) Mapping() TokenMapping { return b.mapping }

// collect walks the owned tree depth first in declaration order:
// each type, then its nested types, then fields, methods with their
// parameters, properties and events.
func (b *Builder) collect() {
	for _, t := range b.module.TopLevelTypes() {
		b.collectType(t)
	}
	for _, table := range managedTables {
		b.log.Debug("collected entities",
			zap.String("table", table.String()),
			zap.Int("count", len(b.buckets[table])))
	}
}

func (b *Builder) collectType(t *metadata.TypeDefinition) {
	b.buckets[metadata.TableTypeDef] = append(b.buckets[metadata.TableTypeDef], t)
	for _, nested := range t.NestedTypes() {
		b.collectType(nested)
	}
	for _, f := range t.Fields() {
		b.buckets[metadata.TableField] = append(b.buckets[metadata.TableField], f)
	}
	for _, m := range t.Methods() {
		b.buckets[metadata.TableMethod] = append(b.buckets[metadata.TableMethod], m)
		for _, p := range m.Parameters() {
			b.buckets[metadata.TableParam] = append(b.buckets[metadata.TableParam], p)
		}
	}
	for _, p := range t.Properties() {
		b.buckets[metadata.TableProperty] = append(b.buckets[metadata.TableProperty], p)
	}
	for _, e := range t.Events() {
		b.buckets[metadata.TableEvent] = append(b.buckets[metadata.TableEvent], e)
	}
}

// assignTokens gives every collected entity its final row id: entities
// whose table category is preserved keep their original token
// verbatim and fresh entities go after the highest preserved row, so a
// removed entity's row stays a tombstone instead of being reused.
// Without preservation the table is renumbered from row 1.
func (b *Builder) assignTokens() error {
	for _, table := range managedTables {
		entities := b.buckets[table]
		claimed := make(map[uint32]metadata.Entity)
		b.claimed[table] = claimed
		preserve := b.policy.Preserve.coversTable(table)

		if preserve {
			for _, e := range entities {
				token := e.Token()
				if token.IsNull() {
					continue
				}
				if prev, taken := claimed[token.RID()]; taken {
					return &TokenCollisionError{
						Token:  token,
						First:  displayName(prev),
						Second: displayName(e),
					}
				}
				claimed[token.RID()] = e
			}
		}

		next := uint32(1)
		if preserve {
			for rid := range claimed {
				if rid >= next {
					next = rid + 1
				}
			}
		}
		for _, e := range entities {
			if preserve && !e.Token().IsNull() {
				continue
			}
			for claimed[next] != nil {
				next++
			}
			if next > metadata.MaxRID {
				return &PreservationImpossibleError{
					Table:  table,
					Reason: fmt.Sprintf("row id %d exceeds the 24-bit token space", next),
				}
			}
			old := e.Token()
			fresh := metadata.NewToken(table, next)
			if err := metadata.Renumber(e, fresh); err != nil {
				return err
			}
			if !old.IsNull() {
				b.mapping[old] = fresh
			}
			claimed[next] = e
		}

		if err := b.checkGaps(table, claimed); err != nil {
			return err
		}
	}
	return nil
}

// checkGaps enforces the configured gap rule: a preserved table whose
// live entities no longer cover every original row either gets
// tombstone rows (the writer emits zeroed rows for unset ids) or fails
// the build.
func (b *Builder) checkGaps(table metadata.TableIndex, claimed map[uint32]metadata.Entity) error {
	if b.policy.Gaps != GapReject {
		return nil
	}
	var max uint32
	for rid := range claimed {
		if rid > max {
			max = rid
		}
	}
	for rid := uint32(1); rid <= max; rid++ {
		if claimed[rid] == nil {
			return &PreservationImpossibleError{
				Table:  table,
				Reason: fmt.Sprintf("row %d has no live entity and gap mode is %s", rid, b.policy.Gaps),
			}
		}
	}
	return nil
}

// emit serializes the module row, every managed entity, the carried
// over reference tables, and newly added custom attributes.
func (b *Builder) emit() error {
	b.writer.SetRow(metadata.TableModule, 1, metadata.RawRow{Name: b.module.Name()})

	b.seedStrings()

	for _, table := range managedTables {
		for _, e := range b.buckets[table] {
			row, err := b.rowFor(e)
			if err != nil {
				return err
			}
			b.writer.SetRow(table, e.Token().RID(), row)
		}
	}

	b.carryOverTables()
	b.emitAddedAttributes()
	return nil
}

// seedStrings keeps the original #US heap when string offsets are
// pinned by the policy. Without preservation the heap is rebuilt from
// scratch as ldstr operands are re-interned.
func (b *Builder) seedStrings() {
	if !b.policy.Preserve.Has(PreserveStrings) {
		return
	}
	type heapSource interface{ UserStringHeap() []byte }
	if src, ok := b.module.Tables().(heapSource); ok {
		b.writer.SeedUserStrings(src.UserStringHeap())
	}
}

func (b *Builder) rowFor(e metadata.Entity) (metadata.RawRow, error) {
	switch v := e.(type) {
	case *metadata.TypeDefinition:
		row := metadata.RawRow{Name: v.Name(), Namespace: v.Namespace()}
		if declaring := v.DeclaringType(); declaring != nil {
			row.Scope = declaring.Token()
		}
		return row, nil
	case *metadata.FieldDefinition:
		return metadata.RawRow{
			Name:  v.Name(),
			Flags: v.Attributes(),
			Blob:  v.Signature(),
			Scope: v.DeclaringType().Token(),
		}, nil
	case *metadata.MethodDefinition:
		code, err := b.rewriteCode(v.RawCode())
		if err != nil {
			return metadata.RawRow{}, err
		}
		return metadata.RawRow{
			Name:  v.Name(),
			Flags: v.Attributes(),
			Blob:  v.Signature(),
			Code:  code,
			Scope: v.DeclaringType().Token(),
		}, nil
	case *metadata.ParameterDefinition:
		row := metadata.RawRow{Name: v.Name()}
		if method := v.Method(); method != nil {
			row.Scope = method.Token()
		}
		return row, nil
	case *metadata.PropertyDefinition:
		return metadata.RawRow{
			Name:  v.Name(),
			Flags: v.Attributes(),
			Blob:  v.Signature(),
			Scope: v.DeclaringType().Token(),
		}, nil
	case *metadata.EventDefinition:
		return metadata.RawRow{
			Name:  v.Name(),
			Flags: v.Attributes(),
			Scope: v.DeclaringType().Token(),
		}, nil
	default:
		return metadata.RawRow{}, fmt.Errorf("no row emitter for %T", e)
	}
}

// rewriteCode passes a method's instruction stream through the token
// mapping: member operands pointing at renumbered entities are patched
// and string operands are re-interned in the output heap.
func (b *Builder) rewriteCode(code []byte) ([]byte, error) {
	if len(code) == 0 {
		return nil, nil
	}
	raw, err := cil.DecodeRaw(code)
	if err != nil {
		return nil, fmt.Errorf("method body: %w", err)
	}
	for i := range raw {
		switch raw[i].OpCode.OperandKind() {
		case cil.OperandMember:
			raw[i].Raw = uint32(b.mapping.Remap(metadata.Token(raw[i].Raw)))
		case cil.OperandString:
			token := metadata.Token(raw[i].Raw)
			if s, ok := b.module.TryLookupString(token); ok {
				off := b.writer.AddUserString(s)
				raw[i].Raw = uint32(metadata.NewToken(metadata.TableUserString, off))
			}
		}
	}
	return cil.EncodeRaw(raw), nil
}

// carryOverTables copies the rows of every unmanaged table from the
// source image, remapping token columns that point at renumbered
// entities. This keeps reference tables (TypeRef, MemberRef, ...)
// intact without the builder owning their entities.
func (b *Builder) carryOverTables() {
	tables := b.module.Tables()
	if tables == nil {
		return
	}
	managed := make(map[metadata.TableIndex]bool, len(managedTables)+1)
	managed[metadata.TableModule] = true
	managed[metadata.TableCustomAttribute] = true
	for _, t := range managedTables {
		managed[t] = true
	}

	carried := carryOverCandidates()
	for _, table := range carried {
		if managed[table] {
			continue
		}
		count := tables.RowCount(table)
		for rid := uint32(1); rid <= count; rid++ {
			row, err := tables.ReadRow(table, rid)
			if err != nil {
				continue
			}
			row.Scope = b.mapping.Remap(row.Scope)
			row.Member = b.mapping.Remap(row.Member)
			b.writer.SetRow(table, rid, row)
		}
	}

	// CustomAttribute backing rows are carried with remapped owners;
	// in-memory additions are appended after them by
	// emitAddedAttributes.
	count := tables.RowCount(metadata.TableCustomAttribute)
	for rid := uint32(1); rid <= count; rid++ {
		row, err := tables.ReadRow(metadata.TableCustomAttribute, rid)
		if err != nil {
			continue
		}
		row.Scope = b.mapping.Remap(row.Scope)
		row.Member = b.mapping.Remap(row.Member)
		b.writer.SetRow(metadata.TableCustomAttribute, rid, row)
	}
}

// carryOverCandidates lists every known table in index order.
func carryOverCandidates() []metadata.TableIndex {
	out := make([]metadata.TableIndex, 0, 0x2D)
	for i := metadata.TableIndex(0); i < 0x2D; i++ {
		out = append(out, i)
	}
	return out
}

// emitAddedAttributes appends rows for attributes added in memory to
// any collected entity.
func (b *Builder) emitAddedAttributes() {
	next := b.writer.RowCount(metadata.TableCustomAttribute) + 1
	for _, table := range managedTables {
		for _, e := range b.buckets[table] {
			owner, ok := e.(metadata.CustomAttributeOwner)
			if !ok {
				continue
			}
			for _, attr := range owner.CustomAttributes().Added() {
				row := metadata.RawRow{Scope: e.Token(), Blob: attr.Value()}
				if ctor := attr.Constructor(); ctor != nil {
					row.Member = b.mapping.Remap(ctor.Token())
				}
				b.writer.SetRow(metadata.TableCustomAttribute, next, row)
				next++
			}
		}
	}
}

func displayName(e metadata.Entity) string {
	switch v := e.(type) {
	case metadata.MemberDescriptor:
		return v.FullName()
	case metadata.TypeDescriptor:
		return v.FullName()
	case metadata.Named:
		return v.Name()
	default:
		return e.Token().String()
	}
}
