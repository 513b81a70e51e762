package builder

import (
	"fmt"

	"github.com/puff/AsmResolver/metadata"
)

// CheckTokenStability compares an original module against its rebuilt
// and reloaded counterpart: every entity whose table category the
// policy preserves must carry an identical token on both sides.
// Entities are matched by declaring-type full name, then by member
// name and occurrence order, so overloads line up positionally.
func CheckTokenStability(original, rebuilt *metadata.Module, flags PreserveFlags) error {
	for _, origType := range allTypes(original) {
		rebuiltType := findType(rebuilt, origType.FullName())
		if rebuiltType == nil {
			return fmt.Errorf("type %s missing from rebuilt module", origType.FullName())
		}
		if flags.Has(PreserveTypeTokens) && origType.Token() != rebuiltType.Token() {
			return fmt.Errorf("type %s: token %s became %s",
				origType.FullName(), origType.Token(), rebuiltType.Token())
		}
		if err := checkMembers(origType, rebuiltType, flags); err != nil {
			return err
		}
	}
	return nil
}

func checkMembers(orig, rebuilt *metadata.TypeDefinition, flags PreserveFlags) error {
	if flags.Has(PreserveFieldTokens) {
		seen := make(map[string]int)
		for _, f := range orig.Fields() {
			nth := seen[f.Name()]
			seen[f.Name()]++
			match := nthField(rebuilt, f.Name(), nth)
			if match == nil {
				return fmt.Errorf("field %s missing from rebuilt module", f.FullName())
			}
			if f.Token() != match.Token() {
				return fmt.Errorf("field %s: token %s became %s", f.FullName(), f.Token(), match.Token())
			}
		}
	}
	if flags.Has(PreserveMethodTokens) {
		seen := make(map[string]int)
		for _, m := range orig.Methods() {
			nth := seen[m.Name()]
			seen[m.Name()]++
			match := nthMethod(rebuilt, m.Name(), nth)
			if match == nil {
				return fmt.Errorf("method %s missing from rebuilt module", m.FullName())
			}
			if m.Token() != match.Token() {
				return fmt.Errorf("method %s: token %s became %s", m.FullName(), m.Token(), match.Token())
			}
		}
	}
	return nil
}

// nthField returns the n-th field with the given name in declaration
// order, or nil.
func nthField(t *metadata.TypeDefinition, name string, n int) *metadata.FieldDefinition {
	for _, f := range t.Fields() {
		if f.Name() != name {
			continue
		}
		if n == 0 {
			return f
		}
		n--
	}
	return nil
}

// nthMethod returns the n-th method with the given name in declaration
// order, or nil.
func nthMethod(t *metadata.TypeDefinition, name string, n int) *metadata.MethodDefinition {
	for _, m := range t.Methods() {
		if m.Name() != name {
			continue
		}
		if n == 0 {
			return m
		}
		n--
	}
	return nil
}

// CheckMonotonicGrowth asserts that the rebuilt image never drops
// rows: each table's row count is at least the original's.
func CheckMonotonicGrowth(original, rebuilt metadata.TableProvider) error {
	for i := metadata.TableIndex(0); i < 0x2D; i++ {
		before, after := original.RowCount(i), rebuilt.RowCount(i)
		if after < before {
			return fmt.Errorf("table %s shrank from %d to %d rows", i, before, after)
		}
	}
	return nil
}

func allTypes(m *metadata.Module) []*metadata.TypeDefinition {
	var out []*metadata.TypeDefinition
	var walk func(t *metadata.TypeDefinition)
	walk = func(t *metadata.TypeDefinition) {
		out = append(out, t)
		for _, nested := range t.NestedTypes() {
			walk(nested)
		}
	}
	for _, t := range m.TopLevelTypes() {
		walk(t)
	}
	return out
}

func findType(m *metadata.Module, fullName string) *metadata.TypeDefinition {
	for _, t := range allTypes(m) {
		if t.FullName() == fullName {
			return t
		}
	}
	return nil
}
