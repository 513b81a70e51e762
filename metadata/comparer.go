package metadata

import "hash/fnv"

// SignatureComparer compares type descriptors structurally, by name,
// namespace and resolution scope. Two distinct tokens may denote the
// same logical type (a reference and its definition), so token-based
// comparison is deliberately not offered here.
type SignatureComparer struct{}

// TypesEqual reports whether two descriptors name the same logical
// type. Declaring-type chains are compared recursively with a depth
// guard so scope cycles terminate.
func (c SignatureComparer) TypesEqual(a, b TypeDescriptor) bool {
	return c.typesEqual(a, b, 0)
}

// scopeChainLimit bounds recursive scope comparison. Real nesting
// depths are tiny; anything deeper is a cycle.
const scopeChainLimit = 64

func (c SignatureComparer) typesEqual(a, b TypeDescriptor, depth int) bool {
	if a == nil || b == nil {
		return a == b
	}
	if depth > scopeChainLimit {
		return false
	}
	if a.Name() != b.Name() || a.Namespace() != b.Namespace() {
		return false
	}
	da, db := a.DeclaringType(), b.DeclaringType()
	if (da == nil) != (db == nil) {
		return false
	}
	if da != nil {
		return c.typesEqual(da, db, depth+1)
	}
	return scopeNameOf(a) == scopeNameOf(b)
}

// HashType returns a hash consistent with TypesEqual. The resolution
// scope is intentionally left out so a reference and its definition
// land in the same bucket.
func (c SignatureComparer) HashType(t TypeDescriptor) uint64 {
	h := fnv.New64a()
	h.Write([]byte(t.Namespace()))
	h.Write([]byte{0})
	h.Write([]byte(t.Name()))
	return h.Sum64()
}

// scopeNameOf returns the simple name of a descriptor's resolution
// scope, or the module name for a definition. Assembly references
// compare by assembly name alone, without the version qualifier, so a
// reference matches the definition living in that assembly's module.
func scopeNameOf(t TypeDescriptor) string {
	if ref, ok := t.(*TypeReference); ok {
		switch scope := ref.Scope().(type) {
		case nil:
			return ""
		case Named:
			return scope.Name()
		default:
			return scope.ScopeName()
		}
	}
	if m := t.Module(); m != nil {
		return m.Name()
	}
	return ""
}
