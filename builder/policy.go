package builder

import (
	"fmt"
	"strings"

	"github.com/puff/AsmResolver/metadata"
)

// PreserveFlags selects which table categories must retain their
// original tokens across a rebuild. The zero value preserves nothing:
// every category is free to be renumbered unless the caller opts in.
type PreserveFlags uint32

const (
	PreserveTypeTokens PreserveFlags = 1 << iota
	PreserveFieldTokens
	PreserveMethodTokens
	PreserveParamTokens
	PreservePropertyTokens
	PreserveEventTokens
	PreserveStrings
	PreserveBlobs

	// PreserveAll turns on every category.
	PreserveAll PreserveFlags = PreserveTypeTokens | PreserveFieldTokens |
		PreserveMethodTokens | PreserveParamTokens | PreservePropertyTokens |
		PreserveEventTokens | PreserveStrings | PreserveBlobs
)

var flagNames = map[string]PreserveFlags{
	"preserve_type_tokens":     PreserveTypeTokens,
	"preserve_field_tokens":    PreserveFieldTokens,
	"preserve_method_tokens":   PreserveMethodTokens,
	"preserve_param_tokens":    PreserveParamTokens,
	"preserve_property_tokens": PreservePropertyTokens,
	"preserve_event_tokens":    PreserveEventTokens,
	"preserve_strings":         PreserveStrings,
	"preserve_blobs":           PreserveBlobs,
}

// ParsePreserveFlags builds a flag set from configuration names such
// as "preserve_type_tokens". The name "all" selects every category.
func ParsePreserveFlags(names []string) (PreserveFlags, error) {
	var flags PreserveFlags
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "all" {
			flags |= PreserveAll
			continue
		}
		flag, ok := flagNames[key]
		if !ok {
			return 0, fmt.Errorf("unknown preservation category %q", name)
		}
		flags |= flag
	}
	return flags, nil
}

// Has reports whether every bit of flag is set.
func (f PreserveFlags) Has(flag PreserveFlags) bool {
	return f&flag == flag
}

// coversTable maps a table index to its preservation category.
func (f PreserveFlags) coversTable(table metadata.TableIndex) bool {
	switch table {
	case metadata.TableTypeDef, metadata.TableTypeRef, metadata.TableTypeSpec,
		metadata.TableExportedType:
		return f.Has(PreserveTypeTokens)
	case metadata.TableField:
		return f.Has(PreserveFieldTokens)
	case metadata.TableMethod, metadata.TableMemberRef:
		return f.Has(PreserveMethodTokens)
	case metadata.TableParam:
		return f.Has(PreserveParamTokens)
	case metadata.TableProperty:
		return f.Has(PreservePropertyTokens)
	case metadata.TableEvent:
		return f.Has(PreserveEventTokens)
	default:
		return false
	}
}

// GapMode decides what happens when preserved row ids leave holes in a
// table: rows that existed in the source image but whose entities were
// removed from the graph.
type GapMode int

const (
	// GapPlaceholder fills holes with zeroed tombstone rows so every
	// preserved row id lands exactly where its token says. This is the
	// default.
	GapPlaceholder GapMode = iota

	// GapReject fails the build instead of emitting tombstones.
	GapReject
)

func (m GapMode) String() string {
	switch m {
	case GapPlaceholder:
		return "placeholder"
	case GapReject:
		return "reject"
	default:
		return fmt.Sprintf("GapMode(%d)", int(m))
	}
}

// ParseGapMode parses a configuration value for the gap rule.
func ParseGapMode(name string) (GapMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "placeholder":
		return GapPlaceholder, nil
	case "reject":
		return GapReject, nil
	default:
		return 0, fmt.Errorf("unknown gap mode %q", name)
	}
}

// Policy is the full build configuration.
type Policy struct {
	Preserve PreserveFlags
	Gaps     GapMode
}
