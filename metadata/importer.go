package metadata

// Importer creates references in a target module for types defined or
// referenced elsewhere. Imports are deduplicated structurally: two
// imports of the same logical type yield the same reference object.
type Importer struct {
	target   *Module
	comparer SignatureComparer
	imported []*TypeReference
}

// NewImporter creates an importer producing references owned by the
// target module.
func NewImporter(target *Module) *Importer {
	return &Importer{target: target}
}

// ImportType returns a type reference in the target module naming the
// given type. A type already defined in the target is returned as is
// would be referenced; newly created references carry a null token
// until a build assigns one.
func (i *Importer) ImportType(t TypeDescriptor) *TypeReference {
	for _, existing := range i.imported {
		if i.comparer.TypesEqual(existing, t) {
			return existing
		}
	}

	var scope ResolutionScope
	if declaring := t.DeclaringType(); declaring != nil {
		scope = i.ImportType(declaring)
	} else if source := t.Module(); source != nil && source != i.target {
		scope = i.importScope(source)
	} else {
		scope = i.target
	}

	ref := NewTypeReference(scope, t.Namespace(), t.Name())
	ref.module = i.target
	i.imported = append(i.imported, ref)
	return ref
}

// importScope produces the assembly reference standing for a foreign
// module in the target.
func (i *Importer) importScope(source *Module) ResolutionScope {
	ref := NewAssemblyReference(source.Name(), AssemblyVersion{})
	ref.module = i.target
	return ref
}
