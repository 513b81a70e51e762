package metadata

// TypeDefinition is a type defined in the current module. It owns its
// members and nested types; the declaring type of a nested definition
// is a plain back-pointer maintained by AddNestedType.
type TypeDefinition struct {
	entityBase

	name      *Lazy[string]
	namespace *Lazy[string]

	declaring *TypeDefinition

	nested     []*TypeDefinition
	fields     []*FieldDefinition
	methods    []*MethodDefinition
	properties []*PropertyDefinition
	events     []*EventDefinition
}

// NewTypeDefinition constructs an in-memory type definition with a
// null token.
func NewTypeDefinition(namespace, name string) *TypeDefinition {
	t := &TypeDefinition{}
	t.name = LazyValue(name)
	t.namespace = LazyValue(namespace)
	return t
}

func newTypeDefinitionFromRow(module *Module, token Token) *TypeDefinition {
	t := &TypeDefinition{}
	t.module = module
	t.token = token
	t.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := t.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	t.namespace = NewLazy(func(owner any) (string, error) {
		row, ok, err := t.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Namespace, nil
	})
	return t
}

func (t *TypeDefinition) Name() string        { return t.name.MustGet(t) }
func (t *TypeDefinition) SetName(name string) { t.name.Set(name) }

func (t *TypeDefinition) Namespace() string             { return t.namespace.MustGet(t) }
func (t *TypeDefinition) SetNamespace(namespace string) { t.namespace.Set(namespace) }

func (t *TypeDefinition) DeclaringType() TypeDescriptor {
	if t.declaring == nil {
		return nil
	}
	return t.declaring
}

func (t *TypeDefinition) FullName() string {
	return typeFullName(t, make(map[Entity]bool))
}

// Resolve on a definition is the identity mapping.
func (t *TypeDefinition) Resolve() *TypeDefinition { return t }

// IsNested reports whether the type is declared inside another type.
func (t *TypeDefinition) IsNested() bool { return t.declaring != nil }

func (t *TypeDefinition) NestedTypes() []*TypeDefinition    { return t.nested }
func (t *TypeDefinition) Fields() []*FieldDefinition        { return t.fields }
func (t *TypeDefinition) Methods() []*MethodDefinition      { return t.methods }
func (t *TypeDefinition) Properties() []*PropertyDefinition { return t.properties }
func (t *TypeDefinition) Events() []*EventDefinition        { return t.events }

// AddNestedType appends a nested type and wires its declaring-type
// back-pointer and module ownership.
func (t *TypeDefinition) AddNestedType(nested *TypeDefinition) {
	nested.declaring = t
	nested.module = t.module
	t.nested = append(t.nested, nested)
}

// AddField appends a field and claims ownership of it.
func (t *TypeDefinition) AddField(field *FieldDefinition) {
	field.declaring = t
	field.module = t.module
	t.fields = append(t.fields, field)
}

// AddMethod appends a method and claims ownership of it.
func (t *TypeDefinition) AddMethod(method *MethodDefinition) {
	method.declaring = t
	method.module = t.module
	for _, param := range method.params {
		param.module = t.module
	}
	t.methods = append(t.methods, method)
}

// AddProperty appends a property and claims ownership of it.
func (t *TypeDefinition) AddProperty(property *PropertyDefinition) {
	property.declaring = t
	property.module = t.module
	t.properties = append(t.properties, property)
}

// AddEvent appends an event and claims ownership of it.
func (t *TypeDefinition) AddEvent(event *EventDefinition) {
	event.declaring = t
	event.module = t.module
	t.events = append(t.events, event)
}

// GetMethod returns the first method with the given name, or nil.
func (t *TypeDefinition) GetMethod(name string) *MethodDefinition {
	for _, m := range t.methods {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// GetField returns the first field with the given name, or nil.
func (t *TypeDefinition) GetField(name string) *FieldDefinition {
	for _, f := range t.fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// GetNestedType returns the nested type with the given name, or nil.
func (t *TypeDefinition) GetNestedType(name string) *TypeDefinition {
	for _, n := range t.nested {
		if n.Name() == name {
			return n
		}
	}
	return nil
}
