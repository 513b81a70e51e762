package metadata

// Method attribute bits the core inspects. All other flag bits travel
// through untouched.
const (
	MethodAttrStatic uint32 = 0x0010
)

// memberBase is the shared state of members declared inside a type:
// a lazily resolved name, the raw attribute flags, and a non-owning
// back-pointer to the declaring type.
type memberBase struct {
	entityBase

	name      *Lazy[string]
	flags     uint32
	signature []byte

	declaring *TypeDefinition
}

func (m *memberBase) Name() string        { return m.name.MustGet(m) }
func (m *memberBase) SetName(name string) { m.name.Set(name) }

// Attributes returns the member's raw flag bits.
func (m *memberBase) Attributes() uint32 { return m.flags }

// Signature returns the member's signature blob. The core does not
// interpret it.
func (m *memberBase) Signature() []byte { return m.signature }

func (m *memberBase) DeclaringType() TypeDescriptor {
	if m.declaring == nil {
		return nil
	}
	return m.declaring
}

// FullName qualifies the member by its declaring type, the way CLR
// tooling prints member names.
func (m *memberBase) FullName() string {
	if m.declaring == nil {
		return m.Name()
	}
	return m.declaring.FullName() + "::" + m.Name()
}

func newMemberBase(name string) memberBase {
	return memberBase{name: LazyValue(name)}
}

func newMemberBaseFromRow(module *Module, token Token) memberBase {
	m := memberBase{}
	m.module = module
	m.token = token
	base := &m
	m.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := base.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	return m
}

// FieldDefinition is a field declared by a type in this module.
type FieldDefinition struct {
	memberBase
}

// NewFieldDefinition constructs an in-memory field with a null token.
func NewFieldDefinition(name string, flags uint32, signature []byte) *FieldDefinition {
	f := &FieldDefinition{memberBase: newMemberBase(name)}
	f.flags = flags
	f.signature = signature
	return f
}

func newFieldDefinitionFromRow(module *Module, token Token) *FieldDefinition {
	f := &FieldDefinition{memberBase: newMemberBaseFromRow(module, token)}
	if row, ok, err := f.readRow(); err == nil && ok {
		f.flags = row.Flags
		f.signature = row.Blob
	}
	return f
}

// MethodDefinition is a method declared by a type in this module. It
// owns its ordered parameter list.
type MethodDefinition struct {
	memberBase

	params []*ParameterDefinition

	// rawCode is the encoded instruction stream. The core does not
	// decode it; the cil package does.
	rawCode []byte
}

// NewMethodDefinition constructs an in-memory method with a null
// token.
func NewMethodDefinition(name string, flags uint32, signature []byte) *MethodDefinition {
	m := &MethodDefinition{memberBase: newMemberBase(name)}
	m.flags = flags
	m.signature = signature
	return m
}

func newMethodDefinitionFromRow(module *Module, token Token) *MethodDefinition {
	m := &MethodDefinition{memberBase: newMemberBaseFromRow(module, token)}
	if row, ok, err := m.readRow(); err == nil && ok {
		m.flags = row.Flags
		m.signature = row.Blob
		m.rawCode = row.Code
	}
	return m
}

// RawCode returns the method's encoded instruction stream, nil for an
// abstract or unloaded method.
func (m *MethodDefinition) RawCode() []byte { return m.rawCode }

// SetRawCode replaces the method's encoded instruction stream.
func (m *MethodDefinition) SetRawCode(code []byte) { m.rawCode = code }

// IsStatic reports whether the method has no implicit this parameter.
func (m *MethodDefinition) IsStatic() bool {
	return m.flags&MethodAttrStatic != 0
}

func (m *MethodDefinition) Parameters() []*ParameterDefinition { return m.params }

// AddParameter appends a parameter and claims ownership of it.
func (m *MethodDefinition) AddParameter(param *ParameterDefinition) {
	param.method = m
	param.module = m.module
	m.params = append(m.params, param)
}

// ParameterBySignatureIndex returns the parameter at the given
// signature position. On an instance method, signature index 0 is the
// implicit this slot and raw parameters start at index 1; on a static
// method signature indices and raw indices coincide. The second result
// is false when the index is out of range or names the this slot.
func (m *MethodDefinition) ParameterBySignatureIndex(index int) (*ParameterDefinition, bool) {
	if !m.IsStatic() {
		index--
	}
	if index < 0 || index >= len(m.params) {
		return nil, false
	}
	return m.params[index], true
}

// ParameterDefinition is a declared parameter row of a method.
type ParameterDefinition struct {
	entityBase

	name   *Lazy[string]
	flags  uint32
	method *MethodDefinition
}

// NewParameterDefinition constructs an in-memory parameter with a null
// token.
func NewParameterDefinition(name string, flags uint32) *ParameterDefinition {
	p := &ParameterDefinition{name: LazyValue(name)}
	p.flags = flags
	return p
}

func newParameterDefinitionFromRow(module *Module, token Token) *ParameterDefinition {
	p := &ParameterDefinition{}
	p.module = module
	p.token = token
	p.name = NewLazy(func(owner any) (string, error) {
		row, ok, err := p.readRow()
		if err != nil || !ok {
			return "", err
		}
		return row.Name, nil
	})
	return p
}

func (p *ParameterDefinition) Name() string        { return p.name.MustGet(p) }
func (p *ParameterDefinition) SetName(name string) { p.name.Set(name) }

// Method returns the declaring method, or nil for a parameter not yet
// attached to one.
func (p *ParameterDefinition) Method() *MethodDefinition { return p.method }

// PropertyDefinition is a property declared by a type in this module.
type PropertyDefinition struct {
	memberBase
}

// NewPropertyDefinition constructs an in-memory property with a null
// token.
func NewPropertyDefinition(name string, flags uint32, signature []byte) *PropertyDefinition {
	p := &PropertyDefinition{memberBase: newMemberBase(name)}
	p.flags = flags
	p.signature = signature
	return p
}

func newPropertyDefinitionFromRow(module *Module, token Token) *PropertyDefinition {
	p := &PropertyDefinition{memberBase: newMemberBaseFromRow(module, token)}
	if row, ok, err := p.readRow(); err == nil && ok {
		p.flags = row.Flags
		p.signature = row.Blob
	}
	return p
}

// EventDefinition is an event declared by a type in this module.
type EventDefinition struct {
	memberBase
}

// NewEventDefinition constructs an in-memory event with a null token.
func NewEventDefinition(name string, flags uint32) *EventDefinition {
	e := &EventDefinition{memberBase: newMemberBase(name)}
	e.flags = flags
	return e
}

func newEventDefinitionFromRow(module *Module, token Token) *EventDefinition {
	e := &EventDefinition{memberBase: newMemberBaseFromRow(module, token)}
	if row, ok, err := e.readRow(); err == nil && ok {
		e.flags = row.Flags
	}
	return e
}
