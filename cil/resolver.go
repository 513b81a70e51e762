package cil

import "github.com/puff/AsmResolver/metadata"

// OperandResolver turns the raw operand encodings produced by the
// instruction decoder into live objects: member entities, heap
// strings, locals and parameters. Every resolution is a pure function
// of the module state at call time; nothing is cached here, so callers
// that need a stable reference must hold on to the result themselves.
//
// All four operations are soft: an out-of-range index or an
// unresolvable token yields a "no value" answer, never an error,
// because disassembly must proceed over malformed and forward-only
// references.
type OperandResolver struct {
	module *metadata.Module
	body   *MethodBody
}

// NewOperandResolver creates a resolver for instructions belonging to
// the given body, resolving member and string tokens through the
// module.
func NewOperandResolver(module *metadata.Module, body *MethodBody) *OperandResolver {
	return &OperandResolver{module: module, body: body}
}

// ResolveMember resolves a member token to its live entity.
func (r *OperandResolver) ResolveMember(token metadata.Token) (metadata.Entity, bool) {
	if r.module == nil {
		return nil, false
	}
	return r.module.TryLookupMember(token)
}

// ResolveString resolves a user-string token.
func (r *OperandResolver) ResolveString(token metadata.Token) (string, bool) {
	if r.module == nil {
		return "", false
	}
	return r.module.TryLookupString(token)
}

// ResolveLocal returns the local variable at the given index in the
// body's local list.
func (r *OperandResolver) ResolveLocal(index int) (*LocalVariable, bool) {
	if r.body == nil || index < 0 || index >= len(r.body.Locals) {
		return nil, false
	}
	return r.body.Locals[index], true
}

// ResolveParameter returns the parameter at the given signature index.
// On an instance method, index 0 names the implicit this slot and
// declared parameters start at 1.
func (r *OperandResolver) ResolveParameter(index int) (*metadata.ParameterDefinition, bool) {
	if r.body == nil || r.body.Owner == nil {
		return nil, false
	}
	return r.body.Owner.ParameterBySignatureIndex(index)
}

// Disassemble applies the resolver to a raw instruction sequence. An
// instruction whose operand cannot be resolved gets an
// UnresolvedOperand recording the raw encoding; resolution of the
// remaining instructions continues regardless.
func (r *OperandResolver) Disassemble(raw []RawInstruction) []Instruction {
	out := make([]Instruction, 0, len(raw))
	for _, ri := range raw {
		out = append(out, Instruction{
			Offset:  ri.Offset,
			OpCode:  ri.OpCode,
			Operand: r.resolveOperand(ri),
		})
	}
	return out
}

func (r *OperandResolver) resolveOperand(ri RawInstruction) any {
	kind := ri.OpCode.OperandKind()
	switch kind {
	case OperandNone:
		return nil
	case OperandMember:
		if entity, ok := r.ResolveMember(metadata.Token(ri.Raw)); ok {
			return entity
		}
	case OperandString:
		if s, ok := r.ResolveString(metadata.Token(ri.Raw)); ok {
			return s
		}
	case OperandLocal:
		if local, ok := r.ResolveLocal(int(ri.Raw)); ok {
			return local
		}
	case OperandParameter:
		if param, ok := r.ResolveParameter(int(ri.Raw)); ok {
			return param
		}
	case OperandImmediate:
		return int32(ri.Raw)
	case OperandBranch:
		return ri.Raw
	}
	return UnresolvedOperand{Kind: kind, Raw: ri.Raw}
}
