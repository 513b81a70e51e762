package cil

import (
	"fmt"

	"github.com/puff/AsmResolver/metadata"
)

// RawInstruction is the decoder's output for a single instruction: an
// opcode and an untyped operand whose meaning depends on the opcode's
// operand kind.
type RawInstruction struct {
	Offset uint32
	OpCode OpCode
	Raw    uint32
}

// Instruction is a decoded instruction with its operand resolved to a
// live object. Operand is nil for operand-less instructions, and an
// UnresolvedOperand when resolution failed softly.
type Instruction struct {
	Offset  uint32
	OpCode  OpCode
	Operand any
}

func (i Instruction) String() string {
	if i.Operand == nil {
		return fmt.Sprintf("IL_%04X: %s", i.Offset, i.OpCode.Name())
	}
	return fmt.Sprintf("IL_%04X: %s %s", i.Offset, i.OpCode.Name(), formatOperand(i.Operand))
}

// UnresolvedOperand stands in for an operand that could not be
// resolved. It keeps the raw encoding so disassembly output stays
// printable and the absence is recorded rather than lost.
type UnresolvedOperand struct {
	Kind OperandKind
	Raw  uint32
}

func (u UnresolvedOperand) String() string {
	switch u.Kind {
	case OperandMember:
		return fmt.Sprintf("<unresolved %s>", metadata.Token(u.Raw))
	case OperandString:
		return fmt.Sprintf("<unresolved string 0x%X>", u.Raw)
	case OperandLocal:
		return fmt.Sprintf("<no such local %d>", u.Raw)
	case OperandParameter:
		return fmt.Sprintf("<no such parameter %d>", u.Raw)
	default:
		return fmt.Sprintf("<unresolved 0x%X>", u.Raw)
	}
}

// LocalVariable is one slot of a method body's local list. The type
// signature travels opaquely.
type LocalVariable struct {
	Index     int
	Signature []byte
}

func (l *LocalVariable) String() string {
	return fmt.Sprintf("V_%d", l.Index)
}

// MethodBody is a method's decoded instruction stream together with
// its ordered local variable list. Parameters live on the owning
// method definition.
type MethodBody struct {
	Owner        *metadata.MethodDefinition
	Locals       []*LocalVariable
	Instructions []Instruction
	MaxStack     int
}

// NewMethodBody creates an empty body for the given method.
func NewMethodBody(owner *metadata.MethodDefinition) *MethodBody {
	return &MethodBody{Owner: owner, MaxStack: 8}
}

// AddLocal appends a local variable slot and returns it.
func (b *MethodBody) AddLocal(signature []byte) *LocalVariable {
	local := &LocalVariable{Index: len(b.Locals), Signature: signature}
	b.Locals = append(b.Locals, local)
	return local
}

func formatOperand(operand any) string {
	switch o := operand.(type) {
	case string:
		return fmt.Sprintf("%q", o)
	case metadata.MemberDescriptor:
		return o.FullName()
	case metadata.TypeDescriptor:
		return o.FullName()
	case metadata.Named:
		return o.Name()
	case fmt.Stringer:
		return o.String()
	default:
		return fmt.Sprintf("%v", o)
	}
}
