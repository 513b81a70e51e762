package cil

// OperandKind classifies what an instruction's raw operand encodes and
// therefore how the operand resolver must interpret it.
type OperandKind int

const (
	// OperandNone marks instructions without an operand.
	OperandNone OperandKind = iota
	// OperandMember is a metadata token naming a member.
	OperandMember
	// OperandString is a token into the user-string heap.
	OperandString
	// OperandLocal is an index into the body's local variable list.
	OperandLocal
	// OperandParameter is a signature index into the method's
	// parameter list, where slot 0 is the implicit this parameter on
	// instance methods.
	OperandParameter
	// OperandImmediate is an inline literal that needs no resolution.
	OperandImmediate
	// OperandBranch is a byte offset within the method body.
	OperandBranch
)

// OpCode identifies a CIL instruction.
type OpCode uint16

const (
	Nop OpCode = iota
	Ret
	Ldstr
	Call
	Callvirt
	Newobj
	Ldloc
	Stloc
	Ldarg
	Starg
	LdcI4
	Ldfld
	Stfld
	Box
	Castclass
	Br
)

type opCodeInfo struct {
	name    string
	operand OperandKind
}

var opCodes = map[OpCode]opCodeInfo{
	Nop:       {"nop", OperandNone},
	Ret:       {"ret", OperandNone},
	Ldstr:     {"ldstr", OperandString},
	Call:      {"call", OperandMember},
	Callvirt:  {"callvirt", OperandMember},
	Newobj:    {"newobj", OperandMember},
	Ldloc:     {"ldloc", OperandLocal},
	Stloc:     {"stloc", OperandLocal},
	Ldarg:     {"ldarg", OperandParameter},
	Starg:     {"starg", OperandParameter},
	LdcI4:     {"ldc.i4", OperandImmediate},
	Ldfld:     {"ldfld", OperandMember},
	Stfld:     {"stfld", OperandMember},
	Box:       {"box", OperandMember},
	Castclass: {"castclass", OperandMember},
	Br:        {"br", OperandBranch},
}

// Name returns the instruction mnemonic.
func (op OpCode) Name() string {
	if info, ok := opCodes[op]; ok {
		return info.name
	}
	return "unknown"
}

// OperandKind returns how the instruction's raw operand is encoded.
func (op OpCode) OperandKind() OperandKind {
	if info, ok := opCodes[op]; ok {
		return info.operand
	}
	return OperandNone
}
