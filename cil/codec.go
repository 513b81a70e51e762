package cil

import (
	"encoding/binary"
	"fmt"
)

// rawInstructionSize is the fixed wire size of one raw instruction:
// offset, opcode and operand, each 32 bits little-endian.
const rawInstructionSize = 12

// EncodeRaw serializes a raw instruction stream into the byte form
// stored on a method row.
func EncodeRaw(instructions []RawInstruction) []byte {
	buf := make([]byte, 0, len(instructions)*rawInstructionSize)
	for _, ins := range instructions {
		buf = binary.LittleEndian.AppendUint32(buf, ins.Offset)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(ins.OpCode))
		buf = binary.LittleEndian.AppendUint32(buf, ins.Raw)
	}
	return buf
}

// DecodeRaw parses the byte form back into a raw instruction stream.
func DecodeRaw(code []byte) ([]RawInstruction, error) {
	if len(code)%rawInstructionSize != 0 {
		return nil, fmt.Errorf("cil: code length %d is not a whole number of instructions", len(code))
	}
	out := make([]RawInstruction, 0, len(code)/rawInstructionSize)
	for pos := 0; pos < len(code); pos += rawInstructionSize {
		out = append(out, RawInstruction{
			Offset: binary.LittleEndian.Uint32(code[pos:]),
			OpCode: OpCode(binary.LittleEndian.Uint32(code[pos+4:])),
			Raw:    binary.LittleEndian.Uint32(code[pos+8:]),
		})
	}
	return out, nil
}
