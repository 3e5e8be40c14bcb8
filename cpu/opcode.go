package cpu

import (
	"fmt"
	"strings"
)

// Opcode is one of the 16 defined operations, selected by the top 4 bits
// of an instruction word.
type Opcode int

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_HALT  = Opcode(0)  // HALT
	OP_MOVI  = Opcode(1)  // MOVI
	OP_MOV   = Opcode(2)  // MOV
	OP_LOAD  = Opcode(3)  // LOAD
	OP_STORE = Opcode(4)  // STORE
	OP_ADD   = Opcode(5)  // ADD
	OP_SUB   = Opcode(6)  // SUB
	OP_AND   = Opcode(7)  // AND
	OP_OR    = Opcode(8)  // OR
	OP_XOR   = Opcode(9)  // XOR
	OP_NOT   = Opcode(10) // NOT
	OP_SHL   = Opcode(11) // SHL
	OP_SHR   = Opcode(12) // SHR
	OP_JMP   = Opcode(13) // JMP
	OP_JZ    = Opcode(14) // JZ
	OP_NOP   = Opcode(15) // NOP
)

// mnemonicMap maps mnemonic names to opcodes. Keys are upper case; use
// OpcodeForMnemonic for case-insensitive lookup.
var mnemonicMap = map[string]Opcode{
	"HALT":  OP_HALT,
	"MOVI":  OP_MOVI,
	"MOV":   OP_MOV,
	"LOAD":  OP_LOAD,
	"STORE": OP_STORE,
	"ADD":   OP_ADD,
	"SUB":   OP_SUB,
	"AND":   OP_AND,
	"OR":    OP_OR,
	"XOR":   OP_XOR,
	"NOT":   OP_NOT,
	"SHL":   OP_SHL,
	"SHR":   OP_SHR,
	"JMP":   OP_JMP,
	"JZ":    OP_JZ,
	"NOP":   OP_NOP,
}

// OpcodeForMnemonic looks up an opcode by its mnemonic, case-insensitively.
func OpcodeForMnemonic(name string) (op Opcode, ok bool) {
	op, ok = mnemonicMap[strings.ToUpper(name)]
	return
}

// Code is a single 16-bit instruction word.
//
// Register-register class: [opcode:4][Rd:3][Rs:3][unused:6].
// Immediate class (MOVI only): [opcode:4][Rd:3][imm9:9]; the immediate
// overlaps the Rs and padding bits, selected purely by opcode.
type Code uint16

// MakeCodeImm packs an immediate-class (MOVI) instruction word.
// rd is masked to 3 bits and imm9 to 9 bits, not validated; silent
// truncation on overflow is part of the codec contract.
func MakeCodeImm(rd uint8, imm9 uint16) Code {
	return Code((uint16(OP_MOVI) << 12) | (uint16(rd&7) << 9) | (imm9 & 0x1ff))
}

// MakeCodeReg packs a register-register class instruction word.
// Fields are masked, not validated.
func MakeCodeReg(op Opcode, rd uint8, rs uint8) Code {
	return Code((uint16(op&15) << 12) | (uint16(rd&7) << 9) | (uint16(rs&7) << 6))
}

// Opcode extracts the opcode field, bits 15-12.
func (code Code) Opcode() Opcode {
	return Opcode((uint16(code) >> 12) & 0xf)
}

// Rd extracts the destination register field, bits 11-9.
func (code Code) Rd() uint8 {
	return uint8((uint16(code) >> 9) & 0x7)
}

// Rs extracts the source register field, bits 8-6.
func (code Code) Rs() uint8 {
	return uint8((uint16(code) >> 6) & 0x7)
}

// Imm9 extracts the 9-bit immediate field, bits 8-0.
func (code Code) Imm9() uint16 {
	return uint16(code) & 0x1ff
}

// String returns the assembly language representation of the instruction.
func (code Code) String() (out string) {
	op := code.Opcode()

	switch op {
	case OP_HALT, OP_NOP:
		out = op.String()
	case OP_MOVI:
		out = fmt.Sprintf("%v R%d, %#x", op, code.Rd(), code.Imm9())
	case OP_JMP, OP_JZ:
		out = fmt.Sprintf("%v R%d", op, code.Rs())
	case OP_SHL, OP_SHR:
		out = fmt.Sprintf("%v R%d", op, code.Rd())
	default:
		out = fmt.Sprintf("%v R%d, R%d", op, code.Rd(), code.Rs())
	}

	return
}
