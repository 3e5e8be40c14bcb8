package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeForMnemonic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		op   Opcode
	}){
		{"HALT", OP_HALT},
		{"MOVI", OP_MOVI},
		{"MOV", OP_MOV},
		{"LOAD", OP_LOAD},
		{"STORE", OP_STORE},
		{"ADD", OP_ADD},
		{"SUB", OP_SUB},
		{"AND", OP_AND},
		{"OR", OP_OR},
		{"XOR", OP_XOR},
		{"NOT", OP_NOT},
		{"SHL", OP_SHL},
		{"SHR", OP_SHR},
		{"JMP", OP_JMP},
		{"JZ", OP_JZ},
		{"NOP", OP_NOP},
	}

	for _, entry := range table {
		op, ok := OpcodeForMnemonic(entry.name)
		assert.True(ok, entry.name)
		assert.Equal(entry.op, op, entry.name)
		assert.Equal(entry.name, op.String(), entry.name)
	}

	// Case-insensitive.
	op, ok := OpcodeForMnemonic("movi")
	assert.True(ok)
	assert.Equal(OP_MOVI, op)

	_, ok = OpcodeForMnemonic("FROB")
	assert.False(ok)
}

func TestCodeFields(t *testing.T) {
	assert := assert.New(t)

	code := MakeCodeReg(OP_ADD, 3, 5)
	assert.Equal(Code(0x5740), code)
	assert.Equal(OP_ADD, code.Opcode())
	assert.Equal(uint8(3), code.Rd())
	assert.Equal(uint8(5), code.Rs())

	code = MakeCodeImm(2, 0x1ff)
	assert.Equal(Code(0x15ff), code)
	assert.Equal(OP_MOVI, code.Opcode())
	assert.Equal(uint8(2), code.Rd())
	assert.Equal(uint16(0x1ff), code.Imm9())
}

func TestCodeMasking(t *testing.T) {
	assert := assert.New(t)

	// Fields are masked, not validated.
	assert.Equal(MakeCodeImm(1, 0x1ff), MakeCodeImm(9, 0x3ff))
	assert.Equal(MakeCodeReg(OP_ADD, 1, 2), MakeCodeReg(OP_ADD, 9, 10))
}

func TestCodeString(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		text string
	}){
		{Code(0x0000), "HALT"},
		{Code(0xf000), "NOP"},
		{MakeCodeImm(0, 5), "MOVI R0, 0x5"},
		{MakeCodeReg(OP_ADD, 0, 1), "ADD R0, R1"},
		{MakeCodeReg(OP_NOT, 2, 2), "NOT R2, R2"},
		{MakeCodeReg(OP_SHL, 1, 1), "SHL R1"},
		{MakeCodeReg(OP_JMP, 0, 3), "JMP R3"},
		{MakeCodeReg(OP_JZ, 0, 7), "JZ R7"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, entry.code.String())
	}
}
