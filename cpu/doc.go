// Package cpu implements a 16-bit, 8-register instruction-set
// architecture: the memory bus, the instruction codec, the execution
// engine, and the assembler.
//
// The engine and the assembler share a single encoding contract: a
// 4-bit opcode, 3-bit Rd and Rs register fields, and a 9-bit immediate
// used only by MOVI. The assembler makes two passes over its source so
// instructions can reference labels defined later, and expands
// address-form jumps into a scratch-register load followed by a
// register-form jump.
//
// Execution is driven one fetch-decode-execute cycle at a time through
// Cpu.Step until the program executes HALT.
package cpu
