// Package emulator wires a Bus and Cpu pair into a complete machine:
// assemble a source file into memory, optionally poke operand values,
// then step or run to halt and read the results back.
package emulator

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"os"

	"github.com/gpr16/gpr16/cpu"
	"github.com/gpr16/gpr16/internal"
)

// Memory addresses conventionally used by arithmetic programs: the
// front end pokes operands in, the program stores its result.
const (
	OPERAND_A_ADDR = uint16(0x100) // First caller-supplied operand.
	OPERAND_B_ADDR = uint16(0x101) // Second caller-supplied operand.
	RESULT_ADDR    = uint16(0x102) // Program result cell.
)

var _emulator_defines = map[string]string{
	"OPERAND_A": fmt.Sprintf("%#v", OPERAND_A_ADDR),
	"OPERAND_B": fmt.Sprintf("%#v", OPERAND_B_ADDR),
	"RESULT":    fmt.Sprintf("%#v", RESULT_ADDR),
}

// Emulator state. CPU + memory bus.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the CPU simulation.

	Bus *cpu.Bus // Memory shared by the assembler and the CPU.
}

// NewEmulator creates a machine with a full 16-bit address space.
func NewEmulator() (emu *Emulator) {
	bus := cpu.NewBus(cpu.MEMORY_SIZE)

	emu = &Emulator{
		Cpu: cpu.NewCpu(bus),
		Bus: bus,
	}

	return
}

// Defines returns an iterator over all of the defines, visible to
// assembled programs as predefined equates.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Assemble populates memory from assembly source. Assembly fully
// completes before any stepping begins; there is no runtime interaction
// between the assembler and the engine beyond this handoff.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	return asm.Assemble(input, emu.Bus)
}

// AssembleFile populates memory from an assembly source file.
func (emu *Emulator) AssembleFile(path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	return emu.Assemble(inf)
}

// Poke writes a word directly into memory.
func (emu *Emulator) Poke(address uint16, value uint16) {
	emu.Bus.Write(address, value)
}

// Peek reads a word directly from memory.
func (emu *Emulator) Peek(address uint16) (value uint16) {
	return emu.Bus.Read(address)
}

// Run executes until the program halts, returning the cycle count.
func (emu *Emulator) Run() (cycles int) {
	emu.Cpu.Verbose = emu.Verbose

	return emu.Cpu.Run()
}
