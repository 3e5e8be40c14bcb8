package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

// Flags is the packed condition flag register. The three flags are
// recomputed wholesale by every flag-producing instruction; no flag
// persists meaning across unrelated instructions.
type Flags uint16

const (
	FLAG_ZERO     = Flags(1 << 0) // Result was zero.
	FLAG_CARRY    = Flags(1 << 1) // Carry out (or "no borrow" for SUB).
	FLAG_NEGATIVE = Flags(1 << 2) // Bit 15 of the result was set.
)

// Zero reports the Zero flag.
func (f Flags) Zero() bool { return f&FLAG_ZERO != 0 }

// Carry reports the Carry flag.
func (f Flags) Carry() bool { return f&FLAG_CARRY != 0 }

// Negative reports the Negative flag.
func (f Flags) Negative() bool { return f&FLAG_NEGATIVE != 0 }

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%#v", MEMORY_SIZE),
	"FLAG_ZERO":     fmt.Sprintf("%#v", uint16(FLAG_ZERO)),
	"FLAG_CARRY":    fmt.Sprintf("%#v", uint16(FLAG_CARRY)),
	"FLAG_NEGATIVE": fmt.Sprintf("%#v", uint16(FLAG_NEGATIVE)),
}

// State is an immutable snapshot of the CPU register state, for external
// inspection without permitting mutation.
type State struct {
	R      [8]uint16 // General purpose registers R0..R7.
	Pc     uint16    // Address of the next instruction to fetch.
	Flags  Flags     // Packed Zero/Carry/Negative flags.
	Halted bool      // Set by HALT; no further stepping occurs.
}

// StepTrace describes the effect of a single completed step. Delivered
// to the Observer callback after the instruction has executed.
type StepTrace struct {
	Addr  uint16 // Address the instruction was fetched from.
	Code  Code   // The fetched instruction word.
	State State  // CPU state after the instruction ran.
}

// Cpu is the execution engine: register file, program counter, flag
// register and halted status, stepped one fetch-decode-execute cycle at
// a time against a Bus.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Bus *Bus // Memory the CPU fetches from and loads/stores against.

	R      [8]uint16 // Register bank.
	Pc     uint16    // Program counter.
	Flags  Flags     // Condition flags.
	Halted bool      // Halted state, set only by HALT.

	// Observer, when non-nil, receives a StepTrace after every
	// completed step. Read-only observability hook; formatting and
	// output concerns live entirely outside the engine.
	Observer func(StepTrace)
}

// NewCpu creates a CPU attached to the given memory bus.
func NewCpu(bus *Bus) (cpu *Cpu) {
	cpu = &Cpu{
		Bus: bus,
	}

	return
}

// Defines for the cpu.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset zeroes all registers, the program counter and the flags, and
// clears the halted state. Memory is not touched.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.R[:])
	cpu.Pc = 0
	cpu.Flags = 0
	cpu.Halted = false
}

// State returns a snapshot of the current register state.
func (cpu *Cpu) State() State {
	return State{
		R:      cpu.R,
		Pc:     cpu.Pc,
		Flags:  cpu.Flags,
		Halted: cpu.Halted,
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("pc: %04X\n", cpu.Pc)
	for n, val := range cpu.R {
		text += fmt.Sprintf("r%d: %04X\n", n, val)
	}
	text += fmt.Sprintf("flags: Z=%v C=%v N=%v\n",
		cpu.Flags.Zero(), cpu.Flags.Carry(), cpu.Flags.Negative())
	text += fmt.Sprintf("halted: %v\n", cpu.Halted)

	return
}

// Step performs one fetch-decode-execute cycle: fetch the word at Pc,
// advance Pc by one, execute the instruction, and report whether the
// CPU is still running. A halted CPU returns false with no side effects.
//
// The program counter is advanced before the instruction executes, so a
// jump target written by the instruction overwrites the pre-increment
// value.
func (cpu *Cpu) Step() (running bool) {
	if cpu.Halted {
		return false
	}

	addr := cpu.Pc
	code := Code(cpu.Bus.Read(addr))
	cpu.Pc += 1

	if cpu.Verbose {
		log.Printf("%04x: %v", addr, code)
	}

	cpu.execute(code)

	if cpu.Observer != nil {
		cpu.Observer(StepTrace{
			Addr:  addr,
			Code:  code,
			State: cpu.State(),
		})
	}

	return !cpu.Halted
}

// Run steps the CPU until it halts, returning the number of completed
// steps. A program with no HALT on any reachable path never returns;
// bounding execution is the caller's responsibility.
func (cpu *Cpu) Run() (cycles int) {
	for !cpu.Halted {
		cpu.Step()
		cycles += 1
	}

	return
}

// execute dispatches a single decoded instruction. Every opcode value
// is handled; the 4-bit field cannot encode anything outside the table.
func (cpu *Cpu) execute(code Code) {
	op := code.Opcode()
	rd := code.Rd()
	rs := code.Rs()

	switch op {
	case OP_HALT:
		cpu.Halted = true
	case OP_MOVI:
		// Zero-extend the 9-bit immediate.
		cpu.R[rd] = code.Imm9()
		cpu.setResultFlags(cpu.R[rd])
	case OP_MOV:
		cpu.R[rd] = cpu.R[rs]
		cpu.setResultFlags(cpu.R[rd])
	case OP_LOAD:
		cpu.R[rd] = cpu.Bus.Read(cpu.R[rs])
		cpu.setResultFlags(cpu.R[rd])
	case OP_STORE:
		cpu.Bus.Write(cpu.R[rs], cpu.R[rd])
	case OP_ADD:
		a, b := cpu.R[rd], cpu.R[rs]
		result := a + b
		cpu.R[rd] = result
		cpu.setAddFlags(a, b, result)
	case OP_SUB:
		a, b := cpu.R[rd], cpu.R[rs]
		result := a - b
		cpu.R[rd] = result
		cpu.setSubFlags(a, b, result)
	case OP_AND:
		cpu.R[rd] = cpu.R[rd] & cpu.R[rs]
		cpu.setResultFlags(cpu.R[rd])
	case OP_OR:
		cpu.R[rd] = cpu.R[rd] | cpu.R[rs]
		cpu.setResultFlags(cpu.R[rd])
	case OP_XOR:
		cpu.R[rd] = cpu.R[rd] ^ cpu.R[rs]
		cpu.setResultFlags(cpu.R[rd])
	case OP_NOT:
		cpu.R[rd] = ^cpu.R[rs]
		cpu.setResultFlags(cpu.R[rd])
	case OP_SHL:
		val := cpu.R[rd]
		cpu.R[rd] = val << 1
		cpu.setResultFlags(cpu.R[rd])
		if val&0x8000 != 0 {
			cpu.Flags |= FLAG_CARRY
		}
	case OP_SHR:
		val := cpu.R[rd]
		cpu.R[rd] = val >> 1
		cpu.setResultFlags(cpu.R[rd])
		if val&1 != 0 {
			cpu.Flags |= FLAG_CARRY
		}
	case OP_JMP:
		cpu.Pc = cpu.R[rs]
	case OP_JZ:
		if cpu.Flags.Zero() {
			cpu.Pc = cpu.R[rs]
		}
	case OP_NOP:
		// no effect
	}
}

// setResultFlags clears all flags, then computes Zero and Negative from
// the result. Flag-producing instructions never partially update.
func (cpu *Cpu) setResultFlags(result uint16) {
	cpu.Flags &^= FLAG_ZERO | FLAG_CARRY | FLAG_NEGATIVE
	if result == 0 {
		cpu.Flags |= FLAG_ZERO
	}
	if result&0x8000 != 0 {
		cpu.Flags |= FLAG_NEGATIVE
	}
}

// setAddFlags sets Zero and Negative from the result, and Carry when
// the unsigned sum of the operands exceeds 0xFFFF.
func (cpu *Cpu) setAddFlags(a uint16, b uint16, result uint16) {
	cpu.setResultFlags(result)
	if uint32(a)+uint32(b) > 0xffff {
		cpu.Flags |= FLAG_CARRY
	}
}

// setSubFlags sets Zero and Negative from the result, and Carry when no
// borrow occurred (a >= b).
func (cpu *Cpu) setSubFlags(a uint16, b uint16, result uint16) {
	cpu.setResultFlags(result)
	if a >= b {
		cpu.Flags |= FLAG_CARRY
	}
}
