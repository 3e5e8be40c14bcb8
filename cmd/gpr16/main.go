package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gpr16/gpr16/cpu"
	"github.com/gpr16/gpr16/emulator"
)

func printTraceHeader() {
	fmt.Println("\n  PC    | R0    R1    R2    R3    R4    R5    R6    R7    | Z C N | Instruction")
	fmt.Println("--------+--------------------------------------------------+-------+----------------")
}

func printTraceRow(tr cpu.StepTrace) {
	fmt.Printf(" 0x%04X |", tr.Addr)
	for _, val := range tr.State.R {
		fmt.Printf(" %04X ", val)
	}
	flags := tr.State.Flags
	fmt.Printf("| %d %d %d | %v\n",
		boolBit(flags.Zero()), boolBit(flags.Carry()), boolBit(flags.Negative()),
		tr.Code)
}

func boolBit(b bool) (bit int) {
	if b {
		bit = 1
	}
	return
}

// promptOperand reads one operand value from stdin. A blank line skips.
func promptOperand(in *bufio.Scanner, prompt string) (value uint16, ok bool) {
	fmt.Print(prompt)
	if !in.Scan() {
		return
	}
	text := strings.TrimSpace(in.Text())
	if text == "" {
		return
	}
	v64, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		log.Fatalf("%v: %v", text, err)
	}

	value = uint16(v64 & 0xffff)
	ok = true
	return
}

func main() {
	var trace bool
	var prompt bool
	var verbose bool

	flag.BoolVar(&trace, "t", true, "Print the per-step trace table")
	flag.BoolVar(&prompt, "p", true, "Prompt for operand values at 0x100/0x101")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	path := "addition.asm"
	if flag.NArg() >= 1 {
		path = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	if err := emu.AssembleFile(path); err != nil {
		log.Fatalf("%v: %v", path, err)
	}

	if prompt {
		stdin := bufio.NewScanner(os.Stdin)
		a, ok := promptOperand(stdin, "Operand A at 0x100 (decimal or 0x..., blank to skip): ")
		if ok {
			emu.Poke(emulator.OPERAND_A_ADDR, a)
			b, ok := promptOperand(stdin, "Operand B at 0x101 (decimal or 0x..., blank to skip): ")
			if ok {
				emu.Poke(emulator.OPERAND_B_ADDR, b)
			}
		}
	}

	fmt.Printf("\n=== 16-bit GPR CPU Emulator ===\n")
	fmt.Printf("Program: %v\n", path)

	if trace {
		printTraceHeader()
		emu.Cpu.Observer = printTraceRow
	}

	cycles := emu.Run()

	fmt.Printf("\n--- HALTED ---\n")
	fmt.Printf("Total cycles: %d\n", cycles)
	fmt.Printf("R0: %d (0x%04x)\n", emu.Cpu.R[0], emu.Cpu.R[0])
	result := emu.Peek(emulator.RESULT_ADDR)
	fmt.Printf("Result at 0x102: %d (0x%04x)\n", result, result)
}
