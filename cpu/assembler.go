package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// SCRATCH_REG is reserved by the assembler for address-form jumps: a
// JMP/JZ with a label or immediate operand expands to a MOVI into this
// register followed by the register-form jump. Software convention, not
// enforced by the engine.
const SCRATCH_REG = uint8(7)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two-pass assembler for the 16-bit GPR instruction set.
// Pass one resolves label addresses; pass two emits instruction words
// into a Bus. Two passes are required because instructions may reference
// labels defined later in the source.
//
// Pass one counts every instruction as one word. Address-form JMP/JZ
// emit two words in pass two, so a label defined after such a jump
// drifts by one address per preceding address-form jump. Register-form
// jumps do not expand and are unaffected.
type Assembler struct {
	Verbose bool              // If set, verbosely logs the assembler actions.
	Label   map[string]uint16 // Map of labels to resolved addresses, built by pass one.
	Equate  map[string]string // Map of equates.

	predefine map[string]string // Predefines
}

// Predefine defines a new equate or redefines an existing equate,
// visible to every subsequent Assemble call.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Assemble translates assembly source into instruction words written
// into bus, starting wherever .ORG directives place the cursor (default
// address 0). Assembly stops at the first error, which is returned as an
// *ErrSyntax carrying the 1-based source line. Writes made before the
// failing line remain in memory.
func (asm *Assembler) Assemble(input io.Reader, bus *Bus) (err error) {
	scanner := bufio.NewScanner(input)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	if asm.Label == nil {
		asm.Label = make(map[string]uint16, 16)
	}
	clear(asm.Label)
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)

	err = asm.passOne(lines)
	if err != nil {
		return
	}

	err = asm.passTwo(lines, bus)

	return
}

// passOne scans for label definitions, tracking a virtual program
// counter. Labels bind to the counter's current value; .ORG sets it,
// .WORD in its one-operand form and every recognized mnemonic advance
// it by one word.
func (asm *Assembler) passOne(lines []string) (err error) {
	var line string
	var lineno int
	var pc uint16

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	for n, text := range lines {
		lineno = n + 1
		line = stripComment(text)
		if line == "" {
			continue
		}

		if asm.Verbose {
			log.Printf("%v: %v", lineno, line)
		}

		if strings.HasSuffix(line, ":") {
			name := strings.TrimSpace(strings.TrimSuffix(line, ":"))
			if name != "" {
				// Duplicate definitions are not diagnosed; the
				// last one wins.
				asm.Label[strings.ToUpper(name)] = pc
			}
			continue
		}

		var tokens []string
		tokens, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
		if len(tokens) == 0 {
			continue
		}

		cmd := strings.ToUpper(tokens[0])
		switch cmd {
		case ".EQU":
			if len(tokens) != 3 {
				err = ErrEquateSyntax
				return
			}
			_, ok := asm.Equate[tokens[1]]
			if ok {
				err = ErrEquateDuplicate
				return
			}
			asm.Equate[tokens[1]] = tokens[2]
		case ".ORG":
			if len(tokens) < 2 {
				err = ErrOrgOperand
				return
			}
			pc, err = parseNumber(tokens[1])
			if err != nil {
				return
			}
		case ".WORD":
			if len(tokens) == 1 {
				err = ErrWordOperand
				return
			}
			// The two-operand form pokes a literal address and
			// does not advance the counter.
			if len(tokens) == 2 {
				pc += 1
			}
		default:
			_, ok := OpcodeForMnemonic(cmd)
			if !ok {
				err = ErrUnknownMnemonic(cmd)
				return
			}
			pc += 1
		}
	}

	return
}

// passTwo re-scans the source and emits instruction words through the
// bus. The emission cursor mirrors pass one's accounting except for
// address-form jumps, which emit two words.
func (asm *Assembler) passTwo(lines []string, bus *Bus) (err error) {
	var line string
	var lineno int
	var pc uint16

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	for n, text := range lines {
		lineno = n + 1
		line = stripComment(text)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}

		var tokens []string
		tokens, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
		if len(tokens) == 0 {
			continue
		}

		cmd := strings.ToUpper(tokens[0])
		switch cmd {
		case ".EQU":
			// Defined during pass one.
			continue
		case ".ORG":
			if len(tokens) >= 2 {
				pc, err = parseNumber(tokens[1])
				if err != nil {
					return
				}
			}
			continue
		case ".WORD":
			if len(tokens) >= 3 {
				var addr, val uint16
				addr, err = parseNumber(tokens[1])
				if err != nil {
					return
				}
				val, err = parseNumber(tokens[2])
				if err != nil {
					return
				}
				bus.Write(addr, val)
			} else if len(tokens) == 2 {
				var val uint16
				val, err = parseNumber(tokens[1])
				if err != nil {
					return
				}
				bus.Write(pc, val)
				pc += 1
			}
			continue
		}

		op, ok := OpcodeForMnemonic(cmd)
		if !ok {
			err = ErrUnknownMnemonic(cmd)
			return
		}

		if uint(pc) >= bus.Size() {
			err = ErrProgramTooLarge
			return
		}

		var inst Code
		inst, pc, err = asm.encode(op, tokens, pc, bus)
		if err != nil {
			return
		}

		bus.Write(pc, uint16(inst))
		pc += 1
	}

	return
}

// encode translates one instruction line into its word. Address-form
// jumps additionally emit their scratch-register load at the cursor and
// return the advanced cursor.
func (asm *Assembler) encode(op Opcode, tokens []string, pc uint16, bus *Bus) (inst Code, pcOut uint16, err error) {
	pcOut = pc

	switch op {
	case OP_HALT, OP_NOP:
		inst = MakeCodeReg(op, 0, 0)
	case OP_MOVI:
		if len(tokens) < 3 {
			err = ErrMoviOperands
			return
		}
		rd, ok := parseReg(tokens[1])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		var imm uint16
		imm, err = asm.resolveValue(tokens[2])
		if err != nil {
			return
		}
		inst = MakeCodeImm(rd, imm)
	case OP_JMP, OP_JZ:
		if len(tokens) < 2 {
			err = ErrJumpOperand
			return
		}
		rs, ok := parseReg(tokens[1])
		if ok {
			inst = MakeCodeReg(op, 0, rs)
			return
		}
		var target uint16
		target, err = asm.resolveValue(tokens[1])
		if err != nil {
			return
		}
		if target > 0x1ff {
			err = ErrJumpTargetFar
			return
		}
		bus.Write(pcOut, uint16(MakeCodeImm(SCRATCH_REG, target)))
		pcOut += 1
		inst = MakeCodeReg(op, 0, SCRATCH_REG)
	default:
		// Register-register class.
		if len(tokens) < 2 {
			err = ErrOperandMissing
			return
		}
		rd, ok := parseReg(tokens[1])
		if !ok {
			err = ErrRdInvalid
			return
		}
		rs := rd
		if op != OP_NOT && op != OP_SHL && op != OP_SHR {
			rs = 0
			if len(tokens) >= 3 {
				reg, ok := parseReg(tokens[2])
				if ok {
					rs = reg
				} else {
					var val uint16
					val, err = asm.resolveValue(tokens[2])
					if err != nil {
						return
					}
					// Masked to the 3-bit field, not validated.
					rs = uint8(val & 7)
				}
			}
		}
		inst = MakeCodeReg(op, rd, rs)
	}

	return
}

// parseLine evaluates $() expressions, splits a line into tokens on
// whitespace and commas, and substitutes equates.
func (asm *Assembler) parseLine(line string, lineno int) (tokens []string, err error) {
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	tokens = strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == ','
	})
	if len(tokens) == 0 {
		return
	}

	if !strings.EqualFold(tokens[0], ".EQU") {
		for n, tok := range tokens {
			equ, ok := asm.Equate[tok]
			if ok {
				tokens[n] = equ
			}
		}
	}

	return
}

// parenEval does compile-time $(...) evaluations. Numeric equates are
// visible to the expression as predeclared values.
func (asm *Assembler) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, verr := strconv.ParseUint(str, 0, 63)
		if verr != nil {
			// Ignore non-integer equates.
			continue
		}
		pred[key] = starlark.MakeInt64(int64(v64))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint64(st_int64)
	return
}

// resolveValue resolves a bare token against the label table, falling
// back to numeric literal parsing.
func (asm *Assembler) resolveValue(tok string) (value uint16, err error) {
	addr, ok := asm.Label[strings.ToUpper(tok)]
	if ok {
		value = addr
		return
	}

	return parseNumber(tok)
}

// parseNumber parses a numeric literal in any standard prefixed base.
// Out-of-range values are masked to 16 bits rather than rejected.
func parseNumber(tok string) (value uint16, err error) {
	v64, verr := strconv.ParseUint(tok, 0, 64)
	if verr != nil {
		err = ErrParseNumber(tok)
		return
	}
	value = uint16(v64 & 0xffff)

	return
}

// parseReg parses an Rn register operand, optionally parenthesized.
func parseReg(tok string) (reg uint8, ok bool) {
	for len(tok) >= 2 && tok[0] == '(' && tok[len(tok)-1] == ')' {
		tok = tok[1 : len(tok)-1]
	}
	if len(tok) < 2 || (tok[0] != 'R' && tok[0] != 'r') {
		return
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil || n < 0 || n > 7 {
		return
	}

	reg = uint8(n)
	ok = true
	return
}

// stripComment drops a trailing ';' comment and surrounding whitespace.
func stripComment(line string) string {
	text, _, _ := strings.Cut(line, ";")
	return strings.TrimSpace(text)
}
