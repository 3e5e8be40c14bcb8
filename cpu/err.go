package cpu

import (
	"errors"

	"github.com/gpr16/gpr16/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrOrgOperand      = errors.New(f(".ORG requires address"))
	ErrWordOperand     = errors.New(f(".WORD requires value"))
	ErrEquateSyntax    = errors.New(f(".EQU requires name and value"))
	ErrEquateDuplicate = errors.New(f(".EQU duplicated"))
	ErrMoviOperands    = errors.New(f("MOVI needs Rd, imm"))
	ErrJumpOperand     = errors.New(f("JMP/JZ needs target"))
	ErrOperandMissing  = errors.New(f("Needs operands"))
	ErrRegisterInvalid = errors.New(f("Invalid register"))
	ErrRdInvalid       = errors.New(f("Invalid Rd"))
	ErrProgramTooLarge = errors.New(f("Program too large"))
	ErrJumpTargetFar   = errors.New(f("Jump target > 511 (MOVI 9-bit limit); use register"))
)

// ErrUnknownMnemonic reports an unrecognized mnemonic or directive.
type ErrUnknownMnemonic string

func (err ErrUnknownMnemonic) Error() string {
	return f("Unknown: %v", string(err))
}

// ErrParseNumber reports a token that is neither a label nor a numeric
// literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression reports an invalid compile-time $() expression.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax wraps any assembly error with its 1-based source line.
// Assembly halts at the first error; there is no multi-error batching.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}
