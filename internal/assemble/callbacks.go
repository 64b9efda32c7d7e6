// Package assemble implements the two-pass driver described in spec
// §4.1/§4.2: it receives the parser's callback stream (§6.1) twice —
// once per pass — and on success hands the finished section store and
// symbol table to internal/object for writing.
package assemble

import (
	"github.com/y16sys/y16asm/internal/diag"
	"github.com/y16sys/y16asm/internal/operand"
)

// Callbacks is the parser-to-assembler interface of spec §6.1. The
// parser invokes at most one commit call (Instr or Dir) per statement,
// optionally preceded by a Label call, with any operand-staging calls
// for that statement having already landed beforehand. Every method returns an error when the
// statement cannot be processed; the parser skips to the next newline
// and continues (spec §5's "skip to next newline" recovery rule).
type Callbacks interface {
	Label(pos diag.Position, name string) error

	Instr(pos diag.Position, name string) error
	InstrArgImmed(v operand.LitOrSym) error
	InstrArgMemDirOrJmpImmed(v operand.LitOrSym, jmpSyntax bool) error
	InstrArgPCRel(sym string) error
	InstrArgRegDir(regName string, jmpSyntax bool) error
	InstrArgRegInd(regName string, jmpSyntax bool) error
	InstrArgRegIndOff(regName string, off operand.LitOrSym, jmpSyntax bool) error

	Dir(pos diag.Position, name string) error
	DirArg(v operand.LitOrSym) error
}
