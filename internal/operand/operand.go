// Package operand holds the staging types the parser's per-operand
// callbacks (spec §6.1: instrArgImmed, instrArgMemDirOrJmpImmed,
// instrArgPCRel, instrArgRegDir, instrArgRegInd, instrArgRegIndOff)
// populate, and the Buffer the assembler drains once an instruction's
// full operand list has arrived.
package operand

import "github.com/y16sys/y16asm/internal/catalog"

// LitOrSym is either a literal 16-bit value or a symbol name awaiting
// resolution — spec's "literal-or-symbol" operand value.
type LitOrSym struct {
	IsSymbol bool
	Literal  uint16
	Symbol   string
}

// Lit constructs a literal value.
func Lit(v uint16) LitOrSym { return LitOrSym{Literal: v} }

// Sym constructs a symbol reference.
func Sym(name string) LitOrSym { return LitOrSym{IsSymbol: true, Symbol: name} }

// Arg is one staged operand: a resolved or still-ambiguous addressing
// mode, its register (when the mode uses one), and its value/offset
// payload (when the mode carries one).
type Arg struct {
	// Mask is the set of modes this operand could still resolve to.
	// Exactly one bit for every callback except the two ambiguous forms,
	// memory-direct-or-immediate and PC-relative (%symbol), which the
	// instruction's syntax class resolves (spec §4.4).
	Mask catalog.AddrModeMask

	Reg        int // valid when Mask allows a register-bearing mode
	Val        LitOrSym
	Off        LitOrSym
	HasVal     bool
	HasOff     bool
	PCRelative bool // set by instrArgPCRel: %symbol syntax

	// JmpSyntax and CheckJmpSyntax carry the parser's own classification
	// of how this operand was written (plain vs `*`-prefixed). The
	// commit step compares it against the instruction's syntax class and
	// rejects a mismatch (spec §4.4) — but only for the three operand
	// shapes where the written prefix is not itself mode-determining
	// (register-direct, register-indirect, register-indirect-offset).
	// instr_arg_immed and instr_arg_pc_rel carry no such flag in spec
	// §6.1, and the ambiguous memory-direct-or-immediate form always
	// resolves its own class from the instruction, so none of those set
	// CheckJmpSyntax.
	JmpSyntax      bool
	CheckJmpSyntax bool
}

// Immediate stages a `$value` or `$symbol` operand.
func Immediate(v LitOrSym) Arg {
	return Arg{Mask: catalog.MaskImmediate, Val: v, HasVal: true}
}

// MemDirOrJumpImmediate stages a bare literal or symbol operand, whose
// mode is ambiguous between memory-direct and immediate until the
// instruction's syntax class resolves it (spec §4.4). The written `*`
// prefix carries no separate syntax-class check here: the reference
// implementation records it then always resolves the mode from the
// instruction's own syntax class, so a mismatched prefix on this operand
// shape is never an error.
func MemDirOrJumpImmediate(v LitOrSym, jmpSyntax bool) Arg {
	return Arg{Mask: catalog.MaskAmbiguousMemOrImm, Val: v, HasVal: true, JmpSyntax: jmpSyntax}
}

// PCRelative stages a `%symbol` operand. The concrete mode — register-
// direct-with-offset for jump syntax, register-indirect-with-offset
// otherwise — is committed during pass-1 encoding once the surrounding
// instruction's syntax class is known (SPEC_FULL §9).
func PCRelative(sym string) Arg {
	return Arg{
		Mask:       catalog.MaskRegDirectOffset | catalog.MaskRegIndirectOffset,
		Reg:        catalog.RegPC,
		Off:        Sym(sym),
		HasOff:     true,
		PCRelative: true,
	}
}

// RegDirect stages a `rN` operand.
func RegDirect(reg int, jmpSyntax bool) Arg {
	return Arg{Mask: catalog.MaskRegDirect, Reg: reg, JmpSyntax: jmpSyntax, CheckJmpSyntax: true}
}

// RegIndirect stages a `[rN]` operand.
func RegIndirect(reg int, jmpSyntax bool) Arg {
	return Arg{Mask: catalog.MaskRegIndirect, Reg: reg, JmpSyntax: jmpSyntax, CheckJmpSyntax: true}
}

// RegIndirectOffset stages a `[rN + value]` / `[rN + symbol]` operand.
func RegIndirectOffset(reg int, off LitOrSym, jmpSyntax bool) Arg {
	return Arg{Mask: catalog.MaskRegIndirectOffset, Reg: reg, Off: off, HasOff: true, JmpSyntax: jmpSyntax, CheckJmpSyntax: true}
}

// Buffer accumulates the 0-2 operands of the instruction currently being
// parsed, mirroring spec's instrArgs_[2] + instrNumArgs_ state.
type Buffer struct {
	Args [2]Arg
	N    int
}

// Reset clears the buffer for the next instruction.
func (b *Buffer) Reset() {
	b.N = 0
	b.Args = [2]Arg{}
}

// Push appends one staged operand. The parser is trusted to never push
// more than two; a third push overwrites the last slot rather than
// panicking, since malformed arg counts are caught by the instruction's
// NumArgs check before encoding.
func (b *Buffer) Push(a Arg) {
	if b.N < 2 {
		b.Args[b.N] = a
		b.N++
		return
	}
	b.Args[1] = a
}
