package assemble

import (
	"fmt"

	"github.com/y16sys/y16asm/internal/catalog"
	"github.com/y16sys/y16asm/internal/diag"
	"github.com/y16sys/y16asm/internal/operand"
	"github.com/y16sys/y16asm/internal/section"
	"github.com/y16sys/y16asm/internal/symtab"
)

// Instr commits the instruction staged via the preceding InstrArg* calls
// (spec §6.1, §4.4). It sizes the encoding during pass 0 and emits real
// bytes, with relocations where needed, during pass 1.
func (a *Assembler) Instr(pos diag.Position, name string) error {
	a.pos = pos
	defer a.buf.Reset()

	origIns, ok := catalog.LookupInstruction(name)
	if !ok {
		a.sink.Syntaxf(pos, "unknown mnemonic %q", name)
		return errStatement
	}
	if a.buf.N != origIns.NumArgs {
		a.sink.Syntaxf(pos, "%s expects %d operand(s), got %d", name, origIns.NumArgs, a.buf.N)
		return errStatement
	}

	encodeName, regIndUpdate := rewritePushPop(name, &a.buf)
	ins, _ := catalog.LookupInstruction(encodeName)

	a.definePendingLabels()
	if a.curSection == "" {
		a.sink.Errorf(pos, "instruction outside of any section")
		return errStatement
	}

	// Every declared operand is resolved to a concrete addressing mode and
	// checked against the instruction's permitted mask (spec §4.4, and
	// §7's "disallowed addressing mode" diagnostic), and its jump/data
	// syntax class is checked, before any encoding-shape branching below
	// runs — including the fixed register-only short forms, which
	// otherwise would read a.buf.Args[i].Reg without ever having
	// confirmed the operand actually resolved to a register at all.
	var modes [2]catalog.AddrMode
	for i := 0; i < ins.NumArgs; i++ {
		arg := a.buf.Args[i]
		if arg.CheckJmpSyntax && arg.JmpSyntax != (ins.Syntax == catalog.SyntaxJump) {
			a.sink.Syntaxf(pos, "%s: operand %d: %v", name, i+1, errSyntaxClassMismatch)
			return errStatement
		}
		mode, err := resolveMode(arg, ins)
		if err != nil {
			a.sink.Syntaxf(pos, "%s: operand %d: %v", name, i+1, err)
			return errStatement
		}
		if !ins.ArgModes[i].Allows(mode) {
			a.sink.Syntaxf(pos, "%s: operand %d: addressing mode not permitted", name, i+1)
			return errStatement
		}
		modes[i] = mode
	}

	switch {
	case ins.NumArgs == 0:
		a.emit1(ins.Opcode)
		return nil

	case ins.FixedOneRegForm():
		reg := a.buf.Args[0].Reg
		a.emit2(ins.Opcode, byte(reg<<4)|0x0F)
		return nil

	case ins.FixedTwoRegForm():
		regD, regS := a.buf.Args[0].Reg, a.buf.Args[1].Reg
		a.emit2(ins.Opcode, byte(regD<<4)|byte(regS))
		return nil
	}

	regD := byte(0xF)
	opIdx := 0
	if ins.NumArgs == 2 && ins.ArgModes[0] == catalog.MaskRegDirect {
		regD = byte(a.buf.Args[0].Reg)
		opIdx = 1
	}
	op := a.buf.Args[opIdx]
	mode := modes[opIdx]

	regS := byte(0xF)
	if modeUsesRegister(mode) {
		regS = byte(op.Reg)
	}

	if !modeHasPayload(mode) {
		a.emit3(ins.Opcode, (regD<<4)|regS, (byte(regIndUpdate)<<4)|byte(mode))
		return nil
	}

	payload := payloadField(op, mode)
	if a.pass == 0 {
		a.lc += 5
		return nil
	}

	val, err := payloadValue(payload, a.symbols)
	if err != nil {
		a.sink.Errorf(pos, "%s: %v", name, err)
		return nil
	}
	a.curSectionRef.AppendByte(ins.Opcode)
	a.curSectionRef.AppendByte((regD << 4) | regS)
	a.curSectionRef.AppendByte((byte(regIndUpdate) << 4) | byte(mode))
	off := a.curSectionRef.AppendWordBE(val)
	if kind, isReloc := relocKind(op, payload, a.symbols); isReloc {
		a.curSectionRef.AddReloc(off, payload.Symbol, kind)
	}
	return nil
}

func (a *Assembler) emit1(opcode byte) {
	if a.pass == 0 {
		a.lc += 1
		return
	}
	a.curSectionRef.AppendByte(opcode)
}

func (a *Assembler) emit2(b0, b1 byte) {
	if a.pass == 0 {
		a.lc += 2
		return
	}
	a.curSectionRef.AppendByte(b0)
	a.curSectionRef.AppendByte(b1)
}

func (a *Assembler) emit3(b0, b1, b2 byte) {
	if a.pass == 0 {
		a.lc += 3
		return
	}
	a.curSectionRef.AppendByte(b0)
	a.curSectionRef.AppendByte(b1)
	a.curSectionRef.AppendByte(b2)
}

// rewritePushPop implements spec §4.4's push/pop rewrite: `push Rx`
// becomes `str Rx, [sp]` with a pre-decrement update; `pop Rx` becomes
// `ldr Rx, [sp]` with a post-increment update. The rewrite only applies
// when the sole operand is register-direct with data syntax, matching
// original_source/src/assembler.cpp's instrNumArgs_ == 1 &&
// instrArgs_[0].addrMode == REGDIR && !instrArgs_[0].jmpSyntax guard;
// anything else (a literal, a jmp-syntax operand, an indirect form) is
// left unrewritten so it falls through to the catalog's own "push"/"pop"
// descriptors and is rejected there like any other malformed operand.
func rewritePushPop(name string, buf *operand.Buffer) (string, catalog.RegIndUpdate) {
	if buf.N != 1 || buf.Args[0].Mask != catalog.MaskRegDirect || buf.Args[0].JmpSyntax {
		return name, catalog.RegIndNone
	}
	switch name {
	case "push":
		reg := buf.Args[0]
		buf.Reset()
		buf.Push(reg)
		buf.Push(operand.RegIndirect(catalog.RegSP, false))
		return "str", catalog.RegIndPreDec
	case "pop":
		reg := buf.Args[0]
		buf.Reset()
		buf.Push(reg)
		buf.Push(operand.RegIndirect(catalog.RegSP, false))
		return "ldr", catalog.RegIndPostInc
	default:
		return name, catalog.RegIndNone
	}
}

// resolveMode resolves an operand's addressing mode, committing the two
// ambiguous staged forms against ins's syntax class (spec §4.4). The
// jump/data syntax-class check itself runs once up front in Instr for
// every operand, so it is not repeated here.
func resolveMode(arg operand.Arg, ins catalog.Instruction) (catalog.AddrMode, error) {
	var mode catalog.AddrMode
	switch arg.Mask {
	case catalog.MaskAmbiguousMemOrImm:
		if ins.Syntax == catalog.SyntaxJump {
			mode = catalog.AddrImmediate
		} else {
			mode = catalog.AddrMemDirect
		}
	case catalog.MaskRegDirectOffset | catalog.MaskRegIndirectOffset:
		if ins.Syntax == catalog.SyntaxJump {
			mode = catalog.AddrRegDirectOffset
		} else {
			mode = catalog.AddrRegIndirectOffset
		}
	case catalog.MaskImmediate:
		mode = catalog.AddrImmediate
	case catalog.MaskRegDirect:
		mode = catalog.AddrRegDirect
	case catalog.MaskRegIndirect:
		mode = catalog.AddrRegIndirect
	case catalog.MaskRegIndirectOffset:
		mode = catalog.AddrRegIndirectOffset
	case catalog.MaskMemDirect:
		mode = catalog.AddrMemDirect
	default:
		return 0, errUnresolvableMode
	}

	return mode, nil
}

func modeUsesRegister(mode catalog.AddrMode) bool {
	switch mode {
	case catalog.AddrRegDirect, catalog.AddrRegIndirect, catalog.AddrRegIndirectOffset, catalog.AddrRegDirectOffset:
		return true
	default:
		return false
	}
}

func modeHasPayload(mode catalog.AddrMode) bool {
	switch mode {
	case catalog.AddrImmediate, catalog.AddrMemDirect, catalog.AddrRegDirectOffset, catalog.AddrRegIndirectOffset:
		return true
	default:
		return false
	}
}

// payloadField returns the staged value carrying mode's inline word:
// Val for immediate/memory-direct, Off for either offset form.
func payloadField(op operand.Arg, mode catalog.AddrMode) operand.LitOrSym {
	switch mode {
	case catalog.AddrImmediate, catalog.AddrMemDirect:
		return op.Val
	default:
		return op.Off
	}
}

// payloadValue resolves a literal-or-symbol to its 16-bit inline value:
// the literal itself, an external's placeholder zero (spec §4.6), or a
// defined symbol's value. A symbol payload always marks the symbol used
// (spec §4.5): this is the one place an operand's reference to a symbol
// is recorded, as opposed to its mere declaration via .global/.extern.
func payloadValue(v operand.LitOrSym, symbols *symtab.Table) (uint16, error) {
	if !v.IsSymbol {
		return v.Literal, nil
	}
	sym := symbols.Reference(v.Symbol)
	if sym.External {
		return 0, nil
	}
	if !sym.Defined {
		return 0, fmt.Errorf("undefined symbol %q", v.Symbol)
	}
	return sym.Value, nil
}

// relocKind decides whether payload v (carried on operand op) needs a
// relocation record, and if so which kind (spec §4.6): a PC-relative
// operand always does; otherwise a reference to a label or an external
// symbol does, encoded big-endian for instruction payloads.
func relocKind(op operand.Arg, v operand.LitOrSym, symbols *symtab.Table) (section.RelKind, bool) {
	if op.PCRelative {
		return section.RelPCRel, true
	}
	if !v.IsSymbol {
		return 0, false
	}
	sym, ok := symbols.Lookup(v.Symbol)
	if !ok {
		return 0, false
	}
	if sym.Label || sym.External {
		return section.RelSym16BE, true
	}
	return 0, false
}

var (
	errUnresolvableMode    = fmt.Errorf("operand could not be resolved to a concrete addressing mode")
	errSyntaxClassMismatch = fmt.Errorf("operand syntax class does not match this instruction")
)
