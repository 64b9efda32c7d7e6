package assemble

import (
	"errors"
	"fmt"

	"github.com/y16sys/y16asm/internal/catalog"
	"github.com/y16sys/y16asm/internal/diag"
	"github.com/y16sys/y16asm/internal/object"
	"github.com/y16sys/y16asm/internal/operand"
	"github.com/y16sys/y16asm/internal/section"
	"github.com/y16sys/y16asm/internal/symtab"
)

// ErrHadError is returned by Run when a pass recorded at least one
// syntax or semantic error; no output file is written in that case
// (spec §4.1/§7).
var ErrHadError = errors.New("assembly failed, see diagnostics")

// ParseFunc drives a parser across source once, invoking cb for every
// statement. Run calls it once per pass. Accepting it as a parameter
// (rather than importing internal/parser directly) keeps assemble free
// of a dependency on its own caller — internal/parser instead depends on
// assemble for the Callbacks and operand types.
type ParseFunc func(source, filename string, cb Callbacks, sink *diag.Sink) error

// Assembler implements Callbacks and drives the two-pass algorithm of
// spec §4.1. Pass 0 sizes every statement and builds the symbol table;
// pass 1 re-parses the same source and emits real bytes, relocations,
// and label values resolved from pass 0.
type Assembler struct {
	sink *diag.Sink

	pass int // 0 = sizing pass, 1 = encoding pass

	symbols  *symtab.Table
	sections *section.Store

	declaredSections map[string]bool
	curSection       string
	curSectionRef    *section.Section

	lc uint16 // pass-0 location counter within the current section

	pos           diag.Position
	pendingLabels []string
	buf           operand.Buffer
	dirArgs       []operand.LitOrSym
}

// New returns an Assembler reporting diagnostics to sink.
func New(sink *diag.Sink) *Assembler {
	return &Assembler{sink: sink}
}

// Run assembles source (named filename for diagnostics) using parse for
// both passes, and on success writes the object file to outPath. It
// returns ErrHadError if either pass recorded an error or syntax
// diagnostic (warnings do not count); no output file is written in that
// case.
func (a *Assembler) Run(source, filename string, parse ParseFunc, outPath string) error {
	a.symbols = symtab.New()

	for pass := 0; pass < 2; pass++ {
		a.pass = pass
		a.declaredSections = make(map[string]bool)
		a.curSection = ""
		a.curSectionRef = nil
		a.lc = 0
		a.pendingLabels = nil
		a.buf.Reset()
		a.dirArgs = nil
		if pass == 1 {
			a.sections = section.NewStore()
		}

		if err := parse(source, filename, a, a.sink); err != nil {
			return fmt.Errorf("pass %d: %w", pass+1, err)
		}
		if a.sink.HadError() {
			return ErrHadError
		}
	}

	return object.Write(outPath, a.sections, a.symbols)
}

// --- Callbacks implementation ---

func (a *Assembler) Label(pos diag.Position, name string) error {
	a.pos = pos
	if a.pass == 0 {
		a.pendingLabels = append(a.pendingLabels, name)
	}
	return nil
}

func (a *Assembler) InstrArgImmed(v operand.LitOrSym) error {
	a.buf.Push(operand.Immediate(v))
	return nil
}

func (a *Assembler) InstrArgMemDirOrJmpImmed(v operand.LitOrSym, jmpSyntax bool) error {
	a.buf.Push(operand.MemDirOrJumpImmediate(v, jmpSyntax))
	return nil
}

func (a *Assembler) InstrArgPCRel(sym string) error {
	a.buf.Push(operand.PCRelative(sym))
	return nil
}

func (a *Assembler) InstrArgRegDir(regName string, jmpSyntax bool) error {
	reg, ok := catalog.LookupRegister(regName)
	if !ok {
		a.sink.Syntaxf(a.pos, "unknown register %q", regName)
		return errStatement
	}
	a.buf.Push(operand.RegDirect(reg, jmpSyntax))
	return nil
}

func (a *Assembler) InstrArgRegInd(regName string, jmpSyntax bool) error {
	reg, ok := catalog.LookupRegister(regName)
	if !ok {
		a.sink.Syntaxf(a.pos, "unknown register %q", regName)
		return errStatement
	}
	a.buf.Push(operand.RegIndirect(reg, jmpSyntax))
	return nil
}

func (a *Assembler) InstrArgRegIndOff(regName string, off operand.LitOrSym, jmpSyntax bool) error {
	reg, ok := catalog.LookupRegister(regName)
	if !ok {
		a.sink.Syntaxf(a.pos, "unknown register %q", regName)
		return errStatement
	}
	a.buf.Push(operand.RegIndirectOffset(reg, off, jmpSyntax))
	return nil
}

func (a *Assembler) DirArg(v operand.LitOrSym) error {
	a.dirArgs = append(a.dirArgs, v)
	return nil
}

// errStatement is a sentinel returned by callbacks to tell the parser to
// resynchronize to the next line; the diagnostic has already been
// reported through the sink, so its text carries no information beyond
// "stop parsing this statement."
var errStatement = errors.New("statement aborted")

// definePendingLabels binds every label accumulated since the last
// commit to the current lc, in the current section, clearing the list.
// Only pass 0 defines labels (spec §4.2/§4.1): pass 1 re-walks the same
// source and would otherwise see every label as a duplicate.
func (a *Assembler) definePendingLabels() {
	if a.pass != 0 || len(a.pendingLabels) == 0 {
		return
	}
	if a.curSection == "" {
		a.sink.Errorf(a.pos, "label outside of any section")
		a.pendingLabels = nil
		return
	}
	for _, name := range a.pendingLabels {
		if !a.symbols.DefineLabel(name, a.curSection, a.lc) {
			a.sink.Errorf(a.pos, "symbol %q already defined", name)
		}
	}
	a.pendingLabels = nil
}
