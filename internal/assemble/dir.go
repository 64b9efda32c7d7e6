package assemble

import (
	"strings"

	"github.com/y16sys/y16asm/internal/catalog"
	"github.com/y16sys/y16asm/internal/diag"
	"github.com/y16sys/y16asm/internal/operand"
	"github.com/y16sys/y16asm/internal/section"
)

// Dir commits the directive staged via the preceding DirArg calls (spec
// §4.3, §6.1).
func (a *Assembler) Dir(pos diag.Position, name string) error {
	a.pos = pos
	args := a.dirArgs
	defer func() { a.dirArgs = nil }()

	d, ok := catalog.LookupDirective(name)
	if !ok {
		a.sink.Syntaxf(pos, "unknown directive %q", name)
		return errStatement
	}

	if !d.AllowsLabel && len(a.pendingLabels) > 0 {
		a.sink.Syntaxf(pos, "%s may not be preceded by a label", name)
		a.pendingLabels = nil
	}
	if d.RequiresSection {
		a.definePendingLabels()
		if a.curSection == "" {
			a.sink.Errorf(pos, "%s outside of any section", name)
			return errStatement
		}
	}

	switch name {
	case ".global":
		return a.dirGlobalExtern(pos, args, true)
	case ".extern":
		return a.dirGlobalExtern(pos, args, false)
	case ".section":
		return a.dirSection(pos, args)
	case ".word":
		return a.dirWord(pos, args)
	case ".skip":
		return a.dirSkip(pos, args)
	case ".equ":
		return a.dirEqu(pos, args)
	case ".end":
		return nil
	}
	return nil
}

func (a *Assembler) dirGlobalExtern(pos diag.Position, args []operand.LitOrSym, global bool) error {
	if a.pass != 0 {
		return nil
	}
	if len(args) == 0 {
		a.sink.Syntaxf(pos, "expected at least one symbol name")
		return errStatement
	}
	for _, arg := range args {
		if !arg.IsSymbol {
			a.sink.Syntaxf(pos, "expected a symbol name")
			continue
		}
		if global {
			a.symbols.MarkGlobal(arg.Symbol)
		} else {
			a.symbols.MarkExternal(arg.Symbol)
		}
	}
	return nil
}

func (a *Assembler) dirSection(pos diag.Position, args []operand.LitOrSym) error {
	if len(args) != 1 || !args[0].IsSymbol {
		a.sink.Syntaxf(pos, ".section expects a single section name")
		return errStatement
	}
	name := args[0].Symbol
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	if a.pass == 0 {
		if a.declaredSections[name] {
			a.sink.Errorf(pos, "section %q declared more than once", name)
			return errStatement
		}
		a.declaredSections[name] = true
		a.curSection = name
		a.lc = 0
		return nil
	}
	a.curSection = name
	a.curSectionRef = a.sections.Get(name)
	return nil
}

func (a *Assembler) dirWord(pos diag.Position, args []operand.LitOrSym) error {
	a.definePendingLabels()
	if a.pass == 0 {
		a.lc += uint16(2 * len(args))
		return nil
	}
	for _, v := range args {
		val, err := payloadValue(v, a.symbols)
		if err != nil {
			a.sink.Errorf(pos, ".word: %v", err)
			continue
		}
		off := a.curSectionRef.AppendWordLE(val)
		if v.IsSymbol {
			if sym, ok := a.symbols.Lookup(v.Symbol); ok && (sym.Label || sym.External) {
				a.curSectionRef.AddReloc(off, v.Symbol, section.RelSym16)
			}
		}
	}
	return nil
}

func (a *Assembler) dirSkip(pos diag.Position, args []operand.LitOrSym) error {
	a.definePendingLabels()
	if len(args) != 1 || args[0].IsSymbol {
		a.sink.Syntaxf(pos, ".skip expects a single literal byte count")
		return errStatement
	}
	n := args[0].Literal
	if a.pass == 0 {
		a.lc += n
		return nil
	}
	for i := uint16(0); i < n; i++ {
		a.curSectionRef.AppendByte(0)
	}
	return nil
}

func (a *Assembler) dirEqu(pos diag.Position, args []operand.LitOrSym) error {
	if len(args) != 2 || !args[0].IsSymbol || args[1].IsSymbol {
		a.sink.Syntaxf(pos, ".equ expects a symbol name and a literal value")
		return errStatement
	}
	if a.pass != 0 {
		return nil
	}
	if !a.symbols.DefineAbsolute(args[0].Symbol, args[1].Literal) {
		a.sink.Errorf(pos, "symbol %q already defined", args[0].Symbol)
	}
	return nil
}
