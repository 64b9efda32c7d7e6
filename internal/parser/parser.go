package parser

import (
	"strings"

	"github.com/y16sys/y16asm/internal/assemble"
	"github.com/y16sys/y16asm/internal/catalog"
	"github.com/y16sys/y16asm/internal/diag"
	"github.com/y16sys/y16asm/internal/operand"
)

// Parse implements assemble.ParseFunc: it drives cb through the callback
// stream of spec §6.1, one line of source at a time. Parsing stops at an
// explicit `.end` or at end of file, whichever comes first (spec §4.1).
func Parse(source, filename string, cb assemble.Callbacks, sink *diag.Sink) error {
	for i, raw := range strings.Split(source, "\n") {
		toks := tokenizeLine(raw)
		if len(toks) == 0 {
			continue
		}
		lp := &lineParser{toks: toks, filename: filename, lineNum: i + 1, cb: cb, sink: sink}
		if lp.parseStatement() {
			break
		}
	}
	return nil
}

// lineParser parses the single statement (at most) that one source line
// can contain: an optional leading label, then an optional directive or
// instruction.
type lineParser struct {
	toks     []token
	idx      int
	filename string
	lineNum  int
	cb       assemble.Callbacks
	sink     *diag.Sink
}

func (p *lineParser) peek() token {
	if p.idx < len(p.toks) {
		return p.toks[p.idx]
	}
	return token{kind: tokEOF}
}

func (p *lineParser) advance() token {
	t := p.peek()
	if p.idx < len(p.toks) {
		p.idx++
	}
	return t
}

func (p *lineParser) pos(col int) diag.Position {
	return diag.Position{File: p.filename, Line: p.lineNum, Column: col + 1}
}

// parseStatement parses one line's statement and returns true if it was
// an `.end` directive committed successfully, telling Parse to stop.
func (p *lineParser) parseStatement() bool {
	if p.peek().kind == tokIdent {
		if next := p.idx + 1; next < len(p.toks) && p.toks[next].kind == tokColon {
			lab := p.advance()
			p.advance()
			p.cb.Label(p.pos(lab.col), lab.text)
		}
	}

	if p.idx >= len(p.toks) {
		return false
	}

	head := p.advance()
	if head.kind != tokIdent {
		p.sink.Syntaxf(p.pos(head.col), "unexpected token %q", head.text)
		return false
	}

	if strings.HasPrefix(head.text, ".") {
		return p.parseDirective(head.col, head.text)
	}
	p.parseInstruction(head.col, head.text)
	return false
}

func (p *lineParser) parseDirective(col int, name string) bool {
	pos := p.pos(col)
	first := true
	for p.idx < len(p.toks) {
		if !first {
			if p.peek().kind != tokComma {
				p.sink.Syntaxf(p.pos(p.peek().col), "expected ',' between %s arguments", name)
				return false
			}
			p.advance()
		}
		v, ok := p.parseLiteralOrSymbol()
		if !ok {
			return false
		}
		if p.cb.DirArg(v) != nil {
			return false
		}
		first = false
	}
	if p.cb.Dir(pos, name) != nil {
		return false
	}
	return name == ".end"
}

func (p *lineParser) parseInstruction(col int, name string) {
	pos := p.pos(col)
	n := 0
	for p.idx < len(p.toks) && n < 2 {
		if n > 0 {
			if p.peek().kind != tokComma {
				p.sink.Syntaxf(p.pos(p.peek().col), "expected ',' between operands")
				return
			}
			p.advance()
		}
		if !p.parseOperand() {
			return
		}
		n++
	}
	if p.idx < len(p.toks) {
		p.sink.Syntaxf(p.pos(p.peek().col), "too many operands for %s", name)
		return
	}
	p.cb.Instr(pos, name)
}

// parseOperand stages one operand via the matching Callbacks method and
// reports whether it succeeded.
func (p *lineParser) parseOperand() bool {
	jmpSyntax := false
	if p.peek().kind == tokStar {
		p.advance()
		jmpSyntax = true
	}

	switch p.peek().kind {
	case tokDollar:
		p.advance()
		v, ok := p.parseLiteralOrSymbol()
		if !ok {
			return false
		}
		return p.cb.InstrArgImmed(v) == nil

	case tokPercent:
		p.advance()
		t := p.peek()
		if t.kind != tokIdent {
			p.sink.Syntaxf(p.pos(t.col), "expected a symbol name after '%%'")
			return false
		}
		p.advance()
		return p.cb.InstrArgPCRel(t.text) == nil

	case tokLBracket:
		p.advance()
		regTok := p.peek()
		if regTok.kind != tokIdent {
			p.sink.Syntaxf(p.pos(regTok.col), "expected a register name")
			return false
		}
		p.advance()
		regName := strings.ToLower(regTok.text)

		var off operand.LitOrSym
		hasOff := false
		if p.peek().kind == tokPlus {
			p.advance()
			v, ok := p.parseLiteralOrSymbol()
			if !ok {
				return false
			}
			off = v
			hasOff = true
		}
		if p.peek().kind != tokRBracket {
			p.sink.Syntaxf(p.pos(p.peek().col), "expected ']'")
			return false
		}
		p.advance()
		if hasOff {
			return p.cb.InstrArgRegIndOff(regName, off, jmpSyntax) == nil
		}
		return p.cb.InstrArgRegInd(regName, jmpSyntax) == nil

	case tokIdent:
		t := p.advance()
		if _, ok := catalog.LookupRegister(strings.ToLower(t.text)); ok {
			return p.cb.InstrArgRegDir(strings.ToLower(t.text), jmpSyntax) == nil
		}
		return p.cb.InstrArgMemDirOrJmpImmed(operand.Sym(t.text), jmpSyntax) == nil

	case tokNumber:
		t := p.advance()
		return p.cb.InstrArgMemDirOrJmpImmed(operand.Lit(t.num), jmpSyntax) == nil

	default:
		p.sink.Syntaxf(p.pos(p.peek().col), "expected an operand")
		return false
	}
}

func (p *lineParser) parseLiteralOrSymbol() (operand.LitOrSym, bool) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.advance()
		return operand.Lit(t.num), true
	case tokIdent:
		p.advance()
		return operand.Sym(t.text), true
	default:
		p.sink.Syntaxf(p.pos(t.col), "expected a literal or symbol name")
		return operand.LitOrSym{}, false
	}
}
