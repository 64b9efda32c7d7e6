// Package symtab implements the assembler's symbol table: definition,
// lazy creation on first reference, and the materialization rules that
// decide which symbols survive into the object file's symbol-table
// section.
package symtab

// Symbol is one entry in the table. A symbol is either a label bound to
// a section and offset, or an absolute value bound by `.equ`, or left
// undefined (only legal when also external).
type Symbol struct {
	Name     string
	Global   bool
	External bool
	Used     bool // referenced as an operand somewhere, not merely declared
	Label    bool // true if defined as a code/data label, false if .equ
	Defined  bool
	Value    uint16
	Section  string // section the label lives in; empty for .equ/extern
}

// Table is the assembler's symbol table, keyed by name. Symbols are
// created lazily: the first reference to an unknown name (as an operand,
// or via .global/.extern) inserts an undefined entry; a later label or
// .equ definition fills it in. Insertion order is tracked separately so
// that symbol-table and string-table output is deterministic across
// runs, independent of Go's randomized map iteration.
type Table struct {
	symbols map[string]*Symbol
	order   []string
}

// New returns an empty table.
func New() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

// get returns the symbol named name, creating an undefined entry if this
// is the first time name has been seen.
func (t *Table) get(name string) *Symbol {
	if s, ok := t.symbols[name]; ok {
		return s
	}
	s := &Symbol{Name: name}
	t.symbols[name] = s
	t.order = append(t.order, name)
	return s
}

// Lookup returns the symbol named name without creating it.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// Reference ensures a symbol named name exists (lazily creating an
// undefined entry), marks it used, and returns it. Called whenever an
// operand names a symbol — as opposed to a bare .global/.extern
// declaration, which creates the entry but does not by itself count as
// a use (spec §4.5: an unused extern is silently dropped).
func (t *Table) Reference(name string) *Symbol {
	s := t.get(name)
	s.Used = true
	return s
}

// DefineLabel binds name to section/offset as a code or data label. It
// reports false if name was already defined (duplicate label, a pass-1
// error per spec §4.2's invariant that every label is defined at most
// once).
func (t *Table) DefineLabel(name, section string, offset uint16) bool {
	s := t.get(name)
	if s.Defined {
		return false
	}
	s.Defined = true
	s.Label = true
	s.Section = section
	s.Value = offset
	return true
}

// DefineAbsolute binds name to an absolute value via `.equ`. Reports
// false if already defined.
func (t *Table) DefineAbsolute(name string, value uint16) bool {
	s := t.get(name)
	if s.Defined {
		return false
	}
	s.Defined = true
	s.Label = false
	s.Value = value
	return true
}

// MarkGlobal records that name is exported. The symbol need not yet be
// defined — `.global` may precede the label it names.
func (t *Table) MarkGlobal(name string) {
	t.get(name).Global = true
}

// MarkExternal records that name is resolved outside this file. An
// external symbol is never required to become Defined locally.
func (t *Table) MarkExternal(name string) {
	t.get(name).External = true
}

// Materialized returns the symbols that belong in the object file's
// symbol-table section, per spec §4.5:
//   - undefined and external: kept iff used; an external that is
//     declared but never referenced as an operand is silently dropped.
//   - undefined and not external: dropped (an undeclared .global).
//   - defined, absolute or label: kept iff global.
//
// Section symbols are never included here; they are synthesized lazily
// during relocation emission (spec §4.6) and carry their own table ids.
func (t *Table) Materialized() []*Symbol {
	var out []*Symbol
	for _, name := range t.order {
		s := t.symbols[name]
		switch {
		case !s.Defined && s.External:
			if s.Used {
				out = append(out, s)
			}
		case !s.Defined:
			continue
		case s.Global:
			out = append(out, s)
		}
	}
	return out
}
