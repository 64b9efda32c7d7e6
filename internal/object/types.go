// Package object implements the on-disk container described in spec
// §4.7/§6.3: a fixed header, section byte streams each optionally
// followed by their relocation section, a symbol table section, a
// string table, and a trailing section header table. Everything is
// little-endian except instruction payloads, which the assembler itself
// already wrote big-endian before handing bytes to this package — object
// only ever moves bytes it is given, it never re-encodes them.
package object

// Magic is the fixed header tag. Six bytes, like the reference corpus's
// WOF/EXE magics, though the value itself is this project's own.
var Magic = [6]byte{'Y', '1', '6', 'O', 0, 0}

// HeaderSize is the fixed on-disk size of Header in bytes:
// magic(6) + shtOffset(4) + shtCount(2) + strSectionIndex(2).
const HeaderSize = 6 + 4 + 2 + 2

// SectionHeaderEntrySize is the fixed on-disk size of one
// SectionHeaderEntry: kind(1) + pad(1) + nameOffset(2) + fileOffset(4) +
// size(4).
const SectionHeaderEntrySize = 1 + 1 + 2 + 4 + 4

// SymbolEntrySize is the fixed on-disk size of one SymbolEntry:
// nameOffset(2) + kind(1) + binding(1) + value(2) + sectionIndex(2).
const SymbolEntrySize = 2 + 1 + 1 + 2 + 2

// RelocEntrySize is the fixed on-disk size of one relocation record:
// tag(1) + pad(1) + offset(2) + symbolID(4), per spec §9's explicit wire
// layout note.
const RelocEntrySize = 1 + 1 + 2 + 4

// SectionKind tags a section-header-table entry.
type SectionKind uint8

const (
	KindNull SectionKind = iota
	KindData
	KindRel
	KindStr
	KindSymTab
)

// SymbolKind tags a symbol-table entry.
type SymbolKind uint8

const (
	SymAbsolute SymbolKind = iota
	SymLabel
	SymSection
	SymExternUndefined
)

// Binding distinguishes local from global visibility in the symbol
// table. Materialized local symbols (spec §4.5) are promoted to global
// binding by definition of being kept at all.
type Binding uint8

const (
	BindLocal Binding = iota
	BindGlobal
)

// RelocKind tags a relocation record's fix-up rule (spec §4.6).
type RelocKind uint8

const (
	RelocSym16 RelocKind = iota
	RelocSym16BE
	RelocPCRel
)

// Header is the fixed leading record of the file.
type Header struct {
	Magic           [6]byte
	SHTOffset       uint32
	SHTCount        uint16
	StrSectionIndex uint16
}

// SectionHeaderEntry describes one region of the file. Entry 0 is always
// the reserved null entry.
type SectionHeaderEntry struct {
	Kind       SectionKind
	NameOffset uint16
	FileOffset uint32
	Size       uint32
}

// SymbolEntry is one on-disk symbol-table row. Entry 0 is the reserved
// null entry.
type SymbolEntry struct {
	NameOffset   uint16
	Kind         SymbolKind
	Binding      Binding
	Value        uint16
	SectionIndex uint16 // index into the section header table; 0 if n/a
}

// RelocEntry is one on-disk relocation record.
type RelocEntry struct {
	Kind     RelocKind
	Offset   uint16
	SymbolID uint32
}
