package object

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/y16sys/y16asm/internal/section"
	"github.com/y16sys/y16asm/internal/symtab"
)

// region is one entry placed into the section header table: a section's
// own bytes, its trailing relocation table, or one of the fixed symbol
// table and string sections.
type region struct {
	kind       SectionKind
	name       string
	sourceName string // the owning section's name, for Rel regions
	bytes      []byte
}

// Write assembles and emits the object file described in spec §4.7 to
// path, given the finalized section store and symbol table from a
// completed pass 2. On any error the partial output file is removed, per
// spec's "on any fatal error at any stage, the output file is removed."
func Write(path string, store *section.Store, symbols *symtab.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	// Reserve the header; it is rewritten with final offsets once the
	// rest of the file has been laid out.
	if _, err = f.Write(make([]byte, HeaderSize)); err != nil {
		return fmt.Errorf("write header placeholder: %w", err)
	}

	strs := newStringBuilder()

	// A single pass over the sections in creation order, appending each
	// section's own data region immediately followed by its .rel region
	// (if it has any relocations), so a section's relocation section
	// always immediately follows that same section's data region on
	// disk, matching spec §4.7(2)/§6.3's "each code/data section is
	// followed immediately by its relocation section if non-empty"
	// layout rule. Relocation bytes depend on symbol ids resolved below,
	// so rel regions are appended with placeholder bytes here and filled
	// in after resolution.
	var regions []region
	sectionSHTIndex := make(map[string]uint16) // section name -> its data region's SHT index
	relRegionIndex := make(map[string]int)      // section name -> index into regions
	sectionNames := store.Names()
	for _, name := range sectionNames {
		sec, _ := store.Lookup(name)
		regions = append(regions, region{kind: KindData, name: name, bytes: sec.Bytes})
		sectionSHTIndex[name] = uint16(len(regions)) // entry 0 is reserved null
		if len(sec.Relocs) == 0 {
			continue
		}
		relRegionIndex[name] = len(regions)
		regions = append(regions, region{kind: KindRel, name: name + ".rel", sourceName: name})
	}

	matSyms := symbols.Materialized()
	symbolID := make(map[string]uint32, len(matSyms))
	for i, s := range matSyms {
		symbolID[s.Name] = uint32(i + 1) // id 0 is the reserved null entry
	}

	// Section symbols are synthesized lazily, in first-use order, as
	// relocations against labels are resolved (spec §4.6).
	var sectionSymOrder []string
	sectionSymID := make(map[string]uint32)
	nextID := uint32(len(matSyms) + 1)
	resolveTarget := func(symbolName string) uint32 {
		sym, ok := symbols.Lookup(symbolName)
		if !ok {
			return 0
		}
		if sym.Defined && sym.Label {
			if id, ok := sectionSymID[sym.Section]; ok {
				return id
			}
			id := nextID
			nextID++
			sectionSymID[sym.Section] = id
			sectionSymOrder = append(sectionSymOrder, sym.Section)
			return id
		}
		if id, ok := symbolID[symbolName]; ok {
			return id
		}
		// Absolute local symbol referenced in a relocatable context
		// (e.g. a non-exported .equ used with %symbol) has no table
		// entry to point at; resolving to the null entry is the
		// documented degenerate case for this rare combination.
		return 0
	}

	// Iterate sectionNames (not the map directly) so section symbols are
	// synthesized in a fixed, reproducible order across runs rather than
	// in Go's randomized map iteration order.
	for _, name := range sectionNames {
		idx, ok := relRegionIndex[name]
		if !ok {
			continue
		}
		sec, _ := store.Lookup(name)
		regions[idx].bytes = encodeRelocs(sec.Relocs, resolveTarget)
	}

	// Name every region now that all regions (including section symbols'
	// owning sections) are known, so string offsets can be reused.
	regionName := make([]uint16, len(regions))
	for i, r := range regions {
		regionName[i] = strs.intern(r.name)
	}

	symTabRegionIndex := len(regions)
	regions = append(regions, region{kind: KindSymTab, name: ""})

	strTabRegionIndex := len(regions) // reserved; filled after interning symbol names
	regions = append(regions, region{kind: KindStr, name: ""})

	// Intern materialized and section-symbol names before finalizing the
	// symbol table bytes, so every name offset is stable.
	symNameOffset := make([]uint16, len(matSyms))
	for i, s := range matSyms {
		symNameOffset[i] = strs.intern(s.Name)
	}
	sectionSymNameOffset := make(map[string]uint16, len(sectionSymOrder))
	for _, secName := range sectionSymOrder {
		sectionSymNameOffset[secName] = regionName[sectionSHTIndex[secName]-1]
	}

	regions[symTabRegionIndex].bytes = encodeSymbolTable(matSyms, symNameOffset, sectionSymOrder, sectionSymNameOffset, sectionSHTIndex)
	regions[strTabRegionIndex].bytes = strs.bytes()

	// Lay out file offsets in region order and write the bytes.
	offset := uint32(HeaderSize)
	shtEntries := make([]SectionHeaderEntry, 0, len(regions)+1)
	shtEntries = append(shtEntries, SectionHeaderEntry{Kind: KindNull})
	strSHTIndex := uint16(0)
	for i, r := range regions {
		if _, err = f.Write(r.bytes); err != nil {
			return fmt.Errorf("write section %q: %w", r.name, err)
		}
		shtEntries = append(shtEntries, SectionHeaderEntry{
			Kind:       r.kind,
			NameOffset: regionNameOffset(regionName, i, r),
			FileOffset: offset,
			Size:       uint32(len(r.bytes)),
		})
		if r.kind == KindStr {
			strSHTIndex = uint16(i + 1)
		}
		offset += uint32(len(r.bytes))
	}

	shtOffset := offset
	if err = writeSHT(f, shtEntries); err != nil {
		return fmt.Errorf("write section header table: %w", err)
	}

	hdr := Header{
		Magic:           Magic,
		SHTOffset:       shtOffset,
		SHTCount:        uint16(len(shtEntries)),
		StrSectionIndex: strSHTIndex,
	}
	if _, err = f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}
	if err = writeHeader(f, hdr); err != nil {
		return fmt.Errorf("rewrite header: %w", err)
	}
	return nil
}

// regionNameOffset returns the name offset for region i; the symtab and
// string regions are fixed sections (spec §4.7) and carry no name.
func regionNameOffset(regionName []uint16, i int, r region) uint16 {
	if r.kind == KindSymTab || r.kind == KindStr {
		return 0
	}
	return regionName[i]
}

func encodeRelocs(relocs []section.Reloc, resolve func(string) uint32) []byte {
	out := make([]byte, 0, len(relocs)*RelocEntrySize)
	for _, r := range relocs {
		var kind RelocKind
		switch r.Kind {
		case section.RelSym16:
			kind = RelocSym16
		case section.RelSym16BE:
			kind = RelocSym16BE
		case section.RelPCRel:
			kind = RelocPCRel
		}
		var buf [RelocEntrySize]byte
		buf[0] = byte(kind)
		buf[1] = 0
		binary.LittleEndian.PutUint16(buf[2:4], r.Offset)
		binary.LittleEndian.PutUint32(buf[4:8], resolve(r.Symbol))
		out = append(out, buf[:]...)
	}
	return out
}

func encodeSymbolTable(
	matSyms []*symtab.Symbol,
	matNameOffset []uint16,
	sectionSymOrder []string,
	sectionSymNameOffset map[string]uint16,
	sectionSHTIndex map[string]uint16,
) []byte {
	total := 1 + len(matSyms) + len(sectionSymOrder)
	out := make([]byte, 0, total*SymbolEntrySize)
	out = appendSymbolEntry(out, SymbolEntry{}) // reserved null

	for i, s := range matSyms {
		e := SymbolEntry{NameOffset: matNameOffset[i], Value: s.Value}
		switch {
		case s.External && !s.Defined:
			e.Kind = SymExternUndefined
			e.Binding = BindGlobal
		case s.Label:
			e.Kind = SymLabel
			e.Binding = BindGlobal
			e.SectionIndex = sectionSHTIndex[s.Section]
		default:
			e.Kind = SymAbsolute
			e.Binding = BindGlobal
		}
		out = appendSymbolEntry(out, e)
	}

	for _, secName := range sectionSymOrder {
		out = appendSymbolEntry(out, SymbolEntry{
			NameOffset:   sectionSymNameOffset[secName],
			Kind:         SymSection,
			Binding:      BindLocal,
			SectionIndex: sectionSHTIndex[secName],
		})
	}
	return out
}

func appendSymbolEntry(out []byte, e SymbolEntry) []byte {
	var buf [SymbolEntrySize]byte
	binary.LittleEndian.PutUint16(buf[0:2], e.NameOffset)
	buf[2] = byte(e.Kind)
	buf[3] = byte(e.Binding)
	binary.LittleEndian.PutUint16(buf[4:6], e.Value)
	binary.LittleEndian.PutUint16(buf[6:8], e.SectionIndex)
	return append(out, buf[:]...)
}

func writeSHT(f *os.File, entries []SectionHeaderEntry) error {
	buf := make([]byte, 0, len(entries)*SectionHeaderEntrySize)
	for _, e := range entries {
		var b [SectionHeaderEntrySize]byte
		b[0] = byte(e.Kind)
		b[1] = 0
		binary.LittleEndian.PutUint16(b[2:4], e.NameOffset)
		binary.LittleEndian.PutUint32(b[4:8], e.FileOffset)
		binary.LittleEndian.PutUint32(b[8:12], e.Size)
		buf = append(buf, b[:]...)
	}
	_, err := f.Write(buf)
	return err
}

func writeHeader(f *os.File, h Header) error {
	var buf [HeaderSize]byte
	copy(buf[0:6], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[6:10], h.SHTOffset)
	binary.LittleEndian.PutUint16(buf[10:12], h.SHTCount)
	binary.LittleEndian.PutUint16(buf[12:14], h.StrSectionIndex)
	_, err := f.Write(buf[:])
	return err
}

// stringBuilder accumulates the string (names) section: a leading null
// byte so name-offset 0 means "no name", then null-terminated names,
// deduplicated so a name interned twice reuses its first offset.
type stringBuilder struct {
	buf     []byte
	offsets map[string]uint16
}

func newStringBuilder() *stringBuilder {
	return &stringBuilder{buf: []byte{0}, offsets: make(map[string]uint16)}
}

func (s *stringBuilder) intern(name string) uint16 {
	if name == "" {
		return 0
	}
	if off, ok := s.offsets[name]; ok {
		return off
	}
	off := uint16(len(s.buf))
	s.buf = append(s.buf, []byte(name)...)
	s.buf = append(s.buf, 0)
	s.offsets[name] = off
	return off
}

func (s *stringBuilder) bytes() []byte {
	return s.buf
}
