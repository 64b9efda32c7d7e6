package object

import (
	"encoding/binary"
	"fmt"
	"os"
)

// File is the fully decoded in-memory form of an object file, as read
// back by y16objdump and by this package's own round-trip tests.
type File struct {
	Header  Header
	Sections []SectionHeaderEntry // index 0 is the reserved null entry
	Symbols []SymbolEntry         // index 0 is the reserved null entry
	Relocs  map[int][]RelocEntry  // keyed by the owning .rel section's SHT index
	raw     []byte
}

// Name returns the string-table name at NameOffset (an offset into the
// string section, as stored in section-header and symbol entries), or ""
// for offset 0 ("no name").
func (f *File) Name(nameOffset uint16) string {
	if nameOffset == 0 || int(f.Header.StrSectionIndex) >= len(f.Sections) {
		return ""
	}
	strs := f.SectionBytes(int(f.Header.StrSectionIndex))
	if int(nameOffset) >= len(strs) {
		return ""
	}
	end := int(nameOffset)
	for end < len(strs) && strs[end] != 0 {
		end++
	}
	return string(strs[nameOffset:end])
}

// SectionBytes returns the raw bytes of the section-header-table entry
// at index i.
func (f *File) SectionBytes(i int) []byte {
	e := f.Sections[i]
	return f.raw[e.FileOffset : e.FileOffset+e.Size]
}

// Read parses path into a File. It does not interpret or apply any
// relocation — this package's reader is a pure decoder, matching
// SPEC_FULL §6.4's "read-only inspector, not a linker" scope.
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read object file: %w", err)
	}
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("object file too short for header: %d bytes", len(raw))
	}

	var hdr Header
	copy(hdr.Magic[:], raw[0:6])
	if hdr.Magic != Magic {
		return nil, fmt.Errorf("bad magic: %x", hdr.Magic)
	}
	hdr.SHTOffset = binary.LittleEndian.Uint32(raw[6:10])
	hdr.SHTCount = binary.LittleEndian.Uint16(raw[10:12])
	hdr.StrSectionIndex = binary.LittleEndian.Uint16(raw[12:14])

	shtEnd := int(hdr.SHTOffset) + int(hdr.SHTCount)*SectionHeaderEntrySize
	if shtEnd > len(raw) {
		return nil, fmt.Errorf("section header table runs past end of file")
	}

	entries := make([]SectionHeaderEntry, hdr.SHTCount)
	for i := 0; i < int(hdr.SHTCount); i++ {
		off := int(hdr.SHTOffset) + i*SectionHeaderEntrySize
		b := raw[off : off+SectionHeaderEntrySize]
		entries[i] = SectionHeaderEntry{
			Kind:       SectionKind(b[0]),
			NameOffset: binary.LittleEndian.Uint16(b[2:4]),
			FileOffset: binary.LittleEndian.Uint32(b[4:8]),
			Size:       binary.LittleEndian.Uint32(b[8:12]),
		}
	}

	f := &File{Header: hdr, Sections: entries, raw: raw, Relocs: make(map[int][]RelocEntry)}

	for i, e := range entries {
		switch e.Kind {
		case KindSymTab:
			f.Symbols = decodeSymbolTable(f.SectionBytes(i))
		case KindRel:
			f.Relocs[i] = decodeRelocs(f.SectionBytes(i))
		}
	}
	return f, nil
}

func decodeSymbolTable(b []byte) []SymbolEntry {
	n := len(b) / SymbolEntrySize
	out := make([]SymbolEntry, n)
	for i := 0; i < n; i++ {
		e := b[i*SymbolEntrySize : (i+1)*SymbolEntrySize]
		out[i] = SymbolEntry{
			NameOffset:   binary.LittleEndian.Uint16(e[0:2]),
			Kind:         SymbolKind(e[2]),
			Binding:      Binding(e[3]),
			Value:        binary.LittleEndian.Uint16(e[4:6]),
			SectionIndex: binary.LittleEndian.Uint16(e[6:8]),
		}
	}
	return out
}

func decodeRelocs(b []byte) []RelocEntry {
	n := len(b) / RelocEntrySize
	out := make([]RelocEntry, n)
	for i := 0; i < n; i++ {
		e := b[i*RelocEntrySize : (i+1)*RelocEntrySize]
		out[i] = RelocEntry{
			Kind:     RelocKind(e[0]),
			Offset:   binary.LittleEndian.Uint16(e[2:4]),
			SymbolID: binary.LittleEndian.Uint32(e[4:8]),
		}
	}
	return out
}
