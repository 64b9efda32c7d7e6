package object_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y16sys/y16asm/internal/object"
	"github.com/y16sys/y16asm/internal/section"
	"github.com/y16sys/y16asm/internal/symtab"
)

// buildS4 reproduces spec scenario S4 at the object-file level: a data
// section holding one word, a text section with a labeled load that
// relocates against the data section's synthesized section symbol.
func buildS4(t *testing.T) (*section.Store, *symtab.Table) {
	t.Helper()
	store := section.NewStore()
	syms := symtab.New()

	data := store.Get(".data")
	data.AppendWordLE(5)
	require.True(t, syms.DefineLabel("x", ".data", 0))

	text := store.Get(".text")
	text.AppendByte(0xA0)
	text.AppendByte(0x0F)
	text.AppendByte(0x04) // update=none(0x0)<<4 | mode=memdir(0x4)
	off := text.Offset()
	text.AppendWordBE(0)
	text.AddReloc(off, "x", section.RelSym16BE)

	syms.Reference("x")
	syms.MarkGlobal("start")
	require.True(t, syms.DefineLabel("start", ".text", 0))

	return store, syms
}

func TestWriteReadRoundTripS4(t *testing.T) {
	store, syms := buildS4(t)
	path := filepath.Join(t.TempDir(), "s4.o")
	require.NoError(t, object.Write(path, store, syms))

	f, err := object.Read(path)
	require.NoError(t, err)

	assert.Equal(t, object.Magic, f.Header.Magic)

	var dataEntry, textEntry, relEntry *object.SectionHeaderEntry
	for i := range f.Sections {
		e := &f.Sections[i]
		switch f.Name(e.NameOffset) {
		case ".data":
			dataEntry = e
		case ".text":
			textEntry = e
		case ".text.rel":
			relEntry = e
		}
	}
	require.NotNil(t, dataEntry)
	require.NotNil(t, textEntry)
	require.NotNil(t, relEntry)

	assert.Equal(t, []byte{0x05, 0x00}, f.SectionBytes(indexOf(f, dataEntry)))
	assert.Equal(t, []byte{0xA0, 0x0F, 0x04, 0x00, 0x00}, f.SectionBytes(indexOf(f, textEntry)))

	relocs := f.Relocs[indexOf(f, relEntry)]
	require.Len(t, relocs, 1)
	assert.Equal(t, object.RelocSym16BE, relocs[0].Kind)
	assert.EqualValues(t, 3, relocs[0].Offset)

	target := f.Symbols[relocs[0].SymbolID]
	assert.Equal(t, object.SymSection, target.Kind)
	assert.Equal(t, ".data", f.Name(f.Sections[target.SectionIndex].NameOffset))

	var sawStart bool
	for _, sym := range f.Symbols {
		if f.Name(sym.NameOffset) == "start" {
			sawStart = true
			assert.Equal(t, object.SymLabel, sym.Kind)
			assert.Equal(t, object.BindGlobal, sym.Binding)
		}
	}
	assert.True(t, sawStart, "start must be in the materialized symbol table")
}

func indexOf(f *object.File, e *object.SectionHeaderEntry) int {
	for i := range f.Sections {
		if &f.Sections[i] == e {
			return i
		}
	}
	return -1
}

func TestWriteEmptyTranslation(t *testing.T) {
	store := section.NewStore()
	syms := symtab.New()
	path := filepath.Join(t.TempDir(), "empty.o")
	require.NoError(t, object.Write(path, store, syms))

	f, err := object.Read(path)
	require.NoError(t, err)

	assert.Equal(t, object.KindNull, f.Sections[0].Kind)
	assert.Equal(t, object.KindStr, f.Sections[f.Header.StrSectionIndex].Kind)
	var strEntry *object.SectionHeaderEntry
	for i := range f.Sections {
		if f.Sections[i].Kind == object.KindStr {
			strEntry = &f.Sections[i]
		}
	}
	require.NotNil(t, strEntry)
	assert.Equal(t, []byte{0}, f.SectionBytes(indexOf(f, strEntry)))
}
