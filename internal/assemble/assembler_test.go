package assemble_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y16sys/y16asm/internal/assemble"
	"github.com/y16sys/y16asm/internal/diag"
	"github.com/y16sys/y16asm/internal/object"
	"github.com/y16sys/y16asm/internal/parser"
)

// runAssemble assembles code end to end through the real parser and
// returns the decoded object file, or the error Run reported.
func runAssemble(t *testing.T, code string) (*object.File, error) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "test.out")
	sink := diag.New(io.Discard, io.Discard)
	asm := assemble.New(sink)

	if err := asm.Run(code, "test.s", parser.Parse, out); err != nil {
		return nil, err
	}
	f, err := object.Read(out)
	require.NoError(t, err)
	return f, nil
}

func sectionByName(f *object.File, name string) (object.SectionHeaderEntry, int, bool) {
	for i, e := range f.Sections {
		if i != 0 && f.Name(e.NameOffset) == name {
			return e, i, true
		}
	}
	return object.SectionHeaderEntry{}, 0, false
}

func symbolByName(f *object.File, name string) (object.SymbolEntry, bool) {
	for i, s := range f.Symbols {
		if i != 0 && f.Name(s.NameOffset) == name {
			return s, true
		}
	}
	return object.SymbolEntry{}, false
}

// S1. Empty translation.
func TestEmptyTranslation(t *testing.T) {
	f, err := runAssemble(t, ".end\n")
	require.NoError(t, err)

	assert.Equal(t, object.KindNull, f.Sections[0].Kind)
	strEntry := f.Sections[f.Header.StrSectionIndex]
	assert.Equal(t, object.KindStr, strEntry.Kind)
	assert.Equal(t, []byte{0}, f.SectionBytes(int(f.Header.StrSectionIndex)))
	assert.Len(t, f.Symbols, 1) // reserved null entry only
}

// S2. One instruction, no operands.
func TestOneInstruction(t *testing.T) {
	f, err := runAssemble(t, ".section text\n  halt\n.end\n")
	require.NoError(t, err)

	e, idx, ok := sectionByName(f, ".text")
	require.True(t, ok)
	assert.Equal(t, []byte{0x00}, f.SectionBytes(idx))
	assert.Equal(t, uint32(1), e.Size)
	assert.Len(t, f.Symbols, 1)
}

// S3. Two-register add: fixed two-register short form, no AddrMode byte.
func TestTwoRegisterAdd(t *testing.T) {
	f, err := runAssemble(t, ".section text\n  add r1, r2\n.end\n")
	require.NoError(t, err)

	_, idx, ok := sectionByName(f, ".text")
	require.True(t, ok)
	assert.Equal(t, []byte{0x70, 0x12}, f.SectionBytes(idx))
}

// S4. Labeled load with relocation against a synthesized section symbol.
func TestLabeledLoadWithRelocation(t *testing.T) {
	code := ".section data\n" +
		"x: .word 5\n" +
		".section text\n" +
		".global start\n" +
		"start: ldr r0, x\n" +
		".end\n"
	f, err := runAssemble(t, code)
	require.NoError(t, err)

	_, dataIdx, ok := sectionByName(f, ".data")
	require.True(t, ok)
	assert.Equal(t, []byte{0x05, 0x00}, f.SectionBytes(dataIdx))

	_, textIdx, ok := sectionByName(f, ".text")
	require.True(t, ok)
	assert.Equal(t, []byte{0xA0, 0x0F, 0x04, 0x00, 0x00}, f.SectionBytes(textIdx))

	_, relIdx, ok := sectionByName(f, ".text.rel")
	require.True(t, ok)
	relocs := f.Relocs[relIdx]
	require.Len(t, relocs, 1)
	assert.Equal(t, object.RelocSym16BE, relocs[0].Kind)
	assert.Equal(t, uint16(3), relocs[0].Offset)

	target := f.Symbols[relocs[0].SymbolID]
	assert.Equal(t, object.SymSection, target.Kind)
	assert.Equal(t, ".data", f.Name(target.NameOffset))

	start, ok := symbolByName(f, "start")
	require.True(t, ok)
	assert.Equal(t, object.SymLabel, start.Kind)
	assert.Equal(t, object.BindGlobal, start.Binding)
}

// S5. Extern call: the external symbol is materialized because it is used.
func TestExternCall(t *testing.T) {
	code := ".extern printf\n" +
		".section text\n" +
		"  call printf\n" +
		".end\n"
	f, err := runAssemble(t, code)
	require.NoError(t, err)

	_, textIdx, ok := sectionByName(f, ".text")
	require.True(t, ok)
	assert.Equal(t, []byte{0x30, 0xFF, 0x00, 0x00, 0x00}, f.SectionBytes(textIdx))

	_, relIdx, ok := sectionByName(f, ".text.rel")
	require.True(t, ok)
	require.Len(t, f.Relocs[relIdx], 1)
	assert.Equal(t, object.RelocSym16BE, f.Relocs[relIdx][0].Kind)

	printf, ok := symbolByName(f, "printf")
	require.True(t, ok)
	assert.Equal(t, object.SymExternUndefined, printf.Kind)
	assert.Equal(t, object.BindGlobal, printf.Binding)
}

// S6. Duplicate label: pass 1 fails and no output file is produced.
func TestDuplicateLabel(t *testing.T) {
	out := filepath.Join(t.TempDir(), "test.out")
	sink := diag.New(io.Discard, io.Discard)
	asm := assemble.New(sink)

	code := ".section text\nfoo:\n  halt\nfoo:\n  halt\n.end\n"
	err := asm.Run(code, "test.s", parser.Parse, out)

	assert.ErrorIs(t, err, assemble.ErrHadError)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

// An unexported local label is dropped from the materialized symbol
// table; the same label marked .global is kept (invariant 5).
func TestLocalLabelDroppedUnlessGlobal(t *testing.T) {
	f, err := runAssemble(t, ".section text\nfoo:\n  halt\n.end\n")
	require.NoError(t, err)
	_, ok := symbolByName(f, "foo")
	assert.False(t, ok, "non-global label must not be materialized")

	f, err = runAssemble(t, ".section text\n.global foo\nfoo:\n  halt\n.end\n")
	require.NoError(t, err)
	_, ok = symbolByName(f, "foo")
	assert.True(t, ok, "global label must be materialized")
}

// An extern that is declared but never used as an operand is silently
// dropped (invariant 5).
func TestUnusedExternDropped(t *testing.T) {
	f, err := runAssemble(t, ".extern unused\n.section text\n  halt\n.end\n")
	require.NoError(t, err)
	_, ok := symbolByName(f, "unused")
	assert.False(t, ok)
}

// Push/pop equivalence (invariant 4): push/pop emits the same bytes as
// the str/ldr rewrite, except that the AddrMode byte's upper nibble
// carries PRE_DEC/POST_INC, which plain `str`/`ldr` source cannot express.
func TestPushPopEquivalence(t *testing.T) {
	push, err := runAssemble(t, ".section text\n  push r3\n.end\n")
	require.NoError(t, err)
	str, err := runAssemble(t, ".section text\n  str r3, [sp]\n.end\n")
	require.NoError(t, err)

	_, pushIdx, _ := sectionByName(push, ".text")
	_, strIdx, _ := sectionByName(str, ".text")
	pushBytes := push.SectionBytes(pushIdx)
	strBytes := str.SectionBytes(strIdx)
	assert.Equal(t, []byte{strBytes[0], strBytes[1], 0x10 | strBytes[2]}, pushBytes)
	assert.Equal(t, byte(0x1), pushBytes[2]>>4, "push must use PRE_DEC")

	pop, err := runAssemble(t, ".section text\n  pop r3\n.end\n")
	require.NoError(t, err)
	ldr, err := runAssemble(t, ".section text\n  ldr r3, [sp]\n.end\n")
	require.NoError(t, err)
	_, popIdx, _ := sectionByName(pop, ".text")
	_, ldrIdx, _ := sectionByName(ldr, ".text")
	popBytes := pop.SectionBytes(popIdx)
	ldrBytes := ldr.SectionBytes(ldrIdx)
	assert.Equal(t, []byte{ldrBytes[0], ldrBytes[1], 0x40 | ldrBytes[2]}, popBytes)
	assert.Equal(t, byte(0x4), popBytes[2]>>4, "pop must use POST_INC")
}

// Jump/data syntax-class mismatches are rejected (spec §4.4).
func TestJumpSyntaxMismatch(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "jmp bare target is valid jump syntax", code: ".section text\n  jmp label\nlabel:\n  halt\n.end\n", wantErr: false},
		{name: "jmp star-prefixed register is valid jump syntax", code: ".section text\n  jmp *r0\n.end\n", wantErr: false},
		{name: "add with star-prefixed register is a syntax mismatch", code: ".section text\n  add *r1, r2\n.end\n", wantErr: true},
		{name: "unknown mnemonic is a syntax error", code: ".section text\n  frobnicate r1\n.end\n", wantErr: true},
		{name: "wrong operand count is a syntax error", code: ".section text\n  add r1\n.end\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAssemble(t, tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, assemble.ErrHadError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Section re-declaration is a fatal diagnostic.
func TestDuplicateSectionDeclaration(t *testing.T) {
	_, err := runAssemble(t, ".section text\n  halt\n.section text\n  halt\n.end\n")
	assert.ErrorIs(t, err, assemble.ErrHadError)
}

// An instruction outside any section is a fatal diagnostic.
func TestInstructionOutsideSection(t *testing.T) {
	_, err := runAssemble(t, "  halt\n.end\n")
	assert.ErrorIs(t, err, assemble.ErrHadError)
}
