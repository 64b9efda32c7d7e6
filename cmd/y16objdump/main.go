// Command y16objdump decodes and prints a Y16 object file (SPEC_FULL
// §6.4): header, section header table, symbol table, and relocations.
// It performs no symbol resolution and applies no relocations — it is a
// read-only inspector, not a linker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/y16sys/y16asm/internal/object"
)

var rootCmd = &cobra.Command{
	Use:   "y16objdump <object-file>",
	Short: "Print the structure of a Y16 relocatable object file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	f, err := object.Read(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "y16objdump: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("magic: %q\n", f.Header.Magic[:4])
	fmt.Printf("section header table: offset=%#x count=%d strtab=%d\n",
		f.Header.SHTOffset, f.Header.SHTCount, f.Header.StrSectionIndex)

	fmt.Println("\nsections:")
	for i, e := range f.Sections {
		if i == 0 {
			continue
		}
		fmt.Printf("  [%2d] %-20s kind=%-8s offset=%#-8x size=%d\n",
			i, f.Name(e.NameOffset), sectionKindName(e.Kind), e.FileOffset, e.Size)
	}

	fmt.Println("\nsymbols:")
	for i, s := range f.Symbols {
		if i == 0 {
			continue
		}
		fmt.Printf("  [%3d] %-20s kind=%-10s binding=%-6s value=%#04x section=%d\n",
			i, f.Name(s.NameOffset), symbolKindName(s.Kind), bindingName(s.Binding), s.Value, s.SectionIndex)
	}

	for i, e := range f.Sections {
		if e.Kind != object.KindRel {
			continue
		}
		relocs := f.Relocs[i]
		if len(relocs) == 0 {
			continue
		}
		fmt.Printf("\nrelocations in %s:\n", f.Name(e.NameOffset))
		for _, r := range relocs {
			target := "?"
			if int(r.SymbolID) < len(f.Symbols) {
				target = f.Name(f.Symbols[r.SymbolID].NameOffset)
			}
			fmt.Printf("  offset=%#04x kind=%-10s symbol=%s\n", r.Offset, relocKindName(r.Kind), target)
		}
	}

	return nil
}

func sectionKindName(k object.SectionKind) string {
	switch k {
	case object.KindData:
		return "data"
	case object.KindRel:
		return "rel"
	case object.KindStr:
		return "str"
	case object.KindSymTab:
		return "symtab"
	default:
		return "null"
	}
}

func symbolKindName(k object.SymbolKind) string {
	switch k {
	case object.SymAbsolute:
		return "absolute"
	case object.SymLabel:
		return "label"
	case object.SymSection:
		return "section"
	case object.SymExternUndefined:
		return "extern"
	default:
		return "?"
	}
}

func bindingName(b object.Binding) string {
	if b == object.BindGlobal {
		return "global"
	}
	return "local"
}

func relocKindName(k object.RelocKind) string {
	switch k {
	case object.RelocSym16:
		return "SYM_16"
	case object.RelocSym16BE:
		return "SYM_16_BE"
	case object.RelocPCRel:
		return "PC_REL"
	default:
		return "?"
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
