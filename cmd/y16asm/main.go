// Command y16asm assembles Y16 assembly source into a relocatable
// object file (spec.md §6.2).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/y16sys/y16asm/internal/assemble"
	"github.com/y16sys/y16asm/internal/diag"
	"github.com/y16sys/y16asm/internal/parser"
)

// Exit codes per spec §6.2: 0 OK, 1 syntax/semantic error, 2 file error.
const (
	exitOK      = 0
	exitAsmErr  = 1
	exitFileErr = 2
)

var outputPath string

var rootCmd = &cobra.Command{
	Use:   "y16asm <input.s>",
	Short: "Assemble Y16 source into a relocatable object file",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssemble,
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output object file path (required)")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if outputPath == "" {
		fmt.Fprintln(os.Stderr, "y16asm: -o output path is required")
		os.Exit(exitFileErr)
	}

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "y16asm: %v\n", err)
		os.Exit(exitFileErr)
	}

	sink := diag.NewStderr(nil)
	asm := assemble.New(sink)
	if err := asm.Run(string(source), inputPath, parser.Parse, outputPath); err != nil {
		if err == assemble.ErrHadError {
			os.Exit(exitAsmErr)
		}
		fmt.Fprintf(os.Stderr, "y16asm: %v\n", err)
		os.Exit(exitFileErr)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitFileErr)
	}
}
