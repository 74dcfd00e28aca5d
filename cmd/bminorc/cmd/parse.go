package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bminor/internal/ast"
	"bminor/internal/diag"
	"bminor/internal/lexer"
	"bminor/internal/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a B-Minor file and pretty-print the resulting AST",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func parseSource(args []string) (*ast.Program, *diag.Bag, string, error) {
	src, name, err := readSource(args)
	if err != nil {
		return nil, nil, "", err
	}
	bag := diag.New()
	toks := lexer.Tokenize(src, bag)
	if bag.HasErrors() {
		return nil, bag, name, nil
	}
	prog := parser.Parse(toks, bag)
	return prog, bag, name, nil
}

func runParse(_ *cobra.Command, args []string) error {
	prog, bag, name, err := parseSource(args)
	if err != nil {
		return err
	}
	log.Debug().Str("file", name).Msg("parsed")
	if bag.HasErrors() {
		fmt.Print(bag.String())
		return fmt.Errorf("parsing failed with %d error(s)", bag.Count())
	}
	fmt.Print(ast.Print(prog))
	return nil
}
