package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bminor/internal/diag"
	"bminor/internal/lexer"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Tokenize a B-Minor file and print the resulting tokens",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(_ *cobra.Command, args []string) error {
	src, name, err := readSource(args)
	if err != nil {
		return err
	}

	bag := diag.New()
	toks := lexer.Tokenize(src, bag)
	log.Debug().Str("file", name).Int("count", len(toks)).Msg("lexed")

	for _, t := range toks {
		fmt.Printf("%-4d:%-3d %-10s %q\n", t.Line, t.Col, t.Kind, t.Lexeme)
	}
	if bag.HasErrors() {
		fmt.Print(bag.String())
		return fmt.Errorf("lexing failed with %d error(s)", bag.Count())
	}
	return nil
}
