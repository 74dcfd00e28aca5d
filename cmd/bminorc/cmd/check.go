package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bminor/internal/sema"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse and semantically analyze a B-Minor file, reporting diagnostics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, args []string) error {
	prog, bag, name, err := parseSource(args)
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		fmt.Print(bag.String())
		return fmt.Errorf("parsing failed with %d error(s)", bag.Count())
	}

	sema.Analyze(prog, bag)
	log.Debug().Str("file", name).Int("diagnostics", bag.Count()).Msg("analyzed")
	if bag.HasErrors() {
		fmt.Print(bag.String())
		return fmt.Errorf("semantic analysis failed with %d error(s)", bag.Count())
	}
	fmt.Printf("%s: ok\n", name)
	return nil
}
