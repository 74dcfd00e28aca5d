package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bminor/internal/interp"
	"bminor/internal/sema"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Interpret a B-Minor file and run its main function",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, args []string) error {
	prog, bag, name, err := parseSource(args)
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		fmt.Print(bag.String())
		return fmt.Errorf("parsing failed with %d error(s)", bag.Count())
	}

	sema.Analyze(prog, bag)
	if bag.HasErrors() {
		fmt.Print(bag.String())
		return fmt.Errorf("semantic analysis failed with %d error(s)", bag.Count())
	}

	log.Debug().Str("file", name).Msg("running")
	it := interp.New(os.Stdout, os.Stdin)
	if _, err := it.Run(prog); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}
