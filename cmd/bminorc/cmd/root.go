package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// log is the process-wide structured logger, configured in initLogger once
// the --verbose flag has been parsed. Every subcommand logs through it
// rather than writing to stderr directly.
var log zerolog.Logger

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bminorc",
	Short: "B-Minor compiler and interpreter",
	Long: `bminorc lexes, parses, type-checks, interprets, and compiles B-Minor
source to LLVM IR.

B-Minor is a small statically typed imperative language: integers, floats,
booleans, chars, strings, fixed-size arrays, functions, and structured
control flow.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each pipeline stage to stderr")
}

func initLogger() {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// readSource loads B-Minor source from the single positional file argument,
// or from stdin when none is given.
func readSource(args []string) (src, name string, err error) {
	if len(args) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), "<stdin>", nil
	}
	name = args[0]
	b, err := os.ReadFile(name)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(b), name, nil
}
