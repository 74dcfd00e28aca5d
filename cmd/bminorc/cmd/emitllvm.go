package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"bminor/internal/irgen"
	"bminor/internal/sema"
)

var emitOut string

var emitLLVMCmd = &cobra.Command{
	Use:   "emit-llvm [file]",
	Short: "Compile a B-Minor file to textual LLVM IR",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEmitLLVM,
}

func init() {
	rootCmd.AddCommand(emitLLVMCmd)
	emitLLVMCmd.Flags().StringVarP(&emitOut, "output", "o", "", "write IR to this file instead of stdout")
}

func runEmitLLVM(_ *cobra.Command, args []string) error {
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

	ir, err := irgen.Emit(prog, name)
	if err != nil {
		return errors.Wrap(err, "lowering to LLVM IR")
	}
	log.Debug().Str("file", name).Int("bytes", len(ir)).Msg("emitted LLVM IR")

	if emitOut == "" {
		fmt.Print(ir)
		return nil
	}
	if err := os.WriteFile(emitOut, []byte(ir), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", emitOut)
	}
	return nil
}
