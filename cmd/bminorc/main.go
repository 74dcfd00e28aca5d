// Command bminorc is the B-Minor driver: lexer/parser/analyzer inspection
// subcommands plus emit-llvm and run, grounded on the cobra-based CLI
// layout of the dwscript driver in the example pack.
package main

import (
	"os"

	"bminor/cmd/bminorc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
