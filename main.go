//go:build !(js || wasm)

package main

import (
	"os"

	"github.com/cottand/typeinfer/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "typeinfer [subcommand]",
	Short:        "typeinfer\n constraint-based type inference for a Python-like IR",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.InferCmd)
}
