// Command tinscript is a thin driver over the tinscript runtime: run a
// script file to completion, execute one inline source snippet, or run a
// file while accepting a single inbound remote-debugger connection.
//
// This is deliberately a non-core wrapper (spec.md §1 "the CLI is not part
// of the core runtime") -- everything here could be rebuilt by any host
// embedding package tinscript directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tinscript",
		Short: "run and debug TinScript sources",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newExecCmd())
	root.AddCommand(newDebugListenCmd())
	return root
}
