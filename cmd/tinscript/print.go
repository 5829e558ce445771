package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/tinscript/tinscript/vm"
)

// colorPrint renders a script Print() call with the severity-appropriate
// color, the default print_fn for every subcommand here (a host embedding
// the runtime directly would supply its own).
func colorPrint(severity, message string) {
	switch severity {
	case "error":
		color.New(color.FgRed, color.Bold).Fprintln(color.Output, message)
	case "warn":
		color.New(color.FgYellow).Fprintln(color.Output, message)
	default:
		fmt.Println(message)
	}
}

// colorAssert renders a failed script assert() in red and always unwinds;
// an embedding host wanting skip/break/abort policy differences would
// supply its own vm.AssertFunc instead.
func colorAssert(message string) vm.AssertDisposition {
	color.New(color.FgRed, color.Bold).Fprintf(color.Output, "assert: %s\n", message)
	return vm.AssertUnwind
}
