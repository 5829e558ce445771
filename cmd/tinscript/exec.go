package main

import (
	"github.com/spf13/cobra"

	"github.com/tinscript/tinscript"
)

func newExecCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "execute one inline source snippet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := tinscript.CreateContext(colorPrint, colorAssert)
			defer ctx.DestroyContext()
			return ctx.ExecCommand(source)
		},
	}
	cmd.Flags().StringVarP(&source, "expr", "e", "", "source snippet to execute")
	cmd.MarkFlagRequired("expr")
	return cmd
}
