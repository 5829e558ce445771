package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tinscript/tinscript"
)

func newRunCmd() *cobra.Command {
	var maxInstructions int64

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "run a script file to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := tinscript.CreateContext(colorPrint, colorAssert,
				tinscript.WithMaxInstructionsPerUpdate(maxInstructions),
			)
			defer ctx.DestroyContext()

			if err := ctx.ExecScriptFile(args[0]); err != nil {
				return err
			}
			return driveScheduler(ctx)
		},
	}
	cmd.Flags().Int64Var(&maxInstructions, "max-instructions", 0, "abort a single update after this many instructions (0 = unlimited)")
	return cmd
}

// driveScheduler calls UpdateContext once per tick until the scheduler has
// no pending work left, per spec.md §5's "drive loop" description: a host
// with no event loop of its own (like this CLI) just ticks wall-clock time
// until there is nothing left to do.
func driveScheduler(ctx *tinscript.Context) error {
	for ctx.Scheduler.Len() > 0 {
		if err := ctx.UpdateContext(time.Now().UnixMilli()); err != nil {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
