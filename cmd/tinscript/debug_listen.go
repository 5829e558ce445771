package main

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/tinscript/tinscript"
)

func newDebugListenCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "debug-listen <file>",
		Short: "run a script file while accepting one inbound remote-debugger connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := tinscript.CreateContext(colorPrint, colorAssert, tinscript.WithDebugListener(true))
			defer ctx.DestroyContext()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("debug-listen: %w", err)
			}
			defer ln.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "debugger listening on %s\n", ln.Addr())

			conn, err := ln.Accept()
			if err != nil {
				return fmt.Errorf("debug-listen: accept: %w", err)
			}
			defer conn.Close()

			serveErr := make(chan error, 1)
			go func() { serveErr <- ctx.Debugger.Serve(context.Background(), conn, conn) }()

			if err := ctx.ExecScriptFile(args[0]); err != nil {
				return err
			}
			if err := driveScheduler(ctx); err != nil {
				return err
			}
			conn.Close()
			return <-serveErr
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:0", "address to listen on for the debugger connection")
	return cmd
}
