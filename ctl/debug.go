package ctl

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZeroCry/zeppelin-gateway/hash"
)

func newDebugCommand(stdout io.Writer) *cobra.Command {
	debug := &cobra.Command{
		Use:   "debug",
		Short: "Debug and diagnostic tooling.",
	}
	debug.AddCommand(newDumpTableCommand(stdout))
	return debug
}

func newDumpTableCommand(stdout io.Writer) *cobra.Command {
	var checksum bool
	cmd := &cobra.Command{
		Use:   "dump-table TABLE",
		Short: "Pull and print a table's topology, optionally with a checksum of the dump.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := c.Pull(ctx, args[0]); err != nil {
				return err
			}
			dump, err := c.DebugDumpTable(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(stdout, dump)
			if checksum {
				fmt.Fprintf(stdout, "checksum: %s\n", hash.Sum16([]byte(dump)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checksum, "checksum", false, "print a BLAKE3 checksum of the dump, so two operators can confirm they see the same snapshot")
	return cmd
}
