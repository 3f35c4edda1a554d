package ctl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"
)

func newCreateTableCommand(stdout io.Writer) *cobra.Command {
	var partitionCount int
	cmd := &cobra.Command{
		Use:   "create-table NAME",
		Short: "Create a table with the given partition count.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := c.CreateTable(ctx, args[0], partitionCount); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "created table %q with %d partitions\n", args[0], partitionCount)
			return nil
		},
	}
	cmd.Flags().IntVar(&partitionCount, "partitions", 8, "number of partitions")
	return cmd
}

func newDropTableCommand(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop-table NAME",
		Short: "Drop a table.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := c.DropTable(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "dropped table %q\n", args[0])
			return nil
		},
	}
	return cmd
}

func newListTableCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list-table",
		Short: "List every table the meta service knows about.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			names, err := c.ListTable(ctx)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(stdout)
			t.AppendHeader(table.Row{"table"})
			for _, n := range names {
				t.AppendRow(table.Row{n})
			}
			t.Render()
			return nil
		},
	}
}

func newPullCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "pull TABLE",
		Short: "Refresh and print a table's topology.",
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
			fmt.Fprintf(stdout, "epoch: %d\n%s", c.Epoch(), dump)
			return nil
		},
	}
}

// parsePartitionID is shared by the partition-reassignment subcommands.
func parsePartitionID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid partition id %q: %w", s, err)
	}
	return id, nil
}
