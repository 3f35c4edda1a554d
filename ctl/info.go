package ctl

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"

	"github.com/ZeroCry/zeppelin-gateway/node"
)

func newInfoQpsCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "info-qps TABLE",
		Short: "Print aggregate query rate for a table across every node serving it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			qps, total, err := c.InfoQps(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "qps=%d total_queries=%d\n", qps, total)
			return nil
		},
	}
}

func newInfoOffsetCommand(stdout io.Writer) *cobra.Command {
	var nodeAddr node.Node
	cmd := &cobra.Command{
		Use:   "info-offset TABLE",
		Short: "Print a table's per-partition replication offsets, as reported by one node.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			offsets, err := c.InfoOffset(ctx, nodeAddr, args[0])
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(stdout)
			t.AppendHeader(table.Row{"partition", "file_num", "offset"})
			for _, o := range offsets {
				t.AppendRow(table.Row{o.PartitionID, o.FileNum, o.Offset})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().Var(&nodeAddr, "node", "data node to query (ip:port), required")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}

func newInfoSpaceCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "info-space TABLE",
		Short: "Print per-node disk usage for a table.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			spaces, err := c.InfoSpace(ctx, args[0])
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(stdout)
			t.AppendHeader(table.Row{"node", "used", "remain"})
			for _, s := range spaces {
				t.AppendRow(table.Row{s.Node.String(), s.Used, s.Remain})
			}
			t.Render()
			return nil
		},
	}
}
