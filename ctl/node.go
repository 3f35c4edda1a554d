package ctl

import (
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/spf13/cobra"
)

func newListNodeCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list-node",
		Short: "List every data node the meta service knows about, with up/down status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			nodes, err := c.ListNode(ctx)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(stdout)
			t.AppendHeader(table.Row{"node", "down"})
			for _, n := range nodes {
				t.AppendRow(table.Row{n.Node.String(), n.Down})
			}
			t.Render()
			return nil
		},
	}
}

func newListMetaCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list-meta",
		Short: "Print the current meta leader and its followers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			ctx, cancel := commandContext(cmd)
			defer cancel()
			leader, followers, err := c.ListMeta(ctx)
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(stdout)
			t.AppendHeader(table.Row{"role", "node"})
			t.AppendRow(table.Row{"leader", leader.String()})
			for _, f := range followers {
				t.AppendRow(table.Row{"follower", f.String()})
			}
			t.Render()
			return nil
		},
	}
}
