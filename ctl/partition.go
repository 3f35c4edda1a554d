package ctl

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZeroCry/zeppelin-gateway/cluster"
	"github.com/ZeroCry/zeppelin-gateway/node"
)

func newSetMasterCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "set-master TABLE PARTITION NODE",
		Short: "Reassign a partition's master.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reassign(cmd, stdout, "master set to", args,
				func(c *cluster.Cluster, ctx context.Context, table string, id int, n node.Node) error {
					return c.SetMaster(ctx, table, id, n)
				})
		},
	}
}

func newAddSlaveCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "add-slave TABLE PARTITION NODE",
		Short: "Add a replica to a partition.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reassign(cmd, stdout, "slave added to", args,
				func(c *cluster.Cluster, ctx context.Context, table string, id int, n node.Node) error {
					return c.AddSlave(ctx, table, id, n)
				})
		},
	}
}

func newRemoveSlaveCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-slave TABLE PARTITION NODE",
		Short: "Remove a replica from a partition.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return reassign(cmd, stdout, "slave removed from", args,
				func(c *cluster.Cluster, ctx context.Context, table string, id int, n node.Node) error {
					return c.RemoveSlave(ctx, table, id, n)
				})
		},
	}
}

// reassign is the shared body of the three partition-reassignment
// subcommands: parse (table, partition, node), dial, call, report.
func reassign(cmd *cobra.Command, stdout io.Writer, verb string, args []string, call func(*cluster.Cluster, context.Context, string, int, node.Node) error) error {
	table := args[0]
	id, err := parsePartitionID(args[1])
	if err != nil {
		return err
	}
	n, err := node.Parse(args[2])
	if err != nil {
		return fmt.Errorf("parsing node address %q: %w", args[2], err)
	}
	c, err := dial(cmd)
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := call(c, ctx, table, id, n); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %s partition %d (%s)\n", table, verb, id, n)
	return nil
}
