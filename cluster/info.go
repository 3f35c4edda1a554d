package cluster

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
	"github.com/ZeroCry/zeppelin-gateway/status"
)

// InfoQps aggregates query-rate counters for table across every node that
// serves it. A node that can't be reached is skipped rather than failing
// the whole call; partial results are acceptable here.
func (c *Cluster) InfoQps(ctx context.Context, table string) (qps, totalQueries int64, err error) {
	if err := c.Pull(ctx, table); err != nil {
		return 0, 0, err
	}
	t, ok := c.clusterMap.Table(table)
	if !ok {
		return 0, 0, status.NewNotFound("this table does not exist")
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range t.Nodes() {
		n := n
		g.Go(func() error {
			req := &pb.DataRequest{Type: pb.DataType_INFOSTATS, Table: table}
			resp, err := c.transport.TryDataRPC(gctx, n, req)
			if err != nil {
				return nil
			}
			for _, e := range resp.InfoStats {
				if e.TableName == table {
					mu.Lock()
					qps += e.QPS
					totalQueries += e.TotalQuerys
					mu.Unlock()
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return qps, totalQueries, nil
}

// PartitionOffset is one partition's replication offset, as reported by a
// single data node.
type PartitionOffset struct {
	PartitionID int
	FileNum     uint64
	Offset      uint64
}

// InfoOffset returns table's per-partition replication offsets as
// reported by n directly (no fan-out: the caller names the node).
func (c *Cluster) InfoOffset(ctx context.Context, n node.Node, table string) ([]PartitionOffset, error) {
	if err := c.Pull(ctx, table); err != nil {
		return nil, err
	}
	req := &pb.DataRequest{Type: pb.DataType_INFOPARTITION, Table: table}
	resp, err := c.transport.TryDataRPC(ctx, n, req)
	if err != nil {
		return nil, status.NewIoError(err.Error())
	}
	var out []PartitionOffset
	for _, e := range resp.InfoPartition {
		if e.TableName != table {
			continue
		}
		for _, o := range e.SyncOffset {
			out = append(out, PartitionOffset{
				PartitionID: int(o.Partition),
				FileNum:     o.FileNum,
				Offset:      o.Offset,
			})
		}
		break
	}
	return out, nil
}

// NodeSpace is one data node's disk usage for a table.
type NodeSpace struct {
	Node   node.Node
	Used   uint64
	Remain uint64
}

// InfoSpace aggregates disk usage for table across every node that serves
// it, skipping unreachable nodes.
func (c *Cluster) InfoSpace(ctx context.Context, table string) ([]NodeSpace, error) {
	if err := c.Pull(ctx, table); err != nil {
		return nil, err
	}
	t, ok := c.clusterMap.Table(table)
	if !ok {
		return nil, status.NewNotFound("this table does not exist")
	}

	var mu sync.Mutex
	var out []NodeSpace
	g, gctx := errgroup.WithContext(ctx)
	for _, n := range t.Nodes() {
		n := n
		g.Go(func() error {
			req := &pb.DataRequest{Type: pb.DataType_INFOCAPACITY, Table: table}
			resp, err := c.transport.TryDataRPC(gctx, n, req)
			if err != nil {
				return nil
			}
			for _, e := range resp.InfoCapacity {
				if e.TableName == table {
					mu.Lock()
					out = append(out, NodeSpace{Node: n, Used: e.Used, Remain: e.Remain})
					mu.Unlock()
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}
