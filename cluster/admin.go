package cluster

import (
	"context"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
	"github.com/ZeroCry/zeppelin-gateway/status"
)

// submitMetaCmd sends req and maps a non-Ok meta status to Corruption; it
// does not itself retry beyond what transport.TryMetaRPC already does.
func (c *Cluster) submitMetaCmd(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
	resp, err := c.transport.TryMetaRPC(ctx, req)
	if err != nil {
		return nil, status.NewIoError(err.Error())
	}
	if resp.Code != pb.MetaStatusCode_OK {
		return resp, status.NewCorruption(resp.Msg)
	}
	return resp, nil
}

// CreateTable asks the meta service to create a table with the given
// number of partitions.
func (c *Cluster) CreateTable(ctx context.Context, tableName string, partitionCount int) error {
	if tableName == "" {
		return status.NewInvalidArgument("empty table name")
	}
	if partitionCount <= 0 {
		return status.NewInvalidArgument("partition count must be positive")
	}
	req := &pb.MetaRequest{Type: pb.MetaType_INIT, InitName: tableName, InitNum: int32(partitionCount)}
	_, err := c.submitMetaCmd(ctx, req)
	return err
}

// DropTable asks the meta service to drop a table.
func (c *Cluster) DropTable(ctx context.Context, tableName string) error {
	req := &pb.MetaRequest{Type: pb.MetaType_DROPTABLE, DropName: tableName}
	_, err := c.submitMetaCmd(ctx, req)
	return err
}

func basicCmdUnit(tableName string, partitionID int, n node.Node) *pb.BasicCmdUnit {
	return &pb.BasicCmdUnit{
		Name:      tableName,
		Partition: int32(partitionID),
		Node:      &pb.NodeInfo{IP: n.IP, Port: int32(n.Port)},
	}
}

// SetMaster reassigns the master of one partition.
func (c *Cluster) SetMaster(ctx context.Context, tableName string, partitionID int, n node.Node) error {
	req := &pb.MetaRequest{Type: pb.MetaType_SETMASTER, SetMaster: basicCmdUnit(tableName, partitionID, n)}
	_, err := c.submitMetaCmd(ctx, req)
	return err
}

// AddSlave adds a replica to one partition.
func (c *Cluster) AddSlave(ctx context.Context, tableName string, partitionID int, n node.Node) error {
	req := &pb.MetaRequest{Type: pb.MetaType_ADDSLAVE, AddSlave: basicCmdUnit(tableName, partitionID, n)}
	_, err := c.submitMetaCmd(ctx, req)
	return err
}

// RemoveSlave removes a replica from one partition.
func (c *Cluster) RemoveSlave(ctx context.Context, tableName string, partitionID int, n node.Node) error {
	req := &pb.MetaRequest{Type: pb.MetaType_REMOVESLAVE, RemoveSlave: basicCmdUnit(tableName, partitionID, n)}
	_, err := c.submitMetaCmd(ctx, req)
	return err
}

// ListMeta returns the current meta leader and its followers.
func (c *Cluster) ListMeta(ctx context.Context) (leader node.Node, followers []node.Node, err error) {
	req := &pb.MetaRequest{Type: pb.MetaType_LISTMETA}
	resp, err := c.submitMetaCmd(ctx, req)
	if err != nil {
		return node.Node{}, nil, err
	}
	if resp.ListMeta == nil {
		return node.Node{}, nil, nil
	}
	leader = node.Node{IP: resp.ListMeta.Leader.IP, Port: uint16(resp.ListMeta.Leader.Port)}
	for _, f := range resp.ListMeta.Followers {
		followers = append(followers, node.Node{IP: f.IP, Port: uint16(f.Port)})
	}
	return leader, followers, nil
}

// NodeStatus pairs a data node with whether the meta service currently
// considers it down.
type NodeStatus struct {
	Node node.Node
	Down bool
}

// ListNode returns every data node the meta service knows about, with its
// current up/down status.
func (c *Cluster) ListNode(ctx context.Context) ([]NodeStatus, error) {
	req := &pb.MetaRequest{Type: pb.MetaType_LISTNODE}
	resp, err := c.submitMetaCmd(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]NodeStatus, 0, len(resp.ListNode))
	for _, e := range resp.ListNode {
		out = append(out, NodeStatus{
			Node: node.Node{IP: e.Node.IP, Port: uint16(e.Node.Port)},
			Down: e.Down,
		})
	}
	return out, nil
}

// ListTable returns every table name the meta service knows about.
func (c *Cluster) ListTable(ctx context.Context) ([]string, error) {
	req := &pb.MetaRequest{Type: pb.MetaType_LISTTABLE}
	resp, err := c.submitMetaCmd(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.ListTable, nil
}
