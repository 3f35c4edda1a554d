package cluster

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cespare/xxhash"
	"github.com/stretchr/testify/require"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
	"github.com/ZeroCry/zeppelin-gateway/status"
)

// nodeInfo converts a node.Node into its wire form.
func nodeInfo(n node.Node) *pb.NodeInfo {
	return &pb.NodeInfo{IP: n.IP, Port: int32(n.Port)}
}

// singlePartitionTable builds a one-partition table snapshot with master.
func singlePartitionTable(name string, master node.Node) *pb.TableInfo {
	return &pb.TableInfo{
		Name: name,
		Partitions: []pb.PartitionInfo{
			{Id: 0, Master: nodeInfo(master)},
		},
	}
}

// partitionKeyFor finds a key string (from a small deterministic pool)
// whose KeyPartitionID within a table of partitionCount partitions equals
// wantID. Used to force Mget fan-out across specific masters without
// depending on internal hashing beyond the documented mod-partition-count
// contract.
func partitionKeyFor(partitionCount uint64, wantID uint64) string {
	for i := 0; ; i++ {
		key := "k" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		if xxhash.Sum64String(key)%partitionCount == wantID {
			return key
		}
	}
}

// kvStore is a trivial thread-safe map backing a fake data node.
type kvStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newKVStore() *kvStore { return &kvStore{data: make(map[string]string)} }

func (s *kvStore) handle(ctx context.Context, req *pb.DataRequest) (*pb.DataResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.Type {
	case pb.DataType_SET:
		s.data[req.Key] = req.Value
		return &pb.DataResponse{Code: pb.DataStatusCode_kOk}, nil
	case pb.DataType_GET:
		v, ok := s.data[req.Key]
		if !ok {
			return &pb.DataResponse{Code: pb.DataStatusCode_kNotFound}, nil
		}
		return &pb.DataResponse{Code: pb.DataStatusCode_kOk, GetValue: v}, nil
	case pb.DataType_DEL:
		delete(s.data, req.Key)
		return &pb.DataResponse{Code: pb.DataStatusCode_kOk}, nil
	case pb.DataType_MGET:
		resp := &pb.DataResponse{Code: pb.DataStatusCode_kOk}
		for _, k := range req.Keys {
			if v, ok := s.data[k]; ok {
				resp.Mget = append(resp.Mget, pb.KV{Key: k, Value: v})
			}
		}
		return resp, nil
	case pb.DataType_INFOSTATS:
		return &pb.DataResponse{
			Code:      pb.DataStatusCode_kOk,
			InfoStats: []pb.InfoStatsEntry{{TableName: req.Table, QPS: 7, TotalQuerys: 42}},
		}, nil
	case pb.DataType_INFOPARTITION:
		return &pb.DataResponse{
			Code: pb.DataStatusCode_kOk,
			InfoPartition: []pb.InfoPartitionEntry{{
				TableName:  req.Table,
				SyncOffset: []pb.BinlogOffset{{Partition: 0, FileNum: 1, Offset: 100}},
			}},
		}, nil
	case pb.DataType_INFOCAPACITY:
		return &pb.DataResponse{
			Code:         pb.DataStatusCode_kOk,
			InfoCapacity: []pb.InfoCapacityEntry{{TableName: req.Table, Used: 1024, Remain: 2048}},
		}, nil
	default:
		return &pb.DataResponse{Code: pb.DataStatusCode_kError, Msg: "unhandled type"}, nil
	}
}

// alwaysErrorData simulates a node that no longer owns a partition: every
// request fails with kError, as the real server would once a partition
// has moved off it.
func alwaysErrorData(ctx context.Context, req *pb.DataRequest) (*pb.DataResponse, error) {
	return &pb.DataResponse{Code: pb.DataStatusCode_kError, Msg: "not master"}, nil
}

func newTestCluster(t *testing.T, fc *fakeCluster, metaAddrs []node.Node) *Cluster {
	c, err := New(metaAddrs,
		WithConnectTimeout(300*time.Millisecond),
		WithDialOptions(fc.dialOption()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
		fc.stopAll()
	})
	return c
}

func TestCluster_CreateTableSetGet(t *testing.T) {
	fc := newFakeCluster()
	store := newKVStore()
	var dataAddr node.Node

	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		switch req.Type {
		case pb.MetaType_INIT:
			return &pb.MetaResponse{Code: pb.MetaStatusCode_OK}, nil
		case pb.MetaType_PULL:
			return &pb.MetaResponse{
				Code:        pb.MetaStatusCode_OK,
				PullVersion: 1,
				PullInfo:    []pb.TableInfo{*singlePartitionTable(req.PullName, dataAddr)},
			}, nil
		}
		return &pb.MetaResponse{Code: pb.MetaStatusCode_ERROR, Msg: "unexpected"}, nil
	}, nil)
	dataAddr = fc.addNode(nil, store.handle)

	c := newTestCluster(t, fc, []node.Node{metaAddr})

	ctx := context.Background()
	require.NoError(t, c.CreateTable(ctx, "orders", 1))
	require.NoError(t, c.Set(ctx, "orders", "k1", "v1", -1))

	v, err := c.Get(ctx, "orders", "k1")
	require.NoError(t, err)
	require.Equal(t, "v1", v)
}

func TestCluster_Get_NotFound(t *testing.T) {
	fc := newFakeCluster()
	store := newKVStore()
	var dataAddr node.Node

	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		return &pb.MetaResponse{
			Code:        pb.MetaStatusCode_OK,
			PullVersion: 1,
			PullInfo:    []pb.TableInfo{*singlePartitionTable(req.PullName, dataAddr)},
		}, nil
	}, nil)
	dataAddr = fc.addNode(nil, store.handle)

	c := newTestCluster(t, fc, []node.Node{metaAddr})

	_, err := c.Get(context.Background(), "orders", "missing")
	require.Error(t, err)
	require.True(t, status.FromError(err).IsNotFound())
}

func TestCluster_Get_StaleRoutingRetriesExactlyOncePull(t *testing.T) {
	fc := newFakeCluster()
	store := newKVStore()
	store.data["k"] = "real-value"

	var staleAddr, freshAddr node.Node
	var pullCount int32
	var mu sync.Mutex

	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		mu.Lock()
		pullCount++
		n := pullCount
		mu.Unlock()
		master := staleAddr
		if n > 1 {
			master = freshAddr
		}
		return &pb.MetaResponse{
			Code:        pb.MetaStatusCode_OK,
			PullVersion: uint64(n),
			PullInfo:    []pb.TableInfo{*singlePartitionTable(req.PullName, master)},
		}, nil
	}, nil)
	staleAddr = fc.addNode(nil, alwaysErrorData)
	freshAddr = fc.addNode(nil, store.handle)

	c := newTestCluster(t, fc, []node.Node{metaAddr})

	// Prime the topology cache so the Get below starts out routed at the
	// stale master, the way a long-lived client would.
	require.NoError(t, c.Pull(context.Background(), "orders"))

	v, err := c.Get(context.Background(), "orders", "k")
	require.NoError(t, err)
	require.Equal(t, "real-value", v)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, int32(2), pullCount, "exactly one refresh-and-retry: initial Pull plus the stale-routing retry")
}

func TestCluster_Mget_AcrossTwoMasters(t *testing.T) {
	fc := newFakeCluster()
	storeA := newKVStore()
	storeB := newKVStore()
	var masterA, masterB node.Node

	const partitions = 4
	keyA := partitionKeyFor(partitions, 0)
	keyB := partitionKeyFor(partitions, 2)
	storeA.data[keyA] = "value-a"
	storeB.data[keyB] = "value-b"

	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		return &pb.MetaResponse{
			Code:        pb.MetaStatusCode_OK,
			PullVersion: 1,
			PullInfo: []pb.TableInfo{{
				Name: req.PullName,
				Partitions: []pb.PartitionInfo{
					{Id: 0, Master: nodeInfo(masterA)},
					{Id: 1, Master: nodeInfo(masterA)},
					{Id: 2, Master: nodeInfo(masterB)},
					{Id: 3, Master: nodeInfo(masterB)},
				},
			}},
		}, nil
	}, nil)
	masterA = fc.addNode(nil, storeA.handle)
	masterB = fc.addNode(nil, storeB.handle)

	c := newTestCluster(t, fc, []node.Node{metaAddr})

	values, err := c.Mget(context.Background(), "orders", []string{keyA, keyB, "missing-key"})
	require.NoError(t, err)
	require.Equal(t, "value-a", values[keyA])
	require.Equal(t, "value-b", values[keyB])
	require.NotContains(t, values, "missing-key")
}

func TestCluster_Mget_EmptyKeysReturnsEmptyMapNoError(t *testing.T) {
	fc := newFakeCluster()
	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		t.Fatal("Mget with zero keys must not touch the meta service")
		return nil, nil
	}, nil)

	c := newTestCluster(t, fc, []node.Node{metaAddr})

	values, err := c.Mget(context.Background(), "orders", nil)
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestCluster_Get_UnknownTableStaysNotFoundAfterRefresh(t *testing.T) {
	fc := newFakeCluster()
	// The meta service answers Pull but has no topology for the table, so
	// the refresh doesn't add it and the routing miss must surface as
	// NotFound, not as a transport error.
	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		return &pb.MetaResponse{Code: pb.MetaStatusCode_OK, PullVersion: 1}, nil
	}, nil)

	c := newTestCluster(t, fc, []node.Node{metaAddr})

	_, err := c.Get(context.Background(), "no-such-table", "k")
	require.Error(t, err)
	require.True(t, status.FromError(err).IsNotFound())
	require.Contains(t, err.Error(), "table does not exist")
}

func TestCluster_InvalidArguments(t *testing.T) {
	fc := newFakeCluster()
	// Never registered: argument validation must reject these calls before
	// anything is dialed.
	metaAddr := node.Node{IP: "127.0.0.1", Port: 18999}
	c := newTestCluster(t, fc, []node.Node{metaAddr})
	ctx := context.Background()

	err := c.Set(ctx, "", "k", "v", -1)
	require.Equal(t, status.InvalidArgument, status.FromError(err).Code())

	_, err = c.Mget(ctx, "", []string{"k"})
	require.Equal(t, status.InvalidArgument, status.FromError(err).Code())

	err = c.CreateTable(ctx, "", 8)
	require.Equal(t, status.InvalidArgument, status.FromError(err).Code())

	err = c.CreateTable(ctx, "orders", 0)
	require.Equal(t, status.InvalidArgument, status.FromError(err).Code())
}

func TestCluster_Connect_FailsOverAcrossMetaAddresses(t *testing.T) {
	fc := newFakeCluster()
	goodMeta := fc.addNode(nil, nil)
	badMeta := node.Node{IP: "127.0.0.1", Port: 19999} // never registered: every dial fails

	c := newTestCluster(t, fc, []node.Node{badMeta, goodMeta})
	require.NoError(t, c.Connect())
}

func TestCluster_ListTable_ListNode_ListMeta(t *testing.T) {
	fc := newFakeCluster()
	leader := node.Node{IP: "127.0.0.1", Port: 21001}
	follower := node.Node{IP: "127.0.0.1", Port: 21002}
	dataNode := node.Node{IP: "127.0.0.1", Port: 21003}

	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		switch req.Type {
		case pb.MetaType_LISTTABLE:
			return &pb.MetaResponse{Code: pb.MetaStatusCode_OK, ListTable: []string{"orders", "users"}}, nil
		case pb.MetaType_LISTNODE:
			return &pb.MetaResponse{Code: pb.MetaStatusCode_OK, ListNode: []pb.NodeStatusEntry{
				{Node: *nodeInfo(dataNode), Down: false},
			}}, nil
		case pb.MetaType_LISTMETA:
			return &pb.MetaResponse{Code: pb.MetaStatusCode_OK, ListMeta: &pb.MetaNodes{
				Leader:    *nodeInfo(leader),
				Followers: []pb.NodeInfo{*nodeInfo(follower)},
			}}, nil
		}
		return &pb.MetaResponse{Code: pb.MetaStatusCode_ERROR}, nil
	}, nil)

	c := newTestCluster(t, fc, []node.Node{metaAddr})
	ctx := context.Background()

	tables, err := c.ListTable(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"orders", "users"}, tables)

	nodes, err := c.ListNode(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, dataNode, nodes[0].Node)
	require.False(t, nodes[0].Down)

	gotLeader, followers, err := c.ListMeta(ctx)
	require.NoError(t, err)
	require.Equal(t, leader, gotLeader)
	require.Equal(t, []node.Node{follower}, followers)
}

func TestCluster_SetMaster_AddSlave_RemoveSlave(t *testing.T) {
	fc := newFakeCluster()
	var seen []pb.MetaType
	newMaster := node.Node{IP: "127.0.0.1", Port: 22001}

	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		seen = append(seen, req.Type)
		return &pb.MetaResponse{Code: pb.MetaStatusCode_OK}, nil
	}, nil)

	c := newTestCluster(t, fc, []node.Node{metaAddr})
	ctx := context.Background()

	require.NoError(t, c.SetMaster(ctx, "orders", 0, newMaster))
	require.NoError(t, c.AddSlave(ctx, "orders", 0, newMaster))
	require.NoError(t, c.RemoveSlave(ctx, "orders", 0, newMaster))
	require.Equal(t, []pb.MetaType{pb.MetaType_SETMASTER, pb.MetaType_ADDSLAVE, pb.MetaType_REMOVESLAVE}, seen)
}

func TestCluster_InfoQps_InfoSpace_InfoOffset(t *testing.T) {
	fc := newFakeCluster()
	store := newKVStore()
	var dataAddr node.Node

	metaAddr := fc.addNode(func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
		return &pb.MetaResponse{
			Code:        pb.MetaStatusCode_OK,
			PullVersion: 1,
			PullInfo:    []pb.TableInfo{*singlePartitionTable(req.PullName, dataAddr)},
		}, nil
	}, nil)
	dataAddr = fc.addNode(nil, store.handle)

	c := newTestCluster(t, fc, []node.Node{metaAddr})
	ctx := context.Background()

	qps, total, err := c.InfoQps(ctx, "orders")
	require.NoError(t, err)
	require.Equal(t, int64(7), qps)
	require.Equal(t, int64(42), total)

	space, err := c.InfoSpace(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, space, 1)
	require.Equal(t, uint64(1024), space[0].Used)

	offsets, err := c.InfoOffset(ctx, dataAddr, "orders")
	require.NoError(t, err)
	require.Len(t, offsets, 1)
	require.Equal(t, uint64(100), offsets[0].Offset)
}
