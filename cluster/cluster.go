// Package cluster implements the public coordinator: it owns the meta and
// data transports, the cached table topology, and every routing, retry,
// and fan-out protocol a caller needs to talk to a sharded, replicated
// key/value cluster.
package cluster

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/ZeroCry/zeppelin-gateway/logger"
	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
	"github.com/ZeroCry/zeppelin-gateway/stats"
	"github.com/ZeroCry/zeppelin-gateway/status"
	"github.com/ZeroCry/zeppelin-gateway/topology"
	"github.com/ZeroCry/zeppelin-gateway/transport"
)

// Cluster is a connected view of the cluster: a cached topology plus the
// transport needed to keep it current and to route requests through it.
// Safe for concurrent use; the zero value is not usable, construct with
// New or NewSingle.
type Cluster struct {
	transport  *transport.Transport
	clusterMap *topology.ClusterMap
	log        logger.Logger
	stats      stats.StatsClient

	workersMu sync.Mutex
	workers   map[node.Node]*dataWorker
	wg        sync.WaitGroup

	watchInterval time.Duration
	watchDone     chan struct{}
	closeOnce     sync.Once
}

type options struct {
	logger         logger.Logger
	stats          stats.StatsClient
	connectTimeout time.Duration
	watchInterval  time.Duration
	dialOpts       []grpc.DialOption
}

func defaultOptions() *options {
	return &options{
		logger:         logger.NopLogger,
		stats:          stats.NopStatsClient,
		connectTimeout: 5 * time.Second,
		watchInterval:  30 * time.Second,
	}
}

// Option configures a Cluster at construction time.
type Option func(*options)

// WithLogger overrides the default nop logger.
func WithLogger(l logger.Logger) Option { return func(o *options) { o.logger = l } }

// WithStats overrides the default nop stats client.
func WithStats(s stats.StatsClient) Option { return func(o *options) { o.stats = s } }

// WithConnectTimeout overrides the default per-dial timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// WithTopologyWatchInterval overrides how often the background topology
// watch spot-checks the cached epoch (see runTopologyWatch).
func WithTopologyWatchInterval(d time.Duration) Option {
	return func(o *options) { o.watchInterval = d }
}

// WithDialOptions appends extra grpc.DialOption values to every dial the
// underlying transport makes, e.g. a bufconn-backed grpc.WithContextDialer
// in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOpts = append(o.dialOpts, opts...) }
}

// New builds a Cluster for the given meta-service addresses without
// dialing any of them; Connect checks reachability. metaAddrs must be
// non-empty.
func New(metaAddrs []node.Node, opts ...Option) (*Cluster, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	t, err := transport.New(metaAddrs,
		transport.WithLogger(o.logger.WithPrefix("transport:")),
		transport.WithStats(o.stats),
		transport.WithConnectTimeout(o.connectTimeout),
		transport.WithDialOptions(o.dialOpts...),
	)
	if err != nil {
		return nil, err
	}
	c := &Cluster{
		transport:     t,
		clusterMap:    topology.NewClusterMap(),
		log:           o.logger,
		stats:         o.stats,
		workers:       make(map[node.Node]*dataWorker),
		watchInterval: o.watchInterval,
		watchDone:     make(chan struct{}),
	}
	c.wg.Add(1)
	go c.runTopologyWatch()
	return c, nil
}

// NewSingle is a convenience constructor for a single meta address.
func NewSingle(ip string, port int, opts ...Option) (*Cluster, error) {
	n, err := node.New(ip, port)
	if err != nil {
		return nil, err
	}
	return New([]node.Node{n}, opts...)
}

// Connect verifies that at least one meta address is reachable.
func (c *Cluster) Connect() error {
	_, _, err := c.transport.GetMetaChannel()
	if err != nil {
		return status.NewIoError(err.Error())
	}
	return nil
}

// Pull refreshes the cached topology for table from the meta service and
// installs it atomically, bumping the topology epoch.
func (c *Cluster) Pull(ctx context.Context, table string) error {
	start := time.Now()
	c.stats.Count("cluster.pull", 1, 1)
	req := &pb.MetaRequest{Type: pb.MetaType_PULL, PullName: table}
	resp, err := c.transport.TryMetaRPC(ctx, req)
	if err != nil {
		c.stats.Count("cluster.pull_failed", 1, 1)
		return status.NewIoError(err.Error())
	}
	if resp.Code != pb.MetaStatusCode_OK {
		c.stats.Count("cluster.pull_failed", 1, 1)
		return status.NewCorruption(resp.Msg)
	}
	for i := range resp.PullInfo {
		tbl, err := topology.FromMeta(&resp.PullInfo[i])
		if err != nil {
			c.stats.Count("cluster.pull_failed", 1, 1)
			return status.NewCorruption(err.Error())
		}
		c.clusterMap.ResetTable(resp.PullVersion, tbl)
	}
	c.log.Debugf("pulled %q, epoch now %d", table, c.clusterMap.Epoch())
	c.stats.Timing("cluster.pull.duration", time.Since(start), 1)
	return nil
}

// GetPartition returns the partition owning key within table, using only
// the locally cached topology (no refresh).
func (c *Cluster) GetPartition(table, key string) (topology.Partition, bool) {
	t, ok := c.clusterMap.Table(table)
	if !ok {
		return topology.Partition{}, false
	}
	return t.GetPartition(key), true
}

// DebugDumpTable renders the cached topology for table.
func (c *Cluster) DebugDumpTable(table string) (string, error) {
	t, ok := c.clusterMap.Table(table)
	if !ok {
		return "", status.NewNotFound("don't have this table's info")
	}
	return t.DebugDump(), nil
}

// Epoch returns the current topology epoch, for diagnostics and tests.
func (c *Cluster) Epoch() uint64 {
	return c.clusterMap.Epoch()
}

// Close stops the topology watch and every per-master data worker, and
// waits for them to exit. A worker first runs any task already queued to
// it. Pooled connections are left open.
func (c *Cluster) Close() error {
	c.closeOnce.Do(func() {
		close(c.watchDone)
		c.workersMu.Lock()
		for _, w := range c.workers {
			close(w.done)
		}
		c.workersMu.Unlock()
		c.wg.Wait()
	})
	return nil
}

// runTopologyWatch periodically checks whether the cached epoch has moved
// since the last tick; if nothing else refreshed it in the meantime, it
// re-pulls one cached table as a defensive check against a missed stale
// signal. Gated on the epoch so it never duplicates a Pull that already
// happened for another reason within the same interval.
func (c *Cluster) runTopologyWatch() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.watchInterval)
	defer ticker.Stop()

	var lastEpoch uint64
	for {
		select {
		case <-c.watchDone:
			return
		case <-ticker.C:
			if c.clusterMap.Epoch() == lastEpoch {
				if names := c.clusterMap.TableNames(); len(names) > 0 {
					if err := c.Pull(context.Background(), names[0]); err != nil {
						c.log.Warnf("topology watch: re-pull of %q failed: %v", names[0], err)
					}
				}
			}
			lastEpoch = c.clusterMap.Epoch()
		}
	}
}
