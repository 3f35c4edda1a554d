// Package transport sends one request and receives its matching response
// on a pooled RpcChannel, with bounded retry and, for meta RPCs, failover
// across the configured meta addresses.
package transport

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/ZeroCry/zeppelin-gateway/logger"
	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
	"github.com/ZeroCry/zeppelin-gateway/pool"
	"github.com/ZeroCry/zeppelin-gateway/stats"
)

// Attempt budgets. Small positive integers: one original try plus this
// many retries.
const (
	DataAttempts = 2
	MetaAttempts = 2
)

// rpcChannel is what Transport needs from a pooled channel: send/receive
// both RPC shapes, plus pool.Channel's Close. *RpcChannel satisfies it in
// production; tests substitute a fake to exercise retry and eviction
// without a real socket.
type rpcChannel interface {
	pool.Channel
	Endpoint() node.Node
	SendRecvData(ctx context.Context, req *pb.DataRequest) (*pb.DataResponse, error)
	SendRecvMeta(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error)
}

var _ rpcChannel = (*RpcChannel)(nil)

// Transport owns the meta and data connection pools and implements the
// send/receive-with-retry protocol. The coordinator (cluster.Cluster) is
// the only intended caller.
type Transport struct {
	metaAddrs []node.Node
	metaPool  *pool.Pool
	dataPool  *pool.Pool

	connectTimeout time.Duration
	dialOpts       []grpc.DialOption

	log   logger.Logger
	stats stats.StatsClient
}

// Option configures a Transport at construction time.
type Option func(*Transport)

// WithLogger overrides the default nop logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Transport) { t.log = l }
}

// WithStats overrides the default nop stats client.
func WithStats(s stats.StatsClient) Option {
	return func(t *Transport) { t.stats = s }
}

// WithConnectTimeout overrides the default dial timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(t *Transport) { t.connectTimeout = d }
}

// WithDialOptions appends extra grpc.DialOption values to every dial this
// Transport makes, e.g. a bufconn-backed grpc.WithContextDialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(t *Transport) { t.dialOpts = append(t.dialOpts, opts...) }
}

// New builds a Transport over the given meta addresses. metaAddrs must be
// non-empty.
func New(metaAddrs []node.Node, opts ...Option) (*Transport, error) {
	if len(metaAddrs) == 0 {
		return nil, errors.New("no usable meta addresses")
	}
	t := &Transport{
		metaAddrs:      append([]node.Node(nil), metaAddrs...),
		connectTimeout: 5 * time.Second,
		log:            logger.NopLogger,
		stats:          stats.NopStatsClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.metaPool = pool.New(func(n node.Node) (pool.Channel, error) {
		return Dial(n, t.connectTimeout, t.dialOpts...)
	}, pool.WithStats(t.stats.WithTags("pool:meta")))
	t.dataPool = pool.New(func(n node.Node) (pool.Channel, error) {
		return Dial(n, t.connectTimeout, t.dialOpts...)
	}, pool.WithStats(t.stats.WithTags("pool:data")))
	return t, nil
}

// TryDataRPC sends req to master and returns its response, retrying up to
// DataAttempts times on transport failure. Evicts the channel from the
// data pool before any retry.
func (t *Transport) TryDataRPC(ctx context.Context, master node.Node, req *pb.DataRequest) (*pb.DataResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= DataAttempts; attempt++ {
		if attempt > 0 {
			t.stats.Count("transport.data.retry", 1, 1)
		}
		ch := t.dataPool.Get(master)
		if ch == nil {
			lastErr = errors.Errorf("failed to get data connection to %s", master)
			t.stats.Count("transport.data.dial_failed", 1, 1)
			continue
		}
		rc := ch.(rpcChannel)
		start := time.Now()
		resp, err := rc.SendRecvData(ctx, req)
		t.stats.Timing("transport.data.rpc", time.Since(start), 1)
		if err == nil {
			return resp, nil
		}
		t.log.Warnf("data rpc to %s failed (attempt %d/%d): %v", master, attempt+1, DataAttempts+1, err)
		t.stats.Count("transport.data.rpc_failed", 1, 1)
		t.dataPool.Remove(master, ch)
		lastErr = err
	}
	return nil, errors.Wrap(lastErr, "all data rpc attempts failed")
}

// TryMetaRPC sends req on a meta channel and returns its response, with
// the same bounded-retry/evict-before-retry discipline as TryDataRPC. The
// channel comes from GetMetaChannel, which fails over across every
// configured meta address.
func (t *Transport) TryMetaRPC(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= MetaAttempts; attempt++ {
		if attempt > 0 {
			t.stats.Count("transport.meta.retry", 1, 1)
		}
		ch, n, err := t.GetMetaChannel()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get meta connection")
		}
		rc := ch.(rpcChannel)
		start := time.Now()
		resp, err := rc.SendRecvMeta(ctx, req)
		t.stats.Timing("transport.meta.rpc", time.Since(start), 1)
		if err == nil {
			return resp, nil
		}
		t.log.Warnf("meta rpc to %s failed (attempt %d/%d): %v", n, attempt+1, MetaAttempts+1, err)
		t.stats.Count("transport.meta.rpc_failed", 1, 1)
		t.metaPool.Remove(n, ch)
		lastErr = err
	}
	return nil, errors.Wrap(lastErr, "all meta rpc attempts failed")
}

// GetMetaChannel returns a usable meta channel: any already-cached
// connection first (the fast path most calls take), otherwise a uniformly
// random starting address, scanned circularly through every configured
// meta address until one connects. The randomized start spreads
// leader-discovery load across meta replicas and avoids every client
// hammering the first configured address at once.
func (t *Transport) GetMetaChannel() (pool.Channel, node.Node, error) {
	if ch := t.metaPool.GetAnyExisting(); ch != nil {
		return ch, ch.(rpcChannel).Endpoint(), nil
	}

	start := rand.Intn(len(t.metaAddrs))
	for i := 0; i < len(t.metaAddrs); i++ {
		n := t.metaAddrs[(start+i)%len(t.metaAddrs)]
		if ch := t.metaPool.Get(n); ch != nil {
			return ch, n, nil
		}
		t.log.Warnf("meta %s unreachable, failing over to the next address", n)
	}
	return nil, node.Node{}, errors.New("could not connect to any meta address")
}

// MetaAddrs returns the configured meta addresses, for diagnostics.
func (t *Transport) MetaAddrs() []node.Node {
	return append([]node.Node(nil), t.metaAddrs...)
}
