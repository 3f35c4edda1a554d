package cluster

import (
	"context"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
	"github.com/ZeroCry/zeppelin-gateway/status"
)

// dataTask is one sub-request handed to a per-master worker, with a
// one-shot channel the worker uses to report completion.
type dataTask struct {
	ctx      context.Context
	req      *pb.DataRequest
	resultCh chan dataTaskResult
}

type dataTaskResult struct {
	resp *pb.DataResponse
	err  error
}

// dataWorker is a long-lived goroutine bound to one master node. It is
// spawned on first use and lives until Cluster.Close, so repeated Mget
// calls against the same master reuse one goroutine rather than spawning
// fresh ones per call.
type dataWorker struct {
	master node.Node
	tasks  chan *dataTask
	done   chan struct{}
}

func (c *Cluster) workerFor(master node.Node) *dataWorker {
	c.workersMu.Lock()
	defer c.workersMu.Unlock()
	if w, ok := c.workers[master]; ok {
		return w
	}
	w := &dataWorker{
		master: master,
		tasks:  make(chan *dataTask, 1),
		done:   make(chan struct{}),
	}
	c.workers[master] = w
	c.wg.Add(1)
	go c.runWorker(w)
	return w
}

func (c *Cluster) runWorker(w *dataWorker) {
	defer c.wg.Done()
	for {
		select {
		case t, ok := <-w.tasks:
			if !ok {
				return
			}
			resp, err := c.transport.TryDataRPC(t.ctx, w.master, t.req)
			t.resultCh <- dataTaskResult{resp: resp, err: err}
		case <-w.done:
			// Drain whatever was already queued so no caller is left
			// waiting on a result that never comes.
			for {
				select {
				case t := <-w.tasks:
					resp, err := c.transport.TryDataRPC(t.ctx, w.master, t.req)
					t.resultCh <- dataTaskResult{resp: resp, err: err}
				default:
					return
				}
			}
		}
	}
}

// tryDataMaster resolves the master for (table, key) from the locally
// cached topology only, performing no I/O. A miss (table not cached)
// returns NotFound. Deliberately I/O-free so submitDataCmd's own
// refresh-and-retry loop is the only place a single-key call ever Pulls,
// keeping at most one Pull-driven retry per logical call.
func (c *Cluster) tryDataMaster(table, key string) (node.Node, error) {
	t, ok := c.clusterMap.Table(table)
	if !ok {
		return node.Node{}, status.NewNotFound("table does not exist")
	}
	return t.KeyMaster(key), nil
}

// dataMasterPulling resolves the master for (table, key), pulling fresh
// topology at most once if the table isn't cached yet. Used by Mget,
// which resolves every key's master up front and has no retry loop of
// its own to own a single Pull the way submitDataCmd does.
func (c *Cluster) dataMasterPulling(ctx context.Context, table, key string) (node.Node, error) {
	if master, err := c.tryDataMaster(table, key); err == nil {
		return master, nil
	}
	if err := c.Pull(ctx, table); err != nil {
		return node.Node{}, err
	}
	return c.tryDataMaster(table, key)
}

// submitDataCmd sends req to the master owning (table, key), with exactly
// one refresh-and-retry when the first attempt fails at the transport
// level or comes back with a routing-stale status.
func (c *Cluster) submitDataCmd(ctx context.Context, table, key string, req *pb.DataRequest) (*pb.DataResponse, error) {
	if table == "" {
		return nil, status.NewInvalidArgument("empty table name")
	}
	hasPulled := false
	for {
		master, masterErr := c.tryDataMaster(table, key)
		var resp *pb.DataResponse
		var err error
		if masterErr == nil {
			resp, err = c.transport.TryDataRPC(ctx, master, req)
		} else {
			err = masterErr
		}

		succeeded := err == nil && resp.Code != pb.DataStatusCode_kError
		if succeeded || hasPulled {
			if err != nil {
				// FromError keeps a routing NotFound from tryDataMaster
				// intact; only a genuine transport error maps to IoError.
				return nil, status.FromError(err)
			}
			return resp, nil
		}

		if pullErr := c.Pull(ctx, table); pullErr != nil {
			return nil, pullErr
		}
		hasPulled = true
	}
}

// Set writes key/value to table. ttl < 0 means no expiration.
func (c *Cluster) Set(ctx context.Context, table, key, value string, ttl int32) error {
	req := &pb.DataRequest{Type: pb.DataType_SET, Table: table, Key: key, Value: value, TTL: ttl}
	resp, err := c.submitDataCmd(ctx, table, key, req)
	if err != nil {
		return err
	}
	if resp.Code == pb.DataStatusCode_kOk {
		return nil
	}
	return status.NewCorruption(resp.Msg)
}

// Get reads key from table.
func (c *Cluster) Get(ctx context.Context, table, key string) (string, error) {
	req := &pb.DataRequest{Type: pb.DataType_GET, Table: table, Key: key}
	resp, err := c.submitDataCmd(ctx, table, key, req)
	if err != nil {
		return "", err
	}
	switch resp.Code {
	case pb.DataStatusCode_kOk:
		return resp.GetValue, nil
	case pb.DataStatusCode_kNotFound:
		return "", status.NewNotFound("key do not exist")
	default:
		return "", status.NewCorruption(resp.Msg)
	}
}

// Delete removes key from table.
func (c *Cluster) Delete(ctx context.Context, table, key string) error {
	req := &pb.DataRequest{Type: pb.DataType_DEL, Table: table, Key: key}
	resp, err := c.submitDataCmd(ctx, table, key, req)
	if err != nil {
		return err
	}
	if resp.Code == pb.DataStatusCode_kOk {
		return nil
	}
	return status.NewCorruption(resp.Msg)
}

// Mget reads many keys from table in one logical call. Keys are grouped
// by the master that owns them, one MGET sub-request per master, and
// dispatched to that master's worker goroutine concurrently; results are
// collected in submission order once every sub-request completes. A partial failure on one master still returns
// whatever values the other masters supplied, alongside a Corruption
// status so the caller knows the result set may be incomplete.
func (c *Cluster) Mget(ctx context.Context, table string, keys []string) (map[string]string, error) {
	if table == "" {
		return nil, status.NewInvalidArgument("empty table name")
	}
	groups := make(map[node.Node]*pb.DataRequest)
	for _, k := range keys {
		master, err := c.dataMasterPulling(ctx, table, k)
		if err != nil {
			return nil, err
		}
		req, ok := groups[master]
		if !ok {
			req = &pb.DataRequest{Type: pb.DataType_MGET, Table: table}
			groups[master] = req
		}
		req.Keys = append(req.Keys, k)
	}
	c.stats.Histogram("cluster.mget.masters", float64(len(groups)), 1)

	type pending struct {
		resultCh chan dataTaskResult
	}
	pendings := make([]pending, 0, len(groups))
	for master, req := range groups {
		w := c.workerFor(master)
		resultCh := make(chan dataTaskResult, 1)
		w.tasks <- &dataTask{ctx: ctx, req: req, resultCh: resultCh}
		pendings = append(pendings, pending{resultCh: resultCh})
	}

	values := make(map[string]string)
	hasError := false
	for _, p := range pendings {
		res := <-p.resultCh
		if res.err != nil || res.resp == nil || res.resp.Code != pb.DataStatusCode_kOk {
			hasError = true
		}
		if res.resp != nil {
			for _, kv := range res.resp.Mget {
				values[kv.Key] = kv.Value
			}
		}
	}
	if hasError {
		return values, status.NewCorruption("mget error happened")
	}
	return values, nil
}
