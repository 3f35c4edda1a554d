package cluster

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
	"github.com/ZeroCry/zeppelin-gateway/transport"
)

// metaHandlerFunc and dataHandlerFunc are what a fakeNode dispatches an
// inbound request to.
type metaHandlerFunc func(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error)
type dataHandlerFunc func(ctx context.Context, req *pb.DataRequest) (*pb.DataResponse, error)

// fakeNode is one in-process stand-in for a meta or data node: a bufconn
// listener plus a grpc.Server exposing the same two method names real
// RpcChannel.SendRecvMeta/SendRecvData invoke.
type fakeNode struct {
	addr   node.Node
	lis    *bufconn.Listener
	server *grpc.Server
}

func (f *fakeNode) dial(ctx context.Context, _ string) (net.Conn, error) {
	return f.lis.DialContext(ctx)
}

func (f *fakeNode) stop() {
	f.server.Stop()
}

// fakeCluster wires together a set of fakeNode listeners and a single
// grpc.WithContextDialer that routes by the dialed address, letting one
// transport.Transport (and thus one cluster.Cluster) reach many distinct
// in-process nodes without a real socket anywhere.
type fakeCluster struct {
	mu    sync.Mutex
	nodes map[node.Node]*fakeNode
	next  int
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{nodes: make(map[node.Node]*fakeNode)}
}

// addNode spins up a fresh fake node serving metaFn/dataFn (either may be
// nil if this node never receives that kind of call) and returns its
// synthetic address.
func (fc *fakeCluster) addNode(metaFn metaHandlerFunc, dataFn dataHandlerFunc) node.Node {
	fc.mu.Lock()
	fc.next++
	port := 20000 + fc.next
	fc.mu.Unlock()

	addr := node.Node{IP: "127.0.0.1", Port: uint16(port)}
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	if metaFn != nil {
		srv.RegisterService(metaServiceDesc(metaFn), nil)
	}
	if dataFn != nil {
		srv.RegisterService(dataServiceDesc(dataFn), nil)
	}
	fn := &fakeNode{addr: addr, lis: lis, server: srv}

	fc.mu.Lock()
	fc.nodes[addr] = fn
	fc.mu.Unlock()

	go func() {
		_ = srv.Serve(lis)
	}()
	return addr
}

// dialer is the grpc.WithContextDialer callback shared by every dial this
// fake cluster's nodes make: it looks up the fakeNode registered under
// the dialed address and hands back an in-process bufconn connection.
func (fc *fakeCluster) dialer(ctx context.Context, addr string) (net.Conn, error) {
	fc.mu.Lock()
	var target *fakeNode
	for n, fn := range fc.nodes {
		if n.String() == addr {
			target = fn
			break
		}
	}
	fc.mu.Unlock()
	if target == nil {
		return nil, fmt.Errorf("fake cluster: no node registered for %q", addr)
	}
	return target.dial(ctx, addr)
}

// dialOption is what a test passes to cluster.WithDialOptions/
// transport.WithDialOptions to route every dial through this fake
// cluster instead of the real network.
func (fc *fakeCluster) dialOption() grpc.DialOption {
	return grpc.WithContextDialer(fc.dialer)
}

func (fc *fakeCluster) stopAll() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, fn := range fc.nodes {
		fn.stop()
	}
}

func metaServiceDesc(fn metaHandlerFunc) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: "zp.Meta",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Call",
				Handler: func(_ interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(pb.MetaRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return fn(ctx, req)
					}
					info := &grpc.UnaryServerInfo{FullMethod: transport.MetaServiceMethod}
					handler := func(ctx context.Context, req interface{}) (interface{}, error) {
						return fn(ctx, req.(*pb.MetaRequest))
					}
					return interceptor(ctx, req, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "zp.proto",
	}
}

func dataServiceDesc(fn dataHandlerFunc) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: "zp.Data",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Call",
				Handler: func(_ interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(pb.DataRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return fn(ctx, req)
					}
					info := &grpc.UnaryServerInfo{FullMethod: transport.DataServiceMethod}
					handler := func(ctx context.Context, req interface{}) (interface{}, error) {
						return fn(ctx, req.(*pb.DataRequest))
					}
					return interceptor(ctx, req, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "zp.proto",
	}
}
