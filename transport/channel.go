package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
)

// MetaServiceMethod and DataServiceMethod are the gRPC method paths the
// meta and data services expose. The server side of this protocol is an
// external collaborator; this client only needs to agree on the method
// name and message shapes (pb.MetaRequest/Response, pb.DataRequest/Response).
// Exported so test doubles (see cluster's fake-server tests) can register
// a grpc.ServiceDesc under the same names without generated stubs.
const (
	MetaServiceMethod = "/zp.Meta/Call"
	DataServiceMethod = "/zp.Data/Call"
)

// RpcChannel is one pooled connection to a single endpoint: a gRPC
// ClientConn plus the two unary call shapes this client ever issues on it.
type RpcChannel struct {
	endpoint node.Node
	conn     *grpc.ClientConn
}

// Endpoint returns the node this channel is connected to.
func (c *RpcChannel) Endpoint() node.Node { return c.endpoint }

// Dial opens a new RpcChannel to n. TLS/auth is not present in the wire
// protocol, hence grpc.WithInsecure(). extraOpts is appended after the
// defaults, letting tests substitute a bufconn dialer for the real network.
func Dial(n node.Node, connectTimeout time.Duration, extraOpts ...grpc.DialOption) (*RpcChannel, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	opts := append([]grpc.DialOption{
		grpc.WithInsecure(), //nolint:staticcheck
		grpc.WithBlock(),
	}, extraOpts...)
	conn, err := grpc.DialContext(ctx, n.String(), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", n)
	}
	return &RpcChannel{endpoint: n, conn: conn}, nil
}

// Close releases the underlying gRPC connection. Satisfies pool.Channel.
func (c *RpcChannel) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// SendRecvMeta performs one meta RPC on this channel: send req, block for
// the matching response, as a single gRPC unary call.
func (c *RpcChannel) SendRecvMeta(ctx context.Context, req *pb.MetaRequest) (*pb.MetaResponse, error) {
	resp := &pb.MetaResponse{}
	if err := c.conn.Invoke(ctx, MetaServiceMethod, req, resp); err != nil {
		return nil, errors.Wrap(err, "meta rpc")
	}
	return resp, nil
}

// SendRecvData performs one data RPC on this channel.
func (c *RpcChannel) SendRecvData(ctx context.Context, req *pb.DataRequest) (*pb.DataResponse, error) {
	resp := &pb.DataResponse{}
	if err := c.conn.Invoke(ctx, DataServiceMethod, req, resp); err != nil {
		return nil, errors.Wrap(err, "data rpc")
	}
	return resp, nil
}
