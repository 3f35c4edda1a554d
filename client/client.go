// Package client provides a single-table facade over a cluster.Cluster,
// for callers that only ever talk to one table and would rather not pass
// its name on every call.
package client

import (
	"context"

	"github.com/ZeroCry/zeppelin-gateway/cluster"
	"github.com/ZeroCry/zeppelin-gateway/node"
)

// Client binds a fixed table name to a cluster.Cluster.
type Client struct {
	cluster *cluster.Cluster
	table   string
}

// New connects to the cluster at metaAddrs and pulls table's topology.
func New(ctx context.Context, metaAddrs []node.Node, table string, opts ...cluster.Option) (*Client, error) {
	c, err := cluster.New(metaAddrs, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.Pull(ctx, table); err != nil {
		c.Close()
		return nil, err
	}
	return &Client{cluster: c, table: table}, nil
}

// NewSingle is a convenience constructor for a single meta address.
func NewSingle(ctx context.Context, ip string, port int, table string, opts ...cluster.Option) (*Client, error) {
	n, err := node.New(ip, port)
	if err != nil {
		return nil, err
	}
	return New(ctx, []node.Node{n}, table, opts...)
}

// Set writes key/value. ttl < 0 means no expiration.
func (c *Client) Set(ctx context.Context, key, value string, ttl int32) error {
	return c.cluster.Set(ctx, c.table, key, value, ttl)
}

// Get reads key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.cluster.Get(ctx, c.table, key)
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.cluster.Delete(ctx, c.table, key)
}

// Mget reads many keys in one logical call.
func (c *Client) Mget(ctx context.Context, keys []string) (map[string]string, error) {
	return c.cluster.Mget(ctx, c.table, keys)
}

// Cluster exposes the underlying coordinator for admin operations that
// aren't table-scoped (ListMeta, ListNode, CreateTable, ...).
func (c *Client) Cluster() *cluster.Cluster {
	return c.cluster
}

// Close stops the underlying cluster's topology watch and data workers
// (see cluster.Cluster.Close). Pooled connections are not closed.
func (c *Client) Close() error {
	return c.cluster.Close()
}
