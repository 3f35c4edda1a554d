// Package node defines the Node value type shared by every component that
// names a meta or data endpoint: connection pools key on it, tables map
// partitions to it, and the CLI prints it.
package node

import (
	"fmt"
	"net"
	"strconv"

	"github.com/pkg/errors"
)

// Node identifies a meta or data endpoint by IP and port. It is a plain
// value type: comparable, usable as a map key, and orderable by Less.
type Node struct {
	IP   string
	Port uint16
}

// New builds a Node, validating that port falls in the 1..65535 range
// required for use as a map key and for stable sorting.
func New(ip string, port int) (Node, error) {
	if port < 1 || port > 65535 {
		return Node{}, errors.Errorf("port out of range: %d", port)
	}
	return Node{IP: ip, Port: uint16(port)}, nil
}

// Parse parses an "ip:port" address into a Node.
func Parse(address string) (Node, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return Node{}, errors.Wrapf(err, "parsing node address %q", address)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Node{}, errors.Wrapf(err, "parsing port in %q", address)
	}
	return New(host, port)
}

// String renders the Node as "ip:port".
func (n Node) String() string {
	return fmt.Sprintf("%s:%d", n.IP, n.Port)
}

// Less gives Node a deterministic total order (IP, then numeric port),
// used by topology.Table.Nodes for a stable listing.
func (n Node) Less(other Node) bool {
	if n.IP != other.IP {
		return n.IP < other.IP
	}
	return n.Port < other.Port
}

// IsZero reports whether n is the zero Node.
func (n Node) IsZero() bool {
	return n.IP == "" && n.Port == 0
}

// Set, together with String and Type, makes *Node a pflag.Value so Node can
// be bound directly to CLI flags in cmd/zpctl.
func (n *Node) Set(value string) error {
	parsed, err := Parse(value)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// Type implements pflag.Value.
func (n Node) Type() string { return "Node" }
