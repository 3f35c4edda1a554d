// Package topology holds the cluster's data model: partitions, tables, and
// the cluster-wide map of tables that the coordinator refreshes via Pull.
// It is pure data plus the deterministic key-to-partition function; it
// performs no I/O.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/pkg/errors"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/pb"
)

// Partition is one shard of a table: an id, its write-accepting master, and
// its read-only slaves.
type Partition struct {
	ID     int
	Master node.Node
	Slaves []node.Node
}

// Table is a named keyspace split into a fixed number of partitions.
// Once built from a meta response it is never mutated in place; a fresh
// Pull produces a fresh Table.
type Table struct {
	Name           string
	PartitionCount int
	partitions     map[int]Partition
}

// FromMeta builds a Table from a meta-service snapshot message.
func FromMeta(info *pb.TableInfo) (*Table, error) {
	if info == nil {
		return nil, errors.New("nil table info")
	}
	t := &Table{
		Name:           info.Name,
		PartitionCount: len(info.Partitions),
		partitions:     make(map[int]Partition, len(info.Partitions)),
	}
	for _, p := range info.Partitions {
		slaves := make([]node.Node, 0, len(p.Slaves))
		for _, s := range p.Slaves {
			slaves = append(slaves, node.Node{IP: s.IP, Port: uint16(s.Port)})
		}
		var master node.Node
		if p.Master != nil {
			master = node.Node{IP: p.Master.IP, Port: uint16(p.Master.Port)}
		}
		t.partitions[int(p.Id)] = Partition{
			ID:     int(p.Id),
			Master: master,
			Slaves: slaves,
		}
	}
	if t.PartitionCount == 0 {
		return nil, errors.Errorf("table %q has no partitions", info.Name)
	}
	for id := 0; id < t.PartitionCount; id++ {
		if _, ok := t.partitions[id]; !ok {
			return nil, errors.Errorf("table %q missing partition %d", info.Name, id)
		}
	}
	return t, nil
}

// KeyPartitionID returns the deterministic partition id for key within this
// table: hash(key) mod partition_count. This must match the server's
// partitioning exactly; xxhash is the fixed, cluster-wide agreed hash.
func (t *Table) KeyPartitionID(key string) int {
	h := xxhash.Sum64String(key)
	return int(h % uint64(t.PartitionCount))
}

// KeyMaster returns the master node responsible for key. It is a pure
// function of (key, table snapshot): repeated calls without an intervening
// Pull return identical results.
func (t *Table) KeyMaster(key string) node.Node {
	p := t.partitions[t.KeyPartitionID(key)]
	return p.Master
}

// GetPartition returns the full partition record that owns key.
func (t *Table) GetPartition(key string) Partition {
	return t.partitions[t.KeyPartitionID(key)]
}

// Partition looks up a partition by id directly.
func (t *Table) Partition(id int) (Partition, bool) {
	p, ok := t.partitions[id]
	return p, ok
}

// Nodes returns the set of every master and slave across all partitions.
func (t *Table) Nodes() []node.Node {
	seen := make(map[node.Node]struct{})
	for _, p := range t.partitions {
		seen[p.Master] = struct{}{}
		for _, s := range p.Slaves {
			seen[s] = struct{}{}
		}
	}
	nodes := make([]node.Node, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Less(nodes[j]) })
	return nodes
}

// DebugDump renders a human-readable dump of the table's topology, for
// the CLI's "debug dump-table" subcommand.
func (t *Table) DebugDump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table: %s (partitions: %d)\n", t.Name, t.PartitionCount)
	for id := 0; id < t.PartitionCount; id++ {
		p := t.partitions[id]
		fmt.Fprintf(&b, "  partition %d: master=%s slaves=%v\n", p.ID, p.Master, p.Slaves)
	}
	return b.String()
}
