package topology

import (
	"sort"
	"sync"

	"go.uber.org/atomic"
)

// ClusterMap is the coordinator's in-memory cache of table topology.
// Readers run concurrently; the one writer path (ResetTable, driven by a
// successful Pull) swaps in a freshly built *Table per name under the
// write lock, so a reader of a table always observes either the whole old
// Table or the whole new one.
type ClusterMap struct {
	epoch  atomic.Uint64
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewClusterMap returns an empty ClusterMap at epoch 0.
func NewClusterMap() *ClusterMap {
	return &ClusterMap{tables: make(map[string]*Table)}
}

// Epoch returns the current topology epoch. Lock-free: epoch is read far
// more often than it's written, and a monotonic counter needs no lock to
// be observed consistently.
func (c *ClusterMap) Epoch() uint64 {
	return c.epoch.Load()
}

// Table returns the cached Table for name, if present.
func (c *ClusterMap) Table(name string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	return t, ok
}

// ResetTable atomically installs a freshly pulled Table for one name, and
// bumps the epoch. This is the only write path; it never mutates an
// existing *Table in place.
func (c *ClusterMap) ResetTable(epoch uint64, t *Table) {
	c.mu.Lock()
	c.tables[t.Name] = t
	c.mu.Unlock()
	c.bumpEpochTo(epoch)
}

// bumpEpochTo advances the epoch to at least newEpoch, preserving the
// monotonic-non-decreasing guarantee even if responses arrive out of
// order.
func (c *ClusterMap) bumpEpochTo(newEpoch uint64) {
	for {
		cur := c.epoch.Load()
		if newEpoch <= cur {
			return
		}
		if c.epoch.CAS(cur, newEpoch) {
			return
		}
	}
}

// TableNames returns every table name currently cached, sorted.
func (c *ClusterMap) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
