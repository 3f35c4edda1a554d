// Package stats defines the metrics surface the pools, transport, and
// coordinator report through: pool hits and dials, RPC attempts and
// latencies, fan-out sizes. The default sink is NopStatsClient.
package stats

import (
	"sort"
	"time"
)

// StatsClient receives this module's operational metrics. Implementations
// must be safe for concurrent use; applications plug in whatever backend
// they already run (see the statsd subpackage for a DataDog-backed one).
type StatsClient interface {
	// Tags returns the tag set every metric from this client carries.
	Tags() []string

	// WithTags returns a client reporting with tags added to this
	// client's set.
	WithTags(tags ...string) StatsClient

	// Count adds value to the named counter.
	Count(name string, value int64, rate float64)

	// Gauge records the current value of the named measurement.
	Gauge(name string, value float64, rate float64)

	// Histogram records one sample of the named distribution.
	Histogram(name string, value float64, rate float64)

	// Timing records one duration sample for the named operation.
	Timing(name string, value time.Duration, rate float64)

	// Close releases whatever the implementation holds open.
	Close() error
}

// NopStatsClient discards every metric. It is the default for components
// constructed without an explicit StatsClient.
var NopStatsClient StatsClient = nopClient{}

type nopClient struct{}

func (nopClient) Tags() []string                        { return nil }
func (nopClient) WithTags(...string) StatsClient        { return NopStatsClient }
func (nopClient) Count(string, int64, float64)          {}
func (nopClient) Gauge(string, float64, float64)        {}
func (nopClient) Histogram(string, float64, float64)    {}
func (nopClient) Timing(string, time.Duration, float64) {}
func (nopClient) Close() error                          { return nil }

// MergeTags returns the sorted union of two tag sets without duplicates,
// leaving both inputs untouched. WithTags implementations use it so
// deriving a tagged client twice with the same tag doesn't double it.
func MergeTags(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, tags := range [][]string{a, b} {
		for _, t := range tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	sort.Strings(merged)
	return merged
}
