// Package pool implements the keyed connection cache shared by the meta and
// data transports: one live channel per endpoint, opened on demand and
// evicted by identity after an I/O error, before any retry is attempted.
package pool

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/stats"
)

// Channel is the minimal shape a pooled connection must have.
// transport.RpcChannel satisfies this.
type Channel interface {
	Close() error
}

// Dialer opens a new Channel to an endpoint. The pool calls it only while no
// channel is cached for the endpoint; concurrent callers may each dial, and
// every channel but the first one cached is closed.
type Dialer func(n node.Node) (Channel, error)

type entry struct {
	channel  Channel
	lastUsed time.Time
}

// Pool is a keyed cache of live channels, one per node.Node at a time. Get
// and Remove are safe for concurrent use; the pool performs no retry of its
// own, that lives in the transport layer.
type Pool struct {
	dial Dialer

	mu      sync.Mutex
	entries map[node.Node]*entry
	// limiters throttle repeated *dial* attempts to an endpoint that keeps
	// failing to connect, so a genuinely down node doesn't get hammered
	// with reconnect attempts from every caller that wants a channel to
	// it. A limiter is only ever created lazily, in recordDialFailure,
	// the first time a dial to n actually fails — a channel evicted after
	// a send/recv error (the endpoint was reachable, just momentarily
	// unhealthy) never touches this map, so the very next Get for that
	// endpoint still dials immediately. That is what lets the transport's
	// evict-before-retry loop reconnect on its very next attempt instead
	// of being gated by an unrelated earlier failure.
	limiters map[node.Node]*rate.Limiter

	stats stats.StatsClient
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithStats overrides the default nop stats client, so Get's hits,
// dials, and dial failures are reported.
func WithStats(s stats.StatsClient) Option {
	return func(p *Pool) { p.stats = s }
}

// New returns an empty Pool that opens new channels with dial.
func New(dial Dialer, opts ...Option) *Pool {
	p := &Pool{
		dial:     dial,
		entries:  make(map[node.Node]*entry),
		limiters: make(map[node.Node]*rate.Limiter),
		stats:    stats.NopStatsClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get returns a usable channel for n: a cached one if present, otherwise a
// freshly dialed one. It returns nil if the endpoint couldn't be reached,
// including while a prior dial failure's backoff for n hasn't expired yet.
func (p *Pool) Get(n node.Node) Channel {
	p.mu.Lock()
	if e, ok := p.entries[n]; ok {
		e.lastUsed = time.Now()
		ch := e.channel
		p.mu.Unlock()
		p.stats.Count("pool.hit", 1, 1)
		return ch
	}
	limiter, limited := p.limiters[n]
	p.mu.Unlock()

	if limited && !limiter.Allow() {
		p.stats.Count("pool.dial_throttled", 1, 1)
		return nil
	}

	ch, err := p.dial(n)
	if err != nil || ch == nil {
		p.stats.Count("pool.dial_failed", 1, 1)
		p.recordDialFailure(n)
		return nil
	}
	p.stats.Count("pool.dial_succeeded", 1, 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.limiters, n)
	// Another goroutine may have raced us to install a channel for n;
	// prefer the one already cached and close ours, keeping the "one
	// channel per endpoint" guarantee.
	if existing, ok := p.entries[n]; ok {
		_ = ch.Close()
		existing.lastUsed = time.Now()
		return existing.channel
	}
	p.entries[n] = &entry{channel: ch, lastUsed: time.Now()}
	p.stats.Gauge("pool.size", float64(len(p.entries)), 1)
	return ch
}

// recordDialFailure lazily installs a per-endpoint limiter the first time
// a dial to n fails, and otherwise leaves an existing one's internal
// token bucket to refill on its own schedule. One dial attempt per 200ms
// per endpoint, bursting to 1 — enough to let the very next caller
// through immediately (no token was consumed on the failing attempt
// itself) while still preventing a storm of reconnect attempts against a
// node that keeps failing.
func (p *Pool) recordDialFailure(n node.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.limiters[n]; !ok {
		p.limiters[n] = rate.NewLimiter(rate.Every(200*time.Millisecond), 1)
	}
}

// GetAnyExisting returns any already-cached channel without dialing a new
// one, used by the meta pool's fast path.
func (p *Pool) GetAnyExisting() Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		e.lastUsed = time.Now()
		return e.channel
	}
	return nil
}

// Remove evicts the cached channel for n by identity, if ch is still the
// one cached, and closes it. Callers must call Remove before retrying
// after an I/O error, never after, so a retry never reuses a known-broken
// channel.
func (p *Pool) Remove(n node.Node, ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[n]; ok && e.channel == ch {
		delete(p.entries, n)
		_ = ch.Close()
		p.stats.Gauge("pool.size", float64(len(p.entries)), 1)
	}
}
