// Package statsd implements stats.StatsClient over the DataDog statsd
// client, for deployments that already run a statsd or dogstatsd agent.
package statsd

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/ZeroCry/zeppelin-gateway/logger"
	"github.com/ZeroCry/zeppelin-gateway/stats"
)

const metricPrefix = "zp."

var _ stats.StatsClient = (*StatsClient)(nil)

// StatsClient reports every metric to a DataDog/statsd agent.
type StatsClient struct {
	client *statsd.Client
	tags   []string
	logger logger.Logger
}

// New returns a StatsClient reporting to the statsd agent at addr
// (host:port, e.g. "127.0.0.1:8125").
func New(addr string) (*StatsClient, error) {
	c, err := statsd.New(addr)
	if err != nil {
		return nil, err
	}
	return &StatsClient{client: c, logger: logger.NopLogger}, nil
}

// SetLogger sets the logger used to report send errors.
func (c *StatsClient) SetLogger(l logger.Logger) {
	c.logger = l
}

func (c *StatsClient) Close() error {
	return c.client.Close()
}

func (c *StatsClient) Tags() []string {
	return c.tags
}

func (c *StatsClient) WithTags(tags ...string) stats.StatsClient {
	return &StatsClient{
		client: c.client,
		tags:   stats.MergeTags(c.tags, tags),
		logger: c.logger,
	}
}

func (c *StatsClient) Count(name string, value int64, rate float64) {
	if err := c.client.Count(metricPrefix+name, value, c.tags, rate); err != nil {
		c.logger.Warnf("statsd count error: %s", err)
	}
}

func (c *StatsClient) Gauge(name string, value float64, rate float64) {
	if err := c.client.Gauge(metricPrefix+name, value, c.tags, rate); err != nil {
		c.logger.Warnf("statsd gauge error: %s", err)
	}
}

func (c *StatsClient) Histogram(name string, value float64, rate float64) {
	if err := c.client.Histogram(metricPrefix+name, value, c.tags, rate); err != nil {
		c.logger.Warnf("statsd histogram error: %s", err)
	}
}

func (c *StatsClient) Timing(name string, value time.Duration, rate float64) {
	if err := c.client.Timing(metricPrefix+name, value, c.tags, rate); err != nil {
		c.logger.Warnf("statsd timing error: %s", err)
	}
}
