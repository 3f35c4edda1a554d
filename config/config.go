// Package config loads cmd/zpctl's TOML configuration file.
package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

const (
	// DefaultConnectTimeout is used when the config file doesn't set one.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultTopologyWatchInterval is used when the config file doesn't
	// set one.
	DefaultTopologyWatchInterval = 30 * time.Second
)

// Duration wraps time.Duration so it can be read from a TOML string like
// "5s" instead of a raw integer of nanoseconds.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MetaNode is one meta-service address as it appears in the config file.
type MetaNode struct {
	IP   string `toml:"ip"`
	Port int    `toml:"port"`
}

// Config is the root of cmd/zpctl's configuration file.
type Config struct {
	MetaAddrs []MetaNode `toml:"meta"`

	ConnectTimeout        Duration `toml:"connect-timeout"`
	TopologyWatchInterval Duration `toml:"topology-watch-interval"`

	Statsd struct {
		Addr string `toml:"addr"`
	} `toml:"statsd"`

	LogPath string `toml:"log-path"`
	Verbose bool   `toml:"verbose"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		ConnectTimeout:        Duration(DefaultConnectTimeout),
		TopologyWatchInterval: Duration(DefaultTopologyWatchInterval),
	}
}

// Load reads and parses the TOML file at path into a fresh Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config %q", path)
	}
	defer f.Close()

	c := NewConfig()
	dec := toml.NewDecoder(f)
	if err := dec.Decode(c); err != nil {
		return nil, errors.Wrapf(err, "parsing config %q", path)
	}
	if len(c.MetaAddrs) == 0 {
		return nil, errors.Errorf("config %q declares no [[meta]] addresses", path)
	}
	return c, nil
}
