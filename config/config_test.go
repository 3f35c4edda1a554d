package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()
	require.Equal(t, DefaultConnectTimeout, time.Duration(c.ConnectTimeout))
	require.Equal(t, DefaultTopologyWatchInterval, time.Duration(c.TopologyWatchInterval))
	require.Empty(t, c.MetaAddrs)
}

func TestLoad_ParsesMetaAddressesAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zpctl.toml")
	contents := `
connect-timeout = "2s"
verbose = true

[[meta]]
ip = "10.0.0.1"
port = 9221

[[meta]]
ip = "10.0.0.2"
port = 9221

[statsd]
addr = "127.0.0.1:8125"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.MetaAddrs, 2)
	require.Equal(t, "10.0.0.1", c.MetaAddrs[0].IP)
	require.Equal(t, 9221, c.MetaAddrs[0].Port)
	require.Equal(t, 2*time.Second, time.Duration(c.ConnectTimeout))
	require.True(t, c.Verbose)
	require.Equal(t, "127.0.0.1:8125", c.Statsd.Addr)
	// not overridden by the file, keeps the constructor default
	require.Equal(t, DefaultTopologyWatchInterval, time.Duration(c.TopologyWatchInterval))
}

func TestLoad_RejectsMissingMetaAddresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zpctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`verbose = true`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1h30m")))
	require.Equal(t, 90*time.Minute, time.Duration(d))

	text, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1h30m0s", string(text))
}
