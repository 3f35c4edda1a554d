// Package ctl contains the zpctl subcommands: cluster administration and
// inspection operations over cluster.Cluster, one subcommand per meta/info
// method.
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ZeroCry/zeppelin-gateway/cluster"
	"github.com/ZeroCry/zeppelin-gateway/config"
	"github.com/ZeroCry/zeppelin-gateway/logger"
	"github.com/ZeroCry/zeppelin-gateway/node"
	"github.com/ZeroCry/zeppelin-gateway/stats"
	"github.com/ZeroCry/zeppelin-gateway/stats/statsd"
)

const envPrefix = "ZPCTL"

// NewRootCommand builds the zpctl command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	rc := &cobra.Command{
		Use:   "zpctl",
		Short: "zpctl administers and inspects a ZP cluster.",
		Long: `zpctl is the operator CLI for a ZP cluster: create and drop
tables, reassign replicas, and inspect node/table/replication state.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			return bindConfig(v, cmd.Flags())
		},
		SilenceUsage: true,
	}
	rc.PersistentFlags().StringSlice("meta", nil, "meta-service address (ip:port), may be repeated")
	rc.PersistentFlags().String("config", "", "TOML config file (see config.Config)")
	rc.PersistentFlags().Duration("connect-timeout", 5*time.Second, "per-dial connect timeout")
	rc.PersistentFlags().Duration("timeout", 10*time.Second, "per-command RPC timeout")
	rc.PersistentFlags().Bool("verbose", false, "enable debug logging")

	rc.AddCommand(newCreateTableCommand(stdout))
	rc.AddCommand(newDropTableCommand(stdout))
	rc.AddCommand(newListTableCommand(stdout))
	rc.AddCommand(newPullCommand(stdout))
	rc.AddCommand(newListNodeCommand(stdout))
	rc.AddCommand(newListMetaCommand(stdout))
	rc.AddCommand(newSetMasterCommand(stdout))
	rc.AddCommand(newAddSlaveCommand(stdout))
	rc.AddCommand(newRemoveSlaveCommand(stdout))
	rc.AddCommand(newInfoQpsCommand(stdout))
	rc.AddCommand(newInfoOffsetCommand(stdout))
	rc.AddCommand(newInfoSpaceCommand(stdout))
	rc.AddCommand(newDebugCommand(stdout))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	rc.SetIn(stdin)
	return rc
}

// bindConfig layers flags, environment (ZPCTL_*), and an optional TOML file
// into v: flags win over env, env wins over file defaults. The file itself is parsed through
// config.Load rather than viper's own TOML decoder, so it is validated
// against the same Config type applications embed this package's library
// surface with (see config.Config).
func bindConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err := mergeConfig(v, c); err != nil {
			return fmt.Errorf("merging config file %q: %w", path, err)
		}
	}
	return nil
}

// mergeConfig merges c into v at config-file precedence: below an explicit
// --flag or ZPCTL_* env var, above an unset flag's own zero-value default.
func mergeConfig(v *viper.Viper, c *config.Config) error {
	addrs := make([]string, len(c.MetaAddrs))
	for i, m := range c.MetaAddrs {
		addrs[i] = fmt.Sprintf("%s:%d", m.IP, m.Port)
	}
	return v.MergeConfigMap(map[string]interface{}{
		"meta":                    addrs,
		"connect-timeout":         time.Duration(c.ConnectTimeout),
		"topology-watch-interval": time.Duration(c.TopologyWatchInterval),
		"verbose":                 c.Verbose,
		"statsd-addr":             c.Statsd.Addr,
		"log-path":                c.LogPath,
	})
}

// clusterOptions resolves the meta addresses and shared options a command
// needs to connect, from --meta/--config plus the persistent flags.
func clusterOptions(cmd *cobra.Command) ([]node.Node, []cluster.Option, error) {
	v := viper.New()
	if err := bindConfig(v, cmd.Flags()); err != nil {
		return nil, nil, err
	}

	addrs := v.GetStringSlice("meta")
	if len(addrs) == 0 {
		return nil, nil, fmt.Errorf("no meta addresses given: pass --meta ip:port or --config a TOML file")
	}

	nodes := make([]node.Node, 0, len(addrs))
	for _, a := range addrs {
		n, err := node.Parse(a)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing meta address %q: %w", a, err)
		}
		nodes = append(nodes, n)
	}

	w := cmd.ErrOrStderr()
	if path := v.GetString("log-path"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file %q: %w", path, err)
		}
		w = f
	}
	log := logger.Logger(logger.NopLogger)
	if v.GetBool("verbose") {
		log = logger.New(w, logger.LevelDebug)
	} else if w != cmd.ErrOrStderr() {
		log = logger.New(w, logger.LevelInfo)
	}
	opts := []cluster.Option{
		cluster.WithLogger(log),
		cluster.WithConnectTimeout(v.GetDuration("connect-timeout")),
	}
	if d := v.GetDuration("topology-watch-interval"); d > 0 {
		opts = append(opts, cluster.WithTopologyWatchInterval(d))
	}
	if addr := v.GetString("statsd-addr"); addr != "" {
		sc, err := statsd.New(addr)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to statsd at %q: %w", addr, err)
		}
		sc.SetLogger(log)
		opts = append(opts, cluster.WithStats(stats.StatsClient(sc)))
	}
	return nodes, opts, nil
}

// dial connects a Cluster from this command's flags.
func dial(cmd *cobra.Command) (*cluster.Cluster, error) {
	addrs, opts, err := clusterOptions(cmd)
	if err != nil {
		return nil, err
	}
	c, err := cluster.New(addrs, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// commandContext derives a context bounded by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	v := viper.New()
	_ = bindConfig(v, cmd.Flags())
	return context.WithTimeout(context.Background(), v.GetDuration("timeout"))
}
