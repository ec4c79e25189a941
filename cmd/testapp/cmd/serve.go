package cmd

import (
	stdcontext "context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/metricsfixture/testapp/pkg/context"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/metricsfixture/testapp/pkg/metrics"
	"github.com/metricsfixture/testapp/pkg/server"
	"github.com/metricsfixture/testapp/pkg/testapp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/valyala/fasthttp"
)

var (
	serveAddrs    = []string{":8080"}
	slowDelay     = testapp.DefaultSlowDelay
	adminAddr     = ""
	statsInterval = 0 * time.Second

	promPrefix    = metrics.DefaultPrefix
	promNoHelp    = false
	promNoType    = false
	promNoWorkers = false
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve [ -a :8080 ]",
	Short: "serve the canned routes",
	Long: `serve the fixture routes on one or more addresses.

| path   | status | body                  |
| /      | 200    | Hello from test app\n |
| /slow  | 200    | Slow response\n       | after --slow-delay
| /error | 500    | Error response\n      |
| other  | 404    | Not found\n           |

Paths are matched exactly, /slow/ is a 404.
With --admin-addr, a separate listener serves /metrics (prometheus text format), /stats (json) and /healthz

usage:
testapp serve
testapp serve -a :8080 -a :8081 --slow-delay 250ms
testapp serve --admin-addr 127.0.0.1:9091 --stats-interval 5s
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			addrs    = viper.GetStringSlice("addr")
			delay    = viper.GetDuration("slow-delay")
			admin    = viper.GetString("admin-addr")
			interval = viper.GetDuration("stats-interval")
			promOpts = metrics.Options{
				Prefix:    viper.GetString("prometheus-prefix"),
				NoHelp:    viper.GetBool("prometheus-no-help"),
				NoType:    viper.GetBool("prometheus-no-type"),
				NoWorkers: viper.GetBool("prometheus-no-workers"),
			}
		)

		reg := metrics.NewRegistry()
		table := testapp.DefaultTable()
		stats := testapp.NewStats(table, reg)
		reg.Gauge("slow.delay_ms").Set(int64(delay / time.Millisecond))
		h := testapp.NewHandler(testapp.WithTable(table), testapp.SlowDelay(delay), testapp.WithStats(stats))

		ctx := context.Context()
		log.Info().
			Strs("addr", addrs).
			Dur("slow-delay", h.SlowDelay()).
			Str("admin-addr", admin).
			Msg("starting fixture")
		for _, r := range table.Routes() {
			log.Debug().Str("route", r.String()).Msg("route loaded")
		}

		if interval > 0 {
			go stats.Report(ctx, interval)
		}

		if err := serveAll(ctx, addrs, h.ServeFastHTTP, admin, server.Admin(stats, reg, promOpts), server.WithRegistry(reg)); err != nil {
			log.Fatal().Err(err).Msg("failed to serve")
		}
	},
}

// serveAll runs the fixture listeners and, when adminAddr is set, the admin listener.
// Either one failing stops the other and the error is returned.
func serveAll(ctx stdcontext.Context, addrs []string, handler fasthttp.RequestHandler, adminAddr string, admin fasthttp.RequestHandler, opts ...server.ConfigOption) error {
	ctx, cancel := stdcontext.WithCancel(ctx)
	defer cancel()

	adminErr := make(chan error, 1)
	if adminAddr != "" {
		go func() {
			err := server.Serve(ctx, []string{adminAddr}, admin, server.Name("testapp-admin"))
			if err != nil {
				err = fmt.Errorf("admin listener: %w", err)
			}
			adminErr <- err
			cancel()
		}()
	}

	var merr *multierror.Error
	if err := server.Serve(ctx, addrs, handler, opts...); err != nil {
		merr = multierror.Append(merr, err)
	}
	cancel()
	if adminAddr != "" {
		if err := <-adminErr; err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringSliceVarP(&serveAddrs, "addr", "a", serveAddrs, "address to listen on. can be repeated to listen on several ports")
	serveCmd.Flags().DurationVar(&slowDelay, "slow-delay", slowDelay, "how long /slow blocks before responding")
	serveCmd.Flags().StringVar(&adminAddr, "admin-addr", adminAddr, "address for the admin listener serving /metrics, /stats and /healthz. disabled when empty")
	serveCmd.Flags().DurationVar(&statsInterval, "stats-interval", statsInterval, "log request rates at this interval. 0 disables")

	serveCmd.Flags().StringVar(&promPrefix, "prometheus-prefix", promPrefix, "prefix for exposed metric names")
	serveCmd.Flags().BoolVar(&promNoHelp, "prometheus-no-help", promNoHelp, "disable HELP comments in /metrics")
	serveCmd.Flags().BoolVar(&promNoType, "prometheus-no-type", promNoType, "disable TYPE comments in /metrics")
	serveCmd.Flags().BoolVar(&promNoWorkers, "prometheus-no-workers", promNoWorkers, "skip per listener metrics in /metrics")

	for _, name := range []string{"addr", "slow-delay", "admin-addr", "stats-interval",
		"prometheus-prefix", "prometheus-no-help", "prometheus-no-type", "prometheus-no-workers"} {
		viper.BindPFlag(name, serveCmd.Flags().Lookup(name))
	}
}
