package cmd

import (
	"errors"
	"net"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-multierror"
	"github.com/manifoldco/promptui"
	"github.com/metricsfixture/testapp/pkg/context"
	errors2 "github.com/metricsfixture/testapp/pkg/errors"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/metricsfixture/testapp/pkg/testapp"
	"github.com/metricsfixture/testapp/pkg/traffic"
	"github.com/spf13/cobra"
)

var (
	requests       = traffic.DefaultRequests
	duration       = 0 * time.Second
	concurrency    = traffic.DefaultConcurrency
	trafficDelay   = traffic.DefaultDelay
	timeout        = traffic.DefaultTimeout
	mix            = traffic.DefaultMix().String()
	notFoundRegex  = traffic.DefaultNotFoundRegex
	verify         = true
	expectedDelay  = testapp.DefaultSlowDelay
	maxErrors      = traffic.DefaultMaxErrors
	seed           int64
	userAgent      = traffic.DefaultUserAgent
	junitFile      = ""
	progressBar    = true
	progressRoutes = false
	assumeYes      = false
	dumpConfig     = false
)

// trafficCmd represents the traffic command
var trafficCmd = &cobra.Command{
	Use:   "traffic HOST:PORT",
	Short: "send a mix of requests at a running fixture and verify the answers",
	Long: `traffic sends a weighted mix of requests at a running fixture.
Every answer is compared with the canned route table unless --verify=false.
The not_found share uses random paths generated from --not-found-regex.

Mix weights are name=weight pairs over the route names index, slow, error and not_found.

The command exits 1 when any request failed or did not match.

usage:
testapp traffic 127.0.0.1:8080
testapp traffic 127.0.0.1:8080 -n 10000 -c 32 --mix index=8,slow=1,error=1
testapp traffic 127.0.0.1:8080 --duration 1m -n 0 --junit report.xml
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		host := args[0]

		m, err := traffic.ParseMix(mix)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid mix")
		}

		if !assumeYes && !isLoopback(host) {
			prompt := promptui.Prompt{
				Label:     "Send traffic to non local host " + host + "? [y/n]",
				IsConfirm: true,
				Stdout:    os.Stderr,
			}
			v, err := prompt.Run()
			if err != nil || strings.ToLower(v) != "y" {
				log.Info().Msg("aborted")
				return
			}
		}

		opts := []traffic.ConfigOption{
			traffic.Host(host),
			traffic.Requests(requests),
			traffic.Duration(duration),
			traffic.Concurrency(concurrency),
			traffic.Delay(trafficDelay),
			traffic.Timeout(timeout),
			traffic.WithMix(m),
			traffic.NotFoundRegex(notFoundRegex),
			traffic.Verify(verify),
			traffic.SlowDelay(expectedDelay),
			traffic.MaxErrors(maxErrors),
			traffic.Seed(seed),
			traffic.UserAgent(userAgent),
		}

		showProgress := progressBar && !Quiet && log.GetLogFormat() != log.JSON
		if showProgress {
			if progressRoutes {
				names := make([]string, 0)
				for _, r := range testapp.DefaultTable().Routes() {
					names = append(names, r.Name)
				}
				opts = append(opts, traffic.AddProgressBar(traffic.NewRouteProgress(os.Stderr, names, m, int64(requests))))
			} else {
				max := int64(requests)
				if max == 0 {
					max = -1
				}
				opts = append(opts, traffic.AddProgressBar(traffic.NewProgress(os.Stderr, max)))
			}
		}

		e := traffic.NewEngine(opts...)
		if dumpConfig {
			log.Debug().Msg("traffic config\n" + spew.Sdump(e.Config()))
		}

		summary, err := e.Run(context.Context())
		if summary == nil {
			log.Fatal().Err(err).Msg("failed to run traffic")
		}
		if err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, v := range merr.Errors {
					errors2.PrintError(v, 0)
				}
			}
		}

		if log.GetLogFormat() == log.JSON {
			if err := summary.WriteJSON(os.Stdout); err != nil {
				log.Error().Err(err).Msg("failed to write summary")
			}
			os.Stdout.WriteString("\n")
		} else if !Quiet {
			summary.WriteTable(os.Stdout)
		}

		if junitFile != "" {
			if err := summary.WriteJUnitFile(junitFile); err != nil {
				log.Error().Err(err).Msg("failed to write junit report")
			} else {
				log.Info().Str("file", junitFile).Msg("wrote junit report")
			}
		}

		if !summary.OK() {
			log.Error().Msg("traffic did not match the route table")
			os.Exit(1)
		}
	},
}

func isLoopback(hostport string) bool {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return false
	}
	if host == "" || host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func init() {
	rootCmd.AddCommand(trafficCmd)

	trafficCmd.Flags().IntVarP(&requests, "requests", "n", requests, "total requests to send. 0 runs until --duration or interrupt")
	trafficCmd.Flags().DurationVar(&duration, "duration", duration, "stop after this long. 0 means no limit")
	trafficCmd.Flags().IntVarP(&concurrency, "concurrency", "c", concurrency, "number of concurrent workers")
	trafficCmd.Flags().DurationVar(&trafficDelay, "delay", trafficDelay, "delay between two requests of one worker")
	trafficCmd.Flags().DurationVarP(&timeout, "timeout", "t", timeout, "timeout for each request")
	trafficCmd.Flags().StringVar(&mix, "mix", mix, "route weights, e.g. index=4,slow=1,error=1,not_found=1")
	trafficCmd.Flags().StringVar(&notFoundRegex, "not-found-regex", notFoundRegex, "regex generating paths for the not_found share")
	trafficCmd.Flags().BoolVar(&verify, "verify", verify, "compare every answer with the route table")
	trafficCmd.Flags().DurationVar(&expectedDelay, "slow-delay", expectedDelay, "least latency accepted from /slow when verifying")
	trafficCmd.Flags().IntVar(&maxErrors, "max-errors", maxErrors, "how many mismatches to keep and print")
	trafficCmd.Flags().Int64Var(&seed, "seed", seed, "seed for the route sequence. 0 seeds from the clock")
	trafficCmd.Flags().StringVar(&userAgent, "user-agent", userAgent, "user agent to use for requests")
	trafficCmd.Flags().StringVar(&junitFile, "junit", junitFile, "write a junit xml report to this file")
	trafficCmd.Flags().BoolVar(&progressBar, "progress", progressBar, "show a progress bar on stderr")
	trafficCmd.Flags().BoolVar(&progressRoutes, "progress-routes", progressRoutes, "show one progress bar per route instead of a single counter")
	trafficCmd.Flags().BoolVarP(&assumeYes, "yes", "y", assumeYes, "do not ask before sending traffic to a non loopback host")
	trafficCmd.Flags().BoolVar(&dumpConfig, "dump-config", dumpConfig, "dump the resolved traffic config at debug level")
}
