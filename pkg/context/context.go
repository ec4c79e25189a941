package context

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/metricsfixture/testapp/pkg/log"
)

var (
	ctx            context.Context
	cancel         context.CancelFunc
	ctxInitialized sync.Once
)

// WithInterrupt derives a context from parent that is cancelled on the first SIGINT or SIGTERM.
// A second signal terminates the process with exit code 1, for listeners that will not drain.
// The returned stop func releases the signal handler.
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	c, cancelFunc := context.WithCancel(parent)
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sig)
		interrupts := 0
		for {
			select {
			case s := <-sig:
				interrupts++
				if interrupts > 1 {
					log.Info().Msg("received second signal, exiting without draining")
					os.Exit(1)
				}
				log.Info().Str("signal", s.String()).Msg("shutting down")
				cancelFunc()
			case <-c.Done():
				if interrupts == 0 {
					return
				}
				// a second signal still forces the exit while listeners drain
				<-sig
				log.Info().Msg("received second signal, exiting without draining")
				os.Exit(1)
			}
		}
	}()
	return c, cancelFunc
}

// Context returns the process wide context, cancelled on interrupt. Safe for concurrent use.
func Context() context.Context {
	ctxInitialized.Do(func() {
		ctx, cancel = WithInterrupt(context.Background())
	})
	return ctx
}

// Cancel cancels the process wide context.
func Cancel() {
	Context()
	cancel()
}
