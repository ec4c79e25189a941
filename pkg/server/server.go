package server

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/metricsfixture/testapp/pkg/metrics"
	"github.com/valyala/fasthttp"
)

const (
	DefaultName         = "testapp"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

type Config struct {
	Name         string        `toml:"name" json:"name" mapstructure:"name"`
	ReadTimeout  time.Duration `toml:"read_timeout" json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" json:"write_timeout" mapstructure:"write_timeout"`
	// Registry receives a worker.<n>.requests counter per listener, numbered from 1 in address order
	Registry *metrics.Registry
}

func NewDefaultConfig() *Config {
	return &Config{
		Name:         DefaultName,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

type ConfigOption func(*Config)

func Name(n string) ConfigOption {
	return func(c *Config) {
		c.Name = n
	}
}

func Timeouts(read, write time.Duration) ConfigOption {
	return func(c *Config) {
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}

func WithRegistry(r *metrics.Registry) ConfigOption {
	return func(c *Config) {
		c.Registry = r
	}
}

// Serve listens on every address and serves handler on each until ctx is done.
// Every address is bound before any serving starts, so a bad address fails fast and nothing is left listening.
// If one listener fails while serving, the others are shut down and the error is returned.
func Serve(ctx context.Context, addrs []string, handler fasthttp.RequestHandler, opts ...ConfigOption) error {
	if len(addrs) == 0 {
		return fmt.Errorf("no listen addresses")
	}

	lns := make([]net.Listener, 0, len(addrs))
	for _, addr := range addrs {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			for _, v := range lns {
				v.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		lns = append(lns, ln)
	}
	return ServeListeners(ctx, lns, handler, opts...)
}

// ServeListeners serves handler on already bound listeners until ctx is done.
func ServeListeners(ctx context.Context, lns []net.Listener, handler fasthttp.RequestHandler, opts ...ConfigOption) error {
	config := NewDefaultConfig()
	for _, o := range opts {
		o(config)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		errLock sync.Mutex
		merr    *multierror.Error
	)
	servers := make([]*fasthttp.Server, 0, len(lns))
	conns := newConnTracker()
	for i, ln := range lns {
		h := handler
		if config.Registry != nil {
			h = countRequests(config.Registry.Counter("worker."+strconv.Itoa(i+1)+".requests"), handler)
		}
		s := &fasthttp.Server{
			Handler:         h,
			Name:            config.Name,
			ReadTimeout:     config.ReadTimeout,
			WriteTimeout:    config.WriteTimeout,
			CloseOnShutdown: true,
			ConnState:       conns.track,
		}
		servers = append(servers, s)

		wg.Add(1)
		go func(s *fasthttp.Server, ln net.Listener) {
			defer wg.Done()
			log.Info().Str("addr", ln.Addr().String()).Msg("listening")
			if err := s.Serve(ln); err != nil {
				select {
				case <-ctx.Done():
					// closed by shutdown
				default:
					errLock.Lock()
					merr = multierror.Append(merr, fmt.Errorf("serving %s: %w", ln.Addr(), err))
					errLock.Unlock()
					cancel()
				}
			}
		}(s, ln)
	}

	<-ctx.Done()
	// Shutdown waits for every open connection, so idle keep-alive clients are dropped first
	if n := conns.closeIdle(); n > 0 {
		log.Debug().Int("connections", n).Msg("closed idle connections")
	}
	for _, s := range servers {
		if err := s.Shutdown(); err != nil {
			log.Debug().Err(err).Msg("shutdown")
		}
	}
	// Shutdown only knows listeners that Serve already picked up
	for _, ln := range lns {
		ln.Close()
	}
	wg.Wait()
	log.Info().Int("listeners", len(lns)).Msg("servers stopped")

	return merr.ErrorOrNil()
}

// connTracker follows connection states across all servers so idle keep-alive
// connections can be closed on shutdown. In flight requests are left to finish.
type connTracker struct {
	mu      sync.Mutex
	closing bool
	conns   map[net.Conn]fasthttp.ConnState
}

func newConnTracker() *connTracker {
	return &connTracker{conns: make(map[net.Conn]fasthttp.ConnState)}
}

func (t *connTracker) track(c net.Conn, state fasthttp.ConnState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch state {
	case fasthttp.StateClosed, fasthttp.StateHijacked:
		delete(t.conns, c)
		return
	case fasthttp.StateIdle:
		if t.closing {
			delete(t.conns, c)
			c.Close()
			return
		}
	}
	t.conns[c] = state
}

// closeIdle closes every connection not inside a request and returns how many were closed.
func (t *connTracker) closeIdle() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closing = true
	closed := 0
	for c, state := range t.conns {
		if state == fasthttp.StateIdle || state == fasthttp.StateNew {
			delete(t.conns, c)
			c.Close()
			closed++
		}
	}
	return closed
}

func countRequests(c *metrics.Metric, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		c.Inc()
		next(ctx)
	}
}
