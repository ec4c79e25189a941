package testapp

import (
	"time"

	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/valyala/fasthttp"
)

// Handler serves the canned routes of a Table. It holds no mutable state besides the
// optional Stats counters, so one handler can serve any number of listeners.
type Handler struct {
	table     Table
	slowDelay time.Duration
	stats     *Stats
}

type Option func(*Handler)

// SlowDelay sets how long slow routes block before responding. Negative values are treated as 0.
func SlowDelay(d time.Duration) Option {
	return func(h *Handler) {
		if d < 0 {
			d = 0
		}
		h.slowDelay = d
	}
}

// WithStats records every handled request in s.
func WithStats(s *Stats) Option {
	return func(h *Handler) {
		h.stats = s
	}
}

// WithTable replaces the default route table.
func WithTable(t Table) Option {
	return func(h *Handler) {
		h.table = t
	}
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		table:     DefaultTable(),
		slowDelay: DefaultSlowDelay,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) Table() Table {
	return h.table
}

func (h *Handler) SlowDelay() time.Duration {
	return h.slowDelay
}

// Respond resolves path against the table, sleeping first if the route is slow.
// The sleep is not cancellable.
func (h *Handler) Respond(path []byte) *Route {
	r := h.table.Lookup(path)
	if r.Slow && h.slowDelay > 0 {
		time.Sleep(h.slowDelay)
	}
	return r
}

// ServeFastHTTP is a fasthttp.RequestHandler. The request method is not inspected and the path is
// matched as sent, before fasthttp's path normalisation.
func (h *Handler) ServeFastHTTP(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := ctx.URI().PathOriginal()
	r := h.Respond(path)

	ctx.SetStatusCode(r.StatusCode)
	ctx.SetContentType(ContentType)
	ctx.SetBody(r.Body)

	took := time.Since(start)
	if h.stats != nil {
		h.stats.Observe(r.Name, took)
	}
	log.Trace().
		Bytes("method", ctx.Method()).
		Bytes("path", path).
		Str("route", r.Name).
		Int("status", r.StatusCode).
		Dur("took", took).
		Msg("served")
}
