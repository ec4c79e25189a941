package server

import (
	"github.com/fasthttp/router"
	"github.com/francoispqt/gojay"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/metricsfixture/testapp/pkg/metrics"
	"github.com/metricsfixture/testapp/pkg/testapp"
	"github.com/valyala/fasthttp"
)

// Admin returns the handler for the admin listener: /metrics in Prometheus text format,
// /stats as JSON and /healthz. It runs on its own address so the fixture's routes are untouched.
func Admin(stats *testapp.Stats, reg *metrics.Registry, opts metrics.Options) fasthttp.RequestHandler {
	r := router.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.GET("/metrics", func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType(metrics.ContentType)
		if err := reg.WritePrometheus(ctx, opts); err != nil {
			log.Error().Err(err).Msg("failed to write metrics")
			ctx.Error("failed to write metrics\n", fasthttp.StatusInternalServerError)
		}
	})

	r.GET("/stats", func(ctx *fasthttp.RequestCtx) {
		snap := stats.Snapshot()
		ctx.SetContentType("application/json")
		enc := gojay.BorrowEncoder(ctx)
		defer enc.Release()
		if err := enc.EncodeObject(&snap); err != nil {
			log.Error().Err(err).Msg("failed to encode stats")
			ctx.Error("failed to encode stats\n", fasthttp.StatusInternalServerError)
		}
	})

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("text/plain")
		ctx.WriteString("ok\n")
	})

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		ctx.Error("Not found\n", fasthttp.StatusNotFound)
	}

	return r.Handler
}
