package benchmark

import (
	"io/ioutil"
	"testing"

	"github.com/metricsfixture/testapp/pkg/metrics"
	"github.com/metricsfixture/testapp/pkg/testapp"
	"github.com/metricsfixture/testapp/pkg/traffic"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func BenchmarkHandler(b *testing.B) {
	tests := []struct {
		name string
		path string
	}{
		{"index", "/"},
		{"error", "/error"},
		{"notfound", "/some/unrouted/path"},
	}
	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			h := testapp.NewHandler(testapp.WithStats(testapp.NewStats(testapp.DefaultTable(), nil)))
			var ctx fasthttp.RequestCtx
			ctx.Request.SetRequestURI(tt.path)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ctx.Response.Reset()
				h.ServeFastHTTP(&ctx)
			}
		})
	}
}

func BenchmarkLookup(b *testing.B) {
	table := testapp.DefaultTable()
	paths := [][]byte{[]byte("/"), []byte("/slow"), []byte("/error"), []byte("/missing")}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		table.Lookup(paths[i%len(paths)])
	}
}

func BenchmarkWritePrometheus(b *testing.B) {
	reg := metrics.NewRegistry()
	stats := testapp.NewStats(testapp.DefaultTable(), reg)
	for i := 1; i <= 8; i++ {
		reg.Counter("worker." + string(rune('0'+i)) + ".requests").Add(int64(i))
	}
	stats.Observe(testapp.IndexRoute, 0)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		err := reg.WritePrometheus(ioutil.Discard, metrics.DefaultOptions())
		assert.Nil(b, err)
	}
}

func BenchmarkPicker(b *testing.B) {
	p, err := traffic.NewPicker(testapp.DefaultTable(), traffic.DefaultMix(), traffic.DefaultNotFoundRegex, 1)
	assert.Nil(b, err)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Next()
	}
}
