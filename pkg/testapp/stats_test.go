package testapp

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/francoispqt/gojay"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/stretchr/testify/assert"
)

func TestStats_Observe(t *testing.T) {
	s := NewStats(DefaultTable(), nil)
	s.Observe(SlowRoute, 100*time.Millisecond)
	s.Observe(SlowRoute, 300*time.Millisecond)
	s.Observe("unknown", time.Second)

	assert.Equal(t, int64(3), s.Total())
	snap := s.Snapshot()
	for _, r := range snap.Routes {
		if r.Name != SlowRoute {
			assert.Equal(t, int64(0), r.Requests, r.Name)
			continue
		}
		assert.Equal(t, int64(2), r.Requests)
		assert.Equal(t, 400*time.Millisecond, r.Duration)
		assert.Equal(t, 200*time.Millisecond, r.Mean())
	}
}

func TestRouteStats_MeanEmpty(t *testing.T) {
	assert.Equal(t, time.Duration(0), RouteStats{}.Mean())
}

func TestSnapshot_MarshalJSONObject(t *testing.T) {
	snap := Snapshot{
		Uptime: 2 * time.Second,
		Total:  3,
		Routes: []RouteStats{
			{Name: IndexRoute, Path: "/", StatusCode: 200, Requests: 2, Duration: 4 * time.Microsecond},
			{Name: NotFoundRoute, StatusCode: 404, Requests: 1, Duration: time.Microsecond},
		},
	}
	b, err := gojay.MarshalJSONObject(&snap)
	assert.Nil(t, err)
	assert.Equal(t,
		`{"uptime_ms":2000,"total":3,"routes":[`+
			`{"name":"index","path":"/","status":200,"requests":2,"duration_us":4,"mean_us":2},`+
			`{"name":"not_found","status":404,"requests":1,"duration_us":1,"mean_us":1}]}`,
		string(b))
}

func TestStats_Report(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(nil)

	s := NewStats(DefaultTable(), nil)
	s.Observe(IndexRoute, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	s.Report(ctx, 10*time.Millisecond)

	assert.Contains(t, buf.String(), "request stats")
	assert.Contains(t, buf.String(), "final request count")
}
