package testapp

import (
	"context"
	"time"

	"github.com/francoispqt/gojay"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/metricsfixture/testapp/pkg/metrics"
)

type routeCounters struct {
	route    *Route
	requests *metrics.Metric
	micros   *metrics.Metric
}

// Stats counts requests and handling time per route. Counters live in a metrics.Registry
// so they can be exposed as-is; they never influence a response.
type Stats struct {
	counters []*routeCounters
	byName   map[string]*routeCounters
	total    *metrics.Metric
	started  time.Time
}

// NewStats registers a requests counter and a duration counter for every route in the table.
// A nil registry gets a private one.
func NewStats(table Table, reg *metrics.Registry) *Stats {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	s := &Stats{
		byName:  make(map[string]*routeCounters),
		total:   reg.Counter("requests"),
		started: time.Now(),
	}
	for _, r := range table.Routes() {
		c := &routeCounters{
			route:    r,
			requests: reg.Counter("route." + r.Name + ".requests"),
			micros:   reg.Counter("route." + r.Name + ".duration_us"),
		}
		s.counters = append(s.counters, c)
		s.byName[r.Name] = c
	}
	return s
}

// Observe records one handled request. Unknown route names only count towards the total.
func (s *Stats) Observe(name string, took time.Duration) {
	s.total.Inc()
	if c, ok := s.byName[name]; ok {
		c.requests.Inc()
		c.micros.Add(int64(took / time.Microsecond))
	}
}

// Total is the number of requests observed across all routes.
func (s *Stats) Total() int64 {
	return s.total.Value()
}

// RouteStats is a point in time copy of the counters for one route.
type RouteStats struct {
	Name       string
	Path       string
	StatusCode int
	Requests   int64
	Duration   time.Duration
}

// Mean is the average handling time, 0 if nothing was handled.
func (r RouteStats) Mean() time.Duration {
	if r.Requests == 0 {
		return 0
	}
	return r.Duration / time.Duration(r.Requests)
}

func (r *RouteStats) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("name", r.Name)
	enc.StringKeyOmitEmpty("path", r.Path)
	enc.IntKey("status", r.StatusCode)
	enc.Int64Key("requests", r.Requests)
	enc.Int64Key("duration_us", int64(r.Duration/time.Microsecond))
	enc.Int64Key("mean_us", int64(r.Mean()/time.Microsecond))
}

func (r *RouteStats) IsNil() bool {
	return r == nil
}

// Snapshot is the state of all route counters, in table order.
type Snapshot struct {
	Uptime time.Duration
	Total  int64
	Routes []RouteStats
}

func (s *Snapshot) MarshalJSONObject(enc *gojay.Encoder) {
	enc.Int64Key("uptime_ms", int64(s.Uptime/time.Millisecond))
	enc.Int64Key("total", s.Total)
	enc.ArrayKey("routes", routeStatsSlice(s.Routes))
}

func (s *Snapshot) IsNil() bool {
	return s == nil
}

type routeStatsSlice []RouteStats

func (r routeStatsSlice) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range r {
		enc.Object(&r[i])
	}
}

func (r routeStatsSlice) IsNil() bool {
	return r == nil
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() Snapshot {
	ret := Snapshot{
		Uptime: time.Since(s.started),
		Total:  s.total.Value(),
		Routes: make([]RouteStats, 0, len(s.counters)),
	}
	for _, c := range s.counters {
		ret.Routes = append(ret.Routes, RouteStats{
			Name:       c.route.Name,
			Path:       c.route.Path,
			StatusCode: c.route.StatusCode,
			Requests:   c.requests.Value(),
			Duration:   time.Duration(c.micros.Value()) * time.Microsecond,
		})
	}
	return ret
}

// Report logs the total, the requests per second since the last report and the peak rate
// every interval until ctx is done.
func (s *Stats) Report(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	lastCount := s.Total()
	peak := float64(0)
	for {
		select {
		case <-ctx.Done():
			log.Info().Int64("total", s.Total()).Float64("peak_rps", peak).Msg("final request count")
			return
		case now := <-ticker.C:
			count := s.Total()
			rps := float64(count-lastCount) / now.Sub(last).Seconds()
			if rps > peak {
				peak = rps
			}
			log.Info().
				Int64("total", count).
				Int64("since_last", count-lastCount).
				Float64("rps", rps).
				Float64("peak_rps", peak).
				Msg("request stats")
			last, lastCount = now, count
		}
	}
}
