package traffic

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/francoispqt/gojay"
	"github.com/olekukonko/tablewriter"
)

// RouteSummary aggregates every request planned for one route.
type RouteSummary struct {
	Route      string
	Path       string // Path is the route path, * for the fallback
	Sent       int64
	Matched    int64 // Matched counts answers equal to the canned response. Always 0 without verification
	Mismatched int64
	Failed     int64 // Failed counts requests without an answer
	Bytes      int64
	Statuses   map[int]int64
	Min        time.Duration
	Max        time.Duration
	Total      time.Duration
}

func (r *RouteSummary) Mean() time.Duration {
	answered := r.Sent - r.Failed
	if answered <= 0 {
		return 0
	}
	return r.Total / time.Duration(answered)
}

func (r *RouteSummary) observe(status int, took time.Duration, size int) {
	if r.Statuses == nil {
		r.Statuses = make(map[int]int64)
	}
	r.Statuses[status]++
	r.Bytes += int64(size)
	r.Total += took
	if r.Min == 0 || took < r.Min {
		r.Min = took
	}
	if took > r.Max {
		r.Max = took
	}
}

// StatusString renders the status histogram ordered by status code, e.g. 200x3 404x1.
func (r *RouteSummary) StatusString() string {
	codes := make([]int, 0, len(r.Statuses))
	for k := range r.Statuses {
		codes = append(codes, k)
	}
	sort.Ints(codes)
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		parts = append(parts, strconv.Itoa(c)+"x"+strconv.FormatInt(r.Statuses[c], 10))
	}
	return strings.Join(parts, " ")
}

func (r *RouteSummary) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("route", r.Route)
	enc.StringKey("path", r.Path)
	enc.Int64Key("sent", r.Sent)
	enc.Int64Key("matched", r.Matched)
	enc.Int64Key("mismatched", r.Mismatched)
	enc.Int64Key("failed", r.Failed)
	enc.Int64Key("bytes", r.Bytes)
	enc.ObjectKey("statuses", statusMap(r.Statuses))
	enc.Int64Key("min_us", int64(r.Min/time.Microsecond))
	enc.Int64Key("mean_us", int64(r.Mean()/time.Microsecond))
	enc.Int64Key("max_us", int64(r.Max/time.Microsecond))
}

func (r *RouteSummary) IsNil() bool {
	return r == nil
}

type statusMap map[int]int64

func (s statusMap) MarshalJSONObject(enc *gojay.Encoder) {
	codes := make([]int, 0, len(s))
	for k := range s {
		codes = append(codes, k)
	}
	sort.Ints(codes)
	for _, c := range codes {
		enc.Int64Key(strconv.Itoa(c), s[c])
	}
}

func (s statusMap) IsNil() bool {
	return s == nil
}

// Summary is the outcome of a traffic run. It is safe for concurrent recording.
type Summary struct {
	RunID     string
	Host      string
	Verified  bool
	Started   time.Time
	Elapsed   time.Duration
	Cancelled bool

	mu     sync.Mutex
	routes []*RouteSummary
	byName map[string]*RouteSummary
}

func newSummary(runID, host string, verified bool, routes []*RouteSummary) *Summary {
	s := &Summary{
		RunID:    runID,
		Host:     host,
		Verified: verified,
		Started:  time.Now(),
		routes:   routes,
		byName:   make(map[string]*RouteSummary, len(routes)),
	}
	for _, r := range routes {
		s.byName[r.Route] = r
	}
	return s
}

// record adds one request outcome. status 0 with failed set means no answer was received.
func (s *Summary) record(route string, status int, took time.Duration, size int, failed, mismatched bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byName[route]
	if !ok {
		r = &RouteSummary{Route: route}
		s.byName[route] = r
		s.routes = append(s.routes, r)
	}
	r.Sent++
	switch {
	case failed:
		r.Failed++
		return
	case mismatched:
		r.Mismatched++
	case s.Verified:
		r.Matched++
	}
	r.observe(status, took, size)
}

// Routes returns copies of the per route summaries in table order.
func (s *Summary) Routes() []RouteSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]RouteSummary, 0, len(s.routes))
	for _, r := range s.routes {
		c := *r
		c.Statuses = make(map[int]int64, len(r.Statuses))
		for k, v := range r.Statuses {
			c.Statuses[k] = v
		}
		ret = append(ret, c)
	}
	return ret
}

func (s *Summary) Route(name string) (RouteSummary, bool) {
	for _, r := range s.Routes() {
		if r.Route == name {
			return r, true
		}
	}
	return RouteSummary{}, false
}

// Totals sums every route.
func (s *Summary) Totals() RouteSummary {
	total := RouteSummary{Route: "total", Statuses: make(map[int]int64)}
	for _, r := range s.Routes() {
		total.Sent += r.Sent
		total.Matched += r.Matched
		total.Mismatched += r.Mismatched
		total.Failed += r.Failed
		total.Bytes += r.Bytes
		total.Total += r.Total
		if r.Min != 0 && (total.Min == 0 || r.Min < total.Min) {
			total.Min = r.Min
		}
		if r.Max > total.Max {
			total.Max = r.Max
		}
		for k, v := range r.Statuses {
			total.Statuses[k] += v
		}
	}
	return total
}

// RPS is the overall request rate.
func (s *Summary) RPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Totals().Sent) / s.Elapsed.Seconds()
}

// OK reports whether every request was answered and, when verifying, matched.
func (s *Summary) OK() bool {
	t := s.Totals()
	return t.Failed == 0 && t.Mismatched == 0
}

type routeSummarySlice []RouteSummary

func (r routeSummarySlice) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range r {
		enc.Object(&r[i])
	}
}

func (r routeSummarySlice) IsNil() bool {
	return r == nil
}

func (s *Summary) MarshalJSONObject(enc *gojay.Encoder) {
	totals := s.Totals()
	enc.StringKey("run", s.RunID)
	enc.StringKey("host", s.Host)
	enc.BoolKey("verified", s.Verified)
	enc.BoolKey("cancelled", s.Cancelled)
	enc.Int64Key("elapsed_ms", int64(s.Elapsed/time.Millisecond))
	enc.Float64Key("rps", s.RPS())
	enc.ArrayKey("routes", routeSummarySlice(s.Routes()))
	enc.ObjectKey("total", &totals)
}

func (s *Summary) IsNil() bool {
	return s == nil
}

// WriteJSON encodes the summary with gojay.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := gojay.BorrowEncoder(w)
	defer enc.Release()
	return enc.EncodeObject(s)
}

func fmtDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(10 * time.Microsecond).String()
}

// WriteTable renders the summary as a table, one row per route plus a total row.
func (s *Summary) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	header := []string{"route", "path", "sent", "statuses", "min", "mean", "max", "bytes"}
	if s.Verified {
		header = append(header, "matched", "mismatched")
	}
	header = append(header, "failed")
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	row := func(r RouteSummary) []string {
		ret := []string{
			r.Route,
			r.Path,
			humanize.Comma(r.Sent),
			r.StatusString(),
			fmtDuration(r.Min),
			fmtDuration(r.Mean()),
			fmtDuration(r.Max),
			humanize.Bytes(uint64(r.Bytes)),
		}
		if s.Verified {
			ret = append(ret, humanize.Comma(r.Matched), humanize.Comma(r.Mismatched))
		}
		return append(ret, humanize.Comma(r.Failed))
	}
	for _, r := range s.Routes() {
		table.Append(row(r))
	}
	table.SetFooter(row(s.Totals()))
	table.Render()

	fmt.Fprintf(w, "run %s against %s: %s requests in %s (%.1f req/s)\n",
		s.RunID, s.Host, humanize.Comma(s.Totals().Sent), fmtDuration(s.Elapsed), s.RPS())
}
