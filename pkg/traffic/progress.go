package traffic

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/vbauerster/mpb/v6"
	"github.com/vbauerster/mpb/v6/decor"
)

// Progress is told about every completed request.
type Progress interface {
	Incr(route string)
	// Finish is called once when the run ends, early or not
	Finish()
}

type NullProgress struct {
	hits int64
}

func (n *NullProgress) Incr(string) {
	atomic.AddInt64(&n.hits, 1)
}

func (n *NullProgress) Finish() {}

func (n *NullProgress) Hits() int64 {
	return atomic.LoadInt64(&n.hits)
}

var _ Progress = &NullProgress{}

// ProgressBar is a single spinner/counter over all requests. A max of -1 means the total is unknown.
type ProgressBar struct {
	Requests *progressbar.ProgressBar
}

func NewProgress(w io.Writer, max int64) *ProgressBar {
	return &ProgressBar{
		Requests: progressbar.NewOptions64(max,
			progressbar.OptionSetWriter(w),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(10),
			progressbar.OptionShowIts(),
			progressbar.OptionSetDescription("requests"),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(w, "\n")
			}),
			progressbar.OptionSetVisibility(true),
			progressbar.OptionSpinnerType(14),
		),
	}
}

func (b *ProgressBar) Incr(string) {
	b.Requests.Add64(1)
}

func (b *ProgressBar) Finish() {
	b.Requests.Finish()
}

var _ Progress = &ProgressBar{}

// RouteProgress draws one bar per route, sized by the expected share of the mix.
// Routes are drawn in the order given. Safe for concurrent use.
type RouteProgress struct {
	Pb *mpb.Progress

	mu   sync.Mutex
	bars map[string]*routeBar
}

type routeBar struct {
	bar     *mpb.Bar
	current int64
	total   int64
}

func NewRouteProgress(w io.Writer, routes []string, mix Mix, total int64) *RouteProgress {
	p := &RouteProgress{
		Pb:   mpb.New(mpb.WithOutput(w), mpb.WithRefreshRate(120*time.Millisecond)),
		bars: make(map[string]*routeBar),
	}
	weight := int64(mix.Total())
	for _, name := range routes {
		if mix[name] <= 0 {
			continue
		}
		expected := int64(1)
		if weight > 0 && total*int64(mix[name])/weight > 1 {
			expected = total * int64(mix[name]) / weight
		}
		p.bars[name] = &routeBar{
			total: expected,
			bar: p.Pb.AddBar(expected,
				mpb.PrependDecorators(decor.Name(name, decor.WC{W: 10, C: decor.DidentRight})),
				mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
			),
		}
	}
	return p
}

func (p *RouteProgress) Incr(route string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.bars[route]
	if !ok {
		return
	}
	b.current++
	// a random mix overshoots the expected share, so grow the bar rather than let it complete early
	if b.current >= b.total {
		b.total = b.current + 1
		b.bar.SetTotal(b.total, false)
	}
	b.bar.Increment()
}

// Finish completes every bar at its current count and waits for the final render.
func (p *RouteProgress) Finish() {
	p.mu.Lock()
	for _, b := range p.bars {
		b.bar.SetTotal(b.current, true)
	}
	p.mu.Unlock()
	p.Pb.Wait()
}

var _ Progress = &RouteProgress{}
