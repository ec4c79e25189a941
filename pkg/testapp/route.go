package testapp

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const (
	// ContentType is sent with every canned response
	ContentType = "text/plain"

	// DefaultSlowDelay is how long the slow route blocks before answering
	DefaultSlowDelay = 100 * time.Millisecond
)

// Route names double as metric segments and mix keys, so they stay lowercase with underscores
const (
	IndexRoute    = "index"
	SlowRoute     = "slow"
	ErrorRoute    = "error"
	NotFoundRoute = "not_found"
)

// Route is a canned response bound to an exact request path.
type Route struct {
	Name       string
	Path       string // Path is empty for the not found route, which matches anything unrouted
	StatusCode int
	Body       []byte
	Slow       bool // Slow routes block for the handler's slow delay before responding
}

func (r *Route) String() string {
	path := r.Path
	if path == "" {
		path = "*"
	}
	return fmt.Sprintf("%s %s [%d]", r.Name, path, r.StatusCode)
}

// Table is an immutable set of routes keyed by exact path, with a fallback for everything else.
// Lookups are safe for concurrent use.
type Table struct {
	routes   []*Route
	byPath   map[string]*Route
	notFound *Route
}

var (
	indexRoute    = Route{Name: IndexRoute, Path: "/", StatusCode: fasthttp.StatusOK, Body: []byte("Hello from test app\n")}
	slowRoute     = Route{Name: SlowRoute, Path: "/slow", StatusCode: fasthttp.StatusOK, Body: []byte("Slow response\n"), Slow: true}
	errorRoute    = Route{Name: ErrorRoute, Path: "/error", StatusCode: fasthttp.StatusInternalServerError, Body: []byte("Error response\n")}
	notFoundRoute = Route{Name: NotFoundRoute, StatusCode: fasthttp.StatusNotFound, Body: []byte("Not found\n")}
)

// DefaultTable returns the four canned routes served by the fixture.
func DefaultTable() Table {
	// copies, so callers mutating a returned route or its body cannot change another table
	index, slow, errRoute, notFound := indexRoute.clone(), slowRoute.clone(), errorRoute.clone(), notFoundRoute.clone()
	return NewTable(notFound, index, slow, errRoute)
}

func (r Route) clone() *Route {
	r.Body = append([]byte(nil), r.Body...)
	return &r
}

// NewTable builds a table from routes. The fallback is returned for any path that is not an exact match.
// A later route with the same path replaces an earlier one.
func NewTable(fallback *Route, routes ...*Route) Table {
	t := Table{
		routes:   make([]*Route, 0, len(routes)),
		byPath:   make(map[string]*Route, len(routes)),
		notFound: fallback,
	}
	for _, r := range routes {
		if _, ok := t.byPath[r.Path]; !ok {
			t.routes = append(t.routes, r)
		} else {
			for i, v := range t.routes {
				if v.Path == r.Path {
					t.routes[i] = r
				}
			}
		}
		t.byPath[r.Path] = r
	}
	return t
}

// Lookup returns the route whose path equals path byte for byte, or the fallback route.
// There is no prefix matching and no trailing slash normalisation.
func (t Table) Lookup(path []byte) *Route {
	if r, ok := t.byPath[string(path)]; ok {
		return r
	}
	return t.notFound
}

// Routes returns the exact-match routes in insertion order followed by the fallback.
func (t Table) Routes() []*Route {
	ret := make([]*Route, 0, len(t.routes)+1)
	ret = append(ret, t.routes...)
	if t.notFound != nil {
		ret = append(ret, t.notFound)
	}
	return ret
}

// Named returns the route with the given name, including the fallback.
func (t Table) Named(name string) (*Route, bool) {
	for _, r := range t.Routes() {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// NotFound returns the fallback route.
func (t Table) NotFound() *Route {
	return t.notFound
}
