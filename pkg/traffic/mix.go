package traffic

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lucasjones/reggen"
	"github.com/metricsfixture/testapp/pkg/testapp"
)

// Mix weights the route names of a table. A route with weight 3 is picked three times as often as one with weight 1.
type Mix map[string]int

func DefaultMix() Mix {
	return Mix{
		testapp.IndexRoute:    5,
		testapp.SlowRoute:     1,
		testapp.ErrorRoute:    2,
		testapp.NotFoundRoute: 2,
	}
}

// ParseMix parses name=weight pairs separated by commas, e.g. index=4,slow=1.
// A bare name has weight 1.
func ParseMix(s string) (Mix, error) {
	m := Mix{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		name := strings.TrimSpace(kv[0])
		weight := 1
		if len(kv) == 2 {
			w, err := strconv.Atoi(strings.TrimSpace(kv[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid weight for %q: %w", name, err)
			}
			if w < 0 {
				return nil, fmt.Errorf("negative weight for %q", name)
			}
			weight = w
		}
		m[name] += weight
	}
	if m.Total() == 0 {
		return nil, fmt.Errorf("mix %q has no weight", s)
	}
	return m, nil
}

func (m Mix) Total() int {
	total := 0
	for _, w := range m {
		total += w
	}
	return total
}

func (m Mix) String() string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, k+"="+strconv.Itoa(m[k]))
	}
	return strings.Join(parts, ",")
}

// Expectation is one planned request: the path to send and the route that should answer it.
type Expectation struct {
	Path  string
	Route *testapp.Route
}

type weightedRoute struct {
	route *testapp.Route
	upTo  int // cumulative weight
}

// Picker draws requests from a mix. It is not safe for concurrent use; every worker gets its own.
type Picker struct {
	table    testapp.Table
	routes   []weightedRoute
	total    int
	rand     *rand.Rand
	notFound *reggen.Generator
}

// NewPicker walks the table in order so a fixed seed always gives the same sequence.
func NewPicker(table testapp.Table, mix Mix, notFoundRegex string, seed int64) (*Picker, error) {
	p := &Picker{
		table: table,
		rand:  rand.New(rand.NewSource(seed)),
	}
	for _, r := range table.Routes() {
		w := mix[r.Name]
		if w <= 0 {
			continue
		}
		p.total += w
		p.routes = append(p.routes, weightedRoute{route: r, upTo: p.total})
	}
	if p.total == 0 {
		return nil, fmt.Errorf("mix %s matches no route", mix)
	}

	if notFoundRegex != "" {
		g, err := reggen.NewGenerator(notFoundRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid not found regex %q: %w", notFoundRegex, err)
		}
		p.notFound = g
	}
	return p, nil
}

// Next returns the next request to send.
func (p *Picker) Next() Expectation {
	n := p.rand.Intn(p.total)
	i := sort.Search(len(p.routes), func(i int) bool { return p.routes[i].upTo > n })
	r := p.routes[i].route
	if r.Path != "" {
		return Expectation{Path: r.Path, Route: r}
	}
	return Expectation{Path: p.unroutedPath(), Route: r}
}

// unroutedPath returns a path that falls through to the table's fallback and survives
// client side path normalisation unchanged.
func (p *Picker) unroutedPath() string {
	if p.notFound != nil {
		for attempt := 0; attempt < 10; attempt++ {
			candidate := p.notFound.Generate(8)
			if plainPath(candidate) && p.table.Lookup([]byte(candidate)) == p.table.NotFound() {
				return candidate
			}
		}
	}
	return "/" + strings.Replace(uuid.New().String(), "-", "", -1)[0:16]
}

// plainPath reports whether path is absolute, has no empty or dot segments and no characters needing escaping
func plainPath(path string) bool {
	if len(path) < 2 || path[0] != '/' {
		return false
	}
	for _, seg := range strings.Split(path[1:], "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.' || c == '~') {
				return false
			}
		}
	}
	return true
}
