package metrics

import (
	"io"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasttemplate"
)

// DefaultPrefix is prepended to every exposed metric name
const DefaultPrefix = "testapp_"

// ContentType is the Prometheus text exposition content type
const ContentType = "text/plain; version=0.0.4"

// numeric segments of a dotted name become labels with these names, in order
var labelNames = [...]string{"worker", "core", "thread", "id"}

var (
	helpTemplate = fasttemplate.New("# HELP {name} {help}\n", "{", "}")
	typeTemplate = fasttemplate.New("# TYPE {name} {type}\n", "{", "}")
)

// Options control the Prometheus text exposition.
type Options struct {
	Prefix    string `toml:"prefix" json:"prefix" mapstructure:"prefix"`
	NoHelp    bool   `toml:"no_help" json:"no_help" mapstructure:"no_help"`
	NoType    bool   `toml:"no_type" json:"no_type" mapstructure:"no_type"`
	NoWorkers bool   `toml:"no_workers" json:"no_workers" mapstructure:"no_workers"` // NoWorkers skips metrics named worker.*
}

// DefaultOptions returns options with the default prefix and both HELP and TYPE lines enabled.
func DefaultOptions() Options {
	return Options{Prefix: DefaultPrefix}
}

func validNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// appendName writes the exposed name and label set for a dotted metric name.
// It returns false when the dotted name has no non-numeric segment and so cannot be named.
func appendName(name, labels *bytebufferpool.ByteBuffer, prefix, dotted string) bool {
	name.WriteString(prefix)
	named := false
	labelIndex := 0
	for _, seg := range strings.Split(dotted, ".") {
		if seg == "" {
			continue
		}
		if isNumeric(seg) {
			if labelIndex < len(labelNames) {
				if labels.Len() > 0 {
					labels.WriteByte(',')
				}
				labels.WriteString(labelNames[labelIndex])
				labels.WriteString(`="`)
				labels.WriteString(seg)
				labels.WriteByte('"')
				labelIndex++
			}
			continue
		}

		// the prefix is used verbatim, so only segments after the first are joined with _
		if named {
			name.WriteByte('_')
		}
		for i := 0; i < len(seg); i++ {
			if validNameByte(seg[i]) {
				name.WriteByte(seg[i])
			} else {
				name.WriteByte('_')
			}
		}
		named = true
	}
	return named
}

// FormatName converts a dotted name into a Prometheus metric name and label set, e.g.
// worker.2.requests with prefix testapp_ becomes testapp_worker_requests and worker="2".
// Characters outside [A-Za-z0-9_] become underscores. At most four numeric segments become labels,
// named worker, core, thread and id; further numeric segments are dropped.
func FormatName(prefix, dotted string) (name string, labels string) {
	n, l := bytebufferpool.Get(), bytebufferpool.Get()
	defer bytebufferpool.Put(n)
	defer bytebufferpool.Put(l)
	if !appendName(n, l, prefix, dotted) {
		return "", ""
	}
	return n.String(), l.String()
}

// WritePrometheus writes every registered metric in text exposition format.
// Counters get a _total suffix. HELP and TYPE lines are written once per exposed name.
func (r *Registry) WritePrometheus(w io.Writer, opts Options) error {
	out := bytebufferpool.Get()
	name := bytebufferpool.Get()
	labels := bytebufferpool.Get()
	defer func() {
		bytebufferpool.Put(out)
		bytebufferpool.Put(name)
		bytebufferpool.Put(labels)
	}()

	seen := make(map[string]struct{})
	for _, m := range r.Metrics() {
		if opts.NoWorkers && strings.HasPrefix(m.name, "worker.") {
			continue
		}

		name.Reset()
		labels.Reset()
		if !appendName(name, labels, opts.Prefix, m.name) {
			continue
		}
		if m.kind == KindCounter {
			name.WriteString("_total")
		}

		exposed := name.String()
		if _, ok := seen[exposed]; !ok {
			seen[exposed] = struct{}{}
			if !opts.NoHelp {
				if _, err := helpTemplate.Execute(out, map[string]interface{}{"name": exposed, "help": m.name}); err != nil {
					return err
				}
			}
			if !opts.NoType {
				if _, err := typeTemplate.Execute(out, map[string]interface{}{"name": exposed, "type": m.kind.String()}); err != nil {
					return err
				}
			}
		}

		out.Write(name.B)
		if labels.Len() > 0 {
			out.WriteByte('{')
			out.Write(labels.B)
			out.WriteByte('}')
		}
		out.WriteByte(' ')
		out.B = strconv.AppendInt(out.B, m.Value(), 10)
		out.WriteByte('\n')
	}

	_, err := w.Write(out.B)
	return err
}
