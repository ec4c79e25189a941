package errors

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/metricsfixture/testapp/pkg/log"
)

// prefixFromDepth will create the indent prefix for a certain depth
// of string, e.g. 2 will yield "  " * 2 -> "    "
func prefixFromDepth(depth int) string {
	var p []byte
	for i := 0; i < depth; i++ {
		p = append(p, "  "...)
	}
	return string(p)
}

// PrintError will traverse the nested error and log each RequestError found.
// multierror.Error values are walked recursively with an extra level of indentation
func PrintError(err error, depth int) {
	var (
		merr *multierror.Error
		rerr *RequestError
	)

	if errors.As(err, &merr) {
		for _, v := range merr.Errors {
			PrintError(v, depth+1)
		}
	} else if errors.As(err, &rerr) {
		rerr.LogError(depth)
	} else {
		log.Debug().Err(err).Msg(prefixFromDepth(depth) + "error")
	}
}

// RequestError describes a request whose answer did not match the route table, or that failed outright
type RequestError struct {
	RunID          string // RunID is the ksuid of the traffic run that sent the request
	RequestID      string // RequestID is the X-Request-Id header value
	Method         string
	Path           string
	Route          string // Route is the name of the route the path should resolve to
	ExpectedStatus int
	Status         int    // Status is 0 when no response was received
	Err            error
	Context        string // Context is free text explaining the mismatch
}

func (r *RequestError) Error() string {
	if r.Err == nil {
		return fmt.Sprintf("requestError [%s %s %s]: %s", r.RequestID, r.Method, r.Path, r.Context)
	}
	return fmt.Sprintf("requestError [%s %s %s]: %s: %s", r.RequestID, r.Method, r.Path, r.Context, r.Err.Error())
}

func (r *RequestError) Unwrap() error {
	return r.Err
}

// LogError will log to Debug() the context surrounding the error.
// the depth argument modifies the indentation depth of the pretty printed error
func (r *RequestError) LogError(depth int) {
	base := log.Debug().
		Str("run", r.RunID).
		Str("request", r.RequestID).
		Str("method", r.Method).
		Str("path", r.Path).
		Str("route", r.Route).
		Int("expected", r.ExpectedStatus).
		Int("status", r.Status).
		Str("context", r.Context)

	var merr *multierror.Error
	if errors.As(r.Err, &merr) {
		base.Msg(prefixFromDepth(depth))
		PrintError(merr, depth+1)
	} else {
		base.Err(r.Err).Msg(prefixFromDepth(depth))
	}
}
