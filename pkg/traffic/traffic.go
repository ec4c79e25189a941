package traffic

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	errors2 "github.com/metricsfixture/testapp/pkg/errors"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/metricsfixture/testapp/pkg/testapp"
	"github.com/segmentio/ksuid"
	"github.com/valyala/fasthttp"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderRunID     = "X-Traffic-Run"
)

// Engine sends a mix of requests at the fixture. Each call to Run is an independent run with its own workers.
type Engine struct {
	config *Config
}

func NewEngine(opts ...ConfigOption) *Engine {
	e := &Engine{config: NewDefaultConfig()}
	for _, o := range opts {
		o(e.config)
	}
	return e
}

func (e *Engine) Config() *Config {
	return e.config
}

// Check compares an answer with the canned route. It returns an empty string on a match,
// otherwise a description of the first difference.
func Check(r *testapp.Route, status int, contentType []byte, body []byte, took, slowDelay time.Duration) string {
	if status != r.StatusCode {
		return fmt.Sprintf("status %d, expected %d", status, r.StatusCode)
	}
	if !bytes.EqualFold(mediaType(contentType), []byte(testapp.ContentType)) {
		return fmt.Sprintf("content type %q, expected %q", contentType, testapp.ContentType)
	}
	if !bytes.Equal(body, r.Body) {
		return fmt.Sprintf("body %q, expected %q", body, r.Body)
	}
	if r.Slow && took < slowDelay {
		return fmt.Sprintf("answered in %s, expected at least %s", took, slowDelay)
	}
	return ""
}

// mediaType strips parameters such as charset from a Content-Type value
func mediaType(contentType []byte) []byte {
	if i := bytes.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return bytes.TrimSpace(contentType)
}

type runState struct {
	config  *Config
	runID   string
	client  *fasthttp.HostClient
	summary *Summary

	errLock sync.Mutex
	merr    *multierror.Error
	dropped int64 // errors beyond MaxErrors
}

func (s *runState) addError(err *errors2.RequestError) {
	s.errLock.Lock()
	defer s.errLock.Unlock()
	kept := 0
	if s.merr != nil {
		kept = len(s.merr.Errors)
	}
	if kept >= s.config.MaxErrors {
		s.dropped++
		return
	}
	s.merr = multierror.Append(s.merr, err)
}

// Run sends requests until the configured count or duration is reached or ctx is cancelled.
// The summary is always returned, partial on cancellation. The error is a *multierror.Error of
// *errors.RequestError values when requests failed or, with verification, did not match.
func (e *Engine) Run(ctx context.Context) (*Summary, error) {
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	c := e.config

	routes := make([]*RouteSummary, 0)
	for _, r := range c.Table.Routes() {
		if c.Mix[r.Name] <= 0 {
			continue
		}
		path := r.Path
		if path == "" {
			path = "*"
		}
		routes = append(routes, &RouteSummary{Route: r.Name, Path: path})
	}

	state := &runState{
		config: c,
		runID:  ksuid.New().String(),
		client: &fasthttp.HostClient{
			Addr:                     c.Host,
			Name:                     c.UserAgent,
			MaxConns:                 c.Concurrency,
			ReadTimeout:              c.Timeout,
			WriteTimeout:             c.Timeout,
			Dial:                     c.Dial,
			NoDefaultUserAgentHeader: c.UserAgent == "",
		},
	}
	state.summary = newSummary(state.runID, c.Host, c.Verify, routes)

	runCtx := ctx
	if c.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log.Info().
		Str("run", state.runID).
		Str("host", c.Host).
		Int("requests", c.Requests).
		Dur("duration", c.Duration).
		Int("concurrency", c.Concurrency).
		Str("mix", c.Mix.String()).
		Bool("verify", c.Verify).
		Msg("starting traffic")

	// remaining is decremented by each worker before sending, so exactly Requests are sent in total
	remaining := int64(c.Requests)
	var wg sync.WaitGroup
	pickers := make([]*Picker, 0, c.Concurrency)
	for i := 0; i < c.Concurrency; i++ {
		p, err := NewPicker(c.Table, c.Mix, c.NotFoundRegex, seed+int64(i))
		if err != nil {
			return nil, err
		}
		pickers = append(pickers, p)
	}

	for _, p := range pickers {
		wg.Add(1)
		go func(p *Picker) {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				default:
				}
				if c.Requests > 0 && atomic.AddInt64(&remaining, -1) < 0 {
					return
				}
				state.do(p.Next())

				if c.Delay > 0 {
					select {
					case <-runCtx.Done():
						return
					case <-time.After(c.Delay):
					}
				}
			}
		}(p)
	}
	wg.Wait()

	state.summary.Elapsed = time.Since(state.summary.Started)
	state.summary.Cancelled = ctx.Err() != nil
	c.Progress.Finish()

	totals := state.summary.Totals()
	log.Info().
		Str("run", state.runID).
		Int64("sent", totals.Sent).
		Int64("mismatched", totals.Mismatched).
		Int64("failed", totals.Failed).
		Dur("elapsed", state.summary.Elapsed).
		Bool("cancelled", state.summary.Cancelled).
		Msg("traffic complete")

	if state.dropped > 0 {
		log.Warn().Int64("dropped", state.dropped).Int("kept", c.MaxErrors).Msg("too many request errors, not all were kept")
	}
	return state.summary, state.merr.ErrorOrNil()
}

// do sends one request and records the outcome
func (s *runState) do(exp Expectation) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	requestID := uuid.New().String()
	req.SetRequestURI("http://" + s.config.Host + exp.Path)
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set(HeaderRunID, s.runID)

	start := time.Now()
	err := s.client.DoTimeout(req, resp, s.config.Timeout)
	took := time.Since(start)
	defer s.config.Progress.Incr(exp.Route.Name)

	if err != nil {
		s.summary.record(exp.Route.Name, 0, took, 0, true, false)
		s.addError(&errors2.RequestError{
			RunID:          s.runID,
			RequestID:      requestID,
			Method:         fasthttp.MethodGet,
			Path:           exp.Path,
			Route:          exp.Route.Name,
			ExpectedStatus: exp.Route.StatusCode,
			Err:            err,
			Context:        "request failed",
		})
		return
	}

	status := resp.StatusCode()
	body := resp.Body()
	mismatch := ""
	if s.config.Verify {
		mismatch = Check(exp.Route, status, resp.Header.ContentType(), body, took, s.config.SlowDelay)
	}
	s.summary.record(exp.Route.Name, status, took, len(body), false, mismatch != "")

	log.Trace().
		Str("request", requestID).
		Str("path", exp.Path).
		Int("status", status).
		Dur("took", took).
		Msg("response")

	if mismatch != "" {
		s.addError(&errors2.RequestError{
			RunID:          s.runID,
			RequestID:      requestID,
			Method:         fasthttp.MethodGet,
			Path:           exp.Path,
			Route:          exp.Route.Name,
			ExpectedStatus: exp.Route.StatusCode,
			Status:         status,
			Context:        mismatch,
		})
	}
}
