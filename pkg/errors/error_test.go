package errors

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/metricsfixture/testapp/pkg/log"
	"github.com/stretchr/testify/assert"
)

func TestRequestError_Error(t *testing.T) {
	timeout := fmt.Errorf("timeout")
	tests := []struct {
		name string
		err  *RequestError
		want string
	}{
		{"mismatch", &RequestError{RequestID: "abc", Method: "GET", Path: "/slow", Context: "status 500 != 200"},
			"requestError [abc GET /slow]: status 500 != 200"},
		{"wrapped", &RequestError{RequestID: "abc", Method: "GET", Path: "/", Context: "request failed", Err: timeout},
			"requestError [abc GET /]: request failed: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRequestError_Unwrap(t *testing.T) {
	sentinel := fmt.Errorf("sentinel")
	var err error = &RequestError{Err: sentinel}
	assert.True(t, errors.Is(err, sentinel))
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	assert.Nil(t, log.SetLevelString("debug"))
	defer log.SetOutput(nil)
	defer log.SetLevelString("info")

	var merr *multierror.Error
	merr = multierror.Append(merr, &RequestError{RequestID: "one", Path: "/error", Status: 200, ExpectedStatus: 500})
	merr = multierror.Append(merr, &RequestError{RequestID: "two", Path: "/", Err: fmt.Errorf("refused")})
	merr = multierror.Append(merr, fmt.Errorf("plain"))

	PrintError(merr, 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"request":"one"`)
	assert.Contains(t, lines[0], `"expected":500`)
	assert.Contains(t, lines[1], `"error":"refused"`)
	assert.Contains(t, lines[2], `"error":"plain"`)
}

func TestPrefixFromDepth(t *testing.T) {
	assert.Equal(t, "", prefixFromDepth(0))
	assert.Equal(t, "    ", prefixFromDepth(2))
}
