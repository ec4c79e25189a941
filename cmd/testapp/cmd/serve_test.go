package cmd

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func noop(ctx *fasthttp.RequestCtx) {}

func TestServeAll_AdminFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	defer taken.Close()

	done := make(chan error, 1)
	go func() {
		done <- serveAll(context.Background(), []string{"127.0.0.1:0"}, noop, taken.Addr().String(), noop)
	}()

	select {
	case err := <-done:
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "admin listener")
	case <-time.After(3 * time.Second):
		t.Fatal("fixture kept serving after the admin listener failed")
	}
}

func TestServeAll_Cancelled(t *testing.T) {
	tests := []struct {
		name  string
		admin string
	}{
		{"fixture only", ""},
		{"with admin", "127.0.0.1:0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- serveAll(ctx, []string{"127.0.0.1:0"}, noop, tt.admin, noop)
			}()
			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				assert.Nil(t, err)
			case <-time.After(3 * time.Second):
				t.Fatal("servers did not stop")
			}
		})
	}
}
