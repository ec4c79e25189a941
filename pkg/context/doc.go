/*
Package context wraps the native go/context package with interrupt handling.

The first SIGINT or SIGTERM cancels the context so servers and traffic runs can drain.
A second signal exits immediately.

	import "github.com/metricsfixture/testapp/pkg/context"

	...

	if err := server.Serve(context.Context(), addrs, h.ServeFastHTTP); err != nil {
		log.Fatal().Err(err).Msg("failed to serve")
	}
*/
package context
