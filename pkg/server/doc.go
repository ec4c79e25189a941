/*
Package server runs fasthttp listeners for the fixture and its admin endpoints.

The fixture can listen on several addresses at once, which load tests use to spread connections.
Every listener shares one handler and shuts down together when the context is cancelled.

	reg := metrics.NewRegistry()
	stats := testapp.NewStats(testapp.DefaultTable(), reg)
	h := testapp.NewHandler(testapp.WithStats(stats))

	go server.Serve(ctx, []string{":9091"}, server.Admin(stats, reg, metrics.DefaultOptions()), server.Name("testapp-admin"))
	err := server.Serve(ctx, []string{":8080", ":8081"}, h.ServeFastHTTP, server.WithRegistry(reg))
*/
package server
