/*
Package metrics provides a small registry of int64 counters and gauges with dotted names,
and renders them in the Prometheus text exposition format.

Dotted names follow the convention of the exporters the fixture is used to test: plain segments
are joined into the metric name, numeric segments become labels.

	reg := metrics.NewRegistry()
	reg.Counter("worker.1.requests").Inc()
	reg.Gauge("slow.delay_ms").Set(100)

	reg.WritePrometheus(os.Stdout, metrics.DefaultOptions())
	// # HELP testapp_worker_requests_total worker.1.requests
	// # TYPE testapp_worker_requests_total counter
	// testapp_worker_requests_total{worker="1"} 1
	// # HELP testapp_slow_delay_ms slow.delay_ms
	// # TYPE testapp_slow_delay_ms gauge
	// testapp_slow_delay_ms 100
*/
package metrics
