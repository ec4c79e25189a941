/*
Package traffic drives sample traffic at the fixture and checks every answer against the route table.

Requests are drawn from a weighted Mix of route names. The not found share uses paths generated
from a regular expression so an exporter under test sees many distinct unrouted paths.
Every request carries an X-Request-Id and the run's X-Traffic-Run id.

	e := traffic.NewEngine(
		traffic.Host("127.0.0.1:8080"),
		traffic.Requests(1000),
		traffic.Concurrency(8),
		traffic.WithMix(traffic.Mix{"index": 4, "slow": 1, "error": 1, "not_found": 1}),
	)
	summary, err := e.Run(ctx)
	summary.WriteTable(os.Stdout)
*/
package traffic
