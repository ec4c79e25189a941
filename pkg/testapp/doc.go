/*
Package testapp provides the canned routes used to generate sample traffic against a metrics exporter.

Every path is matched exactly. Anything that is not one of the known routes is a 404.

	| Path   | Status | Body                  |
	|--------|--------|-----------------------|
	| /      | 200    | Hello from test app\n |
	| /slow  | 200    | Slow response\n       |  after the slow delay (100ms by default)
	| /error | 500    | Error response\n      |
	| other  | 404    | Not found\n           |

All responses are text/plain. The /error route is a deliberate canned response, not a failure of the handler.

Usage

	stats := testapp.NewStats(testapp.DefaultTable(), registry)
	h := testapp.NewHandler(testapp.SlowDelay(100*time.Millisecond), testapp.WithStats(stats))
	fasthttp.ListenAndServe(":8080", h.ServeFastHTTP)
*/
package testapp
