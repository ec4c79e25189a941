/*
Package testapp is a small HTTP fixture with canned routes, used as a known target
when testing metrics exporters, load generators and proxies.

There are no exports in the root package.

CLI tools part of `cmd/` include:
	- testapp - serves the route table, exposes request counters in the prometheus text format
	  and sends verified traffic at a running fixture

The route table lives in pkg/testapp, the listeners in pkg/server and the traffic generator in pkg/traffic.
 */
package testapp
