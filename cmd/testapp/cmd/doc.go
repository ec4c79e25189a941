/*
Package cmd provides all the commands for the testapp binary.

The commands are separated by file, one per command.

there are a few global CLI flags that can be used to configure logging. These are defined
by the globally exposed variables. Every flag can also be set in the config file or through
a TESTAPP_ prefixed environment variable, e.g. TESTAPP_SLOW_DELAY=250ms

The fixture can be started on multiple ports to spread load across listeners

Usage

	go run ./cmd/testapp serve -a :8080 -a :8081 --admin-addr :9091
	go run ./cmd/testapp traffic 127.0.0.1:8080 -n 10000 -c 16 --junit report.xml
*/
package cmd
