package main

import "github.com/metricsfixture/testapp/cmd/testapp/cmd"

func main() {
	cmd.Execute()
}
