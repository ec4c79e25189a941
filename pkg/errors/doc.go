/*
The errors package provides the error type used when a traffic run gets an unexpected answer
from the fixture, and a printer for nested error trees.

A RequestError carries enough context to find the request again in the fixture's logs:
the run id, the X-Request-Id sent, the method and path, and what was expected.

Usage

	import errors2 "github.com/metricsfixture/testapp/pkg/errors"

	...

	summary, err := engine.Run(ctx)
	if err != nil {
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, v := range merr.Errors {
				errors2.PrintError(v, 0)
			}
		}
	}

*/
package errors
