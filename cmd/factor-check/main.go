// Command factor-check validates a canonical factor catalog file before it is
// deployed. It reports every problem it finds rather than stopping at the
// first one.
package main

import (
	"fmt"
	"io"
	"os"

	"taskcore/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, os.Stdout))
}

func run(args []string, stderr, stdout io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: factor-check <catalog.json>")
		return 2
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "read catalog: %v\n", err)
		return 1
	}
	catalog, err := domain.ParseFactorCatalog(data)
	if err != nil {
		fmt.Fprintf(stderr, "parse catalog: %v\n", err)
		return 1
	}
	errs := catalog.Validate()
	for _, err := range errs {
		fmt.Fprintf(stderr, "invalid: %v\n", err)
	}
	if len(errs) > 0 {
		fmt.Fprintf(stderr, "%d problem(s) in %s\n", len(errs), args[0])
		return 1
	}
	fmt.Fprintf(stdout, "%s: %d factors ok\n", args[0], len(catalog))
	return 0
}
