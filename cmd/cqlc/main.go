// Command cqlc compiles query-builder statements into CQL and runs them
// against Cassandra.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cqlc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
