// Command aqlgen translates CUE and YAML query definitions into AQL, runs
// translation scenarios, and inspects query journals.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/aqlgen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
