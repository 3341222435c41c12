// Command ehrquery explores EHR databases and extracts query results.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/satishbabariya/ehrquery/cmd/ehrquery/commands"
	"github.com/satishbabariya/ehrquery/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		ui.PrintError(os.Stderr, "%v", err)
		return 1
	}
	return 0
}
