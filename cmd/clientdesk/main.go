package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/clientdesk/internal/cmd"
	"github.com/felixgeelhaar/clientdesk/internal/exitcode"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	exitcode.Exit(code)
}

// run executes the command line and maps its outcome to an exit code.
// Commands interrupted by a signal exit with 130.
func run(ctx context.Context) int {
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(ctx.Err(), context.Canceled):
		fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
		return exitcode.Interrupted
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitcode.DetermineExitCode(err)
	}
}
