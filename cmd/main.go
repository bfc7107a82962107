// Command roster is the engine CLI: it trains models over a league dataset,
// projects athlete points, recommends roster changes and validates past
// projections.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize logging
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
