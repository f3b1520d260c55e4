package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/recall/internal/cli"
)

func main() {
	// Cancelled on SIGINT/SIGTERM so serve and review can shut down cleanly
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
