package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaze-network/token-sale/cmd"
)

func main() {
	// GOMAXPROCS is tuned by the run command, after the logger is configured.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
