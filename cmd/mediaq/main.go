package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/mediaq/internal/adapter/cli"
	"github.com/bnema/mediaq/internal/infrastructure/logger"
)

func main() {
	logger.SetOutput(os.Stderr)

	// A signal cancels queued and running jobs; a second one kills the process.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := cli.Run(ctx, os.Args[1:], os.Stdout); err != nil {
		logger.Error.Printf("%v", err)
		stop()
		os.Exit(1)
	}
	stop()
}
