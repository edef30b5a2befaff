// Command github-data-transformer is the worker process the
// Transformer Manager supervises under the name
// "github_data_transformer". See cmd/system-data-transformer for why
// this binary exists despite the transformers themselves being out of
// scope.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	slog.Info("github_data_transformer started")
	<-ctx.Done()
	slog.Info("github_data_transformer terminating")
	os.Exit(0)
}
