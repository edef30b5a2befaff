// Command system-data-transformer is the worker process the Transformer
// Manager supervises under the name "system_data_transformer". The
// transformers that produce metric/error messages for the System
// Alerter are out of scope for this repository; this binary exists so
// the Manager's child-process lifecycle (start, is_alive, terminate,
// join) has a real OS process to supervise rather than a stub that's
// never actually run.
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

	slog.Info("system_data_transformer started")
	<-ctx.Done()
	slog.Info("system_data_transformer terminating")
	os.Exit(0)
}
