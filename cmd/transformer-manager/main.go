// Command transformer-manager supervises the system_data_transformer
// and github_data_transformer worker binaries, restarting dead ones
// and answering liveness pings with a heartbeat.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"panic-alerter/internal/transformermanager"
	"panic-alerter/pkg/app"
	"panic-alerter/pkg/config"
	"panic-alerter/pkg/handlers"
	"panic-alerter/pkg/version"

	"github.com/go-chi/chi/v5"
	_ "go.uber.org/automaxprocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	versionInfo := version.Get()
	slog.Info("starting transformer-manager", slog.String("version", versionInfo.Version), slog.String("commit", versionInfo.GitCommit))
	slog.Debug("build info\n" + version.GetBuildInfo())

	appCtx, err := app.InitializeApp(ctx, "transformer-manager")
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer appCtx.Shutdown(context.Background())

	systemTransformerPath := config.GetEnv("SYSTEM_DATA_TRANSFORMER_PATH", "system-data-transformer")
	githubTransformerPath := config.GetEnv("GITHUB_DATA_TRANSFORMER_PATH", "github-data-transformer")

	mod := transformermanager.New(appCtx.Broker, systemTransformerPath, githubTransformerPath)

	r := chi.NewRouter()
	r.Use(handlers.TracingMiddleware("transformer-manager"))
	mod.Routes(r)
	healthSrv := &http.Server{
		Addr:         ":" + app.GetPort("8081"),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server failed", slog.String("error", err.Error()))
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- mod.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal, terminating supervised children")
	case err := <-runErr:
		if err != nil {
			slog.Error("transformer manager exited with error", slog.String("error", err.Error()))
			mod.Shutdown()
			os.Exit(1)
		}
	}

	shutdownTimeout := config.GetDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	healthSrv.Shutdown(shutdownCtx)
	mod.Shutdown()
	mod.Stop()
}
