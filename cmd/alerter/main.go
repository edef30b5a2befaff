// Command alerter runs a System Alerter process for one monitored
// group. It consumes metric/error messages on ALERT_EXCHANGE, classifies
// them, and publishes alert events and liveness heartbeats.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"panic-alerter/internal/alerter"
	"panic-alerter/internal/alerter/config"
	"panic-alerter/pkg/app"
	pkgconfig "panic-alerter/pkg/config"
	"panic-alerter/pkg/handlers"
	"panic-alerter/pkg/version"

	"github.com/go-chi/chi/v5"
	_ "go.uber.org/automaxprocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	versionInfo := version.Get()
	slog.Info("starting alerter", slog.String("version", versionInfo.Version), slog.String("commit", versionInfo.GitCommit))
	slog.Debug("build info\n" + version.GetBuildInfo())

	appCtx, err := app.InitializeApp(ctx, "alerter")
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer appCtx.Shutdown(context.Background())

	rawCfg := config.RawAlertsConfig{
		ParentID: mustGetEnv("ALERTER_PARENT_ID"),
		OpenFileDescriptors: rawSpecFromEnv("OPEN_FILE_DESCRIPTORS"),
		SystemCPUUsage:      rawSpecFromEnv("SYSTEM_CPU_USAGE"),
		SystemStorageUsage:  rawSpecFromEnv("SYSTEM_STORAGE_USAGE"),
		SystemRAMUsage:      rawSpecFromEnv("SYSTEM_RAM_USAGE"),
		SystemIsDown:        rawSpecFromEnv("SYSTEM_IS_DOWN"),
	}

	alertsCfg, err := config.Normalize(rawCfg)
	if err != nil {
		slog.Error("invalid alerts configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	bufferCapacity := intFromEnv("PUBLISHING_BUFFER_CAPACITY", alerter.DefaultBufferCapacity)
	mod := alerter.New(appCtx.Broker, alertsCfg, bufferCapacity)

	r := chi.NewRouter()
	r.Use(handlers.TracingMiddleware("alerter"))
	mod.Routes(r)
	healthSrv := &http.Server{
		Addr:         ":" + app.GetPort("8080"),
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
		slog.Info("received shutdown signal, stopping alerter")
	case err := <-runErr:
		if err != nil {
			slog.Error("alerter exited with error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownTimeout := pkgconfig.GetDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	healthSrv.Shutdown(shutdownCtx)
	mod.Stop()
}

func mustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("missing required environment variable", slog.String("key", key))
		os.Exit(1)
	}
	return v
}

func rawSpecFromEnv(prefix string) config.RawThresholdSpec {
	return config.RawThresholdSpec{
		Enabled:           os.Getenv(prefix + "_ENABLED"),
		WarningEnabled:    os.Getenv(prefix + "_WARNING_ENABLED"),
		CriticalEnabled:   os.Getenv(prefix + "_CRITICAL_ENABLED"),
		WarningThreshold:  os.Getenv(prefix + "_WARNING_THRESHOLD"),
		CriticalThreshold: os.Getenv(prefix + "_CRITICAL_THRESHOLD"),
		CriticalRepeat:    os.Getenv(prefix + "_CRITICAL_REPEAT"),
	}
}

func intFromEnv(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}
