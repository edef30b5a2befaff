package module

import (
	"context"
	"log/slog"
	"net/http"

	"panic-alerter/pkg/broker"
	"panic-alerter/pkg/handlers"

	"github.com/go-chi/chi/v5"
)

// Module defines the interface that both the System Alerter and the
// Transformer Manager implement to plug into a process's lifecycle.
type Module interface {
	// Routes sets up the HTTP routes for this module (a liveness probe,
	// in this domain — there is no other public API surface).
	Routes(r chi.Router)

	// Run blocks consuming the broker until ctx is cancelled or an
	// unrecoverable error occurs.
	Run(ctx context.Context) error

	// Stop gracefully stops the module and its background tasks
	Stop()

	// Name returns the module name for logging and identification
	Name() string
}

// BaseModule provides the dependencies every module in this process
// shares: a name for logging, and the broker connection used for both
// consuming and publishing.
type BaseModule struct {
	name     string
	broker   broker.Broker
	stopCh   chan struct{}
	stopOnce chan struct{} // Ensures Stop() can only be called once
}

// NewBaseModule creates a new base module with common dependencies
func NewBaseModule(name string, b broker.Broker) *BaseModule {
	return &BaseModule{
		name:     name,
		broker:   b,
		stopCh:   make(chan struct{}),
		stopOnce: make(chan struct{}),
	}
}

// Name returns the module name
func (b *BaseModule) Name() string {
	return b.name
}

// Broker returns the module's broker connection.
func (b *BaseModule) Broker() broker.Broker {
	return b.broker
}

// Stop gracefully stops the module
func (b *BaseModule) Stop() {
	select {
	case <-b.stopOnce:
		return // Already stopped
	default:
		close(b.stopOnce)
		close(b.stopCh)
		slog.Info("Module stopped", "module", b.name)
	}
}

// HealthHandler creates a health check handler for this module
func (b *BaseModule) HealthHandler() http.HandlerFunc {
	return handlers.HealthHandler(b.name)
}

// RegisterHealthRoute registers the health endpoint for this module
func (b *BaseModule) RegisterHealthRoute(r chi.Router) {
	r.Get("/health", b.HealthHandler())
}
