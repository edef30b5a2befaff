// Package alerter wires the System Alerter (internal/alerter/services)
// into a process module.
package alerter

import (
	"context"

	"panic-alerter/internal/alerter/config"
	"panic-alerter/internal/alerter/services"
	"panic-alerter/pkg/broker"
	"panic-alerter/pkg/module"

	"github.com/go-chi/chi/v5"
)

// DefaultBufferCapacity is the publishing buffer's capacity absent an
// explicit override. Prefetch derives from it as ceil(capacity/5).
const DefaultBufferCapacity = 100

// Module wires an Alerter into the process lifecycle.
type Module struct {
	*module.BaseModule
	alerter *services.Alerter
}

// New builds the alerter module for cfg, consuming and publishing on b.
func New(b broker.Broker, cfg config.AlertsConfig, bufferCapacity int) *Module {
	if bufferCapacity <= 0 {
		bufferCapacity = DefaultBufferCapacity
	}
	name := "system_alerter_" + cfg.ParentID
	return &Module{
		BaseModule: module.NewBaseModule(name, b),
		alerter:    services.NewAlerter(name, cfg, b, bufferCapacity),
	}
}

// Routes registers only a liveness probe; this module has no other
// public HTTP surface.
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// Run declares the alerter's broker topology and blocks consuming until
// ctx is cancelled.
func (m *Module) Run(ctx context.Context) error {
	if err := m.alerter.Initialize(ctx); err != nil {
		return err
	}
	return m.alerter.Run(ctx)
}
