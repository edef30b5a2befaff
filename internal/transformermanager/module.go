// Package transformermanager wires the Manager (internal/transformermanager/services)
// into a process module, supervising the system_data_transformer and
// github_data_transformer worker binaries.
package transformermanager

import (
	"context"

	"panic-alerter/internal/transformermanager/services"
	"panic-alerter/pkg/broker"
	"panic-alerter/pkg/module"

	"github.com/go-chi/chi/v5"
)

// Worker names used as keys into the supervised children map.
const (
	SystemDataTransformerName = "system_data_transformer"
	GitHubDataTransformerName = "github_data_transformer"
)

// Module wires a Manager into the process lifecycle.
type Module struct {
	*module.BaseModule
	manager *services.Manager
}

// New builds the transformer manager module, supervising the two
// worker binaries found at systemTransformerPath and githubTransformerPath.
func New(b broker.Broker, systemTransformerPath, githubTransformerPath string) *Module {
	children := map[string]services.ChildHandle{
		SystemDataTransformerName: services.NewExecChildHandle(systemTransformerPath),
		GitHubDataTransformerName: services.NewExecChildHandle(githubTransformerPath),
	}
	return &Module{
		BaseModule: module.NewBaseModule("transformer_manager", b),
		manager:    services.New("transformer_manager", b, children),
	}
}

// Routes registers only a liveness probe; this module has no other
// public HTTP surface.
func (m *Module) Routes(r chi.Router) {
	m.RegisterHealthRoute(r)
}

// Run declares the manager's broker topology, ensures both workers are
// running, then blocks consuming pings until ctx is cancelled.
func (m *Module) Run(ctx context.Context) error {
	if err := m.manager.Initialize(ctx); err != nil {
		return err
	}
	return m.manager.Run(ctx)
}

// Shutdown terminates and joins every supervised child. Call this
// after Run returns, in addition to BaseModule.Stop.
func (m *Module) Shutdown() {
	m.manager.Shutdown()
}
