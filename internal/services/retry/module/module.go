// Package module wires the retry scheduler and exposes its ports
package module

import (
	"context"

	modkit "hookline/internal/modkit"
	"hookline/internal/modkit/httpkit"
	evmodule "hookline/internal/services/events/module"
	"hookline/internal/services/retry/domain"
	"hookline/internal/services/retry/service"
)

// Ports exposed by the retry module
type Ports struct {
	Scheduler domain.SchedulerPort
}

// Module defines the retry scheduler module
type Module struct {
	deps  modkit.Deps
	ports Ports
	svc   *service.Svc
}

// New constructs the retry module.
// The events module's ports must be injected via modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("retry")}, opts...)...)

	ev, ok := b.Ports.(evmodule.Ports)
	if !ok {
		panic("retry module requires events ports")
	}

	o := FromConfig(deps.Cfg)
	svc := service.New(ev.Writer, ev.Retry, service.Config{
		Tick:      o.Tick,
		Take:      o.Take,
		BaseDelay: o.BaseDelay,
	})

	m := &Module{deps: deps, svc: svc}
	m.ports = Ports{Scheduler: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "retry" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the scheduler has no HTTP surface
func (m *Module) MountRoutes(_ httpkit.Router) {}

// Run drives the sweep loop until ctx is done
func (m *Module) Run(ctx context.Context) error { return m.svc.Run(ctx) }
