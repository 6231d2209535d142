// Package module implements the events service module
package module

import (
	"hookline/internal/modkit"
	"hookline/internal/modkit/httpkit"
	"hookline/internal/modkit/repokit"
	"hookline/internal/services/events/domain"
	"hookline/internal/services/events/repo"
	"hookline/internal/services/events/service"
)

// Ports exposed by the events module
type Ports struct {
	Writer  domain.WriterPort
	Retry   domain.RetryPort
	Metrics domain.MetricsPort
}

// Module implements the events service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new events module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	svc := service.New(repokit.TxRunner(deps.PG), repo.NewPG(), service.Config{
		ChunkSize:  opts.ChunkSize,
		BaseDelay:  opts.BaseDelay,
		MaxRetries: opts.MaxRetries,
	})

	m := &Module{deps: deps}
	m.ports = Ports{
		Writer:  svc,
		Retry:   svc,
		Metrics: svc,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "events" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; events has no HTTP surface of its own
func (m *Module) MountRoutes(r httpkit.Router) {}
