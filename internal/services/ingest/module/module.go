// Package module wires the webhook receiver into the server using modkit
package module

import (
	"context"
	"net/http"

	"hookline/internal/core/signature"
	modkit "hookline/internal/modkit"
	"hookline/internal/modkit/httpkit"
	evmodule "hookline/internal/services/events/module"
	"hookline/internal/services/ingest/domain"
	ingesthttp "hookline/internal/services/ingest/http"
	"hookline/internal/services/ingest/service"
)

// Ports exposed by the ingest module
type Ports struct {
	Ingest domain.IngestPort
}

// Module implements the ingest module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     Ports
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *service.Svc
}

// New constructs the ingest module.
// The events module's ports must be injected via modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("ingest"),
		modkit.WithPrefix("/hooks"),
	}, opts...)...)

	ev, ok := b.Ports.(evmodule.Ports)
	if !ok {
		panic("ingest module requires events ports")
	}

	o := FromConfig(deps.Cfg)
	svc := service.New(signature.New(o.Secrets), ev.Writer, service.Config{
		BatchingEnabled: o.BatchingEnabled,
		BatchSize:       o.BatchSize,
		BatchInterval:   o.BatchInterval,
		DedupTTL:        o.DedupTTL,
		SweepEvery:      o.SweepEvery,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Ingest: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		ingesthttp.Register(r, m.svc, ev.Retry, ev.Metrics)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the receiver routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Run keeps the module's background maintenance going until ctx is done
func (m *Module) Run(ctx context.Context) error { return m.svc.Run(ctx) }

// Drain flushes the batch queue; call during shutdown after the listener stops
func (m *Module) Drain(ctx context.Context) error { return m.svc.Drain(ctx) }
