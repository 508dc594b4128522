// Package app wires the dialog system together with a samber/do injector.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/config"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/metrics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/nlg"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/transcript"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pipeline"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pubsub"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/script"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/server"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"
)

// App owns the injector and the lifetime of background work started by providers.
type App struct {
	injector *do.RootScope
	fs       afero.Fs

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures an App.
type Option func(*App)

// WithFs replaces the file system used for templates and scripts.
func WithFs(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

// New registers every provider. Nothing is constructed until it is first invoked.
func New(cfg *config.Config, opts ...Option) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		injector: do.New(),
		fs:       afero.NewOsFs(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(a)
	}

	do.ProvideValue(a.injector, cfg)
	do.Provide(a.injector, a.provideMetrics)
	do.Provide(a.injector, a.provideTracing)
	do.Provide(a.injector, a.provideOutbox)
	do.Provide(a.injector, a.provideTopics)
	do.Provide(a.injector, a.provideStore)
	do.Provide(a.injector, a.provideEngine)
	do.Provide(a.injector, a.providePipeline)
	do.Provide(a.injector, a.provideOutboxLog)
	do.Provide(a.injector, a.provideSystem)
	do.Provide(a.injector, a.provideServer)
	return a
}

// Injector exposes the underlying injector.
func (a *App) Injector() do.Injector {
	return a.injector
}

// System builds (once) and returns the dialog system.
func (a *App) System() (*dialog.System, error) {
	return do.Invoke[*dialog.System](a.injector)
}

// Server builds (once) and returns the admin server.
func (a *App) Server() (*server.Server, error) {
	return do.Invoke[*server.Server](a.injector)
}

// Graph builds the routing table of the configured services without
// validating it or starting a dialog system.
func (a *App) Graph() (*pipeline.Graph, error) {
	services, err := a.services(a.injector)
	if err != nil {
		return nil, err
	}
	catalogue, err := do.Invoke[*topicmgr.Manager](a.injector)
	if err != nil {
		return nil, err
	}
	return pipeline.Build(services, catalogue)
}

// Shutdown stops background work and shuts down every constructed component,
// dependents before their dependencies.
func (a *App) Shutdown(ctx context.Context) {
	a.cancel()
	a.injector.ShutdownWithContext(ctx)
	slog.Info("Application stopped")
}

// tracing holds the tracer and flushes the exporter on shutdown.
type tracing struct {
	tracer  trace.Tracer
	cleanup func()
}

func (t *tracing) Shutdown() {
	t.cleanup()
}

// outbox closes the bridge on shutdown.
type outbox struct {
	*pubsub.WatermillBridge
}

func (o *outbox) Shutdown() error {
	return o.Close()
}

func (a *App) provideMetrics(i do.Injector) (*metrics.Metrics, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return metrics.New(cfg.MetricsNamespace), nil
}

func (a *App) provideTracing(i do.Injector) (*tracing, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tracer, cleanup, err := pubsub.SetupOTel(a.ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	return &tracing{tracer: tracer, cleanup: cleanup}, nil
}

func (a *App) provideOutbox(i do.Injector) (*outbox, error) {
	t, err := do.Invoke[*tracing](i)
	if err != nil {
		return nil, err
	}
	return &outbox{pubsub.NewWatermillBridgeWithTracer(t.tracer)}, nil
}

func (a *App) provideTopics(i do.Injector) (*topicmgr.Manager, error) {
	return topics.NewManager()
}

func (a *App) provideStore(i do.Injector) (*sessionstore.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	return sessionstore.New(
		sessionstore.WithTTL(cfg.SessionTTL),
		sessionstore.WithReclaimInterval(cfg.ReclaimInterval),
		sessionstore.WithReclaimHook(m.Reclaimed),
	), nil
}

func (a *App) provideEngine(i do.Injector) (*script.TengoEngine, error) {
	return script.NewTengoEngine(), nil
}

func (a *App) providePipeline(i do.Injector) (*modules.Pipeline, error) {
	cfg := do.MustInvoke[*config.Config](i)

	deps := modules.Dependencies{
		ScriptEngine:         do.MustInvoke[*script.TengoEngine](i),
		TranscriptMaxEntries: cfg.TranscriptMaxEntries,
	}
	if cfg.NLGTemplatesPath != "" {
		deps.NLGOptions = append(deps.NLGOptions, nlg.WithTemplateFile(a.fs, cfg.NLGTemplatesPath))
	}

	p, err := modules.New(deps)
	if err != nil {
		return nil, err
	}

	if cfg.NLGHotReload && cfg.NLGTemplatesPath != "" {
		if err := p.NLG.Watch(a.ctx); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (a *App) provideOutboxLog(i do.Injector) (*transcript.OutboxLog, error) {
	bus, err := do.Invoke[*outbox](i)
	if err != nil {
		return nil, err
	}
	log := transcript.NewOutboxLog(nil)
	if err := log.Subscribe(a.ctx, bus); err != nil {
		return nil, err
	}
	return log, nil
}

// scriptedServices loads the extra scripted services configured in SCRIPTS_DIR.
func (a *App) scriptedServices(dir string, engine *script.TengoEngine) ([]service.Service, error) {
	if dir == "" {
		return nil, nil
	}
	defs, err := script.LoadDefinitions(a.fs, dir)
	if err != nil {
		return nil, err
	}

	services := make([]service.Service, 0, len(defs))
	for _, def := range defs {
		svc, err := script.NewService(def, engine)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded scripted service", "service", def.Name, "consumes", def.Consumes, "produces", def.Produces)
		services = append(services, svc)
	}
	return services, nil
}

// services returns the pipeline services followed by the scripted ones.
func (a *App) services(i do.Injector) ([]service.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	p, err := do.Invoke[*modules.Pipeline](i)
	if err != nil {
		return nil, err
	}
	scripted, err := a.scriptedServices(cfg.ScriptsDir, do.MustInvoke[*script.TengoEngine](i))
	if err != nil {
		return nil, fmt.Errorf("failed to load scripted services: %w", err)
	}
	return append(p.Services(), scripted...), nil
}

func (a *App) provideSystem(i do.Injector) (*dialog.System, error) {
	cfg := do.MustInvoke[*config.Config](i)
	catalogue, err := do.Invoke[*topicmgr.Manager](i)
	if err != nil {
		return nil, err
	}
	t, err := do.Invoke[*tracing](i)
	if err != nil {
		return nil, err
	}
	bus := do.MustInvoke[*outbox](i)

	// Subscribe the outbox follower before the first turn can publish.
	if _, err := do.Invoke[*transcript.OutboxLog](i); err != nil {
		return nil, err
	}

	services, err := a.services(i)
	if err != nil {
		return nil, err
	}

	opts := []dialog.Option{
		dialog.WithStore(do.MustInvoke[*sessionstore.Store](i)),
		dialog.WithTopics(catalogue),
		dialog.WithPublisher(bus),
		dialog.WithTracer(t.tracer),
		dialog.WithMetrics(do.MustInvoke[*metrics.Metrics](i)),
		dialog.WithMaxHops(cfg.MaxHops),
		dialog.WithTurnTimeout(cfg.TurnTimeout),
		dialog.WithEndTopic(cfg.EndTopic),
	}
	if cfg.FallbackTopic != "" {
		opts = append(opts, dialog.WithFallback(cfg.FallbackTopic, cfg.FallbackMessage))
	}

	return dialog.New(services, opts...)
}

func (a *App) provideServer(i do.Injector) (*server.Server, error) {
	sys, err := do.Invoke[*dialog.System](i)
	if err != nil {
		return nil, err
	}
	p, err := do.Invoke[*modules.Pipeline](i)
	if err != nil {
		return nil, err
	}
	return server.New(sys, do.MustInvoke[*metrics.Metrics](i),
		server.WithTranscripts(p.Transcript)), nil
}
