package dialog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/metrics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pipeline"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pubsub"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"
)

// System drives turns through a validated pipeline of services.
type System struct {
	services []service.Service
	graph    *pipeline.Graph
	store    *sessionstore.Store
	state    *sessionstore.Namespace
	topics   *topicmgr.Manager

	publisher pubsub.Publisher
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	logger    *slog.Logger

	maxHops       int
	turnTimeout   time.Duration
	fallbackTopic string
	fallbackValue any
	endTopic      string

	locks *sessionLocks

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// New attaches every service to its namespace, builds the routing table and
// validates it. A pipeline with error-level findings is rejected with a
// *pipeline.ValidationError.
func New(services []service.Service, opts ...Option) (*System, error) {
	s := &System{
		services: services,
		tracer:   noop.NewTracerProvider().Tracer("dialog"),
		logger:   slog.Default().With("component", "dialog"),
		maxHops:  DefaultMaxHops,
		endTopic: DefaultEndTopic,
		locks:    newSessionLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = sessionstore.New(sessionstore.WithLogger(s.logger))
	}
	if s.topics == nil {
		s.topics = topicmgr.NewManager()
	}

	if err := s.init(); err != nil {
		s.store.Shutdown()
		return nil, err
	}
	return s, nil
}

func (s *System) init() error {
	seen := make(map[string]struct{}, len(s.services))
	for _, svc := range s.services {
		if svc == nil {
			return errors.New("service cannot be nil")
		}
		name := svc.Name()
		if name == systemNamespace {
			return fmt.Errorf("%w: %s", ErrReservedName, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", pipeline.ErrDuplicateService, name)
		}
		seen[name] = struct{}{}
		svc.Attach(s.store.Namespace(name))
	}
	s.state = s.store.Namespace(systemNamespace)

	graph, err := pipeline.Build(s.services, s.topics)
	if err != nil {
		return err
	}

	report := graph.Validate()
	for _, w := range report.Warnings() {
		s.logger.Warn("Pipeline inconsistency", "kind", w.Kind, "topic", w.Topic, "message", w.Message)
	}
	if !report.OK() {
		for _, e := range report.Errors() {
			s.logger.Error("Pipeline inconsistency", "kind", e.Kind, "topic", e.Topic, "message", e.Message)
		}
		return &pipeline.ValidationError{Report: report}
	}

	s.graph = graph
	s.logger.Info("Dialog system ready",
		"services", len(s.services),
		"handlers", len(graph.Handlers()),
		"topics", len(graph.Topics()),
		"max_hops", s.maxHops)
	return nil
}

// Graph returns the routing table.
func (s *System) Graph() *pipeline.Graph {
	return s.graph
}

// Store returns the session state store.
func (s *System) Store() *sessionstore.Store {
	return s.store
}

// Validate re-runs the pipeline linter and returns its findings.
func (s *System) Validate() *pipeline.Report {
	return s.graph.Validate()
}

// DrawSystemGraph writes the routing table as a Graphviz graph.
func (s *System) DrawSystemGraph(w io.Writer) error {
	return s.graph.WriteDOT(w)
}

// Start begins a conversation: every DialogStart hook runs, then the seed propagates.
func (s *System) Start(ctx context.Context, userID string, seed Seed) (*TurnResult, error) {
	return s.run(ctx, userID, seed, true)
}

// Turn propagates a seed. Sessions without a live start marker are started first.
func (s *System) Turn(ctx context.Context, userID string, seed Seed) (*TurnResult, error) {
	return s.run(ctx, userID, seed, false)
}

// End runs every DialogEnd hook and deletes the session's state from all namespaces.
func (s *System) End(ctx context.Context, userID string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.inflight.Done()

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	var errs []error
	for _, svc := range s.services {
		ender, ok := svc.(service.DialogEnder)
		if !ok {
			continue
		}
		if err := runHook(func() error { return ender.DialogEnd(ctx, userID) }); err != nil {
			errs = append(errs, &HandlerError{UserID: userID, Handler: svc.Name() + ".DialogEnd", Err: err})
		}
	}

	s.store.DeleteSession(userID)
	s.logger.Info("Dialog ended", "user_id", userID)
	return errors.Join(errs...)
}

// RunDialog plays a scripted conversation. The first seed starts the dialog,
// the rest are ordinary turns. It stops after a turn that publishes the end
// topic with a true value, or at the first failed turn, and always ends the session.
func (s *System) RunDialog(ctx context.Context, userID string, seeds []Seed) ([]*TurnResult, error) {
	var results []*TurnResult
	var runErr error

	for i, seed := range seeds {
		var res *TurnResult
		var err error
		if i == 0 {
			res, err = s.Start(ctx, userID, seed)
		} else {
			res, err = s.Turn(ctx, userID, seed)
		}
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			runErr = err
			break
		}
		if res.EndDialog {
			break
		}
	}

	if len(seeds) == 0 || errors.Is(runErr, ErrShutdown) {
		return results, runErr
	}
	return results, errors.Join(runErr, s.End(context.WithoutCancel(ctx), userID))
}

// Shutdown rejects new turns, waits for in-flight turns until ctx is done and
// stops the store's reclaimers. Calling it again is a no-op.
func (s *System) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for in-flight turns: %w", ctx.Err())
	}

	s.store.Shutdown()
	s.logger.Info("Dialog system stopped")
	return err
}

func (s *System) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrShutdown
	}
	s.inflight.Add(1)
	return nil
}

func (s *System) run(ctx context.Context, userID string, seed Seed, start bool) (*TurnResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.inflight.Done()

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	res := &TurnResult{
		TurnID: uuid.NewString(),
		UserID: userID,
		Values: make(map[string]any),
	}
	logger := s.logger.With("user_id", userID, "turn_id", res.TurnID)

	ctx, span := s.tracer.Start(ctx, "dialog.turn", trace.WithAttributes(
		attribute.String("dialog.user_id", userID),
		attribute.String("dialog.turn_id", res.TurnID),
		attribute.Int("dialog.seed_topics", len(seed)),
	))
	defer span.End()

	var cancel context.CancelFunc = func() {}
	if s.turnTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
	}
	defer cancel()

	began := time.Now()
	s.metrics.TurnStarted()

	if _, started := s.state.Get(userID, startedKey); start || !started {
		s.startHooks(ctx, userID, res, logger)
		s.state.Set(userID, startedKey, true)
	}

	abort := s.propagate(ctx, userID, seed, res, logger)

	var turnErr *TurnError
	if abort != nil || len(res.Errors) > 0 {
		turnErr = &TurnError{UserID: userID, TurnID: res.TurnID, Cause: abort, Failures: res.Errors}
		s.fallback(ctx, res, logger)
	}

	if end, ok := res.Values[s.endTopic].(bool); ok && end {
		res.EndDialog = true
	}
	res.Duration = time.Since(began)

	if turnErr != nil {
		s.metrics.TurnFinished(res.Duration, turnErr)
		span.RecordError(turnErr)
		span.SetStatus(codes.Error, turnErr.Error())
		logger.Error("Turn failed", "error", turnErr, "duration", res.Duration)
		return res, turnErr
	}

	s.metrics.TurnFinished(res.Duration, nil)
	logger.Debug("Turn completed",
		"invocations", len(res.Invocations),
		"emitted", len(res.Emitted),
		"duration", res.Duration)
	return res, nil
}

func (s *System) startHooks(ctx context.Context, userID string, res *TurnResult, logger *slog.Logger) {
	for _, svc := range s.services {
		starter, ok := svc.(service.DialogStarter)
		if !ok {
			continue
		}
		if err := runHook(func() error { return starter.DialogStart(ctx, userID) }); err != nil {
			herr := &HandlerError{UserID: userID, Handler: svc.Name() + ".DialogStart", Err: err}
			res.Errors = append(res.Errors, herr)
			logger.Error("Dialog start hook failed", "service", svc.Name(), "error", err)
		}
	}
	logger.Info("Dialog started")
}

// runHook calls a lifecycle hook, converting a panic into ErrHandlerPanic.
func runHook(hook func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return hook()
}

// fallback publishes the fallback value when the failed turn did not reach the fallback topic.
func (s *System) fallback(ctx context.Context, res *TurnResult, logger *slog.Logger) {
	if s.fallbackTopic == "" {
		return
	}
	for _, e := range res.Emitted {
		if e.Topic == s.fallbackTopic {
			return
		}
	}

	emission := Emission{Topic: s.fallbackTopic, Value: s.fallbackValue, Producer: systemNamespace}
	res.Emitted = append(res.Emitted, emission)
	res.Values[s.fallbackTopic] = s.fallbackValue
	res.Fallback = true
	s.publish(context.WithoutCancel(ctx), res, emission, logger)
	logger.Warn("Published fallback", "topic", s.fallbackTopic)
}
