package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/handlers"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/metrics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/middleware"
)

// Server holds the dependencies for the admin HTTP server.
type Server struct {
	E               *echo.Echo
	metrics         *metrics.Metrics
	dialogHandler   *handlers.DialogHandler
	pipelineHandler *handlers.PipelineHandler
	turnRate        int
	logger          *slog.Logger
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	transcripts handlers.TranscriptReader
	turnRate    int
	logger      *slog.Logger
}

// WithTranscripts exposes recorded conversations under /sessions/:userID/transcript.
func WithTranscripts(r handlers.TranscriptReader) Option {
	return func(o *serverOptions) {
		o.transcripts = r
	}
}

// WithTurnRate limits turns per second and session.
func WithTurnRate(perSecond int) Option {
	return func(o *serverOptions) {
		o.turnRate = perSecond
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a new Server instance with all routes registered.
func New(system *dialog.System, m *metrics.Metrics, opts ...Option) *Server {
	o := serverOptions{
		turnRate: middleware.DefaultTurnRate,
		logger:   slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(o.logger))

	s := &Server{
		E:               e,
		metrics:         m,
		dialogHandler:   handlers.NewDialogHandler(system, o.transcripts),
		pipelineHandler: handlers.NewPipelineHandler(system.Graph()),
		turnRate:        o.turnRate,
		logger:          o.logger,
	}
	s.RegisterRoutes()
	return s
}
