package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/middleware"
)

// RegisterRoutes sets up all the admin routes.
func (s *Server) RegisterRoutes() {
	rateLimiter := middleware.RateLimiter(s.turnRate)

	s.E.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	s.E.GET("/pipeline", s.pipelineHandler.PipelineGet)
	s.E.GET("/pipeline/graph", s.pipelineHandler.GraphGet)

	if s.metrics != nil {
		s.E.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	sessions := s.E.Group("/sessions/:userID")
	sessions.POST("/start", s.dialogHandler.StartPost, rateLimiter)
	sessions.POST("/turns", s.dialogHandler.TurnPost, rateLimiter)
	sessions.DELETE("", s.dialogHandler.EndDelete)
	sessions.GET("/transcript", s.dialogHandler.TranscriptGet)
}
