package handlers

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pipeline"
)

// PipelineHandler describes the routing table of the running system.
type PipelineHandler struct {
	graph *pipeline.Graph
}

// NewPipelineHandler creates a new pipeline handler.
func NewPipelineHandler(graph *pipeline.Graph) *PipelineHandler {
	return &PipelineHandler{graph: graph}
}

// PipelineGet returns handlers, routes and validation findings as JSON.
func (h *PipelineHandler) PipelineGet(c echo.Context) error {
	report := h.graph.Validate()

	handlers := make([]HandlerResponse, 0, len(h.graph.Handlers()))
	for _, hd := range h.graph.Handlers() {
		handlers = append(handlers, HandlerResponse{
			Name:     hd.QualifiedName(),
			Consumes: hd.Consumes,
			Produces: hd.Produces,
		})
	}

	findings := report.Inconsistencies
	if findings == nil {
		findings = []pipeline.Inconsistency{}
	}

	return c.JSON(http.StatusOK, PipelineResponse{
		OK:       report.OK(),
		Handlers: handlers,
		Routes:   h.graph.Routes(),
		Findings: findings,
	})
}

// GraphGet renders the pipeline graph. The format query parameter selects
// dot (default) or table.
func (h *PipelineHandler) GraphGet(c echo.Context) error {
	var buf bytes.Buffer
	switch format := c.QueryParam("format"); format {
	case "", "dot":
		if err := h.graph.WriteDOT(&buf); err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "text/vnd.graphviz; charset=utf-8", buf.Bytes())
	case "table":
		if err := h.graph.WriteTable(&buf); err != nil {
			return err
		}
		return c.String(http.StatusOK, buf.String())
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "invalid_format",
			Message: "format must be dot or table, got " + format,
		})
	}
}
