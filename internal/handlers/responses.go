package handlers

import (
	"errors"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pipeline"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TurnResponse is the DTO for a finished turn. Failed turns still carry
// their result; Errors lists what went wrong.
type TurnResponse struct {
	*dialog.TurnResult
	Errors []string `json:"errors,omitempty"`
}

// NewTurnResponse creates a TurnResponse from a turn result and the error returned with it.
func NewTurnResponse(res *dialog.TurnResult, err error) *TurnResponse {
	resp := &TurnResponse{TurnResult: res}
	var turnErr *dialog.TurnError
	if errors.As(err, &turnErr) {
		if turnErr.Cause != nil {
			resp.Errors = append(resp.Errors, turnErr.Cause.Error())
		}
		for _, f := range turnErr.Failures {
			resp.Errors = append(resp.Errors, f.Error())
		}
	}
	return resp
}

// HandlerResponse describes one registered handler.
type HandlerResponse struct {
	Name     string   `json:"name"`
	Consumes []string `json:"consumes"`
	Produces []string `json:"produces"`
}

// PipelineResponse is the DTO for the pipeline description.
type PipelineResponse struct {
	OK       bool                     `json:"ok"`
	Handlers []HandlerResponse        `json:"handlers"`
	Routes   []pipeline.Route         `json:"routes"`
	Findings []pipeline.Inconsistency `json:"findings"`
}
