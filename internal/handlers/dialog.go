package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/middleware"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/transcript"
)

// TranscriptReader exposes the recorded conversation of a session.
type TranscriptReader interface {
	Transcript(userID string) []transcript.Entry
}

// DialogHandler drives dialog sessions over HTTP.
type DialogHandler struct {
	system      *dialog.System
	transcripts TranscriptReader
}

// NewDialogHandler creates a new dialog handler. transcripts may be nil.
func NewDialogHandler(system *dialog.System, transcripts TranscriptReader) *DialogHandler {
	return &DialogHandler{
		system:      system,
		transcripts: transcripts,
	}
}

// StartPost opens a dialog for the user in the path and runs the optional seed.
func (h *DialogHandler) StartPost(c echo.Context) error {
	var req StartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.system.Start(c.Request().Context(), req.UserID, dialog.Seed(req.Seed))
	return h.respondTurn(c, req.UserID, res, err)
}

// TurnPost runs one turn for the user in the path.
func (h *DialogHandler) TurnPost(c echo.Context) error {
	var req TurnRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.system.Turn(c.Request().Context(), req.UserID, dialog.Seed(req.Seed))
	return h.respondTurn(c, req.UserID, res, err)
}

// EndDelete ends the dialog and drops all its state.
func (h *DialogHandler) EndDelete(c echo.Context) error {
	userID := c.Param("userID")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "userID parameter required"})
	}

	if err := h.system.End(c.Request().Context(), userID); err != nil {
		if errors.Is(err, dialog.ErrShutdown) {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "shutting_down", Message: err.Error()})
		}
		// Lifecycle hook failures do not keep the session alive.
		middleware.FromContext(c.Request().Context()).Warn("Dialog end hooks failed", "user_id", userID, "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TranscriptGet returns the recorded conversation of the user in the path.
func (h *DialogHandler) TranscriptGet(c echo.Context) error {
	if h.transcripts == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "transcripts are not recorded"})
	}
	entries := h.transcripts.Transcript(c.Param("userID"))
	if entries == nil {
		entries = []transcript.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *DialogHandler) respondTurn(c echo.Context, userID string, res *dialog.TurnResult, err error) error {
	logger := middleware.FromContext(c.Request().Context())

	var turnErr *dialog.TurnError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, NewTurnResponse(res, nil))

	case errors.As(err, &turnErr):
		// The turn ran; its partial result and the fallback are still the answer.
		logger.Warn("Turn finished with errors", "user_id", userID, "error", err)
		status := http.StatusOK
		if errors.Is(err, dialog.ErrTurnTimeout) || errors.Is(err, dialog.ErrHopLimitExceeded) {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, NewTurnResponse(res, err))

	case errors.Is(err, dialog.ErrShutdown):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "shutting_down", Message: err.Error()})

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusRequestTimeout, ErrorResponse{Code: "cancelled", Message: err.Error()})
	}

	logger.Error("Turn failed", "user_id", userID, "error", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: err.Error()})
}

// bindAndValidate returns an *echo.HTTPError carrying an ErrorResponse on failure.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Code: "validation_failed", Message: err.Error()})
	}
	return nil
}
