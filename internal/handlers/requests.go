package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// StartRequest defines the DTO for opening a dialog. The seed is optional.
type StartRequest struct {
	UserID string         `param:"userID" json:"-" validate:"required,max=256"`
	Seed   map[string]any `json:"seed"`
}

// TurnRequest defines the DTO for a dialog turn.
type TurnRequest struct {
	UserID string         `param:"userID" json:"-" validate:"required,max=256"`
	Seed   map[string]any `json:"seed" validate:"required,min=1"`
}
