package script

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

// stateKey is the namespace key holding the script's state map.
const stateKey = "script_state"

var validate = validator.New()

// Service is a dialog service whose single handler runs a Tengo script.
type Service struct {
	service.Base
	engine  *TengoEngine
	program *Program
}

// Compile-time interface compliance checks
var (
	_ service.Service       = (*Service)(nil)
	_ service.DialogStarter = (*Service)(nil)
)

// NewService validates and compiles def. A nil engine uses the defaults.
func NewService(def Definition, engine *TengoEngine) (*Service, error) {
	if err := validate.Struct(def); err != nil {
		return nil, NewScriptError(ErrorTypeInvalidConfig, def.Name, def.Handler, "invalid script definition", err)
	}
	if engine == nil {
		engine = NewTengoEngine()
	}

	program, err := engine.Compile(def)
	if err != nil {
		return nil, err
	}

	return &Service{
		Base:    service.NewBase(def.Name),
		engine:  engine,
		program: program,
	}, nil
}

// Register declares the script handler.
func (s *Service) Register(r *service.Registrar) error {
	def := s.program.Definition()
	return r.Handle(def.Handler, s.handle,
		service.Consumes(def.Consumes...),
		service.Produces(def.Produces...))
}

// DialogStart clears the state map when the definition asks for it.
func (s *Service) DialogStart(ctx context.Context, userID string) error {
	if s.program.Definition().ResetStateOnStart {
		s.State().Delete(userID, stateKey)
	}
	return nil
}

func (s *Service) handle(ctx context.Context, userID string, in service.Inputs) (service.Outputs, error) {
	state, _ := sessionstore.GetAs[map[string]any](s.State(), userID, stateKey)

	out, newState, err := s.engine.Run(ctx, s.program, userID, in, state)
	if err != nil {
		return nil, err
	}

	s.State().Set(userID, stateKey, newState)
	return service.Outputs(out), nil
}

// String identifies the service in logs.
func (s *Service) String() string {
	def := s.program.Definition()
	return fmt.Sprintf("script %s.%s", def.Name, def.Handler)
}
