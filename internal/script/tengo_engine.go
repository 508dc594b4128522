package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

const (
	varUserID = "user_id"
	varState  = "state"
	varLog    = "log"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TengoEngine compiles and runs scripted handlers.
type TengoEngine struct {
	limits SecurityLimits
	logger *slog.Logger
}

// EngineOption configures a TengoEngine.
type EngineOption func(*TengoEngine)

// WithSecurityLimits replaces the default limits.
func WithSecurityLimits(limits SecurityLimits) EngineOption {
	return func(e *TengoEngine) {
		e.limits = limits
	}
}

// WithEngineLogger sets the logger that receives script log() calls.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *TengoEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewTengoEngine creates a new Tengo engine with default security limits
func NewTengoEngine(opts ...EngineOption) *TengoEngine {
	e := &TengoEngine{
		limits: GetDefaultSecurityLimits(),
		logger: slog.Default().With("component", "script"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Program is a compiled definition. It is safe for concurrent use; every run
// works on its own clone.
type Program struct {
	def      Definition
	compiled *tengo.Compiled
	inputs   map[string]string // topic -> variable
	outputs  map[string]string // topic -> variable
}

// Definition returns the definition the program was compiled from.
func (p *Program) Definition() Definition {
	return p.def
}

// VarName maps a topic to the script variable that carries it.
func VarName(topic string) string {
	return strings.ReplaceAll(topic, ".", "_")
}

// Compile checks and compiles a definition once. Syntax errors surface here.
func (e *TengoEngine) Compile(def Definition) (*Program, error) {
	if def.Handler == "" {
		def.Handler = DefaultHandlerName
	}
	fail := func(t ErrorType, msg string, cause error) error {
		return NewScriptError(t, def.Name, def.Handler, msg, cause)
	}

	p := &Program{
		def:     def,
		inputs:  make(map[string]string, len(def.Consumes)),
		outputs: make(map[string]string, len(def.Produces)),
	}
	for _, topic := range def.Consumes {
		name := VarName(topic)
		if err := checkVar(name); err != nil {
			return nil, fail(ErrorTypeInvalidConfig, "invalid consumed topic", err)
		}
		p.inputs[topic] = name
	}
	for _, topic := range def.Produces {
		name := VarName(topic)
		if err := checkVar(name); err != nil {
			return nil, fail(ErrorTypeInvalidConfig, "invalid produced topic", err)
		}
		p.outputs[topic] = name
	}

	s := tengo.NewScript([]byte(def.Source))
	s.SetImports(stdlib.GetModuleMap(e.limits.AllowedPackages...))
	if e.limits.MaxAllocs > 0 {
		s.SetMaxAllocs(e.limits.MaxAllocs)
	}

	for _, name := range p.inputs {
		if err := s.Add(name, nil); err != nil {
			return nil, fail(ErrorTypeCompilation, "failed to declare input "+name, err)
		}
	}
	if err := s.Add(varUserID, ""); err != nil {
		return nil, fail(ErrorTypeCompilation, "failed to declare user_id", err)
	}
	if err := s.Add(varState, map[string]interface{}{}); err != nil {
		return nil, fail(ErrorTypeCompilation, "failed to declare state", err)
	}
	if err := s.Add(varLog, e.logFunction(def)); err != nil {
		return nil, fail(ErrorTypeCompilation, "failed to declare log", err)
	}

	compiled, err := s.Compile()
	if err != nil {
		return nil, fail(ErrorTypeCompilation, "failed to compile script", err)
	}
	p.compiled = compiled

	e.logger.Debug("Tengo script compiled", "service", def.Name, "handler", def.Handler)
	return p, nil
}

func checkVar(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%q is not a valid script identifier", name)
	}
	switch name {
	case varUserID, varState, varLog:
		return fmt.Errorf("%q is reserved", name)
	}
	return nil
}

// Run executes the program for one handler invocation and returns the
// published outputs and the updated state map.
func (e *TengoEngine) Run(ctx context.Context, p *Program, userID string, in map[string]any, state map[string]any) (map[string]any, map[string]any, error) {
	def := p.def
	fail := func(t ErrorType, msg string, cause error) error {
		return NewScriptError(t, def.Name, def.Handler, msg, cause)
	}

	c := p.compiled.Clone()
	if err := c.Set(varUserID, userID); err != nil {
		return nil, nil, fail(ErrorTypeConversion, "failed to set user_id", err)
	}
	for topic, name := range p.inputs {
		v, err := toScriptValue(in[topic])
		if err != nil {
			return nil, nil, fail(ErrorTypeConversion, "failed to convert topic "+topic, err)
		}
		if err := c.Set(name, v); err != nil {
			return nil, nil, fail(ErrorTypeConversion, "failed to set topic "+topic, err)
		}
	}
	if state == nil {
		state = map[string]any{}
	}
	sv, err := toScriptValue(state)
	if err != nil {
		return nil, nil, fail(ErrorTypeConversion, "failed to convert state", err)
	}
	if err := c.Set(varState, sv); err != nil {
		return nil, nil, fail(ErrorTypeConversion, "failed to set state", err)
	}

	timeout := def.Timeout
	if timeout <= 0 {
		timeout = e.limits.MaxExecutionTime
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	if err := c.RunContext(runCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fail(ErrorTypeTimeout, fmt.Sprintf("script exceeded %s", timeout), err)
		}
		return nil, nil, fail(ErrorTypeExecution, "script execution failed", err)
	}

	out := make(map[string]any, len(p.outputs))
	for topic, name := range p.outputs {
		if c.IsDefined(name) {
			out[topic] = c.Get(name).Value()
		}
	}

	newState, ok := c.Get(varState).Value().(map[string]interface{})
	if !ok {
		return nil, nil, fail(ErrorTypeExecution, "state must remain a map", nil)
	}

	e.logger.Debug("Tengo script executed",
		"service", def.Name,
		"handler", def.Handler,
		"user_id", userID,
		"duration", time.Since(started))
	return out, newState, nil
}

func (e *TengoEngine) logFunction(def Definition) *tengo.UserFunction {
	logger := e.logger.With("service", def.Name, "handler", def.Handler)
	return &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) == 0 {
				return nil, tengo.ErrWrongNumArguments
			}
			parts := make([]string, 0, len(args))
			for _, a := range args {
				if s, ok := a.(*tengo.String); ok {
					parts = append(parts, s.Value)
					continue
				}
				parts = append(parts, a.String())
			}
			logger.Info("Script log", "message", strings.Join(parts, " "))
			return tengo.UndefinedValue, nil
		},
	}
}

// toScriptValue converts arbitrary Go values into the subset Tengo accepts:
// maps, slices, strings, bools, int64 and float64.
func toScriptValue(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, int, int64, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return integers(generic), nil
}

// integers turns integral JSON numbers back into int64.
func integers(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case []any:
		for i := range t {
			t[i] = integers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = integers(t[k])
		}
		return t
	}
	return v
}
