package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

const counterSource = `
text := import("text")

count := state.count
if count == undefined {
	count = 0
}
count += 1
state.count = count

reply := undefined
if text.contains(user_utterance, "hello") {
	reply = "Hi " + user_id + "! (" + count + ")"
}
done := count >= 3
`

func counterDefinition() Definition {
	return Definition{
		Name:     "counter",
		Consumes: []string{"user_utterance"},
		Produces: []string{"reply", "done"},
		Source:   counterSource,
	}
}

func attach(t *testing.T, svc service.Service) *sessionstore.Store {
	t.Helper()
	store := sessionstore.New(sessionstore.WithReclaimInterval(0))
	t.Cleanup(store.Shutdown)
	svc.Attach(store.Namespace(svc.Name()))
	return store
}

func registeredHandler(t *testing.T, svc service.Service) service.Handler {
	t.Helper()
	r := service.NewRegistrar(svc.Name())
	require.NoError(t, svc.Register(r))
	handlers := r.Handlers()
	require.Len(t, handlers, 1)
	return handlers[0]
}

func TestService_RunsScriptWithState(t *testing.T) {
	svc, err := NewService(counterDefinition(), nil)
	require.NoError(t, err)
	attach(t, svc)

	h := registeredHandler(t, svc)
	assert.Equal(t, "counter.run", h.QualifiedName())
	assert.Equal(t, []string{"reply", "done"}, h.Produces)

	ctx := context.Background()
	out, err := h.Fn(ctx, "42", service.Inputs{"user_utterance": "hello bot"})
	require.NoError(t, err)
	assert.Equal(t, "Hi 42! (1)", out["reply"])
	assert.Equal(t, false, out["done"])

	out, err = h.Fn(ctx, "42", service.Inputs{"user_utterance": "what?"})
	require.NoError(t, err)
	_, hasReply := out["reply"]
	assert.False(t, hasReply, "undefined variables are not published")

	out, err = h.Fn(ctx, "42", service.Inputs{"user_utterance": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi 42! (3)", out["reply"])
	assert.Equal(t, true, out["done"])

	out, err = h.Fn(ctx, "other", service.Inputs{"user_utterance": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi other! (1)", out["reply"], "state is per session")
}

func TestService_ResetStateOnStart(t *testing.T) {
	def := counterDefinition()
	def.ResetStateOnStart = true
	svc, err := NewService(def, nil)
	require.NoError(t, err)
	attach(t, svc)
	h := registeredHandler(t, svc)

	ctx := context.Background()
	_, err = h.Fn(ctx, "u", service.Inputs{"user_utterance": "hello"})
	require.NoError(t, err)

	require.NoError(t, svc.DialogStart(ctx, "u"))
	out, err := h.Fn(ctx, "u", service.Inputs{"user_utterance": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hi u! (1)", out["reply"])
}

func TestService_StructuredInputs(t *testing.T) {
	type beliefState struct {
		Intent string   `json:"intent"`
		Turns  int      `json:"turns"`
		Tags   []string `json:"tags"`
	}

	svc, err := NewService(Definition{
		Name:     "policy",
		Consumes: []string{"beliefstate"},
		Produces: []string{"sys_act"},
		Source: `
sys_act := {intent: beliefstate.intent, next: beliefstate.turns + 1, first_tag: beliefstate.tags[0]}
`,
	}, nil)
	require.NoError(t, err)
	attach(t, svc)
	h := registeredHandler(t, svc)

	out, err := h.Fn(context.Background(), "u", service.Inputs{
		"beliefstate": beliefState{Intent: "Greet", Turns: 2, Tags: []string{"a", "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"intent":    "Greet",
		"next":      int64(3),
		"first_tag": "a",
	}, out["sys_act"])
}

func TestNewService_Errors(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		kind ErrorType
	}{
		{"missing name", Definition{Consumes: []string{"a"}, Source: "x := 1"}, ErrorTypeInvalidConfig},
		{"no consumes", Definition{Name: "s", Source: "x := 1"}, ErrorTypeInvalidConfig},
		{"reserved topic", Definition{Name: "s", Consumes: []string{"state"}, Source: "x := 1"}, ErrorTypeInvalidConfig},
		{"syntax error", Definition{Name: "s", Consumes: []string{"a"}, Source: "x := (("}, ErrorTypeCompilation},
		{"unknown variable", Definition{Name: "s", Consumes: []string{"a"}, Source: "x := b"}, ErrorTypeCompilation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.def, nil)
			require.Error(t, err)
			var scriptErr *ScriptError
			require.True(t, errors.As(err, &scriptErr))
			assert.Equal(t, tt.kind, scriptErr.Type)
		})
	}
}

func TestService_Timeout(t *testing.T) {
	svc, err := NewService(Definition{
		Name:     "spin",
		Consumes: []string{"tick"},
		Source:   "for { }",
		Timeout:  20 * time.Millisecond,
	}, NewTengoEngine(WithSecurityLimits(SecurityLimits{MaxExecutionTime: time.Second})))
	require.NoError(t, err)
	attach(t, svc)
	h := registeredHandler(t, svc)

	_, err = h.Fn(context.Background(), "u", service.Inputs{"tick": 1})
	require.Error(t, err)
	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, ErrorTypeTimeout, scriptErr.Type)
}

func TestLoadDefinitions(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "scripts/b_echo.yaml", []byte(`
name: echo
consumes: [user_utterance]
produces: [sys_utterance]
source_file: echo.tengo
timeout: 500ms
`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "scripts/echo.tengo", []byte(`sys_utterance := [user_utterance]`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "scripts/a_inline.yml", []byte(`
name: inline
handler: greet
consumes: [user_acts]
source: |
  x := 1
`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "scripts/README.md", []byte("ignored"), 0o644))

	defs, err := LoadDefinitions(fsys, "scripts")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "inline", defs[0].Name)
	assert.Equal(t, "greet", defs[0].Handler)
	assert.Equal(t, "echo", defs[1].Name)
	assert.Equal(t, 500*time.Millisecond, defs[1].Timeout)
	assert.Equal(t, "sys_utterance := [user_utterance]", defs[1].Source)

	svc, err := NewService(defs[1], nil)
	require.NoError(t, err)
	attach(t, svc)
	out, err := registeredHandler(t, svc).Fn(context.Background(), "u", service.Inputs{"user_utterance": "ping"})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"ping"}, out["sys_utterance"])

	t.Run("missing source", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fsys, "broken/x.yaml", []byte("name: x\nconsumes: [a]\n"), 0o644))
		_, err := LoadDefinitions(fsys, "broken")
		assert.Error(t, err)
	})
}
