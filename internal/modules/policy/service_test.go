package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

func newPolicy(t *testing.T) (*service.Handler, func(userID string) error) {
	t.Helper()
	store := sessionstore.New(sessionstore.WithReclaimInterval(0))
	t.Cleanup(store.Shutdown)

	svc, err := New(nil)
	require.NoError(t, err)
	svc.Attach(store.Namespace(svc.Name()))

	r := service.NewRegistrar(svc.Name())
	require.NoError(t, svc.Register(r))
	require.Len(t, r.Handlers(), 1)
	h := r.Handlers()[0]

	return &h, func(userID string) error { return svc.DialogStart(context.Background(), userID) }
}

func choose(t *testing.T, h *service.Handler, userID string, intent acts.Intent) (acts.SysAct, bool) {
	t.Helper()
	bs := acts.BeliefState{LastIntent: intent, Turns: 1, Intents: map[acts.Intent]int{intent: 1}}
	out, err := h.Fn(context.Background(), userID, service.Inputs{"beliefstate": bs})
	require.NoError(t, err)

	act, err := acts.Decode[acts.SysAct](out["sys_act"])
	require.NoError(t, err)
	end, _ := out["sys_end_dialog"].(bool)
	return act, end
}

func TestPolicy_Declaration(t *testing.T) {
	h, _ := newPolicy(t)
	assert.Equal(t, "policy.choose", h.QualifiedName())
	assert.Equal(t, []string{"beliefstate"}, h.Consumes)
	assert.Equal(t, []string{"sys_act", "sys_end_dialog"}, h.Produces)
}

func TestPolicy_Intents(t *testing.T) {
	h, _ := newPolicy(t)

	tests := []struct {
		intent acts.Intent
		want   acts.SysActType
		end    bool
	}{
		{acts.IntentStart, acts.SysWelcome, false},
		{acts.IntentGreet, acts.SysGreet, false},
		{acts.IntentHelp, acts.SysHelp, false},
		{acts.IntentThanks, acts.SysYoureWelcome, false},
		{acts.IntentBye, acts.SysBye, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			act, end := choose(t, h, "u-"+string(tt.intent), tt.intent)
			assert.Equal(t, tt.want, act.Type)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestPolicy_GivesUpAfterRepeatedBadInput(t *testing.T) {
	h, start := newPolicy(t)

	for i := 1; i < MaxBadTurns; i++ {
		act, end := choose(t, h, "u", acts.IntentBad)
		assert.Equal(t, acts.SysBad, act.Type)
		assert.EqualValues(t, i, act.Slots["count"])
		assert.False(t, end)
	}

	act, end := choose(t, h, "u", acts.IntentBad)
	assert.Equal(t, acts.SysBye, act.Type)
	assert.True(t, end)

	// A new dialog starts counting from zero again.
	require.NoError(t, start("u"))
	act, _ = choose(t, h, "u", acts.IntentBad)
	assert.EqualValues(t, 1, act.Slots["count"])

	// Recognised input resets the counter.
	choose(t, h, "u", acts.IntentGreet)
	act, _ = choose(t, h, "u", acts.IntentBad)
	assert.EqualValues(t, 1, act.Slots["count"])
}
