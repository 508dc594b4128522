package bst

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

func TestService_Update(t *testing.T) {
	store := sessionstore.New(sessionstore.WithReclaimInterval(0))
	defer store.Shutdown()

	svc := New()
	svc.Attach(store.Namespace(svc.Name()))
	r := service.NewRegistrar(svc.Name())
	require.NoError(t, svc.Register(r))
	update := r.Handlers()[0].Fn
	ctx := context.Background()

	out, err := update(ctx, "u", service.Inputs{"user_acts": []acts.UserAct{{Intent: acts.IntentGreet}}})
	require.NoError(t, err)
	bs := out["beliefstate"].(acts.BeliefState)
	assert.Equal(t, acts.IntentGreet, bs.LastIntent)
	assert.Equal(t, 1, bs.Turns)

	// Generic values, as produced by scripted services, are accepted too.
	out, err = update(ctx, "u", service.Inputs{"user_acts": []interface{}{
		map[string]interface{}{"intent": "help"},
		map[string]interface{}{"intent": "greet"},
	}})
	require.NoError(t, err)
	bs = out["beliefstate"].(acts.BeliefState)
	assert.Equal(t, acts.IntentGreet, bs.LastIntent)
	assert.Equal(t, 2, bs.Turns)
	assert.Equal(t, map[acts.Intent]int{acts.IntentGreet: 2, acts.IntentHelp: 1}, bs.Intents)

	require.NoError(t, svc.DialogStart(ctx, "u"))
	out, err = update(ctx, "u", service.Inputs{"user_acts": []acts.UserAct{{Intent: acts.IntentBye}}})
	require.NoError(t, err)
	bs = out["beliefstate"].(acts.BeliefState)
	assert.Equal(t, 1, bs.Turns, "dialog start resets the belief")

	_, err = update(ctx, "u", service.Inputs{"user_acts": "garbage"})
	assert.Error(t, err)
}
