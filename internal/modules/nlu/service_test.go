package nlu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
)

func intents(userActs []acts.UserAct) []acts.Intent {
	var out []acts.Intent
	for _, a := range userActs {
		out = append(out, a.Intent)
	}
	return out
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want []acts.Intent
	}{
		{"", []acts.Intent{acts.IntentStart}},
		{"   ", []acts.Intent{acts.IntentStart}},
		{"hello", []acts.Intent{acts.IntentGreet}},
		{"HALLO!", []acts.Intent{acts.IntentGreet}},
		{"Tschüss", []acts.Intent{acts.IntentBye}},
		{"hi, danke", []acts.Intent{acts.IntentGreet, acts.IntentThanks}},
		{"what is a tensor", []acts.Intent{acts.IntentBad}},
		{"this", []acts.Intent{acts.IntentBad}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, intents(Parse(tt.text)))
		})
	}
}

func TestService_Extract(t *testing.T) {
	svc := New()
	r := service.NewRegistrar(svc.Name())
	require.NoError(t, svc.Register(r))
	h := r.Handlers()[0]

	assert.Equal(t, "nlu.extract", h.QualifiedName())

	out, err := h.Fn(context.Background(), "42", service.Inputs{"user_utterance": "hello"})
	require.NoError(t, err)
	assert.Equal(t, []acts.UserAct{{Intent: acts.IntentGreet, Text: "hello"}}, out["user_acts"])
}
