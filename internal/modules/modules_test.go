package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/transcript"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

func newDemoSystem(t *testing.T) (*dialog.System, *Pipeline) {
	t.Helper()

	p, err := New(Dependencies{})
	require.NoError(t, err)

	catalogue, err := topics.NewManager()
	require.NoError(t, err)

	sys, err := dialog.New(p.Services(),
		dialog.WithStore(sessionstore.New(sessionstore.WithReclaimInterval(0))),
		dialog.WithTopics(catalogue),
		dialog.WithFallback(topics.SysUtterance.Name(), "Sorry, something went wrong."),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })
	return sys, p
}

func TestPipeline_IsConsistent(t *testing.T) {
	sys, _ := newDemoSystem(t)

	report := sys.Validate()
	assert.True(t, report.OK())
	assert.Empty(t, report.Warnings())
}

func TestPipeline_HelloGreet(t *testing.T) {
	sys, p := newDemoSystem(t)
	ctx := context.Background()

	res, err := sys.Turn(ctx, "student", dialog.Seed{"user_utterance": "hello"})
	require.NoError(t, err)

	acts0, _ := res.Value("user_acts")
	assert.Equal(t, []acts.UserAct{{Intent: acts.IntentGreet, Text: "hello"}}, acts0)

	act, ok := res.Value("sys_act")
	require.True(t, ok)
	sysAct, err := acts.Decode[acts.SysAct](act)
	require.NoError(t, err)
	assert.Equal(t, acts.SysGreet, sysAct.Type)

	utterance, _ := res.Value("sys_utterance")
	assert.Equal(t, []string{"Hi!"}, utterance)
	assert.False(t, res.EndDialog)
	assert.False(t, res.Fallback)

	assert.Equal(t,
		[]string{"user_acts", "beliefstate", "sys_act", "sys_end_dialog", "sys_utterance"},
		res.EmittedTopics())

	entries := p.Transcript.Transcript("student")
	require.Len(t, entries, 2)
	assert.Equal(t, transcript.Entry{Speaker: transcript.SpeakerUser, Text: "hello", At: entries[0].At}, entries[0])
	assert.Equal(t, "Hi!", entries[1].Text)
}

func TestPipeline_RunDialog(t *testing.T) {
	sys, _ := newDemoSystem(t)

	results, err := sys.RunDialog(context.Background(), "student", []dialog.Seed{
		{"user_utterance": ""},
		{"user_utterance": "Hallo!"},
		{"user_utterance": "thanks, bye"},
		{"user_utterance": "never sent"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3, "the dialog ends with the bye turn")

	first, _ := results[0].Value("sys_utterance")
	assert.Len(t, first, 2, "welcome")
	assert.True(t, results[2].EndDialog)

	assert.Empty(t, sys.Store().Namespace("bst").Sessions(), "ending the dialog removes its state")
}

func TestPipeline_SessionsAreIsolated(t *testing.T) {
	sys, _ := newDemoSystem(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := sys.Turn(ctx, "a", dialog.Seed{"user_utterance": "gibberish"})
		require.NoError(t, err)
	}
	res, err := sys.Turn(ctx, "b", dialog.Seed{"user_utterance": "gibberish"})
	require.NoError(t, err)

	act, _ := res.Value("sys_act")
	sysAct, err := acts.Decode[acts.SysAct](act)
	require.NoError(t, err)
	assert.Equal(t, acts.SysBad, sysAct.Type)
	assert.EqualValues(t, 1, sysAct.Slots["count"])
}
