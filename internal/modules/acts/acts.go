package acts

import (
	"encoding/json"
	"fmt"
)

// Intent is the coarse meaning of a user act.
type Intent string

const (
	IntentStart  Intent = "start"
	IntentGreet  Intent = "greet"
	IntentHelp   Intent = "help"
	IntentThanks Intent = "thanks"
	IntentBye    Intent = "bye"
	IntentBad    Intent = "bad"
)

// UserAct is a single act recognised in a user utterance.
type UserAct struct {
	Intent Intent `json:"intent"`
	Text   string `json:"text,omitempty"`
}

// SysActType names the system act chosen by the policy.
type SysActType string

const (
	SysWelcome      SysActType = "welcome"
	SysGreet        SysActType = "greet"
	SysHelp         SysActType = "help"
	SysYoureWelcome SysActType = "youre_welcome"
	SysBye          SysActType = "bye"
	SysBad          SysActType = "bad"
)

// SysAct is the system act handed to language generation.
type SysAct struct {
	Type  SysActType     `json:"type"`
	Slots map[string]any `json:"slots,omitempty"`
}

// BeliefState is the tracked state of a session.
type BeliefState struct {
	LastIntent Intent         `json:"last_intent"`
	Turns      int            `json:"turns"`
	Intents    map[Intent]int `json:"intents"`
}

// Decode converts a topic value into T. Values produced by scripts arrive as
// generic maps and slices; values produced by Go services already have type T.
func Decode[T any](v any) (T, error) {
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode %T into %T: %w", v, out, err)
	}
	return out, nil
}
