package topics

import "github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"

// Topics of the demonstration pipeline:
//
//	user_utterance -> nlu -> user_acts -> bst -> beliefstate -> policy -> sys_act -> nlg -> sys_utterance
var (
	// UserUtterance carries the raw text typed by the user. Empty text opens a dialog.
	UserUtterance = topicmgr.DefineSeed(topicmgr.TopicConfig{
		Name:        "user_utterance",
		Description: "Raw text typed by the user; an empty string opens the dialog",
		Example:     `"hello"`,
	})

	// UserActs carries the dialog acts recognised in the utterance.
	UserActs = topicmgr.DefineInternal(topicmgr.TopicConfig{
		Name:        "user_acts",
		Owner:       "nlu",
		Description: "Dialog acts recognised in the user utterance",
		Example:     `[{"intent":"greet","text":"hello"}]`,
	})

	// BeliefState carries the tracked session belief after the latest user acts.
	BeliefState = topicmgr.DefineInternal(topicmgr.TopicConfig{
		Name:        "beliefstate",
		Owner:       "bst",
		Description: "Belief state of the session after the latest user acts",
		Example:     `{"last_intent":"greet","turns":1,"intents":{"greet":1}}`,
	})

	// SysAct carries the system act chosen by the policy.
	SysAct = topicmgr.DefineInternal(topicmgr.TopicConfig{
		Name:        "sys_act",
		Owner:       "policy",
		Description: "System dialog act chosen by the policy",
		Example:     `{"type":"greet","slots":{}}`,
	})

	// SysUtterance carries the rendered system reply for the transport.
	SysUtterance = topicmgr.DefineTerminal(topicmgr.TopicConfig{
		Name:        "sys_utterance",
		Owner:       "nlg",
		Description: "Rendered system messages, read by the transport",
		Example:     `["Hi!"]`,
	})

	// SysEndDialog is true when the policy closes the conversation.
	SysEndDialog = topicmgr.DefineTerminal(topicmgr.TopicConfig{
		Name:        "sys_end_dialog",
		Owner:       "policy",
		Description: "True when the conversation is over",
		Example:     `true`,
	})
)

// All returns the catalogue in pipeline order.
func All() []topicmgr.Topic {
	return []topicmgr.Topic{UserUtterance, UserActs, BeliefState, SysAct, SysUtterance, SysEndDialog}
}

// Register adds every topic of the pipeline to the manager.
func Register(manager *topicmgr.Manager) error {
	return manager.RegisterAll(All()...)
}

// NewManager returns a topic manager holding the pipeline catalogue.
func NewManager() (*topicmgr.Manager, error) {
	manager := topicmgr.NewManager()
	if err := Register(manager); err != nil {
		return nil, err
	}
	return manager, nil
}
