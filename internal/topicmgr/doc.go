// Package topicmgr is the topic catalogue of a dialog pipeline.
//
// Topics are plain strings on the bus; the catalogue documents them and marks
// where their values come from. Seed topics are supplied by the caller when a
// turn starts, terminal topics are read by collaborators outside the bus, and
// everything else is internal.
//
//	var UserUtterance = topicmgr.DefineSeed(topicmgr.TopicConfig{
//		Name:        "user_utterance",
//		Description: "Raw text typed by the user",
//		Example:     `"hello"`,
//	})
//
//	manager := topicmgr.NewManager()
//	if err := manager.Register(UserUtterance); err != nil {
//		return err
//	}
//
// The pipeline validator consults the catalogue to decide whether a consumed
// topic without producer is acceptable (seed) and whether a produced topic
// without consumer is acceptable (terminal).
package topicmgr
