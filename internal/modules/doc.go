// Package modules assembles the demonstration dialog pipeline.
//
// Each subdirectory is one service: nlu, bst, policy, nlg and transcript.
// Their shared topic catalogue lives in topics and the value types that flow
// between them in acts.
package modules
