package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		topicsScope, topicsFormat, graphFormat = "", "table", "dot"
		simulateFile, simulateVerbose = "", false
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestTopicsList(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "topics", "list", "--format", "json")
		require.NoError(t, err)

		var topics []topicDisplay
		require.NoError(t, json.Unmarshal([]byte(out), &topics))
		byName := make(map[string]topicDisplay, len(topics))
		for _, td := range topics {
			byName[td.Name] = td
		}
		require.Contains(t, byName, "user_utterance")
		assert.Equal(t, "seed", byName["user_utterance"].Scope)
		assert.Contains(t, byName, "sys_utterance")
	})

	t.Run("table filtered by scope", func(t *testing.T) {
		out, err := execute(t, "topics", "list", "--scope", "seed")
		require.NoError(t, err)
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "user_utterance")
		assert.NotContains(t, out, "beliefstate")
	})

	t.Run("unknown scope", func(t *testing.T) {
		_, err := execute(t, "topics", "list", "--scope", "bogus")
		assert.Error(t, err)
	})
}

func TestPipelineCommands(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		out, err := execute(t, "pipeline", "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "pipeline is consistent")
	})

	t.Run("graph dot", func(t *testing.T) {
		out, err := execute(t, "pipeline", "graph")
		require.NoError(t, err)
		assert.Contains(t, out, "digraph pipeline {")
	})

	t.Run("graph json", func(t *testing.T) {
		out, err := execute(t, "pipeline", "graph", "--format", "json")
		require.NoError(t, err)

		var routes []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &routes))
		assert.NotEmpty(t, routes)
	})

	t.Run("graph unknown format", func(t *testing.T) {
		_, err := execute(t, "pipeline", "graph", "--format", "svg")
		assert.Error(t, err)
	})
}

func TestSimulate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_id: cli\nturns:\n  - hello\n  - bye\n"), 0o644))

	out, err := execute(t, "simulate", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "Hi!")
	assert.Contains(t, out, "dialog ended")
	assert.Contains(t, out, "2 turn(s) played for cli")
}

func TestSimulate_MissingFile(t *testing.T) {
	_, err := execute(t, "simulate", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dialogctl v")
}
