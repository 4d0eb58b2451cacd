package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "version"), "keystone version")
}

func TestDemoAndHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--store", "file", "--dir", dir, "--log-level", "error"}

	out := run(t, append([]string{"demo"}, common...)...)
	assert.Contains(t, out, "After two undos")
	assert.Contains(t, out, "History saved as session")

	var sessions []sessionSummary
	out = run(t, append([]string{"history", "ls", "-o", "json"}, common...)...)
	require.NoError(t, json.Unmarshal([]byte(out), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, 3, sessions[0].UndoLevels)
	assert.Equal(t, 1, sessions[0].RedoLevels)

	id := sessions[0].ID
	out = run(t, append([]string{"history", "inspect", id, "-o", "yaml", "--stack", "redo"}, common...)...)
	assert.Contains(t, out, "actionName: clearDone")

	out = run(t, append([]string{"history", "inspect", id, "-o", "text", "--stack", ""}, common...)...)
	assert.Contains(t, out, "Undo queue")
	assert.Contains(t, out, "setDone on /todos/0")

	out = run(t, append([]string{"history", "rm", "--all"}, common...)...)
	assert.Contains(t, out, "Removed session '"+id+"'")

	out = run(t, append([]string{"history", "ls", "-o", "text"}, common...)...)
	assert.True(t, strings.Contains(out, "No sessions found."), out)
}

func TestWriteStructuredRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeStructured(&buf, "xml", map[string]int{"a": 1}))
}
