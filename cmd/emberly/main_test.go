package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/emberly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "emberly version "+strings.TrimSpace(emberly.Version)+"\n", out)
}

func TestGraphCommand(t *testing.T) {
	out, err := run(t, "graph", "--current", "Thinking", "--visited", "idle,listening")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "class thinking current;")
	assert.Contains(t, out, "class listening visited;")

	_, err = run(t, "graph", "--current", "dreaming")
	assert.ErrorContains(t, err, "unknown state")
}

func TestNotesCommand(t *testing.T) {
	out, err := run(t, "notes", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "demo-1")
	assert.Contains(t, out, "demo-3")
}
