package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hullform/pkg/cli"
	"github.com/chazu/hullform/pkg/pipeline"
)

func TestRunDot(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, []string{"--dot"}))
	assert.True(t, strings.HasPrefix(out.String(), "digraph MakefileDependencies {\n"))
	assert.True(t, strings.HasSuffix(out.String(), "}\n"))
}

func TestRunRejectsInvalidTable(t *testing.T) {
	saved := stages
	t.Cleanup(func() { stages = saved })
	stages = append([]pipeline.Stage{{Name: "sail", Artifact: "{boat}.sail", DependsOn: []string{"rigging.json"}}}, saved...)

	var out bytes.Buffer
	err := run(context.Background(), &out, []string{"--dot"})
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, exitErr.Message, `stage "sail" depends on unknown "rigging.json"`)
	assert.Empty(t, out.String())
}

func TestRunWithoutGraphviz(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	var out bytes.Buffer
	err := run(context.Background(), &out, []string{filepath.Join(t.TempDir(), "g.png")})

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "Error: 'dot' (graphviz) not found. Install with:\n"+
		"  brew install graphviz  # macOS\n"+
		"  apt install graphviz   # Linux", exitErr.Message)
	assert.Empty(t, out.String())
}

func TestRunDotFails(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\necho 'Format: \"pong\" not recognized' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dot"), []byte(script), 0o755))
	t.Setenv("PATH", dir)

	err := run(context.Background(), &bytes.Buffer{}, nil)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, "Error running dot: Format: \"pong\" not recognized\n", exitErr.Message)
}

func TestRunGenerates(t *testing.T) {
	dir := t.TempDir()
	// A stand-in dot that copies stdin to the -o file.
	script := "#!/bin/sh\ncat > \"$3\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dot"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	target := filepath.Join(dir, "graph.png")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, []string{target}))
	assert.Equal(t, "✓ Generated "+target+"\n", out.String())

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(written), "parameter -> design;")
}
