package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hullform/pkg/cli"
)

// workspace writes a configuration pointing at the repository constants
// and a scratch build directory.
func workspace(t *testing.T) (cfgPath, buildDir string) {
	t.Helper()
	dir := t.TempDir()
	constants, err := filepath.Abs("../../constant")
	require.NoError(t, err)
	buildDir = filepath.Join(dir, "build")
	cfgPath = filepath.Join(dir, "hullform.yaml")
	yaml := fmt.Sprintf("constants_dir: %s\nbuild_dir: %s\nmetrics:\n  textfile: %s\n",
		constants, buildDir, filepath.Join(buildDir, "metrics.prom"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))
	return cfgPath, buildDir
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "err = %v, want *cli.ExitError", err)
	return exitErr.Code
}

func TestRunNoArgs(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, &bytes.Buffer{}, nil)
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"launch"})
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), `unknown command "launch"`)
}

func TestRunStages(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, &bytes.Buffer{}, []string{"stages"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.Regexp(t, `^STAGE\s+ARTIFACT\s+DEPENDS ON$`, lines[0])
	assert.Regexp(t, `^color\s+\{boat\}\.\{config\}\.color\.FCStd\s+design, material\.json$`, lines[3])
}

func TestRunBuildArgs(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"build", "catamaran"})
	assert.Equal(t, 2, exitCode(t, err))

	err = run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"build", "-no-such-flag"})
	assert.Equal(t, 2, exitCode(t, err))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, &bytes.Buffer{}, []string{"build", "-h"}))
	assert.Contains(t, out.String(), "-stage")
}

func TestRunBuildUnknownStage(t *testing.T) {
	cfg, _ := workspace(t)
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{},
		[]string{"build", "-config", cfg, "-stage", "paint", "catamaran", "standard"})
	assert.Equal(t, 2, exitCode(t, err))
}

func TestRunBuildMissingConfig(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{},
		[]string{"build", "-config", filepath.Join(t.TempDir(), "absent.yaml"), "catamaran", "standard"})
	assert.Equal(t, 1, exitCode(t, err))
}

func TestRunBuildAndExport(t *testing.T) {
	cfg, buildDir := workspace(t)
	ctx := context.Background()

	var out, logs bytes.Buffer
	require.NoError(t, run(ctx, &out, &logs,
		[]string{"build", "-config", cfg, "-stage", "design", "-log-format", "json", "catamaran", "standard"}))
	assert.Regexp(t, `(?m)^parameter\s+\S+catamaran\.standard\.parameter\.json\s+\d`, out.String())
	assert.Regexp(t, `(?m)^design\s+\S+catamaran\.standard\.design\.FCStd\s+\d`, out.String())
	assert.Contains(t, logs.String(), `"stage":"design"`)

	prom, err := os.ReadFile(filepath.Join(buildDir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `hullform_stage_runs_total{stage="design"} 1`)

	// A second build finds everything up to date.
	out.Reset()
	require.NoError(t, run(ctx, &out, &bytes.Buffer{},
		[]string{"build", "-config", cfg, "-stage", "design", "catamaran", "standard"}))
	assert.Regexp(t, `(?m)^design\s+\S+\s+up to date$`, out.String())

	design := filepath.Join(buildDir, "catamaran.standard.design.FCStd")
	dst := filepath.Join(t.TempDir(), "boat.step")
	out.Reset()
	require.NoError(t, run(ctx, &out, &bytes.Buffer{},
		[]string{"export", "-config", cfg, "-format", "step", "-o", dst, design}))
	assert.Equal(t, dst+"\n", out.String())
	step, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(step), "ISO-10303-21;"))
	assert.Contains(t, string(step), "FACETED_BREP")
}

func TestRunExportRejectsFormat(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{},
		[]string{"export", "-format", "obj", "boat.FCStd"})
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), `invalid format "obj"`)
}

func TestRunPublishNeedsBucket(t *testing.T) {
	cfg, _ := workspace(t)
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{},
		[]string{"publish", "-config", cfg, "catamaran", "standard"})
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), "no bucket")
}
