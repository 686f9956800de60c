package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/exactode/internal/render"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSolve_Args(t *testing.T) {
	out, err := run(t, "solve", "y", "x", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "x*y = C")
	assert.Contains(t, out, "5. Solución General")
}

func TestSolve_FlagsJSON(t *testing.T) {
	out, err := run(t, "solve", "--m", "x + y", "--n", "1", "-o", "json", "--log-level", "error")
	require.NoError(t, err)

	var doc render.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.True(t, doc.Solved)
	assert.Equal(t, "exp(x)", doc.Factor)
}

func TestSolve_Unsolved(t *testing.T) {
	out, err := run(t, "solve", "x*y", "x + y", "-o", "markdown", "--log-level", "error")
	assert.ErrorIs(t, err, errUnsolved)
	assert.Contains(t, out, "### Error")
}

func TestSolve_BadArgs(t *testing.T) {
	_, err := run(t, "solve", "y")
	assert.Error(t, err)
	_, err = run(t, "solve", "y", "x", "--m", "y")
	assert.Error(t, err)
	_, err = run(t, "solve", "y", "x", "-o", "html")
	assert.ErrorContains(t, err, "output.format")
}

func TestBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	content := "equations:\n  - name: product\n    m: y\n    n: x\n  - name: poly\n    m: 2*x*y\n    n: x^2 - y^2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := run(t, "batch", path, "-o", "yaml", "--concurrency", "2", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "name: product")
	assert.Contains(t, out, "solution_text: x*y = C")
	assert.Contains(t, out, "name: poly")
}

func TestBatch_MissingFile(t *testing.T) {
	_, err := run(t, "batch", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "exactode dev\n", out)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exactode.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\nlogging:\n  level: error\n"), 0o600))

	out, err := run(t, "--config", path, "solve", "y", "x")
	require.NoError(t, err)
	var doc render.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "x*y = C", doc.SolutionText)
}
