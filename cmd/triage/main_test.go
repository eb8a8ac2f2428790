package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte(`{"dependencies": {"express": "^4.18.0"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.js"), []byte(`const express = require("express");
const app = express();

function handler(req, res) {
  if (req.query.a && req.query.b) {
    return res.send("both");
  }
  res.send("one");
}
`), 0o644))
	return dir
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(content, &out))
	return out
}

func TestNewApp_Metadata(t *testing.T) {
	app := newApp()
	assert.Contains(t, app.Version, version)
	assert.Contains(t, app.Version, commit)
	assert.Contains(t, app.Version, date)
	assert.Contains(t, app.Description, "C#")
	assert.Contains(t, app.Description, "Bash")
}

func TestAnalyzeShowList(t *testing.T) {
	t.Chdir(t.TempDir())
	src := writeProject(t)
	storeDir := filepath.Join(t.TempDir(), "db")
	outDir := t.TempDir()

	analyzeOut := filepath.Join(outDir, "analyze.json")
	err := newApp().Run([]string{"triage", "--store", storeDir, "--format", "json", "--output", analyzeOut,
		"analyze", "--project", "p-1", "--no-progress", src})
	require.NoError(t, err)

	rep := readJSON(t, analyzeOut)
	assert.Equal(t, "p-1", rep["project_id"])
	assert.Equal(t, "completed", rep["status"])
	assert.NotEmpty(t, rep["languages"])

	assert.FileExists(t, filepath.Join(src, "index.js"), "the analyzed directory is left untouched")

	showOut := filepath.Join(outDir, "show.json")
	require.NoError(t, newApp().Run([]string{"triage", "--store", storeDir, "--format", "json", "--output", showOut, "show", "p-1"}))
	assert.Equal(t, rep, readJSON(t, showOut))

	listOut := filepath.Join(outDir, "list.json")
	require.NoError(t, newApp().Run([]string{"triage", "--store", storeDir, "--format", "json", "--output", listOut, "list"}))
	content, err := os.ReadFile(listOut)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"project_id":"p-1","status":"completed"}]`, string(content))
}

func TestAnalyze_FailedRunStillWritesPartialReport(t *testing.T) {
	t.Chdir(t.TempDir())
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "README.md"), []byte("# docs\n"), 0o644))
	out := filepath.Join(t.TempDir(), "out.json")

	err := newApp().Run([]string{"triage", "--store", filepath.Join(t.TempDir(), "db"), "--format", "json", "--output", out,
		"analyze", "--project", "docs", "--no-progress", src})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source files found")

	rep := readJSON(t, out)
	assert.Equal(t, "partial", rep["status"])
}

func TestAnalyze_RequiresTarget(t *testing.T) {
	err := newApp().Run([]string{"triage", "analyze"})
	assert.ErrorContains(t, err, "exactly one target")
}

func TestShow_UnknownProject(t *testing.T) {
	t.Chdir(t.TempDir())
	err := newApp().Run([]string{"triage", "--store", filepath.Join(t.TempDir(), "db"), "show", "missing"})
	assert.ErrorContains(t, err, "no report for project missing")
}

func TestSchemaCmd(t *testing.T) {
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf

	require.NoError(t, app.Run([]string{"triage", "schema"}))
	assert.Contains(t, buf.String(), `"title": "AnalysisReport"`)
}

func TestStatusColor(t *testing.T) {
	for _, status := range []string{"pending", "analyzing", "completed", "failed"} {
		assert.Contains(t, statusColor(status), status)
	}
}
