package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/framehost/pkg/adapters/rawmp4"
	"github.com/user/framehost/pkg/adapters/osfilesystem"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"framehost"}, args...))
	return stdout.String() + stderr.String(), err
}

func TestPluginsCommand(t *testing.T) {
	out, err := run(t, "plugins")
	require.NoError(t, err)

	for _, name := range []string{"delay", "framerate2x", "scale", "timestamp"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "yuv420p, yuv422p")
}

func TestRunCommand_SingleStream(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.mp4")
	summary := filepath.Join(dir, "summary.json")

	_, err := run(t, "run", "-q",
		"--plugin", "framerate2x", "--id", "cam1",
		"--width", "16", "--height", "8", "--frames", "3",
		"--output-type", "mp4", "--output", output,
		"--summary", summary)
	require.NoError(t, err)

	r, err := rawmp4.Open(osfilesystem.New(), output)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Len())

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	var decoded struct {
		Streams []struct {
			ID        string `json:"id"`
			FramesOut int64  `json:"frames_out"`
			Source    string `json:"source"`
		} `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Streams, 1)
	assert.Equal(t, "cam1", decoded.Streams[0].ID)
	assert.Equal(t, int64(6), decoded.Streams[0].FramesOut)
	assert.Equal(t, "testsrc", decoded.Streams[0].Source)
}

func TestRunCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "framehost.yaml")
	summary := filepath.Join(dir, "summary.md")
	yaml := `
log_level: warn
workers: 2
streams:
  - id: a
    source: {width: 8, height: 8, frames: 4}
    plugin: {name: delay, opts: depth=2}
  - id: b
    source: {width: 8, height: 8, frames: 2}
    plugin: {name: scale, options: {w: 4, h: 4}}
    output: {type: images, path: ` + filepath.Join(dir, "frames") + `}
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	out, err := run(t, "run", "--config", cfgPath, "--summary", summary)
	require.NoError(t, err, out)

	md, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(md), "| a | delay |")
	assert.Contains(t, string(md), "| b | scale |")

	entries, err := os.ReadDir(filepath.Join(dir, "frames"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunCommand_ParallelStream(t *testing.T) {
	output := filepath.Join(t.TempDir(), "scaled.mp4")

	_, err := run(t, "run", "-q",
		"--plugin", "scale", "--opts", "w=8,h=4", "--parallel", "3", "--buffer", "2",
		"--width", "16", "--height", "8", "--frames", "7",
		"--output-type", "mp4", "--output", output)
	require.NoError(t, err)

	r, err := rawmp4.Open(osfilesystem.New(), output)
	require.NoError(t, err)
	require.Equal(t, 7, r.Len())
	assert.Equal(t, 8, r.Info().Width)
}

func TestRunCommand_Errors(t *testing.T) {
	_, err := run(t, "run", "-q")
	assert.Error(t, err)

	_, err = run(t, "run", "-q", "--plugin", "nosuch", "--frames", "1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown plugin"))

	_, err = run(t, "run", "-q", "--plugin", "delay", "--clone-policy", "deep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clone_policy")

	_, err = run(t, "run", "-q", "--plugin", "scale", "--parallel", "40")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel")
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}
