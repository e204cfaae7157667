package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/circuit-timer/internal/workout"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExport_SeedsAndWritesYAML(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "export", "--data-dir", dir, "--audio", "none", "--wake", "none")
	require.NoError(t, err)

	list, err := workout.DecodeYAML(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, "Quick", list[0].Name)
	assert.FileExists(t, filepath.Join(dir, "workouts.db"))
	assert.FileExists(t, filepath.Join(dir, "circuit-timer.log"))
}

func TestExport_FromSeedFile(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	var buf bytes.Buffer
	require.NoError(t, workout.EncodeYAML(&buf, []workout.Definition{{
		Name:      "Only",
		Exercises: []workout.Exercise{{Name: "Squat", Duration: 40}},
	}}))
	require.NoError(t, os.WriteFile(seed, buf.Bytes(), 0o644))

	out, err := runCommand(t, "export", "--data-dir", dir, "--seed", seed)
	require.NoError(t, err)

	list, err := workout.DecodeYAML(bytes.NewReader([]byte(out)))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Only", list[0].Name)
	assert.Equal(t, 40, list[0].Exercises[0].Duration)
}

func TestCommands_RejectBadInput(t *testing.T) {
	_, err := runCommand(t, "bogus")
	assert.Error(t, err)

	_, err = runCommand(t, "serve", "extra", "--data-dir", t.TempDir())
	assert.Error(t, err)

	_, err = runCommand(t, "export", "--data-dir", t.TempDir(), "--audio", "alsa")
	assert.ErrorContains(t, err, "audio.backend")
}
