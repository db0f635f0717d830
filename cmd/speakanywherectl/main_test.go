package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunHelpPrintsUsage(t *testing.T) {
	stdout, stderr := newCaptureFiles(t)
	code := run(context.Background(), []string{"--help"}, stdout, stderr)
	require.Equal(t, 0, code)
	require.Contains(t, readFile(t, stdout), "Usage:")
}

func TestRunUnknownCommandExitsNonZero(t *testing.T) {
	stdout, stderr := newCaptureFiles(t)
	code := run(context.Background(), []string{"not-a-command"}, stdout, stderr)
	require.Equal(t, 2, code)
	require.Contains(t, readFile(t, stderr), "unknown command")
}

func TestRunVersionPrintsBuildMetadata(t *testing.T) {
	stdout, stderr := newCaptureFiles(t)
	code := run(context.Background(), []string{"--version"}, stdout, stderr)
	require.Equal(t, 0, code)
	require.Contains(t, readFile(t, stdout), "speak-anywhere")
}

func TestRunToggleFailsCleanlyWithoutRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	stdout, stderr := newCaptureFiles(t)
	code := run(context.Background(), []string{"toggle"}, stdout, stderr)
	require.Equal(t, 1, code)
	require.Contains(t, readFile(t, stderr), "XDG_RUNTIME_DIR")
}

func TestRunToggleReportsNoDaemonWhenSocketMissing(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	stdout, stderr := newCaptureFiles(t)
	code := run(context.Background(), []string{"toggle"}, stdout, stderr)
	require.Equal(t, 1, code)
	require.Contains(t, readFile(t, stderr), "not running")
}

func newCaptureFiles(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	dir := t.TempDir()

	stdout, err := os.Create(filepath.Join(dir, "stdout"))
	require.NoError(t, err)
	t.Cleanup(func() { stdout.Close() })

	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	require.NoError(t, err)
	t.Cleanup(func() { stderr.Close() })

	return stdout, stderr
}

func readFile(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(data)
}
