package window

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func installHyprctlStub(t *testing.T, windows ...string) {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "calls.log")
	responsePath := filepath.Join(t.TempDir(), "responses.txt")
	require.NoError(t, os.WriteFile(responsePath, []byte(joinLines(windows)), 0o644))

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := `#!/usr/bin/env bash
set -euo pipefail
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  idx_file="` + logPath + `.idx"
  idx=0
  if [[ -f "$idx_file" ]]; then idx=$(cat "$idx_file"); fi
  line=$(sed -n "$((idx+1))p" "` + responsePath + `")
  echo $((idx+1)) > "$idx_file"
  echo "$line"
  exit 0
fi
exit 1
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}

func TestInitialFocusedReturnsSnapshot(t *testing.T) {
	installHyprctlStub(t, `{"address":"0x1","class":"firefox","initialClass":"firefox","title":"Example","pid":1234}`)

	snapshot, err := InitialFocused(context.Background())
	require.NoError(t, err)
	require.Equal(t, "firefox", snapshot.AppID)
	require.Equal(t, "Example", snapshot.Title)
	require.Equal(t, 1234, snapshot.PID)
	require.True(t, snapshot.NonTrivial())
}

func TestSourceEmitsOnlyOnAddressChange(t *testing.T) {
	installHyprctlStub(t,
		`{"address":"0x1","class":"kitty","initialClass":"kitty"}`,
		`{"address":"0x1","class":"kitty","initialClass":"kitty"}`,
		`{"address":"0x2","class":"firefox","initialClass":"firefox"}`,
	)

	s := NewSource(5 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	first := <-s.Events()
	require.Equal(t, "kitty", first.AppID)

	second := <-s.Events()
	require.Equal(t, "firefox", second.AppID)
}

func TestConnectFailsWithoutHyprctlOnPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	err := Connect(context.Background())
	require.Error(t, err)
}
