package detector

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectReturnsZeroResultForNonPositivePID(t *testing.T) {
	d := New([]string{"claude"})
	result := d.Detect(0)
	require.False(t, result.Found())
	require.Empty(t, result.Agent)
}

func TestDetectReturnsZeroResultWhenProcMissing(t *testing.T) {
	d := New([]string{"claude"})
	result := d.Detect(999999)
	require.False(t, result.Found())
}

func TestReadCommAndCwdReturnEmptyOnMissingProcess(t *testing.T) {
	require.Equal(t, "", readComm(999999))
	require.Equal(t, "", readCwd(999999))
}

func TestReadCommAndCwdResolveCurrentProcess(t *testing.T) {
	pid := os.Getpid()
	comm := readComm(pid)
	require.NotEmpty(t, comm)

	cwd := readCwd(pid)
	if cwd != "" {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.Equal(t, wd, cwd)
	}
}

func TestChildrenReturnsEmptyForMissingProcess(t *testing.T) {
	require.Empty(t, children(999999))
}
