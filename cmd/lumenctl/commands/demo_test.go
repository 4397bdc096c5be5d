package commands

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDemoCommand(t *testing.T) {
	out := captureStdout(func() {
		cmd := NewDemoCommand(testLogger())
		cmd.SetArgs([]string{"--members", "2", "--share", "equal", "--fade-ms", "1"})
		err := cmd.Execute()
		require.NoError(t, err)
	})
	// State changes are printed as they land on the bus.
	require.Contains(t, out, "bank")
	require.Contains(t, out, "relay")
}

func TestDemoCommandShareModes(t *testing.T) {
	for _, share := range []string{"incremental", "equal", "phase"} {
		t.Run(share, func(t *testing.T) {
			cmd := NewDemoCommand(testLogger())
			cmd.SetArgs([]string{"--members", "2", "--share", share, "--fade-ms", "1"})
			require.NoError(t, cmd.Execute())
		})
	}
}

func TestDemoCommandRejectsBadShare(t *testing.T) {
	cmd := NewDemoCommand(testLogger())
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"--share", "roundrobin"})
	require.Error(t, cmd.Execute())
}

func TestDemoCommandRejectsBadMemberCount(t *testing.T) {
	cmd := NewDemoCommand(testLogger())
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"--members", "0"})
	require.Error(t, cmd.Execute())
}

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCommand(testLogger(), "1.2.3", "abc", "today")
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["version"])
	require.True(t, names["curve"])
	require.True(t, names["demo"])
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(func() {
		root := NewRootCommand(testLogger(), "1.2.3", "abc", "today")
		root.SetArgs([]string{"version"})
		require.NoError(t, root.Execute())
	})
	require.Contains(t, out, "Version:    1.2.3")
	require.Contains(t, out, "Commit:     abc")
	require.Contains(t, out, "Build Date: today")
}
