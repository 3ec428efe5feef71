package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainHelp(t *testing.T) {
	output, err := runMainSubprocess(t, "--help")
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "Usage:")
}

func TestMainInvalidCommandExitsNonZero(t *testing.T) {
	output, err := runMainSubprocess(t, "not-a-command")
	require.Error(t, err)

	exitErr, ok := err.(*exec.ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.ExitCode())
	require.Contains(t, string(output), "unknown command")
}

func TestMainLoadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "intervu"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intervu", "config.jsonc"), []byte("{ broken"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("XDG_CONFIG_HOME="+dir+"\n"), 0o600))

	cmd := helperCommand("doctor")
	cmd.Dir = dir
	cmd.Env = append(filteredEnv("XDG_CONFIG_HOME"), "GO_WANT_HELPER_PROCESS=1", "XDG_STATE_HOME="+t.TempDir())
	output, err := cmd.CombinedOutput()
	require.Error(t, err)
	require.Contains(t, string(output), filepath.Join(dir, "intervu", "config.jsonc"))
}

func TestMainHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	dashIndex := -1
	for i, arg := range args {
		if arg == "--" {
			dashIndex = i
			break
		}
	}

	os.Args = []string{"intervu"}
	if dashIndex >= 0 && dashIndex+1 < len(args) {
		os.Args = append(os.Args, args[dashIndex+1:]...)
	}

	main()
}

func runMainSubprocess(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	cmd := helperCommand(args...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd.CombinedOutput()
}

func helperCommand(args ...string) *exec.Cmd {
	cmdArgs := []string{"-test.run=TestMainHelperProcess", "--"}
	cmdArgs = append(cmdArgs, args...)
	return exec.Command(os.Args[0], cmdArgs...)
}

func filteredEnv(drop string) []string {
	env := make([]string, 0, len(os.Environ()))
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, drop+"=") {
			continue
		}
		env = append(env, kv)
	}
	return env
}
