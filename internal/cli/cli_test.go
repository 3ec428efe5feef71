package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/intervu.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/intervu.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		want    Parsed
	}{
		{name: "help short flag", args: []string{"-h"}, want: Parsed{Command: CommandHelp, ShowHelp: true}},
		{name: "help long flag", args: []string{"--help"}, want: Parsed{Command: CommandHelp, ShowHelp: true}},
		{name: "version flag", args: []string{"--version"}, want: Parsed{Command: CommandVersion}},
		{name: "config after command", args: []string{"status", "--config", "/tmp/cfg"}, wantErr: "must come before command"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"bogus"}, wantErr: "unknown command"},
		{name: "extra args after command", args: []string{"doctor", "extra"}, wantErr: "unexpected arguments"},
		{name: "flag before command", args: []string{"--email", "a@b.c", "run"}, wantErr: "not valid"},
		{name: "flag on wrong command", args: []string{"status", "--email", "a@b.c"}, wantErr: "not valid for command"},
		{name: "flag missing value", args: []string{"run", "--email"}, wantErr: "requires a value"},
		{name: "blank flag value", args: []string{"run", "--job", "  "}, wantErr: "requires a value"},
		{name: "export without out", args: []string{"export", "--email", "a@b.c"}, wantErr: "--out"},
		{
			name: "run with email and job",
			args: []string{"--config", "/tmp/cfg", "run", "--email", " ada@example.com ", "--job", "job-7"},
			want: Parsed{Command: CommandRun, ConfigPath: "/tmp/cfg", Email: "ada@example.com", JobID: "job-7"},
		},
		{
			name: "export",
			args: []string{"export", "--out", "results.xlsx", "--email", "ada@example.com"},
			want: Parsed{Command: CommandExport, Email: "ada@example.com", Out: "results.xlsx"},
		},
		{name: "serve with addr", args: []string{"serve", "--addr", ":9090"}, want: Parsed{Command: CommandServe, Addr: ":9090"}},
		{name: "skip", args: []string{"skip"}, want: Parsed{Command: CommandSkip}},
		{name: "stop with config", args: []string{"--config", "/tmp/cfg", "stop"}, want: Parsed{Command: CommandStop, ConfigPath: "/tmp/cfg"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, parsed)
		})
	}
}

func TestForwardedCommands(t *testing.T) {
	for _, cmd := range []Command{CommandStart, CommandRetry, CommandRecord, CommandStop, CommandSubmit, CommandSkip, CommandToggle, CommandStatus} {
		require.True(t, cmd.Forwarded(), cmd)
	}
	for _, cmd := range []Command{CommandRun, CommandResults, CommandExport, CommandServe, CommandDevices, CommandDoctor, CommandVersion, CommandHelp} {
		require.False(t, cmd.Forwarded(), cmd)
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("intervu")
	for _, want := range []string{"run", "toggle", "submit", "skip", "results", "export", "serve", "doctor", "--config PATH"} {
		require.Contains(t, text, want)
	}
}
