package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "espeak-ng {text}", want: []string{"espeak-ng", "{text}"}},
		{name: "quoted spaces", input: `speak --name "hello world"`, want: []string{"speak", "--name", "hello world"}},
		{name: "single quote", input: `speak --name 'hello world'`, want: []string{"speak", "--name", "hello world"}},
		{name: "escaped space", input: `speak hello\ world`, want: []string{"speak", "hello world"}},
		{name: "leading comment", input: `# ffplay {device}`, want: nil},
		{name: "unterminated quote", input: `speak "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `speak hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMustParseArgvPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustParseArgv(`speak "unterminated`)
	})
}
