package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		opts Options
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \n\t ", want: ""},
		{name: "collapses whitespace", in: "  I   built\na\tcache ", want: "I built a cache"},
		{name: "strips label", in: "Transcript: we sharded the table", want: "we sharded the table"},
		{name: "strips transcription label", in: "transcription:  hello", want: "hello"},
		{name: "strips quotes", in: `"I led the migration."`, want: "I led the migration."},
		{name: "silence marker", in: "[silence]", want: ""},
		{name: "no speech marker with period", in: "(no speech).", want: ""},
		{name: "inaudible marker", in: " [Inaudible] ", want: ""},
		{name: "marker inside answer kept", in: "it was [inaudible] fast", want: "it was [inaudible] fast"},
		{
			name: "sentence case",
			in:   "hello there. i think i'm ready! are you? yes.",
			opts: Options{CapitalizeSentences: true},
			want: "Hello there. I think I'm ready! Are you? Yes.",
		},
		{
			name: "decimal is not a boundary",
			in:   "we hit 3.5 times the load. then it fell over",
			opts: Options{CapitalizeSentences: true},
			want: "We hit 3.5 times the load. Then it fell over",
		},
		{
			name: "abbreviations are not boundaries",
			in:   "tools e.g. kafka. talked to dr. smith about it",
			opts: Options{CapitalizeSentences: true},
			want: "Tools e.g. kafka. Talked to dr. smith about it",
		},
		{
			name: "lowercase abbreviation at start",
			in:   "e.g. redis was the bottleneck",
			opts: Options{CapitalizeSentences: true},
			want: "e.g. redis was the bottleneck",
		},
		{
			name: "pronoun inside words untouched",
			in:   "in my opinion it is fine",
			opts: Options{CapitalizeSentences: true},
			want: "In my opinion it is fine",
		},
		{
			name: "sentence case off keeps casing",
			in:   "i think so. yes",
			want: "i think so. yes",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Normalize(tc.in, tc.opts))
		})
	}
}
