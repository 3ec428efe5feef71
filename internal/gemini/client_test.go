package gemini

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/rbright/intervu/internal/interview"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	calls   atomic.Int32
	replies []reply
	last    []*genai.Content
	cfg     *genai.GenerateContentConfig
}

type reply struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	n := int(f.calls.Add(1)) - 1
	f.last = contents
	f.cfg = cfg
	r := f.replies[min(n, len(f.replies)-1)]
	if r.err != nil {
		return nil, r.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: r.text}}}}},
	}, nil
}

func newTestClient(replies ...reply) (*Client, *fakeGenerator) {
	gen := &fakeGenerator{replies: replies}
	return &Client{gen: gen, model: DefaultModel, backoff: time.Millisecond}, gen
}

const validAnalysis = `{"overallScore":72.5,"technicalScore":7,"communicationScore":8,"recommendation":"Consider",
"finalFeedback":"Solid.","detailedFeedback":{"strengths":["clear"]},"scoreBreakdown":{"technical":7,"communication":8,"problemSolving":6,"experience":7}}`

func sampleTranscript() interview.Transcript {
	return interview.Transcript{
		Email:     "ada@example.com",
		Candidate: interview.Candidate{Name: "Ada", Position: "SRE"},
		Questions: []interview.Question{
			{ID: "q1", Text: "Tell me about yourself.", Category: "intro", Difficulty: interview.DifficultyEasy},
			{ID: "q2", Text: "Explain backpressure."},
			{ID: "q3", Text: "Why this role?"},
		},
		Responses: []interview.Response{
			{QuestionID: "q1", Answer: "I run platforms."},
			{QuestionID: "q2", Answer: interview.SkippedAnswer, Skipped: true},
		},
	}
}

func TestScoreDecodesStructuredAnalysis(t *testing.T) {
	c, gen := newTestClient(reply{text: "```json\n" + validAnalysis + "\n```"})

	a, err := c.Score(context.Background(), sampleTranscript())
	require.NoError(t, err)
	require.Equal(t, 72.5, a.OverallScore)
	require.Equal(t, interview.RecommendationConsider, a.Recommendation)
	require.Equal(t, []string{"clear"}, a.DetailedFeedback.Strengths)

	require.Equal(t, "application/json", gen.cfg.ResponseMIMEType)
	require.NotNil(t, gen.cfg.ResponseSchema)
	require.Contains(t, gen.cfg.ResponseSchema.Properties, "scoreBreakdown")
}

func TestScoreRejectsOutOfRangeAnalysis(t *testing.T) {
	c, _ := newTestClient(reply{text: `{"overallScore":140,"recommendation":"Hire"}`})
	_, err := c.Score(context.Background(), sampleTranscript())
	require.ErrorContains(t, err, "invalid analysis")
}

func TestScoreRejectsNonJSON(t *testing.T) {
	c, _ := newTestClient(reply{text: "I think they did great"})
	_, err := c.Score(context.Background(), sampleTranscript())
	require.ErrorContains(t, err, "decode analysis")
}

func TestGenerateRetries(t *testing.T) {
	tests := []struct {
		name      string
		replies   []reply
		wantCalls int32
		wantErr   string
	}{
		{
			name:      "retriable then success",
			replies:   []reply{{err: errors.New("read: connection reset by peer")}, {text: validAnalysis}},
			wantCalls: 2,
		},
		{
			name:      "empty then success",
			replies:   []reply{{text: ""}, {text: validAnalysis}},
			wantCalls: 2,
		},
		{
			name:      "fatal error stops",
			replies:   []reply{{err: errors.New("permission denied")}},
			wantCalls: 1,
			wantErr:   "permission denied",
		},
		{
			name:      "exhausted",
			replies:   []reply{{err: errors.New("timeout")}},
			wantCalls: maxAttempts,
			wantErr:   "timeout",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, gen := newTestClient(tc.replies...)
			_, err := c.Score(context.Background(), sampleTranscript())
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantCalls, gen.calls.Load())
		})
	}
}

func TestTranscribeSendsInlineWAV(t *testing.T) {
	c, gen := newTestClient(reply{text: "  hello there \n"})

	text, err := c.Transcribe(context.Background(), []byte("RIFF"))
	require.NoError(t, err)
	require.Equal(t, "Hello there", text)

	parts := gen.last[0].Parts
	require.Len(t, parts, 2)
	require.Equal(t, "audio/wav", parts[1].InlineData.MIMEType)
	require.Equal(t, []byte("RIFF"), parts[1].InlineData.Data)
}

func TestTranscribeNormalizesSilence(t *testing.T) {
	c, _ := newTestClient(reply{text: "[inaudible]\n"})

	text, err := c.Transcribe(context.Background(), []byte("RIFF"))
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	c, gen := newTestClient(reply{text: "x"})
	_, err := c.Transcribe(context.Background(), nil)
	require.Error(t, err)
	require.Zero(t, gen.calls.Load())
}

func TestBuildPromptMarksMissingAnswers(t *testing.T) {
	prompt := buildPrompt(sampleTranscript())
	require.Contains(t, prompt, "Analyze this interview for SRE candidate")
	require.Contains(t, prompt, "Question 1 (intro - easy):\nTell me about yourself.")
	require.Contains(t, prompt, "Answer: I run platforms.")
	require.Contains(t, prompt, "Answer: [Skipped]")
	require.Contains(t, prompt, "Question 3 (general - unrated):")
	require.Contains(t, prompt, "Answer: [No answer provided]")
	require.Contains(t, prompt, "Experience Level: Not specified")
}

func TestNewValidatesBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "missing key", cfg: Config{}, wantErr: "api key is empty"},
		{name: "missing project", cfg: Config{Backend: BackendVertexAI}, wantErr: "project is empty"},
		{name: "unknown backend", cfg: Config{Backend: "openai"}, wantErr: "unknown gemini backend"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(context.Background(), tc.cfg)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestCleanJSON(t *testing.T) {
	require.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, cleanJSON(` {"a":1} `))
}
